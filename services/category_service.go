package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"truthordare/models"
	"truthordare/repository"
)

type CategoryService struct {
	categories repository.CategoryRepository
	now        func() time.Time
}

func NewCategoryService(categories repository.CategoryRepository) *CategoryService {
	return &CategoryService{categories: categories, now: time.Now}
}

type CreateCategoryInput struct {
	Name        string  `json:"name" validate:"required,notblank,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

type UpdateCategoryInput struct {
	Name        *string `json:"name" validate:"omitempty,notblank,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

// Slugify lower-cases name, transliterates it to ASCII and collapses every
// run of other characters into a single dash.
func Slugify(name string) string {
	return slug.Make(name)
}

func (s *CategoryService) Create(ctx context.Context, in CreateCategoryInput) (*models.Category, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	slug := Slugify(in.Name)
	if slug == "" {
		return nil, Validation([]FieldError{{Field: "name", Message: "must contain at least one letter or digit"}})
	}

	if _, err := s.categories.FindBySlug(ctx, slug); err == nil {
		return nil, duplicateSlug()
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, Internal(err)
	}

	now := s.now()
	category := &models.Category{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Slug:        slug,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.categories.Create(ctx, category); err != nil {
		if repository.IsConstraint(err, repository.ConstraintCategorySlug) {
			return nil, duplicateSlug()
		}
		return nil, Internal(err)
	}
	return category, nil
}

func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, Internal(err)
	}
	if categories == nil {
		categories = []models.Category{}
	}
	return categories, nil
}

func (s *CategoryService) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	category, err := s.categories.FindBySlug(ctx, slug)
	if err != nil {
		return nil, notFoundOr(err, "Category not found", map[string]string{"searchedSlug": slug})
	}
	return category, nil
}

// GetByIDOrSlug tries the id first and falls back to treating it as a slug.
func (s *CategoryService) GetByIDOrSlug(ctx context.Context, id string) (*models.Category, error) {
	category, err := s.categories.FindByID(ctx, id)
	if err == nil {
		return category, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, Internal(err)
	}
	category, err = s.categories.FindBySlug(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Category not found", map[string]string{"searchedId": id})
	}
	return category, nil
}

// Update changes the display fields. The slug stays as created.
func (s *CategoryService) Update(ctx context.Context, id string, in UpdateCategoryInput) (*models.Category, error) {
	if trimOptional(in.Name) {
		return nil, blankField("name")
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Category not found", map[string]string{"id": id})
	}
	if in.Name != nil {
		category.Name = *in.Name
	}
	if in.Description != nil {
		category.Description = in.Description
	}
	category.UpdatedAt = s.now()

	if err := s.categories.Update(ctx, category); err != nil {
		return nil, notFoundOr(err, "Category not found", map[string]string{"id": id})
	}
	return category, nil
}

// Delete removes the category; its rooms and questions cascade.
func (s *CategoryService) Delete(ctx context.Context, id string) error {
	if err := s.categories.Delete(ctx, id); err != nil {
		return notFoundOr(err, "Category not found", map[string]string{"id": id})
	}
	return nil
}

func duplicateSlug() *AppError {
	return Conflict(CodeDuplicateSlug, "Category with this slug already exists")
}
