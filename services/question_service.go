package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"truthordare/models"
	"truthordare/repository"
)

type QuestionService struct {
	questions  repository.QuestionRepository
	categories repository.CategoryRepository
	now        func() time.Time
}

func NewQuestionService(questions repository.QuestionRepository, categories repository.CategoryRepository) *QuestionService {
	return &QuestionService{questions: questions, categories: categories, now: time.Now}
}

type CreateQuestionInput struct {
	CategorySlug string `json:"categorySlug" validate:"required,notblank"`
	Content      string `json:"content" validate:"required,notblank,max=200"`
}

type UpdateQuestionInput struct {
	Content *string `json:"content" validate:"omitempty,notblank,max=200"`
}

func (s *QuestionService) Create(ctx context.Context, in CreateQuestionInput) (*models.Question, error) {
	in.CategorySlug = strings.TrimSpace(in.CategorySlug)
	in.Content = strings.TrimSpace(in.Content)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if _, err := s.categories.FindBySlug(ctx, in.CategorySlug); err != nil {
		return nil, notFoundOr(err, "Category not found", map[string]string{"categorySlug": in.CategorySlug})
	}

	now := s.now()
	question := &models.Question{
		ID:           uuid.NewString(),
		CategorySlug: in.CategorySlug,
		Content:      in.Content,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.questions.Create(ctx, question); err != nil {
		if errors.Is(err, repository.ErrForeignKey) {
			return nil, Conflict(CodeForeignKey, "Referenced category does not exist")
		}
		return nil, Internal(err)
	}
	return question, nil
}

// List pages through all questions, oldest first.
func (s *QuestionService) List(ctx context.Context, page, limit int) ([]models.Question, Pagination, error) {
	page, limit = normalizePage(page, limit)
	questions, total, err := s.questions.List(ctx, pageOffset(page, limit), limit)
	if err != nil {
		return nil, Pagination{}, Internal(err)
	}
	if questions == nil {
		questions = []models.Question{}
	}
	return questions, newPagination(page, limit, total), nil
}

func (s *QuestionService) ListByCategory(ctx context.Context, categorySlug string) ([]models.Question, error) {
	if _, err := s.categories.FindBySlug(ctx, categorySlug); err != nil {
		return nil, notFoundOr(err, "Category not found", map[string]string{"categorySlug": categorySlug})
	}
	questions, err := s.questions.ListByCategory(ctx, categorySlug)
	if err != nil {
		return nil, Internal(err)
	}
	if questions == nil {
		questions = []models.Question{}
	}
	return questions, nil
}

func (s *QuestionService) GetByID(ctx context.Context, id string) (*models.Question, error) {
	question, err := s.questions.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Question not found", map[string]string{"id": id})
	}
	return question, nil
}

func (s *QuestionService) Update(ctx context.Context, id string, in UpdateQuestionInput) (*models.Question, error) {
	if trimOptional(in.Content) {
		return nil, blankField("content")
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	question, err := s.questions.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Question not found", map[string]string{"id": id})
	}
	if in.Content != nil {
		question.Content = *in.Content
	}
	question.UpdatedAt = s.now()

	if err := s.questions.Update(ctx, question); err != nil {
		return nil, notFoundOr(err, "Question not found", map[string]string{"id": id})
	}
	return question, nil
}

func (s *QuestionService) Delete(ctx context.Context, id string) error {
	if err := s.questions.Delete(ctx, id); err != nil {
		return notFoundOr(err, "Question not found", map[string]string{"id": id})
	}
	return nil
}
