package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"truthordare/models"
	"truthordare/repository"
)

type CategoryRepository struct {
	mock.Mock
}

func (m *CategoryRepository) Create(ctx context.Context, category *models.Category) error {
	args := m.Called(ctx, category)
	return args.Error(0)
}

func (m *CategoryRepository) List(ctx context.Context) ([]models.Category, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]models.Category), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *CategoryRepository) FindByID(ctx context.Context, id string) (*models.Category, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*models.Category), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *CategoryRepository) FindBySlug(ctx context.Context, slug string) (*models.Category, error) {
	args := m.Called(ctx, slug)
	if v := args.Get(0); v != nil {
		return v.(*models.Category), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *CategoryRepository) Update(ctx context.Context, category *models.Category) error {
	args := m.Called(ctx, category)
	return args.Error(0)
}

func (m *CategoryRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

var _ repository.CategoryRepository = (*CategoryRepository)(nil)

type QuestionRepository struct {
	mock.Mock
}

func (m *QuestionRepository) Create(ctx context.Context, question *models.Question) error {
	args := m.Called(ctx, question)
	return args.Error(0)
}

func (m *QuestionRepository) List(ctx context.Context, offset, limit int) ([]models.Question, int64, error) {
	args := m.Called(ctx, offset, limit)
	var questions []models.Question
	if v := args.Get(0); v != nil {
		questions = v.([]models.Question)
	}
	return questions, args.Get(1).(int64), args.Error(2)
}

func (m *QuestionRepository) ListByCategory(ctx context.Context, categorySlug string) ([]models.Question, error) {
	args := m.Called(ctx, categorySlug)
	if v := args.Get(0); v != nil {
		return v.([]models.Question), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *QuestionRepository) FindByID(ctx context.Context, id string) (*models.Question, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*models.Question), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *QuestionRepository) Update(ctx context.Context, question *models.Question) error {
	args := m.Called(ctx, question)
	return args.Error(0)
}

func (m *QuestionRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

var _ repository.QuestionRepository = (*QuestionRepository)(nil)
