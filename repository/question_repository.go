package repository

import (
	"context"

	"gorm.io/gorm"

	"truthordare/models"
)

type GormQuestionRepository struct {
	db *gorm.DB
}

func NewGormQuestionRepository(db *gorm.DB) *GormQuestionRepository {
	if db == nil {
		panic("database connection cannot be nil for GormQuestionRepository")
	}
	return &GormQuestionRepository{db: db}
}

func (r *GormQuestionRepository) Create(ctx context.Context, question *models.Question) error {
	return translate(r.db.WithContext(ctx).Create(question).Error, "create question")
}

func (r *GormQuestionRepository) List(ctx context.Context, offset, limit int) ([]models.Question, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Question{}).Count(&total).Error; err != nil {
		return nil, 0, translate(err, "count questions")
	}
	var questions []models.Question
	err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Offset(offset).
		Limit(limit).
		Find(&questions).Error
	if err != nil {
		return nil, 0, translate(err, "list questions")
	}
	return questions, total, nil
}

func (r *GormQuestionRepository) ListByCategory(ctx context.Context, categorySlug string) ([]models.Question, error) {
	var questions []models.Question
	err := r.db.WithContext(ctx).
		Where("category_slug = ?", categorySlug).
		Order("created_at ASC").
		Find(&questions).Error
	if err != nil {
		return nil, translate(err, "list questions by category")
	}
	return questions, nil
}

func (r *GormQuestionRepository) FindByID(ctx context.Context, id string) (*models.Question, error) {
	var question models.Question
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&question).Error; err != nil {
		return nil, translate(err, "find question")
	}
	return &question, nil
}

func (r *GormQuestionRepository) Update(ctx context.Context, question *models.Question) error {
	res := r.db.WithContext(ctx).Model(question).
		Select("content", "updated_at").
		Updates(question)
	if res.Error != nil {
		return translate(res.Error, "update question")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormQuestionRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Question{})
	if res.Error != nil {
		return translate(res.Error, "delete question")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
