package repository

import (
	"context"
	"errors"

	"stayhub-backend/apperrors"
	"stayhub-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TemplateRepository struct {
	db *gorm.DB
}

func NewTemplateRepository(db *gorm.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

func (r *TemplateRepository) List(ctx context.Context, category string, active *bool) ([]models.MessageTemplate, error) {
	q := r.db.WithContext(ctx)
	if category != "" {
		q = q.Where("category = ?", category)
	}
	if active != nil {
		q = q.Where("is_active = ?", *active)
	}

	var out []models.MessageTemplate
	if err := q.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *TemplateRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.MessageTemplate, error) {
	var t models.MessageTemplate
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTemplateNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *TemplateRepository) GetActiveByKey(ctx context.Context, key string) (*models.MessageTemplate, error) {
	var t models.MessageTemplate
	if err := r.db.WithContext(ctx).Where("key = ? AND is_active = ?", key, true).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTemplateNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *TemplateRepository) Create(ctx context.Context, t *models.MessageTemplate) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *TemplateRepository) Save(ctx context.Context, t *models.MessageTemplate) error {
	return r.db.WithContext(ctx).Save(t).Error
}

func (r *TemplateRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.MessageTemplate{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrTemplateNotFound
	}
	return nil
}

// CountSchedules reports how many schedules reference the template,
// optionally only the active ones.
func (r *TemplateRepository) CountSchedules(ctx context.Context, id uuid.UUID, activeOnly bool) (int64, error) {
	q := r.db.WithContext(ctx).Model(&models.TemplateSchedule{}).Where("template_id = ?", id)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}

	var n int64
	err := q.Count(&n).Error
	return n, err
}

// KeyTaken reports whether another template already uses key.
func (r *TemplateRepository) KeyTaken(ctx context.Context, key string, except uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.MessageTemplate{}).
		Where("key = ? AND id <> ?", key, except).
		Count(&n).Error
	return n > 0, err
}
