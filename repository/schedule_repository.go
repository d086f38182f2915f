package repository

import (
	"context"
	"errors"
	"time"

	"stayhub-backend/apperrors"
	"stayhub-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ScheduleRepository struct {
	db *gorm.DB
}

func NewScheduleRepository(db *gorm.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

func (r *ScheduleRepository) List(ctx context.Context, active *bool, templateID *uuid.UUID) ([]models.TemplateSchedule, error) {
	q := r.db.WithContext(ctx)
	if active != nil {
		q = q.Where("is_active = ?", *active)
	}
	if templateID != nil {
		q = q.Where("template_id = ?", *templateID)
	}

	var out []models.TemplateSchedule
	if err := q.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ScheduleRepository) ListActive(ctx context.Context) ([]models.TemplateSchedule, error) {
	active := true
	return r.List(ctx, &active, nil)
}

func (r *ScheduleRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.TemplateSchedule, error) {
	var s models.TemplateSchedule
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrScheduleNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *ScheduleRepository) Create(ctx context.Context, s *models.TemplateSchedule) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *ScheduleRepository) Save(ctx context.Context, s *models.TemplateSchedule) error {
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *ScheduleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.TemplateSchedule{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrScheduleNotFound
	}
	return nil
}

// UpdateLastRun and UpdateNextRun touch a single column so the engine never
// overwrites operator edits made concurrently.
func (r *ScheduleRepository) UpdateLastRun(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.TemplateSchedule{}).
		Where("id = ?", id).UpdateColumn("last_run", at).Error
}

func (r *ScheduleRepository) UpdateNextRun(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.TemplateSchedule{}).
		Where("id = ?", id).UpdateColumn("next_run", at).Error
}
