package repository

import (
	"context"
	"errors"

	"stayhub-backend/apperrors"
	"stayhub-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CampaignRepository struct {
	db *gorm.DB
}

func NewCampaignRepository(db *gorm.DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

func (r *CampaignRepository) Create(ctx context.Context, c *models.CampaignLog) error {
	return r.db.WithContext(ctx).Create(c).Error
}

// Save refuses to touch a campaign that was sealed before this call.
func (r *CampaignRepository) Save(ctx context.Context, c *models.CampaignLog) error {
	result := r.db.WithContext(ctx).Model(&models.CampaignLog{}).
		Where("id = ? AND completed_at IS NULL", c.ID).
		Select("status", "target_count", "sent_count", "failed_count", "completed_at", "error_message").
		Updates(c)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("campaign is sealed or missing")
	}
	return nil
}

func (r *CampaignRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.CampaignLog, error) {
	var c models.CampaignLog
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCampaignNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *CampaignRepository) List(ctx context.Context, scheduleID *uuid.UUID, limit, offset int) ([]models.CampaignLog, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.CampaignLog{})
	if scheduleID != nil {
		q = q.Where("schedule_id = ?", *scheduleID)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []models.CampaignLog
	if err := q.Order("started_at DESC").Limit(limit).Offset(offset).Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *CampaignRepository) CreateDelivery(ctx context.Context, d *models.DeliveryLog) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *CampaignRepository) ListDeliveries(ctx context.Context, campaignID uuid.UUID) ([]models.DeliveryLog, error) {
	var out []models.DeliveryLog
	err := r.db.WithContext(ctx).Where("campaign_id = ?", campaignID).Order("sent_at").Find(&out).Error
	return out, err
}
