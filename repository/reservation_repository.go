package repository

import (
	"context"
	"fmt"
	"time"

	"stayhub-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReservationRepository struct {
	db *gorm.DB
}

func NewReservationRepository(db *gorm.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

// ListCandidates returns confirmed reservations, restricted to date when it
// is non-empty. Finer targeting happens in memory.
func (r *ReservationRepository) ListCandidates(ctx context.Context, date string) ([]models.Reservation, error) {
	q := r.db.WithContext(ctx).Where("status = ?", models.StatusConfirmed)
	if date != "" {
		q = q.Where("date = ?", date)
	}

	var out []models.Reservation
	if err := q.Order("id").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// MarkSent writes only the channel's flag and timestamp so that concurrent
// room and party sends to the same reservation never clobber each other.
func (r *ReservationRepository) MarkSent(ctx context.Context, id uuid.UUID, ch models.SMSChannel, at time.Time) error {
	var updates map[string]interface{}
	switch ch {
	case models.ChannelRoom:
		updates = map[string]interface{}{"room_sms_sent": true, "room_sms_sent_at": at}
	case models.ChannelParty:
		updates = map[string]interface{}{"party_sms_sent": true, "party_sms_sent_at": at}
	default:
		return fmt.Errorf("unknown sms channel %q", ch)
	}

	return r.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("id = ?", id).
		UpdateColumns(updates).Error
}

func (r *ReservationRepository) ParticipantStats(ctx context.Context, date string) (models.ParticipantStats, error) {
	var stats models.ParticipantStats
	statuses := []models.ReservationStatus{models.StatusConfirmed, models.StatusCompleted}

	var total, female int64
	base := r.db.WithContext(ctx).Model(&models.Reservation{}).
		Where("date = ? AND status IN ?", date, statuses)

	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return stats, err
	}
	if err := base.Session(&gorm.Session{}).Where("gender = ?", "여").Count(&female).Error; err != nil {
		return stats, err
	}

	stats.Total = int(total)
	stats.Female = int(female)
	stats.Male = stats.Total - stats.Female
	return stats, nil
}
