// models/delivery_log.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DeliverySent   = "sent"
	DeliveryFailed = "failed"
)

// DeliveryLog records a single send attempt within a campaign.
type DeliveryLog struct {
	ID                uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	CampaignID        uuid.UUID  `gorm:"type:uuid;index;not null" json:"campaignId"`
	ReservationID     uuid.UUID  `gorm:"type:uuid;index;not null" json:"reservationId"`
	Phone             string     `gorm:"type:varchar(20)" json:"phone"`
	Message           string     `gorm:"type:text" json:"message"`
	Channel           SMSChannel `gorm:"type:varchar(20)" json:"channel"` // room, party
	Provider          string     `gorm:"type:varchar(20)" json:"provider"`
	ProviderMessageID string     `gorm:"type:varchar(100)" json:"providerMessageId"`
	Status            string     `gorm:"type:varchar(20)" json:"status"` // sent, failed
	ErrorMessage      string     `gorm:"type:text" json:"errorMessage"`
	SentAt            time.Time  `json:"sentAt"`
	CreatedAt         time.Time  `json:"createdAt"`
}

func (d *DeliveryLog) BeforeCreate(tx *gorm.DB) (err error) {
	d.ID = uuid.New()
	return
}
