package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CampaignStatus string

const (
	CampaignCreated         CampaignStatus = "created"
	CampaignTargetsResolved CampaignStatus = "targets_resolved"
	CampaignDispatching     CampaignStatus = "dispatching"
	CampaignCompleted       CampaignStatus = "completed"
	CampaignFailed          CampaignStatus = "failed"
)

// CampaignLog is the outcome record of one dispatch execution. It is sealed
// once CompletedAt is set and never written again.
type CampaignLog struct {
	ID           uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	CampaignType string         `gorm:"type:varchar(200);not null" json:"campaignType"`
	ScheduleID   *uuid.UUID     `gorm:"type:uuid;index" json:"scheduleId"`
	TargetTag    string         `gorm:"type:varchar(100)" json:"targetTag"`
	Status       CampaignStatus `gorm:"type:varchar(20);not null" json:"status"`
	TargetCount  int            `gorm:"not null" json:"targetCount"`
	SentCount    int            `gorm:"not null" json:"sentCount"`
	FailedCount  int            `gorm:"not null" json:"failedCount"`
	StartedAt    time.Time      `gorm:"not null" json:"startedAt"`
	CompletedAt  *time.Time     `json:"completedAt"`
	ErrorMessage string         `gorm:"type:text" json:"errorMessage"`
	Metadata     JSONB          `gorm:"type:jsonb;default:'{}'" json:"metadata"`
	CreatedAt    time.Time      `json:"createdAt"`
}

func (c *CampaignLog) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return
}

func (c *CampaignLog) Sealed() bool {
	return c.CompletedAt != nil
}
