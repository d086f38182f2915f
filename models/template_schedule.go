package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RecurrenceType string

const (
	RecurrenceDaily    RecurrenceType = "daily"
	RecurrenceWeekly   RecurrenceType = "weekly"
	RecurrenceHourly   RecurrenceType = "hourly"
	RecurrenceInterval RecurrenceType = "interval"
)

type TargetType string

const (
	TargetAll          TargetType = "all"
	TargetTag          TargetType = "tag"
	TargetRoomAssigned TargetType = "room_assigned"
	TargetPartyOnly    TargetType = "party_only"
)

func (t TargetType) Valid() bool {
	switch t {
	case TargetAll, TargetTag, TargetRoomAssigned, TargetPartyOnly:
		return true
	}
	return false
}

// ScheduleJobPrefix prefixes every scheduler key owned by a TemplateSchedule.
const ScheduleJobPrefix = "schedule_"

// TemplateSchedule is an operator-editable automation rule: when to fire,
// whom to target and which template to send.
type TemplateSchedule struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name       string    `gorm:"type:varchar(200);not null" json:"name"`
	TemplateID uuid.UUID `gorm:"type:uuid;index;not null" json:"templateId"`

	RecurrenceType  RecurrenceType `gorm:"type:varchar(20);not null" json:"recurrenceType"`
	Hour            *int           `json:"hour"`
	Minute          *int           `json:"minute"`
	DayOfWeek       string         `gorm:"type:varchar(50)" json:"dayOfWeek"` // mon,wed,fri
	IntervalMinutes *int           `json:"intervalMinutes"`
	Timezone        string         `gorm:"type:varchar(50)" json:"timezone"`

	TargetType  TargetType `gorm:"type:varchar(20);not null" json:"targetType"`
	TargetValue string     `gorm:"type:varchar(100)" json:"targetValue"`
	DateFilter  string     `gorm:"type:varchar(20)" json:"dateFilter"` // today, tomorrow, YYYY-MM-DD
	SMSChannel  SMSChannel `gorm:"column:sms_type;type:varchar(20);not null" json:"smsChannel"`
	ExcludeSent bool       `gorm:"not null" json:"excludeSent"`
	IsActive    bool       `gorm:"not null;index" json:"isActive"`

	LastRun   *time.Time `json:"lastRun"`
	NextRun   *time.Time `json:"nextRun"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func (s *TemplateSchedule) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return
}

// JobKey is the scheduler registration key for this schedule.
func (s *TemplateSchedule) JobKey() string {
	return ScheduleJobKey(s.ID)
}

func ScheduleJobKey(id uuid.UUID) string {
	return ScheduleJobPrefix + id.String()
}
