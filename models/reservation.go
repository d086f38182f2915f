package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReservationStatus string

const (
	StatusPending   ReservationStatus = "pending"
	StatusConfirmed ReservationStatus = "confirmed"
	StatusCancelled ReservationStatus = "cancelled"
	StatusCompleted ReservationStatus = "completed"
)

// SMSChannel selects which per-reservation sent flag a send consults and sets.
type SMSChannel string

const (
	ChannelRoom  SMSChannel = "room"
	ChannelParty SMSChannel = "party"
)

func (c SMSChannel) Valid() bool {
	return c == ChannelRoom || c == ChannelParty
}

// Reservation is owned by the reservation subsystem. The notification engine
// only writes the sent flags and their timestamps.
type Reservation struct {
	ID           uuid.UUID         `gorm:"type:uuid;primary_key" json:"id"`
	CustomerName string            `gorm:"type:varchar(100);not null" json:"customerName"`
	Phone        string            `gorm:"type:varchar(20);not null" json:"phone"`
	Date         string            `gorm:"type:varchar(20);index;not null" json:"date"` // YYYY-MM-DD
	Time         string            `gorm:"type:varchar(10)" json:"time"`
	Status       ReservationStatus `gorm:"type:varchar(20);index;not null" json:"status"`

	RoomNumber   *string `gorm:"type:varchar(20)" json:"roomNumber"`
	RoomPassword string  `gorm:"type:varchar(20)" json:"roomPassword"`
	RoomInfo     string  `gorm:"type:varchar(200)" json:"roomInfo"`

	Gender            string `gorm:"type:varchar(10)" json:"gender"` // 남, 여
	PartyParticipants int    `json:"partyParticipants"`
	Tags              string `gorm:"type:text" json:"tags"` // free text, e.g. "객후,1초,2차만"

	RoomSMSSent    bool       `gorm:"not null" json:"roomSmsSent"`
	RoomSMSSentAt  *time.Time `json:"roomSmsSentAt"`
	PartySMSSent   bool       `gorm:"not null" json:"partySmsSent"`
	PartySMSSentAt *time.Time `json:"partySmsSentAt"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (r *Reservation) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}

func (r *Reservation) HasRoom() bool {
	return r.RoomNumber != nil && *r.RoomNumber != ""
}

func (r *Reservation) Room() string {
	if r.RoomNumber == nil {
		return ""
	}
	return *r.RoomNumber
}

// SentFor reports the sent flag for the given channel.
func (r *Reservation) SentFor(ch SMSChannel) bool {
	switch ch {
	case ChannelRoom:
		return r.RoomSMSSent
	case ChannelParty:
		return r.PartySMSSent
	}
	return false
}

// MarkSent sets the channel's flag and timestamp in memory.
func (r *Reservation) MarkSent(ch SMSChannel, at time.Time) {
	switch ch {
	case ChannelRoom:
		r.RoomSMSSent = true
		r.RoomSMSSentAt = &at
	case ChannelParty:
		r.PartySMSSent = true
		r.PartySMSSentAt = &at
	}
}

// ParticipantStats aggregates confirmed and completed reservations for a date.
type ParticipantStats struct {
	Total  int
	Male   int
	Female int
}
