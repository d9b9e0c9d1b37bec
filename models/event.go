package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EventStatus string

const (
	EventStatusDraft     EventStatus = "draft"
	EventStatusActive    EventStatus = "active"
	EventStatusCompleted EventStatus = "completed"
	EventStatusCancelled EventStatus = "cancelled"
)

type Event struct {
	ID                     uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Name                   string         `gorm:"not null" json:"name"`
	Description            string         `json:"description"`
	StartAt                time.Time      `gorm:"not null" json:"start_at"`
	EndAt                  time.Time      `gorm:"not null" json:"end_at"`
	TotalPoints            int            `gorm:"default:0" json:"total_points"`
	AllowMultipleCheckins  bool           `gorm:"default:false" json:"allow_multiple_checkins"`
	MaxCheckinsPerUser     int            `gorm:"default:1" json:"max_checkins_per_user"`
	CheckinIntervalSeconds int            `gorm:"default:0" json:"checkin_interval_seconds"`
	QrRotationSeconds      int            `gorm:"default:30" json:"qr_rotation_seconds"`
	Status                 EventStatus    `gorm:"default:draft" json:"status"`
	CreatedAt              time.Time      `json:"created_at"`
	UpdatedAt              time.Time      `json:"updated_at"`
	DeletedAt              gorm.DeletedAt `gorm:"index" json:"-"`
}

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// EffectiveMaxCheckins is 1 when multiple check-ins are disabled, regardless
// of what max_checkins_per_user says.
func (e *Event) EffectiveMaxCheckins() int {
	if !e.AllowMultipleCheckins {
		return 1
	}
	if e.MaxCheckinsPerUser < 1 {
		return 1
	}
	return e.MaxCheckinsPerUser
}

// PointsPerCheckin divides the event's points across the permitted check-ins.
// Integer division: an event with total_points=100 and a cap of 3 awards 33
// per check-in, and the remainder is never paid out.
func (e *Event) PointsPerCheckin() int {
	return e.TotalPoints / e.EffectiveMaxCheckins()
}

// AllowedEventTransitions defines the event lifecycle state machine.
var AllowedEventTransitions = map[EventStatus][]EventStatus{
	EventStatusDraft:     {EventStatusActive, EventStatusCancelled},
	EventStatusActive:    {EventStatusCompleted, EventStatusCancelled},
	EventStatusCompleted: {},
	EventStatusCancelled: {},
}

// IsValidEventTransition checks if a status transition is allowed.
func IsValidEventTransition(from, to EventStatus) bool {
	allowed, exists := AllowedEventTransitions[from]
	if !exists {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}
