package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CheckIn is an immutable record of one point-earning scan at an event.
type CheckIn struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	EventID       uuid.UUID `gorm:"type:uuid;not null;index:idx_checkins_event_member" json:"event_id"`
	Event         Event     `gorm:"foreignKey:EventID" json:"-"`
	MemberID      uuid.UUID `gorm:"type:uuid;not null;index:idx_checkins_event_member" json:"member_id"`
	Member        Member    `gorm:"foreignKey:MemberID" json:"-"`
	PointsAwarded int       `gorm:"not null" json:"points_awarded"`
	CreatedAt     time.Time `json:"created_at"`
}

func (ci *CheckIn) BeforeCreate(tx *gorm.DB) error {
	if ci.ID == uuid.Nil {
		ci.ID = uuid.New()
	}
	return nil
}
