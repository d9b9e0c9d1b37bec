package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StoreItem struct {
	ID          uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Name        string         `gorm:"not null" json:"name"`
	Description string         `json:"description"`
	PointsPrice int            `gorm:"not null" json:"points_price"`
	Stock       int            `gorm:"default:0" json:"stock"`
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	OfferEndsAt *time.Time     `json:"offer_ends_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (s *StoreItem) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Available reports whether the item can currently be purchased.
func (s *StoreItem) Available(now time.Time) bool {
	if !s.IsActive {
		return false
	}
	if s.OfferEndsAt != nil && now.After(*s.OfferEndsAt) {
		return false
	}
	return true
}
