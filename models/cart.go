package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CartItem struct {
	ID          uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	MemberID    uuid.UUID      `gorm:"type:uuid;not null" json:"member_id"`
	Member      Member         `gorm:"foreignKey:MemberID" json:"-"`
	StoreItemID uuid.UUID      `gorm:"type:uuid;not null" json:"store_item_id"`
	Item        StoreItem      `gorm:"foreignKey:StoreItemID" json:"item"`
	Quantity    int            `gorm:"default:1" json:"quantity"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (c *CartItem) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
