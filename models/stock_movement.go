package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StockItemStore = "store_item"
	StockItemKyosk = "kyosk_product"
)

// StockMovement is an immutable log row written alongside every stock counter
// change. The sum of movements for an item reconciles with its counter.
type StockMovement struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	ItemType  string    `gorm:"not null;index:idx_stock_movements_item" json:"item_type"`
	ItemID    uuid.UUID `gorm:"type:uuid;not null;index:idx_stock_movements_item" json:"item_id"`
	Quantity  int       `gorm:"not null" json:"quantity"` // signed
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

func (m *StockMovement) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
