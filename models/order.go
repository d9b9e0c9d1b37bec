package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

const (
	OrderSourceStore = "store"
	OrderSourceKyosk = "kyosk"
)

type Order struct {
	ID          uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	MemberID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"member_id"`
	Member      Member         `gorm:"foreignKey:MemberID" json:"-"`
	KyoskID     *uuid.UUID     `gorm:"type:uuid;index" json:"kyosk_id,omitempty"`
	Kyosk       *Kyosk         `gorm:"foreignKey:KyoskID" json:"kyosk,omitempty"`
	Source      string         `gorm:"not null;default:store" json:"source"`
	OrderNumber string         `gorm:"uniqueIndex;not null" json:"order_number"`
	Status      OrderStatus    `gorm:"default:pending" json:"status"`
	TotalPoints int            `gorm:"not null" json:"total_points"`
	Items       []OrderItem    `gorm:"foreignKey:OrderID" json:"items"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// OrderItem snapshots the product name and points price at purchase time.
// Catalog price changes never alter historical orders.
type OrderItem struct {
	ID                    uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	OrderID               uuid.UUID  `gorm:"type:uuid;not null;index" json:"order_id"`
	Order                 Order      `gorm:"foreignKey:OrderID" json:"-"`
	StoreItemID           *uuid.UUID `gorm:"type:uuid;index" json:"store_item_id,omitempty"`
	KyoskProductID        *uuid.UUID `gorm:"type:uuid;index" json:"kyosk_product_id,omitempty"`
	ProductName           string     `gorm:"not null" json:"product_name"`
	Quantity              int        `gorm:"not null" json:"quantity"`
	PointsPriceAtPurchase int        `gorm:"not null" json:"points_price_at_purchase"`
	CreatedAt             time.Time  `json:"created_at"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.OrderNumber == "" {
		o.OrderNumber = "AH" + time.Now().Format("20060102150405") + o.ID.String()[:8]
	}
	return nil
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
