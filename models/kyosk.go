package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Kyosk struct {
	ID                uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Name              string         `gorm:"not null" json:"name"`
	Location          string         `json:"location"`
	QrRotationSeconds int            `gorm:"default:30" json:"qr_rotation_seconds"`
	IsActive          bool           `gorm:"default:true" json:"is_active"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}

type KyoskProduct struct {
	ID          uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	KyoskID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"kyosk_id"`
	Kyosk       Kyosk          `gorm:"foreignKey:KyoskID" json:"-"`
	Name        string         `gorm:"not null" json:"name"`
	PointsPrice int            `gorm:"not null" json:"points_price"`
	Stock       int            `gorm:"default:0" json:"stock"`
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// KyoskCartItem is a row of the terminal's pending cart, the one a payment
// QR resolves to at preview/confirm time.
type KyoskCartItem struct {
	ID             uuid.UUID    `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	KyoskID        uuid.UUID    `gorm:"type:uuid;not null;index" json:"kyosk_id"`
	KyoskProductID uuid.UUID    `gorm:"type:uuid;not null" json:"kyosk_product_id"`
	Product        KyoskProduct `gorm:"foreignKey:KyoskProductID" json:"product"`
	Quantity       int          `gorm:"default:1" json:"quantity"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

func (k *Kyosk) BeforeCreate(tx *gorm.DB) error {
	if k.ID == uuid.Nil {
		k.ID = uuid.New()
	}
	return nil
}

func (p *KyoskProduct) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (c *KyoskCartItem) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
