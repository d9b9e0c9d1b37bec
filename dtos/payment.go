package dtos

import (
	"time"

	"github.com/google/uuid"
)

type PaymentPreviewItem struct {
	ProductID   uuid.UUID `json:"product_id"`
	Name        string    `json:"name"`
	Quantity    int       `json:"quantity"`
	PointsPrice int       `json:"points_price"`
}

// PaymentPreview is what the member sees after scanning a kiosk QR, before
// confirming. Nothing is debited until confirmation.
type PaymentPreview struct {
	KyoskID     uuid.UUID            `json:"kyosk_id"`
	KyoskName   string               `json:"kyosk_name"`
	Items       []PaymentPreviewItem `json:"items"`
	TotalPoints int                  `json:"total_points"`
	ExpiresAt   time.Time            `json:"expires_at"`
}

type PaymentConfirmation struct {
	OrderID     uuid.UUID `json:"order_id"`
	TotalPoints int       `json:"total_points"`
	KyoskName   string    `json:"kyosk_name"`
}
