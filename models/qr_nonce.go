package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MinQrRotationSeconds = 10
	MaxQrRotationSeconds = 300
)

// QrNonce holds the single live nonce for a rotating QR subject. One row per
// (purpose, subject); rotation replaces the row's nonce in place, so older
// payloads fail verification immediately even before they expire.
type QrNonce struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Purpose   string    `gorm:"not null;uniqueIndex:idx_qr_nonces_subject" json:"purpose"`
	SubjectID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_qr_nonces_subject" json:"subject_id"`
	Nonce     string    `gorm:"not null" json:"-"`
	Payload   string    `gorm:"not null" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (n *QrNonce) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

// ClampQrRotation bounds a display rotation interval to the supported range.
func ClampQrRotation(seconds int) int {
	if seconds < MinQrRotationSeconds {
		return MinQrRotationSeconds
	}
	if seconds > MaxQrRotationSeconds {
		return MaxQrRotationSeconds
	}
	return seconds
}
