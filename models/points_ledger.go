package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	EntryTypeEventCheckin    = "EVENT_CHECKIN"
	EntryTypeStorePurchase   = "STORE_PURCHASE"
	EntryTypeKyoskPurchase   = "KYOSK_PURCHASE"
	EntryTypeAdminAdjustment = "ADMIN_ADJUSTMENT"
)

// PointsLedgerEntry is an immutable record of a balance-affecting event.
// Rows are only ever inserted; a member's balance is the sum of their entries,
// and corrections are new offsetting entries.
type PointsLedgerEntry struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	MemberID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"member_id"`
	Member      Member     `gorm:"foreignKey:MemberID" json:"-"`
	Amount      int        `gorm:"not null" json:"amount"` // positive = credit, negative = debit
	Type        string     `gorm:"not null" json:"type"`
	ReferenceID *uuid.UUID `gorm:"type:uuid" json:"reference_id,omitempty"`
	Description string     `json:"description"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (e *PointsLedgerEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
