package services

import (
	"errors"

	"ahub-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrMemberNotFound      = errors.New("member not found")
)

// BalanceOf returns the member's current balance: the sum of all ledger
// entries. Callable on a plain DB handle for reads, or on a transaction when
// the result gates a debit.
func BalanceOf(db *gorm.DB, memberID uuid.UUID) (int, error) {
	var balance int64
	err := db.Model(&models.PointsLedgerEntry{}).
		Where("member_id = ?", memberID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&balance).Error
	return int(balance), err
}

// LockMember acquires the member row for update. All balance-affecting work
// for one member serializes on this lock, so a balance read inside the same
// transaction can never gate a debit against a stale sum.
func LockMember(tx *gorm.DB, memberID uuid.UUID) (models.Member, error) {
	var member models.Member
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", memberID).
		First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return member, ErrMemberNotFound
	}
	return member, err
}

// Credit appends a positive ledger entry. No lock needed: credits cannot
// overdraw and the ledger is append-only.
func Credit(tx *gorm.DB, memberID uuid.UUID, points int, entryType string, referenceID *uuid.UUID, description string) (*models.PointsLedgerEntry, error) {
	entry := models.PointsLedgerEntry{
		ID:          uuid.New(),
		MemberID:    memberID,
		Amount:      points,
		Type:        entryType,
		ReferenceID: referenceID,
		Description: description,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// Debit locks the member row, re-reads the balance inside the transaction and
// appends a negative entry, or fails with ErrInsufficientBalance leaving the
// ledger untouched. points must be positive.
func Debit(tx *gorm.DB, memberID uuid.UUID, points int, entryType string, referenceID *uuid.UUID, description string) (*models.PointsLedgerEntry, error) {
	if _, err := LockMember(tx, memberID); err != nil {
		return nil, err
	}

	balance, err := BalanceOf(tx, memberID)
	if err != nil {
		return nil, err
	}
	if balance < points {
		return nil, ErrInsufficientBalance
	}

	entry := models.PointsLedgerEntry{
		ID:          uuid.New(),
		MemberID:    memberID,
		Amount:      -points,
		Type:        entryType,
		ReferenceID: referenceID,
		Description: description,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}
