package services

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"time"

	"ahub-backend/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QR token purposes. CHECKIN and KYOSK_PAYMENT are rotating display tokens;
// MEMBER_CARD is issued per member and does not rotate.
const (
	PurposeCheckin      = "CHECKIN"
	PurposeKyoskPayment = "KYOSK_PAYMENT"
	PurposeMemberCard   = "MEMBER_CARD"
)

var (
	ErrInvalidToken = errors.New("invalid QR token")
	ErrExpiredToken = errors.New("QR token expired")
	ErrStaleToken   = errors.New("QR token superseded by rotation")
)

type QrClaims struct {
	Purpose   string    `json:"purpose"`
	SubjectID uuid.UUID `json:"subject_id"`
	Nonce     string    `json:"nonce"`
	jwt.RegisteredClaims
}

func getQrSecret() string {
	secret := os.Getenv("QR_SECRET")
	if secret == "" {
		panic("FATAL: QR_SECRET environment variable is not set. Refusing to start with an insecure configuration.")
	}
	return secret
}

func newNonce() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand unavailable: " + err.Error())
	}
	return hex.EncodeToString(b)
}

func signQrToken(purpose string, subjectID uuid.UUID, nonce string, ttlSeconds int) (string, time.Time, error) {
	expiresAt := time.Now().Add(time.Duration(ttlSeconds) * time.Second)

	claims := QrClaims{
		Purpose:   purpose,
		SubjectID: subjectID,
		Nonce:     nonce,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "ahub-qr",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	payload, err := token.SignedString([]byte(getQrSecret()))
	return payload, expiresAt, err
}

// IssueRotating signs a fresh payload for a display surface and makes its
// nonce the only live one for the subject. The upsert replaces the previous
// nonce in a single row write, so there is no window with two valid nonces.
func IssueRotating(db *gorm.DB, purpose string, subjectID uuid.UUID, ttlSeconds int) (string, time.Time, error) {
	nonce := newNonce()
	payload, expiresAt, err := signQrToken(purpose, subjectID, nonce, ttlSeconds)
	if err != nil {
		return "", time.Time{}, err
	}

	row := models.QrNonce{
		ID:        uuid.New(),
		Purpose:   purpose,
		SubjectID: subjectID,
		Nonce:     nonce,
		Payload:   payload,
		ExpiresAt: expiresAt,
	}
	err = db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "purpose"}, {Name: "subject_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"nonce":      nonce,
			"payload":    payload,
			"expires_at": expiresAt,
			"updated_at": time.Now(),
		}),
	}).Create(&row).Error
	if err != nil {
		return "", time.Time{}, err
	}
	return payload, expiresAt, nil
}

// CurrentRotating returns the live payload for a subject, rotating only when
// the previous one has expired. Display surfaces poll this every few seconds;
// the payload stays stable within one rotation window.
func CurrentRotating(db *gorm.DB, purpose string, subjectID uuid.UUID, ttlSeconds int) (string, time.Time, error) {
	var row models.QrNonce
	err := db.Where("purpose = ? AND subject_id = ?", purpose, subjectID).First(&row).Error
	if err == nil && time.Now().Before(row.ExpiresAt) {
		return row.Payload, row.ExpiresAt, nil
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", time.Time{}, err
	}
	return IssueRotating(db, purpose, subjectID, ttlSeconds)
}

// IssueMemberCard signs a short-lived identity payload for the member's own
// card screen. Not subject to the single-live-nonce rule.
func IssueMemberCard(memberID uuid.UUID, ttlSeconds int) (string, time.Time, error) {
	return signQrToken(PurposeMemberCard, memberID, newNonce(), ttlSeconds)
}

// Verify checks a payload's signature and expiry, and for rotating purposes
// that its nonce is still the live one for the subject. Business validity
// (event windows, balances, stock) stays with the caller.
func Verify(db *gorm.DB, payload string) (*QrClaims, error) {
	token, err := jwt.ParseWithClaims(payload, &QrClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(getQrSecret()), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*QrClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	switch claims.Purpose {
	case PurposeCheckin, PurposeKyoskPayment:
		var live models.QrNonce
		if err := db.Where("purpose = ? AND subject_id = ?", claims.Purpose, claims.SubjectID).First(&live).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrStaleToken
			}
			return nil, err
		}
		if live.Nonce != claims.Nonce {
			return nil, ErrStaleToken
		}
	case PurposeMemberCard:
		// no nonce tracking
	default:
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// VerifyPurpose is Verify plus a purpose check: a token presented for the
// wrong operation is invalid, not stale.
func VerifyPurpose(db *gorm.DB, payload, purpose string) (*QrClaims, error) {
	claims, err := Verify(db, payload)
	if err != nil {
		return nil, err
	}
	if claims.Purpose != purpose {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
