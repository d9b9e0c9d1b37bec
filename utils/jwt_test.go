package utils

import (
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func init() {
	os.Setenv("JWT_SECRET", "test-secret-key-for-unit-tests")
}

func TestGenerateToken(t *testing.T) {
	memberID := uuid.New()
	email := "tokengen@test.com"
	role := "member"

	token, err := GenerateToken(memberID, email, role, nil)
	if err != nil {
		t.Fatalf("expected no error generating token, got: %v", err)
	}

	if token == "" {
		t.Fatal("expected non-empty token string")
	}

	// Verify the token has three parts (header.payload.signature)
	parts := 0
	for _, c := range token {
		if c == '.' {
			parts++
		}
	}
	if parts != 2 {
		t.Errorf("expected JWT with 2 dots, got %d dots", parts)
	}
}

func TestValidateToken(t *testing.T) {
	memberID := uuid.New()
	email := "validate@test.com"
	role := "kyosk"
	kyoskID := uuid.New()

	token, err := GenerateToken(memberID, email, role, &kyoskID)
	if err != nil {
		t.Fatalf("expected no error generating token, got: %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("expected no error validating token, got: %v", err)
	}

	if claims.MemberID != memberID {
		t.Errorf("expected member_id %s, got %s", memberID, claims.MemberID)
	}
	if claims.Email != email {
		t.Errorf("expected email %s, got %s", email, claims.Email)
	}
	if claims.Role != role {
		t.Errorf("expected role %s, got %s", role, claims.Role)
	}
	if claims.KyoskID == nil || *claims.KyoskID != kyoskID {
		t.Errorf("expected kyosk_id %s, got %v", kyoskID, claims.KyoskID)
	}
	if claims.Issuer != "ahub-backend" {
		t.Errorf("expected issuer 'ahub-backend', got %s", claims.Issuer)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	secret := os.Getenv("JWT_SECRET")
	memberID := uuid.New()

	claims := Claims{
		MemberID: memberID,
		Email:    "expired@test.com",
		Role:     "member",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			Issuer:    "ahub-backend",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign expired token: %v", err)
	}

	if _, err := ValidateToken(tokenString); err == nil {
		t.Error("expected an error validating an expired token")
	}
}

func TestTamperedTokenRejected(t *testing.T) {
	token, err := GenerateToken(uuid.New(), "tamper@test.com", "member", nil)
	if err != nil {
		t.Fatalf("expected no error generating token, got: %v", err)
	}

	tampered := token[:len(token)-2] + "xx"
	if _, err := ValidateToken(tampered); err == nil {
		t.Error("expected an error validating a tampered token")
	}
}

func TestRefreshTokenHasDistinctIssuer(t *testing.T) {
	refresh, err := GenerateRefreshToken(uuid.New(), "refresh@test.com", "member", nil)
	if err != nil {
		t.Fatalf("expected no error generating refresh token, got: %v", err)
	}

	claims, err := ValidateToken(refresh)
	if err != nil {
		t.Fatalf("expected refresh token to validate, got: %v", err)
	}
	if claims.Issuer != "ahub-refresh" {
		t.Errorf("expected issuer 'ahub-refresh', got %s", claims.Issuer)
	}
}
