package handlers

import (
	"errors"
	"net/http"

	"ahub-backend/models"
	"ahub-backend/services"
	"ahub-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PointsHandler struct {
	DB *gorm.DB
}

// memberCardTTLSeconds is how long a member-card QR stays scannable. The app
// refreshes it well before expiry.
const memberCardTTLSeconds = 60

func (h *PointsHandler) GetBalance(c *gin.Context) {
	memberID, exists := c.Get("member_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	balance, err := services.BalanceOf(h.DB, memberID.(uuid.UUID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute balance"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"balance": balance})
}

func (h *PointsHandler) GetHistory(c *gin.Context) {
	memberID, exists := c.Get("member_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var entries []models.PointsLedgerEntry
	if err := h.DB.Where("member_id = ?", memberID).Order("created_at DESC").Find(&entries).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch history"})
		return
	}

	c.JSON(http.StatusOK, entries)
}

// AdjustPoints is the administrative correction path. Credits are appended
// unconditionally; debits go through the same balance-checked path as
// purchases, so an adjustment can never overdraw a member.
func (h *PointsHandler) AdjustPoints(c *gin.Context) {
	var req struct {
		MemberID    uuid.UUID `json:"member_id" binding:"required"`
		Points      int       `json:"points" binding:"required"`
		Description string    `json:"description"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	var member models.Member
	if err := h.DB.Where("id = ?", req.MemberID).First(&member).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Member not found"})
		return
	}

	tx := h.DB.Begin()

	var entry *models.PointsLedgerEntry
	var err error
	if req.Points > 0 {
		entry, err = services.Credit(tx, req.MemberID, req.Points, models.EntryTypeAdminAdjustment, nil, req.Description)
	} else {
		entry, err = services.Debit(tx, req.MemberID, -req.Points, models.EntryTypeAdminAdjustment, nil, req.Description)
	}
	if err != nil {
		tx.Rollback()
		if errors.Is(err, services.ErrInsufficientBalance) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Insufficient balance"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to adjust points"})
		return
	}

	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to adjust points"})
		return
	}

	balance, _ := services.BalanceOf(h.DB, req.MemberID)

	c.JSON(http.StatusOK, gin.H{
		"entry":   entry,
		"balance": balance,
	})
}

// GetMemberCard issues the member's identity QR payload.
func (h *PointsHandler) GetMemberCard(c *gin.Context) {
	memberID, exists := c.Get("member_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	payload, expiresAt, err := services.IssueMemberCard(memberID.(uuid.UUID), memberCardTTLSeconds)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue member card"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"payload":    payload,
		"expires_at": expiresAt,
	})
}

// VerifyMemberCard resolves a scanned member-card payload to a member
// identity. Used by staff at the door.
func (h *PointsHandler) VerifyMemberCard(c *gin.Context) {
	var req struct {
		Payload string `json:"payload" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	claims, err := services.VerifyPurpose(h.DB, req.Payload, services.PurposeMemberCard)
	if err != nil {
		respondQrError(c, err)
		return
	}

	var member models.Member
	if err := h.DB.Where("id = ?", claims.SubjectID).First(&member).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Member not found"})
		return
	}

	balance, _ := services.BalanceOf(h.DB, member.ID)

	c.JSON(http.StatusOK, gin.H{
		"id":         member.ID,
		"email":      member.Email,
		"name":       member.Name,
		"role":       member.Role,
		"is_blocked": member.IsBlocked,
		"balance":    balance,
	})
}

// respondQrError maps QR verification failures onto client responses. Token
// failures are business-level from the caller's perspective ("rescan"), but
// each kind stays distinguishable.
func respondQrError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrExpiredToken):
		c.JSON(http.StatusBadRequest, gin.H{"error": "QR code expired. Please rescan."})
	case errors.Is(err, services.ErrStaleToken):
		c.JSON(http.StatusConflict, gin.H{"error": "QR code no longer valid. Please rescan."})
	case errors.Is(err, services.ErrInvalidToken):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid QR code"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify QR code"})
	}
}
