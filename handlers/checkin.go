package handlers

import (
	"net/http"
	"time"

	"ahub-backend/dtos"
	"ahub-backend/models"
	"ahub-backend/services"
	"ahub-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CheckinHandler struct {
	DB *gorm.DB
}

// Checkin redeems a scanned event QR for points. The member row lock
// serializes concurrent scans by the same member, so the cap count and the
// check-in insert happen against a consistent view.
func (h *CheckinHandler) Checkin(c *gin.Context) {
	memberID, exists := c.Get("member_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req struct {
		Payload string `json:"payload" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	claims, err := services.VerifyPurpose(h.DB, req.Payload, services.PurposeCheckin)
	if err != nil {
		respondQrError(c, err)
		return
	}

	var event models.Event
	if err := h.DB.Where("id = ?", claims.SubjectID).First(&event).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		return
	}

	now := time.Now()
	if event.Status == models.EventStatusDraft || now.Before(event.StartAt) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Event has not started yet"})
		return
	}
	if event.Status != models.EventStatusActive || now.After(event.EndAt) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Event has ended"})
		return
	}

	tx := h.DB.Begin()

	if _, err := services.LockMember(tx, memberID.(uuid.UUID)); err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check in"})
		return
	}

	var count int64
	if err := tx.Model(&models.CheckIn{}).
		Where("event_id = ? AND member_id = ?", event.ID, memberID).
		Count(&count).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check in"})
		return
	}

	if int(count) >= event.EffectiveMaxCheckins() {
		tx.Rollback()
		c.JSON(http.StatusBadRequest, gin.H{"error": "Check-in limit reached"})
		return
	}

	if count > 0 && event.CheckinIntervalSeconds > 0 {
		var last models.CheckIn
		if err := tx.Where("event_id = ? AND member_id = ?", event.ID, memberID).
			Order("created_at DESC").First(&last).Error; err != nil {
			tx.Rollback()
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check in"})
			return
		}

		nextAllowed := last.CreatedAt.Add(time.Duration(event.CheckinIntervalSeconds) * time.Second)
		if now.Before(nextAllowed) {
			tx.Rollback()
			c.JSON(http.StatusBadRequest, gin.H{
				"error":        "Too soon since your last check-in",
				"wait_seconds": int(time.Until(nextAllowed).Seconds()) + 1,
			})
			return
		}
	}

	points := event.PointsPerCheckin()
	checkin := models.CheckIn{
		ID:            uuid.New(),
		EventID:       event.ID,
		MemberID:      memberID.(uuid.UUID),
		PointsAwarded: points,
	}

	if err := tx.Create(&checkin).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check in"})
		return
	}

	if points > 0 {
		if _, err := services.Credit(tx, memberID.(uuid.UUID), points, models.EntryTypeEventCheckin, &checkin.ID, "Check-in: "+event.Name); err != nil {
			tx.Rollback()
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check in"})
			return
		}
	}

	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check in"})
		return
	}

	balance, _ := services.BalanceOf(h.DB, memberID.(uuid.UUID))

	c.JSON(http.StatusCreated, gin.H{
		"checkin":        checkin,
		"points_awarded": points,
		"balance":        balance,
	})
}

// GetCheckinStatus lets a client render remaining check-ins and cooldown for
// an event without spending a scan.
func (h *CheckinHandler) GetCheckinStatus(c *gin.Context) {
	memberID, exists := c.Get("member_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	id := c.Param("id")
	var event models.Event
	if err := h.DB.Where("id = ?", id).First(&event).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		return
	}

	var checkins []models.CheckIn
	if err := h.DB.Where("event_id = ? AND member_id = ?", event.ID, memberID).
		Order("created_at DESC").Find(&checkins).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch check-in status"})
		return
	}

	status := dtos.CheckinStatus{
		CheckinsRemaining: event.EffectiveMaxCheckins() - len(checkins),
	}
	if status.CheckinsRemaining < 0 {
		status.CheckinsRemaining = 0
	}

	for _, ci := range checkins {
		status.TotalPointsEarned += ci.PointsAwarded
	}

	now := time.Now()
	if len(checkins) > 0 && event.CheckinIntervalSeconds > 0 {
		nextAllowed := checkins[0].CreatedAt.Add(time.Duration(event.CheckinIntervalSeconds) * time.Second)
		if now.Before(nextAllowed) {
			status.WaitTimeSeconds = int(time.Until(nextAllowed).Seconds()) + 1
		}
	}

	status.CanCheckin = event.Status == models.EventStatusActive &&
		!now.Before(event.StartAt) && !now.After(event.EndAt) &&
		status.CheckinsRemaining > 0 && status.WaitTimeSeconds == 0

	c.JSON(http.StatusOK, status)
}

// GetMyCheckins lists the member's check-in history across events.
func (h *CheckinHandler) GetMyCheckins(c *gin.Context) {
	memberID, exists := c.Get("member_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var checkins []models.CheckIn
	if err := h.DB.Preload("Event").Where("member_id = ?", memberID).
		Order("created_at DESC").Find(&checkins).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch check-ins"})
		return
	}

	c.JSON(http.StatusOK, checkins)
}
