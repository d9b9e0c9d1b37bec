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

type EventHandler struct {
	DB *gorm.DB
}

// GetEvents lists events visible to members. Drafts stay hidden until
// activated.
func (h *EventHandler) GetEvents(c *gin.Context) {
	var events []models.Event
	query := h.DB.Where("status != ?", models.EventStatusDraft)

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Order("start_at DESC").Find(&events).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch events"})
		return
	}

	c.JSON(http.StatusOK, events)
}

func (h *EventHandler) GetEvent(c *gin.Context) {
	id := c.Param("id")

	var event models.Event
	if err := h.DB.Where("id = ?", id).First(&event).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		return
	}

	c.JSON(http.StatusOK, event)
}

func (h *EventHandler) GetEventsAdmin(c *gin.Context) {
	var events []models.Event
	if err := h.DB.Order("created_at DESC").Find(&events).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch events"})
		return
	}

	c.JSON(http.StatusOK, events)
}

func (h *EventHandler) CreateEvent(c *gin.Context) {
	var req struct {
		Name                   string    `json:"name" binding:"required"`
		Description            string    `json:"description"`
		StartAt                time.Time `json:"start_at" binding:"required"`
		EndAt                  time.Time `json:"end_at" binding:"required"`
		TotalPoints            int       `json:"total_points" binding:"min=0"`
		AllowMultipleCheckins  bool      `json:"allow_multiple_checkins"`
		MaxCheckinsPerUser     int       `json:"max_checkins_per_user"`
		CheckinIntervalSeconds int       `json:"checkin_interval_seconds"`
		QrRotationSeconds      int       `json:"qr_rotation_seconds"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	if !req.StartAt.Before(req.EndAt) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start_at must be before end_at"})
		return
	}

	maxCheckins := req.MaxCheckinsPerUser
	if maxCheckins < 1 {
		maxCheckins = 1
	}

	event := models.Event{
		ID:                     uuid.New(),
		Name:                   req.Name,
		Description:            req.Description,
		StartAt:                req.StartAt,
		EndAt:                  req.EndAt,
		TotalPoints:            req.TotalPoints,
		AllowMultipleCheckins:  req.AllowMultipleCheckins,
		MaxCheckinsPerUser:     maxCheckins,
		CheckinIntervalSeconds: req.CheckinIntervalSeconds,
		QrRotationSeconds:      models.ClampQrRotation(req.QrRotationSeconds),
		Status:                 models.EventStatusDraft,
	}

	if err := h.DB.Create(&event).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create event"})
		return
	}

	c.JSON(http.StatusCreated, event)
}

func (h *EventHandler) UpdateEvent(c *gin.Context) {
	id := c.Param("id")

	var event models.Event
	if err := h.DB.Where("id = ?", id).First(&event).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		return
	}

	var req struct {
		Name                   *string    `json:"name"`
		Description            *string    `json:"description"`
		StartAt                *time.Time `json:"start_at"`
		EndAt                  *time.Time `json:"end_at"`
		TotalPoints            *int       `json:"total_points"`
		AllowMultipleCheckins  *bool      `json:"allow_multiple_checkins"`
		MaxCheckinsPerUser     *int       `json:"max_checkins_per_user"`
		CheckinIntervalSeconds *int       `json:"checkin_interval_seconds"`
		QrRotationSeconds      *int       `json:"qr_rotation_seconds"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	if req.Name != nil {
		event.Name = *req.Name
	}
	if req.Description != nil {
		event.Description = *req.Description
	}
	if req.StartAt != nil {
		event.StartAt = *req.StartAt
	}
	if req.EndAt != nil {
		event.EndAt = *req.EndAt
	}
	if !event.StartAt.Before(event.EndAt) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start_at must be before end_at"})
		return
	}
	if req.TotalPoints != nil {
		if *req.TotalPoints < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "total_points cannot be negative"})
			return
		}
		event.TotalPoints = *req.TotalPoints
	}
	if req.AllowMultipleCheckins != nil {
		event.AllowMultipleCheckins = *req.AllowMultipleCheckins
	}
	if req.MaxCheckinsPerUser != nil {
		if *req.MaxCheckinsPerUser < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "max_checkins_per_user must be at least 1"})
			return
		}
		event.MaxCheckinsPerUser = *req.MaxCheckinsPerUser
	}
	if req.CheckinIntervalSeconds != nil {
		event.CheckinIntervalSeconds = *req.CheckinIntervalSeconds
	}
	if req.QrRotationSeconds != nil {
		event.QrRotationSeconds = models.ClampQrRotation(*req.QrRotationSeconds)
	}

	if err := h.DB.Save(&event).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update event"})
		return
	}

	c.JSON(http.StatusOK, event)
}

func (h *EventHandler) DeleteEvent(c *gin.Context) {
	id := c.Param("id")

	var event models.Event
	if err := h.DB.Where("id = ?", id).First(&event).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		return
	}

	if err := h.DB.Delete(&event).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete event"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Event deleted"})
}

// UpdateEventStatus moves an event through its lifecycle. Completed and
// cancelled are terminal.
func (h *EventHandler) UpdateEventStatus(c *gin.Context) {
	id := c.Param("id")

	var req struct {
		Status models.EventStatus `json:"status" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	var event models.Event
	if err := h.DB.Where("id = ?", id).First(&event).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		return
	}

	if !models.IsValidEventTransition(event.Status, req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid status transition from " + string(event.Status) + " to " + string(req.Status),
		})
		return
	}

	event.Status = req.Status
	if err := h.DB.Save(&event).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update event status"})
		return
	}

	c.JSON(http.StatusOK, event)
}

// GetEventQr serves the rotating check-in QR for the event display screen.
// Polling within a rotation window returns the same payload; the nonce only
// changes when the window elapses.
func (h *EventHandler) GetEventQr(c *gin.Context) {
	id := c.Param("id")

	var event models.Event
	if err := h.DB.Where("id = ?", id).First(&event).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		return
	}

	if event.Status != models.EventStatusActive {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Event is not active"})
		return
	}

	rotation := models.ClampQrRotation(event.QrRotationSeconds)
	payload, expiresAt, err := services.CurrentRotating(h.DB, services.PurposeCheckin, event.ID, rotation)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue QR code"})
		return
	}

	remaining := int(time.Until(expiresAt).Seconds())
	if remaining < 0 {
		remaining = 0
	}

	c.JSON(http.StatusOK, dtos.QrDisplay{
		Payload:          payload,
		ExpiresAt:        expiresAt,
		SecondsRemaining: remaining,
		RotationSeconds:  rotation,
	})
}

// GetEventStats aggregates check-in activity for an event.
func (h *EventHandler) GetEventStats(c *gin.Context) {
	id := c.Param("id")

	var event models.Event
	if err := h.DB.Where("id = ?", id).First(&event).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		return
	}

	var totalCheckins int64
	h.DB.Model(&models.CheckIn{}).Where("event_id = ?", event.ID).Count(&totalCheckins)

	var uniqueMembers int64
	h.DB.Model(&models.CheckIn{}).Where("event_id = ?", event.ID).
		Distinct("member_id").Count(&uniqueMembers)

	var pointsAwarded int64
	h.DB.Model(&models.CheckIn{}).Where("event_id = ?", event.ID).
		Select("COALESCE(SUM(points_awarded), 0)").Scan(&pointsAwarded)

	c.JSON(http.StatusOK, gin.H{
		"event_id":       event.ID,
		"total_checkins": totalCheckins,
		"unique_members": uniqueMembers,
		"points_awarded": pointsAwarded,
	})
}
