package handlers

import (
	"errors"
	"net/http"
	"time"

	"ahub-backend/models"
	"ahub-backend/services"
	"ahub-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StoreHandler struct {
	DB *gorm.DB
}

// GetItems lists purchasable items. Inactive and expired offers are hidden
// from the public listing.
func (h *StoreHandler) GetItems(c *gin.Context) {
	var items []models.StoreItem
	query := h.DB.Where("is_active = ?", true).
		Where("offer_ends_at IS NULL OR offer_ends_at > ?", time.Now())

	if err := query.Order("name ASC").Find(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch items"})
		return
	}

	c.JSON(http.StatusOK, items)
}

func (h *StoreHandler) GetItem(c *gin.Context) {
	id := c.Param("id")

	var item models.StoreItem
	if err := h.DB.Where("id = ?", id).First(&item).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
		return
	}

	c.JSON(http.StatusOK, item)
}

// GetItemsAdmin lists all items including inactive ones.
func (h *StoreHandler) GetItemsAdmin(c *gin.Context) {
	var items []models.StoreItem
	if err := h.DB.Order("created_at DESC").Find(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch items"})
		return
	}

	c.JSON(http.StatusOK, items)
}

func (h *StoreHandler) CreateItem(c *gin.Context) {
	var req struct {
		Name        string     `json:"name" binding:"required"`
		Description string     `json:"description"`
		PointsPrice int        `json:"points_price" binding:"required,min=1"`
		Stock       int        `json:"stock" binding:"min=0"`
		OfferEndsAt *time.Time `json:"offer_ends_at"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	item := models.StoreItem{
		ID:          uuid.New(),
		Name:        req.Name,
		Description: req.Description,
		PointsPrice: req.PointsPrice,
		Stock:       req.Stock,
		IsActive:    true,
		OfferEndsAt: req.OfferEndsAt,
	}

	tx := h.DB.Begin()
	if err := tx.Create(&item).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create item"})
		return
	}

	// Record the opening stock as a movement so replay reconciles from zero.
	if req.Stock > 0 {
		movement := models.StockMovement{
			ID:       uuid.New(),
			ItemType: models.StockItemStore,
			ItemID:   item.ID,
			Quantity: req.Stock,
			Reason:   "initial stock",
		}
		if err := tx.Create(&movement).Error; err != nil {
			tx.Rollback()
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create item"})
			return
		}
	}

	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create item"})
		return
	}

	c.JSON(http.StatusCreated, item)
}

func (h *StoreHandler) UpdateItem(c *gin.Context) {
	id := c.Param("id")

	var item models.StoreItem
	if err := h.DB.Where("id = ?", id).First(&item).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
		return
	}

	// Stock is deliberately absent here: the counter only moves through the
	// movement-logged adjustment path.
	var req struct {
		Name        *string    `json:"name"`
		Description *string    `json:"description"`
		PointsPrice *int       `json:"points_price"`
		IsActive    *bool      `json:"is_active"`
		OfferEndsAt *time.Time `json:"offer_ends_at"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.Description != nil {
		item.Description = *req.Description
	}
	if req.PointsPrice != nil {
		if *req.PointsPrice < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "points_price must be at least 1"})
			return
		}
		item.PointsPrice = *req.PointsPrice
	}
	if req.IsActive != nil {
		item.IsActive = *req.IsActive
	}
	if req.OfferEndsAt != nil {
		item.OfferEndsAt = req.OfferEndsAt
	}

	if err := h.DB.Save(&item).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update item"})
		return
	}

	c.JSON(http.StatusOK, item)
}

func (h *StoreHandler) DeleteItem(c *gin.Context) {
	id := c.Param("id")

	var item models.StoreItem
	if err := h.DB.Where("id = ?", id).First(&item).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
		return
	}

	if err := h.DB.Delete(&item).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete item"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Item deleted"})
}

// AdjustStock applies a signed delta with a reason, writing the movement row
// and counter update as one unit.
func (h *StoreHandler) AdjustStock(c *gin.Context) {
	id := c.Param("id")
	itemID, err := uuid.Parse(id)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item id"})
		return
	}

	var req struct {
		Delta  int    `json:"delta" binding:"required"`
		Reason string `json:"reason" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	tx := h.DB.Begin()
	newStock, err := services.AdjustStock(tx, models.StockItemStore, itemID, req.Delta, req.Reason)
	if err != nil {
		tx.Rollback()
		switch {
		case errors.Is(err, services.ErrItemNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
		case errors.Is(err, services.ErrNegativeStock):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Adjustment would drive stock negative"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to adjust stock"})
		}
		return
	}

	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to adjust stock"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"item_id": itemID,
		"stock":   newStock,
	})
}
