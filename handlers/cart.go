package handlers

import (
	"net/http"
	"time"

	"ahub-backend/models"
	"ahub-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CartHandler struct {
	DB *gorm.DB
}

func (h *CartHandler) GetCart(c *gin.Context) {
	memberID, exists := c.Get("member_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var cartItems []models.CartItem
	if err := h.DB.Preload("Item").Where("member_id = ?", memberID).Find(&cartItems).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart"})
		return
	}

	c.JSON(http.StatusOK, cartItems)
}

func (h *CartHandler) AddToCart(c *gin.Context) {
	memberID, exists := c.Get("member_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req struct {
		StoreItemID uuid.UUID `json:"store_item_id" binding:"required"`
		Quantity    int       `json:"quantity" binding:"required,min=1"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	var item models.StoreItem
	if err := h.DB.Where("id = ?", req.StoreItemID).First(&item).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
		return
	}

	if !item.Available(time.Now()) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Item unavailable: " + item.Name})
		return
	}

	if item.Stock < req.Quantity {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Insufficient stock for " + item.Name})
		return
	}

	// Merge with an existing row for the same item
	var cartItem models.CartItem
	err := h.DB.Where("member_id = ? AND store_item_id = ?", memberID, req.StoreItemID).First(&cartItem).Error

	if err == nil {
		cartItem.Quantity += req.Quantity
		if cartItem.Quantity > item.Stock {
			cartItem.Quantity = item.Stock
		}
		h.DB.Save(&cartItem)
	} else {
		cartItem = models.CartItem{
			ID:          uuid.New(),
			MemberID:    memberID.(uuid.UUID),
			StoreItemID: req.StoreItemID,
			Quantity:    req.Quantity,
		}
		h.DB.Create(&cartItem)
	}

	h.DB.Preload("Item").Where("id = ?", cartItem.ID).First(&cartItem)
	c.JSON(http.StatusOK, cartItem)
}

func (h *CartHandler) UpdateCartItem(c *gin.Context) {
	memberID, exists := c.Get("member_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	id := c.Param("id")
	var req struct {
		Quantity int `json:"quantity" binding:"required,min=1"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	var cartItem models.CartItem
	if err := h.DB.Preload("Item").Where("id = ? AND member_id = ?", id, memberID).First(&cartItem).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Cart item not found"})
		return
	}

	if cartItem.Item.Stock < req.Quantity {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Insufficient stock for " + cartItem.Item.Name})
		return
	}

	cartItem.Quantity = req.Quantity
	if err := h.DB.Save(&cartItem).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update cart item"})
		return
	}

	c.JSON(http.StatusOK, cartItem)
}

func (h *CartHandler) RemoveFromCart(c *gin.Context) {
	memberID, exists := c.Get("member_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	id := c.Param("id")
	if err := h.DB.Where("id = ? AND member_id = ?", id, memberID).Delete(&models.CartItem{}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove cart item"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Item removed from cart"})
}

func (h *CartHandler) ClearCart(c *gin.Context) {
	memberID, exists := c.Get("member_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := h.DB.Where("member_id = ?", memberID).Delete(&models.CartItem{}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear cart"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
}
