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

type OrderHandler struct {
	DB *gorm.DB
}

// Checkout converts the member's cart into a completed order: one balance
// debit, one stock decrement per item, one order with price snapshots - all
// in a single transaction or not at all.
func (h *OrderHandler) Checkout(c *gin.Context) {
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

	if len(cartItems) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cart is empty"})
		return
	}

	// Validate everything before touching any state. Prices always come from
	// the catalog rows just loaded, never from the client.
	now := time.Now()
	totalPoints := 0
	for _, ci := range cartItems {
		if !ci.Item.Available(now) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Item unavailable: " + ci.Item.Name})
			return
		}
		if ci.Item.Stock < ci.Quantity {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Insufficient stock for " + ci.Item.Name})
			return
		}
		totalPoints += ci.Item.PointsPrice * ci.Quantity
	}

	balance, err := services.BalanceOf(h.DB, memberID.(uuid.UUID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute balance"})
		return
	}
	if balance < totalPoints {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Insufficient balance"})
		return
	}

	order := models.Order{
		ID:          uuid.New(),
		MemberID:    memberID.(uuid.UUID),
		Source:      models.OrderSourceStore,
		Status:      models.OrderStatusCompleted,
		TotalPoints: totalPoints,
	}

	tx := h.DB.Begin()

	if err := tx.Create(&order).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create order"})
		return
	}

	// The debit locks the member row and re-checks the balance inside the
	// transaction, so concurrent checkouts against the same balance cannot
	// both pass.
	if _, err := services.Debit(tx, memberID.(uuid.UUID), totalPoints, models.EntryTypeStorePurchase, &order.ID, "Store order "+order.OrderNumber); err != nil {
		tx.Rollback()
		if errors.Is(err, services.ErrInsufficientBalance) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Insufficient balance"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to complete order"})
		return
	}

	var orderItems []models.OrderItem
	for _, ci := range cartItems {
		itemID := ci.StoreItemID
		if _, err := services.AdjustStock(tx, models.StockItemStore, itemID, -ci.Quantity, "order "+order.OrderNumber); err != nil {
			tx.Rollback()
			if errors.Is(err, services.ErrNegativeStock) {
				// Someone depleted the item between the pre-check and here.
				c.JSON(http.StatusBadRequest, gin.H{"error": "Insufficient stock for " + ci.Item.Name})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to complete order"})
			return
		}

		orderItems = append(orderItems, models.OrderItem{
			ID:                    uuid.New(),
			OrderID:               order.ID,
			StoreItemID:           &itemID,
			ProductName:           ci.Item.Name,
			Quantity:              ci.Quantity,
			PointsPriceAtPurchase: ci.Item.PointsPrice,
		})
	}

	if err := tx.Omit("Order").CreateInBatches(&orderItems, 100).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create order items"})
		return
	}

	if err := tx.Where("member_id = ?", memberID).Delete(&models.CartItem{}).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to complete order"})
		return
	}

	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to complete order"})
		return
	}

	h.DB.Preload("Items").Where("id = ?", order.ID).First(&order)

	var member models.Member
	if err := h.DB.Where("id = ?", memberID).First(&member).Error; err == nil {
		// Send receipt (non-blocking)
		utils.SendOrderReceipt(member.Email, member.Name, order.OrderNumber, order.TotalPoints)
	}

	c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) GetOrders(c *gin.Context) {
	memberID, exists := c.Get("member_id")
	memberRole, _ := c.Get("member_role")

	var orders []models.Order
	query := h.DB.Preload("Items").Preload("Kyosk")

	roleStr, _ := memberRole.(string)
	if roleStr != "admin" {
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		query = query.Where("member_id = ?", memberID)
	}

	if err := query.Order("created_at DESC").Find(&orders).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
		return
	}

	c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	id := c.Param("id")
	memberID, _ := c.Get("member_id")
	memberRole, _ := c.Get("member_role")

	var order models.Order
	query := h.DB.Preload("Items").Preload("Kyosk")

	roleStr, _ := memberRole.(string)
	if roleStr == "admin" {
		query = query.Where("id = ?", id)
	} else {
		query = query.Where("id = ? AND member_id = ?", id, memberID)
	}

	if err := query.First(&order).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}

	c.JSON(http.StatusOK, order)
}
