package handlers

import (
	"errors"
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

type KyoskHandler struct {
	DB *gorm.DB
}

// --- admin: kiosk CRUD ---

func (h *KyoskHandler) GetKyosks(c *gin.Context) {
	var kyosks []models.Kyosk
	if err := h.DB.Order("created_at DESC").Find(&kyosks).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch kiosks"})
		return
	}

	c.JSON(http.StatusOK, kyosks)
}

func (h *KyoskHandler) GetKyosk(c *gin.Context) {
	id := c.Param("id")

	var kyosk models.Kyosk
	if err := h.DB.Where("id = ?", id).First(&kyosk).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Kiosk not found"})
		return
	}

	c.JSON(http.StatusOK, kyosk)
}

func (h *KyoskHandler) CreateKyosk(c *gin.Context) {
	var req struct {
		Name              string `json:"name" binding:"required"`
		Location          string `json:"location"`
		QrRotationSeconds int    `json:"qr_rotation_seconds"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	kyosk := models.Kyosk{
		ID:                uuid.New(),
		Name:              req.Name,
		Location:          req.Location,
		QrRotationSeconds: models.ClampQrRotation(req.QrRotationSeconds),
		IsActive:          true,
	}

	if err := h.DB.Create(&kyosk).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create kiosk"})
		return
	}

	c.JSON(http.StatusCreated, kyosk)
}

func (h *KyoskHandler) UpdateKyosk(c *gin.Context) {
	id := c.Param("id")

	var kyosk models.Kyosk
	if err := h.DB.Where("id = ?", id).First(&kyosk).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Kiosk not found"})
		return
	}

	var req struct {
		Name              *string `json:"name"`
		Location          *string `json:"location"`
		QrRotationSeconds *int    `json:"qr_rotation_seconds"`
		IsActive          *bool   `json:"is_active"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	if req.Name != nil {
		kyosk.Name = *req.Name
	}
	if req.Location != nil {
		kyosk.Location = *req.Location
	}
	if req.QrRotationSeconds != nil {
		kyosk.QrRotationSeconds = models.ClampQrRotation(*req.QrRotationSeconds)
	}
	if req.IsActive != nil {
		kyosk.IsActive = *req.IsActive
	}

	if err := h.DB.Save(&kyosk).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update kiosk"})
		return
	}

	c.JSON(http.StatusOK, kyosk)
}

func (h *KyoskHandler) DeleteKyosk(c *gin.Context) {
	id := c.Param("id")

	var kyosk models.Kyosk
	if err := h.DB.Where("id = ?", id).First(&kyosk).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Kiosk not found"})
		return
	}

	if err := h.DB.Delete(&kyosk).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete kiosk"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Kiosk deleted"})
}

// --- admin: kiosk product CRUD ---

func (h *KyoskHandler) GetKyoskProducts(c *gin.Context) {
	kyoskID := c.Param("id")

	var products []models.KyoskProduct
	if err := h.DB.Where("kyosk_id = ?", kyoskID).Order("name ASC").Find(&products).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}

	c.JSON(http.StatusOK, products)
}

func (h *KyoskHandler) CreateKyoskProduct(c *gin.Context) {
	kyoskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid kiosk id"})
		return
	}

	var kyosk models.Kyosk
	if err := h.DB.Where("id = ?", kyoskID).First(&kyosk).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Kiosk not found"})
		return
	}

	var req struct {
		Name        string `json:"name" binding:"required"`
		PointsPrice int    `json:"points_price" binding:"required,min=1"`
		Stock       int    `json:"stock" binding:"min=0"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	product := models.KyoskProduct{
		ID:          uuid.New(),
		KyoskID:     kyosk.ID,
		Name:        req.Name,
		PointsPrice: req.PointsPrice,
		Stock:       req.Stock,
		IsActive:    true,
	}

	tx := h.DB.Begin()
	if err := tx.Create(&product).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product"})
		return
	}

	if req.Stock > 0 {
		movement := models.StockMovement{
			ID:       uuid.New(),
			ItemType: models.StockItemKyosk,
			ItemID:   product.ID,
			Quantity: req.Stock,
			Reason:   "initial stock",
		}
		if err := tx.Create(&movement).Error; err != nil {
			tx.Rollback()
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product"})
			return
		}
	}

	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product"})
		return
	}

	c.JSON(http.StatusCreated, product)
}

func (h *KyoskHandler) UpdateKyoskProduct(c *gin.Context) {
	id := c.Param("productId")

	var product models.KyoskProduct
	if err := h.DB.Where("id = ?", id).First(&product).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	// Stock moves only through the adjustment path.
	var req struct {
		Name        *string `json:"name"`
		PointsPrice *int    `json:"points_price"`
		IsActive    *bool   `json:"is_active"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.PointsPrice != nil {
		if *req.PointsPrice < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "points_price must be at least 1"})
			return
		}
		product.PointsPrice = *req.PointsPrice
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if err := h.DB.Save(&product).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product"})
		return
	}

	c.JSON(http.StatusOK, product)
}

func (h *KyoskHandler) DeleteKyoskProduct(c *gin.Context) {
	id := c.Param("productId")

	var product models.KyoskProduct
	if err := h.DB.Where("id = ?", id).First(&product).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	if err := h.DB.Delete(&product).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete product"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
}

func (h *KyoskHandler) AdjustKyoskProductStock(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product id"})
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
	newStock, err := services.AdjustStock(tx, models.StockItemKyosk, productID, req.Delta, req.Reason)
	if err != nil {
		tx.Rollback()
		switch {
		case errors.Is(err, services.ErrItemNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
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
		"product_id": productID,
		"stock":      newStock,
	})
}

// --- terminal: cart and display ---

func terminalKyoskID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get("kyosk_id")
	if !exists {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not a kiosk terminal"})
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not a kiosk terminal"})
		return uuid.Nil, false
	}
	return id, true
}

func (h *KyoskHandler) GetTerminalProducts(c *gin.Context) {
	kyoskID, ok := terminalKyoskID(c)
	if !ok {
		return
	}

	var products []models.KyoskProduct
	if err := h.DB.Where("kyosk_id = ? AND is_active = ?", kyoskID, true).
		Order("name ASC").Find(&products).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}

	c.JSON(http.StatusOK, products)
}

func (h *KyoskHandler) GetKyoskCart(c *gin.Context) {
	kyoskID, ok := terminalKyoskID(c)
	if !ok {
		return
	}

	var items []models.KyoskCartItem
	if err := h.DB.Preload("Product").Where("kyosk_id = ?", kyoskID).Find(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart"})
		return
	}

	c.JSON(http.StatusOK, items)
}

func (h *KyoskHandler) AddKyoskCartItem(c *gin.Context) {
	kyoskID, ok := terminalKyoskID(c)
	if !ok {
		return
	}

	var req struct {
		KyoskProductID uuid.UUID `json:"kyosk_product_id" binding:"required"`
		Quantity       int       `json:"quantity" binding:"required,min=1"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	var product models.KyoskProduct
	if err := h.DB.Where("id = ? AND kyosk_id = ?", req.KyoskProductID, kyoskID).First(&product).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	if !product.IsActive {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Product unavailable: " + product.Name})
		return
	}

	if product.Stock < req.Quantity {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Insufficient stock for " + product.Name})
		return
	}

	var item models.KyoskCartItem
	err := h.DB.Where("kyosk_id = ? AND kyosk_product_id = ?", kyoskID, req.KyoskProductID).First(&item).Error

	if err == nil {
		item.Quantity += req.Quantity
		if item.Quantity > product.Stock {
			item.Quantity = product.Stock
		}
		h.DB.Save(&item)
	} else {
		item = models.KyoskCartItem{
			ID:             uuid.New(),
			KyoskID:        kyoskID,
			KyoskProductID: req.KyoskProductID,
			Quantity:       req.Quantity,
		}
		h.DB.Create(&item)
	}

	h.DB.Preload("Product").Where("id = ?", item.ID).First(&item)
	c.JSON(http.StatusOK, item)
}

func (h *KyoskHandler) RemoveKyoskCartItem(c *gin.Context) {
	kyoskID, ok := terminalKyoskID(c)
	if !ok {
		return
	}

	id := c.Param("id")
	if err := h.DB.Where("id = ? AND kyosk_id = ?", id, kyoskID).Delete(&models.KyoskCartItem{}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove cart item"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Item removed from cart"})
}

func (h *KyoskHandler) ClearKyoskCart(c *gin.Context) {
	kyoskID, ok := terminalKyoskID(c)
	if !ok {
		return
	}

	if err := h.DB.Where("kyosk_id = ?", kyoskID).Delete(&models.KyoskCartItem{}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear cart"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
}

// GetKyoskQr serves the rotating payment QR for the terminal display. The
// cart is not frozen by rotation: a payload scanned just before a rotation
// still previews, and only confirmation checks it is the live one.
func (h *KyoskHandler) GetKyoskQr(c *gin.Context) {
	kyoskID, ok := terminalKyoskID(c)
	if !ok {
		return
	}

	var kyosk models.Kyosk
	if err := h.DB.Where("id = ?", kyoskID).First(&kyosk).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Kiosk not found"})
		return
	}

	if !kyosk.IsActive {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Kiosk is not active"})
		return
	}

	rotation := models.ClampQrRotation(kyosk.QrRotationSeconds)
	payload, expiresAt, err := services.CurrentRotating(h.DB, services.PurposeKyoskPayment, kyosk.ID, rotation)
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

// --- member: two-phase payment ---

// PreviewPayment resolves a scanned kiosk QR to the kiosk's pending cart.
// Read-only: no debit, no stock change, no cart mutation.
func (h *KyoskHandler) PreviewPayment(c *gin.Context) {
	if _, exists := c.Get("member_id"); !exists {
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

	claims, err := services.VerifyPurpose(h.DB, req.Payload, services.PurposeKyoskPayment)
	if err != nil {
		respondQrError(c, err)
		return
	}

	var kyosk models.Kyosk
	if err := h.DB.Where("id = ?", claims.SubjectID).First(&kyosk).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Kiosk not found"})
		return
	}

	var cartItems []models.KyoskCartItem
	if err := h.DB.Preload("Product").Where("kyosk_id = ?", kyosk.ID).Find(&cartItems).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart"})
		return
	}

	if len(cartItems) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Kiosk cart is empty"})
		return
	}

	preview := dtos.PaymentPreview{
		KyoskID:   kyosk.ID,
		KyoskName: kyosk.Name,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	for _, ci := range cartItems {
		preview.Items = append(preview.Items, dtos.PaymentPreviewItem{
			ProductID:   ci.KyoskProductID,
			Name:        ci.Product.Name,
			Quantity:    ci.Quantity,
			PointsPrice: ci.Product.PointsPrice,
		})
		preview.TotalPoints += ci.Product.PointsPrice * ci.Quantity
	}

	c.JSON(http.StatusOK, preview)
}

// ConfirmPayment settles the kiosk cart against the member's balance. The
// payload is re-verified here, so a token that rotated out between preview
// and confirm is rejected and the member must rescan. Debit, stock decrements,
// order creation and cart clearing commit as one transaction.
func (h *KyoskHandler) ConfirmPayment(c *gin.Context) {
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

	claims, err := services.VerifyPurpose(h.DB, req.Payload, services.PurposeKyoskPayment)
	if err != nil {
		respondQrError(c, err)
		return
	}

	var kyosk models.Kyosk
	if err := h.DB.Where("id = ?", claims.SubjectID).First(&kyosk).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Kiosk not found"})
		return
	}

	var cartItems []models.KyoskCartItem
	if err := h.DB.Preload("Product").Where("kyosk_id = ?", kyosk.ID).Find(&cartItems).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart"})
		return
	}

	if len(cartItems) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Kiosk cart is empty"})
		return
	}

	totalPoints := 0
	for _, ci := range cartItems {
		if !ci.Product.IsActive {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Product unavailable: " + ci.Product.Name})
			return
		}
		if ci.Product.Stock < ci.Quantity {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Insufficient stock for " + ci.Product.Name})
			return
		}
		totalPoints += ci.Product.PointsPrice * ci.Quantity
	}

	kyoskID := kyosk.ID
	order := models.Order{
		ID:          uuid.New(),
		MemberID:    memberID.(uuid.UUID),
		KyoskID:     &kyoskID,
		Source:      models.OrderSourceKyosk,
		Status:      models.OrderStatusCompleted,
		TotalPoints: totalPoints,
	}

	tx := h.DB.Begin()

	if err := tx.Create(&order).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to complete payment"})
		return
	}

	if _, err := services.Debit(tx, memberID.(uuid.UUID), totalPoints, models.EntryTypeKyoskPurchase, &order.ID, "Kiosk payment at "+kyosk.Name); err != nil {
		tx.Rollback()
		if errors.Is(err, services.ErrInsufficientBalance) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Insufficient balance"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to complete payment"})
		return
	}

	var orderItems []models.OrderItem
	for _, ci := range cartItems {
		productID := ci.KyoskProductID
		if _, err := services.AdjustStock(tx, models.StockItemKyosk, productID, -ci.Quantity, "order "+order.OrderNumber); err != nil {
			tx.Rollback()
			if errors.Is(err, services.ErrNegativeStock) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Insufficient stock for " + ci.Product.Name})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to complete payment"})
			return
		}

		orderItems = append(orderItems, models.OrderItem{
			ID:                    uuid.New(),
			OrderID:               order.ID,
			KyoskProductID:        &productID,
			ProductName:           ci.Product.Name,
			Quantity:              ci.Quantity,
			PointsPriceAtPurchase: ci.Product.PointsPrice,
		})
	}

	if err := tx.Omit("Order").CreateInBatches(&orderItems, 100).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to complete payment"})
		return
	}

	if err := tx.Where("kyosk_id = ?", kyosk.ID).Delete(&models.KyoskCartItem{}).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to complete payment"})
		return
	}

	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to complete payment"})
		return
	}

	// Rotate immediately: the payload just consumed must not settle a second
	// cart.
	rotation := models.ClampQrRotation(kyosk.QrRotationSeconds)
	if _, _, err := services.IssueRotating(h.DB, services.PurposeKyoskPayment, kyosk.ID, rotation); err != nil {
		// Payment already committed; the token also dies at its natural expiry.
		_ = err
	}

	c.JSON(http.StatusCreated, dtos.PaymentConfirmation{
		OrderID:     order.ID,
		TotalPoints: order.TotalPoints,
		KyoskName:   kyosk.Name,
	})
}
