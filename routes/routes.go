package routes

import (
	"time"

	"ahub-backend/handlers"
	"ahub-backend/middleware"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func SetupRoutes(r *gin.Engine, db *gorm.DB) {
	// Initialize handlers
	authHandler := &handlers.AuthHandler{DB: db}
	pointsHandler := &handlers.PointsHandler{DB: db}
	storeHandler := &handlers.StoreHandler{DB: db}
	cartHandler := &handlers.CartHandler{DB: db}
	orderHandler := &handlers.OrderHandler{DB: db}
	eventHandler := &handlers.EventHandler{DB: db}
	checkinHandler := &handlers.CheckinHandler{DB: db}
	kyoskHandler := &handlers.KyoskHandler{DB: db}

	// Credential endpoints get a tight limiter; scan endpoints a looser one
	// sized for people actually standing at an event screen.
	authLimiter := middleware.NewRateLimiter(10, time.Minute)
	scanLimiter := middleware.NewRateLimiter(30, time.Minute)

	// Public routes
	api := r.Group("/api")
	{
		// Auth routes
		api.POST("/auth/register", authLimiter.Middleware(), authHandler.Register)
		api.POST("/auth/login", authLimiter.Middleware(), authHandler.Login)
		api.POST("/auth/refresh", authLimiter.Middleware(), authHandler.Refresh)

		// Public store catalog
		api.GET("/store/items", storeHandler.GetItems)
		api.GET("/store/items/:id", storeHandler.GetItem)

		// Public event listing
		api.GET("/events", eventHandler.GetEvents)
		api.GET("/events/:id", eventHandler.GetEvent)
	}

	// Protected routes (require authentication)
	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware())
	{
		// Member profile
		protected.GET("/auth/profile", authHandler.GetProfile)

		// Points
		protected.GET("/points/balance", pointsHandler.GetBalance)
		protected.GET("/points/history", pointsHandler.GetHistory)
		protected.GET("/points/card", pointsHandler.GetMemberCard)

		// Store cart
		protected.GET("/cart", cartHandler.GetCart)
		protected.POST("/cart", cartHandler.AddToCart)
		protected.PUT("/cart/:id", cartHandler.UpdateCartItem)
		protected.DELETE("/cart/:id", cartHandler.RemoveFromCart)
		protected.DELETE("/cart", cartHandler.ClearCart)

		// Orders
		protected.POST("/orders", orderHandler.Checkout)
		protected.GET("/orders", orderHandler.GetOrders)
		protected.GET("/orders/:id", orderHandler.GetOrder)

		// Event check-in
		protected.POST("/checkins", scanLimiter.Middleware(), checkinHandler.Checkin)
		protected.GET("/checkins", checkinHandler.GetMyCheckins)
		protected.GET("/events/:id/checkin-status", checkinHandler.GetCheckinStatus)

		// Kiosk payment (member side)
		protected.POST("/payments/preview", scanLimiter.Middleware(), kyoskHandler.PreviewPayment)
		protected.POST("/payments/confirm", scanLimiter.Middleware(), kyoskHandler.ConfirmPayment)
	}

	// Kiosk terminal routes (kiosk account bound to one kiosk)
	terminal := api.Group("/terminal")
	terminal.Use(middleware.AuthMiddleware())
	terminal.Use(middleware.KyoskMiddleware())
	{
		terminal.GET("/products", kyoskHandler.GetTerminalProducts)
		terminal.GET("/cart", kyoskHandler.GetKyoskCart)
		terminal.POST("/cart", kyoskHandler.AddKyoskCartItem)
		terminal.DELETE("/cart/:id", kyoskHandler.RemoveKyoskCartItem)
		terminal.DELETE("/cart", kyoskHandler.ClearKyoskCart)
		terminal.GET("/qr", kyoskHandler.GetKyoskQr)
	}

	// Admin routes (require admin role)
	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware())
	admin.Use(middleware.AdminMiddleware())
	{
		// Store item management
		admin.GET("/store/items", storeHandler.GetItemsAdmin)
		admin.POST("/store/items", storeHandler.CreateItem)
		admin.PUT("/store/items/:id", storeHandler.UpdateItem)
		admin.DELETE("/store/items/:id", storeHandler.DeleteItem)
		admin.POST("/store/items/:id/stock", storeHandler.AdjustStock)

		// Event management
		admin.GET("/events", eventHandler.GetEventsAdmin)
		admin.POST("/events", eventHandler.CreateEvent)
		admin.PUT("/events/:id", eventHandler.UpdateEvent)
		admin.DELETE("/events/:id", eventHandler.DeleteEvent)
		admin.PUT("/events/:id/status", eventHandler.UpdateEventStatus)
		admin.GET("/events/:id/qr", eventHandler.GetEventQr)
		admin.GET("/events/:id/stats", eventHandler.GetEventStats)

		// Points administration
		admin.POST("/points/adjust", pointsHandler.AdjustPoints)
		admin.POST("/points/verify-card", pointsHandler.VerifyMemberCard)

		// Kiosk management
		admin.GET("/kyosks", kyoskHandler.GetKyosks)
		admin.GET("/kyosks/:id", kyoskHandler.GetKyosk)
		admin.POST("/kyosks", kyoskHandler.CreateKyosk)
		admin.PUT("/kyosks/:id", kyoskHandler.UpdateKyosk)
		admin.DELETE("/kyosks/:id", kyoskHandler.DeleteKyosk)
		admin.GET("/kyosks/:id/products", kyoskHandler.GetKyoskProducts)
		admin.POST("/kyosks/:id/products", kyoskHandler.CreateKyoskProduct)
		admin.PUT("/kyosks/:id/products/:productId", kyoskHandler.UpdateKyoskProduct)
		admin.DELETE("/kyosks/:id/products/:productId", kyoskHandler.DeleteKyoskProduct)
		admin.POST("/kyosks/:id/products/:productId/stock", kyoskHandler.AdjustKyoskProductStock)

		// Order overview
		admin.GET("/orders", orderHandler.GetOrders)
		admin.GET("/orders/:id", orderHandler.GetOrder)
	}

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
}
