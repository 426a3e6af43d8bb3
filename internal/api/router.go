package api

import (
	"net/http"

	"grocery-dispatch/internal/api/middleware"
	"grocery-dispatch/internal/models"
	"grocery-dispatch/internal/modules/orders"
	"grocery-dispatch/internal/modules/quotes"
	"grocery-dispatch/internal/modules/tracking"
	"grocery-dispatch/internal/modules/users"

	"github.com/labstack/echo/v4"
)

// SetupRoutes sets up all the API endpoints for the application.
func SetupRoutes(
	e *echo.Echo,
	userHandler *users.Handler,
	quoteHandler *quotes.Handler,
	orderHandler *orders.Handler,
	trackingHandler *tracking.Handler,
	jwtSecret string,
) {
	// Initialize the JWT authentication middleware
	authMiddleware := middleware.JWTAuth(jwtSecret)
	// Confirmation and status updates are partner actions
	partnerRequired := middleware.RequireRole(models.RolePartner)

	// --- Public Routes ---
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"message": "Grocery dispatch API"})
	})

	// Pre-login storefront widget: nearest branch distance and ETA.
	e.POST("/eta/estimate", quoteHandler.GetBranchEstimate)

	authGroup := e.Group("/auth")
	{
		authGroup.POST("/signup", userHandler.Signup)
		authGroup.POST("/login", userHandler.Login)
	}

	// --- User (Customer) Routes ---
	profileGroup := e.Group("/profile", authMiddleware)
	{
		profileGroup.GET("", userHandler.GetProfile)
		profileGroup.GET("/addresses", userHandler.ListAddresses)
		profileGroup.POST("/addresses", userHandler.AddAddress)
		profileGroup.PATCH("/addresses/:addressId", userHandler.UpdateAddress)
		profileGroup.DELETE("/addresses/:addressId", userHandler.DeleteAddress)
	}

	// --- Order Routes ---
	orderGroup := e.Group("/orders", authMiddleware)
	{
		orderGroup.POST("/quote", quoteHandler.GetDeliveryQuote)
		orderGroup.POST("", orderHandler.CreateOrder)
		orderGroup.GET("", orderHandler.ListMyOrders)
		orderGroup.GET("/:orderId", orderHandler.GetOrderDetails)
		orderGroup.PUT("/:orderId/cancel", orderHandler.CancelOrder)
	}

	// --- Delivery Partner Routes ---
	partnerGroup := e.Group("/partner", authMiddleware, partnerRequired)
	{
		partnerGroup.GET("/orders", orderHandler.ListAvailableOrders)
		partnerGroup.POST("/orders/:orderId/confirm", orderHandler.ConfirmOrder)
		partnerGroup.PUT("/orders/:orderId/status", orderHandler.UpdateOrderStatus)
	}

	// --- Live Tracking ---
	e.GET("/ws/orders/:orderId/track", trackingHandler.HandleTracking, authMiddleware)
}
