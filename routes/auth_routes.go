package routes

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tanamvest/tanamvest_backend/controllers"
	"github.com/tanamvest/tanamvest_backend/middleware"
	"github.com/tanamvest/tanamvest_backend/models"
	"github.com/tanamvest/tanamvest_backend/services"
)

// RegisterAuthRoutes sets up authentication and registration routes
func RegisterAuthRoutes(e *echo.Echo, db *mongo.Database, gateway *services.MidtransService) {
	authController := controllers.NewAuthController(db, gateway)

	// Public routes
	e.POST("/api/auth/login", authController.Login)
	e.POST("/api/auth/register", authController.Register)

	// Authenticated routes
	auth := e.Group("/api/auth")
	auth.Use(middleware.JWTMiddleware())
	auth.PUT("/fcm-token", authController.UpdateFCMToken)

	// Staff management (admin only)
	staff := e.Group("/api/admin/staff")
	staff.Use(middleware.JWTMiddleware())
	staff.Use(middleware.RequireRole(models.RoleAdmin))
	staff.POST("", authController.CreateStaff)
}
