package routes

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tanamvest/tanamvest_backend/controllers"
	"github.com/tanamvest/tanamvest_backend/middleware"
	"github.com/tanamvest/tanamvest_backend/models"
	"github.com/tanamvest/tanamvest_backend/services"
)

// RegisterMarketingRoutes sets up the marketing staff self-service surface
func RegisterMarketingRoutes(e *echo.Echo, db *mongo.Database, commissions *services.CommissionService) {
	commissionController := controllers.NewCommissionController(db, commissions)

	marketing := e.Group("/api/marketing")
	marketing.Use(middleware.JWTMiddleware())
	marketing.Use(middleware.RequireRole(models.RoleMarketing, models.RoleMarketingHead))

	marketing.GET("/commissions", commissionController.GetMyCommissions)
	marketing.GET("/referral-qr", commissionController.GetMyReferralQR)
}
