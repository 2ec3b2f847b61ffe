package routes

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tanamvest/tanamvest_backend/controllers"
	"github.com/tanamvest/tanamvest_backend/middleware"
	"github.com/tanamvest/tanamvest_backend/models"
	"github.com/tanamvest/tanamvest_backend/services"
)

// RegisterFinanceRoutes sets up the finance reporting and commission
// management surface.
func RegisterFinanceRoutes(e *echo.Echo, db *mongo.Database, commissions *services.CommissionService) {
	reportController := controllers.NewReportController(db)
	commissionController := controllers.NewCommissionController(db, commissions)

	finance := e.Group("/api/finance")
	finance.Use(middleware.JWTMiddleware())
	finance.Use(middleware.RequireRole(models.RoleFinance, models.RoleAdmin))

	finance.GET("/dashboard", reportController.GetDashboard)
	finance.GET("/investors", reportController.ListInvestors)
	finance.GET("/plants", reportController.ListPlantInstances)
	finance.GET("/payments/export", reportController.ExportPayments)

	finance.GET("/commissions", commissionController.ListCommissions)
	finance.POST("/commissions/recalculate/:staffId", commissionController.RecalculateForStaff)
	finance.POST("/commissions/reassign-code", commissionController.ReassignReferralCode)
}
