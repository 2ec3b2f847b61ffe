package routes

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tanamvest/tanamvest_backend/controllers"
	"github.com/tanamvest/tanamvest_backend/middleware"
	"github.com/tanamvest/tanamvest_backend/models"
	"github.com/tanamvest/tanamvest_backend/services"
	"github.com/tanamvest/tanamvest_backend/websocket"
)

// RegisterAdminRoutes sets up the admin review queues and plant operations
func RegisterAdminRoutes(e *echo.Echo, db *mongo.Database, hub *websocket.Hub, estamp *services.EStampService, commissions *services.CommissionService) {
	contractController := controllers.NewContractController(db, services.NewMidtransService(), estamp, commissions, hub)
	reviewController := controllers.NewReviewController(db, hub, commissions)
	plantController := controllers.NewPlantController(db)

	admin := e.Group("/api/admin")
	admin.Use(middleware.JWTMiddleware())
	admin.Use(middleware.RequireRole(models.RoleAdmin))

	// Contract review queue
	admin.GET("/contracts/pending", contractController.GetPendingContracts)
	admin.POST("/contracts/:contractId/review", contractController.ReviewContract)

	// Installment proof review queue
	admin.GET("/reviews/pending", reviewController.GetPendingReviews)
	admin.POST("/reviews/:id", reviewController.ReviewInstallment)

	// Plant instance operations
	admin.GET("/plants/:id", plantController.GetPlantInstance)
	admin.PUT("/plants/:id/status", plantController.UpdateStatus)
	admin.POST("/plants/:id/costs", plantController.AddOperationalCost)
	admin.POST("/plants/:id/income", plantController.AddIncomeRecord)
}
