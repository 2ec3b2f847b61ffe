package routes

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tanamvest/tanamvest_backend/services"
	"github.com/tanamvest/tanamvest_backend/websocket"
)

// SetupRoutes configures all API routes by calling individual route
// registration functions.
func SetupRoutes(e *echo.Echo, db *mongo.Database, hub *websocket.Hub) {
	gateway := services.NewMidtransService()
	estamp := services.NewEStampService()
	commissions := services.NewCommissionService(db, services.DefaultCommissionRate)

	RegisterAuthRoutes(e, db, gateway)
	RegisterInvestmentRoutes(e, db, hub, gateway, estamp, commissions)
	RegisterAdminRoutes(e, db, hub, estamp, commissions)
	RegisterFinanceRoutes(e, db, commissions)
	RegisterMarketingRoutes(e, db, commissions)
	RegisterWebhookRoutes(e, db, estamp, commissions)
	RegisterWebSocketRoutes(e, hub)
}
