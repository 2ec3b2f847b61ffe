package routes

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tanamvest/tanamvest_backend/controllers"
	"github.com/tanamvest/tanamvest_backend/middleware"
	"github.com/tanamvest/tanamvest_backend/services"
	"github.com/tanamvest/tanamvest_backend/websocket"
)

// RegisterInvestmentRoutes sets up the member-facing investment surface:
// contracts, signatures, installment plans, proofs and the portfolio.
func RegisterInvestmentRoutes(e *echo.Echo, db *mongo.Database, hub *websocket.Hub, gateway *services.MidtransService, estamp *services.EStampService, commissions *services.CommissionService) {
	contractController := controllers.NewContractController(db, gateway, estamp, commissions, hub)
	cicilanController := controllers.NewCicilanController(db, hub)
	investorController := controllers.NewInvestorController(db)

	contracts := e.Group("/api/contracts")
	contracts.Use(middleware.JWTMiddleware())
	contracts.POST("", contractController.CreateContract)
	contracts.GET("", contractController.GetMyContracts)
	contracts.POST("/:contractId/sign", contractController.SignContract)

	cicilan := e.Group("/api/cicilan")
	cicilan.Use(middleware.JWTMiddleware())
	cicilan.POST("", cicilanController.CreateCicilan)
	cicilan.GET("/installments", cicilanController.GetMyInstallments)
	cicilan.POST("/installments/:orderId/proof", cicilanController.SubmitProof)

	portfolio := e.Group("/api/portfolio")
	portfolio.Use(middleware.JWTMiddleware())
	portfolio.GET("", investorController.GetPortfolio)
}
