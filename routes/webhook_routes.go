package routes

import (
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tanamvest/tanamvest_backend/controllers"
	"github.com/tanamvest/tanamvest_backend/models"
	"github.com/tanamvest/tanamvest_backend/services"
)

// RegisterWebhookRoutes sets up the gateway callback and scheduler endpoints.
// Neither carries a user JWT: the webhook is authenticated by its signature,
// the cron endpoint by a shared secret header.
func RegisterWebhookRoutes(e *echo.Echo, db *mongo.Database, estamp *services.EStampService, commissions *services.CommissionService) {
	webhookController := controllers.NewWebhookController(db, estamp, commissions)
	cronController := controllers.NewCronController(db)

	e.POST("/api/payments/notification", webhookController.HandleNotification)

	e.POST("/api/cron/installment-reminders", cronController.SendInstallmentReminders, requireCronSecret)
}

// requireCronSecret guards scheduler endpoints with the CRON_SECRET header
func requireCronSecret(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		secret := os.Getenv("CRON_SECRET")
		if secret == "" || c.Request().Header.Get("X-Cron-Secret") != secret {
			return c.JSON(http.StatusUnauthorized, models.Response{
				Status:  http.StatusUnauthorized,
				Message: "Invalid cron secret",
			})
		}
		return next(c)
	}
}
