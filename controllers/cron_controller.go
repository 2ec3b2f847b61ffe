package controllers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tanamvest/tanamvest_backend/models"
	"github.com/tanamvest/tanamvest_backend/repositories"
	"github.com/tanamvest/tanamvest_backend/utils"
)

// reminderLeadTime is how far ahead of the due date reminders go out
const reminderLeadTime = 72 * time.Hour

// CronController exposes the endpoints triggered by an external scheduler.
// They are idempotent: running a sweep twice in a row sends at most one
// extra reminder batch, never corrupts state.
type CronController struct {
	DB       *mongo.Database
	payments *repositories.PaymentRepository
}

// NewCronController creates a new cron controller
func NewCronController(db *mongo.Database) *CronController {
	return &CronController{
		DB:       db,
		payments: repositories.NewPaymentRepository(db),
	}
}

// SendInstallmentReminders emails every member whose pending installment is
// due within the lead time, and reports how many reminders were attempted.
func (cr *CronController) SendInstallmentReminders(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	cutoff := time.Now().Add(reminderLeadTime)
	due, err := cr.payments.FindPendingDueBefore(ctx, cutoff)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to find due installments",
		})
	}

	sent := 0
	overdue := 0
	now := time.Now()
	for _, payment := range due {
		// Proofs already submitted are waiting on the admin, not the member
		if payment.ProofImageURL != "" {
			continue
		}

		subject := "Pengingat Pembayaran Cicilan"
		var body string
		if payment.DueDate != nil && payment.DueDate.Before(now) {
			overdue++
			subject = "Cicilan Anda Telah Jatuh Tempo"
			body = fmt.Sprintf("Cicilan ke-%d untuk %s sebesar Rp %.0f telah jatuh tempo pada %s. Segera lakukan pembayaran dan unggah bukti transfer.",
				payment.InstallmentNumber, payment.ProductName, payment.Amount,
				payment.DueDate.Format("02 Jan 2006"))
		} else {
			dueStr := "segera"
			if payment.DueDate != nil {
				dueStr = payment.DueDate.Format("02 Jan 2006")
			}
			body = fmt.Sprintf("Cicilan ke-%d untuk %s sebesar Rp %.0f akan jatuh tempo pada %s. Jangan lupa melakukan pembayaran.",
				payment.InstallmentNumber, payment.ProductName, payment.Amount, dueStr)
		}

		utils.NotifyUserByEmail(cr.DB, payment.UserID, subject, body)

		if err := utils.SaveNotification(cr.DB, payment.UserID, subject, body, "installment_reminder",
			map[string]interface{}{"orderId": payment.OrderID}); err != nil {
			log.Printf("Failed to save reminder notification for %s: %v", payment.OrderID, err)
		}
		sent++
	}

	log.Printf("Reminder sweep: %d due, %d reminders sent, %d overdue", len(due), sent, overdue)
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Reminder sweep complete",
		Data: map[string]interface{}{
			"dueInstallments": len(due),
			"remindersSent":   sent,
			"overdue":         overdue,
		},
	})
}
