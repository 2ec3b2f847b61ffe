package controllers

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tanamvest/tanamvest_backend/models"
	"github.com/tanamvest/tanamvest_backend/repositories"
	"github.com/tanamvest/tanamvest_backend/services"
	"github.com/tanamvest/tanamvest_backend/utils"
)

// WebhookController receives asynchronous payment notifications from the
// gateway. The webhook is the only path that learns about settlements, so
// it drives account creation for registration fees and the paid transition
// for full-investment contracts.
type WebhookController struct {
	DB        *mongo.Database
	payments  *repositories.PaymentRepository
	finalizer *services.FullInvestmentFinalizer
}

// NewWebhookController creates a new webhook controller
func NewWebhookController(db *mongo.Database, estamp *services.EStampService, commissions *services.CommissionService) *WebhookController {
	return &WebhookController{
		DB:        db,
		payments:  repositories.NewPaymentRepository(db),
		finalizer: services.NewFullInvestmentFinalizer(db, estamp, commissions),
	}
}

// verifySignature checks the gateway's sha512 signature over
// orderId + statusCode + grossAmount + serverKey.
func verifySignature(n *models.GatewayNotification) bool {
	serverKey := os.Getenv("MIDTRANS_SERVER_KEY")
	if serverKey == "" {
		log.Printf("WARNING: MIDTRANS_SERVER_KEY not set, skipping webhook signature verification")
		return true
	}

	raw := n.OrderID + n.StatusCode + n.GrossAmount + serverKey
	sum := sha512.Sum512([]byte(raw))
	return hex.EncodeToString(sum[:]) == n.SignatureKey
}

// HandleNotification processes a gateway notification. Always returns 200
// for recognized orders so the gateway stops retrying; processing failures
// are logged, and re-delivery of the same notification is harmless.
func (wc *WebhookController) HandleNotification(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var notification models.GatewayNotification
	if err := c.Bind(&notification); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid notification payload",
		})
	}
	if notification.OrderID == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Missing order_id",
		})
	}

	if !verifySignature(&notification) {
		log.Printf("Webhook signature mismatch for order %s", notification.OrderID)
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid signature",
		})
	}

	payment, err := wc.payments.FindByOrderID(ctx, notification.OrderID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			log.Printf("Webhook for unknown order %s ignored", notification.OrderID)
			return c.JSON(http.StatusOK, models.Response{
				Status:  http.StatusOK,
				Message: "Order not found, notification ignored",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to find payment",
		})
	}

	err = wc.payments.UpdateGatewayStatus(ctx, notification.OrderID,
		notification.TransactionID, notification.TransactionStatus,
		notification.FraudStatus, notification.PaymentType)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update payment status",
		})
	}

	settled := models.SettlementComplete(notification.TransactionStatus, notification.FraudStatus)

	if settled && !payment.IsProcessed {
		switch {
		case strings.HasPrefix(payment.OrderID, "REG-"):
			wc.processRegistrationSettlement(ctx, payment)
		case payment.PaymentType == models.PaymentFullInvestment:
			wc.processFullInvestmentSettlement(ctx, payment)
		}
	}

	log.Printf("Webhook processed: order=%s status=%s", notification.OrderID, notification.TransactionStatus)
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Notification processed",
	})
}

// processRegistrationSettlement creates the member account once the
// registration fee settles. The account did not exist before this point.
func (wc *WebhookController) processRegistrationSettlement(ctx context.Context, payment *models.Payment) {
	users := wc.DB.Collection("users")

	count, err := users.CountDocuments(ctx, bson.M{"email": payment.CustomerEmail})
	if err != nil {
		log.Printf("Failed to check existing user for %s: %v", payment.OrderID, err)
		return
	}
	if count > 0 {
		log.Printf("Registration %s settled but account %s already exists", payment.OrderID, payment.CustomerEmail)
		wc.markProcessed(ctx, payment.ID)
		return
	}

	tempPassword, err := utils.GenerateTemporaryPassword()
	if err != nil {
		log.Printf("Failed to generate temporary password for %s: %v", payment.OrderID, err)
		return
	}
	hashed, err := utils.HashPassword(tempPassword)
	if err != nil {
		log.Printf("Failed to hash temporary password for %s: %v", payment.OrderID, err)
		return
	}

	now := time.Now()
	user := models.User{
		ID:        primitive.NewObjectID(),
		Email:     payment.CustomerEmail,
		Password:  hashed,
		FullName:  payment.CustomerName,
		Phone:     payment.CustomerPhone,
		Role:      models.RoleUser,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err = users.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			log.Printf("Registration %s raced with existing signup for %s", payment.OrderID, payment.CustomerEmail)
			wc.markProcessed(ctx, payment.ID)
			return
		}
		log.Printf("Failed to create account for %s: %v", payment.OrderID, err)
		return
	}

	// Link the pre-account payment to its owner now that the account exists
	_, err = wc.DB.Collection("payments").UpdateOne(ctx,
		bson.M{"_id": payment.ID},
		bson.M{"$set": bson.M{"userId": user.ID, "isProcessed": true, "updatedAt": now}},
	)
	if err != nil {
		log.Printf("Failed to link registration payment %s to user %s: %v", payment.OrderID, user.ID.Hex(), err)
	}

	go func() {
		body := fmt.Sprintf("Selamat datang di TanamVest!\n\nAkun Anda telah aktif.\nEmail: %s\nPassword sementara: %s\n\nSegera ganti password Anda setelah login.",
			user.Email, tempPassword)
		if err := utils.SendEmail(user.Email, "Akun TanamVest Anda Aktif", body); err != nil {
			log.Printf("Failed to send welcome email to %s: %v", user.Email, err)
		}
	}()

	log.Printf("Account created for %s from registration %s", user.Email, payment.OrderID)
}

// processFullInvestmentSettlement marks the contract's payment complete and,
// when the contract is already approved, moves it to paid with stamping,
// plant allocation and commission. When the settlement arrives before the
// admin approval, only the flag is recorded; the approval path picks up the
// same finalization once the review lands.
func (wc *WebhookController) processFullInvestmentSettlement(ctx context.Context, payment *models.Payment) {
	contracts := wc.DB.Collection("contracts")

	var contract models.Contract
	err := contracts.FindOne(ctx, bson.M{"contractId": payment.OrderID}).Decode(&contract)
	if err != nil {
		log.Printf("Settled full payment %s has no matching contract: %v", payment.OrderID, err)
		return
	}

	now := time.Now()
	update := bson.M{"paymentCompleted": true, "updatedAt": now}

	if models.CanTransition(contract.Status, models.ContractStatusPaid) {
		update["status"] = models.ContractStatusPaid
	}

	_, err = contracts.UpdateOne(ctx, bson.M{"contractId": contract.ContractID}, bson.M{"$set": update})
	if err != nil {
		log.Printf("Failed to update contract %s after settlement: %v", contract.ContractID, err)
		return
	}

	wc.markProcessed(ctx, payment.ID)

	if update["status"] == models.ContractStatusPaid {
		steps := wc.finalizer.FinalizePaidContract(ctx, &contract, payment)
		log.Printf("Finalized contract %s after settlement: %v", contract.ContractID, steps)
	}

	go utils.NotifyUserByEmail(wc.DB, contract.UserID,
		"Pembayaran Diterima",
		fmt.Sprintf("Pembayaran penuh untuk kontrak %s sebesar Rp %.0f telah diterima.", contract.ContractID, payment.Amount))
}

func (wc *WebhookController) markProcessed(ctx context.Context, paymentID primitive.ObjectID) {
	_, err := wc.DB.Collection("payments").UpdateOne(ctx,
		bson.M{"_id": paymentID},
		bson.M{"$set": bson.M{"isProcessed": true, "updatedAt": time.Now()}},
	)
	if err != nil {
		log.Printf("Failed to mark payment %s processed: %v", paymentID.Hex(), err)
	}
}
