package controllers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tanamvest/tanamvest_backend/middleware"
	"github.com/tanamvest/tanamvest_backend/models"
	"github.com/tanamvest/tanamvest_backend/repositories"
	"github.com/tanamvest/tanamvest_backend/services"
	"github.com/tanamvest/tanamvest_backend/utils"
	"github.com/tanamvest/tanamvest_backend/websocket"
)

// ReviewController handles the admin review queue for installment payment
// proofs. Approving an installment fans out into plant allocation, investor
// bookkeeping, next-installment generation and commissions; each of those is
// a sub-step whose failure is reported but never rolls back the approval.
type ReviewController struct {
	DB          *mongo.Database
	payments    *repositories.PaymentRepository
	scheduler   *services.InstallmentScheduler
	commissions *services.CommissionService
	hub         *websocket.Hub
}

// NewReviewController creates a new review controller
func NewReviewController(db *mongo.Database, hub *websocket.Hub, commissions *services.CommissionService) *ReviewController {
	return &ReviewController{
		DB:          db,
		payments:    repositories.NewPaymentRepository(db),
		scheduler:   services.NewInstallmentScheduler(db),
		commissions: commissions,
		hub:         hub,
	}
}

// GetPendingReviews lists installments awaiting admin review, oldest first
func (rc *ReviewController) GetPendingReviews(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filter := bson.M{
		"paymentType":   models.PaymentCicilanInstallment,
		"adminStatus":   models.AdminStatusPending,
		"proofImageUrl": bson.M{"$ne": ""},
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := rc.DB.Collection("payments").Find(ctx, filter, findOpts)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve pending reviews",
		})
	}
	defer cursor.Close(ctx)

	var pending []models.Payment
	if err = cursor.All(ctx, &pending); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to decode pending reviews",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Pending reviews retrieved successfully",
		Data:    pending,
	})
}

// ReviewInstallment approves or rejects an installment payment proof.
// The status write is the primary mutation; everything that follows an
// approval is reported in subSteps so the admin sees exactly which
// side effects landed.
func (rc *ReviewController) ReviewInstallment(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	adminID, err := middleware.ExtractUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}

	paymentID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid payment ID",
		})
	}

	var req models.ReviewInstallmentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Validation failed: " + err.Error(),
		})
	}

	payment, err := rc.payments.FindByID(ctx, paymentID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Payment not found",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to find payment",
		})
	}

	if payment.AdminStatus != models.AdminStatusPending {
		return c.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: fmt.Sprintf("Payment has already been reviewed (%s)", payment.AdminStatus),
		})
	}

	if req.Action == "reject" {
		if err := rc.payments.MarkReviewed(ctx, paymentID, models.AdminStatusRejected, adminID, req.AdminNotes); err != nil {
			return c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Failed to reject payment",
			})
		}

		go utils.NotifyUserByEmail(rc.DB, payment.UserID,
			"Pembayaran Ditolak",
			fmt.Sprintf("Bukti pembayaran untuk %s (cicilan ke-%d) ditolak. Catatan: %s. Silakan unggah ulang bukti pembayaran.",
				payment.ProductName, payment.InstallmentNumber, req.AdminNotes))

		if notifErr := rc.hub.NotifyInstallmentReviewed(payment.UserID, map[string]interface{}{
			"orderId": payment.OrderID,
			"status":  models.AdminStatusRejected,
		}); notifErr != nil {
			log.Printf("WebSocket notify failed for user %s: %v", payment.UserID.Hex(), notifErr)
		}

		return c.JSON(http.StatusOK, models.Response{
			Status:  http.StatusOK,
			Message: "Payment rejected",
			Data: map[string]interface{}{
				"orderId": payment.OrderID,
				"status":  models.AdminStatusRejected,
			},
		})
	}

	// Primary mutation: the approval itself. If this fails, nothing else runs.
	if err := rc.payments.MarkReviewed(ctx, paymentID, models.AdminStatusApproved, adminID, req.AdminNotes); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to approve payment",
		})
	}
	payment.AdminStatus = models.AdminStatusApproved

	subSteps := map[string]string{}

	if payment.InstallmentNumber == 1 {
		if err := rc.activateInvestment(ctx, payment, subSteps); err != nil {
			log.Printf("Activation sub-steps failed for %s: %v", payment.OrderID, err)
		}
	} else {
		rc.bookInstallment(ctx, payment, subSteps)
	}

	next, err := rc.scheduler.EnsureNextInstallment(ctx, payment)
	if err != nil {
		subSteps["nextInstallment"] = "failed: " + err.Error()
		log.Printf("Failed to generate next installment after %s: %v", payment.OrderID, err)
	} else if next != nil {
		subSteps["nextInstallment"] = "created " + next.OrderID
	} else {
		subSteps["nextInstallment"] = "plan complete, no further installments"
	}

	if payment.InstallmentNumber == 1 {
		commResult, commErr := rc.commissions.CreateCommissionRecord(ctx, paymentID)
		switch {
		case commErr != nil:
			subSteps["commission"] = "failed: " + commErr.Error()
			log.Printf("Commission failed for %s: %v", payment.OrderID, commErr)
		case commResult.Created:
			subSteps["commission"] = "recorded"
		default:
			subSteps["commission"] = "skipped: " + commResult.Reason
		}
	}

	if notifErr := rc.hub.NotifyInstallmentReviewed(payment.UserID, map[string]interface{}{
		"orderId": payment.OrderID,
		"status":  models.AdminStatusApproved,
	}); notifErr != nil {
		log.Printf("WebSocket notify failed for user %s: %v", payment.UserID.Hex(), notifErr)
	}

	go func(p models.Payment) {
		utils.NotifyUserByEmail(rc.DB, p.UserID,
			"Pembayaran Disetujui",
			fmt.Sprintf("Pembayaran cicilan ke-%d untuk %s sebesar Rp %.0f telah disetujui.",
				p.InstallmentNumber, p.ProductName, p.Amount))

		if fcmErr := utils.SendFCMNotificationToUser(rc.DB, p.UserID,
			"Pembayaran Disetujui",
			fmt.Sprintf("Cicilan ke-%d untuk %s telah disetujui", p.InstallmentNumber, p.ProductName),
			map[string]interface{}{"orderId": p.OrderID}); fcmErr != nil {
			log.Printf("FCM notify failed for user %s: %v", p.UserID.Hex(), fcmErr)
		}
	}(*payment)

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Payment approved",
		Data: map[string]interface{}{
			"orderId":  payment.OrderID,
			"status":   models.AdminStatusApproved,
			"subSteps": subSteps,
		},
	})
}

// activateInvestment runs the first-installment side effects: allocate the
// plant instance, link it into the investor entry, flip the investment to
// active, and book the paid amount. Each outcome is recorded in subSteps.
func (rc *ReviewController) activateInvestment(ctx context.Context, payment *models.Payment, subSteps map[string]string) error {
	now := time.Now()

	// The investor entry must exist before allocation; it is created when
	// the plan starts. Its absence means the plan state is inconsistent.
	var investor models.Investor
	err := rc.DB.Collection("investors").FindOne(ctx, bson.M{
		"userId":                   payment.UserID,
		"investments.investmentId": payment.CicilanOrderID,
	}).Decode(&investor)
	if err != nil {
		subSteps["plantInstance"] = "failed: investor entry not found for this plan"
		subSteps["investorUpdate"] = "failed: investor entry not found for this plan"
		return fmt.Errorf("investor entry missing for plan %s", payment.CicilanOrderID)
	}

	plantType := utils.GetPlantType(payment.ProductName)
	instance := models.PlantInstance{
		ID:               primitive.NewObjectID(),
		ContractNumber:   payment.CicilanOrderID,
		UserID:           payment.UserID,
		PlantType:        plantType,
		InstanceName:     fmt.Sprintf("%s - %s", payment.ProductName, payment.CicilanOrderID),
		TreeCount:        utils.ParseTreeCount(payment.ProductName),
		BaseAnnualROI:    utils.GetBaseROI(plantType),
		Status:           models.PlantStatusKontrakBaru,
		OperationalCosts: []models.OperationalCost{},
		IncomeRecords:    []models.IncomeRecord{},
		History: []models.HistoryEntry{{
			Action:      "created",
			Notes:       "Allocated on first installment approval",
			PerformedBy: "system",
			PerformedAt: now,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}

	treeCount := instance.TreeCount
	plantInstanceID := &instance.ID
	_, err = rc.DB.Collection("plant_instances").InsertOne(ctx, instance)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Re-approval after a partial failure: reuse the existing instance.
			var existing models.PlantInstance
			if findErr := rc.DB.Collection("plant_instances").FindOne(ctx,
				bson.M{"contractNumber": payment.CicilanOrderID}).Decode(&existing); findErr == nil {
				plantInstanceID = &existing.ID
				treeCount = existing.TreeCount
				subSteps["plantInstance"] = "already allocated"
			} else {
				subSteps["plantInstance"] = "failed: " + findErr.Error()
				plantInstanceID = nil
			}
		} else {
			subSteps["plantInstance"] = "failed: " + err.Error()
			plantInstanceID = nil
		}
	} else {
		subSteps["plantInstance"] = "allocated " + instance.ID.Hex()
	}

	set := bson.M{
		"investments.$.status": models.InvestmentActive,
		"updatedAt":            now,
	}
	inc := bson.M{
		"totalPaid":                payment.Amount,
		"investments.$.amountPaid": payment.Amount,
	}
	// Trees are only counted once an instance actually backs them
	if plantInstanceID != nil {
		set["investments.$.plantInstanceId"] = *plantInstanceID
		inc["jumlahPohon"] = treeCount
	}

	_, err = rc.DB.Collection("investors").UpdateOne(ctx,
		bson.M{"userId": payment.UserID, "investments.investmentId": payment.CicilanOrderID},
		bson.M{"$set": set, "$inc": inc},
	)
	if err != nil {
		subSteps["investorUpdate"] = "failed: " + err.Error()
		return fmt.Errorf("failed to activate investment: %w", err)
	}
	subSteps["investorUpdate"] = "activated"

	rc.markInstallmentPaid(ctx, payment, subSteps)
	return nil
}

// bookInstallment records an approved non-first installment against the
// investor aggregate.
func (rc *ReviewController) bookInstallment(ctx context.Context, payment *models.Payment, subSteps map[string]string) {
	_, err := rc.DB.Collection("investors").UpdateOne(ctx,
		bson.M{"userId": payment.UserID, "investments.investmentId": payment.CicilanOrderID},
		bson.M{
			"$inc": bson.M{
				"totalPaid":                payment.Amount,
				"investments.$.amountPaid": payment.Amount,
			},
			"$set": bson.M{"updatedAt": time.Now()},
		},
	)
	if err != nil {
		subSteps["investorUpdate"] = "failed: " + err.Error()
		log.Printf("Failed to book installment %s: %v", payment.OrderID, err)
		return
	}
	subSteps["investorUpdate"] = "booked"

	rc.markInstallmentPaid(ctx, payment, subSteps)
}

// markInstallmentPaid flips the mirrored schedule entry to paid
func (rc *ReviewController) markInstallmentPaid(ctx context.Context, payment *models.Payment, subSteps map[string]string) {
	now := time.Now()
	opts := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{
			bson.M{"inv.investmentId": payment.CicilanOrderID},
			bson.M{"inst.installmentNumber": payment.InstallmentNumber},
		},
	})

	_, err := rc.DB.Collection("investors").UpdateOne(ctx,
		bson.M{"userId": payment.UserID},
		bson.M{"$set": bson.M{
			"investments.$[inv].installments.$[inst].isPaid":        true,
			"investments.$[inv].installments.$[inst].paidDate":      now,
			"investments.$[inv].installments.$[inst].proofImageUrl": payment.ProofImageURL,
			"updatedAt": now,
		}},
		opts,
	)
	if err != nil {
		subSteps["scheduleMirror"] = "failed: " + err.Error()
		log.Printf("Failed to mark mirrored installment paid for %s: %v", payment.OrderID, err)
		return
	}
	subSteps["scheduleMirror"] = "marked paid"
}
