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

	"github.com/tanamvest/tanamvest_backend/middleware"
	"github.com/tanamvest/tanamvest_backend/models"
	"github.com/tanamvest/tanamvest_backend/services"
	"github.com/tanamvest/tanamvest_backend/utils"
	"github.com/tanamvest/tanamvest_backend/websocket"
)

// Signature attempt cap and the contract-creation spam guard window
const (
	maxSignatureAttempts = 3
	spamGuardWindow      = 5 * time.Minute
	spamGuardMaxCreates  = 3
)

// ContractController handles the contract lifecycle: creation, signature
// attempts, and admin approval.
type ContractController struct {
	DB          *mongo.Database
	gateway     *services.MidtransService
	estamp      *services.EStampService
	finalizer   *services.FullInvestmentFinalizer
	hub         *websocket.Hub
	maxAttempts int
}

// NewContractController creates a new contract controller
func NewContractController(db *mongo.Database, gateway *services.MidtransService, estamp *services.EStampService, commissions *services.CommissionService, hub *websocket.Hub) *ContractController {
	return &ContractController{
		DB:          db,
		gateway:     gateway,
		estamp:      estamp,
		finalizer:   services.NewFullInvestmentFinalizer(db, estamp, commissions),
		hub:         hub,
		maxAttempts: maxSignatureAttempts,
	}
}

// CreateContract creates a new purchase agreement in draft state
func (cc *ContractController) CreateContract(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}
	userObjID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid user ID",
		})
	}

	var req models.CreateContractRequest
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
	if req.PaymentType == models.PaymentTypeCicilan && req.PaymentTerm == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Payment term is required for installment contracts",
		})
	}

	contracts := cc.DB.Collection("contracts")

	// Spam guard: count-then-insert, not atomic. Concurrent requests from
	// the same user can slip past; the per-IP rate limiter narrows the gap.
	recentCount, err := contracts.CountDocuments(ctx, bson.M{
		"userId":    userObjID,
		"createdAt": bson.M{"$gte": time.Now().Add(-spamGuardWindow)},
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to check recent contracts",
		})
	}
	if recentCount >= spamGuardMaxCreates {
		return c.JSON(http.StatusTooManyRequests, models.Response{
			Status:  http.StatusTooManyRequests,
			Message: "Too many contracts created recently. Please wait a few minutes.",
		})
	}

	contractID := utils.GenerateInvoiceNumber(req.ProductName, req.PaymentType)
	now := time.Now()

	contract := models.Contract{
		ID:                  primitive.NewObjectID(),
		ContractID:          contractID,
		UserID:              userObjID,
		ProductID:           req.ProductID,
		ProductName:         req.ProductName,
		TotalAmount:         req.TotalAmount,
		PaymentType:         req.PaymentType,
		PaymentTerm:         req.PaymentTerm,
		ReferralCode:        req.ReferralCode,
		Status:              models.ContractStatusDraft,
		AdminApprovalStatus: models.AdminApprovalPending,
		SignatureAttempts:   []models.SignatureAttempt{},
		CurrentAttempt:      0,
		MaxAttempts:         cc.maxAttempts,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if req.PaymentType == models.PaymentTypeCicilan {
		count, amount, err := services.PlanInstallments(req.TotalAmount, req.PaymentTerm)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: err.Error(),
			})
		}
		contract.TotalInstallments = count
		contract.InstallmentAmount = amount
	}

	// Full payments get a gateway redirect URL up front. Gateway failure is
	// not fatal: the contract is still created and the URL can be fetched
	// again later.
	if req.PaymentType == models.PaymentTypeFull {
		var user models.User
		if err := cc.DB.Collection("users").FindOne(ctx, bson.M{"_id": userObjID}).Decode(&user); err == nil {
			redirectURL, gwErr := cc.gateway.CreateTransaction(contractID, req.TotalAmount, user.FullName, user.Email, user.Phone, req.ProductName)
			if gwErr != nil {
				log.Printf("Gateway transaction failed for contract %s: %v", contractID, gwErr)
			} else {
				contract.PaymentURL = redirectURL
			}
		} else {
			log.Printf("Failed to load user %s for gateway call: %v", userID, err)
		}
	}

	_, err = contracts.InsertOne(ctx, contract)
	if err == nil && req.PaymentType == models.PaymentTypeFull {
		// The webhook resolves settlements by order id, so the payment
		// record must exist before the gateway can call back.
		payment := models.Payment{
			ID:           primitive.NewObjectID(),
			OrderID:      contractID,
			UserID:       userObjID,
			Amount:       req.TotalAmount,
			PaymentType:  models.PaymentFullInvestment,
			ProductName:  req.ProductName,
			ReferralCode: req.ReferralCode,
			AdminStatus:  models.AdminStatusPending,
			Status:       models.TransactionPending,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if _, pErr := cc.DB.Collection("payments").InsertOne(ctx, payment); pErr != nil {
			log.Printf("Failed to create payment record for contract %s: %v", contractID, pErr)
		}

		// The settlement finalizer activates the portfolio entry by matching
		// on investmentId, so it has to exist from day one.
		entry := models.NewInvestment(contractID, req.ProductName, req.TotalAmount, models.PaymentTypeFull, nil, now)
		if iErr := services.EnsureInvestmentEntry(ctx, cc.DB, userObjID, entry); iErr != nil {
			log.Printf("Failed to create investor entry for contract %s: %v", contractID, iErr)
		}
	}
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return c.JSON(http.StatusConflict, models.Response{
				Status:  http.StatusConflict,
				Message: "Contract ID collision, please retry",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create contract",
		})
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Contract created successfully",
		Data:    contract,
	})
}

// SignContract records a signature attempt on a contract
func (cc *ContractController) SignContract(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}
	userObjID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid user ID",
		})
	}

	contractID := c.Param("contractId")
	if contractID == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Contract ID is required",
		})
	}

	var req models.SignContractRequest
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

	contracts := cc.DB.Collection("contracts")
	var contract models.Contract
	err = contracts.FindOne(ctx, bson.M{"contractId": contractID, "userId": userObjID}).Decode(&contract)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Contract not found",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to find contract",
		})
	}

	switch models.EvaluateSignAttempt(contract.Status, contract.CurrentAttempt, contract.MaxAttempts) {
	case models.SignRejectedPermanently:
		return c.JSON(http.StatusForbidden, models.Response{
			Status:  http.StatusForbidden,
			Message: "Contract is permanently rejected",
			Data:    map[string]interface{}{"canRetry": false},
		})
	case models.SignAlreadyProcessed:
		return c.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: fmt.Sprintf("Contract cannot be signed from status %q", contract.Status),
			Data:    map[string]interface{}{"canRetry": false},
		})
	case models.SignAttemptsExhausted:
		// Exhausting the attempt cap permanently rejects the contract.
		_, updErr := contracts.UpdateOne(ctx,
			bson.M{"contractId": contractID},
			bson.M{"$set": bson.M{
				"status":              models.ContractStatusPermanentlyRejected,
				"adminApprovalStatus": models.AdminApprovalPermanentlyRejected,
				"updatedAt":           time.Now(),
			}},
		)
		if updErr != nil {
			log.Printf("Failed to permanently reject contract %s: %v", contractID, updErr)
		}
		return c.JSON(http.StatusForbidden, models.Response{
			Status:  http.StatusForbidden,
			Message: fmt.Sprintf("Maximum signature attempts (%d) exceeded", contract.MaxAttempts),
			Data:    map[string]interface{}{"canRetry": false},
		})
	}

	attempt := models.SignatureAttempt{
		Attempt:       contract.CurrentAttempt + 1,
		SignatureData: req.SignatureData,
		SignedAt:      time.Now(),
		IsRetry:       req.IsRetry,
	}

	_, err = contracts.UpdateOne(ctx,
		bson.M{"contractId": contractID},
		bson.M{
			"$push": bson.M{"signatureAttempts": attempt},
			"$inc":  bson.M{"currentAttempt": 1},
			"$set": bson.M{
				"status":              models.ContractStatusSigned,
				"adminApprovalStatus": models.AdminApprovalPending,
				"updatedAt":           time.Now(),
			},
		},
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to record signature",
		})
	}

	cc.hub.NotifyContractSigned(map[string]interface{}{
		"contractId": contractID,
		"attempt":    attempt.Attempt,
	})

	remaining := contract.MaxAttempts - contract.CurrentAttempt - 1
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Contract signed successfully, awaiting admin review",
		Data: map[string]interface{}{
			"attempt":           attempt.Attempt,
			"remainingAttempts": remaining,
		},
	})
}

// ReviewContract handles admin approval or rejection of a signed contract
func (cc *ContractController) ReviewContract(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	claims := middleware.GetUserFromToken(c)

	contractID := c.Param("contractId")
	if contractID == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Contract ID is required",
		})
	}

	var req models.ContractReviewRequest
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

	contracts := cc.DB.Collection("contracts")
	var contract models.Contract
	err := contracts.FindOne(ctx, bson.M{"contractId": contractID}).Decode(&contract)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Contract not found",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to find contract",
		})
	}

	if contract.AdminApprovalStatus != models.AdminApprovalPending {
		return c.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: "Contract review is already processed",
		})
	}

	now := time.Now()

	if req.Action == "reject" {
		_, err = contracts.UpdateOne(ctx,
			bson.M{"contractId": contractID},
			bson.M{"$set": bson.M{
				"adminApprovalStatus": models.AdminApprovalRejected,
				"adminReviewBy":       claims.UserID,
				"adminReviewDate":     now,
				"adminNotes":          req.Notes,
				"updatedAt":           now,
			}},
		)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Failed to update contract",
			})
		}

		go utils.NotifyUserByEmail(cc.DB, contract.UserID,
			"Kontrak Ditolak",
			fmt.Sprintf("Kontrak %s ditolak oleh admin. Catatan: %s. Anda masih dapat menandatangani ulang.", contractID, req.Notes))

		return c.JSON(http.StatusOK, models.Response{
			Status:  http.StatusOK,
			Message: "Contract rejected",
		})
	}

	if contract.Status != models.ContractStatusSigned {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: fmt.Sprintf("Only signed contracts can be approved; contract is %q", contract.Status),
		})
	}

	// Primary mutation: flip the contract to approved. Everything after
	// this is fault-tolerant and reported through subSteps.
	update := bson.M{"$set": bson.M{
		"status":              models.ContractStatusApproved,
		"adminApprovalStatus": models.AdminApprovalApproved,
		"paymentAllowed":      true,
		"adminReviewBy":       claims.UserID,
		"adminReviewDate":     now,
		"adminNotes":          req.Notes,
		"updatedAt":           now,
	}}
	if n := len(contract.SignatureAttempts); n > 0 {
		update["$set"].(bson.M)[fmt.Sprintf("signatureAttempts.%d.reviewedBy", n-1)] = claims.UserID
		update["$set"].(bson.M)[fmt.Sprintf("signatureAttempts.%d.reviewedAt", n-1)] = now
	}

	_, err = contracts.UpdateOne(ctx, bson.M{"contractId": contractID}, update)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to approve contract",
		})
	}

	subSteps := map[string]string{}

	// (a) transition a waiting plant instance to Kontrak Baru
	res, err := cc.DB.Collection("plant_instances").UpdateOne(ctx,
		bson.M{"contractNumber": contractID, "status": models.PlantStatusPending},
		bson.M{
			"$set": bson.M{"status": models.PlantStatusKontrakBaru, "updatedAt": now},
			"$push": bson.M{"history": models.HistoryEntry{
				Action:      "contract_approved",
				Notes:       req.Notes,
				PerformedBy: claims.UserID,
				PerformedAt: now,
			}},
		},
	)
	if err != nil {
		log.Printf("Failed to transition plant instance for contract %s: %v", contractID, err)
		subSteps["plantInstance"] = "failed: " + err.Error()
	} else if res.MatchedCount == 0 {
		subSteps["plantInstance"] = "skipped: no pending instance"
	} else {
		subSteps["plantInstance"] = "ok"
	}

	// (b) mark the investor's investment entry approved
	_, err = cc.DB.Collection("investors").UpdateOne(ctx,
		bson.M{"userId": contract.UserID, "investments.investmentId": contractID},
		bson.M{"$set": bson.M{
			"investments.$.status": models.InvestmentApproved,
			"updatedAt":            now,
		}},
	)
	if err != nil {
		log.Printf("Failed to update investor entry for contract %s: %v", contractID, err)
		subSteps["investorEntry"] = "failed: " + err.Error()
	} else {
		subSteps["investorEntry"] = "ok"
	}

	// (c) settle up when the money already arrived. A full payment whose
	// settlement webhook beat this review transitions straight through to
	// paid and runs the same finalization the webhook would have.
	switch {
	case !cc.isPaymentComplete(ctx, &contract):
		subSteps["estamp"] = "skipped: payment not complete"
	case contract.PaymentType == models.PaymentTypeFull:
		_, updErr := contracts.UpdateOne(ctx,
			bson.M{"contractId": contractID},
			bson.M{"$set": bson.M{"status": models.ContractStatusPaid, "updatedAt": time.Now()}},
		)
		if updErr != nil {
			log.Printf("Failed to mark contract %s paid after approval: %v", contractID, updErr)
			subSteps["paidTransition"] = "failed: " + updErr.Error()
			break
		}
		subSteps["paidTransition"] = "ok"

		var payment models.Payment
		pErr := cc.DB.Collection("payments").FindOne(ctx, bson.M{"orderId": contractID}).Decode(&payment)
		if pErr != nil {
			log.Printf("No payment record for settled contract %s: %v", contractID, pErr)
			subSteps["finalization"] = "failed: payment record not found"
			break
		}
		for step, outcome := range cc.finalizer.FinalizePaidContract(ctx, &contract, &payment) {
			subSteps[step] = outcome
		}
	default:
		stampedURL, stampErr := cc.estamp.StampContractAfterPayment(contractID)
		if stampErr != nil {
			log.Printf("E-stamp failed for contract %s: %v", contractID, stampErr)
			subSteps["estamp"] = "failed: " + stampErr.Error()
		} else {
			_, updErr := contracts.UpdateOne(ctx,
				bson.M{"contractId": contractID},
				bson.M{"$set": bson.M{"stampedDocumentUrl": stampedURL, "updatedAt": time.Now()}},
			)
			if updErr != nil {
				log.Printf("Failed to store stamped document URL for %s: %v", contractID, updErr)
			}
			subSteps["estamp"] = "ok"
		}
	}

	// (d) approval email
	go utils.NotifyUserByEmail(cc.DB, contract.UserID,
		"Kontrak Disetujui",
		fmt.Sprintf("Kontrak %s telah disetujui. Silakan lanjutkan pembayaran.", contractID))

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Contract approved successfully",
		Data: map[string]interface{}{
			"contractId": contractID,
			"subSteps":   subSteps,
		},
	})
}

// isPaymentComplete reports whether the contract's funds already arrived:
// the paymentCompleted flag for full payments, an approved first
// installment for cicilan plans.
func (cc *ContractController) isPaymentComplete(ctx context.Context, contract *models.Contract) bool {
	if contract.PaymentType == models.PaymentTypeFull {
		return contract.PaymentCompleted
	}

	count, err := cc.DB.Collection("payments").CountDocuments(ctx, bson.M{
		"cicilanOrderId":    contract.ContractID,
		"installmentNumber": 1,
		"adminStatus":       models.AdminStatusApproved,
	})
	if err != nil {
		log.Printf("Failed to check first installment for contract %s: %v", contract.ContractID, err)
		return false
	}
	return count > 0
}

// GetMyContracts lists the authenticated user's contracts
func (cc *ContractController) GetMyContracts(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}
	userObjID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid user ID",
		})
	}

	cursor, err := cc.DB.Collection("contracts").Find(ctx, bson.M{"userId": userObjID})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve contracts",
		})
	}
	defer cursor.Close(ctx)

	var contracts []models.Contract
	if err = cursor.All(ctx, &contracts); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to decode contracts",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Contracts retrieved successfully",
		Data:    contracts,
	})
}

// GetPendingContracts lists contracts awaiting admin review
func (cc *ContractController) GetPendingContracts(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := cc.DB.Collection("contracts").Find(ctx, bson.M{
		"status":              models.ContractStatusSigned,
		"adminApprovalStatus": models.AdminApprovalPending,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve contracts",
		})
	}
	defer cursor.Close(ctx)

	var contracts []models.Contract
	if err = cursor.All(ctx, &contracts); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to decode contracts",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Pending contracts retrieved successfully",
		Data:    contracts,
	})
}
