package controllers

import (
	"context"
	"io"
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
	"github.com/tanamvest/tanamvest_backend/services"
	"github.com/tanamvest/tanamvest_backend/utils"
	"github.com/tanamvest/tanamvest_backend/websocket"
)

// CicilanController handles installment plans: starting a plan from a
// signed contract and submitting payment proofs for review.
type CicilanController struct {
	DB  *mongo.Database
	hub *websocket.Hub
}

// NewCicilanController creates a new cicilan controller
func NewCicilanController(db *mongo.Database, hub *websocket.Hub) *CicilanController {
	return &CicilanController{DB: db, hub: hub}
}

// CreateCicilan starts the installment plan for a signed cicilan contract.
// Only the first installment's payment record is created here; later
// records are generated one at a time as approvals land.
func (cic *CicilanController) CreateCicilan(c echo.Context) error {
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

	var req models.CreateCicilanRequest
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

	var contract models.Contract
	err = cic.DB.Collection("contracts").FindOne(ctx, bson.M{
		"contractId": req.ContractID,
		"userId":     userObjID,
	}).Decode(&contract)
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

	if contract.PaymentType != models.PaymentTypeCicilan {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Contract is not an installment contract",
		})
	}
	if contract.Status != models.ContractStatusSigned && contract.Status != models.ContractStatusApproved {
		return c.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: "Contract must be signed before starting installments",
		})
	}

	payments := cic.DB.Collection("payments")
	existing, err := payments.CountDocuments(ctx, bson.M{"cicilanOrderId": contract.ContractID})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to check existing installments",
		})
	}
	if existing > 0 {
		return c.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: "Installment plan already started for this contract",
		})
	}

	now := time.Now()
	schedule, err := services.BuildSchedule(contract.TotalAmount, contract.PaymentTerm, now)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: err.Error(),
		})
	}
	totalInstallments := len(schedule)
	installmentAmount := schedule[0].Amount

	firstDue := schedule[0].DueDate
	firstPayment := models.Payment{
		ID:                primitive.NewObjectID(),
		OrderID:           contract.ContractID + "-1",
		UserID:            userObjID,
		Amount:            installmentAmount,
		PaymentType:       models.PaymentCicilanInstallment,
		CicilanOrderID:    contract.ContractID,
		InstallmentNumber: 1,
		TotalInstallments: totalInstallments,
		InstallmentAmount: installmentAmount,
		PaymentTerm:       contract.PaymentTerm,
		DueDate:           &firstDue,
		ProductName:       contract.ProductName,
		ReferralCode:      contract.ReferralCode,
		AdminStatus:       models.AdminStatusPending,
		Status:            models.AdminStatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	_, err = payments.InsertOne(ctx, firstPayment)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return c.JSON(http.StatusConflict, models.Response{
				Status:  http.StatusConflict,
				Message: "Installment plan already started for this contract",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create first installment",
		})
	}

	entry := models.NewInvestment(contract.ContractID, contract.ProductName, contract.TotalAmount, contract.PaymentType, schedule, now)
	if err := services.EnsureInvestmentEntry(ctx, cic.DB, contract.UserID, entry); err != nil {
		log.Printf("Failed to upsert investor entry for contract %s: %v", contract.ContractID, err)
	}

	_, err = cic.DB.Collection("contracts").UpdateOne(ctx,
		bson.M{"contractId": contract.ContractID},
		bson.M{"$set": bson.M{
			"totalInstallments": totalInstallments,
			"installmentAmount": installmentAmount,
			"updatedAt":         now,
		}},
	)
	if err != nil {
		log.Printf("Failed to update contract %s with installment terms: %v", contract.ContractID, err)
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Installment plan created successfully",
		Data: map[string]interface{}{
			"firstPayment":      firstPayment,
			"totalInstallments": totalInstallments,
			"installmentAmount": installmentAmount,
			"schedule":          schedule,
		},
	})
}

// SubmitProof attaches a proof-of-payment image to a pending installment
func (cic *CicilanController) SubmitProof(c echo.Context) error {
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

	orderID := c.Param("orderId")
	if orderID == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Order ID is required",
		})
	}

	payments := cic.DB.Collection("payments")
	var payment models.Payment
	err = payments.FindOne(ctx, bson.M{"orderId": orderID, "userId": userObjID}).Decode(&payment)
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

	switch models.GateProofSubmission(payment.AdminStatus, payment.ProofImageURL) {
	case models.ProofAlreadyApproved:
		return c.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: "Payment is already approved",
		})
	case models.ProofPendingReview:
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "There is already a pending submission for this installment",
		})
	}

	fileHeader, err := c.FormFile("proof")
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Proof image is required",
		})
	}

	src, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to open uploaded file",
		})
	}
	defer src.Close()

	fileData, err := io.ReadAll(src)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to read uploaded file",
		})
	}

	proofURL, err := utils.SaveProofImage(fileData, fileHeader.Filename)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: err.Error(),
		})
	}

	now := time.Now()
	_, err = payments.UpdateOne(ctx,
		bson.M{"orderId": orderID},
		bson.M{"$set": bson.M{
			"proofImageUrl": proofURL,
			"adminStatus":   models.AdminStatusPending,
			"status":        models.AdminStatusPending,
			"updatedAt":     now,
		}},
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to save proof",
		})
	}

	// Mirror the proof into the investor's embedded installment entry
	if payment.CicilanOrderID != "" {
		mirrorOpts := options.Update().SetArrayFilters(options.ArrayFilters{
			Filters: []interface{}{
				bson.M{"inv.investmentId": payment.CicilanOrderID},
				bson.M{"inst.installmentNumber": payment.InstallmentNumber},
			},
		})
		_, mirrorErr := cic.DB.Collection("investors").UpdateOne(ctx,
			bson.M{"userId": userObjID},
			bson.M{"$set": bson.M{
				"investments.$[inv].installments.$[inst].proofImageUrl": proofURL,
				"updatedAt": now,
			}},
			mirrorOpts,
		)
		if mirrorErr != nil {
			log.Printf("Failed to mirror proof for %s: %v", payment.CicilanOrderID, mirrorErr)
		}
	}

	cic.hub.NotifyProofSubmitted(map[string]interface{}{
		"orderId":           orderID,
		"installmentNumber": payment.InstallmentNumber,
		"amount":            payment.Amount,
	})

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Proof submitted successfully, awaiting admin review",
		Data: map[string]interface{}{
			"orderId":       orderID,
			"proofImageUrl": proofURL,
		},
	})
}

// GetMyInstallments lists the authenticated user's installment payments
func (cic *CicilanController) GetMyInstallments(c echo.Context) error {
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

	filter := bson.M{"userId": userObjID, "paymentType": models.PaymentCicilanInstallment}
	if cicilanOrderID := c.QueryParam("cicilanOrderId"); cicilanOrderID != "" {
		filter["cicilanOrderId"] = cicilanOrderID
	}

	cursor, err := cic.DB.Collection("payments").Find(ctx, filter)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve installments",
		})
	}
	defer cursor.Close(ctx)

	var installments []models.Payment
	if err = cursor.All(ctx, &installments); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to decode installments",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Installments retrieved successfully",
		Data:    installments,
	})
}
