package controllers

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image/png"
	"net/http"
	"os"
	"time"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tanamvest/tanamvest_backend/middleware"
	"github.com/tanamvest/tanamvest_backend/models"
	"github.com/tanamvest/tanamvest_backend/services"
)

// CommissionController exposes the marketing commission surface: staff view
// their own ledger and referral QR, finance manages codes and recalculation.
type CommissionController struct {
	DB          *mongo.Database
	commissions *services.CommissionService
}

// NewCommissionController creates a new commission controller
func NewCommissionController(db *mongo.Database, commissions *services.CommissionService) *CommissionController {
	return &CommissionController{DB: db, commissions: commissions}
}

// GetMyCommissions returns the authenticated staff member's commission
// ledger and running total.
func (cc *CommissionController) GetMyCommissions(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}
	staffID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid user ID",
		})
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := cc.DB.Collection("commission_history").Find(ctx, bson.M{"marketingStaffId": staffID}, opts)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve commissions",
		})
	}
	defer cursor.Close(ctx)

	var records []models.CommissionHistory
	if err = cursor.All(ctx, &records); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to decode commissions",
		})
	}

	var total float64
	for _, r := range records {
		total += r.CommissionAmount
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Commissions retrieved successfully",
		Data: map[string]interface{}{
			"totalCommission": total,
			"records":         records,
		},
	})
}

// GetMyReferralQR returns a base64 PNG QR code encoding the staff member's
// referral signup link, for printed marketing material.
func (cc *CommissionController) GetMyReferralQR(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}
	staffID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid user ID",
		})
	}

	var staff models.User
	err = cc.DB.Collection("users").FindOne(ctx, bson.M{"_id": staffID}).Decode(&staff)
	if err != nil {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "User not found",
		})
	}
	if staff.ReferralCode == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Account has no referral code",
		})
	}

	baseURL := os.Getenv("APP_BASE_URL")
	if baseURL == "" {
		baseURL = "https://tanamvest.id"
	}
	referralURL := fmt.Sprintf("%s/register?ref=%s", baseURL, staff.ReferralCode)

	qrCode, err := qr.Encode(referralURL, qr.M, qr.Auto)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate QR code",
		})
	}
	qrCode, err = barcode.Scale(qrCode, 256, 256)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to scale QR code",
		})
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, qrCode); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to encode QR image",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Referral QR generated",
		Data: map[string]interface{}{
			"referralCode": staff.ReferralCode,
			"referralUrl":  referralURL,
			"qrImage":      "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
		},
	})
}

// ListCommissions lets finance browse all commission records, optionally
// filtered by staff member.
func (cc *CommissionController) ListCommissions(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filter := bson.M{}
	if staffIDHex := c.QueryParam("staffId"); staffIDHex != "" {
		staffID, err := primitive.ObjectIDFromHex(staffIDHex)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Invalid staff ID",
			})
		}
		filter["marketingStaffId"] = staffID
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := cc.DB.Collection("commission_history").Find(ctx, filter, opts)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve commissions",
		})
	}
	defer cursor.Close(ctx)

	var records []models.CommissionHistory
	if err = cursor.All(ctx, &records); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to decode commissions",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Commissions retrieved successfully",
		Data:    records,
	})
}

// RecalculateForStaff re-derives any missing commissions for one staff
// member from their payment history. Safe to run repeatedly.
func (cc *CommissionController) RecalculateForStaff(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	staffID, err := primitive.ObjectIDFromHex(c.Param("staffId"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid staff ID",
		})
	}

	result, err := cc.commissions.RecalculateCommissionsForStaff(ctx, staffID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: err.Error(),
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Recalculation complete",
		Data:    result,
	})
}

// ReassignReferralCode moves a staff member to a new referral code,
// optionally transferring their payment and commission history to it.
func (cc *CommissionController) ReassignReferralCode(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var req models.ReassignReferralCodeRequest
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

	staffID, err := primitive.ObjectIDFromHex(req.StaffID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid staff ID",
		})
	}

	if err := cc.commissions.ReassignReferralCode(ctx, staffID, req.NewReferralCode, req.TransferHistory); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: err.Error(),
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Referral code reassigned",
		Data: map[string]interface{}{
			"staffId":            req.StaffID,
			"newReferralCode":    req.NewReferralCode,
			"historyTransferred": req.TransferHistory,
		},
	})
}
