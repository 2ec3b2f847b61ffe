package controllers

import (
	"context"
	"fmt"
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
)

// registrationFee is the one-time fee charged before an account is created
const registrationFee = 100000

// AuthController handles login, member registration and staff management
type AuthController struct {
	DB      *mongo.Database
	gateway *services.MidtransService
}

// NewAuthController creates a new auth controller
func NewAuthController(db *mongo.Database, gateway *services.MidtransService) *AuthController {
	return &AuthController{DB: db, gateway: gateway}
}

// Login authenticates a user and returns a JWT
func (ac *AuthController) Login(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.LoginRequest
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

	var user models.User
	err := ac.DB.Collection("users").FindOne(ctx, bson.M{"email": req.Email}).Decode(&user)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid email or password",
		})
	}

	if !utils.CheckPassword(user.Password, req.Password) {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid email or password",
		})
	}

	if !user.IsActive {
		return c.JSON(http.StatusForbidden, models.Response{
			Status:  http.StatusForbidden,
			Message: "Account is deactivated",
		})
	}

	token, err := middleware.GenerateJWT(user.ID.Hex(), user.Email, user.Role)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate token",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Login successful",
		Data: map[string]interface{}{
			"token": token,
			"user": map[string]interface{}{
				"id":           user.ID.Hex(),
				"email":        user.Email,
				"fullName":     user.FullName,
				"role":         user.Role,
				"referralCode": user.ReferralCode,
			},
		},
	})
}

// Register starts the registration flow: no account is created yet. A
// registration-fee payment record and a gateway redirect URL are returned;
// the webhook creates the account once the fee settles.
func (ac *AuthController) Register(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.RegistrationRequest
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

	count, err := ac.DB.Collection("users").CountDocuments(ctx, bson.M{"email": req.Email})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to check existing accounts",
		})
	}
	if count > 0 {
		return c.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: "An account with this email already exists",
		})
	}

	orderID := utils.GenerateRegistrationOrderID()
	now := time.Now()
	payment := models.Payment{
		ID:            primitive.NewObjectID(),
		OrderID:       orderID,
		Amount:        registrationFee,
		PaymentType:   models.PaymentRegistration,
		ReferralCode:  req.ReferralCode,
		CustomerEmail: req.Email,
		CustomerName:  req.FullName,
		CustomerPhone: req.Phone,
		AdminStatus:   models.AdminStatusPending,
		Status:        models.TransactionPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if _, err := ac.DB.Collection("payments").InsertOne(ctx, payment); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create registration payment",
		})
	}

	redirectURL, err := ac.gateway.CreateTransaction(orderID, registrationFee,
		req.FullName, req.Email, req.Phone, "Biaya Pendaftaran Anggota")
	if err != nil {
		return c.JSON(http.StatusBadGateway, models.Response{
			Status:  http.StatusBadGateway,
			Message: "Payment gateway is unavailable, please try again",
		})
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Registration started, complete the payment to activate your account",
		Data: map[string]interface{}{
			"orderId":    orderID,
			"amount":     registrationFee,
			"paymentUrl": redirectURL,
		},
	})
}

// CreateStaffRequest is the admin payload for creating staff accounts
type CreateStaffRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	FullName string `json:"fullName" validate:"required"`
	Phone    string `json:"phone,omitempty"`
	Role     string `json:"role" validate:"required,oneof=admin finance marketing marketing_head"`
}

// CreateStaff creates an admin/finance/marketing account. Marketing roles
// get a referral code generated at creation.
func (ac *AuthController) CreateStaff(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req CreateStaffRequest
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

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to hash password",
		})
	}

	referralCode := ""
	switch req.Role {
	case models.RoleMarketing:
		referralCode, err = utils.GenerateReferralCode(utils.MarketingType)
	case models.RoleMarketingHead:
		referralCode, err = utils.GenerateReferralCode(utils.MarketingHeadType)
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate referral code",
		})
	}

	now := time.Now()
	user := models.User{
		ID:           primitive.NewObjectID(),
		Email:        req.Email,
		Password:     hashed,
		FullName:     req.FullName,
		Phone:        req.Phone,
		Role:         req.Role,
		ReferralCode: referralCode,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := ac.DB.Collection("users").InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return c.JSON(http.StatusConflict, models.Response{
				Status:  http.StatusConflict,
				Message: "An account with this email already exists",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create staff account",
		})
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: fmt.Sprintf("Staff account created with role %s", req.Role),
		Data: map[string]interface{}{
			"id":           user.ID.Hex(),
			"email":        user.Email,
			"role":         user.Role,
			"referralCode": user.ReferralCode,
		},
	})
}

// UpdateFCMToken stores the device token used for push notifications
func (ac *AuthController) UpdateFCMToken(c echo.Context) error {
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

	var req struct {
		FCMToken string `json:"fcmToken" validate:"required"`
	}
	if err := c.Bind(&req); err != nil || req.FCMToken == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "FCM token is required",
		})
	}

	_, err = ac.DB.Collection("users").UpdateOne(ctx,
		bson.M{"_id": userObjID},
		bson.M{"$set": bson.M{"fcmToken": req.FCMToken, "updatedAt": time.Now()}},
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update FCM token",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "FCM token updated",
	})
}
