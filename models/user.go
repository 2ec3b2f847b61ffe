package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User roles
const (
	RoleUser          = "user"
	RoleAdmin         = "admin"
	RoleFinance       = "finance"
	RoleMarketing     = "marketing"
	RoleMarketingHead = "marketing_head"
)

// User represents an account in the cooperative: investors, admins,
// finance staff and marketing staff all live in the same collection.
type User struct {
	ID           primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Email        string             `json:"email" bson:"email"`
	Password     string             `json:"-" bson:"password"`
	FullName     string             `json:"fullName" bson:"fullName"`
	Phone        string             `json:"phone,omitempty" bson:"phone,omitempty"`
	Role         string             `json:"role" bson:"role"`
	ReferralCode string             `json:"referralCode,omitempty" bson:"referralCode,omitempty"` // marketing staff only
	FCMToken     string             `json:"fcmToken,omitempty" bson:"fcmToken,omitempty"`
	IsActive     bool               `json:"isActive" bson:"isActive"`
	CreatedAt    time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// LoginRequest is the payload for the login endpoint
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegistrationRequest starts the registration-fee payment flow for a new member
type RegistrationRequest struct {
	Email        string `json:"email" validate:"required,email"`
	FullName     string `json:"fullName" validate:"required"`
	Phone        string `json:"phone" validate:"required"`
	ReferralCode string `json:"referralCode,omitempty"`
}

// Response model
type Response struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Notification represents an in-app notification document
type Notification struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserID    primitive.ObjectID `json:"userId" bson:"userId"`
	Title     string             `json:"title" bson:"title"`
	Message   string             `json:"message" bson:"message"`
	Type      string             `json:"type" bson:"type"`
	Data      interface{}        `json:"data,omitempty" bson:"data,omitempty"`
	IsRead    bool               `json:"isRead" bson:"isRead"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}
