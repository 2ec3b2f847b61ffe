package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CommissionHistory records one referral commission per eligible payment.
// The unique index on paymentId is what makes commission creation
// idempotent: a second attempt for the same payment is a no-op.
type CommissionHistory struct {
	ID               primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	PaymentID        primitive.ObjectID `json:"paymentId" bson:"paymentId"`
	OrderID          string             `json:"orderId" bson:"orderId"`
	MarketingStaffID primitive.ObjectID `json:"marketingStaffId" bson:"marketingStaffId"`
	ReferralCodeUsed string             `json:"referralCodeUsed" bson:"referralCodeUsed"`
	ContractValue    float64            `json:"contractValue" bson:"contractValue"`
	CommissionRate   float64            `json:"commissionRate" bson:"commissionRate"`
	CommissionAmount float64            `json:"commissionAmount" bson:"commissionAmount"`
	Paid             bool               `json:"paid" bson:"paid"`
	PaidAt           *time.Time         `json:"paidAt,omitempty" bson:"paidAt,omitempty"`
	CreatedAt        time.Time          `json:"createdAt" bson:"createdAt"`
}

// ReassignReferralCodeRequest moves a marketing staff member to a new code,
// optionally rewriting historical payments and commission records.
type ReassignReferralCodeRequest struct {
	StaffID         string `json:"staffId" validate:"required"`
	NewReferralCode string `json:"newReferralCode" validate:"required"`
	TransferHistory bool   `json:"transferHistory"`
}
