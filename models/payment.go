package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Payment categories, one row per money-movement attempt
const (
	PaymentRegistration       = "registration"
	PaymentFullInvestment     = "full-investment"
	PaymentCicilanInstallment = "cicilan-installment"
)

// Gateway-reported transaction statuses (Midtrans vocabulary)
const (
	TransactionPending    = "pending"
	TransactionSettlement = "settlement"
	TransactionCapture    = "capture"
	TransactionDeny       = "deny"
	TransactionCancel     = "cancel"
	TransactionExpire     = "expire"
	TransactionFailure    = "failure"
)

// Manual admin review statuses
const (
	AdminStatusPending  = "pending"
	AdminStatusApproved = "approved"
	AdminStatusRejected = "rejected"
)

// Payment terms for installment plans, in months per installment
const (
	TermMonthly    = "monthly"
	TermQuarterly  = "quarterly"
	TermSemiannual = "semiannual"
	TermAnnual     = "annual"
)

// Payment is the durable record of every payment attempt: registration fee,
// full investment, or a single installment of a cicilan plan. The
// gateway-reported TransactionStatus and the manual AdminStatus are kept
// separate; admin review is the gate that moves money into the aggregates.
type Payment struct {
	ID          primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	OrderID     string             `json:"orderId" bson:"orderId"`
	UserID      primitive.ObjectID `json:"userId" bson:"userId"`
	Amount      float64            `json:"amount" bson:"amount"`
	PaymentType string             `json:"paymentType" bson:"paymentType"`

	// Cicilan fields. (cicilanOrderId, installmentNumber) is unique; the
	// next installment's document is created lazily after approval.
	CicilanOrderID    string     `json:"cicilanOrderId,omitempty" bson:"cicilanOrderId,omitempty"`
	InstallmentNumber int        `json:"installmentNumber,omitempty" bson:"installmentNumber,omitempty"`
	TotalInstallments int        `json:"totalInstallments,omitempty" bson:"totalInstallments,omitempty"`
	InstallmentAmount float64    `json:"installmentAmount,omitempty" bson:"installmentAmount,omitempty"`
	PaymentTerm       string     `json:"paymentTerm,omitempty" bson:"paymentTerm,omitempty"`
	DueDate           *time.Time `json:"dueDate,omitempty" bson:"dueDate,omitempty"`

	ProductName  string `json:"productName,omitempty" bson:"productName,omitempty"`
	ReferralCode string `json:"referralCode,omitempty" bson:"referralCode,omitempty"`

	// Registration payments are created before the user account exists;
	// the webhook uses these to create the account on settlement.
	CustomerEmail string `json:"customerEmail,omitempty" bson:"customerEmail,omitempty"`
	CustomerName  string `json:"customerName,omitempty" bson:"customerName,omitempty"`
	CustomerPhone string `json:"customerPhone,omitempty" bson:"customerPhone,omitempty"`

	TransactionID     string `json:"transactionId,omitempty" bson:"transactionId,omitempty"`
	TransactionStatus string `json:"transactionStatus,omitempty" bson:"transactionStatus,omitempty"`
	FraudStatus       string `json:"fraudStatus,omitempty" bson:"fraudStatus,omitempty"`
	GatewayMethod     string `json:"gatewayMethod,omitempty" bson:"gatewayMethod,omitempty"`

	AdminStatus     string     `json:"adminStatus" bson:"adminStatus"`
	Status          string     `json:"status" bson:"status"`
	ProofImageURL   string     `json:"proofImageUrl,omitempty" bson:"proofImageUrl,omitempty"`
	AdminReviewBy   string     `json:"adminReviewBy,omitempty" bson:"adminReviewBy,omitempty"`
	AdminReviewDate *time.Time `json:"adminReviewDate,omitempty" bson:"adminReviewDate,omitempty"`
	AdminNotes      string     `json:"adminNotes,omitempty" bson:"adminNotes,omitempty"`
	IsProcessed     bool       `json:"isProcessed" bson:"isProcessed"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// ProofGate is the decision of the proof-submission guard
type ProofGate int

const (
	ProofAccepted ProofGate = iota
	ProofAlreadyApproved
	ProofPendingReview
)

// GateProofSubmission decides whether a new proof may be attached to a
// payment: approved payments never accept one, and a pending submission
// must be reviewed before another upload replaces it.
func GateProofSubmission(adminStatus, proofImageURL string) ProofGate {
	if adminStatus == AdminStatusApproved {
		return ProofAlreadyApproved
	}
	if adminStatus == AdminStatusPending && proofImageURL != "" {
		return ProofPendingReview
	}
	return ProofAccepted
}

// SettlementComplete reports whether a gateway status means the money
// arrived: settlement, or capture that passed fraud review.
func SettlementComplete(transactionStatus, fraudStatus string) bool {
	if transactionStatus == TransactionSettlement {
		return true
	}
	return transactionStatus == TransactionCapture && fraudStatus != "challenge"
}

// CreateCicilanRequest starts the installment plan for a signed cicilan
// contract. The contract id doubles as the cicilan order id grouping all
// installments of the plan.
type CreateCicilanRequest struct {
	ContractID string `json:"contractId" validate:"required"`
}

// ReviewInstallmentRequest is the admin approve/reject payload for a payment
type ReviewInstallmentRequest struct {
	Action     string `json:"action" validate:"required,oneof=approve reject"`
	AdminNotes string `json:"adminNotes,omitempty"`
}

// GatewayNotification is the inbound webhook payload from the payment gateway
type GatewayNotification struct {
	OrderID           string `json:"order_id"`
	StatusCode        string `json:"status_code"`
	TransactionID     string `json:"transaction_id"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
	PaymentType       string `json:"payment_type"`
	TransactionTime   string `json:"transaction_time"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
}
