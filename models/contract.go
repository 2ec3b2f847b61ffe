package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Contract status values. Transitions are validated through CanTransition
// so that every handler rejects illegal moves the same way.
const (
	ContractStatusDraft               = "draft"
	ContractStatusSigned              = "signed"
	ContractStatusApproved            = "approved"
	ContractStatusPaid                = "paid"
	ContractStatusPermanentlyRejected = "permanently_rejected"
)

// Admin approval status values, distinct from the contract status itself
const (
	AdminApprovalPending             = "pending"
	AdminApprovalApproved            = "approved"
	AdminApprovalRejected            = "rejected"
	AdminApprovalPermanentlyRejected = "permanently_rejected"
)

// Payment plan types
const (
	PaymentTypeFull    = "full"
	PaymentTypeCicilan = "cicilan"
)

// contractTransitions is the single source of truth for legal status moves.
var contractTransitions = map[string][]string{
	ContractStatusDraft:    {ContractStatusSigned},
	ContractStatusSigned:   {ContractStatusSigned, ContractStatusApproved, ContractStatusPermanentlyRejected},
	ContractStatusApproved: {ContractStatusPaid},
	// paid and permanently_rejected are terminal
	ContractStatusPaid:                {},
	ContractStatusPermanentlyRejected: {},
}

// CanTransition reports whether a contract may move from one status to another.
func CanTransition(from, to string) bool {
	for _, next := range contractTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminalContractStatus reports whether no further transitions exist.
func IsTerminalContractStatus(status string) bool {
	return len(contractTransitions[status]) == 0
}

// SignOutcome is the decision of the signature guard for one attempt
type SignOutcome int

const (
	SignAllowed SignOutcome = iota
	SignRejectedPermanently
	SignAlreadyProcessed
	SignAttemptsExhausted
)

// EvaluateSignAttempt applies the signature guard: permanently rejected
// contracts never accept attempts, neither do approved or paid ones, and
// exhausting the attempt cap permanently rejects the contract. Only after
// those gates does the transition table decide.
func EvaluateSignAttempt(status string, currentAttempt, maxAttempts int) SignOutcome {
	switch status {
	case ContractStatusPermanentlyRejected:
		return SignRejectedPermanently
	case ContractStatusApproved, ContractStatusPaid:
		return SignAlreadyProcessed
	}
	if currentAttempt >= maxAttempts {
		return SignAttemptsExhausted
	}
	if !CanTransition(status, ContractStatusSigned) {
		return SignAlreadyProcessed
	}
	return SignAllowed
}

// SignatureAttempt is one entry in the append-only signature history
type SignatureAttempt struct {
	Attempt       int        `json:"attempt" bson:"attempt"`
	SignatureData string     `json:"signatureData" bson:"signatureData"`
	SignedAt      time.Time  `json:"signedAt" bson:"signedAt"`
	IsRetry       bool       `json:"isRetry" bson:"isRetry"`
	ReviewedBy    string     `json:"reviewedBy,omitempty" bson:"reviewedBy,omitempty"`
	ReviewedAt    *time.Time `json:"reviewedAt,omitempty" bson:"reviewedAt,omitempty"`
}

// Contract represents one purchase agreement between a member and the
// cooperative. Never physically deleted.
type Contract struct {
	ID                primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	ContractID        string             `json:"contractId" bson:"contractId"`
	UserID            primitive.ObjectID `json:"userId" bson:"userId"`
	ProductID         string             `json:"productId" bson:"productId"`
	ProductName       string             `json:"productName" bson:"productName"`
	TotalAmount       float64            `json:"totalAmount" bson:"totalAmount"`
	PaymentType       string             `json:"paymentType" bson:"paymentType"` // full | cicilan
	PaymentTerm       string             `json:"paymentTerm,omitempty" bson:"paymentTerm,omitempty"`
	TotalInstallments int                `json:"totalInstallments,omitempty" bson:"totalInstallments,omitempty"`
	InstallmentAmount float64            `json:"installmentAmount,omitempty" bson:"installmentAmount,omitempty"`
	PaymentURL        string             `json:"paymentUrl,omitempty" bson:"paymentUrl,omitempty"` // full payment only
	ReferralCode      string             `json:"referralCode,omitempty" bson:"referralCode,omitempty"`

	Status              string             `json:"status" bson:"status"`
	AdminApprovalStatus string             `json:"adminApprovalStatus" bson:"adminApprovalStatus"`
	SignatureAttempts   []SignatureAttempt `json:"signatureAttempts" bson:"signatureAttempts"`
	CurrentAttempt      int                `json:"currentAttempt" bson:"currentAttempt"`
	MaxAttempts         int                `json:"maxAttempts" bson:"maxAttempts"`
	PaymentAllowed      bool               `json:"paymentAllowed" bson:"paymentAllowed"`
	PaymentCompleted    bool               `json:"paymentCompleted" bson:"paymentCompleted"`
	StampedDocumentURL  string             `json:"stampedDocumentUrl,omitempty" bson:"stampedDocumentUrl,omitempty"`

	AdminReviewBy   string     `json:"adminReviewBy,omitempty" bson:"adminReviewBy,omitempty"`
	AdminReviewDate *time.Time `json:"adminReviewDate,omitempty" bson:"adminReviewDate,omitempty"`
	AdminNotes      string     `json:"adminNotes,omitempty" bson:"adminNotes,omitempty"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// CreateContractRequest is the payload for contract creation
type CreateContractRequest struct {
	ProductID    string  `json:"productId" validate:"required"`
	ProductName  string  `json:"productName" validate:"required"`
	TotalAmount  float64 `json:"totalAmount" validate:"required,gt=0"`
	PaymentType  string  `json:"paymentType" validate:"required,oneof=full cicilan"`
	PaymentTerm  string  `json:"paymentTerm,omitempty" validate:"omitempty,oneof=monthly quarterly semiannual annual"`
	ReferralCode string  `json:"referralCode,omitempty"`
}

// SignContractRequest is the payload for a signature attempt
type SignContractRequest struct {
	SignatureData string `json:"signatureData" validate:"required"`
	IsRetry       bool   `json:"isRetry"`
}

// ContractReviewRequest is the admin approve/reject payload
type ContractReviewRequest struct {
	Action string `json:"action" validate:"required,oneof=approve reject"`
	Notes  string `json:"notes,omitempty"`
}
