package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Investment statuses inside the investor aggregate
const (
	InvestmentPending   = "pending"
	InvestmentApproved  = "approved"
	InvestmentActive    = "active"
	InvestmentCompleted = "completed"
)

// InstallmentEntry is the denormalized mirror of one Payment document for a
// cicilan order. The authoritative record is the payments collection; this
// mirror is synced on each approval with no transactional guarantee.
type InstallmentEntry struct {
	InstallmentNumber int        `json:"installmentNumber" bson:"installmentNumber"`
	Amount            float64    `json:"amount" bson:"amount"`
	DueDate           time.Time  `json:"dueDate" bson:"dueDate"`
	IsPaid            bool       `json:"isPaid" bson:"isPaid"`
	PaidDate          *time.Time `json:"paidDate,omitempty" bson:"paidDate,omitempty"`
	ProofImageURL     string     `json:"proofImageUrl,omitempty" bson:"proofImageUrl,omitempty"`
}

// Investment is one entry in the investor's portfolio; InvestmentID equals
// the contract id for full payments or the cicilan order id for plans.
type Investment struct {
	InvestmentID      string              `json:"investmentId" bson:"investmentId"`
	ProductName       string              `json:"productName" bson:"productName"`
	TotalAmount       float64             `json:"totalAmount" bson:"totalAmount"`
	AmountPaid        float64             `json:"amountPaid" bson:"amountPaid"`
	PaymentType       string              `json:"paymentType" bson:"paymentType"`
	Status            string              `json:"status" bson:"status"`
	Installments      []InstallmentEntry  `json:"installments,omitempty" bson:"installments,omitempty"`
	PlantInstanceID   *primitive.ObjectID `json:"plantInstanceId,omitempty" bson:"plantInstanceId,omitempty"`
	CreatedAt         time.Time           `json:"createdAt" bson:"createdAt"`
}

// NewInvestment builds the portfolio entry for a contract. Full payments
// carry no schedule; cicilan plans embed their schedule preview. Every
// investment starts pending and is activated by review or settlement.
func NewInvestment(contractID, productName string, totalAmount float64, paymentType string, schedule []InstallmentEntry, now time.Time) Investment {
	return Investment{
		InvestmentID: contractID,
		ProductName:  productName,
		TotalAmount:  totalAmount,
		PaymentType:  paymentType,
		Status:       InvestmentPending,
		Installments: schedule,
		CreatedAt:    now,
	}
}

// Investor is the per-user rollup of all investments. Updated incrementally
// as payments are approved; not 1:1 with Payment or Contract.
type Investor struct {
	ID             primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserID         primitive.ObjectID `json:"userId" bson:"userId"`
	FullName       string             `json:"fullName" bson:"fullName"`
	TotalInvestasi float64            `json:"totalInvestasi" bson:"totalInvestasi"`
	TotalPaid      float64            `json:"totalPaid" bson:"totalPaid"`
	JumlahPohon    int                `json:"jumlahPohon" bson:"jumlahPohon"`
	Investments    []Investment       `json:"investments" bson:"investments"`
	CreatedAt      time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt" bson:"updatedAt"`
}
