package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tanamvest/tanamvest_backend/models"
)

// HorizonMonths is the fixed repayment horizon for every installment plan.
// The number of installments is derived from it, never configured directly.
const HorizonMonths = 24

// TermMonths returns the months between installments for a payment term,
// or 0 for an unknown term.
func TermMonths(term string) int {
	switch term {
	case models.TermMonthly:
		return 1
	case models.TermQuarterly:
		return 3
	case models.TermSemiannual:
		return 6
	case models.TermAnnual:
		return 12
	default:
		return 0
	}
}

// PlanInstallments computes the installment count and per-installment
// amount for a plan: ceil(horizon/months) installments of
// ceil(total/count) each.
func PlanInstallments(totalAmount float64, term string) (int, float64, error) {
	months := TermMonths(term)
	if months == 0 {
		return 0, 0, fmt.Errorf("unknown payment term: %s", term)
	}

	count := int(math.Ceil(float64(HorizonMonths) / float64(months)))
	amount := math.Ceil(totalAmount / float64(count))
	return count, amount, nil
}

// BuildSchedule returns the full due-date schedule for an installment plan.
// The first installment is due immediately; installment i is due
// (i-1)*months after start. This schedule is only the preview embedded in
// the investor aggregate: Payment documents are created lazily, one at a
// time, as each installment is approved.
func BuildSchedule(totalAmount float64, term string, start time.Time) ([]models.InstallmentEntry, error) {
	count, amount, err := PlanInstallments(totalAmount, term)
	if err != nil {
		return nil, err
	}
	months := TermMonths(term)

	schedule := make([]models.InstallmentEntry, 0, count)
	for i := 1; i <= count; i++ {
		schedule = append(schedule, models.InstallmentEntry{
			InstallmentNumber: i,
			Amount:            amount,
			DueDate:           start.AddDate(0, (i-1)*months, 0),
		})
	}
	return schedule, nil
}

// InstallmentScheduler generates the next installment's payment record
// after an approval. Generation is lazy and existence-checked: the record
// for installment k+1 is created only once installment k is approved, so
// the set of installment numbers for a plan is always a prefix {1..k}.
type InstallmentScheduler struct {
	db *mongo.Database
}

// NewInstallmentScheduler creates a scheduler bound to the database
func NewInstallmentScheduler(db *mongo.Database) *InstallmentScheduler {
	return &InstallmentScheduler{db: db}
}

// EnsureNextInstallment creates the payment record for the installment
// following the approved one, if it doesn't exist yet. Returns the created
// record, or nil when the plan is complete or the record already exists.
func (s *InstallmentScheduler) EnsureNextInstallment(ctx context.Context, approved *models.Payment) (*models.Payment, error) {
	if approved.CicilanOrderID == "" {
		return nil, fmt.Errorf("payment %s is not part of an installment plan", approved.OrderID)
	}
	if approved.InstallmentNumber >= approved.TotalInstallments {
		return nil, nil
	}

	nextNumber := approved.InstallmentNumber + 1
	payments := s.db.Collection("payments")

	count, err := payments.CountDocuments(ctx, bson.M{
		"cicilanOrderId":    approved.CicilanOrderID,
		"installmentNumber": nextNumber,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to check for existing installment: %w", err)
	}
	if count > 0 {
		return nil, nil
	}

	months := TermMonths(approved.PaymentTerm)
	if months == 0 {
		return nil, fmt.Errorf("payment %s carries unknown term %q", approved.OrderID, approved.PaymentTerm)
	}

	var dueDate time.Time
	if approved.DueDate != nil {
		dueDate = approved.DueDate.AddDate(0, months, 0)
	} else {
		dueDate = time.Now().AddDate(0, months, 0)
	}

	now := time.Now()
	next := models.Payment{
		ID:                primitive.NewObjectID(),
		OrderID:           fmt.Sprintf("%s-%d", approved.CicilanOrderID, nextNumber),
		UserID:            approved.UserID,
		Amount:            approved.InstallmentAmount,
		PaymentType:       models.PaymentCicilanInstallment,
		CicilanOrderID:    approved.CicilanOrderID,
		InstallmentNumber: nextNumber,
		TotalInstallments: approved.TotalInstallments,
		InstallmentAmount: approved.InstallmentAmount,
		PaymentTerm:       approved.PaymentTerm,
		DueDate:           &dueDate,
		ProductName:       approved.ProductName,
		ReferralCode:      approved.ReferralCode,
		AdminStatus:       models.AdminStatusPending,
		Status:            models.AdminStatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	_, err = payments.InsertOne(ctx, next)
	if err != nil {
		// A concurrent approval may have won the race; the unique index on
		// (cicilanOrderId, installmentNumber) makes that harmless.
		if mongo.IsDuplicateKeyError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to create next installment: %w", err)
	}

	if err := s.mirrorInstallment(ctx, &next); err != nil {
		return &next, fmt.Errorf("next installment created but investor mirror not updated: %w", err)
	}

	return &next, nil
}

// mirrorInstallment appends the new installment into the investor's
// embedded installments array when it isn't mirrored yet.
func (s *InstallmentScheduler) mirrorInstallment(ctx context.Context, payment *models.Payment) error {
	investors := s.db.Collection("investors")

	var investor models.Investor
	err := investors.FindOne(ctx, bson.M{"userId": payment.UserID}).Decode(&investor)
	if err != nil {
		return fmt.Errorf("failed to find investor for user %s: %w", payment.UserID.Hex(), err)
	}

	for _, inv := range investor.Investments {
		if inv.InvestmentID != payment.CicilanOrderID {
			continue
		}
		for _, entry := range inv.Installments {
			if entry.InstallmentNumber == payment.InstallmentNumber {
				return nil
			}
		}
	}

	entry := models.InstallmentEntry{
		InstallmentNumber: payment.InstallmentNumber,
		Amount:            payment.Amount,
		DueDate:           *payment.DueDate,
	}

	_, err = investors.UpdateOne(ctx,
		bson.M{"userId": payment.UserID, "investments.investmentId": payment.CicilanOrderID},
		bson.M{
			"$push": bson.M{"investments.$.installments": entry},
			"$set":  bson.M{"updatedAt": time.Now()},
		},
	)
	return err
}
