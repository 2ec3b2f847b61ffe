package services

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tanamvest/tanamvest_backend/models"
)

// DefaultCommissionRate is the referral commission applied to the contract
// value of a qualifying payment.
const DefaultCommissionRate = 0.02

// CommissionService derives marketing referral commissions from qualifying
// payments. Idempotence comes from the unique index on
// commission_history.paymentId.
type CommissionService struct {
	db   *mongo.Database
	rate float64
}

// NewCommissionService creates a commission service with an explicit rate
func NewCommissionService(db *mongo.Database, rate float64) *CommissionService {
	if rate <= 0 {
		rate = DefaultCommissionRate
	}
	return &CommissionService{db: db, rate: rate}
}

// CommissionResult describes the outcome of a commission attempt. Expected
// business conditions (ineligible payment, unknown referral code, already
// recorded) are reported here, never as errors.
type CommissionResult struct {
	Created         bool                      `json:"created"`
	AlreadyRecorded bool                      `json:"alreadyRecorded"`
	Reason          string                    `json:"reason,omitempty"`
	Record          *models.CommissionHistory `json:"record,omitempty"`
}

// RecalcResult summarizes a staff-wide recalculation pass
type RecalcResult struct {
	Scanned int      `json:"scanned"`
	Created int      `json:"created"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}

// EligibleContractValue decides whether a payment qualifies for commission
// and returns the contract value the rate applies to. Full investments
// qualify once settled by the gateway or approved by an admin; installments
// qualify only when the first installment is admin-approved.
func EligibleContractValue(p *models.Payment) (float64, bool, string) {
	switch p.PaymentType {
	case models.PaymentFullInvestment:
		if p.TransactionStatus == models.TransactionSettlement || p.AdminStatus == models.AdminStatusApproved {
			return p.Amount, true, ""
		}
		return 0, false, "full-investment payment is neither settled nor admin-approved"
	case models.PaymentCicilanInstallment:
		if p.InstallmentNumber != 1 {
			return 0, false, fmt.Sprintf("installment %d does not qualify; only the first installment earns commission", p.InstallmentNumber)
		}
		if p.AdminStatus != models.AdminStatusApproved {
			return 0, false, "first installment is not admin-approved"
		}
		return p.InstallmentAmount * float64(p.TotalInstallments), true, ""
	default:
		return 0, false, fmt.Sprintf("payment type %q never earns commission", p.PaymentType)
	}
}

// CreateCommissionRecord creates the commission for a payment if it is
// eligible and not yet recorded. Calling it twice for the same payment is
// safe: the second call reports AlreadyRecorded.
func (s *CommissionService) CreateCommissionRecord(ctx context.Context, paymentID primitive.ObjectID) (*CommissionResult, error) {
	var payment models.Payment
	err := s.db.Collection("payments").FindOne(ctx, bson.M{"_id": paymentID}).Decode(&payment)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("payment %s not found", paymentID.Hex())
		}
		return nil, fmt.Errorf("failed to load payment: %w", err)
	}

	history := s.db.Collection("commission_history")
	count, err := history.CountDocuments(ctx, bson.M{"paymentId": paymentID})
	if err != nil {
		return nil, fmt.Errorf("failed to check commission history: %w", err)
	}
	if count > 0 {
		return &CommissionResult{AlreadyRecorded: true, Reason: "commission already recorded for this payment"}, nil
	}

	contractValue, eligible, reason := EligibleContractValue(&payment)
	if !eligible {
		return &CommissionResult{Reason: reason}, nil
	}

	if payment.ReferralCode == "" {
		return &CommissionResult{Reason: "payment carries no referral code"}, nil
	}

	var staff models.User
	err = s.db.Collection("users").FindOne(ctx, bson.M{
		"referralCode": payment.ReferralCode,
		"role":         bson.M{"$in": []string{models.RoleMarketing, models.RoleMarketingHead}},
	}).Decode(&staff)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return &CommissionResult{Reason: fmt.Sprintf("referral code %s does not belong to marketing staff", payment.ReferralCode)}, nil
		}
		return nil, fmt.Errorf("failed to resolve referral code: %w", err)
	}

	record := models.CommissionHistory{
		ID:               primitive.NewObjectID(),
		PaymentID:        paymentID,
		OrderID:          payment.OrderID,
		MarketingStaffID: staff.ID,
		ReferralCodeUsed: payment.ReferralCode,
		ContractValue:    contractValue,
		CommissionRate:   s.rate,
		CommissionAmount: math.Round(contractValue * s.rate),
		CreatedAt:        time.Now(),
	}

	_, err = history.InsertOne(ctx, record)
	if err != nil {
		// Two approvals racing on the same payment: the unique index on
		// paymentId turns the loser into "already recorded".
		if mongo.IsDuplicateKeyError(err) {
			return &CommissionResult{AlreadyRecorded: true, Reason: "commission already recorded for this payment"}, nil
		}
		return nil, fmt.Errorf("failed to insert commission record: %w", err)
	}

	log.Printf("Commission recorded: staff=%s payment=%s amount=%.0f", staff.ID.Hex(), payment.OrderID, record.CommissionAmount)
	return &CommissionResult{Created: true, Record: &record}, nil
}

// RecalculateCommissionsForStaff re-scans every payment carrying the
// staff's referral code and records any missing commissions.
// "Already recorded" is counted as skipped, not as an error.
func (s *CommissionService) RecalculateCommissionsForStaff(ctx context.Context, staffID primitive.ObjectID) (*RecalcResult, error) {
	var staff models.User
	err := s.db.Collection("users").FindOne(ctx, bson.M{
		"_id":  staffID,
		"role": bson.M{"$in": []string{models.RoleMarketing, models.RoleMarketingHead}},
	}).Decode(&staff)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("marketing staff %s not found", staffID.Hex())
		}
		return nil, fmt.Errorf("failed to load staff: %w", err)
	}
	if staff.ReferralCode == "" {
		return nil, fmt.Errorf("staff %s has no referral code", staffID.Hex())
	}

	cursor, err := s.db.Collection("payments").Find(ctx, bson.M{"referralCode": staff.ReferralCode})
	if err != nil {
		return nil, fmt.Errorf("failed to scan payments: %w", err)
	}
	defer cursor.Close(ctx)

	result := &RecalcResult{}
	for cursor.Next(ctx) {
		var payment models.Payment
		if err := cursor.Decode(&payment); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("decode: %v", err))
			continue
		}
		result.Scanned++

		commResult, err := s.CreateCommissionRecord(ctx, payment.ID)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("payment %s: %v", payment.OrderID, err))
			continue
		}
		if commResult.Created {
			result.Created++
		} else {
			result.Skipped++
		}
	}
	if err := cursor.Err(); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("cursor: %v", err))
	}

	return result, nil
}

// ReassignReferralCode moves a marketing staff member to a new referral
// code. When transferHistory is set, historical payments and commission
// records are rewritten to the new code inside one transaction so the
// commission trail never references a code in a half-moved state.
func (s *CommissionService) ReassignReferralCode(ctx context.Context, staffID primitive.ObjectID, newCode string, transferHistory bool) error {
	var staff models.User
	err := s.db.Collection("users").FindOne(ctx, bson.M{
		"_id":  staffID,
		"role": bson.M{"$in": []string{models.RoleMarketing, models.RoleMarketingHead}},
	}).Decode(&staff)
	if err != nil {
		return fmt.Errorf("marketing staff %s not found: %w", staffID.Hex(), err)
	}
	oldCode := staff.ReferralCode

	session, err := s.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		_, err := s.db.Collection("users").UpdateOne(sessCtx,
			bson.M{"_id": staffID},
			bson.M{"$set": bson.M{"referralCode": newCode, "updatedAt": time.Now()}},
		)
		if err != nil {
			return nil, fmt.Errorf("failed to update staff code: %w", err)
		}

		if transferHistory && oldCode != "" {
			_, err = s.db.Collection("payments").UpdateMany(sessCtx,
				bson.M{"referralCode": oldCode},
				bson.M{"$set": bson.M{"referralCode": newCode}},
			)
			if err != nil {
				return nil, fmt.Errorf("failed to transfer payment history: %w", err)
			}

			_, err = s.db.Collection("commission_history").UpdateMany(sessCtx,
				bson.M{"referralCodeUsed": oldCode},
				bson.M{"$set": bson.M{"referralCodeUsed": newCode}},
			)
			if err != nil {
				return nil, fmt.Errorf("failed to transfer commission history: %w", err)
			}
		}

		return nil, nil
	})
	return err
}
