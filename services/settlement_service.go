package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tanamvest/tanamvest_backend/models"
	"github.com/tanamvest/tanamvest_backend/utils"
)

// EnsureInvestmentEntry creates the investor aggregate if needed and
// appends the investment entry when it isn't mirrored yet. Idempotent:
// an entry that already exists is left untouched.
func EnsureInvestmentEntry(ctx context.Context, db *mongo.Database, userID primitive.ObjectID, investment models.Investment) error {
	investors := db.Collection("investors")
	now := time.Now()

	var investor models.Investor
	err := investors.FindOne(ctx, bson.M{"userId": userID}).Decode(&investor)
	if err == mongo.ErrNoDocuments {
		var user models.User
		fullName := ""
		if uErr := db.Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user); uErr == nil {
			fullName = user.FullName
		}

		investor = models.Investor{
			ID:             primitive.NewObjectID(),
			UserID:         userID,
			FullName:       fullName,
			TotalInvestasi: investment.TotalAmount,
			Investments:    []models.Investment{investment},
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		_, insErr := investors.InsertOne(ctx, investor)
		if mongo.IsDuplicateKeyError(insErr) {
			// Another request created the aggregate first; retry as append.
			return EnsureInvestmentEntry(ctx, db, userID, investment)
		}
		return insErr
	}
	if err != nil {
		return err
	}

	for _, inv := range investor.Investments {
		if inv.InvestmentID == investment.InvestmentID {
			return nil
		}
	}

	_, err = investors.UpdateOne(ctx,
		bson.M{"userId": userID},
		bson.M{
			"$push": bson.M{"investments": investment},
			"$inc":  bson.M{"totalInvestasi": investment.TotalAmount},
			"$set":  bson.M{"updatedAt": now},
		},
	)
	return err
}

// FullInvestmentFinalizer runs the side effects owed to a full-investment
// contract once its payment has settled and its review is approved:
// e-stamp, plant allocation, investor activation and commission. The
// trigger is whichever of webhook settlement and admin approval lands
// last; each outcome is reported per step and never rolls back the paid
// status.
type FullInvestmentFinalizer struct {
	db          *mongo.Database
	estamp      *EStampService
	commissions *CommissionService
}

// NewFullInvestmentFinalizer creates a finalizer bound to the database
func NewFullInvestmentFinalizer(db *mongo.Database, estamp *EStampService, commissions *CommissionService) *FullInvestmentFinalizer {
	return &FullInvestmentFinalizer{db: db, estamp: estamp, commissions: commissions}
}

// FinalizePaidContract stamps the contract, allocates its plant instance,
// activates the investor entry and records the referral commission.
func (f *FullInvestmentFinalizer) FinalizePaidContract(ctx context.Context, contract *models.Contract, payment *models.Payment) map[string]string {
	steps := map[string]string{}
	now := time.Now()

	if docURL, err := f.estamp.StampContractAfterPayment(contract.ContractID); err != nil {
		log.Printf("E-stamp failed for contract %s: %v", contract.ContractID, err)
		steps["estamp"] = "failed: " + err.Error()
	} else {
		if _, uErr := f.db.Collection("contracts").UpdateOne(ctx,
			bson.M{"contractId": contract.ContractID},
			bson.M{"$set": bson.M{"stampedDocumentUrl": docURL, "updatedAt": now}},
		); uErr != nil {
			log.Printf("Failed to record stamped document for %s: %v", contract.ContractID, uErr)
		}
		steps["estamp"] = "ok"
	}

	plantType := utils.GetPlantType(contract.ProductName)
	instance := models.PlantInstance{
		ID:               primitive.NewObjectID(),
		ContractNumber:   contract.ContractID,
		UserID:           contract.UserID,
		PlantType:        plantType,
		InstanceName:     fmt.Sprintf("%s - %s", contract.ProductName, contract.ContractID),
		TreeCount:        utils.ParseTreeCount(contract.ProductName),
		BaseAnnualROI:    utils.GetBaseROI(plantType),
		Status:           models.PlantStatusKontrakBaru,
		OperationalCosts: []models.OperationalCost{},
		IncomeRecords:    []models.IncomeRecord{},
		History: []models.HistoryEntry{{
			Action:      "created",
			Notes:       "Allocated on full payment settlement",
			PerformedBy: "system",
			PerformedAt: now,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}

	treeCount := instance.TreeCount
	plantInstanceID := &instance.ID
	_, err := f.db.Collection("plant_instances").InsertOne(ctx, instance)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			var existing models.PlantInstance
			if findErr := f.db.Collection("plant_instances").FindOne(ctx,
				bson.M{"contractNumber": contract.ContractID}).Decode(&existing); findErr == nil {
				plantInstanceID = &existing.ID
				treeCount = existing.TreeCount
				steps["plantInstance"] = "already allocated"
			} else {
				plantInstanceID = nil
				steps["plantInstance"] = "failed: " + findErr.Error()
			}
		} else {
			plantInstanceID = nil
			steps["plantInstance"] = "failed: " + err.Error()
		}
	} else {
		steps["plantInstance"] = "allocated " + instance.ID.Hex()
	}

	set := bson.M{
		"investments.$.status": models.InvestmentActive,
		"updatedAt":            now,
	}
	inc := bson.M{
		"totalPaid":                payment.Amount,
		"investments.$.amountPaid": payment.Amount,
	}
	// Trees are only counted once an instance actually backs them
	if plantInstanceID != nil {
		set["investments.$.plantInstanceId"] = *plantInstanceID
		inc["jumlahPohon"] = treeCount
	}

	res, err := f.db.Collection("investors").UpdateOne(ctx,
		bson.M{"userId": contract.UserID, "investments.investmentId": contract.ContractID},
		bson.M{"$set": set, "$inc": inc},
	)
	if err != nil {
		log.Printf("Failed to activate investment for contract %s: %v", contract.ContractID, err)
		steps["investorActivation"] = "failed: " + err.Error()
	} else if res.MatchedCount == 0 {
		log.Printf("No investor entry matched contract %s during finalization", contract.ContractID)
		steps["investorActivation"] = "failed: investor entry not found for this contract"
	} else {
		steps["investorActivation"] = "activated"
	}

	commResult, err := f.commissions.CreateCommissionRecord(ctx, payment.ID)
	switch {
	case err != nil:
		log.Printf("Commission failed for settled contract %s: %v", contract.ContractID, err)
		steps["commission"] = "failed: " + err.Error()
	case commResult.Created:
		steps["commission"] = "recorded"
	case commResult.AlreadyRecorded:
		steps["commission"] = "already recorded"
	default:
		steps["commission"] = "skipped: " + commResult.Reason
	}

	return steps
}
