package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlantInstance lifecycle labels. These are operational stages maintained by
// field admins, not a validated state machine like the contract status.
const (
	PlantStatusPending     = "Pending"
	PlantStatusKontrakBaru = "Kontrak Baru"
	PlantStatusPenanaman   = "Penanaman"
	PlantStatusPerawatan   = "Perawatan"
	PlantStatusPanen       = "Panen"
)

// OperationalCost is a single cost entry booked against a plant instance
type OperationalCost struct {
	Description string    `json:"description" bson:"description"`
	Amount      float64   `json:"amount" bson:"amount"`
	RecordedBy  string    `json:"recordedBy" bson:"recordedBy"`
	RecordedAt  time.Time `json:"recordedAt" bson:"recordedAt"`
}

// IncomeRecord is a single income entry (e.g. harvest sale) for an instance
type IncomeRecord struct {
	Description string    `json:"description" bson:"description"`
	Amount      float64   `json:"amount" bson:"amount"`
	RecordedBy  string    `json:"recordedBy" bson:"recordedBy"`
	RecordedAt  time.Time `json:"recordedAt" bson:"recordedAt"`
}

// HistoryEntry is one row of the append-only audit log
type HistoryEntry struct {
	Action      string    `json:"action" bson:"action"`
	Notes       string    `json:"notes,omitempty" bson:"notes,omitempty"`
	PerformedBy string    `json:"performedBy" bson:"performedBy"`
	PerformedAt time.Time `json:"performedAt" bson:"performedAt"`
}

// PlantInstance is the allocated unit (trees on a plot) a contract's funds
// are applied to. Created exactly once, on approval of the first installment
// or of a settled full payment; at most one instance per contract number.
type PlantInstance struct {
	ID             primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	ContractNumber string             `json:"contractNumber" bson:"contractNumber"`
	UserID         primitive.ObjectID `json:"userId" bson:"userId"`
	PlantType      string             `json:"plantType" bson:"plantType"`
	InstanceName   string             `json:"instanceName" bson:"instanceName"`
	TreeCount      int                `json:"treeCount" bson:"treeCount"`
	BaseAnnualROI  float64            `json:"baseAnnualRoi" bson:"baseAnnualRoi"`
	Kavling        string             `json:"kavling,omitempty" bson:"kavling,omitempty"`
	Blok           string             `json:"blok,omitempty" bson:"blok,omitempty"`
	Status         string             `json:"status" bson:"status"`

	OperationalCosts []OperationalCost `json:"operationalCosts" bson:"operationalCosts"`
	IncomeRecords    []IncomeRecord    `json:"incomeRecords" bson:"incomeRecords"`
	History          []HistoryEntry    `json:"history" bson:"history"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}
