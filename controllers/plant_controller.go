package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tanamvest/tanamvest_backend/middleware"
	"github.com/tanamvest/tanamvest_backend/models"
)

// PlantController handles field-admin operations on plant instances:
// stage updates, cost and income bookkeeping. Every mutation appends to
// the instance's history log.
type PlantController struct {
	DB *mongo.Database
}

// NewPlantController creates a new plant controller
func NewPlantController(db *mongo.Database) *PlantController {
	return &PlantController{DB: db}
}

// UpdateStatusRequest moves a plant instance to a new operational stage
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
	Notes  string `json:"notes,omitempty"`
}

// RecordEntryRequest books a cost or income entry against an instance
type RecordEntryRequest struct {
	Description string  `json:"description" validate:"required"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
}

// GetPlantInstance loads one instance by id
func (pc *PlantController) GetPlantInstance(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	instanceID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid plant instance ID",
		})
	}

	var instance models.PlantInstance
	err = pc.DB.Collection("plant_instances").FindOne(ctx, bson.M{"_id": instanceID}).Decode(&instance)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Plant instance not found",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve plant instance",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Plant instance retrieved successfully",
		Data:    instance,
	})
}

// UpdateStatus moves an instance to a new operational stage and logs it
func (pc *PlantController) UpdateStatus(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	adminID, err := middleware.ExtractUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}

	instanceID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid plant instance ID",
		})
	}

	var req UpdateStatusRequest
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

	validStatus := false
	for _, s := range []string{
		models.PlantStatusPending, models.PlantStatusKontrakBaru,
		models.PlantStatusPenanaman, models.PlantStatusPerawatan,
		models.PlantStatusPanen,
	} {
		if req.Status == s {
			validStatus = true
			break
		}
	}
	if !validStatus {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Unknown plant status: " + req.Status,
		})
	}

	now := time.Now()
	result, err := pc.DB.Collection("plant_instances").UpdateOne(ctx,
		bson.M{"_id": instanceID},
		bson.M{
			"$set": bson.M{"status": req.Status, "updatedAt": now},
			"$push": bson.M{"history": models.HistoryEntry{
				Action:      "status_changed_to_" + req.Status,
				Notes:       req.Notes,
				PerformedBy: adminID,
				PerformedAt: now,
			}},
		},
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update plant status",
		})
	}
	if result.MatchedCount == 0 {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Plant instance not found",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Plant status updated",
		Data: map[string]interface{}{
			"id":     instanceID.Hex(),
			"status": req.Status,
		},
	})
}

// AddOperationalCost books a cost entry against an instance
func (pc *PlantController) AddOperationalCost(c echo.Context) error {
	return pc.addRecord(c, "operationalCosts", "cost_recorded")
}

// AddIncomeRecord books an income entry (e.g. a harvest sale)
func (pc *PlantController) AddIncomeRecord(c echo.Context) error {
	return pc.addRecord(c, "incomeRecords", "income_recorded")
}

func (pc *PlantController) addRecord(c echo.Context, field, action string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	adminID, err := middleware.ExtractUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}

	instanceID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid plant instance ID",
		})
	}

	var req RecordEntryRequest
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

	now := time.Now()
	entry := bson.M{
		"description": req.Description,
		"amount":      req.Amount,
		"recordedBy":  adminID,
		"recordedAt":  now,
	}

	result, err := pc.DB.Collection("plant_instances").UpdateOne(ctx,
		bson.M{"_id": instanceID},
		bson.M{
			"$push": bson.M{
				field: entry,
				"history": models.HistoryEntry{
					Action:      action,
					Notes:       req.Description,
					PerformedBy: adminID,
					PerformedAt: now,
				},
			},
			"$set": bson.M{"updatedAt": now},
		},
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to record entry",
		})
	}
	if result.MatchedCount == 0 {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Plant instance not found",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Entry recorded successfully",
		Data:    entry,
	})
}
