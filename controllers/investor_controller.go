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

// InvestorController serves a member's own portfolio view
type InvestorController struct {
	DB *mongo.Database
}

// NewInvestorController creates a new investor controller
func NewInvestorController(db *mongo.Database) *InvestorController {
	return &InvestorController{DB: db}
}

// GetPortfolio returns the authenticated member's investor aggregate with
// each investment's linked plant instance resolved.
func (ic *InvestorController) GetPortfolio(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}
	userObjID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid user ID",
		})
	}

	var investor models.Investor
	err = ic.DB.Collection("investors").FindOne(ctx, bson.M{"userId": userObjID}).Decode(&investor)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			// Member has no investments yet; return an empty portfolio
			return c.JSON(http.StatusOK, models.Response{
				Status:  http.StatusOK,
				Message: "Portfolio retrieved successfully",
				Data: models.Investor{
					UserID:      userObjID,
					Investments: []models.Investment{},
				},
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve portfolio",
		})
	}

	plants := map[string]models.PlantInstance{}
	for _, inv := range investor.Investments {
		if inv.PlantInstanceID == nil {
			continue
		}
		var plant models.PlantInstance
		if pErr := ic.DB.Collection("plant_instances").FindOne(ctx,
			bson.M{"_id": *inv.PlantInstanceID}).Decode(&plant); pErr == nil {
			plants[inv.InvestmentID] = plant
		}
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Portfolio retrieved successfully",
		Data: map[string]interface{}{
			"investor":       investor,
			"plantInstances": plants,
		},
	})
}
