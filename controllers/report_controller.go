package controllers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tanamvest/tanamvest_backend/config"
	"github.com/tanamvest/tanamvest_backend/models"
)

const dashboardCacheKey = "finance:dashboard"
const dashboardCacheTTL = 60 * time.Second

// ReportController serves the finance reporting surface: the aggregate
// dashboard, the investor roster and flat payment exports.
type ReportController struct {
	DB *mongo.Database
}

// NewReportController creates a new report controller
func NewReportController(db *mongo.Database) *ReportController {
	return &ReportController{DB: db}
}

// GetDashboard aggregates platform-wide totals for the finance dashboard.
// Results are cached in Redis for a minute; the aggregation runs directly
// against Mongo when Redis is down.
func (rp *ReportController) GetDashboard(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	rdb := config.GetRedisClient()
	if rdb != nil {
		cached, err := rdb.Get(ctx, dashboardCacheKey).Result()
		if err == nil {
			var data map[string]interface{}
			if jsonErr := json.Unmarshal([]byte(cached), &data); jsonErr == nil {
				return c.JSON(http.StatusOK, models.Response{
					Status:  http.StatusOK,
					Message: "Dashboard retrieved successfully (cached)",
					Data:    data,
				})
			}
		} else if err != redis.Nil {
			log.Printf("Redis dashboard lookup failed: %v", err)
		}
	}

	data, err := rp.buildDashboard(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to build dashboard",
		})
	}

	if rdb != nil {
		if encoded, jsonErr := json.Marshal(data); jsonErr == nil {
			if setErr := rdb.Set(ctx, dashboardCacheKey, encoded, dashboardCacheTTL).Err(); setErr != nil {
				log.Printf("Failed to cache dashboard: %v", setErr)
			}
		}
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Dashboard retrieved successfully",
		Data:    data,
	})
}

func (rp *ReportController) buildDashboard(ctx context.Context) (map[string]interface{}, error) {
	investorTotals := struct {
		TotalInvestasi float64 `bson:"totalInvestasi"`
		TotalPaid      float64 `bson:"totalPaid"`
		JumlahPohon    int     `bson:"jumlahPohon"`
		Investors      int     `bson:"investors"`
	}{}

	cursor, err := rp.DB.Collection("investors").Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":            nil,
			"totalInvestasi": bson.M{"$sum": "$totalInvestasi"},
			"totalPaid":      bson.M{"$sum": "$totalPaid"},
			"jumlahPohon":    bson.M{"$sum": "$jumlahPohon"},
			"investors":      bson.M{"$sum": 1},
		}}},
	})
	if err != nil {
		return nil, err
	}
	if cursor.Next(ctx) {
		if err := cursor.Decode(&investorTotals); err != nil {
			cursor.Close(ctx)
			return nil, err
		}
	}
	cursor.Close(ctx)

	contractCounts := map[string]int64{}
	for _, status := range []string{
		models.ContractStatusDraft, models.ContractStatusSigned,
		models.ContractStatusApproved, models.ContractStatusPaid,
		models.ContractStatusPermanentlyRejected,
	} {
		count, err := rp.DB.Collection("contracts").CountDocuments(ctx, bson.M{"status": status})
		if err != nil {
			return nil, err
		}
		contractCounts[status] = count
	}

	pendingReviews, err := rp.DB.Collection("payments").CountDocuments(ctx, bson.M{
		"paymentType":   models.PaymentCicilanInstallment,
		"adminStatus":   models.AdminStatusPending,
		"proofImageUrl": bson.M{"$ne": ""},
	})
	if err != nil {
		return nil, err
	}

	overdue, err := rp.DB.Collection("payments").CountDocuments(ctx, bson.M{
		"paymentType": models.PaymentCicilanInstallment,
		"adminStatus": models.AdminStatusPending,
		"dueDate":     bson.M{"$lt": time.Now()},
	})
	if err != nil {
		return nil, err
	}

	commissionTotal := struct {
		Total float64 `bson:"total"`
		Count int     `bson:"count"`
	}{}
	commCursor, err := rp.DB.Collection("commission_history").Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$commissionAmount"},
			"count": bson.M{"$sum": 1},
		}}},
	})
	if err != nil {
		return nil, err
	}
	if commCursor.Next(ctx) {
		if err := commCursor.Decode(&commissionTotal); err != nil {
			commCursor.Close(ctx)
			return nil, err
		}
	}
	commCursor.Close(ctx)

	plantCount, err := rp.DB.Collection("plant_instances").CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"totalInvestasi":      investorTotals.TotalInvestasi,
		"totalPaid":           investorTotals.TotalPaid,
		"totalTrees":          investorTotals.JumlahPohon,
		"totalInvestors":      investorTotals.Investors,
		"contractsByStatus":   contractCounts,
		"pendingReviews":      pendingReviews,
		"overdueInstallments": overdue,
		"totalCommissions":    commissionTotal.Total,
		"commissionRecords":   commissionTotal.Count,
		"plantInstances":      plantCount,
		"generatedAt":         time.Now().Format(time.RFC3339),
	}, nil
}

// ListInvestors returns the investor roster for finance, newest first
func (rp *ReportController) ListInvestors(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := rp.DB.Collection("investors").Find(ctx, bson.M{}, opts)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve investors",
		})
	}
	defer cursor.Close(ctx)

	var investors []models.Investor
	if err = cursor.All(ctx, &investors); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to decode investors",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Investors retrieved successfully",
		Data:    investors,
	})
}

// ListPlantInstances returns all plant instances, optionally filtered by status
func (rp *ReportController) ListPlantInstances(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filter := bson.M{}
	if status := c.QueryParam("status"); status != "" {
		filter["status"] = status
	}

	cursor, err := rp.DB.Collection("plant_instances").Find(ctx, filter)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve plant instances",
		})
	}
	defer cursor.Close(ctx)

	var instances []models.PlantInstance
	if err = cursor.All(ctx, &instances); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to decode plant instances",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Plant instances retrieved successfully",
		Data:    instances,
	})
}

// ExportPayments returns flat payment rows for a date range, suitable for
// spreadsheet export on the client side.
func (rp *ReportController) ExportPayments(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	filter := bson.M{}
	if from := c.QueryParam("from"); from != "" {
		fromTime, err := time.Parse("2006-01-02", from)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Invalid 'from' date, expected YYYY-MM-DD",
			})
		}
		filter["createdAt"] = bson.M{"$gte": fromTime}
	}
	if to := c.QueryParam("to"); to != "" {
		toTime, err := time.Parse("2006-01-02", to)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Invalid 'to' date, expected YYYY-MM-DD",
			})
		}
		if existing, ok := filter["createdAt"].(bson.M); ok {
			existing["$lte"] = toTime.AddDate(0, 0, 1)
		} else {
			filter["createdAt"] = bson.M{"$lte": toTime.AddDate(0, 0, 1)}
		}
	}
	if paymentType := c.QueryParam("paymentType"); paymentType != "" {
		filter["paymentType"] = paymentType
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := rp.DB.Collection("payments").Find(ctx, filter, opts)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve payments",
		})
	}
	defer cursor.Close(ctx)

	var payments []models.Payment
	if err = cursor.All(ctx, &payments); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to decode payments",
		})
	}

	rows := make([]map[string]interface{}, 0, len(payments))
	for _, p := range payments {
		row := map[string]interface{}{
			"orderId":           p.OrderID,
			"paymentType":       p.PaymentType,
			"amount":            p.Amount,
			"transactionStatus": p.TransactionStatus,
			"adminStatus":       p.AdminStatus,
			"referralCode":      p.ReferralCode,
			"createdAt":         p.CreatedAt.Format(time.RFC3339),
		}
		if p.InstallmentNumber > 0 {
			row["installmentNumber"] = p.InstallmentNumber
			row["cicilanOrderId"] = p.CicilanOrderID
		}
		rows = append(rows, row)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Payments exported successfully",
		Data: map[string]interface{}{
			"count": len(rows),
			"rows":  rows,
		},
	})
}
