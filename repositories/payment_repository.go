package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tanamvest/tanamvest_backend/models"
)

// PaymentRepository bundles the payment lookups shared by the review,
// webhook and commission paths.
type PaymentRepository struct {
	collection *mongo.Collection
}

func NewPaymentRepository(db *mongo.Database) *PaymentRepository {
	return &PaymentRepository{
		collection: db.Collection("payments"),
	}
}

// FindByID loads a payment by document id
func (r *PaymentRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Payment, error) {
	var payment models.Payment
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&payment)
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// FindByOrderID loads a payment by gateway order id
func (r *PaymentRepository) FindByOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	var payment models.Payment
	err := r.collection.FindOne(ctx, bson.M{"orderId": orderID}).Decode(&payment)
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// UpdateGatewayStatus records the gateway-reported transaction state
func (r *PaymentRepository) UpdateGatewayStatus(ctx context.Context, orderID, transactionID, transactionStatus, fraudStatus, method string) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"orderId": orderID},
		bson.M{"$set": bson.M{
			"transactionId":     transactionID,
			"transactionStatus": transactionStatus,
			"fraudStatus":       fraudStatus,
			"gatewayMethod":     method,
			"updatedAt":         time.Now(),
		}},
	)
	return err
}

// MarkReviewed stamps the admin decision onto a payment
func (r *PaymentRepository) MarkReviewed(ctx context.Context, id primitive.ObjectID, status, reviewer, notes string) error {
	now := time.Now()
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"adminStatus":     status,
			"status":          status,
			"adminReviewBy":   reviewer,
			"adminReviewDate": now,
			"adminNotes":      notes,
			"updatedAt":       now,
		}},
	)
	return err
}

// FindPendingDueBefore returns unreviewed installments due before the cutoff
func (r *PaymentRepository) FindPendingDueBefore(ctx context.Context, cutoff time.Time) ([]models.Payment, error) {
	cursor, err := r.collection.Find(ctx, bson.M{
		"paymentType": models.PaymentCicilanInstallment,
		"adminStatus": models.AdminStatusPending,
		"dueDate":     bson.M{"$lte": cutoff},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var payments []models.Payment
	if err := cursor.All(ctx, &payments); err != nil {
		return nil, err
	}
	return payments, nil
}
