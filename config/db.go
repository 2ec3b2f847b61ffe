// config/db.go
package config

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConnectDB establishes connection to MongoDB
func ConnectDB() *mongo.Client {
	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		mongoURI = os.Getenv("MONGODB_URI")
	}

	// Only use the Docker service name as fallback in development
	if mongoURI == "" {
		env := os.Getenv("ENV")
		if env == "development" || env == "dev" {
			mongoURI = "mongodb://mongodb:27017"
		} else {
			log.Fatal("MONGO_URI or MONGODB_URI environment variable is required for production")
		}
	}

	log.Printf("Connecting to MongoDB at: %s", maskMongoURI(mongoURI))

	clientOptions := options.Client().ApplyURI(mongoURI)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		log.Fatal("MongoDB connection error:", err)
	}

	err = client.Ping(ctx, nil)
	if err != nil {
		log.Fatal("MongoDB ping error:", err)
	}

	log.Println("Connected to MongoDB")

	setupCollections(client)

	return client
}

// DatabaseName returns the configured database name
func DatabaseName() string {
	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		dbName = "tanamvest"
	}
	return dbName
}

// GetCollection returns MongoDB collection
func GetCollection(client *mongo.Client, collectionName string) *mongo.Collection {
	return client.Database(DatabaseName()).Collection(collectionName)
}

// setupCollections ensures all necessary collections and indexes exist.
// The unique indexes back the idempotence guarantees: one payment per
// orderId, one installment per (cicilanOrderId, installmentNumber), one
// commission per paymentId, one plant instance per contractNumber.
func setupCollections(client *mongo.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := client.Database(DatabaseName())

	collections := []string{"users", "contracts", "payments", "investors", "plant_instances", "commission_history", "notifications"}
	for _, collName := range collections {
		db.CreateCollection(ctx, collName)
	}

	uniqueIndexes := map[string]mongo.IndexModel{
		"users": {
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		"contracts": {
			Keys:    bson.D{{Key: "contractId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		"payments": {
			Keys:    bson.D{{Key: "orderId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		"commission_history": {
			Keys:    bson.D{{Key: "paymentId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		"plant_instances": {
			Keys:    bson.D{{Key: "contractNumber", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		"investors": {
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	for collName, indexModel := range uniqueIndexes {
		_, err := db.Collection(collName).Indexes().CreateOne(ctx, indexModel)
		if err != nil {
			log.Printf("Error creating index for %s: %v", collName, err)
		}
	}

	// Installment uniqueness within a cicilan group. Partial filter keeps
	// non-cicilan payments (no cicilanOrderId) out of the index.
	installmentIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "cicilanOrderId", Value: 1}, {Key: "installmentNumber", Value: 1}},
		Options: options.Index().SetUnique(true).SetPartialFilterExpression(bson.M{
			"cicilanOrderId": bson.M{"$exists": true, "$type": "string"},
		}),
	}
	if _, err := db.Collection("payments").Indexes().CreateOne(ctx, installmentIndex); err != nil {
		log.Printf("Error creating installment index: %v", err)
	}

	log.Println("Database collections and indexes setup complete")
}

// maskMongoURI masks the password in MongoDB URI for logging
func maskMongoURI(uri string) string {
	if idx := strings.Index(uri, "@"); idx > 0 {
		if colonIdx := strings.LastIndex(uri[:idx], ":"); colonIdx > 0 {
			return uri[:colonIdx+1] + "***" + uri[idx:]
		}
	}
	return uri
}
