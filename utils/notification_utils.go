package utils

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"firebase.google.com/go/v4/messaging"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"gopkg.in/gomail.v2"

	"github.com/tanamvest/tanamvest_backend/config"
	"github.com/tanamvest/tanamvest_backend/models"
)

// SaveNotification saves an in-app notification document
func SaveNotification(db *mongo.Database, userID primitive.ObjectID, title, message, notifType string, data interface{}) error {
	notification := models.Notification{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Title:     title,
		Message:   message,
		Type:      notifType,
		Data:      data,
		IsRead:    false,
		CreatedAt: time.Now(),
	}

	_, err := db.Collection("notifications").InsertOne(context.Background(), notification)
	return err
}

// SendEmail sends a plain-text email using the configured SMTP relay.
// Failures are returned to the caller, who is expected to log and move on;
// email must never block or fail a primary action.
func SendEmail(to, subject, body string) error {
	smtpHost := os.Getenv("SMTP_HOST")
	smtpUser := os.Getenv("SMTP_USER")
	smtpPass := os.Getenv("SMTP_PASS")
	smtpPort := 587
	if portStr := os.Getenv("SMTP_PORT"); portStr != "" {
		fmt.Sscanf(portStr, "%d", &smtpPort)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", smtpUser)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPass)
	return d.DialAndSend(m)
}

// NotifyUserByEmail looks up the user and emails them, logging failures
func NotifyUserByEmail(db *mongo.Database, userID primitive.ObjectID, subject, body string) {
	var user models.User
	err := db.Collection("users").FindOne(context.Background(), bson.M{"_id": userID}).Decode(&user)
	if err != nil {
		log.Printf("Failed to find user %s for email notification: %v", userID.Hex(), err)
		return
	}
	if err := SendEmail(user.Email, subject, body); err != nil {
		log.Printf("Failed to send email to %s: %v", user.Email, err)
	}
}

// SendFCMNotificationToUser sends a push notification to a member's device
func SendFCMNotificationToUser(db *mongo.Database, userID primitive.ObjectID, title, message string, data map[string]interface{}) error {
	var user models.User
	err := db.Collection("users").FindOne(context.Background(), bson.M{"_id": userID}).Decode(&user)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}

	if user.FCMToken == "" {
		return fmt.Errorf("user has no FCM token")
	}

	if config.FirebaseApp == nil {
		return fmt.Errorf("firebase app not initialized")
	}

	ctx := context.Background()
	client, err := config.FirebaseApp.Messaging(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize messaging client: %w", err)
	}

	notificationData := map[string]string{
		"type":      "investment_update",
		"timestamp": time.Now().Format(time.RFC3339),
	}
	for key, value := range data {
		if str, ok := value.(string); ok {
			notificationData[key] = str
		}
	}

	fcmMessage := &messaging.Message{
		Token: user.FCMToken,
		Notification: &messaging.Notification{
			Title: title,
			Body:  message,
		},
		Data: notificationData,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound:     "default",
				ChannelID: "tanamvest_fcm_channel",
			},
		},
	}

	response, err := client.Send(ctx, fcmMessage)
	if err != nil {
		return fmt.Errorf("failed to send FCM notification: %w", err)
	}

	log.Printf("FCM notification sent to user %s: %s", userID.Hex(), response)
	return nil
}
