package config

import (
	"context"
	"encoding/base64"
	"log"
	"os"

	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"
)

var FirebaseApp *firebase.App

// InitFirebase initializes the Firebase Admin SDK used for FCM push
// notifications. Push is a fire-and-log concern, so a missing credential
// only disables it instead of stopping the service.
func InitFirebase() {
	ctx := context.Background()

	projectID := os.Getenv("FIREBASE_PROJECT_ID")
	if projectID == "" {
		projectID = "tanamvest-app"
	}
	fbConfig := &firebase.Config{ProjectID: projectID}

	// Base64-encoded credentials take precedence (container deployments)
	if base64Creds := os.Getenv("FIREBASE_CREDENTIALS_BASE64"); base64Creds != "" {
		decoded, err := base64.StdEncoding.DecodeString(base64Creds)
		if err != nil {
			log.Printf("Error decoding base64 firebase credentials: %v", err)
			return
		}

		app, err := firebase.NewApp(ctx, fbConfig, option.WithCredentialsJSON(decoded))
		if err != nil {
			log.Printf("Error initializing firebase app: %v", err)
			return
		}
		FirebaseApp = app
		return
	}

	credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
	if credFile == "" {
		log.Println("Firebase credentials not configured; push notifications disabled")
		return
	}

	app, err := firebase.NewApp(ctx, fbConfig, option.WithCredentialsFile(credFile))
	if err != nil {
		log.Printf("Error initializing firebase app: %v", err)
		return
	}
	FirebaseApp = app
}
