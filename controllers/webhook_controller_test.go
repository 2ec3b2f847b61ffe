package controllers

import (
	"crypto/sha512"
	"encoding/hex"
	"testing"

	"github.com/tanamvest/tanamvest_backend/models"
)

func TestVerifySignature(t *testing.T) {
	t.Setenv("MIDTRANS_SERVER_KEY", "test-server-key")

	notification := &models.GatewayNotification{
		OrderID:     "TV/20260830/GHR/FULL/1a2b3c4d",
		StatusCode:  "200",
		GrossAmount: "5000000.00",
	}

	sum := sha512.Sum512([]byte(notification.OrderID + notification.StatusCode + notification.GrossAmount + "test-server-key"))
	notification.SignatureKey = hex.EncodeToString(sum[:])

	if !verifySignature(notification) {
		t.Error("valid signature rejected")
	}

	notification.SignatureKey = "tampered"
	if verifySignature(notification) {
		t.Error("invalid signature accepted")
	}
}

func TestVerifySignatureWithoutServerKey(t *testing.T) {
	t.Setenv("MIDTRANS_SERVER_KEY", "")

	// Without a configured key, verification is skipped rather than
	// rejecting every webhook
	notification := &models.GatewayNotification{OrderID: "REG-ABC", SignatureKey: "anything"}
	if !verifySignature(notification) {
		t.Error("verification should be skipped when no server key is configured")
	}
}
