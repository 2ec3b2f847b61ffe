package services

import (
	"fmt"
	"log"
	"os"

	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
)

// MidtransService wraps the payment gateway client. Contract creation and
// registration use it to obtain redirect URLs; settlement comes back
// through the webhook, never through this client.
type MidtransService struct {
	snapClient snap.Client
	finishURL  string
}

// NewMidtransService creates a gateway client from environment variables
func NewMidtransService() *MidtransService {
	serverKey := os.Getenv("MIDTRANS_SERVER_KEY")
	env := midtrans.Sandbox
	if os.Getenv("MIDTRANS_ENV") == "production" {
		env = midtrans.Production
	}

	if serverKey == "" {
		log.Printf("WARNING: MIDTRANS_SERVER_KEY is not set; payment redirect URLs will be unavailable")
	}

	var client snap.Client
	client.New(serverKey, env)

	return &MidtransService{
		snapClient: client,
		finishURL:  os.Getenv("MIDTRANS_FINISH_URL"),
	}
}

// CreateTransaction requests a hosted-payment redirect URL for an order.
// Amounts are in whole rupiah.
func (s *MidtransService) CreateTransaction(orderID string, amount float64, customerName, email, phone, itemName string) (string, error) {
	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  orderID,
			GrossAmt: int64(amount),
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: customerName,
			Email: email,
			Phone: phone,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:    orderID,
				Name:  itemName,
				Price: int64(amount),
				Qty:   1,
			},
		},
	}

	if s.finishURL != "" {
		req.Callbacks = &snap.Callbacks{Finish: s.finishURL}
	}

	resp, err := s.snapClient.CreateTransaction(req)
	if err != nil {
		return "", fmt.Errorf("gateway transaction failed for order %s: %w", orderID, err)
	}

	return resp.RedirectURL, nil
}
