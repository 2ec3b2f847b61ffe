package models

import (
	"testing"
	"time"
)

func TestNewInvestmentFullPayment(t *testing.T) {
	now := time.Now()
	inv := NewInvestment("TV/20260830/GHR/FULL/1a2b3c4d", "Paket Gaharu", 2400000, PaymentTypeFull, nil, now)

	if inv.Status != InvestmentPending {
		t.Errorf("new investment status = %q, want %q", inv.Status, InvestmentPending)
	}
	if inv.InvestmentID != "TV/20260830/GHR/FULL/1a2b3c4d" {
		t.Errorf("investmentId = %q, want the contract id", inv.InvestmentID)
	}
	if inv.AmountPaid != 0 {
		t.Errorf("new investment amountPaid = %v, want 0", inv.AmountPaid)
	}
	if inv.Installments != nil {
		t.Errorf("full payment should carry no schedule, got %d entries", len(inv.Installments))
	}
	if inv.PlantInstanceID != nil {
		t.Error("plant instance must not be linked before activation")
	}
}

func TestNewInvestmentCicilanSchedule(t *testing.T) {
	now := time.Now()
	schedule := []InstallmentEntry{
		{InstallmentNumber: 1, Amount: 100000, DueDate: now.AddDate(0, 1, 0)},
		{InstallmentNumber: 2, Amount: 100000, DueDate: now.AddDate(0, 2, 0)},
	}
	inv := NewInvestment("TV/20260830/GHR/CCL/9f8e7d6c", "Paket Gaharu", 2400000, PaymentTypeCicilan, schedule, now)

	if inv.Status != InvestmentPending {
		t.Errorf("new investment status = %q, want %q", inv.Status, InvestmentPending)
	}
	if len(inv.Installments) != 2 {
		t.Fatalf("schedule preview has %d entries, want 2", len(inv.Installments))
	}
	if inv.Installments[0].IsPaid {
		t.Error("schedule entries must start unpaid")
	}
	if inv.TotalAmount != 2400000 {
		t.Errorf("totalAmount = %v, want 2400000", inv.TotalAmount)
	}
}
