package services

import (
	"testing"

	"github.com/tanamvest/tanamvest_backend/models"
)

func TestEligibleContractValueFullInvestment(t *testing.T) {
	settled := &models.Payment{
		PaymentType:       models.PaymentFullInvestment,
		Amount:            5000000,
		TransactionStatus: models.TransactionSettlement,
	}
	value, ok, _ := EligibleContractValue(settled)
	if !ok {
		t.Fatal("settled full investment should be eligible")
	}
	if value != 5000000 {
		t.Errorf("contract value = %.0f, want 5000000", value)
	}

	adminApproved := &models.Payment{
		PaymentType: models.PaymentFullInvestment,
		Amount:      5000000,
		AdminStatus: models.AdminStatusApproved,
	}
	if _, ok, _ := EligibleContractValue(adminApproved); !ok {
		t.Error("admin-approved full investment should be eligible")
	}

	pending := &models.Payment{
		PaymentType:       models.PaymentFullInvestment,
		Amount:            5000000,
		TransactionStatus: models.TransactionPending,
		AdminStatus:       models.AdminStatusPending,
	}
	if _, ok, reason := EligibleContractValue(pending); ok {
		t.Error("pending full investment should not be eligible")
	} else if reason == "" {
		t.Error("ineligible payment should carry a reason")
	}
}

func TestEligibleContractValueInstallments(t *testing.T) {
	first := &models.Payment{
		PaymentType:       models.PaymentCicilanInstallment,
		InstallmentNumber: 1,
		InstallmentAmount: 100000,
		TotalInstallments: 24,
		AdminStatus:       models.AdminStatusApproved,
	}
	value, ok, _ := EligibleContractValue(first)
	if !ok {
		t.Fatal("approved first installment should be eligible")
	}
	// Commission applies to the full contract value, not the installment
	if value != 2400000 {
		t.Errorf("contract value = %.0f, want 2400000", value)
	}

	second := &models.Payment{
		PaymentType:       models.PaymentCicilanInstallment,
		InstallmentNumber: 2,
		InstallmentAmount: 100000,
		TotalInstallments: 24,
		AdminStatus:       models.AdminStatusApproved,
	}
	if _, ok, _ := EligibleContractValue(second); ok {
		t.Error("second installment should never be eligible")
	}

	unapproved := &models.Payment{
		PaymentType:       models.PaymentCicilanInstallment,
		InstallmentNumber: 1,
		InstallmentAmount: 100000,
		TotalInstallments: 24,
		AdminStatus:       models.AdminStatusPending,
	}
	if _, ok, _ := EligibleContractValue(unapproved); ok {
		t.Error("unapproved first installment should not be eligible")
	}
}

func TestEligibleContractValueOtherTypes(t *testing.T) {
	registration := &models.Payment{
		PaymentType:       models.PaymentRegistration,
		Amount:            100000,
		TransactionStatus: models.TransactionSettlement,
	}
	if _, ok, _ := EligibleContractValue(registration); ok {
		t.Error("registration payments should never earn commission")
	}
}
