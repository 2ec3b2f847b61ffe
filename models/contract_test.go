package models

import "testing"

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{ContractStatusDraft, ContractStatusSigned, true},
		{ContractStatusDraft, ContractStatusApproved, false},
		{ContractStatusDraft, ContractStatusPaid, false},
		{ContractStatusSigned, ContractStatusSigned, true}, // re-sign after rejection
		{ContractStatusSigned, ContractStatusApproved, true},
		{ContractStatusSigned, ContractStatusPermanentlyRejected, true},
		{ContractStatusSigned, ContractStatusPaid, false},
		{ContractStatusApproved, ContractStatusPaid, true},
		{ContractStatusApproved, ContractStatusSigned, false},
		{ContractStatusApproved, ContractStatusPermanentlyRejected, false},
		{ContractStatusPaid, ContractStatusApproved, false},
		{ContractStatusPaid, ContractStatusSigned, false},
		{ContractStatusPermanentlyRejected, ContractStatusSigned, false},
		{ContractStatusPermanentlyRejected, ContractStatusDraft, false},
		{"unknown", ContractStatusSigned, false},
	}

	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%q, %q) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestEvaluateSignAttempt(t *testing.T) {
	cases := []struct {
		name    string
		status  string
		attempt int
		max     int
		want    SignOutcome
	}{
		{"first attempt on draft", ContractStatusDraft, 0, 3, SignAllowed},
		{"retry on signed after rejection", ContractStatusSigned, 1, 3, SignAllowed},
		{"last attempt below cap", ContractStatusSigned, 2, 3, SignAllowed},
		{"cap reached", ContractStatusSigned, 3, 3, SignAttemptsExhausted},
		{"cap exceeded", ContractStatusDraft, 4, 3, SignAttemptsExhausted},
		{"permanently rejected", ContractStatusPermanentlyRejected, 0, 3, SignRejectedPermanently},
		{"permanently rejected trumps exhaustion", ContractStatusPermanentlyRejected, 3, 3, SignRejectedPermanently},
		{"already approved", ContractStatusApproved, 1, 3, SignAlreadyProcessed},
		{"already paid", ContractStatusPaid, 1, 3, SignAlreadyProcessed},
		{"unknown status", "unknown", 0, 3, SignAlreadyProcessed},
	}

	for _, tc := range cases {
		if got := EvaluateSignAttempt(tc.status, tc.attempt, tc.max); got != tc.want {
			t.Errorf("%s: EvaluateSignAttempt(%q, %d, %d) = %v, want %v",
				tc.name, tc.status, tc.attempt, tc.max, got, tc.want)
		}
	}
}

func TestIsTerminalContractStatus(t *testing.T) {
	terminal := []string{ContractStatusPaid, ContractStatusPermanentlyRejected}
	for _, status := range terminal {
		if !IsTerminalContractStatus(status) {
			t.Errorf("expected %q to be terminal", status)
		}
	}

	active := []string{ContractStatusDraft, ContractStatusSigned, ContractStatusApproved}
	for _, status := range active {
		if IsTerminalContractStatus(status) {
			t.Errorf("expected %q not to be terminal", status)
		}
	}
}
