package models

import "testing"

func TestGateProofSubmission(t *testing.T) {
	cases := []struct {
		name        string
		adminStatus string
		proofURL    string
		want        ProofGate
	}{
		{"first submission", AdminStatusPending, "", ProofAccepted},
		{"resubmission after rejection", AdminStatusRejected, "/uploads/proofs/old.jpg", ProofAccepted},
		{"already approved", AdminStatusApproved, "/uploads/proofs/old.jpg", ProofAlreadyApproved},
		{"approved without proof on file", AdminStatusApproved, "", ProofAlreadyApproved},
		{"pending submission awaiting review", AdminStatusPending, "/uploads/proofs/old.jpg", ProofPendingReview},
	}

	for _, tc := range cases {
		if got := GateProofSubmission(tc.adminStatus, tc.proofURL); got != tc.want {
			t.Errorf("%s: GateProofSubmission(%q, %q) = %v, want %v",
				tc.name, tc.adminStatus, tc.proofURL, got, tc.want)
		}
	}
}

func TestSettlementComplete(t *testing.T) {
	cases := []struct {
		status string
		fraud  string
		want   bool
	}{
		{TransactionSettlement, "", true},
		{TransactionSettlement, "accept", true},
		{TransactionCapture, "accept", true},
		{TransactionCapture, "", true},
		{TransactionCapture, "challenge", false},
		{TransactionPending, "", false},
		{TransactionDeny, "", false},
		{TransactionExpire, "", false},
		{TransactionCancel, "", false},
	}

	for _, tc := range cases {
		if got := SettlementComplete(tc.status, tc.fraud); got != tc.want {
			t.Errorf("SettlementComplete(%q, %q) = %v, want %v", tc.status, tc.fraud, got, tc.want)
		}
	}
}
