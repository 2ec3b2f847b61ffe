package utils

import (
	"strings"
	"testing"
)

func TestGenerateReferralCode(t *testing.T) {
	code, err := GenerateReferralCode(MarketingType)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(code, "MKT-") {
		t.Errorf("marketing code %q should carry the MKT- prefix", code)
	}
	if len(code) != 10 {
		t.Errorf("code %q has length %d, want 10", code, len(code))
	}
	for _, r := range code[4:] {
		if !((r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			t.Errorf("code %q contains invalid character %q", code, r)
		}
	}

	headCode, err := GenerateReferralCode(MarketingHeadType)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(headCode, "MKH-") {
		t.Errorf("marketing head code %q should carry the MKH- prefix", headCode)
	}
}

func TestGenerateReferralCodeDistinct(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := GenerateReferralCode(MarketingType)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		seen[code] = true
	}
	// Random 6-char codes colliding 50 times in a row would mean the
	// generator is broken
	if len(seen) < 45 {
		t.Errorf("only %d distinct codes out of 50", len(seen))
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	hashed, err := HashPassword("rahasia-sekali")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hashed == "rahasia-sekali" {
		t.Fatal("password stored in plaintext")
	}
	if !CheckPassword(hashed, "rahasia-sekali") {
		t.Error("correct password rejected")
	}
	if CheckPassword(hashed, "salah") {
		t.Error("wrong password accepted")
	}
}

func TestGenerateTemporaryPassword(t *testing.T) {
	p1, err := GenerateTemporaryPassword()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p2, err := GenerateTemporaryPassword()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p1 == p2 {
		t.Error("temporary passwords should not repeat")
	}
	if len(p1) < 10 {
		t.Errorf("temporary password %q too short", p1)
	}
}
