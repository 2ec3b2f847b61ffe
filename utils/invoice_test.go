package utils

import (
	"strings"
	"testing"
)

func TestGenerateInvoiceNumber(t *testing.T) {
	inv := GenerateInvoiceNumber("Paket Gaharu 20 Pohon", "full")
	parts := strings.Split(inv, "/")
	if len(parts) != 5 {
		t.Fatalf("invoice %q has %d segments, want 5", inv, len(parts))
	}
	if parts[0] != "TV" {
		t.Errorf("invoice prefix = %q, want TV", parts[0])
	}
	if len(parts[1]) != 8 {
		t.Errorf("date segment %q should be 8 digits", parts[1])
	}
	if parts[2] != "PAK" {
		t.Errorf("product code = %q, want PAK", parts[2])
	}
	if parts[3] != "FULL" {
		t.Errorf("payment tag = %q, want FULL", parts[3])
	}

	cicilan := GenerateInvoiceNumber("Paket Gaharu", "cicilan")
	if !strings.Contains(cicilan, "/CCL/") {
		t.Errorf("cicilan invoice %q should carry the CCL tag", cicilan)
	}
}

func TestGenerateInvoiceNumberUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		inv := GenerateInvoiceNumber("Paket Gaharu", "full")
		if seen[inv] {
			t.Fatalf("duplicate invoice number generated: %s", inv)
		}
		seen[inv] = true
	}
}

func TestGenerateRegistrationOrderID(t *testing.T) {
	orderID := GenerateRegistrationOrderID()
	if !strings.HasPrefix(orderID, RegistrationOrderPrefix) {
		t.Errorf("registration order id %q should carry the %s prefix", orderID, RegistrationOrderPrefix)
	}
	if len(orderID) != len(RegistrationOrderPrefix)+12 {
		t.Errorf("registration order id %q has unexpected length %d", orderID, len(orderID))
	}
}

func TestProductCodeShortNames(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"Gaharu", "GAH"},
		{"ab", "ABX"},
		{"", "XXX"},
		{"12 34", "XXX"},
	}
	for _, tc := range cases {
		if got := productCode(tc.name); got != tc.want {
			t.Errorf("productCode(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}
