package utils

import "testing"

func TestGetPlantType(t *testing.T) {
	cases := []struct {
		productName string
		want        string
	}{
		{"Paket Investasi Gaharu 20 Pohon", "gaharu"},
		{"Sengon Super", "sengon"},
		{"Paket JABON premium", "jabon"},
		{"Kebun Alpukat 10 Pohon", "alpukat"},
		{"Paket Misterius", DefaultPlantType},
		{"", DefaultPlantType},
	}

	for _, tc := range cases {
		if got := GetPlantType(tc.productName); got != tc.want {
			t.Errorf("GetPlantType(%q) = %q, want %q", tc.productName, got, tc.want)
		}
	}
}

func TestGetBaseROI(t *testing.T) {
	if got := GetBaseROI("gaharu"); got != 0.15 {
		t.Errorf("GetBaseROI(gaharu) = %v, want 0.15", got)
	}
	if got := GetBaseROI("durian"); got != DefaultBaseROI {
		t.Errorf("GetBaseROI(durian) = %v, want default %v", got, DefaultBaseROI)
	}
}

func TestParseTreeCount(t *testing.T) {
	cases := []struct {
		productName string
		want        int
	}{
		{"Paket Gaharu 20 Pohon", 20},
		{"Paket Sengon 100 pohon premium", 100},
		{"Investasi 5 Pohon Alpukat", 5},
		{"Paket Gaharu", DefaultTreeCount},
		{"", DefaultTreeCount},
	}

	for _, tc := range cases {
		if got := ParseTreeCount(tc.productName); got != tc.want {
			t.Errorf("ParseTreeCount(%q) = %d, want %d", tc.productName, got, tc.want)
		}
	}
}
