package utils

import (
	"strconv"
	"strings"
)

// Default values used when a product name doesn't match a known plant type
const (
	DefaultPlantType = "tanaman"
	DefaultBaseROI   = 0.12
	DefaultTreeCount = 10
)

// plantKeywords maps a keyword found in a product name to its plant type.
// Order matters: first match wins.
var plantKeywords = []struct {
	keyword   string
	plantType string
}{
	{"gaharu", "gaharu"},
	{"sengon", "sengon"},
	{"jabon", "jabon"},
	{"alpukat", "alpukat"},
}

// baseROIByType holds the base annual ROI per plant type
var baseROIByType = map[string]float64{
	"gaharu":  0.15,
	"sengon":  0.13,
	"jabon":   0.12,
	"alpukat": 0.14,
}

// GetPlantType derives the plant type from a product name by keyword match
func GetPlantType(productName string) string {
	name := strings.ToLower(productName)
	for _, pk := range plantKeywords {
		if strings.Contains(name, pk.keyword) {
			return pk.plantType
		}
	}
	return DefaultPlantType
}

// GetBaseROI returns the base annual ROI for a plant type
func GetBaseROI(plantType string) float64 {
	if roi, ok := baseROIByType[plantType]; ok {
		return roi
	}
	return DefaultBaseROI
}

// ParseTreeCount extracts the tree count from a product name like
// "Paket Gaharu 20 Pohon". Falls back to DefaultTreeCount when the name
// carries no number before "pohon".
func ParseTreeCount(productName string) int {
	fields := strings.Fields(strings.ToLower(productName))
	for i, f := range fields {
		if strings.HasPrefix(f, "pohon") && i > 0 {
			if n, err := strconv.Atoi(fields[i-1]); err == nil && n > 0 {
				return n
			}
		}
	}
	// No "pohon" marker: take the first standalone number if any
	for _, f := range fields {
		if n, err := strconv.Atoi(f); err == nil && n > 0 {
			return n
		}
	}
	return DefaultTreeCount
}
