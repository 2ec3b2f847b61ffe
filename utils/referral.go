package utils

import (
	"crypto/rand"
	"encoding/base32"
	"strings"
)

// ReferralType represents the staff category a referral code belongs to
type ReferralType string

const (
	MarketingType     ReferralType = "MKT"
	MarketingHeadType ReferralType = "MKH"
)

// GenerateReferralCode generates a referral code for the given staff type.
// Format: {TYPE}-{RANDOM} where RANDOM is 6 alphanumeric characters,
// e.g. MKT-ABC123.
func GenerateReferralCode(staffType ReferralType) (string, error) {
	randomBytes := make([]byte, 4)
	_, err := rand.Read(randomBytes)
	if err != nil {
		return "", err
	}

	randomStr := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(randomBytes)
	randomStr = strings.ToUpper(randomStr[:6])
	randomStr = strings.Map(func(r rune) rune {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, randomStr)

	if len(randomStr) < 6 {
		randomStr = randomStr + strings.Repeat("0", 6-len(randomStr))
	}

	return string(staffType) + "-" + randomStr, nil
}
