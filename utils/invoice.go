package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Order id prefixes by payment category. Registration order ids must carry
// the REG- prefix: the webhook handler keys account creation off it.
const (
	RegistrationOrderPrefix = "REG-"
	fullInvoiceTag          = "FULL"
	cicilanInvoiceTag       = "CCL"
)

// GenerateInvoiceNumber produces a collision-resistant contract/order id,
// e.g. "TV/20260830/GHR/FULL/1a2b3c4d". Uniqueness is additionally enforced
// by the database index; a duplicate insert is treated as a 409 upstream.
func GenerateInvoiceNumber(productName, paymentType string) string {
	tag := fullInvoiceTag
	if paymentType == "cicilan" {
		tag = cicilanInvoiceTag
	}
	return fmt.Sprintf("TV/%s/%s/%s/%s",
		time.Now().Format("20060102"),
		productCode(productName),
		tag,
		uuid.NewString()[:8],
	)
}

// GenerateRegistrationOrderID produces a REG- prefixed gateway order id
func GenerateRegistrationOrderID() string {
	return RegistrationOrderPrefix + strings.ToUpper(uuid.NewString()[:12])
}

// productCode squeezes a product name into a 3-letter invoice code
func productCode(productName string) string {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			return r
		}
		return -1
	}, productName)
	cleaned = strings.ToUpper(cleaned)
	if len(cleaned) < 3 {
		cleaned = cleaned + strings.Repeat("X", 3-len(cleaned))
	}
	return cleaned[:3]
}
