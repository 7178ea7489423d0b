package chat

import (
	"strings"
	"unicode"
)

// NormalizePhoneNumber puts Colombian numbers in +57 form. Anything it does
// not recognise is returned trimmed, never rejected.
func NormalizePhoneNumber(phone string) string {
	phone = strings.TrimSpace(phone)

	// Remove all non-digit characters
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, phone)

	if cleaned == "" {
		return phone
	}

	// national mobile (3xx) and landline (60x) numbers have ten digits
	if len(cleaned) == 10 && (strings.HasPrefix(cleaned, "3") || strings.HasPrefix(cleaned, "60")) {
		return "+57" + cleaned
	}
	if strings.HasPrefix(cleaned, "57") && len(cleaned) == 12 {
		return "+" + cleaned
	}

	if strings.HasPrefix(phone, "+") {
		return "+" + cleaned
	}

	return phone
}
