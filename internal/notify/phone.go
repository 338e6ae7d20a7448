package notify

import "strings"

// WhatsAppScheme is the addressing prefix the WhatsApp transport expects.
const WhatsAppScheme = "whatsapp:"

// PhoneNormalizer turns raw user-entered phone strings into WhatsApp
// addresses. Nigerian numbers are typically stored in trunk form
// ("08012345678"); the leading trunk prefix is swapped for the country code.
type PhoneNormalizer struct {
	// CountryCode in international form, e.g. "+234".
	CountryCode string
	// TrunkPrefix is the domestic dialing prefix replaced by CountryCode,
	// e.g. "0".
	TrunkPrefix string
}

// Normalize is total and idempotent: it never fails, and feeding its output
// back in returns the same string. Input with no digits comes back as the
// bare scheme token; the send will fail downstream and be recorded in the
// audit ledger rather than swallowed here.
func (n PhoneNormalizer) Normalize(raw string) string {
	s := strings.TrimPrefix(raw, WhatsAppScheme)

	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return WhatsAppScheme
	}

	hadPlus := strings.HasPrefix(strings.TrimSpace(s), "+")
	if !hadPlus && n.TrunkPrefix != "" && strings.HasPrefix(digits, n.TrunkPrefix) {
		cc := strings.TrimPrefix(n.CountryCode, "+")
		digits = cc + digits[len(n.TrunkPrefix):]
	}

	return WhatsAppScheme + "+" + digits
}
