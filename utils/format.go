package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatNaira renders an amount as "₦1,234,567.89". Whole amounts drop the
// kobo digits, matching how figures appear in the product copy.
func FormatNaira(d decimal.Decimal) string {
	s := d.StringFixed(2)
	if d.IsInteger() {
		s = d.StringFixed(0)
	}

	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart := s
	fracPart := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i:]
	}

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString("₦")
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteString(fracPart)
	return b.String()
}
