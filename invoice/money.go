package invoice

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatINR formats d with two decimals and Indian digit grouping
// (last three digits, then pairs): 1234567.5 -> "12,34,567.50".
func FormatINR(d decimal.Decimal) string {
	neg := d.IsNegative()
	fixed := d.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")

	var groups []string
	if len(intPart) > 3 {
		groups = append(groups, intPart[len(intPart)-3:])
		intPart = intPart[:len(intPart)-3]
		for len(intPart) > 2 {
			groups = append([]string{intPart[len(intPart)-2:]}, groups...)
			intPart = intPart[:len(intPart)-2]
		}
	}
	groups = append([]string{intPart}, groups...)

	out := strings.Join(groups, ",") + "." + frac
	if neg && !d.Round(2).IsZero() {
		out = "-" + out
	}
	return out
}

// FormatSigned is FormatINR with an explicit "+" for non-negative values,
// as printed on the Round Off line.
func FormatSigned(d decimal.Decimal) string {
	s := FormatINR(d)
	if !strings.HasPrefix(s, "-") {
		s = "+" + s
	}
	return s
}
