package invoice

import (
	"strings"

	"github.com/shopspring/decimal"
)

var (
	smallNumbers = [...]string{
		"zero", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine",
		"ten", "eleven", "twelve", "thirteen", "fourteen", "fifteen", "sixteen",
		"seventeen", "eighteen", "nineteen",
	}
	tensNames = [...]string{"", "", "twenty", "thirty", "forty", "fifty", "sixty", "seventy", "eighty", "ninety"}
	scales    = [...]string{"", "thousand", "million", "billion", "trillion", "quadrillion", "quintillion"}
)

// NumberToWords spells n in short-scale English, lower case, without hyphens.
func NumberToWords(n int64) string {
	if n == 0 {
		return smallNumbers[0]
	}
	if n < 0 {
		// -n overflows for MinInt64; walk the magnitude as uint64.
		return "minus " + spell(uint64(-(n+1))+1)
	}
	return spell(uint64(n))
}

func spell(n uint64) string {
	var groups []string
	for scale := 0; n > 0; scale++ {
		chunk := n % 1000
		n /= 1000
		if chunk == 0 {
			continue
		}
		words := spellHundreds(chunk)
		if scales[scale] != "" {
			words += " " + scales[scale]
		}
		groups = append([]string{words}, groups...)
	}
	return strings.Join(groups, " ")
}

func spellHundreds(n uint64) string {
	var parts []string
	if h := n / 100; h > 0 {
		parts = append(parts, smallNumbers[h], "hundred")
	}
	rest := n % 100
	switch {
	case rest == 0:
	case rest < 20:
		parts = append(parts, smallNumbers[rest])
	default:
		parts = append(parts, tensNames[rest/10])
		if rest%10 != 0 {
			parts = append(parts, smallNumbers[rest%10])
		}
	}
	return strings.Join(parts, " ")
}

// AmountInWords renders the amount rounded to the major unit, upper-cased,
// followed by the currency unit phrase, e.g. "TWO HUNDRED THIRTY SIX RUPEES ONLY".
func AmountInWords(amount decimal.Decimal, unit string) string {
	unit = strings.TrimSpace(unit)
	if unit == "" {
		unit = DefaultCurrencyUnit
	}
	words := NumberToWords(amount.Round(0).IntPart())
	return strings.ToUpper(words + " " + unit + " only")
}
