// Package format renders monetary amounts for display and export.
package format

import (
	"strings"

	"github.com/iwvelando/auto-quote/pkg/constants"
	"github.com/shopspring/decimal"
)

// Fixed returns the amount with exactly two decimals and no separators
// (e.g., "-1234.50"). Amounts are taken at their shortest decimal form, so a
// value already rounded to cents is printed as those cents.
func Fixed(amount float64) string {
	s := decimal.NewFromFloat(amount).StringFixed(constants.CurrencyPlaces)
	if s == "-0.00" {
		return "0.00"
	}
	return s
}

// Currency returns a currency string with a dollar sign and thousands separators (e.g., "-$1,234.56").
func Currency(amount float64) string {
	fixed := Fixed(amount)
	if strings.HasPrefix(fixed, "-") {
		return "-$" + group(fixed[1:])
	}
	return "$" + group(fixed)
}

// Percent renders a rate given as a fraction (0.45 → "45.00%").
func Percent(rate float64) string {
	return decimal.NewFromFloat(rate).Shift(2).StringFixed(constants.CurrencyPlaces) + "%"
}

func group(unsigned string) string {
	intPart, decPart, _ := strings.Cut(unsigned, ".")
	if len(intPart) <= 3 {
		return intPart + "." + decPart
	}

	var builder strings.Builder
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			builder.WriteByte(',')
		}
		builder.WriteRune(digit)
	}
	return builder.String() + "." + decPart
}
