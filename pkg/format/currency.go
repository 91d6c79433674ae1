// Package format renders monetary values and percentages the way they are
// shown to Brazilian clients, e.g. "R$ 1.234,56" and "22,00%".
package format

import (
	"fmt"
	"math"
	"strings"

	"github.com/iwvelando/construction-pricing/pkg/constants"
	"github.com/iwvelando/construction-pricing/pkg/mathutil"
)

// Currency returns a BRL currency string with thousands separators
// (e.g., "-R$ 1.234,56").
func Currency(amount float64) string {
	formatted := formatPositive(math.Abs(amount), 2)
	if amount < 0 && formatted != "0,00" {
		return "-R$ " + formatted
	}
	return "R$ " + formatted
}

// NumericCurrency returns a currency string without a currency symbol but
// with separators (e.g., "-1.234,56").
func NumericCurrency(amount float64) string {
	formatted := formatPositive(math.Abs(amount), 2)
	if amount < 0 && formatted != "0,00" {
		return "-" + formatted
	}
	return formatted
}

// SafeCurrency is Currency for values that may not be finite; NaN and ±Inf
// render as "Inválido".
func SafeCurrency(amount float64) string {
	if !mathutil.IsFinite(amount) {
		return constants.InvalidDisplay
	}
	return Currency(amount)
}

// Percent renders a percentage with the given number of decimals
// (e.g., Percent(67.812, 2) == "67,81%").
func Percent(value float64, decimals int) string {
	if !mathutil.IsFinite(value) {
		return constants.InvalidDisplay
	}
	formatted := formatPositive(math.Abs(value), decimals)
	if value < 0 && strings.Trim(formatted, "0,.") != "" {
		return "-" + formatted + "%"
	}
	return formatted + "%"
}

// Decimal renders a plain number with a decimal comma and no grouping, as
// spreadsheets in pt-BR expect (e.g., "1234,56").
func Decimal(value float64, decimals int) string {
	if !mathutil.IsFinite(value) {
		return constants.InvalidDisplay
	}
	if decimals < 0 {
		decimals = 0
	}
	return strings.Replace(fmt.Sprintf("%.*f", decimals, value), ".", ",", 1)
}

func formatPositive(value float64, decimals int) string {
	if decimals < 0 {
		decimals = 0
	}
	formatted := fmt.Sprintf("%.*f", decimals, value)
	intPart, decPart, _ := strings.Cut(formatted, ".")

	if len(intPart) > 3 {
		var builder strings.Builder
		for i, digit := range intPart {
			if i > 0 && (len(intPart)-i)%3 == 0 {
				builder.WriteByte('.')
			}
			builder.WriteRune(digit)
		}
		intPart = builder.String()
	}

	if decPart == "" {
		return intPart
	}
	return intPart + "," + decPart
}
