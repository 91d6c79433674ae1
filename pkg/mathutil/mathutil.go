// Package mathutil provides numeric helpers shared by the pricing engine and
// its consumers.
package mathutil

import (
	"math"

	"github.com/iwvelando/construction-pricing/pkg/constants"
)

// WithinTolerance checks if two values are within a specified tolerance.
func WithinTolerance(val1, val2, tolerance float64) bool {
	return math.Abs(val1-val2) <= tolerance
}

// IsFinite reports whether val is neither NaN nor ±Inf.
func IsFinite(val float64) bool {
	return !math.IsNaN(val) && !math.IsInf(val, 0)
}

// Finite returns val, or 0 when val is NaN or ±Inf.
func Finite(val float64) float64 {
	if !IsFinite(val) {
		return 0
	}
	return val
}

// PercentToFraction converts 22 into 0.22.
func PercentToFraction(percent float64) float64 {
	return percent / constants.PercentageMultiplier
}

// FractionToPercent converts 0.22 into 22.
func FractionToPercent(fraction float64) float64 {
	return fraction * constants.PercentageMultiplier
}

// CalculatePercentage calculates what percentage value is of total
func CalculatePercentage(value, total float64) float64 {
	if total == 0 {
		return 0
	}
	return (value / total) * constants.PercentageMultiplier
}

// ApplyPercentage applies a percentage to a value
func ApplyPercentage(value, percentage float64) float64 {
	return value * PercentToFraction(percentage)
}
