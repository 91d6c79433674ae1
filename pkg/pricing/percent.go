package pricing

import (
	"strconv"
	"strings"

	"github.com/iwvelando/construction-pricing/pkg/mathutil"
)

// ParsePercent converts user-editable percentage text into a fraction, so
// "2" becomes 0.02. Only the leading numeric prefix is read, which keeps
// half-typed values such as "1." or "3%" usable. Text without a finite
// numeric prefix yields 0.
//
// As a pt-BR extension, a decimal comma is read as the decimal separator
// when the text has no decimal point: "1,08" is 0.0108, where a plain
// float prefix parse would stop at the comma and return 0.01.
func ParsePercent(text string) float64 {
	value, ok := parseLeadingFloat(text)
	if !ok {
		return 0
	}
	return mathutil.PercentToFraction(value)
}

// SumPercents adds up every component of a percentage mapping as a fraction.
func SumPercents(components map[string]string) float64 {
	total := 0.0
	for _, value := range components {
		total += ParsePercent(value)
	}
	return total
}

// parseLeadingFloat reads the longest prefix of text that forms a decimal
// number. A decimal comma is accepted when the text has no decimal point.
func parseLeadingFloat(text string) (float64, bool) {
	s := strings.TrimSpace(text)
	if !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}

	end := numericPrefixLen(s)
	if end == 0 {
		return 0, false
	}

	value, err := strconv.ParseFloat(s[:end], 64)
	if err != nil || !mathutil.IsFinite(value) {
		return 0, false
	}
	return value, true
}

func numericPrefixLen(s string) int {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}

	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		j := i + 1
		fraction := 0
		for j < len(s) && isDigit(s[j]) {
			j++
			fraction++
		}
		if digits == 0 && fraction == 0 {
			return 0
		}
		// A trailing point ("1.") is still a number.
		i = j
		digits += fraction
	}
	if digits == 0 {
		return 0
	}

	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		exp := 0
		for j < len(s) && isDigit(s[j]) {
			j++
			exp++
		}
		if exp > 0 {
			i = j
		}
	}
	return i
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
