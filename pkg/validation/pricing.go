package validation

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/iwvelando/construction-pricing/pkg/constants"
	"github.com/iwvelando/construction-pricing/pkg/mathutil"
)

// ValidateNetProfitMargin warns when the margin is outside the editable
// range. Margins outside the range are still priced.
func ValidateNetProfitMargin(marginPercent float64) string {
	if !mathutil.IsFinite(marginPercent) {
		return "net profit margin is not a number"
	}
	if marginPercent < constants.MinNetProfitMargin || marginPercent > constants.MaxNetProfitMargin {
		return fmt.Sprintf("net profit margin %.2f%% is outside the range %.0f%%-%.0f%%",
			marginPercent, constants.MinNetProfitMargin, constants.MaxNetProfitMargin)
	}
	return ""
}

// ValidatePercentComponents warns about components whose text is not a plain
// number or is negative. Such components are priced as their numeric prefix
// or as zero.
func ValidatePercentComponents(kind string, components map[string]string) []string {
	var warnings []string

	names := make([]string, 0, len(components))
	for name := range components {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		text := strings.TrimSpace(components[name])
		normalized := text
		if !strings.Contains(normalized, ".") {
			normalized = strings.Replace(normalized, ",", ".", 1)
		}
		value, err := strconv.ParseFloat(normalized, 64)
		switch {
		case text == "":
			warnings = append(warnings, fmt.Sprintf("%s '%s' is empty and counts as 0%%", kind, name))
		case err != nil || !mathutil.IsFinite(value):
			warnings = append(warnings, fmt.Sprintf("%s '%s' has non-numeric value %q", kind, name, text))
		case value < 0:
			warnings = append(warnings, fmt.Sprintf("%s '%s' is negative (%s%%)", kind, name, text))
		}
	}
	return warnings
}

// ValidatePriceability returns constants.UnpriceableMessage when taxes and
// margin, both as fractions of the sale price, reach 100%.
func ValidatePriceability(totalTaxes, profitMargin float64) string {
	if 1-(totalTaxes+profitMargin) <= 0 {
		return constants.UnpriceableMessage
	}
	return ""
}

// ValidateInterestRate warns when the financing rate text is not a plain
// non-negative number.
func ValidateInterestRate(text string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ""
	}
	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || !mathutil.IsFinite(value) || value < 0 {
		return fmt.Sprintf("annual interest rate %q is not a valid non-negative number", text)
	}
	return ""
}
