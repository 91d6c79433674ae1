// Package validation provides input validation utilities. Validation only
// produces errors and warnings for the caller to surface; it never changes
// the values that are priced.
package validation

import (
	"fmt"

	"github.com/iwvelando/construction-pricing/pkg/constants"
)

// ValidateOutputFormat checks if the output format is one of the supported formats.
func ValidateOutputFormat(format string) error {
	if format != constants.OutputFormatPretty && format != constants.OutputFormatCSV {
		return fmt.Errorf("expected output format of %s or %s, got %s",
			constants.OutputFormatPretty, constants.OutputFormatCSV, format)
	}
	return nil
}
