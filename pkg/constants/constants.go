// Package constants provides shared constants for the construction-pricing application.
package constants

// DateLayout is the date format used by project plans (YYYY-MM-DD).
const DateLayout = "2006-01-02"

// MonthLayout is the month format used by timelines and reports.
const MonthLayout = "2006-01"

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// DaysPerMonth is the average month length used to convert project
	// durations from days to months.
	DaysPerMonth = 30.44

	// DefaultProjectDurationMonths substitutes non-positive project durations.
	DefaultProjectDurationMonths = 8.0

	// PostDeliveryMonths is the offset of the post-delivery sale timing.
	PostDeliveryMonths = 6.0

	// DefaultAnnualInterestRate is the financing rate (percent) used when the
	// configured rate is missing, negative or not a number.
	DefaultAnnualInterestRate = 15.0

	// DefaultNetProfitMargin is the net profit margin (percent) of a new project.
	DefaultNetProfitMargin = 22.0

	// MinNetProfitMargin and MaxNetProfitMargin bound the editable margin range.
	MinNetProfitMargin = 5.0
	MaxNetProfitMargin = 40.0

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default project file name
	DefaultConfigFile = "project.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum upload size for project files (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024

	// DefaultDatabasePath is the default SQLite database location
	DefaultDatabasePath = "./construction-pricing.db"
)

// UnpriceableMessage is shown instead of a currency value when taxes and
// profit margin consume the whole sale price.
const UnpriceableMessage = "a soma de impostos e lucro não pode atingir 100%"

// OutOfRangeMessage is shown instead of a currency value when the inputs are
// too large to be priced.
const OutOfRangeMessage = "valores fora do intervalo calculável"

// InvalidDisplay is rendered in place of non-finite monetary values.
const InvalidDisplay = "Inválido"
