// Package constants provides shared constants for the auto-quote application.
package constants

// DateLayout is the ISO-8601 calendar date format used for quote dates and
// payment dates in requests and responses.
const DateLayout = "2006-01-02"

// MonthLayout is the month-granularity format used for schedule labels.
const MonthLayout = "2006-01"

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// DaysPerYearBase is the day-count year base for A360 / ACT360
	DaysPerYearBase = 360

	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// CurrencyPlaces is the number of decimal places kept for money
	CurrencyPlaces = 2

	// QuincenaDay is the mid-month biweekly cutoff
	QuincenaDay = 15
)

// Default pricing settings
const (
	// DefaultGPSMonthly is the recurring GPS rent applied when a request omits it
	DefaultGPSMonthly = 400.0

	// DefaultFirstPaymentRule anchors the first payment to the next quincena
	DefaultFirstPaymentRule = "next_quincena"

	// DefaultDayCount is the interest day-count convention
	DefaultDayCount = "ACT360"

	// DefaultFinanceInsuranceMode adds financed insurance to the principal
	DefaultFinanceInsuranceMode = "add_to_principal"

	// DefaultMethod is the day-prorated amortization
	DefaultMethod = "prorated"

	// DefaultStubAccrual counts the quote day in the first period
	DefaultStubAccrual = "inclusive"

	// DefaultCommissionMode pays the opening commission in cash
	DefaultCommissionMode = "cash"
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
	// DefaultConfigFile is the default quote request file name
	DefaultConfigFile = "quote.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// EnvPrefix is the prefix for environment variable overrides
	EnvPrefix = "AUTOQUOTE"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":8080"

	// DefaultMaxBodySizeBytes is the default maximum quote request size (64 KB)
	DefaultMaxBodySizeBytes int64 = 64 * 1024

	// DefaultCacheTTLSeconds is how long cached quote results live
	DefaultCacheTTLSeconds = 900

	// DefaultCacheTimeoutMillis bounds a single cache round trip
	DefaultCacheTimeoutMillis = 250
)

// Validation constants
const (
	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01

	// MaxTermMonths is the longest term a quote accepts
	MaxTermMonths = 600
)
