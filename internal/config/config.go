// Package config defines the quote request structures and includes functions
// for loading, defaulting and converting them.
package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/iwvelando/auto-quote/pkg/constants"
	"github.com/iwvelando/auto-quote/pkg/datetime"
	"github.com/spf13/viper"
)

// Request holds one quote request along with the CLI's logging and output
// options.
type Request struct {
	VehicleValue      float64    `mapstructure:"vehicle_value" json:"vehicle_value" yaml:"vehicle_value"`
	DownPaymentAmount float64    `mapstructure:"down_payment_amount" json:"down_payment_amount" yaml:"down_payment_amount"`
	TermMonths        int        `mapstructure:"term_months" json:"term_months" yaml:"term_months"`
	Insurance         Insurance  `mapstructure:"insurance" json:"insurance" yaml:"insurance"`
	Commission        Commission `mapstructure:"commission" json:"commission" yaml:"commission"`
	AsOf              string     `mapstructure:"as_of" json:"as_of" yaml:"as_of"`
	Settings          Settings   `mapstructure:"settings" json:"settings" yaml:"settings"`

	Logging LoggingConfig `mapstructure:"logging" json:"-" yaml:"logging,omitempty"`
	Output  OutputConfig  `mapstructure:"output" json:"-" yaml:"output,omitempty"`
}

// Insurance is the insurance premium and how it is paid.
type Insurance struct {
	Mode   string  `mapstructure:"mode" json:"mode" yaml:"mode"`
	Amount float64 `mapstructure:"amount" json:"amount" yaml:"amount"`
}

// Commission is the opening commission treatment.
type Commission struct {
	Mode string `mapstructure:"mode" json:"mode" yaml:"mode"`
}

// Settings holds the pricing parameters. GPSMonthly is a pointer so that an
// explicit 0 can be told apart from an omitted value.
type Settings struct {
	AnnualNominalRate    float64  `mapstructure:"annual_nominal_rate" json:"annual_nominal_rate" yaml:"annual_nominal_rate"`
	IVA                  float64  `mapstructure:"iva" json:"iva" yaml:"iva"`
	OpeningFeeRate       float64  `mapstructure:"opening_fee_rate" json:"opening_fee_rate" yaml:"opening_fee_rate"`
	GPSInitial           float64  `mapstructure:"gps_initial" json:"gps_initial" yaml:"gps_initial"`
	GPSMonthly           *float64 `mapstructure:"gps_monthly" json:"gps_monthly,omitempty" yaml:"gps_monthly,omitempty"`
	FirstPaymentRule     string   `mapstructure:"first_payment_rule" json:"first_payment_rule,omitempty" yaml:"first_payment_rule,omitempty"`
	DayCount             string   `mapstructure:"day_count" json:"day_count,omitempty" yaml:"day_count,omitempty"`
	FinanceInsuranceMode string   `mapstructure:"finance_insurance_mode" json:"finance_insurance_mode,omitempty" yaml:"finance_insurance_mode,omitempty"`
	Method               string   `mapstructure:"method" json:"method,omitempty" yaml:"method,omitempty"`
	StubAccrual          string   `mapstructure:"stub_accrual" json:"stub_accrual,omitempty" yaml:"stub_accrual,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level,omitempty"`           // debug, info, warn, error
	Format     string `mapstructure:"format" yaml:"format,omitempty"`         // json, console
	OutputFile string `mapstructure:"outputFile" yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format,omitempty"` // pretty, csv
}

// LoadRequest takes a file path as input and loads the YAML or JSON quote
// request there. Values may be overridden with AUTOQUOTE_ prefixed
// environment variables, e.g. AUTOQUOTE_SETTINGS_ANNUAL_NOMINAL_RATE.
func LoadRequest(path string) (*Request, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading quote request %s: %w", path, err)
	}
	return decode(v)
}

// LoadRequestFromReader loads a quote request of the given type (yaml or
// json) from r.
func LoadRequestFromReader(r io.Reader, configType string) (*Request, error) {
	v := newViper()
	v.SetConfigType(configType)

	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading quote request: %w", err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Registered keys are the ones environment variables can override.
	v.SetDefault("commission.mode", constants.DefaultCommissionMode)
	v.SetDefault("settings.gps_monthly", constants.DefaultGPSMonthly)
	v.SetDefault("settings.first_payment_rule", constants.DefaultFirstPaymentRule)
	v.SetDefault("settings.day_count", constants.DefaultDayCount)
	v.SetDefault("settings.finance_insurance_mode", constants.DefaultFinanceInsuranceMode)
	v.SetDefault("settings.method", constants.DefaultMethod)
	v.SetDefault("settings.stub_accrual", constants.DefaultStubAccrual)
	for _, key := range []string{
		"vehicle_value", "down_payment_amount", "term_months", "as_of",
		"insurance.mode", "insurance.amount",
		"settings.annual_nominal_rate", "settings.iva", "settings.opening_fee_rate", "settings.gps_initial",
		"logging.level", "logging.format", "logging.outputFile", "output.format",
	} {
		_ = v.BindEnv(key)
	}
	return v
}

func decode(v *viper.Viper) (*Request, error) {
	var req Request
	if err := v.Unmarshal(&req); err != nil {
		return nil, fmt.Errorf("unable to decode quote request: %w", err)
	}
	req.ApplyDefaults()
	return &req, nil
}

// ApplyDefaults fills every omitted setting with its canonical value.
func (r *Request) ApplyDefaults() {
	if r.Commission.Mode == "" {
		r.Commission.Mode = constants.DefaultCommissionMode
	}
	s := &r.Settings
	if s.GPSMonthly == nil {
		gps := constants.DefaultGPSMonthly
		s.GPSMonthly = &gps
	}
	if s.FirstPaymentRule == "" {
		s.FirstPaymentRule = constants.DefaultFirstPaymentRule
	}
	if s.DayCount == "" {
		s.DayCount = constants.DefaultDayCount
	}
	if s.FinanceInsuranceMode == "" {
		s.FinanceInsuranceMode = constants.DefaultFinanceInsuranceMode
	}
	if s.Method == "" {
		s.Method = constants.DefaultMethod
	}
	if s.StubAccrual == "" {
		s.StubAccrual = constants.DefaultStubAccrual
	}
}

// DefaultAsOf sets the quote date to today when the request has none.
func (r *Request) DefaultAsOf(today datetime.Date) {
	if r.AsOf == "" {
		r.AsOf = today.String()
	}
}
