// Package validation provides request and configuration validation utilities.
package validation

import (
	"fmt"
	"strings"

	"github.com/iwvelando/auto-quote/pkg/constants"
	"github.com/iwvelando/auto-quote/pkg/datetime"
	"github.com/iwvelando/auto-quote/pkg/mathutil"
	"github.com/iwvelando/auto-quote/pkg/quote"
)

// Issue is a single field-level problem with a request.
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error carries every issue found in a request.
type Error struct {
	Issues []Issue
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, issue.Field+": "+issue.Message)
	}
	return "invalid quote request: " + strings.Join(parts, "; ")
}

// QuoteRequest mirrors the request fields that need checking before a quote
// is computed.
type QuoteRequest struct {
	VehicleValue    float64
	DownPayment     float64
	TermMonths      int
	InsuranceMode   string
	InsuranceAmount float64
	CommissionMode  string
	AsOf            string
	Settings        SettingsRequest
}

// SettingsRequest mirrors the pricing settings of a request after defaults
// have been applied.
type SettingsRequest struct {
	AnnualNominalRate    float64
	IVA                  float64
	OpeningFeeRate       float64
	GPSInitial           float64
	GPSMonthly           float64
	FirstPaymentRule     string
	DayCount             string
	FinanceInsuranceMode string
	Method               string
	StubAccrual          string
}

// ValidateRequest checks every field of a quote request and returns the
// issues found, in field order.
func ValidateRequest(req QuoteRequest) []Issue {
	var v validator

	if v.finite("vehicle_value", req.VehicleValue) && req.VehicleValue <= 0 {
		v.add("vehicle_value", "must be greater than 0")
	}
	if v.finite("down_payment_amount", req.DownPayment) {
		switch {
		case req.DownPayment < 0:
			v.add("down_payment_amount", "must be 0 or greater")
		case req.DownPayment > req.VehicleValue:
			v.add("down_payment_amount", fmt.Sprintf("must not exceed vehicle_value (%.2f)", req.VehicleValue))
		}
	}
	if req.TermMonths < 1 || req.TermMonths > constants.MaxTermMonths {
		v.add("term_months", fmt.Sprintf("must be between 1 and %d", constants.MaxTermMonths))
	}

	v.oneOf("insurance.mode", req.InsuranceMode, string(quote.InsuranceCash), string(quote.InsuranceFinanced))
	v.nonNegative("insurance.amount", req.InsuranceAmount)
	v.oneOf("commission.mode", req.CommissionMode, string(quote.CommissionCash), string(quote.CommissionFinanced))

	if req.AsOf == "" {
		v.add("as_of", "is required")
	} else if _, err := datetime.ParseDate(req.AsOf); err != nil {
		v.add("as_of", "must be an ISO-8601 date")
	}

	s := req.Settings
	if v.finite("settings.annual_nominal_rate", s.AnnualNominalRate) && s.AnnualNominalRate <= 0 {
		v.add("settings.annual_nominal_rate", "must be greater than 0")
	}
	if v.finite("settings.iva", s.IVA) && (s.IVA < 0 || s.IVA > 1) {
		v.add("settings.iva", "must be between 0 and 1")
	}
	v.nonNegative("settings.opening_fee_rate", s.OpeningFeeRate)
	v.nonNegative("settings.gps_initial", s.GPSInitial)
	v.nonNegative("settings.gps_monthly", s.GPSMonthly)
	v.oneOf("settings.first_payment_rule", s.FirstPaymentRule, string(quote.RuleNextQuincena))
	v.oneOf("settings.day_count", s.DayCount, string(quote.DayCountA360), string(quote.DayCountACT360))
	v.oneOf("settings.finance_insurance_mode", s.FinanceInsuranceMode,
		string(quote.AddToPrincipal), string(quote.SubLoan12M))
	v.oneOf("settings.method", s.Method, string(quote.MethodProrated), string(quote.MethodFlat))
	v.oneOf("settings.stub_accrual", s.StubAccrual, string(quote.StubInclusive), string(quote.StubExclusive))

	return v.issues
}

// CheckRequest returns a *Error when the request has any issue.
func CheckRequest(req QuoteRequest) error {
	if issues := ValidateRequest(req); len(issues) > 0 {
		return &Error{Issues: issues}
	}
	return nil
}

type validator struct {
	issues []Issue
}

func (v *validator) add(field, message string) {
	v.issues = append(v.issues, Issue{Field: field, Message: message})
}

// finite records an issue for NaN or infinite values and reports whether the
// value is usable for further checks.
func (v *validator) finite(field string, value float64) bool {
	if !mathutil.IsFinite(value) {
		v.add(field, "must be a finite number")
		return false
	}
	return true
}

func (v *validator) nonNegative(field string, value float64) {
	if v.finite(field, value) && value < 0 {
		v.add(field, "must be 0 or greater")
	}
}

func (v *validator) oneOf(field, value string, allowed ...string) {
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	if value == "" {
		v.add(field, "is required")
		return
	}
	v.add(field, fmt.Sprintf("must be one of %s, got %q", strings.Join(allowed, ", "), value))
}
