package config

import (
	"fmt"

	"github.com/iwvelando/auto-quote/pkg/datetime"
	"github.com/iwvelando/auto-quote/pkg/quote"
	"github.com/iwvelando/auto-quote/pkg/validation"
)

// ValidationRequest converts the request to the shape pkg/validation checks.
func (r *Request) ValidationRequest() validation.QuoteRequest {
	gps := 0.0
	if r.Settings.GPSMonthly != nil {
		gps = *r.Settings.GPSMonthly
	}
	return validation.QuoteRequest{
		VehicleValue:    r.VehicleValue,
		DownPayment:     r.DownPaymentAmount,
		TermMonths:      r.TermMonths,
		InsuranceMode:   r.Insurance.Mode,
		InsuranceAmount: r.Insurance.Amount,
		CommissionMode:  r.Commission.Mode,
		AsOf:            r.AsOf,
		Settings: validation.SettingsRequest{
			AnnualNominalRate:    r.Settings.AnnualNominalRate,
			IVA:                  r.Settings.IVA,
			OpeningFeeRate:       r.Settings.OpeningFeeRate,
			GPSInitial:           r.Settings.GPSInitial,
			GPSMonthly:           gps,
			FirstPaymentRule:     r.Settings.FirstPaymentRule,
			DayCount:             r.Settings.DayCount,
			FinanceInsuranceMode: r.Settings.FinanceInsuranceMode,
			Method:               r.Settings.Method,
			StubAccrual:          r.Settings.StubAccrual,
		},
	}
}

// Validate returns a *validation.Error listing every problem with the
// request, or nil.
func (r *Request) Validate() error {
	return validation.CheckRequest(r.ValidationRequest())
}

// ToInputs converts the request to engine inputs.
func (r *Request) ToInputs() (quote.Inputs, error) {
	asOf, err := datetime.ParseDate(r.AsOf)
	if err != nil {
		return quote.Inputs{}, fmt.Errorf("as_of: %w", err)
	}
	return quote.Inputs{
		VehicleValue: r.VehicleValue,
		DownPayment:  r.DownPaymentAmount,
		TermMonths:   r.TermMonths,
		Insurance: quote.Insurance{
			Mode:   quote.InsuranceMode(r.Insurance.Mode),
			Amount: r.Insurance.Amount,
		},
		Commission: quote.Commission{Mode: quote.CommissionMode(r.Commission.Mode)},
		AsOf:       asOf,
	}, nil
}

// ToSettings converts the request settings to engine settings.
func (r *Request) ToSettings() quote.Settings {
	s := quote.Settings{
		AnnualNominalRate:    r.Settings.AnnualNominalRate,
		IVA:                  r.Settings.IVA,
		OpeningFeeRate:       r.Settings.OpeningFeeRate,
		GPSInitial:           r.Settings.GPSInitial,
		FirstPaymentRule:     quote.FirstPaymentRule(r.Settings.FirstPaymentRule),
		DayCount:             quote.DayCount(r.Settings.DayCount),
		FinanceInsuranceMode: quote.FinanceInsuranceMode(r.Settings.FinanceInsuranceMode),
		Method:               quote.Method(r.Settings.Method),
		StubAccrual:          quote.StubAccrual(r.Settings.StubAccrual),
	}
	if r.Settings.GPSMonthly != nil {
		s.GPSMonthly = *r.Settings.GPSMonthly
	}
	return s
}

// Prepare applies defaults, validates, and converts the request for the
// engine.
func (r *Request) Prepare() (quote.Inputs, quote.Settings, error) {
	r.ApplyDefaults()
	if err := r.Validate(); err != nil {
		return quote.Inputs{}, quote.Settings{}, err
	}
	in, err := r.ToInputs()
	if err != nil {
		return quote.Inputs{}, quote.Settings{}, err
	}
	return in, r.ToSettings(), nil
}
