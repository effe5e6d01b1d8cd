// Package quote computes auto credit quotes: the one-time charges, the fixed
// monthly payment and the full amortization schedule for a financed vehicle.
package quote

import "github.com/iwvelando/auto-quote/pkg/datetime"

// InsuranceMode says how the insurance premium is paid.
type InsuranceMode string

const (
	InsuranceCash     InsuranceMode = "cash"
	InsuranceFinanced InsuranceMode = "financed"
)

// CommissionMode says how the opening commission is paid. It is carried with
// the quote but does not alter any figure.
type CommissionMode string

const (
	CommissionCash     CommissionMode = "cash"
	CommissionFinanced CommissionMode = "financed"
)

// FirstPaymentRule anchors the first payment date.
type FirstPaymentRule string

const RuleNextQuincena FirstPaymentRule = "next_quincena"

// DayCount names the interest day-count convention. Both supported values
// accrue actual days over a 360-day year.
type DayCount string

const (
	DayCountA360   DayCount = "A360"
	DayCountACT360 DayCount = "ACT360"
)

// FinanceInsuranceMode selects how financed insurance enters the loan.
type FinanceInsuranceMode string

const (
	AddToPrincipal FinanceInsuranceMode = "add_to_principal"
	// SubLoan12M is declared for compatibility only; it is computed as
	// AddToPrincipal.
	SubLoan12M FinanceInsuranceMode = "12m_subloan"
)

// Method selects the amortization variant.
type Method string

const (
	// MethodProrated accrues the first period on actual days to the first
	// quincena and layers interest tax and GPS tax onto every payment.
	MethodProrated Method = "prorated"
	// MethodFlat charges a full month of interest in period one and leaves GPS
	// tax out of the payment total. It reproduces the export-path figures and
	// is only used when asked for by name.
	MethodFlat Method = "flat"
)

// StubAccrual says whether the quote day itself accrues interest in the
// first period.
type StubAccrual string

const (
	StubInclusive StubAccrual = "inclusive"
	StubExclusive StubAccrual = "exclusive"
)

// Insurance is the insurance premium and how it is paid.
type Insurance struct {
	Mode   InsuranceMode `json:"mode" yaml:"mode"`
	Amount float64       `json:"amount" yaml:"amount"`
}

// Commission is the opening commission treatment.
type Commission struct {
	Mode CommissionMode `json:"mode" yaml:"mode"`
}

// Inputs are the commercial terms of one quote.
type Inputs struct {
	VehicleValue float64       `json:"vehicle_value" yaml:"vehicle_value"`
	DownPayment  float64       `json:"down_payment_amount" yaml:"down_payment_amount"`
	TermMonths   int           `json:"term_months" yaml:"term_months"`
	Insurance    Insurance     `json:"insurance" yaml:"insurance"`
	Commission   Commission    `json:"commission" yaml:"commission"`
	AsOf         datetime.Date `json:"as_of" yaml:"as_of"`
}

// Settings are the pricing policy parameters. Zero values of the string
// enums select the canonical behavior.
type Settings struct {
	AnnualNominalRate    float64              `json:"annual_nominal_rate" yaml:"annual_nominal_rate"`
	IVA                  float64              `json:"iva" yaml:"iva"`
	OpeningFeeRate       float64              `json:"opening_fee_rate" yaml:"opening_fee_rate"`
	GPSInitial           float64              `json:"gps_initial" yaml:"gps_initial"`
	GPSMonthly           float64              `json:"gps_monthly" yaml:"gps_monthly"`
	FirstPaymentRule     FirstPaymentRule     `json:"first_payment_rule" yaml:"first_payment_rule"`
	DayCount             DayCount             `json:"day_count" yaml:"day_count"`
	FinanceInsuranceMode FinanceInsuranceMode `json:"finance_insurance_mode" yaml:"finance_insurance_mode"`
	Method               Method               `json:"method" yaml:"method"`
	StubAccrual          StubAccrual          `json:"stub_accrual" yaml:"stub_accrual"`
}

// Summary holds the one-time and recurring headline figures of a quote.
type Summary struct {
	PMTBase           float64       `json:"pmt_base"`
	Month2Payment     float64       `json:"month2_payment"`
	FirstPaymentDate  datetime.Date `json:"first_payment_date"`
	LastPaymentDate   datetime.Date `json:"last_payment_date"`
	PrincipalFinanced float64       `json:"principal_financed"`
	PrincipalTotal    float64       `json:"principal_total"`
	OpeningFee        float64       `json:"opening_fee"`
	OpeningFeeIVA     float64       `json:"opening_fee_iva"`
	OpeningFeeTotal   float64       `json:"opening_fee_total"`
	GPSInitial        float64       `json:"gps_initial"`
	GPSInitialIVA     float64       `json:"gps_initial_iva"`
	GPSInitialTotal   float64       `json:"gps_initial_total"`
	InsuranceCash     float64       `json:"insurance_cash"`
	InitialOutlay     float64       `json:"initial_outlay"`
	StubDays          int           `json:"stub_days"`
	TotalInterest     float64       `json:"total_interest"`
	TotalInterestIVA  float64       `json:"total_interest_iva"`
	TotalPayments     float64       `json:"total_payments"`
}

// PeriodRow is one line of the amortization schedule.
type PeriodRow struct {
	Period         int           `json:"period"`
	Date           datetime.Date `json:"date"`
	OpeningBalance float64       `json:"opening_balance"`
	Interest       float64       `json:"interest"`
	InterestIVA    float64       `json:"interest_iva"`
	Principal      float64       `json:"principal"`
	Payment        float64       `json:"payment"`
	GPSRent        float64       `json:"gps_rent"`
	GPSRentIVA     float64       `json:"gps_rent_iva"`
	TotalPayment   float64       `json:"total_payment"`
	ClosingBalance float64       `json:"closing_balance"`
}

// Echo is the input and settings a result was computed from.
type Echo struct {
	Inputs
	Settings Settings `json:"settings"`
}

// Result is a computed quote.
type Result struct {
	Summary  Summary     `json:"summary"`
	Schedule []PeriodRow `json:"schedule"`
	Inputs   Echo        `json:"inputs"`
}

// Row returns the schedule row for the 1-based period.
func (r Result) Row(period int) (PeriodRow, bool) {
	if period < 1 || period > len(r.Schedule) {
		return PeriodRow{}, false
	}
	return r.Schedule[period-1], true
}
