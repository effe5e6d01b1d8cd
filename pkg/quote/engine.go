package quote

import (
	"github.com/iwvelando/auto-quote/pkg/datetime"
	"github.com/iwvelando/auto-quote/pkg/loans"
	"github.com/iwvelando/auto-quote/pkg/mathutil"
)

// Compute produces the summary and amortization schedule for a quote.
//
// Every monetary figure is rounded to cents where it is computed and later
// figures are derived from the rounded values. The fixed payment is rounded
// once and reused for every period. The first period runs from the quote date
// to the next quincena and, under MethodProrated, accrues interest on actual
// days over a 360-day year; later periods accrue a full month each. Any
// residual left on the last closing balance is folded into the last
// principal portion.
//
// Inputs must already be validated: a positive vehicle value and term, a
// down payment no larger than the vehicle value, non-negative rates and
// amounts.
func Compute(in Inputs, s Settings) Result {
	financedVehicle := mathutil.Round(in.VehicleValue - in.DownPayment)
	financedTotal := financedVehicle
	cashInsurance := 0.0
	if in.Insurance.Mode == InsuranceFinanced {
		financedTotal = mathutil.Round(financedVehicle + in.Insurance.Amount)
	} else {
		cashInsurance = mathutil.Round(in.Insurance.Amount)
	}

	summary := Summary{
		PrincipalFinanced: financedVehicle,
		PrincipalTotal:    financedTotal,
		InsuranceCash:     cashInsurance,
	}

	summary.OpeningFee = mathutil.Round(s.OpeningFeeRate * financedTotal)
	summary.OpeningFeeIVA = mathutil.Round(summary.OpeningFee * s.IVA)
	summary.OpeningFeeTotal = mathutil.Round(summary.OpeningFee + summary.OpeningFeeIVA)
	summary.GPSInitial = mathutil.Round(s.GPSInitial)
	summary.GPSInitialIVA = mathutil.Round(s.GPSInitial * s.IVA)
	summary.GPSInitialTotal = mathutil.Round(s.GPSInitial * (1 + s.IVA))
	summary.InitialOutlay = mathutil.Round(in.DownPayment + summary.OpeningFeeTotal +
		summary.GPSInitialTotal + cashInsurance)

	periodicRate := loans.PeriodicRate(s.AnnualNominalRate)
	payment := mathutil.Round(loans.PMT(financedTotal, periodicRate, in.TermMonths))
	summary.PMTBase = payment

	firstPaymentDate := datetime.NextQuincena(in.AsOf)
	summary.StubDays = stubDays(in.AsOf, firstPaymentDate, s.StubAccrual)

	schedule := amortize(financedTotal, payment, periodicRate, firstPaymentDate, summary.StubDays, in.TermMonths, s)
	correctTerminalBalance(schedule)

	summary.FirstPaymentDate = firstPaymentDate
	if len(schedule) > 0 {
		summary.LastPaymentDate = schedule[len(schedule)-1].Date
		summary.Month2Payment = headlinePayment(schedule)
	}
	for _, row := range schedule {
		summary.TotalInterest = mathutil.Round(summary.TotalInterest + row.Interest)
		summary.TotalInterestIVA = mathutil.Round(summary.TotalInterestIVA + row.InterestIVA)
		summary.TotalPayments = mathutil.Round(summary.TotalPayments + row.TotalPayment)
	}

	return Result{
		Summary:  summary,
		Schedule: schedule,
		Inputs:   Echo{Inputs: in, Settings: s},
	}
}

// stubDays is the number of days the first period accrues.
func stubDays(asOf, firstPaymentDate datetime.Date, accrual StubAccrual) int {
	days := datetime.DaysBetween(asOf, firstPaymentDate)
	if accrual != StubExclusive {
		days++
	}
	return days
}

func amortize(principal, payment, periodicRate float64, firstPaymentDate datetime.Date,
	stubDays, termMonths int, s Settings) []PeriodRow {
	if termMonths <= 0 {
		return nil
	}

	gpsRent := s.GPSMonthly
	gpsRentIVA := mathutil.Round(s.GPSMonthly * s.IVA)

	schedule := make([]PeriodRow, 0, termMonths)
	balance := principal
	date := firstPaymentDate
	for period := 1; period <= termMonths; period++ {
		var interest float64
		switch {
		case period > 1:
			date = date.AddMonths(1)
			interest = loans.MonthlyInterest(balance, periodicRate)
		case s.Method == MethodFlat:
			interest = loans.MonthlyInterest(balance, periodicRate)
		default:
			interest = loans.DailyInterest(balance, s.AnnualNominalRate, stubDays)
		}

		row := PeriodRow{
			Period:         period,
			Date:           date,
			OpeningBalance: balance,
			Interest:       mathutil.Round(interest),
			Payment:        payment,
			GPSRent:        gpsRent,
			GPSRentIVA:     gpsRentIVA,
		}
		row.InterestIVA = mathutil.Round(row.Interest * s.IVA)
		row.Principal = mathutil.Round(payment - row.Interest)
		row.ClosingBalance = mathutil.Round(balance - row.Principal)
		row.TotalPayment = totalPayment(row, s.Method)

		schedule = append(schedule, row)
		balance = row.ClosingBalance
	}
	return schedule
}

// totalPayment is what the borrower pays for a period. The fixed payment
// already covers principal and pre-tax interest; only taxes and GPS rent are
// layered on top.
func totalPayment(row PeriodRow, method Method) float64 {
	total := row.Payment + row.InterestIVA + row.GPSRent
	if method != MethodFlat {
		total += row.GPSRentIVA
	}
	return mathutil.Round(total)
}

// correctTerminalBalance absorbs accumulated rounding into the last
// principal portion so the loan closes at zero. Balances are whole cents, so
// any non-zero residual is at least one cent.
func correctTerminalBalance(schedule []PeriodRow) {
	if len(schedule) == 0 {
		return
	}
	last := &schedule[len(schedule)-1]
	if last.ClosingBalance == 0 {
		return
	}
	last.Principal = mathutil.Round(last.Principal + last.ClosingBalance)
	last.ClosingBalance = mathutil.Round(last.OpeningBalance - last.Principal)
}

// headlinePayment is the second period's total payment, the first regular
// month after the irregular stub. Single-period quotes fall back to period 1.
func headlinePayment(schedule []PeriodRow) float64 {
	if len(schedule) >= 2 {
		return schedule[1].TotalPayment
	}
	return schedule[0].TotalPayment
}
