// Package loans provides the annuity arithmetic shared by quote calculations.
// Nothing here rounds; callers decide where cents are fixed.
package loans

import (
	"math"

	"github.com/iwvelando/auto-quote/pkg/constants"
)

// PMT returns the constant payment that fully amortizes principal over
// periods payments at periodicRate per period (ordinary annuity):
//
//	payment = principal * rate / (1 - (1+rate)^-periods)
//
// A zero rate degrades to straight-line principal / periods.
func PMT(principal, periodicRate float64, periods int) float64 {
	if periods <= 0 {
		return 0
	}
	if periodicRate == 0 {
		return principal / float64(periods)
	}
	discountFactor := 1.00 - math.Pow(1.00+periodicRate, -float64(periods))
	return principal * periodicRate / discountFactor
}

// PeriodicRate converts a nominal annual rate expressed as a fraction
// (0.45 for 45%) into its monthly rate.
func PeriodicRate(annualNominalRate float64) float64 {
	return annualNominalRate / constants.MonthsPerYear
}

// MonthlyInterest calculates the interest accrued on balance over one full
// period.
func MonthlyInterest(balance, periodicRate float64) float64 {
	return balance * periodicRate
}

// DailyInterest calculates the interest accrued on principal over days
// actual days against a 360-day year.
func DailyInterest(principal, annualNominalRate float64, days int) float64 {
	return principal * (annualNominalRate / constants.DaysPerYearBase) * float64(days)
}

