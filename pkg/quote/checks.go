package quote

import (
	"fmt"
	"math"

	"github.com/iwvelando/auto-quote/pkg/constants"
	"github.com/iwvelando/auto-quote/pkg/mathutil"
)

// Warnings lists accepted settings that do not behave the way their name
// suggests.
func Warnings(in Inputs, s Settings) []string {
	var warnings []string
	if s.FinanceInsuranceMode == SubLoan12M && in.Insurance.Mode == InsuranceFinanced {
		warnings = append(warnings, fmt.Sprintf(
			"finance_insurance_mode %s is not computed; insurance of %.2f was added to principal",
			SubLoan12M, in.Insurance.Amount))
	}
	if s.Method == MethodFlat {
		warnings = append(warnings,
			"method flat charges a full month of interest in period 1 and excludes GPS tax from totals")
	}
	return warnings
}

// CheckInvariants verifies the structural guarantees of a schedule and
// returns one message per violation.
func CheckInvariants(r Result) []string {
	var problems []string

	term := r.Inputs.TermMonths
	if len(r.Schedule) != term {
		problems = append(problems, fmt.Sprintf("schedule has %d rows, expected %d", len(r.Schedule), term))
	}

	for i, row := range r.Schedule {
		if row.Period != i+1 {
			problems = append(problems, fmt.Sprintf("row %d has period %d", i+1, row.Period))
		}
		if i > 0 && row.OpeningBalance != r.Schedule[i-1].ClosingBalance {
			problems = append(problems, fmt.Sprintf("period %d opens at %.2f but period %d closed at %.2f",
				row.Period, row.OpeningBalance, i, r.Schedule[i-1].ClosingBalance))
		}
		if !mathutil.WithinTolerance(row.ClosingBalance, mathutil.Round(row.OpeningBalance-row.Principal), 0.001) {
			problems = append(problems, fmt.Sprintf("period %d closes at %.2f, expected %.2f",
				row.Period, row.ClosingBalance, row.OpeningBalance-row.Principal))
		}
		if i > 0 && !row.Date.After(r.Schedule[i-1].Date) {
			problems = append(problems, fmt.Sprintf("period %d date %s does not follow %s",
				row.Period, row.Date, r.Schedule[i-1].Date))
		}
	}

	if n := len(r.Schedule); n > 0 {
		if last := r.Schedule[n-1].ClosingBalance; math.Abs(last) >= constants.CurrencyTolerance {
			problems = append(problems, fmt.Sprintf("final closing balance %.2f is not zero", last))
		}
	}
	return problems
}
