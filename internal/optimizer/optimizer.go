// Package optimizer searches for the smallest down payment that keeps a
// quote's recurring monthly payment within a budget.
package optimizer

import (
	"errors"
	"fmt"
	"math"

	"github.com/iwvelando/auto-quote/pkg/format"
	"github.com/iwvelando/auto-quote/pkg/mathutil"
	"github.com/iwvelando/auto-quote/pkg/optimization"
	"github.com/iwvelando/auto-quote/pkg/quote"
	"go.uber.org/zap"
)

// FieldDownPayment is the request field the optimizer adjusts.
const FieldDownPayment = "down_payment_amount"

// Defaults for the bisection.
const (
	DefaultTolerance     = 0.01
	DefaultMaxIterations = 64
)

// ErrInvalidTarget is returned for a non-positive or non-finite budget.
var ErrInvalidTarget = errors.New("target payment must be a positive number")

// Runner evaluates quotes for candidate down payments.
type Runner struct {
	logger        *zap.Logger
	tolerance     float64
	maxIterations int
}

type evaluation struct {
	value   float64
	payment float64
	target  float64
}

func (e evaluation) feasible() bool {
	return e.payment <= e.target
}

func (e evaluation) headroom() float64 {
	return e.target - e.payment
}

// NewRunner returns a Runner using the default tolerance and iteration cap.
func NewRunner(logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{logger: logger, tolerance: DefaultTolerance, maxIterations: DefaultMaxIterations}
}

// MinimumDownPayment finds the smallest down payment, to the cent, whose
// month-2 payment does not exceed target. The returned inputs carry the
// chosen down payment. When no down payment up to the vehicle value meets
// the target, the summary is not converged and the inputs use the full
// vehicle value.
func (r *Runner) MinimumDownPayment(in quote.Inputs, s quote.Settings, target float64) (quote.Inputs, optimization.Summary, error) {
	if !mathutil.IsFinite(target) || target <= 0 {
		return in, optimization.Summary{}, ErrInvalidTarget
	}

	lowerEval := r.evaluate(in, s, 0, target)
	upperEval := r.evaluate(in, s, in.VehicleValue, target)

	iterations := 0
	finalEval := lowerEval
	switch {
	case lowerEval.feasible():
	case !upperEval.feasible():
		finalEval = upperEval
	default:
		finalEval = upperEval
		lower := lowerEval.value
		upper := upperEval.value
		for iterations < r.maxIterations && upper-lower > r.tolerance {
			mid := lower + (upper-lower)/2
			evalMid := r.evaluate(in, s, mid, target)
			iterations++
			if evalMid.feasible() {
				finalEval = evalMid
				upper = mid
			} else {
				lower = mid
			}
		}
		finalEval = r.snapToCent(in, s, lower, finalEval, target)
	}

	summary := optimization.Summary{
		Field:          FieldDownPayment,
		Original:       in.DownPayment,
		Value:          finalEval.value,
		TargetPayment:  target,
		Payment:        finalEval.payment,
		Headroom:       finalEval.headroom(),
		Iterations:     iterations,
		Converged:      finalEval.feasible(),
		ValueDisplay:   format.Currency(finalEval.value),
		PaymentDisplay: format.Currency(finalEval.payment),
	}
	if !summary.Converged {
		summary.Notes = []string{fmt.Sprintf(
			"unable to reach payment %s with a down payment between %s and %s",
			format.Currency(target), format.Currency(0), format.Currency(in.VehicleValue),
		)}
	}

	r.logger.Debug("down payment search finished",
		zap.String("op", "optimizer.MinimumDownPayment"),
		zap.Float64("target", target),
		zap.Float64("down_payment", summary.Value),
		zap.Float64("payment", summary.Payment),
		zap.Int("iterations", iterations),
		zap.Bool("converged", summary.Converged),
	)

	in.DownPayment = finalEval.value
	return in, summary, nil
}

// snapToCent rounds a feasible bisection result to whole cents, keeping the
// smallest cent value above lower that still meets the target.
func (r *Runner) snapToCent(in quote.Inputs, s quote.Settings, lower float64, feasible evaluation, target float64) evaluation {
	snapped := r.evaluate(in, s, math.Min(math.Ceil(feasible.value*100)/100, in.VehicleValue), target)
	for !snapped.feasible() && snapped.value < in.VehicleValue {
		snapped = r.evaluate(in, s, math.Min(snapped.value+0.01, in.VehicleValue), target)
	}
	if below := math.Round(snapped.value*100-1) / 100; below > lower {
		if candidate := r.evaluate(in, s, below, target); candidate.feasible() {
			return candidate
		}
	}
	return snapped
}

func (r *Runner) evaluate(in quote.Inputs, s quote.Settings, downPayment, target float64) evaluation {
	in.DownPayment = downPayment
	result := quote.Compute(in, s)
	return evaluation{value: downPayment, payment: result.Summary.Month2Payment, target: target}
}
