package datetime

import (
	"time"

	"github.com/iwvelando/auto-quote/pkg/constants"
)

// NextQuincena returns the next biweekly cutoff on or after d: the 15th when
// d falls on or before the 15th, otherwise the last day of d's month.
func NextQuincena(d Date) Date {
	if d.Day() <= constants.QuincenaDay {
		return NewDate(d.Year(), d.Month(), constants.QuincenaDay)
	}
	return EndOfMonth(d.Year(), d.Month())
}

// DaysBetween counts calendar days from start (inclusive) to end (exclusive).
// It is zero when the dates are equal or end precedes start.
func DaysBetween(start, end Date) int {
	if !end.After(start) {
		return 0
	}
	return int(end.t.Sub(start.t) / (24 * time.Hour))
}
