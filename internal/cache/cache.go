// Package cache stores computed quote responses keyed by their canonical
// request so identical quotes are served without recomputation.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/iwvelando/auto-quote/pkg/quote"
	"github.com/shopspring/decimal"
)

// KeyPrefix namespaces quote entries in a shared store.
const KeyPrefix = "autoquote:quote:"

// Cache is a store of encoded quote responses. Implementations must be safe
// for concurrent use. A miss is reported as ok == false with a nil error.
type Cache interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// Key returns the cache key for a quote. Amounts are written in their
// shortest decimal form, so requests that differ only in how a number was
// spelled (405900 vs 405900.00) share a key.
func Key(in quote.Inputs, s quote.Settings) string {
	fields := []string{
		num(in.VehicleValue),
		num(in.DownPayment),
		strconv.Itoa(in.TermMonths),
		string(in.Insurance.Mode),
		num(in.Insurance.Amount),
		string(in.Commission.Mode),
		in.AsOf.String(),
		num(s.AnnualNominalRate),
		num(s.IVA),
		num(s.OpeningFeeRate),
		num(s.GPSInitial),
		num(s.GPSMonthly),
		string(s.FirstPaymentRule),
		string(s.DayCount),
		string(s.FinanceInsuranceMode),
		string(s.Method),
		string(s.StubAccrual),
	}
	canonical := strings.Join(fields, "|")
	return fmt.Sprintf("%s%016x", KeyPrefix, xxhash.Sum64String(canonical))
}

func num(v float64) string {
	return decimal.NewFromFloat(v).String()
}
