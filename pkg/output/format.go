// Package output provides utilities for formatting and displaying quote results.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/iwvelando/auto-quote/pkg/format"
	"github.com/iwvelando/auto-quote/pkg/quote"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// PrettyFormat writes a human-readable summary and schedule table.
func PrettyFormat(w io.Writer, result quote.Result, warnings []string) error {
	p := message.NewPrinter(language.English)
	var b strings.Builder

	in := result.Inputs
	s := result.Summary
	fmt.Fprintf(&b, "--- Auto credit quote as of %s ---\n", in.AsOf)
	summaryLine(&b, "Vehicle value", format.Currency(in.VehicleValue))
	summaryLine(&b, "Down payment", format.Currency(in.DownPayment))
	summaryLine(&b, "Term", fmt.Sprintf("%d months", in.TermMonths))
	summaryLine(&b, "Annual nominal rate", format.Percent(in.Settings.AnnualNominalRate))
	summaryLine(&b, "Principal financed", format.Currency(s.PrincipalFinanced))
	summaryLine(&b, "Principal total", format.Currency(s.PrincipalTotal))
	summaryLine(&b, "Opening fee", fmt.Sprintf("%s + IVA %s = %s",
		format.Currency(s.OpeningFee), format.Currency(s.OpeningFeeIVA), format.Currency(s.OpeningFeeTotal)))
	summaryLine(&b, "GPS initial", fmt.Sprintf("%s + IVA %s = %s",
		format.Currency(s.GPSInitial), format.Currency(s.GPSInitialIVA), format.Currency(s.GPSInitialTotal)))
	summaryLine(&b, "Insurance (cash)", format.Currency(s.InsuranceCash))
	summaryLine(&b, "Initial outlay", format.Currency(s.InitialOutlay))
	summaryLine(&b, "Fixed payment", format.Currency(s.PMTBase))
	summaryLine(&b, "Month 2 payment", format.Currency(s.Month2Payment))
	summaryLine(&b, "First payment", fmt.Sprintf("%s (%d days accrued)", s.FirstPaymentDate, s.StubDays))
	summaryLine(&b, "Last payment", s.LastPaymentDate.String())
	summaryLine(&b, "Total interest", fmt.Sprintf("%s + IVA %s",
		format.Currency(s.TotalInterest), format.Currency(s.TotalInterestIVA)))
	summaryLine(&b, "Total payments", format.Currency(s.TotalPayments))

	for _, warning := range warnings {
		fmt.Fprintf(&b, "WARNING: %s\n", warning)
	}

	b.WriteString("\n")
	fmt.Fprintf(&b, "%-6s | %-10s | %14s | %12s | %10s | %12s | %12s | %8s | %8s | %12s | %14s\n",
		"Period", "Date", "Opening", "Interest", "IVA", "Principal", "Payment", "GPS", "GPS IVA", "Total", "Closing")
	fmt.Fprintf(&b, "%s\n", strings.Repeat("_", 150))
	for _, row := range result.Schedule {
		b.WriteString(p.Sprintf("%-6d | %-10s | %14.2f | %12.2f | %10.2f | %12.2f | %12.2f | %8.2f | %8.2f | %12.2f | %14.2f\n",
			row.Period, row.Date.String(), row.OpeningBalance, row.Interest, row.InterestIVA, row.Principal,
			row.Payment, row.GPSRent, row.GPSRentIVA, row.TotalPayment, row.ClosingBalance))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func summaryLine(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "%-20s %s\n", label+":", value)
}

// SummaryFields lists the summary in export order as field/value pairs.
func SummaryFields(s quote.Summary) [][2]string {
	return [][2]string{
		{"pmt_base", format.Fixed(s.PMTBase)},
		{"month2_payment", format.Fixed(s.Month2Payment)},
		{"first_payment_date", s.FirstPaymentDate.String()},
		{"last_payment_date", s.LastPaymentDate.String()},
		{"principal_financed", format.Fixed(s.PrincipalFinanced)},
		{"principal_total", format.Fixed(s.PrincipalTotal)},
		{"opening_fee", format.Fixed(s.OpeningFee)},
		{"opening_fee_iva", format.Fixed(s.OpeningFeeIVA)},
		{"opening_fee_total", format.Fixed(s.OpeningFeeTotal)},
		{"gps_initial", format.Fixed(s.GPSInitial)},
		{"gps_initial_iva", format.Fixed(s.GPSInitialIVA)},
		{"gps_initial_total", format.Fixed(s.GPSInitialTotal)},
		{"insurance_cash", format.Fixed(s.InsuranceCash)},
		{"initial_outlay", format.Fixed(s.InitialOutlay)},
		{"stub_days", fmt.Sprintf("%d", s.StubDays)},
		{"total_interest", format.Fixed(s.TotalInterest)},
		{"total_interest_iva", format.Fixed(s.TotalInterestIVA)},
		{"total_payments", format.Fixed(s.TotalPayments)},
	}
}

// ScheduleHeader is the column order of the exported schedule.
var ScheduleHeader = []string{
	"period", "date", "opening_balance", "interest", "interest_iva", "principal",
	"payment", "gps_rent", "gps_rent_iva", "total_payment", "closing_balance",
}

// ScheduleRecord renders one schedule row in ScheduleHeader order.
func ScheduleRecord(row quote.PeriodRow) []string {
	return []string{
		fmt.Sprintf("%d", row.Period),
		row.Date.String(),
		format.Fixed(row.OpeningBalance),
		format.Fixed(row.Interest),
		format.Fixed(row.InterestIVA),
		format.Fixed(row.Principal),
		format.Fixed(row.Payment),
		format.Fixed(row.GPSRent),
		format.Fixed(row.GPSRentIVA),
		format.Fixed(row.TotalPayment),
		format.Fixed(row.ClosingBalance),
	}
}

// CsvString renders the summary block, a blank line, and the schedule in
// comma-separated value format. Every figure is the engine's own value.
func CsvString(result quote.Result) string {
	var b strings.Builder
	writeCsvLine(&b, []string{"field", "value"})
	for _, kv := range SummaryFields(result.Summary) {
		writeCsvLine(&b, kv[:])
	}
	b.WriteString("\n")
	writeCsvLine(&b, ScheduleHeader)
	for _, row := range result.Schedule {
		writeCsvLine(&b, ScheduleRecord(row))
	}
	return b.String()
}

// CsvFormat outputs in comma-separated value format.
func CsvFormat(w io.Writer, result quote.Result) error {
	_, err := io.WriteString(w, CsvString(result))
	return err
}

func writeCsvLine(b *strings.Builder, fields []string) {
	for i, field := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(b, `"%s"`, strings.ReplaceAll(field, `"`, `""`))
	}
	b.WriteByte('\n')
}
