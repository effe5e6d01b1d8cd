package integration

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/iwvelando/auto-quote/internal/config"
	"github.com/iwvelando/auto-quote/internal/server"
	"github.com/iwvelando/auto-quote/pkg/output"
	"github.com/iwvelando/auto-quote/pkg/quote"
	"go.uber.org/zap"
)

const referenceRequest = "../reference_quote.yaml"

// loadReference loads and computes the reference request exactly as the
// command line tool does.
func loadReference(t *testing.T) (*config.Request, quote.Result) {
	t.Helper()

	req, err := config.LoadRequest(referenceRequest)
	if err != nil {
		t.Fatalf("LoadRequest() error = %v", err)
	}

	in, settings, err := req.Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	return req, quote.Compute(in, settings)
}

func TestReferenceQuoteBaseline(t *testing.T) {
	_, result := loadReference(t)

	if len(result.Schedule) != 48 {
		t.Fatalf("Expected 48 periods, got %d", len(result.Schedule))
	}
	if problems := quote.CheckInvariants(result); len(problems) > 0 {
		t.Fatalf("CheckInvariants() = %v", problems)
	}

	baselineChecks := []struct {
		name     string
		actual   float64
		expected float64
	}{
		{"pmt_base", result.Summary.PMTBase, 12850.09},
		{"month2_payment", result.Summary.Month2Payment, 14952.42},
		{"opening_fee_total", result.Summary.OpeningFeeTotal, 9887.72},
		{"initial_outlay", result.Summary.InitialOutlay, 150657.72},
		{"final closing balance", result.Schedule[47].ClosingBalance, 0},
	}
	for _, check := range baselineChecks {
		if math.Abs(check.actual-check.expected) > 0.005 {
			t.Errorf("%s: expected %.2f, got %.2f", check.name, check.expected, check.actual)
		}
	}
}

func TestCSVOutputFormat(t *testing.T) {
	_, result := loadReference(t)

	scanner := bufio.NewScanner(strings.NewReader(output.CsvString(result)))
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("Error reading CSV: %v", err)
	}

	// header, 18 summary fields, blank separator, schedule header, 48 rows
	if len(lines) != 1+18+1+1+48 {
		t.Fatalf("Expected 69 CSV lines, got %d", len(lines))
	}
	if lines[0] != `"field","value"` {
		t.Errorf("Unexpected summary header: %s", lines[0])
	}
	if lines[1] != `"pmt_base","12850.09"` {
		t.Errorf("Unexpected first summary line: %s", lines[1])
	}
	if lines[19] != "" {
		t.Errorf("Expected blank separator, got %s", lines[19])
	}
	if !strings.HasPrefix(lines[20], `"period","date","opening_balance"`) {
		t.Errorf("Unexpected schedule header: %s", lines[20])
	}
	if !strings.HasPrefix(lines[21], `"1","2025-08-15","284130.00"`) {
		t.Errorf("Unexpected first schedule row: %s", lines[21])
	}
	for _, line := range lines[21:] {
		if parts := strings.Split(line, ","); len(parts) != 11 {
			t.Errorf("CSV row should have 11 parts, got %d: %s", len(parts), line)
		}
	}
}

func TestPrettyOutputFormat(t *testing.T) {
	_, result := loadReference(t)

	var buf bytes.Buffer
	if err := output.PrettyFormat(&buf, result, nil); err != nil {
		t.Fatalf("PrettyFormat() error = %v", err)
	}
	text := buf.String()

	for _, want := range []string{"12,850.09", "2025-08-15", "2029-07-15"} {
		if !strings.Contains(text, want) {
			t.Errorf("pretty output missing %q", want)
		}
	}
	if strings.Contains(text, "WARNING:") {
		t.Error("reference quote should not produce warnings")
	}
}

// TestHTTPMatchesCommandLine posts the reference request to the API and
// compares the export to the command line rendering.
func TestHTTPMatchesCommandLine(t *testing.T) {
	req, result := loadReference(t)

	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}

	srv := httptest.NewServer(server.NewHandler(zap.NewNop(), server.DefaultConfig(), nil, "test"))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/quote/export?format=csv", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST error = %v", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	exported, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read export: %v", err)
	}

	if string(exported) != output.CsvString(result) {
		t.Error("HTTP export differs from command line CSV")
	}
}
