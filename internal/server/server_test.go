package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/iwvelando/auto-quote/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const referenceBody = `{
  "vehicle_value": 405900,
  "down_payment_amount": 121770,
  "term_months": 48,
  "insurance": {"mode": "cash", "amount": 19000},
  "commission": {"mode": "cash"},
  "as_of": "2025-08-11",
  "settings": {
    "annual_nominal_rate": 0.45,
    "iva": 0.16,
    "opening_fee_rate": 0.03,
    "gps_initial": 0,
    "first_payment_rule": "next_quincena",
    "day_count": "ACT360"
  }
}`

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	return NewHandler(zap.NewNop(), DefaultConfig(), cache.NewMemory(time.Minute), "test")
}

func post(h http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func readAPIError(t *testing.T, rr *httptest.ResponseRecorder) apiError {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp), rr.Body.String())
	return resp.Error
}

func issueFields(e apiError) []string {
	fields := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		fields = append(fields, issue.Field)
	}
	return fields
}

func TestHandleQuoteSuccess(t *testing.T) {
	rr := post(newTestHandler(t), "/api/quote", referenceBody)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Equal(t, "MISS", rr.Header().Get(CacheHeader))

	var resp quoteResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))

	require.Len(t, resp.Schedule, 48)
	assert.Equal(t, 12850.09, resp.Summary.PMTBase)
	assert.Equal(t, 14952.42, resp.Summary.Month2Payment)
	assert.Equal(t, 150657.72, resp.Summary.InitialOutlay)
	assert.Equal(t, "2025-08-15", resp.Summary.FirstPaymentDate.String())
	assert.Equal(t, 1775.81, resp.Schedule[0].Interest)
	assert.Equal(t, 0.0, resp.Schedule[47].ClosingBalance)
	assert.Empty(t, resp.Warnings)

	assert.Equal(t, 405900.0, resp.Inputs.VehicleValue)
	assert.Equal(t, 400.0, resp.Inputs.Settings.GPSMonthly)
	assert.Equal(t, "add_to_principal", string(resp.Inputs.Settings.FinanceInsuranceMode))
}

func TestHandleQuoteResponseShape(t *testing.T) {
	rr := post(newTestHandler(t), "/api/quote", referenceBody)
	require.Equal(t, http.StatusOK, rr.Code)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &raw))
	for _, key := range []string{"summary", "schedule", "inputs"} {
		assert.Contains(t, raw, key)
	}

	var summary map[string]interface{}
	require.NoError(t, json.Unmarshal(raw["summary"], &summary))
	for _, key := range []string{
		"pmt_base", "month2_payment", "first_payment_date", "last_payment_date",
		"principal_financed", "principal_total", "opening_fee", "opening_fee_iva",
		"gps_initial", "gps_initial_iva", "insurance_cash", "initial_outlay",
	} {
		assert.Contains(t, summary, key)
	}

	var inputs map[string]interface{}
	require.NoError(t, json.Unmarshal(raw["inputs"], &inputs))
	assert.Contains(t, inputs, "down_payment_amount")
	assert.Contains(t, inputs, "settings")
	assert.Equal(t, "2025-08-11", inputs["as_of"])
}

func TestHandleQuoteCache(t *testing.T) {
	mem := cache.NewMemory(time.Minute)
	h := NewHandler(zap.NewNop(), DefaultConfig(), mem, "test")

	first := post(h, "/api/quote", referenceBody)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get(CacheHeader))
	assert.Equal(t, 1, mem.Len())

	// Same quote written differently.
	respelled := strings.Replace(referenceBody, `"vehicle_value": 405900`, `"vehicle_value": 405900.00`, 1)
	second := post(h, "/api/quote", respelled)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "HIT", second.Header().Get(CacheHeader))
	assert.Equal(t, first.Body.String(), second.Body.String())

	changed := strings.Replace(referenceBody, `"term_months": 48`, `"term_months": 36`, 1)
	third := post(h, "/api/quote", changed)
	require.Equal(t, http.StatusOK, third.Code)
	assert.Equal(t, "MISS", third.Header().Get(CacheHeader))
	assert.Equal(t, 2, mem.Len())
}

func TestHandleQuoteWithoutCache(t *testing.T) {
	h := NewHandler(zap.NewNop(), nil, nil, "")

	for i := 0; i < 2; i++ {
		rr := post(h, "/api/quote", referenceBody)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "MISS", rr.Header().Get(CacheHeader))
	}
}

func TestHandleQuoteCacheFailureIsNotFatal(t *testing.T) {
	unreachable := cache.NewRedis(cache.RedisOptions{
		Address: "127.0.0.1:1",
		Timeout: 50 * time.Millisecond,
	})
	defer func() { _ = unreachable.Close() }()

	h := NewHandler(zap.NewNop(), DefaultConfig(), unreachable, "test")
	rr := post(h, "/api/quote", referenceBody)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "MISS", rr.Header().Get(CacheHeader))
}

func TestHandleQuoteFinancedSubLoanWarns(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("..", "..", "test", "financed_quote.json"))
	require.NoError(t, err)

	rr := post(newTestHandler(t), "/api/quote", string(data))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp quoteResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 302130.0, resp.Summary.PrincipalTotal)
	assert.Equal(t, 13664.16, resp.Summary.PMTBase)
	require.Len(t, resp.Warnings, 1)
	assert.Contains(t, resp.Warnings[0], "12m_subloan")
}

func TestHandleQuoteValidation(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		fields []string
	}{
		{
			name: "Down payment above value and zero term",
			body: strings.NewReplacer(
				`"down_payment_amount": 121770`, `"down_payment_amount": 500000`,
				`"term_months": 48`, `"term_months": 0`,
			).Replace(referenceBody),
			status: http.StatusBadRequest,
			fields: []string{"down_payment_amount", "term_months"},
		},
		{
			name:   "Unsupported day count",
			body:   strings.Replace(referenceBody, `"ACT360"`, `"30/360"`, 1),
			status: http.StatusBadRequest,
			fields: []string{"settings.day_count"},
		},
		{
			name:   "Wrong type",
			body:   strings.Replace(referenceBody, `"term_months": 48`, `"term_months": "48"`, 1),
			status: http.StatusBadRequest,
			fields: []string{"term_months"},
		},
		{
			name:   "Unknown field",
			body:   strings.Replace(referenceBody, `"term_months": 48`, `"term_months": 48, "tenor": 4`, 1),
			status: http.StatusBadRequest,
			fields: []string{"body"},
		},
		{
			name:   "Malformed JSON",
			body:   `{"vehicle_value": `,
			status: http.StatusBadRequest,
			fields: []string{"body"},
		},
		{
			name:   "Empty body",
			body:   ``,
			status: http.StatusBadRequest,
			fields: []string{"body"},
		},
		{
			name:   "Two objects",
			body:   referenceBody + referenceBody,
			status: http.StatusBadRequest,
			fields: []string{"body"},
		},
		{
			name:   "Missing as_of",
			body:   strings.Replace(referenceBody, `"as_of": "2025-08-11",`, ``, 1),
			status: http.StatusBadRequest,
			fields: []string{"as_of"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := post(newTestHandler(t), "/api/quote", tt.body)
			require.Equal(t, tt.status, rr.Code, rr.Body.String())

			e := readAPIError(t, rr)
			assert.Equal(t, CodeValidation, e.Code)
			assert.NotEmpty(t, e.Message)
			assert.Equal(t, tt.fields, issueFields(e))
		})
	}
}

func TestHandleQuoteBodyTooLarge(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SetBodySizeBytes(64)
	h := NewHandler(zap.NewNop(), cfg, nil, "test")

	rr := post(h, "/api/quote", referenceBody)
	require.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)

	e := readAPIError(t, rr)
	assert.Equal(t, CodeValidation, e.Code)
	require.Len(t, e.Issues, 1)
	assert.Contains(t, e.Issues[0].Message, "64 bytes")
}

func TestHandleQuoteMethodNotAllowed(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestHandler(t).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/quote", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestHandleExportCSV(t *testing.T) {
	rr := post(newTestHandler(t), "/api/quote/export?format=csv", referenceBody)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "text/csv; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), `filename="quote-2025-08-11.csv"`)

	body := rr.Body.String()
	assert.Contains(t, body, `"month2_payment","14952.42"`)
	assert.Contains(t, body, `"2","2025-09-15","273055.72","10239.59","1638.33","2610.50","12850.09","400.00","64.00","14952.42","270445.22"`)
	assert.Equal(t, 1+18+1+1+48, strings.Count(body, "\n"))
}

func TestHandleExportMatchesQuote(t *testing.T) {
	h := newTestHandler(t)

	quoteResp := post(h, "/api/quote", referenceBody)
	require.Equal(t, http.StatusOK, quoteResp.Code)
	var resp quoteResponse
	require.NoError(t, json.Unmarshal(quoteResp.Body.Bytes(), &resp))

	export := post(h, "/api/quote/export", referenceBody)
	require.Equal(t, http.StatusOK, export.Code)
	assert.Equal(t, "HIT", export.Header().Get(CacheHeader))

	last := resp.Schedule[len(resp.Schedule)-1]
	assert.Contains(t, export.Body.String(), `"48","`+last.Date.String()+`"`)
}

func TestHandleExportPretty(t *testing.T) {
	rr := post(newTestHandler(t), "/api/quote/export?format=pretty", referenceBody)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Body.String(), "Month 2 payment:     $14,952.42")
}

func TestHandleExportUnsupportedFormat(t *testing.T) {
	rr := post(newTestHandler(t), "/api/quote/export?format=xlsx", referenceBody)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	e := readAPIError(t, rr)
	assert.Equal(t, CodeValidation, e.Code)
	assert.Equal(t, []string{"format"}, issueFields(e))
}

func TestHandleVersion(t *testing.T) {
	h := NewHandler(zap.NewNop(), DefaultConfig(), nil, " 1.2.3 ")

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/version", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "1.2.3", resp["version"])
}

func TestHandleHealthAndMetrics(t *testing.T) {
	h := newTestHandler(t)
	post(h, "/api/quote", referenceBody)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "autoquote_quote_requests_total")
	assert.Contains(t, rr.Body.String(), "autoquote_compute_seconds")
}

func TestCORSPreflight(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CORS.AllowedOrigins = []string{"https://quotes.example.com"}
	h := NewHandler(zap.NewNop(), cfg, nil, "test")

	req := httptest.NewRequest(http.MethodOptions, "/api/quote", nil)
	req.Header.Set("Origin", "https://quotes.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, "https://quotes.example.com", rr.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/quote", nil)
	req.Header.Set("Origin", "https://elsewhere.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecoverInternal(t *testing.T) {
	h := &handler{logger: zap.NewNop()}
	panicking := h.recoverInternal(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	panicking.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/quote", nil))
	require.Equal(t, http.StatusInternalServerError, rr.Code)

	e := readAPIError(t, rr)
	assert.Equal(t, CodeInternal, e.Code)
	assert.Empty(t, e.Issues)
}

func TestSolveFindsMinimumDownPayment(t *testing.T) {
	h := newTestHandler(t)

	rr := post(h, "/api/quote/solve?target_payment=14952.42", referenceBody)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp struct {
		Optimization struct {
			Field     string  `json:"field"`
			Value     float64 `json:"value"`
			Payment   float64 `json:"payment"`
			Converged bool    `json:"converged"`
		} `json:"optimization"`
		Quote quoteResponse `json:"quote"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))

	assert.True(t, resp.Optimization.Converged)
	assert.Equal(t, "down_payment_amount", resp.Optimization.Field)
	assert.Equal(t, 121769.90, resp.Optimization.Value)
	assert.LessOrEqual(t, resp.Optimization.Payment, 14952.42)
	assert.Equal(t, 121769.90, resp.Quote.Inputs.DownPayment)
	assert.Equal(t, resp.Optimization.Payment, resp.Quote.Summary.Month2Payment)
}

func TestSolveRejectsBadTarget(t *testing.T) {
	h := newTestHandler(t)

	for _, query := range []string{"", "?target_payment=abc", "?target_payment=-5"} {
		rr := post(h, "/api/quote/solve"+query, referenceBody)
		require.Equal(t, http.StatusBadRequest, rr.Code, query)
		assert.Equal(t, []string{"target_payment"}, issueFields(readAPIError(t, rr)), query)
	}
}
