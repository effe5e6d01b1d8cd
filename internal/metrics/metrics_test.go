package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteRequestsCounter(t *testing.T) {
	counter := QuoteRequests.WithLabelValues("test", OutcomeOK)
	before := testutil.ToFloat64(counter)
	counter.Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestHandlerExposesCollectors(t *testing.T) {
	CacheLookups.WithLabelValues(CacheMiss).Inc()
	TermMonths.Observe(48)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	for _, name := range []string{"autoquote_cache_lookups_total", "autoquote_term_months_bucket"} {
		assert.True(t, strings.Contains(body, name), "missing %s", name)
	}
}
