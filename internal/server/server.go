// Package server exposes the quote engine over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/iwvelando/auto-quote/internal/cache"
	"github.com/iwvelando/auto-quote/internal/config"
	"github.com/iwvelando/auto-quote/internal/metrics"
	"github.com/iwvelando/auto-quote/internal/optimizer"
	"github.com/iwvelando/auto-quote/pkg/constants"
	"github.com/iwvelando/auto-quote/pkg/optimization"
	"github.com/iwvelando/auto-quote/pkg/output"
	"github.com/iwvelando/auto-quote/pkg/quote"
	"github.com/iwvelando/auto-quote/pkg/validation"
	"go.uber.org/zap"
)

// Error codes returned in the error body.
const (
	CodeValidation = "VALIDATION"
	CodeInternal   = "INTERNAL"
)

// CacheHeader reports whether a quote was served from the cache.
const CacheHeader = "X-Quote-Cache"

type handler struct {
	logger      *zap.Logger
	maxBodySize int64
	version     string
	cache       cache.Cache
}

// NewHandler constructs the HTTP handler that serves the quote API. A nil
// cache disables caching.
func NewHandler(logger *zap.Logger, cfg *Config, c cache.Cache, version string) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}

	maxBodySize := cfg.BodySizeBytes()
	if maxBodySize <= 0 {
		maxBodySize = constants.DefaultMaxBodySizeBytes
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{logger: logger, maxBodySize: maxBodySize, version: trimmedVersion, cache: c}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.logRequests)
	r.Use(h.recoverInternal)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{CacheHeader, "Content-Disposition"},
		MaxAge:         300,
	}))

	r.Get("/healthz", h.handleHealth)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/version", h.handleVersion)
		r.Post("/quote", h.handleQuote)
		r.Post("/quote/export", h.handleExport)
		r.Post("/quote/solve", h.handleSolve)
	})

	return r
}

type quoteResponse struct {
	quote.Result
	Warnings []string `json:"warnings,omitempty"`
}

type solveResponse struct {
	Optimization optimization.Summary `json:"optimization"`
	Quote        json.RawMessage      `json:"quote"`
}

type errorResponse struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Code    string             `json:"code"`
	Message string             `json:"message"`
	Issues  []validation.Issue `json:"issues,omitempty"`
}

func (h *handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) handleVersion(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) handleQuote(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleQuote"

	body, hit, ok := h.quoteFromRequest(w, r, "quote", op)
	if !ok {
		return
	}

	metrics.QuoteRequests.WithLabelValues("quote", metrics.OutcomeOK).Inc()
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(CacheHeader, cacheStatus(hit))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		h.logger.Warn("failed to write quote response",
			zap.String("op", op),
			zap.Error(err),
		)
	}
}

func (h *handler) handleExport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleExport"

	format := r.URL.Query().Get("format")
	if format == "" {
		format = constants.OutputFormatCSV
	}
	if err := validation.ValidateOutputFormat(format); err != nil {
		h.respondValidation(w, http.StatusBadRequest, "export", &validation.Error{
			Issues: []validation.Issue{{Field: "format", Message: err.Error()}},
		}, op)
		return
	}

	body, hit, ok := h.quoteFromRequest(w, r, "export", op)
	if !ok {
		return
	}

	var resp quoteResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		h.respondInternal(w, "export", fmt.Errorf("decode quote for export: %w", err), op)
		return
	}

	metrics.QuoteRequests.WithLabelValues("export", metrics.OutcomeOK).Inc()
	w.Header().Set(CacheHeader, cacheStatus(hit))

	filename := "quote-" + resp.Inputs.AsOf.String()
	var err error
	switch format {
	case constants.OutputFormatCSV:
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.csv"`, filename))
		w.WriteHeader(http.StatusOK)
		err = output.CsvFormat(w, resp.Result)
	default:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		err = output.PrettyFormat(w, resp.Result, resp.Warnings)
	}
	if err != nil {
		h.logger.Warn("failed to write export",
			zap.String("op", op),
			zap.String("format", format),
			zap.Error(err),
		)
	}
}

func (h *handler) handleSolve(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSolve"

	target, err := strconv.ParseFloat(r.URL.Query().Get("target_payment"), 64)
	if err != nil || target <= 0 {
		h.respondValidation(w, http.StatusBadRequest, "solve", &validation.Error{
			Issues: []validation.Issue{{Field: "target_payment", Message: "must be a positive number"}},
		}, op)
		return
	}

	in, settings, ok := h.prepareRequest(w, r, "solve", op)
	if !ok {
		return
	}

	solved, summary, err := optimizer.NewRunner(h.logger).MinimumDownPayment(in, settings, target)
	if err != nil {
		h.respondValidation(w, http.StatusBadRequest, "solve", &validation.Error{
			Issues: []validation.Issue{{Field: "target_payment", Message: err.Error()}},
		}, op)
		return
	}

	body, hit, err := h.resolve(r.Context(), solved, settings, op)
	if err != nil {
		h.respondInternal(w, "solve", err, op)
		return
	}

	metrics.QuoteRequests.WithLabelValues("solve", metrics.OutcomeOK).Inc()
	w.Header().Set(CacheHeader, cacheStatus(hit))
	h.writeJSON(w, http.StatusOK, solveResponse{Optimization: summary, Quote: body})
}

// quoteFromRequest decodes, validates and computes the request, writing the
// error response itself when it returns ok == false.
func (h *handler) quoteFromRequest(w http.ResponseWriter, r *http.Request, endpoint, op string) ([]byte, bool, bool) {
	in, settings, ok := h.prepareRequest(w, r, endpoint, op)
	if !ok {
		return nil, false, false
	}

	body, hit, err := h.resolve(r.Context(), in, settings, op)
	if err != nil {
		h.respondInternal(w, endpoint, err, op)
		return nil, false, false
	}
	return body, hit, true
}

// prepareRequest decodes and validates the request body, writing the error
// response itself when it returns ok == false.
func (h *handler) prepareRequest(w http.ResponseWriter, r *http.Request, endpoint, op string) (quote.Inputs, quote.Settings, bool) {
	req, err := h.decodeRequest(w, r)
	if err != nil {
		status := http.StatusBadRequest
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			status = http.StatusRequestEntityTooLarge
			err = &validation.Error{Issues: []validation.Issue{{
				Field:   "body",
				Message: fmt.Sprintf("request body exceeds limit of %d bytes", h.maxBodySize),
			}}}
		}
		h.respondValidation(w, status, endpoint, err, op)
		return quote.Inputs{}, quote.Settings{}, false
	}

	in, settings, err := req.Prepare()
	if err != nil {
		h.respondValidation(w, http.StatusBadRequest, endpoint, err, op)
		return quote.Inputs{}, quote.Settings{}, false
	}
	metrics.TermMonths.Observe(float64(in.TermMonths))
	return in, settings, true
}

func (h *handler) decodeRequest(w http.ResponseWriter, r *http.Request) (*config.Request, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	var req config.Request
	if err := decoder.Decode(&req); err != nil {
		return nil, decodeError(err)
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return nil, err
		}
		return nil, &validation.Error{Issues: []validation.Issue{{
			Field: "body", Message: "must contain a single JSON object",
		}}}
	}
	return &req, nil
}

// decodeError maps a JSON decoding failure to field-level issues where the
// decoder names the field.
func decodeError(err error) error {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return err
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return &validation.Error{Issues: []validation.Issue{{
			Field:   typeErr.Field,
			Message: fmt.Sprintf("must be of type %s", typeErr.Type),
		}}}
	}

	message := err.Error()
	if errors.Is(err, io.EOF) {
		message = "request body is required"
	}
	return &validation.Error{Issues: []validation.Issue{{
		Field: "body", Message: strings.TrimPrefix(message, "json: "),
	}}}
}

// resolve returns the encoded quote response, from the cache when present.
// Cache failures are logged and never fail the quote.
func (h *handler) resolve(ctx context.Context, in quote.Inputs, s quote.Settings, op string) ([]byte, bool, error) {
	key := cache.Key(in, s)

	if h.cache != nil {
		cached, ok, err := h.cache.Get(ctx, key)
		switch {
		case err != nil:
			metrics.CacheLookups.WithLabelValues(metrics.CacheError).Inc()
			h.logger.Warn("quote cache lookup failed",
				zap.String("op", op),
				zap.String("key", key),
				zap.Error(err),
			)
		case ok:
			metrics.CacheLookups.WithLabelValues(metrics.CacheHit).Inc()
			return cached, true, nil
		default:
			metrics.CacheLookups.WithLabelValues(metrics.CacheMiss).Inc()
		}
	}

	start := time.Now()
	result := quote.Compute(in, s)
	elapsed := time.Since(start)
	metrics.ComputeSeconds.Observe(elapsed.Seconds())

	if problems := quote.CheckInvariants(result); len(problems) > 0 {
		h.logger.Warn("quote schedule failed consistency checks",
			zap.String("op", op),
			zap.Strings("problems", problems),
		)
	}

	body, err := json.Marshal(quoteResponse{Result: result, Warnings: quote.Warnings(in, s)})
	if err != nil {
		return nil, false, fmt.Errorf("encode quote: %w", err)
	}

	h.logger.Debug("quote computed",
		zap.String("op", op),
		zap.Int("rows", len(result.Schedule)),
		zap.Float64("pmt_base", result.Summary.PMTBase),
		zap.Duration("duration", elapsed),
	)

	if h.cache != nil {
		if err := h.cache.Set(ctx, key, body); err != nil {
			h.logger.Warn("quote cache store failed",
				zap.String("op", op),
				zap.String("key", key),
				zap.Error(err),
			)
		}
	}
	return body, false, nil
}

func (h *handler) respondValidation(w http.ResponseWriter, status int, endpoint string, err error, op string) {
	metrics.QuoteRequests.WithLabelValues(endpoint, metrics.OutcomeValidation).Inc()

	body := apiError{Code: CodeValidation, Message: "request is invalid"}
	var verr *validation.Error
	if errors.As(err, &verr) {
		body.Issues = verr.Issues
		for _, issue := range verr.Issues {
			metrics.ValidationIssues.WithLabelValues(issue.Field).Inc()
		}
	} else {
		body.Issues = []validation.Issue{{Field: "body", Message: err.Error()}}
	}

	h.logger.Info("quote request rejected",
		zap.String("op", op),
		zap.Int("status", status),
		zap.Int("issues", len(body.Issues)),
		zap.Error(err),
	)
	h.writeJSON(w, status, errorResponse{Error: body})
}

func (h *handler) respondInternal(w http.ResponseWriter, endpoint string, err error, op string) {
	metrics.QuoteRequests.WithLabelValues(endpoint, metrics.OutcomeInternal).Inc()
	h.logger.Error("quote request failed",
		zap.String("op", op),
		zap.Error(err),
	)
	h.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: apiError{
		Code:    CodeInternal,
		Message: "internal error",
	}})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

func cacheStatus(hit bool) string {
	if hit {
		return "HIT"
	}
	return "MISS"
}
