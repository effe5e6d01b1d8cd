package server

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// logRequests writes one structured line per request.
func (h *handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		h.logger.Info("request handled",
			zap.String("op", "server.logRequests"),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote", r.RemoteAddr),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// recoverInternal turns a handler panic into an INTERNAL error response.
func (h *handler) recoverInternal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			h.logger.Error("handler panic",
				zap.String("op", "server.recoverInternal"),
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("panic", fmt.Sprint(rec)),
				zap.ByteString("stack", debug.Stack()),
			)
			h.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: apiError{
				Code:    CodeInternal,
				Message: "internal error",
			}})
		}()
		next.ServeHTTP(w, r)
	})
}
