package server

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"mixdown/internal/logging"
	"mixdown/internal/metrics"
	"mixdown/internal/services"
)

const headerRequestID = "X-Request-ID"

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(p)
	r.bytes += n
	return n, err
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

// requestMiddleware assigns a request ID, records metrics and logs each
// request once it completes. The endpoint label is the matched route
// pattern so job IDs never become label values.
func requestMiddleware(m *metrics.Metrics, logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()

		requestID := strings.TrimSpace(r.Header.Get(headerRequestID))
		if requestID == "" || len(requestID) > 64 {
			requestID = uuid.NewString()
		}
		w.Header().Set(headerRequestID, requestID)
		r = r.WithContext(services.WithRequestID(r.Context(), requestID))

		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}
		endpoint := r.Pattern
		if endpoint == "" {
			endpoint = "unmatched"
		} else if _, path, ok := strings.Cut(endpoint, " "); ok {
			endpoint = path
		}
		elapsed := time.Since(started)
		m.RecordHTTPRequest(r.Method, endpoint, status, elapsed)

		level := slog.LevelDebug
		if status >= http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		logging.WithContext(r.Context(), logger).Log(r.Context(), level, "http request",
			logging.String(logging.FieldEventType, "http_request"),
			logging.String("method", r.Method),
			logging.String("endpoint", endpoint),
			logging.Int("status", status),
			logging.Int("bytes", rec.bytes),
			logging.Duration("elapsed", elapsed),
		)
	})
}

// statusForKind maps a pipeline error kind to an HTTP status.
func statusForKind(kind services.Kind) int {
	switch kind {
	case services.KindValidation:
		return http.StatusBadRequest
	case services.KindFetch:
		return http.StatusBadGateway
	case services.KindDecode:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
