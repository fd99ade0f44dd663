package httpx

import (
	"log/slog"
	"net/http"
	"time"
)

// accessRecorder remembers what a handler sent so the access line can report
// it. The first status written wins.
type accessRecorder struct {
	http.ResponseWriter
	status int
	size   int64
}

func (a *accessRecorder) WriteHeader(code int) {
	if a.status == 0 {
		a.status = code
	}
	a.ResponseWriter.WriteHeader(code)
}

func (a *accessRecorder) Write(p []byte) (int, error) {
	if a.status == 0 {
		a.status = http.StatusOK
	}
	n, err := a.ResponseWriter.Write(p)
	a.size += int64(n)
	return n, err
}

// WithAccessLog writes one line per request. Slot lookups and admin writes
// name a doctor, so doctor_id is logged when the query carries one; 5xx
// responses go out at warn.
func WithAccessLog(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			began := time.Now()
			rec := &accessRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			attrs := []any{
				"request_id", RequestIDFromContext(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"bytes", rec.size,
				"duration_ms", time.Since(began).Milliseconds(),
			}
			if doctorID := r.URL.Query().Get("doctor_id"); doctorID != "" {
				attrs = append(attrs, "doctor_id", doctorID)
			}
			level := slog.LevelInfo
			if rec.status >= http.StatusInternalServerError {
				level = slog.LevelWarn
			}
			logger.Log(r.Context(), level, "http request", attrs...)
		})
	}
}
