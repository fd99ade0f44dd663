package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/md-rashed-zaman/clinicslots/libs/httpx"
	"github.com/md-rashed-zaman/clinicslots/services/availability-service/internal/admin"
	"github.com/md-rashed-zaman/clinicslots/services/availability-service/internal/availability"
	"github.com/md-rashed-zaman/clinicslots/services/availability-service/internal/storage"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// statusFor maps engine, admin and storage errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case availability.IsInputError(err), errors.Is(err, admin.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, availability.ErrNotFound):
		return http.StatusNotFound
	case availability.IsLocalTimeError(err):
		return http.StatusUnprocessableEntity
	case storage.IsConflict(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, msg string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error(msg, "err", err, "request_id", httpx.RequestIDFromContext(r.Context()))
		http.Error(w, msg, status)
		return
	}
	http.Error(w, err.Error(), status)
}

func query(r *http.Request, key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}

func parseInstant(raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func formatInstant(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
