package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/md-rashed-zaman/clinicslots/services/availability-service/internal/availability"
	"github.com/md-rashed-zaman/clinicslots/services/availability-service/internal/model"
)

type SlotEngine interface {
	ComputeSlots(ctx context.Context, q availability.Query) ([]availability.Slot, error)
	CheckInterval(ctx context.Context, doctorID string, start, end, now time.Time) (bool, error)
	Doctor(ctx context.Context, doctorID string) (model.Doctor, error)
}

type SlotsHandler struct {
	engine SlotEngine
	logger *slog.Logger
	now    func() time.Time
}

func NewSlotsHandler(engine SlotEngine, logger *slog.Logger, now func() time.Time) *SlotsHandler {
	if now == nil {
		now = time.Now
	}
	return &SlotsHandler{engine: engine, logger: logger, now: now}
}

type slotItem struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// Slots serves GET /api/v1/public/slots?doctor_id&date&duration_minutes&tz.
// A missing duration falls back to the doctor's default slot length.
func (h *SlotsHandler) Slots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	doctorID := query(r, "doctor_id")
	if doctorID == "" {
		http.Error(w, "doctor_id required", http.StatusBadRequest)
		return
	}

	var duration int
	if raw := query(r, "duration_minutes"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "invalid duration_minutes", http.StatusBadRequest)
			return
		}
		duration = n
	} else {
		d, err := h.engine.Doctor(r.Context(), doctorID)
		if err != nil {
			writeError(w, r, h.logger, "failed to load doctor", err)
			return
		}
		duration = d.SlotDurationMin
	}

	slots, err := h.engine.ComputeSlots(r.Context(), availability.Query{
		DoctorID:           doctorID,
		Date:               query(r, "date"),
		ServiceDurationMin: duration,
		Timezone:           query(r, "tz"),
		Now:                h.now(),
	})
	if err != nil {
		writeError(w, r, h.logger, "failed to compute slots", err)
		return
	}

	items := make([]slotItem, 0, len(slots))
	for _, s := range slots {
		items = append(items, slotItem{StartTime: formatInstant(s.StartUTC), EndTime: formatInstant(s.EndUTC)})
	}
	writeJSON(w, http.StatusOK, items)
}

type checkResponse struct {
	DoctorID  string `json:"doctor_id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Available bool   `json:"available"`
}

// Check serves GET /api/v1/public/slots/check?doctor_id&start_time&end_time.
// The answer is advisory; it holds nothing.
func (h *SlotsHandler) Check(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	doctorID := query(r, "doctor_id")
	if doctorID == "" {
		http.Error(w, "doctor_id required", http.StatusBadRequest)
		return
	}
	start, err := parseInstant(query(r, "start_time"))
	if err != nil {
		http.Error(w, "invalid start_time", http.StatusBadRequest)
		return
	}
	end, err := parseInstant(query(r, "end_time"))
	if err != nil {
		http.Error(w, "invalid end_time", http.StatusBadRequest)
		return
	}

	ok, err := h.engine.CheckInterval(r.Context(), doctorID, start, end, h.now())
	if err != nil {
		writeError(w, r, h.logger, "failed to check slot", err)
		return
	}
	writeJSON(w, http.StatusOK, checkResponse{
		DoctorID:  doctorID,
		StartTime: formatInstant(start),
		EndTime:   formatInstant(end),
		Available: ok,
	})
}
