package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/md-rashed-zaman/clinicslots/services/availability-service/internal/admin"
	"github.com/md-rashed-zaman/clinicslots/services/availability-service/internal/model"
)

type AdminService interface {
	PutDoctor(ctx context.Context, d model.Doctor) (model.Doctor, error)
	GetDoctor(ctx context.Context, doctorID string) (model.Doctor, error)
	PutSchedules(ctx context.Context, doctorID string, templates []model.ScheduleTemplate) ([]model.ScheduleTemplate, error)
	ListSchedules(ctx context.Context, doctorID string) ([]model.ScheduleTemplate, error)
	CreateOpening(ctx context.Context, doctorID string, start, end time.Time) (model.Opening, error)
	DeleteOpening(ctx context.Context, doctorID, openingID string) error
	ListOpenings(ctx context.Context, doctorID string, from, to time.Time) ([]model.Opening, error)
	CreateUnavailability(ctx context.Context, doctorID string, start, end time.Time, reason string) (model.Unavailability, error)
	DeleteUnavailability(ctx context.Context, doctorID, id string) error
	ListUnavailability(ctx context.Context, doctorID string, from, to time.Time) ([]model.Unavailability, error)
}

var _ AdminService = (*admin.Service)(nil)

type AdminHandler struct {
	svc    AdminService
	logger *slog.Logger
}

func NewAdminHandler(svc AdminService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{svc: svc, logger: logger}
}

type doctorBody struct {
	DoctorID            string `json:"doctor_id"`
	Timezone            string `json:"timezone"`
	SlotDurationMinutes int    `json:"slot_duration_minutes"`
	BufferMinutes       int    `json:"buffer_minutes"`
	MinLeadMinutes      int    `json:"min_lead_minutes"`
	IsActive            *bool  `json:"is_active,omitempty"`
}

type doctorResponse struct {
	DoctorID            string `json:"doctor_id"`
	Timezone            string `json:"timezone"`
	SlotDurationMinutes int    `json:"slot_duration_minutes"`
	BufferMinutes       int    `json:"buffer_minutes"`
	MinLeadMinutes      int    `json:"min_lead_minutes"`
	IsActive            bool   `json:"is_active"`
	UpdatedAt           string `json:"updated_at,omitempty"`
}

func toDoctorResponse(d model.Doctor) doctorResponse {
	resp := doctorResponse{
		DoctorID:            d.ID,
		Timezone:            d.Timezone,
		SlotDurationMinutes: d.SlotDurationMin,
		BufferMinutes:       d.BufferMin,
		MinLeadMinutes:      d.MinLeadMin,
		IsActive:            d.IsActive,
	}
	if !d.UpdatedAt.IsZero() {
		resp.UpdatedAt = formatInstant(d.UpdatedAt)
	}
	return resp
}

// Doctors serves GET (doctor_id query) and PUT (json body) on
// /api/v1/admin/doctors.
func (h *AdminHandler) Doctors(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		doctorID := query(r, "doctor_id")
		if doctorID == "" {
			http.Error(w, "doctor_id required", http.StatusBadRequest)
			return
		}
		d, err := h.svc.GetDoctor(r.Context(), doctorID)
		if err != nil {
			writeError(w, r, h.logger, "failed to load doctor", err)
			return
		}
		writeJSON(w, http.StatusOK, toDoctorResponse(d))
	case http.MethodPut:
		var body doctorBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
		active := true
		if body.IsActive != nil {
			active = *body.IsActive
		}
		d, err := h.svc.PutDoctor(r.Context(), model.Doctor{
			ID:              body.DoctorID,
			Timezone:        body.Timezone,
			SlotDurationMin: body.SlotDurationMinutes,
			BufferMin:       body.BufferMinutes,
			MinLeadMin:      body.MinLeadMinutes,
			IsActive:        active,
		})
		if err != nil {
			writeError(w, r, h.logger, "failed to save doctor", err)
			return
		}
		writeJSON(w, http.StatusOK, toDoctorResponse(d))
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

type templateItem struct {
	ID        string `json:"id,omitempty"`
	Weekdays  []int  `json:"weekdays"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type schedulesBody struct {
	DoctorID  string         `json:"doctor_id"`
	Templates []templateItem `json:"templates"`
}

func toTemplateItems(ts []model.ScheduleTemplate) []templateItem {
	items := make([]templateItem, 0, len(ts))
	for _, t := range ts {
		items = append(items, templateItem{
			ID:        t.ID,
			Weekdays:  t.Weekdays,
			StartTime: model.FormatClock(t.StartMinute),
			EndTime:   model.FormatClock(t.EndMinute),
		})
	}
	return items
}

// Schedules serves GET and PUT on /api/v1/admin/schedules. PUT replaces the
// doctor's whole weekly template set.
func (h *AdminHandler) Schedules(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		doctorID := query(r, "doctor_id")
		if doctorID == "" {
			http.Error(w, "doctor_id required", http.StatusBadRequest)
			return
		}
		ts, err := h.svc.ListSchedules(r.Context(), doctorID)
		if err != nil {
			writeError(w, r, h.logger, "failed to list schedules", err)
			return
		}
		writeJSON(w, http.StatusOK, schedulesBody{DoctorID: doctorID, Templates: toTemplateItems(ts)})
	case http.MethodPut:
		var body schedulesBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
		if body.DoctorID == "" {
			http.Error(w, "doctor_id required", http.StatusBadRequest)
			return
		}
		templates := make([]model.ScheduleTemplate, 0, len(body.Templates))
		for i, item := range body.Templates {
			start, err := model.ParseClock(item.StartTime)
			if err != nil {
				http.Error(w, fmt.Sprintf("template %d: invalid start_time", i), http.StatusBadRequest)
				return
			}
			end, err := model.ParseClock(item.EndTime)
			if err != nil {
				http.Error(w, fmt.Sprintf("template %d: invalid end_time", i), http.StatusBadRequest)
				return
			}
			templates = append(templates, model.ScheduleTemplate{
				DoctorID:    body.DoctorID,
				Weekdays:    item.Weekdays,
				StartMinute: start,
				EndMinute:   end,
			})
		}
		saved, err := h.svc.PutSchedules(r.Context(), body.DoctorID, templates)
		if err != nil {
			writeError(w, r, h.logger, "failed to save schedules", err)
			return
		}
		writeJSON(w, http.StatusOK, schedulesBody{DoctorID: body.DoctorID, Templates: toTemplateItems(saved)})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

type rangeBody struct {
	DoctorID  string `json:"doctor_id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Reason    string `json:"reason,omitempty"`
}

type rangeItem struct {
	ID        string `json:"id"`
	DoctorID  string `json:"doctor_id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Reason    string `json:"reason,omitempty"`
}

// rangeQuery reads doctor_id, from and to for the list endpoints.
func rangeQuery(r *http.Request) (doctorID string, from, to time.Time, err error) {
	doctorID = query(r, "doctor_id")
	if doctorID == "" {
		return "", time.Time{}, time.Time{}, errors.New("doctor_id required")
	}
	if from, err = parseInstant(query(r, "from")); err != nil {
		return "", time.Time{}, time.Time{}, errors.New("invalid from")
	}
	if to, err = parseInstant(query(r, "to")); err != nil {
		return "", time.Time{}, time.Time{}, errors.New("invalid to")
	}
	return doctorID, from, to, nil
}

func decodeRange(r *http.Request) (rangeBody, time.Time, time.Time, error) {
	var body rangeBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return rangeBody{}, time.Time{}, time.Time{}, errors.New("invalid json body")
	}
	if body.DoctorID == "" {
		return rangeBody{}, time.Time{}, time.Time{}, errors.New("doctor_id required")
	}
	start, err := parseInstant(body.StartTime)
	if err != nil {
		return rangeBody{}, time.Time{}, time.Time{}, errors.New("invalid start_time")
	}
	end, err := parseInstant(body.EndTime)
	if err != nil {
		return rangeBody{}, time.Time{}, time.Time{}, errors.New("invalid end_time")
	}
	return body, start, end, nil
}

// deleteTarget reads doctor_id and id from the query string.
func deleteTarget(r *http.Request) (string, string, bool) {
	doctorID, id := query(r, "doctor_id"), query(r, "id")
	return doctorID, id, doctorID != "" && id != ""
}

// Openings serves GET, POST and DELETE on /api/v1/admin/openings.
func (h *AdminHandler) Openings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		doctorID, from, to, err := rangeQuery(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		openings, err := h.svc.ListOpenings(r.Context(), doctorID, from, to)
		if err != nil {
			writeError(w, r, h.logger, "failed to list openings", err)
			return
		}
		items := make([]rangeItem, 0, len(openings))
		for _, o := range openings {
			items = append(items, openingItem(o))
		}
		writeJSON(w, http.StatusOK, items)
	case http.MethodPost:
		body, start, end, err := decodeRange(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		o, err := h.svc.CreateOpening(r.Context(), body.DoctorID, start, end)
		if err != nil {
			writeError(w, r, h.logger, "failed to create opening", err)
			return
		}
		writeJSON(w, http.StatusCreated, openingItem(o))
	case http.MethodDelete:
		doctorID, id, ok := deleteTarget(r)
		if !ok {
			http.Error(w, "doctor_id and id required", http.StatusBadRequest)
			return
		}
		if err := h.svc.DeleteOpening(r.Context(), doctorID, id); err != nil {
			writeError(w, r, h.logger, "failed to delete opening", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func openingItem(o model.Opening) rangeItem {
	return rangeItem{ID: o.ID, DoctorID: o.DoctorID, StartTime: formatInstant(o.StartUTC), EndTime: formatInstant(o.EndUTC)}
}

// Unavailability serves GET, POST and DELETE on /api/v1/admin/unavailability.
func (h *AdminHandler) Unavailability(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		doctorID, from, to, err := rangeQuery(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		us, err := h.svc.ListUnavailability(r.Context(), doctorID, from, to)
		if err != nil {
			writeError(w, r, h.logger, "failed to list unavailability", err)
			return
		}
		items := make([]rangeItem, 0, len(us))
		for _, u := range us {
			items = append(items, unavailabilityItem(u))
		}
		writeJSON(w, http.StatusOK, items)
	case http.MethodPost:
		body, start, end, err := decodeRange(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		u, err := h.svc.CreateUnavailability(r.Context(), body.DoctorID, start, end, body.Reason)
		if err != nil {
			writeError(w, r, h.logger, "failed to create unavailability", err)
			return
		}
		writeJSON(w, http.StatusCreated, unavailabilityItem(u))
	case http.MethodDelete:
		doctorID, id, ok := deleteTarget(r)
		if !ok {
			http.Error(w, "doctor_id and id required", http.StatusBadRequest)
			return
		}
		if err := h.svc.DeleteUnavailability(r.Context(), doctorID, id); err != nil {
			writeError(w, r, h.logger, "failed to delete unavailability", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func unavailabilityItem(u model.Unavailability) rangeItem {
	return rangeItem{ID: u.ID, DoctorID: u.DoctorID, StartTime: formatInstant(u.StartUTC), EndTime: formatInstant(u.EndUTC), Reason: u.Reason}
}
