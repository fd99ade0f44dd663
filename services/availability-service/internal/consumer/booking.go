package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/clinicslots/services/availability-service/internal/model"
	"github.com/segmentio/kafka-go"
)

const (
	TopicBookingBooked    = "booking.appointment.booked.v1"
	TopicBookingCancelled = "booking.appointment.cancelled.v1"
)

// BookingStore mirrors the booking service's appointments into the local
// bookings table the engine reads.
type BookingStore interface {
	RecordBooking(ctx context.Context, b model.Booking) error
	CancelBooking(ctx context.Context, bookingID string) error
}

type bookingEvent struct {
	AppointmentID string `json:"appointment_id"`
	DoctorID      string `json:"doctor_id"`
	// Older producers name the practitioner staff_id.
	StaffID   string `json:"staff_id"`
	ServiceID string `json:"service_id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// BookingHandler applies booked and cancelled events to the local bookings
// table. A cancellation without times only flips an existing row. Malformed
// payloads are logged and skipped; store failures are returned so the message
// is retried.
func BookingHandler(store BookingStore, logger *slog.Logger) Handler {
	return func(ctx context.Context, msg kafka.Message) error {
		var evt bookingEvent
		if err := json.Unmarshal(msg.Value, &evt); err != nil {
			logger.Error("invalid booking event", "err", err, "topic", msg.Topic)
			return nil
		}
		id, err := uuid.Parse(strings.TrimSpace(evt.AppointmentID))
		if err != nil {
			logger.Error("booking event without a valid appointment id", "topic", msg.Topic, "appointment_id", evt.AppointmentID)
			return nil
		}

		status := model.BookingConfirmed
		if msg.Topic == TopicBookingCancelled {
			status = model.BookingCancelled
			if evt.StartTime == "" && evt.EndTime == "" {
				if err := store.CancelBooking(ctx, id.String()); err != nil {
					return fmt.Errorf("cancel booking %s: %w", id, err)
				}
				return nil
			}
		}

		b, err := evt.booking(id.String(), status)
		if err != nil {
			logger.Error("invalid booking event", "err", err, "topic", msg.Topic, "appointment_id", evt.AppointmentID)
			return nil
		}
		if err := store.RecordBooking(ctx, b); err != nil {
			return fmt.Errorf("record booking %s: %w", id, err)
		}
		logger.Debug("booking mirrored", "doctor_id", b.DoctorID, "appointment_id", b.ID, "status", string(b.Status))
		return nil
	}
}

func (e bookingEvent) booking(id string, status model.BookingStatus) (model.Booking, error) {
	doctorID := strings.TrimSpace(e.DoctorID)
	if doctorID == "" {
		doctorID = strings.TrimSpace(e.StaffID)
	}
	if doctorID == "" {
		return model.Booking{}, errors.New("doctor id is required")
	}
	start, err := time.Parse(time.RFC3339, e.StartTime)
	if err != nil {
		return model.Booking{}, fmt.Errorf("start_time: %w", err)
	}
	end, err := time.Parse(time.RFC3339, e.EndTime)
	if err != nil {
		return model.Booking{}, fmt.Errorf("end_time: %w", err)
	}
	if !end.After(start) {
		return model.Booking{}, errors.New("end_time must be after start_time")
	}
	return model.Booking{
		ID:        id,
		DoctorID:  doctorID,
		ServiceID: strings.TrimSpace(e.ServiceID),
		StartUTC:  start.UTC(),
		EndUTC:    end.UTC(),
		Status:    status,
	}, nil
}
