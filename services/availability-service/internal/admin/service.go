package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/clinicslots/services/availability-service/internal/availability"
	"github.com/md-rashed-zaman/clinicslots/services/availability-service/internal/model"
	"github.com/md-rashed-zaman/clinicslots/services/availability-service/internal/outbox"
	"github.com/md-rashed-zaman/clinicslots/services/availability-service/internal/storage"
)

var ErrInvalidInput = errors.New("invalid input")

type TxRunner interface {
	InTx(ctx context.Context, fn func(pgx.Tx) error) error
}

type Invalidator interface {
	Invalidate(ctx context.Context, doctorID string) error
}

// Service applies doctor/admin changes to availability data. Every change
// commits together with its outbox event and then drops the doctor's cached
// day sets.
type Service struct {
	tx     TxRunner
	repo   *storage.Repository
	outbox *outbox.Repository
	inv    Invalidator
	logger *slog.Logger
}

// New accepts a nil Invalidator when no cache is configured.
func New(tx TxRunner, repo *storage.Repository, outboxRepo *outbox.Repository, inv Invalidator, logger *slog.Logger) *Service {
	return &Service{tx: tx, repo: repo, outbox: outboxRepo, inv: inv, logger: logger}
}

func (s *Service) write(ctx context.Context, doctorID, eventType string, fn func(tx pgx.Tx) (outbox.ChangePayload, error)) error {
	err := s.tx.InTx(ctx, func(tx pgx.Tx) error {
		payload, err := fn(tx)
		if err != nil {
			return err
		}
		payload.DoctorID = doctorID
		evt, err := outbox.NewDoctorEvent(eventType, payload)
		if err != nil {
			return fmt.Errorf("build %s event: %w", eventType, err)
		}
		if err := s.outbox.Insert(ctx, tx, evt); err != nil {
			return fmt.Errorf("write outbox event: %w", err)
		}
		return nil
	})
	if err != nil {
		if storage.IsInvalid(err) {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return err
	}
	if s.inv != nil {
		if err := s.inv.Invalidate(ctx, doctorID); err != nil {
			// Entries still expire on their TTL.
			s.logger.Warn("day set invalidation failed", "doctor_id", doctorID, "err", err)
		}
	}
	return nil
}

func (s *Service) PutDoctor(ctx context.Context, d model.Doctor) (model.Doctor, error) {
	d.ID = strings.TrimSpace(d.ID)
	d.Timezone = strings.TrimSpace(d.Timezone)
	if d.ID == "" {
		return model.Doctor{}, fmt.Errorf("%w: doctor id is required", ErrInvalidInput)
	}
	if err := d.Validate(); err != nil {
		return model.Doctor{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if _, err := availability.LoadZone(d.Timezone); err != nil {
		return model.Doctor{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	var saved model.Doctor
	err := s.write(ctx, d.ID, outbox.EventDoctorUpdated, func(tx pgx.Tx) (outbox.ChangePayload, error) {
		var err error
		saved, err = s.repo.UpsertDoctor(ctx, tx, d)
		return outbox.ChangePayload{EntityID: d.ID}, err
	})
	return saved, err
}

func (s *Service) GetDoctor(ctx context.Context, doctorID string) (model.Doctor, error) {
	return s.repo.GetDoctorConfig(ctx, doctorID)
}

func (s *Service) PutSchedules(ctx context.Context, doctorID string, templates []model.ScheduleTemplate) ([]model.ScheduleTemplate, error) {
	for i, t := range templates {
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("%w: template %d: %v", ErrInvalidInput, i, err)
		}
	}
	var saved []model.ScheduleTemplate
	err := s.write(ctx, doctorID, outbox.EventScheduleUpdated, func(tx pgx.Tx) (outbox.ChangePayload, error) {
		var err error
		saved, err = s.repo.ReplaceSchedules(ctx, tx, doctorID, templates)
		return outbox.ChangePayload{}, err
	})
	return saved, err
}

func (s *Service) ListSchedules(ctx context.Context, doctorID string) ([]model.ScheduleTemplate, error) {
	return s.repo.ListSchedulesForDoctor(ctx, doctorID)
}

func validRange(start, end time.Time) error {
	if _, err := availability.NewInterval(start, end); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}

func (s *Service) CreateOpening(ctx context.Context, doctorID string, start, end time.Time) (model.Opening, error) {
	if err := validRange(start, end); err != nil {
		return model.Opening{}, err
	}
	var o model.Opening
	err := s.write(ctx, doctorID, outbox.EventOpeningCreated, func(tx pgx.Tx) (outbox.ChangePayload, error) {
		var err error
		o, err = s.repo.CreateOpening(ctx, tx, doctorID, start, end)
		return outbox.ChangePayload{EntityID: o.ID, StartUTC: o.StartUTC, EndUTC: o.EndUTC}, err
	})
	return o, err
}

func (s *Service) DeleteOpening(ctx context.Context, doctorID, openingID string) error {
	return s.write(ctx, doctorID, outbox.EventOpeningDeleted, func(tx pgx.Tx) (outbox.ChangePayload, error) {
		o, err := s.repo.DeleteOpening(ctx, tx, doctorID, openingID)
		return outbox.ChangePayload{EntityID: o.ID, StartUTC: o.StartUTC, EndUTC: o.EndUTC}, err
	})
}

func (s *Service) ListOpenings(ctx context.Context, doctorID string, from, to time.Time) ([]model.Opening, error) {
	if err := validRange(from, to); err != nil {
		return nil, err
	}
	return s.repo.ListOpeningsOverlapping(ctx, doctorID, from, to)
}

func (s *Service) CreateUnavailability(ctx context.Context, doctorID string, start, end time.Time, reason string) (model.Unavailability, error) {
	if err := validRange(start, end); err != nil {
		return model.Unavailability{}, err
	}
	var u model.Unavailability
	err := s.write(ctx, doctorID, outbox.EventUnavailabilityCreated, func(tx pgx.Tx) (outbox.ChangePayload, error) {
		var err error
		u, err = s.repo.CreateUnavailability(ctx, tx, doctorID, start, end, strings.TrimSpace(reason))
		return outbox.ChangePayload{EntityID: u.ID, StartUTC: u.StartUTC, EndUTC: u.EndUTC, Reason: u.Reason}, err
	})
	return u, err
}

func (s *Service) DeleteUnavailability(ctx context.Context, doctorID, id string) error {
	return s.write(ctx, doctorID, outbox.EventUnavailabilityDeleted, func(tx pgx.Tx) (outbox.ChangePayload, error) {
		u, err := s.repo.DeleteUnavailability(ctx, tx, doctorID, id)
		return outbox.ChangePayload{EntityID: u.ID, StartUTC: u.StartUTC, EndUTC: u.EndUTC}, err
	})
}

func (s *Service) ListUnavailability(ctx context.Context, doctorID string, from, to time.Time) ([]model.Unavailability, error) {
	if err := validRange(from, to); err != nil {
		return nil, err
	}
	return s.repo.ListUnavailabilityOverlapping(ctx, doctorID, from, to)
}
