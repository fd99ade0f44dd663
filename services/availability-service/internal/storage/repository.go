package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/md-rashed-zaman/clinicslots/libs/db"
	"github.com/md-rashed-zaman/clinicslots/services/availability-service/internal/availability"
	"github.com/md-rashed-zaman/clinicslots/services/availability-service/internal/model"
)

// Repository is the Postgres side of the engine's Store contract plus the
// admin writes. Writes take the caller's transaction so they commit together
// with their outbox event.
type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ availability.Store = (*Repository)(nil)

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) || errors.Is(err, availability.ErrNotFound)
}

// IsConflict reports unique or exclusion constraint violations.
func IsConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" || pgErr.Code == "23P01"
	}
	return false
}

// IsInvalid reports check constraint violations.
func IsInvalid(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23514"
}

func notFound(err error, what, id string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", what, id, availability.ErrNotFound)
	}
	return err
}

func (r *Repository) GetDoctorConfig(ctx context.Context, doctorID string) (model.Doctor, error) {
	var d model.Doctor
	err := r.pool.QueryRow(ctx, `
		SELECT id, timezone, slot_duration_minutes, buffer_minutes, min_lead_minutes, is_active, updated_at
		FROM doctors
		WHERE id = $1
	`, doctorID).Scan(&d.ID, &d.Timezone, &d.SlotDurationMin, &d.BufferMin, &d.MinLeadMin, &d.IsActive, &d.UpdatedAt)
	if err != nil {
		return model.Doctor{}, notFound(err, "doctor", doctorID)
	}
	return d, nil
}

func (r *Repository) ListSchedulesForDoctor(ctx context.Context, doctorID string) ([]model.ScheduleTemplate, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, doctor_id, weekdays, start_minute, end_minute, created_at
		FROM schedule_templates
		WHERE doctor_id = $1
		ORDER BY start_minute, id
	`, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ScheduleTemplate
	for rows.Next() {
		var t model.ScheduleTemplate
		if err := rows.Scan(&t.ID, &t.DoctorID, &t.Weekdays, &t.StartMinute, &t.EndMinute, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

// Overlap predicate for half-open ranges: start < $end AND end > $start.

func (r *Repository) ListOpeningsOverlapping(ctx context.Context, doctorID string, start, end time.Time) ([]model.Opening, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, doctor_id, start_utc, end_utc, created_at
		FROM openings
		WHERE doctor_id = $1
		  AND start_utc < $3
		  AND end_utc > $2
		ORDER BY start_utc
	`, doctorID, start.UTC(), end.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Opening
	for rows.Next() {
		var o model.Opening
		if err := rows.Scan(&o.ID, &o.DoctorID, &o.StartUTC, &o.EndUTC, &o.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *Repository) ListUnavailabilityOverlapping(ctx context.Context, doctorID string, start, end time.Time) ([]model.Unavailability, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, doctor_id, start_utc, end_utc, reason, created_at
		FROM unavailability
		WHERE doctor_id = $1
		  AND start_utc < $3
		  AND end_utc > $2
		ORDER BY start_utc
	`, doctorID, start.UTC(), end.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Unavailability
	for rows.Next() {
		var u model.Unavailability
		if err := rows.Scan(&u.ID, &u.DoctorID, &u.StartUTC, &u.EndUTC, &u.Reason, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *Repository) ListConfirmedBookingsOverlapping(ctx context.Context, doctorID string, start, end time.Time) ([]model.Booking, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, doctor_id, service_id, start_utc, end_utc, status
		FROM bookings
		WHERE doctor_id = $1
		  AND status = 'confirmed'
		  AND start_utc < $3
		  AND end_utc > $2
		ORDER BY start_utc
	`, doctorID, start.UTC(), end.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Booking
	for rows.Next() {
		var b model.Booking
		var status string
		if err := rows.Scan(&b.ID, &b.DoctorID, &b.ServiceID, &b.StartUTC, &b.EndUTC, &status); err != nil {
			return nil, err
		}
		b.Status = model.BookingStatus(status)
		out = append(out, b)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

// RecordBooking upserts a booking mirrored from booking events. Cancellation
// is terminal: a late booked event never revives a cancelled row.
func (r *Repository) RecordBooking(ctx context.Context, b model.Booking) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO bookings (id, doctor_id, service_id, start_utc, end_utc, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET doctor_id = EXCLUDED.doctor_id,
			service_id = EXCLUDED.service_id,
			start_utc = EXCLUDED.start_utc,
			end_utc = EXCLUDED.end_utc,
			status = EXCLUDED.status
		WHERE bookings.status <> 'cancelled'
	`, b.ID, b.DoctorID, b.ServiceID, b.StartUTC.UTC(), b.EndUTC.UTC(), string(b.Status))
	return err
}

func (r *Repository) CancelBooking(ctx context.Context, bookingID string) error {
	_, err := r.pool.Exec(ctx, `UPDATE bookings SET status = 'cancelled' WHERE id = $1`, bookingID)
	return err
}

func (r *Repository) ListActiveDoctorIDs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id FROM doctors WHERE is_active ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return ids, nil
}

func (r *Repository) UpsertDoctor(ctx context.Context, tx pgx.Tx, d model.Doctor) (model.Doctor, error) {
	err := tx.QueryRow(ctx, `
		INSERT INTO doctors (id, timezone, slot_duration_minutes, buffer_minutes, min_lead_minutes, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET timezone = EXCLUDED.timezone,
			slot_duration_minutes = EXCLUDED.slot_duration_minutes,
			buffer_minutes = EXCLUDED.buffer_minutes,
			min_lead_minutes = EXCLUDED.min_lead_minutes,
			is_active = EXCLUDED.is_active,
			updated_at = now()
		RETURNING updated_at
	`, d.ID, d.Timezone, d.SlotDurationMin, d.BufferMin, d.MinLeadMin, d.IsActive).Scan(&d.UpdatedAt)
	if err != nil {
		return model.Doctor{}, err
	}
	return d, nil
}

func (r *Repository) doctorExists(ctx context.Context, tx pgx.Tx, doctorID string) error {
	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM doctors WHERE id = $1)`, doctorID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("doctor %s: %w", doctorID, availability.ErrNotFound)
	}
	return nil
}

// ReplaceSchedules swaps the doctor's whole weekly template set.
func (r *Repository) ReplaceSchedules(ctx context.Context, tx pgx.Tx, doctorID string, templates []model.ScheduleTemplate) ([]model.ScheduleTemplate, error) {
	if err := r.doctorExists(ctx, tx, doctorID); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM schedule_templates WHERE doctor_id = $1`, doctorID); err != nil {
		return nil, err
	}
	out := make([]model.ScheduleTemplate, 0, len(templates))
	for _, t := range templates {
		t.ID = uuid.NewString()
		t.DoctorID = doctorID
		err := tx.QueryRow(ctx, `
			INSERT INTO schedule_templates (id, doctor_id, weekdays, start_minute, end_minute)
			VALUES ($1, $2, $3::int[], $4, $5)
			RETURNING created_at
		`, t.ID, doctorID, t.Weekdays, t.StartMinute, t.EndMinute).Scan(&t.CreatedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *Repository) CreateOpening(ctx context.Context, tx pgx.Tx, doctorID string, start, end time.Time) (model.Opening, error) {
	if err := r.doctorExists(ctx, tx, doctorID); err != nil {
		return model.Opening{}, err
	}
	o := model.Opening{ID: uuid.NewString(), DoctorID: doctorID, StartUTC: start.UTC(), EndUTC: end.UTC()}
	err := tx.QueryRow(ctx, `
		INSERT INTO openings (id, doctor_id, start_utc, end_utc)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, o.ID, o.DoctorID, o.StartUTC, o.EndUTC).Scan(&o.CreatedAt)
	if err != nil {
		return model.Opening{}, err
	}
	return o, nil
}

// DeleteOpening returns the deleted row so callers can publish its range.
func (r *Repository) DeleteOpening(ctx context.Context, tx pgx.Tx, doctorID, openingID string) (model.Opening, error) {
	if _, err := uuid.Parse(openingID); err != nil {
		return model.Opening{}, fmt.Errorf("opening %s: %w", openingID, availability.ErrNotFound)
	}
	var o model.Opening
	err := tx.QueryRow(ctx, `
		DELETE FROM openings
		WHERE id = $1 AND doctor_id = $2
		RETURNING id::text, doctor_id, start_utc, end_utc, created_at
	`, openingID, doctorID).Scan(&o.ID, &o.DoctorID, &o.StartUTC, &o.EndUTC, &o.CreatedAt)
	if err != nil {
		return model.Opening{}, notFound(err, "opening", openingID)
	}
	return o, nil
}

func (r *Repository) CreateUnavailability(ctx context.Context, tx pgx.Tx, doctorID string, start, end time.Time, reason string) (model.Unavailability, error) {
	if err := r.doctorExists(ctx, tx, doctorID); err != nil {
		return model.Unavailability{}, err
	}
	u := model.Unavailability{ID: uuid.NewString(), DoctorID: doctorID, StartUTC: start.UTC(), EndUTC: end.UTC(), Reason: reason}
	err := tx.QueryRow(ctx, `
		INSERT INTO unavailability (id, doctor_id, start_utc, end_utc, reason)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, u.ID, u.DoctorID, u.StartUTC, u.EndUTC, u.Reason).Scan(&u.CreatedAt)
	if err != nil {
		return model.Unavailability{}, err
	}
	return u, nil
}

func (r *Repository) DeleteUnavailability(ctx context.Context, tx pgx.Tx, doctorID, id string) (model.Unavailability, error) {
	if _, err := uuid.Parse(id); err != nil {
		return model.Unavailability{}, fmt.Errorf("unavailability %s: %w", id, availability.ErrNotFound)
	}
	var u model.Unavailability
	err := tx.QueryRow(ctx, `
		DELETE FROM unavailability
		WHERE id = $1 AND doctor_id = $2
		RETURNING id::text, doctor_id, start_utc, end_utc, reason, created_at
	`, id, doctorID).Scan(&u.ID, &u.DoctorID, &u.StartUTC, &u.EndUTC, &u.Reason, &u.CreatedAt)
	if err != nil {
		return model.Unavailability{}, notFound(err, "unavailability", id)
	}
	return u, nil
}
