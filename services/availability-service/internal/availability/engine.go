package availability

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/md-rashed-zaman/clinicslots/services/availability-service/internal/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// Store is the read side the engine needs. Implementations return
// ErrNotFound from GetDoctorConfig for unknown doctors.
type Store interface {
	GetDoctorConfig(ctx context.Context, doctorID string) (model.Doctor, error)
	ListSchedulesForDoctor(ctx context.Context, doctorID string) ([]model.ScheduleTemplate, error)
	ListOpeningsOverlapping(ctx context.Context, doctorID string, start, end time.Time) ([]model.Opening, error)
	ListUnavailabilityOverlapping(ctx context.Context, doctorID string, start, end time.Time) ([]model.Unavailability, error)
	ListConfirmedBookingsOverlapping(ctx context.Context, doctorID string, start, end time.Time) ([]model.Booking, error)
}

type DaySetKey struct {
	DoctorID string
	Date     string
	Timezone string
	Version  int64
}

// DaySetCache stores day sets. Version is read before the store so a
// concurrent invalidation can only orphan an entry, never make it current.
type DaySetCache interface {
	Version(ctx context.Context, doctorID string) (int64, error)
	Get(ctx context.Context, key DaySetKey) (DaySet, bool, error)
	Set(ctx context.Context, key DaySetKey, day DaySet) error
}

type EngineConfig struct {
	Cache DaySetCache
	Fold  FoldPolicy
}

type Engine struct {
	store  Store
	logger *slog.Logger
	cache  DaySetCache
	fold   FoldPolicy
	tracer trace.Tracer
}

func NewEngine(store Store, logger *slog.Logger, cfg EngineConfig) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:  store,
		logger: logger,
		cache:  cfg.Cache,
		fold:   cfg.Fold,
		tracer: otel.Tracer("availability"),
	}
}

type Query struct {
	DoctorID           string
	Date               string
	ServiceDurationMin int
	// Timezone names the zone Date is read in. Empty means the doctor's zone.
	Timezone string
	Now      time.Time
}

// ComputeSlots returns the bookable slots for one doctor on one civil day.
// It only reads.
func (e *Engine) ComputeSlots(ctx context.Context, q Query) (slots []Slot, err error) {
	ctx, span := e.tracer.Start(ctx, "availability.ComputeSlots", trace.WithAttributes(
		attribute.String("doctor.id", q.DoctorID),
		attribute.String("slots.date", q.Date),
		attribute.Int("slots.duration_minutes", q.ServiceDurationMin),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(attribute.Int("slots.count", len(slots)))
		}
		span.End()
	}()

	if q.ServiceDurationMin <= 0 {
		return nil, fmt.Errorf("%w: %d minutes", ErrInvalidDuration, q.ServiceDurationMin)
	}
	date, err := ParseCivilDate(q.Date)
	if err != nil {
		return nil, err
	}
	var target *time.Location
	if tz := strings.TrimSpace(q.Timezone); tz != "" {
		if target, err = LoadZone(tz); err != nil {
			return nil, err
		}
	}

	doctor, doctorLoc, err := e.doctor(ctx, q.DoctorID)
	if err != nil {
		return nil, err
	}
	tzName := doctor.Timezone
	if target == nil {
		target = doctorLoc
	} else {
		tzName = target.String()
	}

	window := dayWindow(date, target)
	day, free, err := e.open(ctx, doctor, doctorLoc, DaySetKey{DoctorID: doctor.ID, Date: date.String(), Timezone: tzName}, window)
	if err != nil {
		return nil, err
	}

	duration := time.Duration(q.ServiceDurationMin) * time.Minute
	return Slice(free, day.Covered, duration, q.Now.Add(doctor.MinLead())), nil
}

// CheckInterval reports whether [start, end) lies inside one free interval of
// its civil day in the doctor's zone and respects the doctor's lead time. It
// makes no reservation.
func (e *Engine) CheckInterval(ctx context.Context, doctorID string, start, end, now time.Time) (bool, error) {
	iv, err := NewInterval(start, end)
	if err != nil {
		return false, err
	}
	doctor, loc, err := e.doctor(ctx, doctorID)
	if err != nil {
		return false, err
	}
	if iv.Start.Before(now.Add(doctor.MinLead())) {
		return false, nil
	}
	date := ToLocal(iv.Start, loc).Date
	window := dayWindow(date, loc)
	if !window.Contains(iv) {
		return false, nil
	}
	_, free, err := e.open(ctx, doctor, loc, DaySetKey{DoctorID: doctor.ID, Date: date.String(), Timezone: doctor.Timezone}, window)
	if err != nil {
		return false, err
	}
	for _, f := range free {
		if f.Contains(iv) {
			return true, nil
		}
	}
	return false, nil
}

// WarmDaySet computes and caches the day set of date in the doctor's zone.
func (e *Engine) WarmDaySet(ctx context.Context, doctorID string, date CivilDate) error {
	if e.cache == nil {
		return nil
	}
	doctor, loc, err := e.doctor(ctx, doctorID)
	if err != nil {
		return err
	}
	_, err = e.day(ctx, doctor, loc, DaySetKey{DoctorID: doctor.ID, Date: date.String(), Timezone: doctor.Timezone}, dayWindow(date, loc))
	return err
}

// Doctor returns the stored configuration for doctorID.
func (e *Engine) Doctor(ctx context.Context, doctorID string) (model.Doctor, error) {
	d, _, err := e.doctor(ctx, doctorID)
	return d, err
}

func (e *Engine) doctor(ctx context.Context, doctorID string) (model.Doctor, *time.Location, error) {
	if strings.TrimSpace(doctorID) == "" {
		return model.Doctor{}, nil, fmt.Errorf("doctor %q: %w", doctorID, ErrNotFound)
	}
	doctor, err := e.store.GetDoctorConfig(ctx, doctorID)
	if err != nil {
		return model.Doctor{}, nil, fmt.Errorf("get doctor %s: %w", doctorID, err)
	}
	if err := doctor.Validate(); err != nil {
		return model.Doctor{}, nil, fmt.Errorf("%w: doctor %s: %w", ErrInvalidStoredData, doctorID, err)
	}
	loc, err := LoadZone(doctor.Timezone)
	if err != nil {
		return model.Doctor{}, nil, fmt.Errorf("%w: doctor %s: %w", ErrInvalidStoredData, doctorID, err)
	}
	return doctor, loc, nil
}

// open returns the day set of window and its free intervals. The day set may
// come from the cache; bookings are read from the store on every call.
func (e *Engine) open(ctx context.Context, doctor model.Doctor, loc *time.Location, key DaySetKey, window Interval) (DaySet, []Interval, error) {
	var (
		day      DaySet
		bookings []model.Booking
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		day, err = e.day(gctx, doctor, loc, key, window)
		return err
	})
	g.Go(func() error {
		bw := BookingWindow(window, doctor.Buffer())
		var err error
		bookings, err = e.store.ListConfirmedBookingsOverlapping(gctx, doctor.ID, bw.Start, bw.End)
		if err != nil {
			return fmt.Errorf("list bookings: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return DaySet{}, nil, err
	}
	free, err := day.Free(window, doctor.Buffer(), bookings)
	if err != nil {
		return DaySet{}, nil, err
	}
	return day, free, nil
}

func (e *Engine) day(ctx context.Context, doctor model.Doctor, loc *time.Location, key DaySetKey, window Interval) (DaySet, error) {
	cached := false
	if e.cache != nil {
		v, err := e.cache.Version(ctx, doctor.ID)
		if err != nil {
			e.logger.Warn("day set cache version failed", "doctor_id", doctor.ID, "err", err)
		} else {
			cached = true
			key.Version = v
			day, ok, err := e.cache.Get(ctx, key)
			if err != nil {
				e.logger.Warn("day set cache read failed", "doctor_id", doctor.ID, "err", err)
			} else if ok {
				return day, nil
			}
		}
	}

	src, err := e.loadSources(ctx, doctor, window)
	if err != nil {
		return DaySet{}, err
	}
	day, err := buildDay(window, loc, src, e.fold)
	if err != nil {
		return DaySet{}, err
	}

	if cached {
		if err := e.cache.Set(ctx, key, day); err != nil {
			e.logger.Warn("day set cache write failed", "doctor_id", doctor.ID, "err", err)
		}
	}
	return day, nil
}

type sources struct {
	templates []model.ScheduleTemplate
	openings  []model.Opening
	blocks    []model.Unavailability
}

// loadSources issues the three booking-independent list reads concurrently.
func (e *Engine) loadSources(ctx context.Context, doctor model.Doctor, window Interval) (sources, error) {
	var src sources
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		src.templates, err = e.store.ListSchedulesForDoctor(gctx, doctor.ID)
		if err != nil {
			return fmt.Errorf("list schedules: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		src.openings, err = e.store.ListOpeningsOverlapping(gctx, doctor.ID, window.Start, window.End)
		if err != nil {
			return fmt.Errorf("list openings: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		src.blocks, err = e.store.ListUnavailabilityOverlapping(gctx, doctor.ID, window.Start, window.End)
		if err != nil {
			return fmt.Errorf("list unavailability: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return sources{}, err
	}
	return src, nil
}

func buildDay(window Interval, loc *time.Location, src sources, fold FoldPolicy) (DaySet, error) {
	covered, err := Coverage(window, loc, src.templates, src.openings, fold)
	if err != nil {
		return DaySet{}, err
	}
	blocked, err := Blocked(window, src.blocks)
	if err != nil {
		return DaySet{}, err
	}
	return DaySet{Covered: covered, Blocked: blocked}, nil
}

// Input carries everything Compute needs; nothing is read from the process.
type Input struct {
	Doctor         model.Doctor
	Date           CivilDate
	Timezone       string
	Duration       time.Duration
	Now            time.Time
	Templates      []model.ScheduleTemplate
	Openings       []model.Opening
	Unavailability []model.Unavailability
	Bookings       []model.Booking
	Fold           FoldPolicy
}

// Compute is ComputeSlots over in-memory data.
func Compute(in Input) ([]Slot, error) {
	if in.Duration <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDuration, in.Duration)
	}
	if err := in.Doctor.Validate(); err != nil {
		return nil, err
	}
	doctorLoc, err := LoadZone(in.Doctor.Timezone)
	if err != nil {
		return nil, err
	}
	target := doctorLoc
	if strings.TrimSpace(in.Timezone) != "" {
		if target, err = LoadZone(in.Timezone); err != nil {
			return nil, err
		}
	}
	window := dayWindow(in.Date, target)
	day, err := buildDay(window, doctorLoc, sources{
		templates: in.Templates,
		openings:  in.Openings,
		blocks:    in.Unavailability,
	}, in.Fold)
	if err != nil {
		return nil, err
	}
	free, err := day.Free(window, in.Doctor.Buffer(), in.Bookings)
	if err != nil {
		return nil, err
	}
	return Slice(free, day.Covered, in.Duration, in.Now.Add(in.Doctor.MinLead())), nil
}
