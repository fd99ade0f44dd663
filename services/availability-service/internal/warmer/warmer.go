package warmer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/md-rashed-zaman/clinicslots/services/availability-service/internal/availability"
	"github.com/md-rashed-zaman/clinicslots/services/availability-service/internal/model"
	"golang.org/x/sync/errgroup"
)

type Engine interface {
	Doctor(ctx context.Context, doctorID string) (model.Doctor, error)
	WarmDaySet(ctx context.Context, doctorID string, date availability.CivilDate) error
}

type DoctorLister interface {
	ListActiveDoctorIDs(ctx context.Context) ([]string, error)
}

// Warmer periodically fills the day-set cache for every active doctor,
// from the doctor's local today onward.
type Warmer struct {
	engine      Engine
	doctors     DoctorLister
	logger      *slog.Logger
	interval    time.Duration
	horizonDays int
	concurrency int
	now         func() time.Time
}

type Config struct {
	Interval    time.Duration
	HorizonDays int
	Concurrency int
	Now         func() time.Time
}

func New(engine Engine, doctors DoctorLister, logger *slog.Logger, cfg Config) *Warmer {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.HorizonDays <= 0 {
		cfg.HorizonDays = 7
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Warmer{
		engine:      engine,
		doctors:     doctors,
		logger:      logger,
		interval:    cfg.Interval,
		horizonDays: cfg.HorizonDays,
		concurrency: cfg.Concurrency,
		now:         cfg.Now,
	}
}

func (w *Warmer) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if err := w.WarmAll(ctx); err != nil && ctx.Err() == nil {
			w.logger.Error("day set warm pass failed", "err", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// WarmAll runs one pass. A doctor that fails is logged and skipped; only a
// failure to list doctors fails the pass.
func (w *Warmer) WarmAll(ctx context.Context) error {
	ids, err := w.doctors.ListActiveDoctorIDs(ctx)
	if err != nil {
		return fmt.Errorf("list active doctors: %w", err)
	}

	now := w.now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)
	for _, id := range ids {
		g.Go(func() error {
			if err := w.warmDoctor(gctx, id, now); err != nil {
				w.logger.Warn("day set warm failed", "doctor_id", id, "err", err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (w *Warmer) warmDoctor(ctx context.Context, doctorID string, now time.Time) error {
	d, err := w.engine.Doctor(ctx, doctorID)
	if err != nil {
		return err
	}
	loc, err := availability.LoadZone(d.Timezone)
	if err != nil {
		return err
	}
	today := availability.ToLocal(now, loc).Date
	for i := 0; i < w.horizonDays; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		date := today.AddDays(i)
		if err := w.engine.WarmDaySet(ctx, doctorID, date); err != nil {
			return fmt.Errorf("warm %s: %w", date, err)
		}
	}
	return nil
}
