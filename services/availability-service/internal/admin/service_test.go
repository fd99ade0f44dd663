package admin

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/clinicslots/services/availability-service/internal/model"
)

// stubTx never runs fn, so the repository is not touched.
type stubTx struct {
	err   error
	calls int
}

func (s *stubTx) InTx(_ context.Context, _ func(pgx.Tx) error) error {
	s.calls++
	return s.err
}

type recordingInvalidator struct{ doctors []string }

func (r *recordingInvalidator) Invalidate(_ context.Context, id string) error {
	r.doctors = append(r.doctors, id)
	return nil
}

func newTestService(tx *stubTx, inv *recordingInvalidator) *Service {
	return New(tx, nil, nil, inv, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestValidationRejectsBeforeTransaction(t *testing.T) {
	tx := &stubTx{}
	s := newTestService(tx, &recordingInvalidator{})
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC)

	if _, err := s.PutDoctor(ctx, model.Doctor{ID: "d", Timezone: "Mars/Base", SlotDurationMin: 30}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for bad zone, got %v", err)
	}
	if _, err := s.PutDoctor(ctx, model.Doctor{ID: "d", Timezone: "UTC", SlotDurationMin: 0}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for zero slot length, got %v", err)
	}
	if _, err := s.PutSchedules(ctx, "d", []model.ScheduleTemplate{{Weekdays: []int{7}, StartMinute: 0, EndMinute: 60}}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for bad weekday, got %v", err)
	}
	if _, err := s.CreateOpening(ctx, "d", now, now); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty opening, got %v", err)
	}
	if _, err := s.CreateUnavailability(ctx, "d", now.Add(time.Hour), now, ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for inverted block, got %v", err)
	}
	if tx.calls != 0 {
		t.Fatalf("expected no transaction, got %d", tx.calls)
	}
}

func TestWrite_InvalidatesOnlyAfterCommit(t *testing.T) {
	inv := &recordingInvalidator{}
	tx := &stubTx{err: errors.New("serialization failure")}
	s := newTestService(tx, inv)
	start := time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC)

	if _, err := s.CreateOpening(context.Background(), "doc-1", start, start.Add(time.Hour)); err == nil {
		t.Fatalf("expected transaction error")
	}
	if len(inv.doctors) != 0 {
		t.Fatalf("failed write must not invalidate, got %v", inv.doctors)
	}

	tx.err = nil
	if _, err := s.CreateOpening(context.Background(), "doc-1", start, start.Add(time.Hour)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(inv.doctors) != 1 || inv.doctors[0] != "doc-1" {
		t.Fatalf("expected doc-1 invalidated, got %v", inv.doctors)
	}
}
