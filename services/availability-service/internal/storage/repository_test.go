package storage

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/md-rashed-zaman/clinicslots/services/availability-service/internal/availability"
)

func TestErrorClassification(t *testing.T) {
	wrapped := notFound(pgx.ErrNoRows, "doctor", "doc-1")
	if !errors.Is(wrapped, availability.ErrNotFound) || !IsNotFound(wrapped) {
		t.Fatalf("expected ErrNoRows to map to ErrNotFound, got %v", wrapped)
	}
	other := errors.New("boom")
	if notFound(other, "doctor", "doc-1") != other {
		t.Fatalf("expected other errors to pass through")
	}

	unique := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})
	if !IsConflict(unique) {
		t.Fatalf("expected unique violation to be a conflict")
	}
	if IsConflict(other) {
		t.Fatalf("plain error is not a conflict")
	}
	if !IsInvalid(&pgconn.PgError{Code: "23514"}) {
		t.Fatalf("expected check violation to be invalid")
	}
}
