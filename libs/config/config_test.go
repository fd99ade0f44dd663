package config

import (
	"testing"
	"time"
)

func TestString_FallbackAndTrim(t *testing.T) {
	t.Setenv("CLINICSLOTS_TEST_STRING", "  value ")
	if got := String("CLINICSLOTS_TEST_STRING", "x"); got != "value" {
		t.Fatalf("expected value, got %q", got)
	}
	if got := String("CLINICSLOTS_TEST_UNSET", "x"); got != "x" {
		t.Fatalf("expected fallback, got %q", got)
	}
	if _, err := RequiredString("CLINICSLOTS_TEST_UNSET"); err == nil {
		t.Fatalf("expected error for missing required value")
	}
}

func TestPort(t *testing.T) {
	t.Setenv("CLINICSLOTS_TEST_PORT", "70000")
	if _, err := Port("CLINICSLOTS_TEST_PORT", "8080"); err == nil {
		t.Fatalf("expected error for out-of-range port")
	}
	if p, err := Port("CLINICSLOTS_TEST_UNSET", "8080"); err != nil || p != "8080" {
		t.Fatalf("expected 8080, got %q %v", p, err)
	}
}

func TestIntDurationBool(t *testing.T) {
	t.Setenv("CLINICSLOTS_TEST_INT", "12")
	t.Setenv("CLINICSLOTS_TEST_DURATION", "90s")
	t.Setenv("CLINICSLOTS_TEST_BOOL", "true")

	if n, err := Int("CLINICSLOTS_TEST_INT", 1); err != nil || n != 12 {
		t.Fatalf("expected 12, got %d %v", n, err)
	}
	if d, err := Duration("CLINICSLOTS_TEST_DURATION", time.Second); err != nil || d != 90*time.Second {
		t.Fatalf("expected 90s, got %s %v", d, err)
	}
	if b, err := Bool("CLINICSLOTS_TEST_BOOL", false); err != nil || !b {
		t.Fatalf("expected true, got %v %v", b, err)
	}

	t.Setenv("CLINICSLOTS_TEST_INT", "twelve")
	if _, err := Int("CLINICSLOTS_TEST_INT", 1); err == nil {
		t.Fatalf("expected error for non-integer")
	}
	t.Setenv("CLINICSLOTS_TEST_DURATION", "-1m")
	if _, err := Duration("CLINICSLOTS_TEST_DURATION", time.Second); err == nil {
		t.Fatalf("expected error for negative duration")
	}
}

func TestList(t *testing.T) {
	t.Setenv("CLINICSLOTS_TEST_LIST", "a, b,,c ")
	got := List("CLINICSLOTS_TEST_LIST", nil)
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("unexpected list %v", got)
	}
	if got := List("CLINICSLOTS_TEST_UNSET", []string{"d"}); len(got) != 1 || got[0] != "d" {
		t.Fatalf("expected fallback, got %v", got)
	}
}
