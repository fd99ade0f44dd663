package availability

import (
	"errors"
	"testing"
	"time"
)

func mustZone(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := LoadZone(name)
	if err != nil {
		t.Fatalf("load zone %s: %v", name, err)
	}
	return loc
}

func mustDate(t *testing.T, s string) CivilDate {
	t.Helper()
	d, err := ParseCivilDate(s)
	if err != nil {
		t.Fatalf("parse date %s: %v", s, err)
	}
	return d
}

func mustUTC(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("parse time %s: %v", s, err)
	}
	return ts.UTC()
}

func TestParseCivilDate(t *testing.T) {
	d := mustDate(t, "2026-03-02")
	if d.String() != "2026-03-02" || d.Weekday() != time.Monday {
		t.Fatalf("unexpected date %s (%s)", d, d.Weekday())
	}
	for _, bad := range []string{"", "2026-3-2", "2026-02-30", "02/03/2026", "2026-03-02T00:00"} {
		if _, err := ParseCivilDate(bad); !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("%q: expected ErrInvalidDate, got %v", bad, err)
		}
	}
	if got := d.AddDays(-2).String(); got != "2026-02-28" {
		t.Fatalf("expected 2026-02-28, got %s", got)
	}
}

func TestLoadZone_Rejects(t *testing.T) {
	for _, bad := range []string{"", "Local", "Mars/Olympus_Mons", "UTC+3"} {
		if _, err := LoadZone(bad); !errors.Is(err, ErrInvalidTimezone) {
			t.Fatalf("%q: expected ErrInvalidTimezone, got %v", bad, err)
		}
	}
}

func TestDayBoundsUTC(t *testing.T) {
	cases := []struct {
		name  string
		zone  string
		date  string
		start string
		hours time.Duration
	}{
		{"moscow", "Europe/Moscow", "2026-03-02", "2026-03-01T21:00:00Z", 24},
		{"new york spring forward", "America/New_York", "2026-03-08", "2026-03-08T05:00:00Z", 23},
		{"new york fall back", "America/New_York", "2026-11-01", "2026-11-01T04:00:00Z", 25},
		{"berlin spring forward", "Europe/Berlin", "2026-03-29", "2026-03-28T23:00:00Z", 23},
		{"berlin fall back", "Europe/Berlin", "2026-10-25", "2026-10-24T22:00:00Z", 25},
		// Midnight is skipped; the day begins at 01:00 local.
		{"sao paulo midnight gap", "America/Sao_Paulo", "2018-11-04", "2018-11-04T03:00:00Z", 23},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DayBoundsUTC(mustDate(t, tc.date), tc.zone)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Start.Equal(mustUTC(t, tc.start)) {
				t.Fatalf("expected start %s, got %s", tc.start, got.Start.Format(time.RFC3339))
			}
			if got.Duration() != tc.hours*time.Hour {
				t.Fatalf("expected %dh day, got %s", tc.hours, got.Duration())
			}
		})
	}
}

func TestDayBoundsUTC_InvalidZone(t *testing.T) {
	if _, err := DayBoundsUTC(mustDate(t, "2026-03-02"), "Nowhere/Special"); !errors.Is(err, ErrInvalidTimezone) {
		t.Fatalf("expected ErrInvalidTimezone, got %v", err)
	}
}

func TestFromLocal_Gap(t *testing.T) {
	ny := mustZone(t, "America/New_York")
	c := CivilDateTime{Date: mustDate(t, "2026-03-08"), Hour: 2, Minute: 30}
	if _, err := FromLocal(c, ny, FoldLater); !errors.Is(err, ErrNonexistentLocalTime) {
		t.Fatalf("expected ErrNonexistentLocalTime, got %v", err)
	}
}

func TestFromLocal_Fold(t *testing.T) {
	ny := mustZone(t, "America/New_York")
	c := CivilDateTime{Date: mustDate(t, "2026-11-01"), Hour: 1, Minute: 30}

	got, err := FromLocal(c, ny, FoldLater)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Second occurrence, on EST.
	if want := mustUTC(t, "2026-11-01T06:30:00Z"); !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want.Format(time.RFC3339), got.Format(time.RFC3339))
	}

	if _, err := FromLocal(c, ny, FoldReject); !errors.Is(err, ErrAmbiguousLocalTime) {
		t.Fatalf("expected ErrAmbiguousLocalTime, got %v", err)
	}

	berlin := mustZone(t, "Europe/Berlin")
	c = CivilDateTime{Date: mustDate(t, "2026-10-25"), Hour: 2, Minute: 15}
	got, err = FromLocal(c, berlin, FoldLater)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := mustUTC(t, "2026-10-25T01:15:00Z"); !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want.Format(time.RFC3339), got.Format(time.RFC3339))
	}
}

func TestToLocalFromLocal_RoundTrip(t *testing.T) {
	for _, zone := range []string{"Europe/Moscow", "America/New_York", "Europe/Berlin", "Asia/Kolkata", "UTC"} {
		loc := mustZone(t, zone)
		start := mustUTC(t, "2026-03-07T00:00:00Z")
		for i := 0; i < 24*4*3; i++ {
			x := start.Add(time.Duration(i)*15*time.Minute + 7*time.Second)
			c := ToLocal(x, loc)
			got, err := FromLocal(c, loc, FoldReject)
			if errors.Is(err, ErrAmbiguousLocalTime) {
				continue
			}
			if err != nil {
				t.Fatalf("%s %s: unexpected error: %v", zone, x, err)
			}
			if !got.Equal(x) {
				t.Fatalf("%s: round trip of %s gave %s", zone, x, got)
			}
		}
	}
}

func TestParseFoldPolicy(t *testing.T) {
	if p, err := ParseFoldPolicy("reject"); err != nil || p != FoldReject {
		t.Fatalf("expected FoldReject, got %v %v", p, err)
	}
	if p, err := ParseFoldPolicy(""); err != nil || p != FoldLater {
		t.Fatalf("expected FoldLater, got %v %v", p, err)
	}
	if _, err := ParseFoldPolicy("earlier"); err == nil {
		t.Fatalf("expected error for unknown policy")
	}
}
