package availability

import (
	"errors"
	"testing"
	"time"
)

var base = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func iv(fromMin, toMin int) Interval {
	return Interval{Start: base.Add(time.Duration(fromMin) * time.Minute), End: base.Add(time.Duration(toMin) * time.Minute)}
}

func equalIntervals(t *testing.T, got, want []Interval) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d intervals %v, got %d %v", len(want), want, len(got), got)
	}
	for i := range want {
		if !got[i].Start.Equal(want[i].Start) || !got[i].End.Equal(want[i].End) {
			t.Fatalf("interval %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestNewInterval_RejectsEmptyAndInverted(t *testing.T) {
	if _, err := NewInterval(base, base); !errors.Is(err, ErrMalformedInterval) {
		t.Fatalf("expected ErrMalformedInterval for zero width, got %v", err)
	}
	if _, err := NewInterval(base.Add(time.Hour), base); !errors.Is(err, ErrMalformedInterval) {
		t.Fatalf("expected ErrMalformedInterval for inverted, got %v", err)
	}
	got, err := NewInterval(base, base.Add(time.Minute))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Duration() != time.Minute {
		t.Fatalf("expected 1m, got %s", got.Duration())
	}
}

func TestOverlaps_HalfOpen(t *testing.T) {
	if iv(0, 60).Overlaps(iv(60, 120)) {
		t.Fatalf("touching intervals must not overlap")
	}
	if !iv(0, 61).Overlaps(iv(60, 120)) {
		t.Fatalf("expected overlap")
	}
	if !IntersectsDay(iv(-30, 10), iv(0, 1440)) {
		t.Fatalf("expected interval crossing midnight to intersect the day")
	}
}

func TestMerge_JoinsOverlappingAndTouching(t *testing.T) {
	in := []Interval{iv(300, 360), iv(0, 60), iv(60, 90), iv(30, 45), iv(100, 120), iv(110, 130)}
	got := Merge(in)
	equalIntervals(t, got, []Interval{iv(0, 90), iv(100, 130), iv(300, 360)})

	// Input untouched.
	if !in[0].Start.Equal(iv(300, 360).Start) {
		t.Fatalf("merge reordered its input")
	}
}

func TestMerge_Empty(t *testing.T) {
	if got := Merge(nil); len(got) != 0 {
		t.Fatalf("expected no intervals, got %v", got)
	}
}

func TestSubtract(t *testing.T) {
	baseSet := []Interval{iv(540, 1080)}
	cuts := []Interval{iv(0, 30), iv(585, 645), iv(700, 720), iv(1070, 1200)}
	got := Subtract(baseSet, cuts)
	equalIntervals(t, got, []Interval{iv(540, 585), iv(645, 700), iv(720, 1070)})
}

func TestSubtract_DropsZeroWidthAndKeepsAbuttingFragments(t *testing.T) {
	got := Subtract([]Interval{iv(0, 60), iv(60, 120)}, []Interval{iv(0, 60)})
	equalIntervals(t, got, []Interval{iv(60, 120)})

	// Two base intervals that abut stay separate.
	got = Subtract([]Interval{iv(0, 60), iv(60, 120)}, nil)
	equalIntervals(t, got, []Interval{iv(0, 60), iv(60, 120)})

	got = Subtract([]Interval{iv(10, 20)}, []Interval{iv(0, 30)})
	if len(got) != 0 {
		t.Fatalf("expected nothing left, got %v", got)
	}
}

func TestClip(t *testing.T) {
	got := Clip([]Interval{iv(-60, 30), iv(100, 200), iv(1400, 1500), iv(1500, 1600)}, iv(0, 1440))
	equalIntervals(t, got, []Interval{iv(0, 30), iv(100, 200), iv(1400, 1440)})
}

func TestExpand(t *testing.T) {
	got := iv(600, 630).Expand(15 * time.Minute)
	equalIntervals(t, []Interval{got}, []Interval{iv(585, 645)})
}
