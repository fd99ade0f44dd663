package availability

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

const civilDateLayout = "2006-01-02"

// CivilDate is a calendar date with no zone attached.
type CivilDate struct {
	Year  int
	Month time.Month
	Day   int
}

func ParseCivilDate(s string) (CivilDate, error) {
	s = strings.TrimSpace(s)
	if len(s) != len(civilDateLayout) {
		return CivilDate{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	t, err := time.Parse(civilDateLayout, s)
	if err != nil {
		return CivilDate{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return CivilDate{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

func (d CivilDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d CivilDate) midnight() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d CivilDate) AddDays(n int) CivilDate {
	t := d.midnight().AddDate(0, 0, n)
	return CivilDate{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

func (d CivilDate) Weekday() time.Weekday {
	return d.midnight().Weekday()
}

func (d CivilDate) Before(o CivilDate) bool { return d.midnight().Before(o.midnight()) }
func (d CivilDate) After(o CivilDate) bool  { return d.midnight().After(o.midnight()) }

// CivilDateTime is a wall-clock reading in some zone.
type CivilDateTime struct {
	Date       CivilDate
	Hour       int
	Minute     int
	Second     int
	Nanosecond int
}

func (c CivilDateTime) wall() time.Time {
	return time.Date(c.Date.Year, c.Date.Month, c.Date.Day, c.Hour, c.Minute, c.Second, c.Nanosecond, time.UTC)
}

func (c CivilDateTime) String() string {
	return c.wall().Format("2006-01-02T15:04:05")
}

// FoldPolicy decides how a wall-clock time that occurs twice is resolved.
type FoldPolicy int

const (
	// FoldLater picks the second occurrence, after clocks were set back.
	FoldLater FoldPolicy = iota
	// FoldReject reports ErrAmbiguousLocalTime.
	FoldReject
)

func ParseFoldPolicy(s string) (FoldPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "later":
		return FoldLater, nil
	case "reject":
		return FoldReject, nil
	default:
		return FoldLater, fmt.Errorf("unknown fold policy %q", s)
	}
}

// LoadZone resolves an IANA zone id. The process-local zone is refused so
// results never depend on the host.
func LoadZone(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" || name == "Local" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, name)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, name)
	}
	return loc, nil
}

func ToLocal(t time.Time, loc *time.Location) CivilDateTime {
	l := t.In(loc)
	return CivilDateTime{
		Date:       CivilDate{Year: l.Year(), Month: l.Month(), Day: l.Day()},
		Hour:       l.Hour(),
		Minute:     l.Minute(),
		Second:     l.Second(),
		Nanosecond: l.Nanosecond(),
	}
}

// FromLocal converts a wall-clock reading to the instant it denotes in loc.
// Readings skipped by a forward transition fail with ErrNonexistentLocalTime.
// Readings repeated by a backward transition follow fold.
func FromLocal(c CivilDateTime, loc *time.Location, fold FoldPolicy) (time.Time, error) {
	candidates := instantsFor(c.wall(), loc)
	switch {
	case len(candidates) == 0:
		return time.Time{}, fmt.Errorf("%w: %s in %s", ErrNonexistentLocalTime, c, loc)
	case len(candidates) == 1:
		return candidates[0], nil
	case fold == FoldReject:
		return time.Time{}, fmt.Errorf("%w: %s in %s", ErrAmbiguousLocalTime, c, loc)
	default:
		return candidates[len(candidates)-1], nil
	}
}

// DayBoundsUTC returns the instants the civil date occupies in the named zone.
// The result is 23, 24 or 25 hours long depending on transitions that day.
func DayBoundsUTC(d CivilDate, tzid string) (Interval, error) {
	loc, err := LoadZone(tzid)
	if err != nil {
		return Interval{}, err
	}
	return dayWindow(d, loc), nil
}

func dayWindow(d CivilDate, loc *time.Location) Interval {
	return Interval{Start: startOfDay(d, loc), End: startOfDay(d.AddDays(1), loc)}
}

// startOfDay is the first instant whose wall clock reads d. On a fold that is
// the first midnight; when midnight is skipped it is the end of the gap.
func startOfDay(d CivilDate, loc *time.Location) time.Time {
	wall := d.midnight()
	if c := instantsFor(wall, loc); len(c) > 0 {
		return c[0]
	}
	return gapEnd(wall, loc)
}

// instantsFor returns, in ascending order, every instant whose wall clock in
// loc equals wall.
func instantsFor(wall time.Time, loc *time.Location) []time.Time {
	var out []time.Time
	for _, off := range offsetsAround(wall, loc) {
		u := wall.Add(-time.Duration(off) * time.Second)
		if _, got := u.In(loc).Zone(); got != off {
			continue
		}
		dup := false
		for _, o := range out {
			if o.Equal(u) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// offsetsAround collects the distinct UTC offsets loc uses within a day of
// wall. Zones never change offset twice inside that span.
func offsetsAround(wall time.Time, loc *time.Location) []int {
	var offs []int
	for _, sample := range []time.Time{wall.Add(-24 * time.Hour), wall, wall.Add(24 * time.Hour)} {
		_, off := sample.In(loc).Zone()
		seen := false
		for _, o := range offs {
			if o == off {
				seen = true
				break
			}
		}
		if !seen {
			offs = append(offs, off)
		}
	}
	return offs
}

func gapEnd(wall time.Time, loc *time.Location) time.Time {
	offs := offsetsAround(wall, loc)
	minOff, maxOff := offs[0], offs[0]
	for _, o := range offs[1:] {
		if o < minOff {
			minOff = o
		}
		if o > maxOff {
			maxOff = o
		}
	}
	// Before the transition, still on the old offset.
	before := wall.Add(-time.Duration(maxOff) * time.Second)
	if _, end := before.In(loc).ZoneBounds(); !end.IsZero() && end.After(before) {
		return end.UTC()
	}
	return wall.Add(-time.Duration(minOff) * time.Second)
}
