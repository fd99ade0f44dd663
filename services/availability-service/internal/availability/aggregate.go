package availability

import (
	"fmt"
	"time"

	"github.com/md-rashed-zaman/clinicslots/services/availability-service/internal/model"
)

// Coverage unions the template occurrences and openings that fall inside
// window. Templates are read in loc, the doctor's zone, on every local date
// the window touches; overnight templates from the preceding date contribute
// the part after midnight.
func Coverage(window Interval, loc *time.Location, templates []model.ScheduleTemplate, openings []model.Opening, fold FoldPolicy) ([]Interval, error) {
	var covered []Interval

	first := ToLocal(window.Start, loc).Date
	last := ToLocal(window.End.Add(-time.Nanosecond), loc).Date

	for d := first; !d.After(last); d = d.AddDays(1) {
		prev := d.AddDays(-1)
		for _, t := range templates {
			if t.Overnight() && t.EndMinute > 0 && t.AppliesTo(prev.Weekday()) {
				iv, err := spill(t, d, loc, fold)
				if err != nil {
					return nil, err
				}
				covered = appendIfOverlaps(covered, iv, window)
			}
			if !t.AppliesTo(d.Weekday()) {
				continue
			}
			iv, err := occurrence(t, d, loc, fold)
			if err != nil {
				return nil, err
			}
			covered = appendIfOverlaps(covered, iv, window)
		}
	}

	for _, o := range openings {
		iv, err := NewInterval(o.StartUTC, o.EndUTC)
		if err != nil {
			return nil, fmt.Errorf("%w: opening %s: %w", ErrInvalidStoredData, o.ID, err)
		}
		covered = appendIfOverlaps(covered, iv, window)
	}

	return Merge(Clip(covered, window)), nil
}

// occurrence places t on date d. An overnight template yields only the part up
// to the end of d; the rest is the next date's spill.
func occurrence(t model.ScheduleTemplate, d CivilDate, loc *time.Location, fold FoldPolicy) (Interval, error) {
	start, err := wallMinute(d, t.StartMinute, loc, fold)
	if err != nil {
		return Interval{}, fmt.Errorf("template %s on %s: %w", t.ID, d, err)
	}
	if t.Overnight() {
		return Interval{Start: start, End: startOfDay(d.AddDays(1), loc)}, nil
	}
	end, err := wallMinute(d, t.EndMinute, loc, fold)
	if err != nil {
		return Interval{}, fmt.Errorf("template %s on %s: %w", t.ID, d, err)
	}
	return Interval{Start: start, End: end}, nil
}

// spill is the after-midnight part of an overnight template, on date d.
func spill(t model.ScheduleTemplate, d CivilDate, loc *time.Location, fold FoldPolicy) (Interval, error) {
	end, err := wallMinute(d, t.EndMinute, loc, fold)
	if err != nil {
		return Interval{}, fmt.Errorf("template %s on %s: %w", t.ID, d, err)
	}
	return Interval{Start: startOfDay(d, loc), End: end}, nil
}

// wallMinute converts a minute of the local day d to an instant. Minute 0 is
// the start of the day and minute 1440 the start of the next one, both of
// which exist even when midnight itself is skipped.
func wallMinute(d CivilDate, minute int, loc *time.Location, fold FoldPolicy) (time.Time, error) {
	switch minute {
	case 0:
		return startOfDay(d, loc), nil
	case model.MinutesPerDay:
		return startOfDay(d.AddDays(1), loc), nil
	}
	return FromLocal(CivilDateTime{Date: d, Hour: minute / 60, Minute: minute % 60}, loc, fold)
}

func appendIfOverlaps(dst []Interval, iv Interval, window Interval) []Interval {
	if !iv.End.After(iv.Start) || !IntersectsDay(iv, window) {
		return dst
	}
	return append(dst, iv)
}
