package availability

import (
	"sort"
	"time"
)

type Slot struct {
	StartUTC time.Time
	EndUTC   time.Time
}

// Slice cuts free intervals into back-to-back slots of length duration.
// Each free interval lies inside one interval of covered, the merged working
// time it was carved from, and its starts sit on a grid of duration steps
// counted from that covered interval's start. No slot starts before earliest.
func Slice(free, covered []Interval, duration time.Duration, earliest time.Time) []Slot {
	if duration <= 0 {
		return nil
	}
	var slots []Slot
	for _, iv := range free {
		if !iv.End.After(earliest) {
			continue
		}
		cursor := iv.Start
		if earliest.After(cursor) {
			cursor = earliest
		}
		cursor = alignUp(cursor, anchorOf(covered, iv), duration)
		for ; !cursor.Add(duration).After(iv.End); cursor = cursor.Add(duration) {
			slots = append(slots, Slot{StartUTC: cursor.UTC(), EndUTC: cursor.Add(duration).UTC()})
		}
	}
	return slots
}

// anchorOf returns the start of the covered interval holding iv. A fragment
// outside every covered interval anchors on itself.
func anchorOf(covered []Interval, iv Interval) time.Time {
	i := sort.Search(len(covered), func(i int) bool { return covered[i].End.After(iv.Start) })
	if i < len(covered) && !covered[i].Start.After(iv.Start) {
		return covered[i].Start
	}
	return iv.Start
}

func alignUp(t, anchor time.Time, step time.Duration) time.Time {
	rem := t.Sub(anchor) % step
	if rem < 0 {
		rem += step
	}
	if rem == 0 {
		return t
	}
	return t.Add(step - rem)
}
