package availability

import (
	"fmt"
	"sort"
	"time"
)

// Interval is a half-open [Start, End) range of UTC instants.
type Interval struct {
	Start time.Time
	End   time.Time
}

func NewInterval(start, end time.Time) (Interval, error) {
	if !end.After(start) {
		return Interval{}, fmt.Errorf("%w: [%s, %s)", ErrMalformedInterval,
			start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339))
	}
	return Interval{Start: start.UTC(), End: end.UTC()}, nil
}

func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// Overlaps uses half-open semantics: touching intervals do not overlap.
func (iv Interval) Overlaps(o Interval) bool {
	return iv.Start.Before(o.End) && o.Start.Before(iv.End)
}

func (iv Interval) Contains(o Interval) bool {
	return !o.Start.Before(iv.Start) && !o.End.After(iv.End)
}

// Expand widens the interval by d on both sides.
func (iv Interval) Expand(d time.Duration) Interval {
	return Interval{Start: iv.Start.Add(-d), End: iv.End.Add(d)}
}

func (iv Interval) String() string {
	return "[" + iv.Start.UTC().Format(time.RFC3339) + ", " + iv.End.UTC().Format(time.RFC3339) + ")"
}

func IntersectsDay(iv Interval, day Interval) bool {
	return iv.Overlaps(day)
}

// Merge returns the union of in as a sorted, disjoint sequence. Overlapping
// and touching intervals are joined. The input slice is not modified.
func Merge(in []Interval) []Interval {
	if len(in) == 0 {
		return nil
	}
	sorted := make([]Interval, 0, len(in))
	for _, iv := range in {
		if iv.End.After(iv.Start) {
			sorted = append(sorted, iv)
		}
	}
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].Start.Equal(sorted[j].Start) {
			return sorted[i].Start.Before(sorted[j].Start)
		}
		return sorted[i].End.Before(sorted[j].End)
	})

	merged := make([]Interval, 0, len(sorted))
	for _, cur := range sorted {
		if len(merged) == 0 {
			merged = append(merged, cur)
			continue
		}
		last := &merged[len(merged)-1]
		if cur.Start.After(last.End) {
			merged = append(merged, cur)
			continue
		}
		if cur.End.After(last.End) {
			last.End = cur.End
		}
	}
	return merged
}

// Subtract computes base \ cuts. cuts must be sorted and disjoint (the output
// of Merge). Fragments left over from one base interval are emitted in order
// and never re-joined with each other; zero-width fragments are dropped.
func Subtract(base []Interval, cuts []Interval) []Interval {
	var out []Interval
	for _, b := range base {
		if !b.End.After(b.Start) {
			continue
		}
		// First cut that ends after the base starts.
		i := sort.Search(len(cuts), func(i int) bool {
			return cuts[i].End.After(b.Start)
		})
		cursor := b.Start
		for ; i < len(cuts) && cuts[i].Start.Before(b.End); i++ {
			c := cuts[i]
			if c.Start.After(cursor) {
				out = append(out, Interval{Start: cursor, End: c.Start})
			}
			if c.End.After(cursor) {
				cursor = c.End
			}
		}
		if b.End.After(cursor) {
			out = append(out, Interval{Start: cursor, End: b.End})
		}
	}
	return out
}

// Clip intersects every interval with window and drops what falls outside.
func Clip(in []Interval, window Interval) []Interval {
	out := make([]Interval, 0, len(in))
	for _, iv := range in {
		if !iv.Overlaps(window) {
			continue
		}
		if iv.Start.Before(window.Start) {
			iv.Start = window.Start
		}
		if iv.End.After(window.End) {
			iv.End = window.End
		}
		out = append(out, iv)
	}
	return out
}
