package availability

import (
	"fmt"
	"time"

	"github.com/md-rashed-zaman/clinicslots/services/availability-service/internal/model"
)

// DaySet is a day's availability before bookings are applied: the merged
// working time and the unavailability blocks reaching into it. It changes
// only on admin writes, so it is what the engine caches. Bookings are always
// read fresh.
type DaySet struct {
	Covered []Interval
	Blocked []Interval
}

// Free subtracts the blocks and the buffered confirmed bookings from the
// covered time.
func (d DaySet) Free(window Interval, buffer time.Duration, bookings []model.Booking) ([]Interval, error) {
	booked, err := BookingExclusions(window, buffer, bookings)
	if err != nil {
		return nil, err
	}
	excl := make([]Interval, 0, len(d.Blocked)+len(booked))
	excl = append(excl, d.Blocked...)
	excl = append(excl, booked...)
	return Free(d.Covered, Merge(excl)), nil
}

// BookingWindow is the range bookings must be read over so that a booking
// just outside the day still pushes its buffer into it.
func BookingWindow(window Interval, buffer time.Duration) Interval {
	return window.Expand(buffer)
}

// Blocked merges the unavailability blocks that reach into window.
func Blocked(window Interval, blocks []model.Unavailability) ([]Interval, error) {
	out := make([]Interval, 0, len(blocks))
	for _, b := range blocks {
		iv, err := NewInterval(b.StartUTC, b.EndUTC)
		if err != nil {
			return nil, fmt.Errorf("%w: unavailability %s: %w", ErrInvalidStoredData, b.ID, err)
		}
		if iv.Overlaps(window) {
			out = append(out, iv)
		}
	}
	return Merge(out), nil
}

// BookingExclusions expands every confirmed booking by buffer and keeps the
// ones that reach into window.
func BookingExclusions(window Interval, buffer time.Duration, bookings []model.Booking) ([]Interval, error) {
	out := make([]Interval, 0, len(bookings))
	for _, b := range bookings {
		if b.Status != model.BookingConfirmed {
			continue
		}
		iv, err := NewInterval(b.StartUTC, b.EndUTC)
		if err != nil {
			return nil, fmt.Errorf("%w: booking %s: %w", ErrInvalidStoredData, b.ID, err)
		}
		if exp := iv.Expand(buffer); exp.Overlaps(window) {
			out = append(out, exp)
		}
	}
	return Merge(out), nil
}

func Free(covered, exclusions []Interval) []Interval {
	return Subtract(covered, exclusions)
}
