package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidDoctorConfig = errors.New("invalid doctor config")
	ErrInvalidSchedule     = errors.New("invalid schedule template")
	ErrInvalidClock        = errors.New("invalid time of day")
)

// MinutesPerDay is the exclusive upper bound of a start minute and the
// inclusive upper bound of an end minute ("24:00").
const MinutesPerDay = 24 * 60

type Doctor struct {
	ID              string
	Timezone        string
	SlotDurationMin int
	BufferMin       int
	MinLeadMin      int
	IsActive        bool
	UpdatedAt       time.Time
}

func (d Doctor) Validate() error {
	switch {
	case strings.TrimSpace(d.Timezone) == "":
		return fmt.Errorf("%w: timezone is required", ErrInvalidDoctorConfig)
	case d.SlotDurationMin <= 0:
		return fmt.Errorf("%w: slot duration must be positive", ErrInvalidDoctorConfig)
	case d.BufferMin < 0:
		return fmt.Errorf("%w: buffer must not be negative", ErrInvalidDoctorConfig)
	case d.MinLeadMin < 0:
		return fmt.Errorf("%w: lead time must not be negative", ErrInvalidDoctorConfig)
	}
	return nil
}

func (d Doctor) Buffer() time.Duration  { return time.Duration(d.BufferMin) * time.Minute }
func (d Doctor) MinLead() time.Duration { return time.Duration(d.MinLeadMin) * time.Minute }

// ScheduleTemplate is a recurring weekly window in the doctor's local time.
// Weekdays use time.Weekday numbering (0=Sunday). An EndMinute at or before
// StartMinute marks an overnight window that finishes on the following day.
type ScheduleTemplate struct {
	ID          string
	DoctorID    string
	Weekdays    []int
	StartMinute int
	EndMinute   int
	CreatedAt   time.Time
}

func (t ScheduleTemplate) Validate() error {
	if len(t.Weekdays) == 0 {
		return fmt.Errorf("%w: at least one weekday is required", ErrInvalidSchedule)
	}
	for _, wd := range t.Weekdays {
		if wd < 0 || wd > 6 {
			return fmt.Errorf("%w: weekday %d out of range", ErrInvalidSchedule, wd)
		}
	}
	if t.StartMinute < 0 || t.StartMinute >= MinutesPerDay {
		return fmt.Errorf("%w: start minute %d out of range", ErrInvalidSchedule, t.StartMinute)
	}
	if t.EndMinute < 0 || t.EndMinute > MinutesPerDay {
		return fmt.Errorf("%w: end minute %d out of range", ErrInvalidSchedule, t.EndMinute)
	}
	return nil
}

func (t ScheduleTemplate) AppliesTo(wd time.Weekday) bool {
	for _, d := range t.Weekdays {
		if d == int(wd) {
			return true
		}
	}
	return false
}

func (t ScheduleTemplate) Overnight() bool {
	return t.EndMinute <= t.StartMinute
}

type Opening struct {
	ID        string
	DoctorID  string
	StartUTC  time.Time
	EndUTC    time.Time
	CreatedAt time.Time
}

type Unavailability struct {
	ID        string
	DoctorID  string
	StartUTC  time.Time
	EndUTC    time.Time
	Reason    string
	CreatedAt time.Time
}

type BookingStatus string

const (
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

type Booking struct {
	ID        string
	DoctorID  string
	ServiceID string
	StartUTC  time.Time
	EndUTC    time.Time
	Status    BookingStatus
}

// ParseClock parses "HH:MM" into minutes from midnight. "24:00" is accepted
// so a window can run to the end of the day.
func ParseClock(s string) (int, error) {
	s = strings.TrimSpace(s)
	hh, mm, ok := strings.Cut(s, ":")
	if !ok || len(hh) != 2 || len(mm) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	if h < 0 || h > 24 || m < 0 || m > 59 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return h*60 + m, nil
}

func FormatClock(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}
