package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/md-rashed-zaman/clinicslots/services/availability-service/internal/availability"
	"github.com/md-rashed-zaman/clinicslots/services/availability-service/internal/model"
	"github.com/spf13/cobra"
)

// fixture is the JSON document compute reads. Instants are RFC3339 and
// template times are "HH:MM" in the doctor's zone.
type fixture struct {
	Doctor struct {
		ID                  string `json:"doctor_id"`
		Timezone            string `json:"timezone"`
		SlotDurationMinutes int    `json:"slot_duration_minutes"`
		BufferMinutes       int    `json:"buffer_minutes"`
		MinLeadMinutes      int    `json:"min_lead_minutes"`
	} `json:"doctor"`
	Date            string `json:"date"`
	Timezone        string `json:"tz"`
	DurationMinutes int    `json:"duration_minutes"`
	Now             string `json:"now"`
	Fold            string `json:"fold"`
	Templates       []struct {
		Weekdays  []int  `json:"weekdays"`
		StartTime string `json:"start_time"`
		EndTime   string `json:"end_time"`
	} `json:"templates"`
	Openings       []fixtureRange `json:"openings"`
	Unavailability []fixtureRange `json:"unavailability"`
	Bookings       []fixtureRange `json:"bookings"`
}

type fixtureRange struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Status    string `json:"status,omitempty"`
}

func (r fixtureRange) parse() (time.Time, time.Time, error) {
	start, err := time.Parse(time.RFC3339, r.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("start_time %q: %w", r.StartTime, err)
	}
	end, err := time.Parse(time.RFC3339, r.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("end_time %q: %w", r.EndTime, err)
	}
	return start.UTC(), end.UTC(), nil
}

func computeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compute <fixture.json>",
		Short: "Compute slots from a JSON fixture without any backing services",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			return runCompute(f, cmd.OutOrStdout())
		},
	}
	return cmd
}

func runCompute(r io.Reader, w io.Writer) error {
	var fx fixture
	if err := json.NewDecoder(r).Decode(&fx); err != nil {
		return fmt.Errorf("decode fixture: %w", err)
	}
	in, err := fx.input()
	if err != nil {
		return err
	}
	slots, err := availability.Compute(in)
	if err != nil {
		return err
	}
	return printSlots(w, slots)
}

func (fx fixture) input() (availability.Input, error) {
	var in availability.Input
	date, err := availability.ParseCivilDate(fx.Date)
	if err != nil {
		return in, err
	}
	fold, err := availability.ParseFoldPolicy(fx.Fold)
	if err != nil {
		return in, err
	}
	now := time.Now()
	if fx.Now != "" {
		if now, err = time.Parse(time.RFC3339, fx.Now); err != nil {
			return in, fmt.Errorf("now %q: %w", fx.Now, err)
		}
	}
	duration := fx.DurationMinutes
	if duration == 0 {
		duration = fx.Doctor.SlotDurationMinutes
	}

	in = availability.Input{
		Doctor: model.Doctor{
			ID:              fx.Doctor.ID,
			Timezone:        fx.Doctor.Timezone,
			SlotDurationMin: fx.Doctor.SlotDurationMinutes,
			BufferMin:       fx.Doctor.BufferMinutes,
			MinLeadMin:      fx.Doctor.MinLeadMinutes,
			IsActive:        true,
		},
		Date:     date,
		Timezone: fx.Timezone,
		Duration: time.Duration(duration) * time.Minute,
		Now:      now.UTC(),
		Fold:     fold,
	}

	for i, t := range fx.Templates {
		start, err := model.ParseClock(t.StartTime)
		if err != nil {
			return in, fmt.Errorf("template %d: %w", i, err)
		}
		end, err := model.ParseClock(t.EndTime)
		if err != nil {
			return in, fmt.Errorf("template %d: %w", i, err)
		}
		in.Templates = append(in.Templates, model.ScheduleTemplate{
			ID:          fmt.Sprintf("template-%d", i),
			DoctorID:    fx.Doctor.ID,
			Weekdays:    t.Weekdays,
			StartMinute: start,
			EndMinute:   end,
		})
	}
	for i, o := range fx.Openings {
		start, end, err := o.parse()
		if err != nil {
			return in, fmt.Errorf("opening %d: %w", i, err)
		}
		in.Openings = append(in.Openings, model.Opening{ID: fmt.Sprintf("opening-%d", i), DoctorID: fx.Doctor.ID, StartUTC: start, EndUTC: end})
	}
	for i, u := range fx.Unavailability {
		start, end, err := u.parse()
		if err != nil {
			return in, fmt.Errorf("unavailability %d: %w", i, err)
		}
		in.Unavailability = append(in.Unavailability, model.Unavailability{ID: fmt.Sprintf("block-%d", i), DoctorID: fx.Doctor.ID, StartUTC: start, EndUTC: end})
	}
	for i, b := range fx.Bookings {
		start, end, err := b.parse()
		if err != nil {
			return in, fmt.Errorf("booking %d: %w", i, err)
		}
		status := model.BookingStatus(b.Status)
		if status == "" {
			status = model.BookingConfirmed
		}
		in.Bookings = append(in.Bookings, model.Booking{ID: fmt.Sprintf("booking-%d", i), DoctorID: fx.Doctor.ID, StartUTC: start, EndUTC: end, Status: status})
	}
	return in, nil
}

type slotLine struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

func printSlots(w io.Writer, slots []availability.Slot) error {
	out := make([]slotLine, 0, len(slots))
	for _, s := range slots {
		out = append(out, slotLine{
			StartTime: s.StartUTC.UTC().Format(time.RFC3339),
			EndTime:   s.EndUTC.UTC().Format(time.RFC3339),
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
