package main

import (
	"context"
	"time"

	"github.com/md-rashed-zaman/clinicslots/services/availability-service/internal/availability"
	"github.com/md-rashed-zaman/clinicslots/services/availability-service/internal/rpcclient"
	"github.com/spf13/cobra"
)

func queryCmd() *cobra.Command {
	var (
		addr     string
		doctorID string
		date     string
		tz       string
		duration int
		timeout  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Ask a running availability service for slots over gRPC",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			client, err := rpcclient.NewClient(ctx, addr)
			if err != nil {
				return err
			}
			defer client.Close()

			res, err := client.ComputeSlots(ctx, doctorID, date, duration, tz)
			if err != nil {
				return err
			}
			slots := make([]availability.Slot, 0, len(res))
			for _, s := range res {
				slots = append(slots, availability.Slot{StartUTC: s.StartUTC, EndUTC: s.EndUTC})
			}
			return printSlots(cmd.OutOrStdout(), slots)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "localhost:9090", "availability service gRPC address")
	cmd.Flags().StringVar(&doctorID, "doctor", "", "doctor id")
	cmd.Flags().StringVar(&date, "date", "", "civil date YYYY-MM-DD")
	cmd.Flags().StringVar(&tz, "tz", "", "IANA zone the date is read in (default: doctor's zone)")
	cmd.Flags().IntVar(&duration, "duration", 30, "service duration in minutes")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "request timeout")
	_ = cmd.MarkFlagRequired("doctor")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}
