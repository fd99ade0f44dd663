package main

import (
	"fmt"

	"github.com/md-rashed-zaman/clinicslots/libs/config"
	"github.com/md-rashed-zaman/clinicslots/libs/db"
	"github.com/md-rashed-zaman/clinicslots/libs/runtime"
	"github.com/md-rashed-zaman/clinicslots/services/availability-service/migrations"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	var databaseURL string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			if databaseURL == "" {
				url, err := config.RequiredString("DATABASE_URL")
				if err != nil {
					return err
				}
				databaseURL = url
			}
			ctx := cmd.Context()
			pool, err := db.Open(ctx, databaseURL, db.Options{MaxConns: 2})
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := migrations.Apply(ctx, pool, runtime.NewLogger("slotctl")); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema applied")
			return nil
		},
	}
	cmd.Flags().StringVar(&databaseURL, "database-url", "", "postgres url (default: $DATABASE_URL)")
	return cmd
}
