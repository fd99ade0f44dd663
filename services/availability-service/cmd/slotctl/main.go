// Command slotctl computes slots offline, queries a running service and
// applies the schema.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "slotctl",
		Short:         "Inspect doctor appointment availability",
		SilenceUsage: true,
	}
	root.AddCommand(computeCmd())
	root.AddCommand(queryCmd())
	root.AddCommand(migrateCmd())
	return root
}
