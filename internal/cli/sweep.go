package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(sweepCmd)
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Cancel expired bookings and expire stale trial assignments",
	Long: `Runs the booking sweep and then the trial assignment expiry sweep once.
Both sweeps are idempotent, so running this alongside the API is safe.`,
	Args: cobra.NoArgs,
	RunE: runSweep,
}

func runSweep(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	bookings, assignments, err := a.bookings.SweepAll(cmd.Context())
	if err != nil {
		return fmt.Errorf("sweep: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "cancelled bookings: %d\nexpired assignments: %d\n", bookings, assignments)
	return nil
}
