package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	shiftDate      string
	shiftStart     string
	shiftEnd       string
	shiftRestStart string
	shiftRestEnd   string
)

var shiftCmd = &cobra.Command{
	Use:   "shift",
	Short: "Manage recorded shifts",
}

var shiftAddCmd = &cobra.Command{
	Use:   "add <job-id>",
	Short: "Record a shift for a job",
	Args:  cobra.ExactArgs(1),
	RunE:  runShiftAdd,
}

var shiftRmCmd = &cobra.Command{
	Use:   "rm <job-id> <shift-id>",
	Short: "Remove a recorded shift",
	Args:  cobra.ExactArgs(2),
	RunE:  runShiftRm,
}

func init() {
	shiftAddCmd.Flags().StringVar(&shiftDate, "date", "", "Shift date (YYYY-MM-DD)")
	shiftAddCmd.Flags().StringVar(&shiftStart, "start", "", "Start time (HH:MM)")
	shiftAddCmd.Flags().StringVar(&shiftEnd, "end", "", "End time (HH:MM)")
	shiftAddCmd.Flags().StringVar(&shiftRestStart, "rest-start", "", "Break start (HH:MM)")
	shiftAddCmd.Flags().StringVar(&shiftRestEnd, "rest-end", "", "Break end (HH:MM)")
	_ = shiftAddCmd.MarkFlagRequired("date")
	_ = shiftAddCmd.MarkFlagRequired("start")
	_ = shiftAddCmd.MarkFlagRequired("end")

	shiftCmd.AddCommand(shiftAddCmd)
	shiftCmd.AddCommand(shiftRmCmd)
}

func runShiftAdd(cmd *cobra.Command, args []string) error {
	ledger, _, closeStore := openRepositories()
	defer closeStore()

	entry, err := ledger.AddWorkSession(context.Background(), args[0],
		shiftDate, shiftStart, shiftEnd, shiftRestStart, shiftRestEnd)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	fmt.Printf("Recorded shift %s on %s %s–%s: %.2f JPY\n",
		entry.ID, entry.Date, entry.StartTime, entry.EndTime, entry.Total)
	return nil
}

func runShiftRm(cmd *cobra.Command, args []string) error {
	ledger, _, closeStore := openRepositories()
	defer closeStore()

	removed, err := ledger.DeleteSession(context.Background(), args[0], args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if !removed {
		fmt.Fprintf(os.Stderr, "shift %s not found for job %s\n", args[1], args[0])
		os.Exit(1)
	}

	fmt.Printf("Removed shift %s\n", args[1])
	return nil
}
