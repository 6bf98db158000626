package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var recalcCmd = &cobra.Command{
	Use:   "recalc",
	Short: "Recompute all cached job totals from shift history",
	Args:  cobra.NoArgs,
	RunE:  runRecalc,
}

func runRecalc(cmd *cobra.Command, args []string) error {
	ledger, _, closeStore := openRepositories()
	defer closeStore()

	ctx := context.Background()
	if err := ledger.RecalcAllTotals(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	total, err := ledger.CalculateOverallTotal(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	fmt.Printf("Recalculated totals; overall %.2f JPY\n", total)
	return nil
}
