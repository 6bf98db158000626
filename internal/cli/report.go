package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var reportFormat string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show earnings per job and the month's budget standing",
	Args:  cobra.NoArgs,
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportFormat, "format", "md", "Output format: md, csv, json")
}

func runReport(cmd *cobra.Command, args []string) error {
	ledger, budgetRepo, closeStore := openRepositories()
	defer closeStore()

	ctx := context.Background()

	jobs, err := ledger.LoadAll(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	summary, err := budgetRepo.Summary(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	var shiftTotal float64
	for _, j := range jobs {
		shiftTotal += j.Total
	}

	switch reportFormat {
	case "csv":
		fmt.Println("job,shifts,total_jpy")
		for _, j := range jobs {
			fmt.Printf("%s,%d,%.2f\n", j.Name, len(j.History), j.Total)
		}
	case "json":
		type jobLine struct {
			Job    string  `json:"job"`
			Shifts int     `json:"shifts"`
			Total  float64 `json:"total"`
		}
		out := struct {
			Jobs       []jobLine `json:"jobs"`
			ShiftTotal float64   `json:"shiftTotal"`
			Income     float64   `json:"income"`
			Spent      float64   `json:"spent"`
			Remaining  float64   `json:"remaining"`
		}{ShiftTotal: shiftTotal, Income: summary.Income, Spent: summary.Spent, Remaining: summary.Remaining}
		for _, j := range jobs {
			out.Jobs = append(out.Jobs, jobLine{Job: j.Name, Shifts: len(j.History), Total: j.Total})
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
	default: // md
		fmt.Println("Earnings")
		fmt.Println("--------------------------------")
		for _, j := range jobs {
			fmt.Printf("%-20s%10.2f\n", j.Name, j.Total)
		}
		fmt.Println("--------------------------------")
		fmt.Printf("%-20s%10.2f\n", "Total", shiftTotal)
		fmt.Println()
		fmt.Println("Budget")
		fmt.Println("--------------------------------")
		fmt.Printf("%-20s%10.2f\n", "Income", summary.Income)
		fmt.Printf("%-20s%10.2f\n", "Spent", summary.Spent)
		fmt.Printf("%-20s%10.2f\n", "Remaining", summary.Remaining)
	}

	return nil
}
