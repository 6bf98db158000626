package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var jobWage float64

var jobCmd = &cobra.Command{
	Use:   "job",
	Short: "Manage jobs",
}

var jobAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a new job",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobAdd,
}

var jobListCmd = &cobra.Command{
	Use:   "list",
	Short: "List jobs with their recorded shifts",
	Args:  cobra.NoArgs,
	RunE:  runJobList,
}

var jobRmCmd = &cobra.Command{
	Use:   "rm <job-id>",
	Short: "Remove a job and its history",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobRm,
}

func init() {
	jobAddCmd.Flags().Float64Var(&jobWage, "wage", 0, "Hourly wage in JPY")
	_ = jobAddCmd.MarkFlagRequired("wage")

	jobCmd.AddCommand(jobAddCmd)
	jobCmd.AddCommand(jobListCmd)
	jobCmd.AddCommand(jobRmCmd)
}

func runJobAdd(cmd *cobra.Command, args []string) error {
	ledger, _, closeStore := openRepositories()
	defer closeStore()

	job, err := ledger.AddJob(context.Background(), args[0], jobWage)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	fmt.Printf("Added job %q (id %s) at %.0f JPY/h\n", job.Name, job.ID, job.Wage)
	return nil
}

func runJobList(cmd *cobra.Command, args []string) error {
	ledger, _, closeStore := openRepositories()
	defer closeStore()

	jobs, err := ledger.LoadAll(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if len(jobs) == 0 {
		fmt.Println("No jobs found.")
		return nil
	}

	for _, j := range jobs {
		fmt.Printf("%s  %s  %.0f JPY/h  total %.2f\n", j.ID, j.Name, j.Wage, j.Total)
		for _, h := range j.History {
			rest := ""
			if h.RestStart != "" && h.RestEnd != "" {
				rest = fmt.Sprintf("  rest %s–%s", h.RestStart, h.RestEnd)
			}
			fmt.Printf("  %s  %s  %s–%s%s  %.2f\n", h.ID, h.Date, h.StartTime, h.EndTime, rest, h.Total)
		}
	}
	return nil
}

func runJobRm(cmd *cobra.Command, args []string) error {
	ledger, _, closeStore := openRepositories()
	defer closeStore()

	removed, err := ledger.DeleteJob(context.Background(), args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if !removed {
		fmt.Fprintf(os.Stderr, "job %s not found\n", args[0])
		os.Exit(1)
	}

	fmt.Printf("Removed job %s\n", args[0])
	return nil
}
