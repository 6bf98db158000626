package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"kakeibo/internal/budget"
	"kakeibo/internal/shifts"
)

var rootCmd = &cobra.Command{
	Use:   "kakeibo-cli",
	Short: "kakeibo-cli – manage jobs, shifts and the household budget",
	Long: `kakeibo-cli works directly against the kakeibo data store.
It shares the DATA_BACKEND and SQLITE_DB_PATH configuration with the
server, so commands see exactly what the web API serves.`,
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(jobCmd)
	rootCmd.AddCommand(shiftCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(recalcCmd)
}

// openRepositories loads configuration and opens the ledger and budget
// repositories over the configured backend. Exits on bootstrap failure.
func openRepositories() (*shifts.Repository, *budget.Repository, func() error) {
	LoadEnvFile()
	logger := SetupLogger("cli")
	cfg := LoadAndValidateConfig(logger)
	store, closeStore := OpenStore(logger, cfg)
	return shifts.NewRepository(store, nil), budget.NewRepository(store), closeStore
}
