// advisorctl - command line access to the advisor ledger, recommendations and backtests
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aristath/advisor/internal/config"
	"github.com/aristath/advisor/internal/di"
	"github.com/aristath/advisor/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	verbose bool
	jsonOut bool
	dataDir string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "advisorctl",
		Short: "Portfolio ledger, technical analysis and backtesting",
		Long: `advisorctl works directly on the advisor databases: import transactions,
report profit and loss, ask for rebalance recommendations and run backtests.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Print results as JSON")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Override ADVISOR_DATA_DIR")

	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(pnlCmd())
	rootCmd.AddCommand(realizedCmd())
	rootCmd.AddCommand(recommendCmd())
	rootCmd.AddCommand(backtestCmd())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("advisorctl version %s\n", version)
		},
	}
}

// openContainer loads configuration and wires the services. The scheduler
// is never started from the CLI.
func openContainer() (*di.Container, *config.Config, error) {
	if dataDir != "" {
		if err := os.Setenv("ADVISOR_DATA_DIR", dataDir); err != nil {
			return nil, nil, err
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	logLevel := "warn"
	if verbose {
		logLevel = "debug"
	}
	log := logger.New(logger.Config{
		Level:  logLevel,
		Pretty: true,
		Output: os.Stderr,
	})

	container, _, err := di.Wire(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return container, cfg, nil
}
