package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"spendsight/internal/config"
	"spendsight/internal/logger"
)

var (
	cfgEnv  string
	rootCmd = &cobra.Command{
		Use:   "spendsight",
		Short: "Offline tools for the SpendSight expense ledger",
		Long: `spendsight imports card statements from CSV, categorizes them with the
default rule set, and prints spending statistics without starting the API server.`,
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgEnv, "env", "", "environment name (development, production, test)")

	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(categoriesCmd())
	rootCmd.AddCommand(convertCmd())
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	cancel()
	logger.Sync()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	env := cfgEnv
	if env == "" {
		env = os.Getenv("ENV")
	}
	logger.Init(env)

	if _, err := config.Load(); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	return nil
}
