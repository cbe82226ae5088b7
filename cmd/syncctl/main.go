package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"proposal_sync/platform/config"
	"proposal_sync/platform/db"
	"proposal_sync/platform/logger"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "syncctl",
		Short:         "Operator tools for the proposal synchronizer",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(windowCmd())
	rootCmd.AddCommand(stateCmd())
	rootCmd.AddCommand(partnersCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadWithoutPartners()
			if err != nil {
				return err
			}
			if err := db.RunMigrations(cmd.Context(), cfg); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func newLogger(cfg *config.Config, quiet bool) *logger.Logger {
	if quiet {
		return logger.Discard()
	}
	return logger.NewWithWriter(cfg.Env, os.Stderr)
}
