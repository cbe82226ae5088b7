package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"proposal_sync/internal/proposals"
	"proposal_sync/internal/scheduler"
	"proposal_sync/internal/syncstate"
	"proposal_sync/platform/config"
	"proposal_sync/platform/db"
)

func stateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect or reset the deep sweep cursor",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the persisted cursor and where the next sweep resumes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(cfg *config.Config, store syncstate.Store) error {
				ctx := cmd.Context()
				t := today(cfg)
				base := scheduler.LookbackBase(t, cfg.GetLookbackDays())

				cursor, ok, err := store.Load(ctx)
				if err != nil {
					return err
				}
				stored := "<none>"
				if ok {
					stored = cursor.Format(proposals.DateLayout)
				}
				resume := syncstate.Clamp(cursor, ok, base, t)
				total := len(scheduler.Partition(base, t))
				done := total - len(scheduler.Partition(resume, t))

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "backend:  %s\n", cfg.GetStateBackend())
				fmt.Fprintf(out, "stored:   %s\n", stored)
				fmt.Fprintf(out, "resumes:  %s\n", resume.Format(proposals.DateLayout))
				fmt.Fprintf(out, "sweep:    %s\n", scheduler.FormatProgress(done, total))
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Forget the cursor so the next sweep starts from the lookback base",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(_ *config.Config, store syncstate.Store) error {
				if err := store.Reset(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "cursor reset")
				return nil
			})
		},
	})
	return cmd
}

func withStore(cmd *cobra.Command, fn func(*config.Config, syncstate.Store) error) error {
	cfg, err := config.LoadWithoutPartners()
	if err != nil {
		return err
	}

	var q syncstate.Querier
	if cfg.GetStateBackend() == syncstate.BackendPostgres {
		pool, err := db.NewPool(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer pool.Close()
		q = pool
	}
	store, err := syncstate.Open(cfg, q)
	if err != nil {
		return err
	}
	return fn(cfg, store)
}
