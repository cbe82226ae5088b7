package main

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"proposal_sync/internal/partners/client"
	"proposal_sync/internal/pipeline"
	"proposal_sync/internal/proposals"
	"proposal_sync/internal/staging"
	"proposal_sync/platform/config"
	"proposal_sync/platform/db"
)

type windowOutput struct {
	Window     string                   `json:"window"`
	DryRun     bool                     `json:"dryRun"`
	Records    int                      `json:"records"`
	Staged     int                      `json:"staged"`
	Duplicates int64                    `json:"duplicates"`
	Inserted   int64                    `json:"inserted"`
	Updated    int64                    `json:"updated"`
	Skipped    bool                     `json:"skipped"`
	FetchMs    int64                    `json:"fetchMs"`
	Phases     map[string]int64         `json:"phasesMs"`
	Partners   []pipeline.PartnerReport `json:"partners"`
}

func windowCmd() *cobra.Command {
	var start, end string
	var dryRun, quiet bool

	cmd := &cobra.Command{
		Use:   "window",
		Short: "Fetch and merge one window",
		Long: `Fetch one date window from every partner and merge it.

Examples:
  syncctl window --start 2024-05-01 --end 2024-05-15
  syncctl window --start 2024-05-20 --end 2024-05-20 --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			w, err := proposals.ParseWindow(start, end)
			if err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := newLogger(cfg, quiet)

			var target staging.Target
			if dryRun {
				target = staging.NewMemoryTarget()
			} else {
				session := db.NewSession(cfg, log)
				if err := session.Connect(ctx); err != nil {
					return err
				}
				defer session.Close(ctx)
				target = staging.NewPostgresTarget(session)
			}

			runner := pipeline.New(client.New(cfg, log), staging.NewMerger(target, cfg.GetStageBatchSize(), log), log)
			report, err := runner.Run(ctx, w)
			if err != nil {
				return err
			}
			return printJSON(cmd, summarize(report, dryRun))
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "first date, YYYY-MM-DD")
	cmd.Flags().StringVar(&end, "end", "", "last date, YYYY-MM-DD (defaults to --start)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "merge into memory instead of the database")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress log output")
	_ = cmd.MarkFlagRequired("start")
	cmd.PreRun = func(cmd *cobra.Command, args []string) {
		if end == "" {
			end = start
		}
	}
	return cmd
}

func summarize(r pipeline.Report, dryRun bool) windowOutput {
	phases := make(map[string]int64)
	for name, d := range r.Merge.Timings.Map() {
		phases[name] = d.Milliseconds()
	}
	return windowOutput{
		Window:     r.Window.String(),
		DryRun:     dryRun,
		Records:    r.Records,
		Staged:     r.Merge.Staged,
		Duplicates: r.Merge.Duplicates,
		Inserted:   r.Merge.Inserted,
		Updated:    r.Merge.Updated,
		Skipped:    r.Merge.Skipped,
		FetchMs:    r.Fetch.Milliseconds(),
		Phases:     phases,
		Partners:   r.Partners,
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func today(cfg config.SchedulerConfig) time.Time {
	return proposals.DateOf(time.Now().In(cfg.GetLocation()))
}
