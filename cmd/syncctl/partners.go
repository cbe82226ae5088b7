package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"proposal_sync/internal/partners/client"
	"proposal_sync/internal/proposals"
	"proposal_sync/platform/config"
)

func partnersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "partners",
		Short: "Partner API tools",
	}

	var date string
	var quiet bool
	check := &cobra.Command{
		Use:   "check",
		Short: "Fetch one day from every partner and print the outcome",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			day := today(cfg)
			if date != "" {
				if day, err = time.Parse(proposals.DateLayout, date); err != nil {
					return fmt.Errorf("invalid --date %q", date)
				}
			}

			results := client.New(cfg, newLogger(cfg, quiet)).FetchWindow(cmd.Context(), proposals.Day(day))

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PARTNER\tSTATUS\tRECORDS\tELAPSED\tERROR")
			failed := 0
			for _, r := range results {
				errText := "-"
				if r.Err != nil {
					errText = r.Err.Error()
					failed++
				}
				fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\n", r.Partner, r.Status, len(r.Records), r.Elapsed.Round(time.Millisecond), errText)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d partners failed", failed, len(results))
			}
			return nil
		},
	}
	check.Flags().StringVar(&date, "date", "", "day to fetch, YYYY-MM-DD (defaults to today)")
	check.Flags().BoolVarP(&quiet, "quiet", "q", true, "suppress log output")
	cmd.AddCommand(check)
	return cmd
}
