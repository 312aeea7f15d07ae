package main

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/phone-insight/internal/model"
	"github.com/sells-group/phone-insight/internal/monitoring"
	"github.com/sells-group/phone-insight/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect enrichment run history",
	Long:  "Commands for listing, viewing, and summarizing enrichment runs.",
}

// -- runs list --

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List enrichment runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("store"); err != nil {
			return err
		}
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		status, _ := cmd.Flags().GetString("status")
		reportStatus, _ := cmd.Flags().GetString("report-status")
		phone, _ := cmd.Flags().GetString("phone")
		limit, _ := cmd.Flags().GetInt("limit")

		runs, err := st.ListRuns(ctx, store.RunFilter{
			Status:       model.RunStatus(status),
			ReportStatus: model.ReportStatus(reportStatus),
			Phone:        phone,
			Limit:        limit,
		})
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRunsList(os.Stdout, runs)
		return nil
	},
}

// -- runs show --

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show full details of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("store"); err != nil {
			return err
		}
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		run, err := st.GetRun(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "runs show")
		}

		format, _ := cmd.Flags().GetString("format")
		return writeOutput(os.Stdout, run, format)
	},
}

// -- runs stats --

var runsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate run statistics and alert state",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("store"); err != nil {
			return err
		}
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		since, _ := cmd.Flags().GetDuration("since")
		sendAlerts, _ := cmd.Flags().GetBool("alert")

		collector := monitoring.NewCollector(st, nil)
		snap, err := collector.Collect(ctx, sinceHours(since))
		if err != nil {
			return eris.Wrap(err, "runs stats")
		}

		alerter := monitoring.NewAlerter(cfg.Monitoring)
		alerts := alerter.Evaluate(snap)

		formatRunStats(os.Stdout, snap, alerts)

		if sendAlerts && len(alerts) > 0 {
			if cfg.Monitoring.WebhookURL == "" {
				return eris.New("runs stats: --alert requires monitoring.webhook_url")
			}
			sent := alerter.SendAlerts(ctx, alerts)
			fmt.Fprintf(os.Stderr, "Sent %d/%d alerts.\n", sent, len(alerts))
		}
		return nil
	},
}

func init() {
	runsListCmd.Flags().String("status", "", "filter by run status (running, complete)")
	runsListCmd.Flags().String("report-status", "", "filter by report status (success, no_business_found, error)")
	runsListCmd.Flags().String("phone", "", "filter by phone number as submitted")
	runsListCmd.Flags().Int("limit", 50, "max number of runs to display")

	runsShowCmd.Flags().String("format", "json", "output format (json or yaml)")

	runsStatsCmd.Flags().Duration("since", 24*time.Hour, "time window for stats (e.g. 24h, 72h, 168h)")
	runsStatsCmd.Flags().Bool("alert", false, "send breached thresholds to the monitoring webhook")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsStatsCmd)
	rootCmd.AddCommand(runsCmd)
}

// sinceHours rounds a lookback duration up to whole hours, minimum one.
func sinceHours(d time.Duration) int {
	h := int(math.Ceil(d.Hours()))
	if h < 1 {
		return 1
	}
	return h
}

// formatRunsList writes a tabular list of runs to w.
func formatRunsList(out io.Writer, runs []model.Run) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tPHONE\tSTATUS\tREPORT\tCOST\tCREATED\tDURATION")
	_, _ = fmt.Fprintln(w, "--\t-----\t------\t------\t----\t-------\t--------")

	for _, r := range runs {
		dur := "-"
		if r.Status == model.RunStatusComplete {
			dur = r.UpdatedAt.Sub(r.CreatedAt).Round(time.Millisecond).String()
		}

		report := string(r.ReportStatus)
		if report == "" {
			report = "-"
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t$%.4f\t%s\t%s\n",
			truncateID(r.ID),
			model.MaskPhone(r.Phone),
			r.Status,
			report,
			r.Cost,
			r.CreatedAt.Format("2006-01-02 15:04"),
			dur,
		)
	}
	_ = w.Flush()
}

// formatRunStats writes a metrics snapshot and any breached thresholds to w.
func formatRunStats(out io.Writer, s *monitoring.MetricsSnapshot, alerts []monitoring.Alert) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Window:\t%dh\n", s.LookbackHours)
	_, _ = fmt.Fprintf(w, "Total runs:\t%d\n", s.RunsTotal)
	_, _ = fmt.Fprintf(w, "Running:\t%d\n", s.RunsRunning)
	_, _ = fmt.Fprintf(w, "Success:\t%d\n", s.Success)
	_, _ = fmt.Fprintf(w, "No business found:\t%d\n", s.NoBusinessFound)
	_, _ = fmt.Fprintf(w, "Errors:\t%d\n", s.Errors)
	_, _ = fmt.Fprintf(w, "Error rate:\t%.1f%%\n", s.ErrorRate*100)
	_, _ = fmt.Fprintf(w, "Total cost:\t$%.4f\n", s.CostUSD)
	if s.Finished() > 0 {
		_, _ = fmt.Fprintf(w, "Avg cost:\t$%.4f\n", s.AvgCostUSD)
	}
	if len(s.OpenCircuits) > 0 {
		_, _ = fmt.Fprintf(w, "Open circuits:\t%s\n", strings.Join(s.OpenCircuits, ", "))
	}
	for _, a := range alerts {
		_, _ = fmt.Fprintf(w, "ALERT [%s]:\t%s\n", a.Severity, a.Message)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
