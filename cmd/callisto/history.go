package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/callisto/pkg/cli"
	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/storage"
)

var historyFlags struct {
	user      string
	outcome   string
	timeRange string
	limit     int
	offset    int
	format    string
	output    string
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Query persisted request history",
	Long: `Query completed requests persisted by the activity tracker.

Every completion the tracker observes, including safety-sweep timeouts,
is archived to the application database. This command queries that
history with optional filters.

Time Range Format:
  RFC3339 interval format: "start/end"
  Example: "2026-08-25T00:00:00Z/2026-08-26T00:00:00Z"

Examples:
  # Most recent completions
  callisto history

  # Filter by user and outcome
  callisto history --user alice --outcome timed_out

  # Export a day as JSON
  callisto history --time-range "2026-08-25T00:00:00Z/2026-08-26T00:00:00Z" \
    --format json --output history.json`,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().StringVar(&historyFlags.user, "user", "", "filter by user ID")
	historyCmd.Flags().StringVar(&historyFlags.outcome, "outcome", "", "filter by outcome (success, failure, timed_out)")
	historyCmd.Flags().StringVar(&historyFlags.timeRange, "time-range", "", "completion time range (RFC3339 interval: start/end)")
	historyCmd.Flags().IntVar(&historyFlags.limit, "limit", 100, "max results")
	historyCmd.Flags().IntVar(&historyFlags.offset, "offset", 0, "pagination offset")
	historyCmd.Flags().StringVar(&historyFlags.format, "format", "text", "output format: text, json, csv")
	historyCmd.Flags().StringVarP(&historyFlags.output, "output", "o", "", "output file (default: stdout)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(historyFlags.format)
	if err != nil {
		return err
	}

	if err := config.Initialize(cfgFile); err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	cfg := config.Get()

	logger, err := commandLogger()
	if err != nil {
		return cli.NewCommandError("history", err)
	}

	store, err := storage.Open(cfg.Database, logger)
	if err != nil {
		return cli.NewCommandError("history", fmt.Errorf("failed to open database: %w", err))
	}
	defer store.Close()

	query := storage.HistoryQuery{
		UserID:  historyFlags.user,
		Outcome: historyFlags.outcome,
		Limit:   historyFlags.limit,
		Offset:  historyFlags.offset,
	}
	if historyFlags.timeRange != "" {
		since, until, err := parseTimeRange(historyFlags.timeRange)
		if err != nil {
			return err
		}
		query.Since = since
		query.Until = until
	}

	ctx := context.Background()

	records, err := store.History(ctx, query)
	if err != nil {
		return cli.NewCommandError("history", fmt.Errorf("query failed: %w", err))
	}
	total, err := store.CountHistory(ctx, query)
	if err != nil {
		return cli.NewCommandError("history", fmt.Errorf("count failed: %w", err))
	}

	var out io.Writer = os.Stdout
	if historyFlags.output != "" {
		f, err := os.Create(historyFlags.output)
		if err != nil {
			return cli.NewCommandError("history", fmt.Errorf("failed to create output file: %w", err))
		}
		defer f.Close()
		out = f
	}

	formatter := cli.NewFormatter(format)
	switch format {
	case cli.FormatJSON:
		if err := formatter.FormatTo(out, records); err != nil {
			return cli.NewCommandError("history", err)
		}
	default:
		if err := formatter.FormatTo(out, historyRows(records)); err != nil {
			return cli.NewCommandError("history", err)
		}
	}

	if format == cli.FormatText && historyFlags.output == "" {
		fmt.Printf("\n%d of %d records\n", len(records), total)
	}
	return nil
}

// historyRows converts completion records to tabular output.
func historyRows(records []storage.CompletionRecord) cli.Rows {
	rows := cli.Rows{
		Headers: []string{"COMPLETED", "USER", "REQUEST", "OUTCOME", "DURATION", "METHOD", "PATH"},
	}
	for _, r := range records {
		rows.Records = append(rows.Records, []string{
			r.CompletedAt.UTC().Format(time.RFC3339),
			r.UserID,
			r.RequestID,
			r.Outcome,
			r.Duration.Round(time.Millisecond).String(),
			r.Method,
			r.Path,
		})
	}
	return rows
}

// parseTimeRange parses an RFC3339 "start/end" interval.
func parseTimeRange(s string) (*time.Time, *time.Time, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return nil, nil, fmt.Errorf("invalid time range format (expected: start/end)")
	}

	start, err := time.Parse(time.RFC3339, parts[0])
	if err != nil {
		return nil, nil, fmt.Errorf("invalid start time: %w", err)
	}
	end, err := time.Parse(time.RFC3339, parts[1])
	if err != nil {
		return nil, nil, fmt.Errorf("invalid end time: %w", err)
	}
	if end.Before(start) {
		return nil, nil, fmt.Errorf("invalid time range: end before start")
	}
	return &start, &end, nil
}
