/*
Package cli provides command-line interface utilities for Mercator Callisto.

The cli package includes output formatters, signal handling, and the
exit-code error mapping used by the callisto command.

Output Formatting:

Command results render as text, JSON, or CSV. Tabular results are
expressed as Rows so the text formatter can align columns and the CSV
formatter can emit records:

	rows := cli.Rows{
		Headers: []string{"USER", "OUTCOME", "COMPLETED"},
		Records: [][]string{{"alice", "success", "2026-08-26T10:00:00Z"}},
	}
	formatter := cli.NewFormatter(cli.FormatText)
	if err := formatter.FormatTo(os.Stdout, rows); err != nil {
		return err
	}

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx := cli.SetupSignalHandler()
	// ctx is cancelled on the first signal; a second signal
	// exits immediately

Exit Codes:

Command errors carry their process exit code. The root command maps the
returned error with cli.ExitCode: configuration errors exit with 2,
everything else with 1.
*/
package cli
