package agentgate

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentgate/agentgate/internal/models"
)

var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Query the content-addressed trace journal",
}

var traceByIntentCmd = &cobra.Command{
	Use:   "by-intent <id>",
	Short: "List every recorded mutation attributed to an intent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		records, err := app.Trace.ByIntent(ctx, args[0])
		if err != nil {
			return fmt.Errorf("query trace by intent: %w", err)
		}
		renderTraceRecords(records)
		return nil
	},
}

var traceByFileCmd = &cobra.Command{
	Use:   "by-file <path>",
	Short: "List every recorded mutation touching a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		records, err := app.Trace.ByFile(ctx, args[0])
		if err != nil {
			return fmt.Errorf("query trace by file: %w", err)
		}
		renderTraceRecords(records)
		return nil
	},
}

var traceImpactCmd = &cobra.Command{
	Use:   "impact <intent-id>",
	Short: "Show which files an intent has touched",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		report, err := app.Trace.Impact(ctx, args[0])
		if err != nil {
			return fmt.Errorf("compute impact: %w", err)
		}

		if len(report.Files) == 0 {
			ui.Info("No recorded mutations for intent %s", args[0])
			return nil
		}
		for _, f := range report.Files {
			fmt.Fprintln(ui.Out, f)
		}
		return nil
	},
}

// renderTraceRecords prints one row per trace record: timestamp,
// mutation class, and the files it touched.
func renderTraceRecords(records []models.TraceRecord) {
	if len(records) == 0 {
		ui.Info("No matching trace records")
		return
	}

	table := ui.Table([]string{"Timestamp", "Class", "Files"})
	for _, r := range records {
		paths := make([]string, len(r.Files))
		for i, f := range r.Files {
			paths[i] = f.RelativePath
		}
		table.Append([]string{r.Timestamp, string(r.MutationClass), strings.Join(paths, ", ")})
	}
	table.Render()
}

func init() {
	traceCmd.AddCommand(traceByIntentCmd)
	traceCmd.AddCommand(traceByFileCmd)
	traceCmd.AddCommand(traceImpactCmd)
	rootCmd.AddCommand(traceCmd)
}
