package agentgate

import (
	"github.com/spf13/cobra"

	"github.com/agentgate/agentgate/internal/health"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Show the current governance health score",
	Long: `health scores lock contention, approval denial rate, stale-write rate,
and trace-journal append latency, each 0-25, accumulated since this
process started.

Telemetry lives in memory on the running "agentgate serve mcp" process,
so a one-shot "agentgate health" invocation only ever sees a fresh,
empty Collector and reports full marks. Query health against a running
serve process's own admin surface once one exists; this command is a
placeholder for that until then.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		snap := app.Health.Snapshot()
		score := health.NewScorer().Compute(snap)
		ui.RenderHealth(score)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
