package agentgate

import (
	"fmt"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun()
	},
}

func configShowRun() error {
	cfg := app.Config
	fmt.Fprintf(ui.Out, "state_dir:                  %s\n", cfg.StateDir)
	fmt.Fprintf(ui.Out, "repo_root:                  %s\n", cfg.RepoRoot)
	fmt.Fprintf(ui.Out, "intent.path:                %s\n", cfg.Intent.Path)
	fmt.Fprintf(ui.Out, "ignore.path:                %s\n", cfg.Ignore.Path)
	fmt.Fprintf(ui.Out, "lock.reap_interval:         %s\n", cfg.Lock.ReapInterval)
	fmt.Fprintf(ui.Out, "session.reap_interval:      %s\n", cfg.Session.ReapInterval)
	fmt.Fprintf(ui.Out, "trace.journal_path:         %s\n", cfg.Trace.JournalPath)
	fmt.Fprintf(ui.Out, "trace.index_path:           %s\n", cfg.Trace.IndexPath)
	fmt.Fprintf(ui.Out, "trace.intent_map_path:      %s\n", cfg.Trace.IntentMapPath)
	fmt.Fprintf(ui.Out, "lesson.path:                %s\n", cfg.Lesson.Path)
	fmt.Fprintf(ui.Out, "approval.mode:              %s\n", cfg.Approval.Mode)
	fmt.Fprintf(ui.Out, "mutation.llm_backend:       %v\n", cfg.Mutation.LLMBackend)
	fmt.Fprintf(ui.Out, "mutation.anthropic_model:   %s\n", cfg.Mutation.AnthropicModel)
	fmt.Fprintf(ui.Out, "fallback.bypass_duration:   %s\n", cfg.Fallback.BypassDuration)
	fmt.Fprintf(ui.Out, "fallback.health_check_interval: %s\n", cfg.Fallback.HealthCheckInterval)
	fmt.Fprintf(ui.Out, "select_intent.enhanced:     %v\n", cfg.SelectIntent.Enhanced)
	return nil
}

func init() {
	rootCmd.AddCommand(configCmd)
}
