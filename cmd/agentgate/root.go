// Package agentgate implements the CLI: a thin cobra/viper front end
// over internal/bootstrap and the internal/display UI, grounded on the
// teacher's cmd/root.go package-level-deps-plus-cobra.OnInitialize shape.
package agentgate

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentgate/agentgate/internal/bootstrap"
	"github.com/agentgate/agentgate/internal/config"
	"github.com/agentgate/agentgate/internal/display"
)

// Package-level shared dependencies, initialized in cobra.OnInitialize.
var (
	ui  *display.UI
	app *bootstrap.App

	cfgFile string
	verbose bool
)

var (
	buildVersion = "dev"
	buildCommit  = "none"
	buildDate    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "agentgate",
	Short: "Governance middleware for autonomous coding agents",
	Long: `agentgate interposes on an autonomous coding agent's write_to_file and
execute_command calls, validating each against a declared intent's owned
scope, an optimistic per-file lock, and an ignore index before the call
reaches the agent's tools, and records every accepted mutation to a
content-addressed trace journal.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
}

// Execute is the entry point called from main.go.
func Execute(version, commit, date string) {
	buildVersion, buildCommit, buildDate = version, commit, date

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initApp)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default ~/.config/agentgate/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	}
}

// initApp loads configuration and constructs the App every subcommand
// shares, deferring Start (which touches disk and spawns reapers) to the
// commands that actually need a live store.
func initApp() {
	ui = display.New()
	ui.Verbose = verbose

	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: load config: %v\n", err)
		os.Exit(1)
	}

	app = bootstrap.New(cfg)
}

// versionCmd prints the build metadata baked in by Execute.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintf(ui.Out, "agentgate %s (%s, built %s)\n", buildVersion, buildCommit, buildDate)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
