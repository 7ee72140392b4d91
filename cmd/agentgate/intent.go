package agentgate

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var intentCmd = &cobra.Command{
	Use:   "intent",
	Short: "Inspect the declarative intent store",
}

var intentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every declared intent",
	RunE: func(cmd *cobra.Command, args []string) error {
		app.Intents.Load()
		intents := app.Intents.List()
		if len(intents) == 0 {
			ui.Info("No intents declared in %s", app.Config.Intent.Path)
			return nil
		}

		table := ui.Table([]string{"ID", "Name", "Status", "Owned scope"})
		for _, it := range intents {
			table.Append([]string{it.ID, it.Name, string(it.Status), strings.Join(it.OwnedScope, ", ")})
		}
		table.Render()
		return nil
	},
}

var intentShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one intent's full declaration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app.Intents.Load()
		it, err := app.Intents.Get(args[0])
		if err != nil {
			return fmt.Errorf("intent %s: %w", args[0], err)
		}

		ui.Info("%s — %s (%s)", it.ID, it.Name, it.Status)
		fmt.Fprintf(ui.Out, "Owned scope:\n")
		for _, glob := range it.OwnedScope {
			fmt.Fprintf(ui.Out, "  - %s\n", glob)
		}
		fmt.Fprintf(ui.Out, "Constraints:\n")
		for _, c := range it.Constraints {
			fmt.Fprintf(ui.Out, "  - %s\n", c)
		}
		return nil
	},
}

func init() {
	intentCmd.AddCommand(intentListCmd)
	intentCmd.AddCommand(intentShowCmd)
	rootCmd.AddCommand(intentCmd)
}
