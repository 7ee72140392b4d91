package agentgate

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentgate/agentgate/internal/lesson"
)

var lessonCmd = &cobra.Command{
	Use:   "lesson",
	Short: "Review the post-mortem lesson log",
}

var lessonListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every recorded lesson entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(app.Config.Lesson.Path)
		if err != nil {
			if os.IsNotExist(err) {
				ui.Info("No lesson log yet at %s", app.Config.Lesson.Path)
				return nil
			}
			return fmt.Errorf("read lesson log: %w", err)
		}

		entries := lesson.Entries(string(data))
		if len(entries) == 0 {
			ui.Info("Lesson log is empty")
			return nil
		}
		for _, e := range entries {
			fmt.Fprintln(ui.Out, e)
			fmt.Fprintln(ui.Out)
		}
		return nil
	},
}

func init() {
	lessonCmd.AddCommand(lessonListCmd)
	rootCmd.AddCommand(lessonCmd)
}
