package agentgate

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/agentgate/agentgate/internal/doctor"
)

var errDoctorFailed = errors.New("one or more governance file checks failed")

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the governance file layout for problems",
	Long: `doctor inspects the declarative intent store, ignore rules file, and the
trace journal and lesson log directories, reporting whether each exists,
parses, and is writable.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		checker := doctor.NewChecker()
		checks := checker.Run(doctor.Layout{
			IntentPath:       app.Config.Intent.Path,
			IgnorePath:       app.Config.Ignore.Path,
			TraceJournalPath: app.Config.Trace.JournalPath,
			LessonLogPath:    app.Config.Lesson.Path,
		})

		ui.RenderChecks(checks)

		for _, c := range checks {
			if !c.Passed {
				return errDoctorFailed
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
