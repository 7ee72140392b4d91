// Package display renders governance state to the terminal: health
// scores, doctor checks, and the other tabular views the CLI exposes.
// Adapted from internal/output/output.go's UI type — same color
// prefixes and tablewriter styling, generalized from issue/project
// tables to governance tables.
package display

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/agentgate/agentgate/internal/doctor"
	"github.com/agentgate/agentgate/internal/health"
)

// UI provides colored, tabular output for agentgate's CLI.
type UI struct {
	Verbose bool
	Out     io.Writer
	ErrOut  io.Writer
}

// New creates a UI with default stdout/stderr writers.
func New() *UI {
	return &UI{Out: os.Stdout, ErrOut: os.Stderr}
}

var (
	infoPrefix    = color.New(color.FgHiBlue).Sprint("i")
	successPrefix = color.New(color.FgHiGreen).Sprint("✓")
	warningPrefix = color.New(color.FgHiYellow).Sprint("⚠")
	errorPrefix   = color.New(color.FgHiRed).Sprint("✗")
	verbosePrefix = color.New(color.FgHiBlue).Sprint("  →")
	green         = color.New(color.FgHiGreen).SprintFunc()
	yellow        = color.New(color.FgHiYellow).SprintFunc()
	red           = color.New(color.FgHiRed).SprintFunc()
)

// HealthColor returns s colored by score, same bucket boundaries as the
// teacher's HealthColor.
func HealthColor(score int) string {
	s := fmt.Sprintf("%d", score)
	switch {
	case score >= 80:
		return green(s)
	case score >= 50:
		return yellow(s)
	default:
		return red(s)
	}
}

func (u *UI) Info(format string, a ...any) {
	fmt.Fprintf(u.Out, "%s %s\n", infoPrefix, fmt.Sprintf(format, a...))
}

func (u *UI) Success(format string, a ...any) {
	fmt.Fprintf(u.Out, "%s %s\n", successPrefix, fmt.Sprintf(format, a...))
}

func (u *UI) Warning(format string, a ...any) {
	fmt.Fprintf(u.ErrOut, "%s %s\n", warningPrefix, fmt.Sprintf(format, a...))
}

func (u *UI) Error(format string, a ...any) {
	fmt.Fprintf(u.ErrOut, "%s %s\n", errorPrefix, fmt.Sprintf(format, a...))
}

func (u *UI) VerboseLog(format string, a ...any) {
	if u.Verbose {
		fmt.Fprintf(u.Out, "%s %s\n", verbosePrefix, fmt.Sprintf(format, a...))
	}
}

// Table creates a new tablewriter configured with consistent styling.
func (u *UI) Table(headers []string) *tablewriter.Table {
	table := tablewriter.NewTable(u.Out,
		tablewriter.WithHeaderAlignment(tw.AlignLeft),
		tablewriter.WithRowAlignment(tw.AlignLeft),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Lines:      tw.LinesNone,
				Separators: tw.SeparatorsNone,
			},
		}),
		tablewriter.WithPadding(tw.Padding{Left: "", Right: "  "}),
	)
	table.Header(headers)
	return table
}

// RenderHealth prints score as a labelled subscore table followed by
// the colored total.
func (u *UI) RenderHealth(score health.Score) {
	table := u.Table([]string{"Dimension", "Score", "Max"})
	table.Append([]string{"Lock contention", fmt.Sprintf("%d", score.LockContention), "25"})
	table.Append([]string{"Approval denial", fmt.Sprintf("%d", score.ApprovalDenial), "25"})
	table.Append([]string{"Stale write rate", fmt.Sprintf("%d", score.StaleWriteRate), "25"})
	table.Append([]string{"Journal latency", fmt.Sprintf("%d", score.JournalLatency), "25"})
	table.Render()
	fmt.Fprintf(u.Out, "Total: %s / 100\n", HealthColor(score.Total))
}

// RenderChecks prints doctor's Check list, one row per check, with a
// pass/fail glyph in the teacher's style.
func (u *UI) RenderChecks(checks []doctor.Check) {
	table := u.Table([]string{"", "Check", "Detail"})
	for _, c := range checks {
		glyph := successPrefix
		if !c.Passed {
			glyph = errorPrefix
		}
		table.Append([]string{glyph, c.Name, c.Detail})
	}
	table.Render()
}
