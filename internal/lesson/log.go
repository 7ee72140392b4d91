// Package lesson implements LessonLog (spec.md 2.L, 6): an append-only
// Markdown post-mortem log. Each entry records a failure or insight keyed
// by intent, tool, and error kind, for a human to later review.
//
// Grounded on the teacher's internal/review/prompt.go strings.Builder
// section-by-section Markdown assembly style.
package lesson

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/agentgate/agentgate/internal/models"
)

// terminator ends every entry; readers split on headerPrefix, not this,
// since a detail block may itself contain "---".
const terminator = "\n---\n"

// headerPrefix begins every entry header line; Entries uses it to split
// the file back into individual entries.
const headerPrefix = "## "

// Entry is one post-mortem record.
type Entry struct {
	Timestamp  time.Time
	Type       string // e.g. a models.ErrorType, or "insight"
	IntentID   string
	Tool       string
	Message    string
	Details    string
	Resolution string
	Tags       []string
}

// Log is the append-only Markdown lesson journal.
type Log struct {
	path string
}

// New returns a Log writing to path.
func New(path string) *Log {
	return &Log{path: path}
}

// Append writes one entry to the log. Failures are logged and swallowed:
// the lesson log is diagnostic, never load-bearing for the pipeline.
func (l *Log) Append(e Entry) {
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lesson: append: %v\n", err)
		return
	}
	defer func() { _ = f.Close() }()

	if _, err := f.WriteString(render(e)); err != nil {
		fmt.Fprintf(os.Stderr, "lesson: write: %v\n", err)
	}
}

func render(e Entry) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s%s — %s\n", headerPrefix, e.Timestamp.UTC().Format(time.RFC3339), e.Type)
	fmt.Fprintf(&b, "- **Intent:** %s\n", orNone(e.IntentID))
	fmt.Fprintf(&b, "- **Tool:** %s\n", orNone(e.Tool))
	fmt.Fprintf(&b, "- **Type:** %s\n", e.Type)
	fmt.Fprintf(&b, "- **Message:** %s\n", e.Message)
	b.WriteString("- **Details:**\n```\n")
	b.WriteString(e.Details)
	b.WriteString("\n```\n")
	fmt.Fprintf(&b, "- **Resolution:** %s\n", orNone(e.Resolution))
	fmt.Fprintf(&b, "- **Tags:** %s\n", strings.Join(e.Tags, ", "))
	b.WriteString(terminator)

	return b.String()
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

// FromHookError builds a failure Entry from the tool name, intent id and
// HookError of a failed call, the shape lesson_recorder fills in
// (spec.md 4.H).
func FromHookError(now time.Time, tool, intentID string, hookErr models.HookError) Entry {
	return Entry{
		Timestamp: now,
		Type:      string(hookErr.Type),
		IntentID:  intentID,
		Tool:      tool,
		Message:   hookErr.Message,
		Details:   hookErr.Suggestion,
		Tags:      []string{"pipeline", strings.ToLower(string(hookErr.Type))},
	}
}

// Entries splits the raw Markdown file content back into individual entry
// bodies, per spec.md 6's "readers locate entries by splitting on the
// header prefix."
func Entries(raw string) []string {
	parts := strings.Split(raw, "\n"+headerPrefix)
	var out []string
	for i, p := range parts {
		if i > 0 {
			p = headerPrefix + p
		}
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
