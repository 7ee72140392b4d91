// Package approval implements the UserApprovalPort (spec.md 6): the
// outbound boundary the pipeline calls through whenever a pre-hook needs a
// human decision before blocking or passing a call.
package approval

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/agentgate/agentgate/internal/models"
)

// Decision is the outcome of any confirm_* call.
type Decision struct {
	Approved bool
	Feedback string
	Remember bool
}

// Port is the UserApprovalPort. Every method is synchronous from the
// hook's point of view; implementations that front a real UI may suspend
// internally but must not hold any lock while doing so (spec.md 5).
type Port interface {
	ConfirmDestructive(ctx context.Context, cmd string, classification models.CommandClassification, intentID string) (Decision, error)
	ConfirmScopeViolation(ctx context.Context, intentID, path string, scopes []string) (Decision, error)
	ConfirmIntentEvolution(ctx context.Context, intentID, summary string) (Decision, error)
}

// NullPort always rejects. It is the safe default for non-interactive
// hosts (CI, automated tests) where no human is present to ask.
type NullPort struct{}

func (NullPort) ConfirmDestructive(context.Context, string, models.CommandClassification, string) (Decision, error) {
	return Decision{Approved: false, Feedback: "no approval port attached"}, nil
}

func (NullPort) ConfirmScopeViolation(context.Context, string, string, []string) (Decision, error) {
	return Decision{Approved: false, Feedback: "no approval port attached"}, nil
}

func (NullPort) ConfirmIntentEvolution(context.Context, string, string) (Decision, error) {
	return Decision{Approved: false, Feedback: "no approval port attached"}, nil
}

// AlwaysApprovePort approves everything unconditionally. Used by hosts that
// run with allow_destructive blanket trust, or in tests exercising the
// approval path without a live terminal.
type AlwaysApprovePort struct{}

func (AlwaysApprovePort) ConfirmDestructive(context.Context, string, models.CommandClassification, string) (Decision, error) {
	return Decision{Approved: true}, nil
}

func (AlwaysApprovePort) ConfirmScopeViolation(context.Context, string, string, []string) (Decision, error) {
	return Decision{Approved: true}, nil
}

func (AlwaysApprovePort) ConfirmIntentEvolution(context.Context, string, string) (Decision, error) {
	return Decision{Approved: true}, nil
}

// TerminalPort prompts on the controlling terminal, the abstracted stand-in
// for the host editor's UI approval modal (spec.md 1's "Out of scope"
// list). Styling mirrors the teacher's internal/output UI conventions.
type TerminalPort struct {
	In  io.Reader
	Out io.Writer
}

// NewTerminalPort returns a Port reading from stdin and writing prompts to
// stdout.
func NewTerminalPort() *TerminalPort {
	return &TerminalPort{In: os.Stdin, Out: os.Stdout}
}

func (p *TerminalPort) ask(prompt string) Decision {
	warn := color.New(color.FgHiYellow).SprintFunc()
	fmt.Fprintf(p.Out, "%s %s [y/N]: ", warn("⚠"), prompt)

	reader := bufio.NewReader(p.In)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(strings.ToLower(line))
	return Decision{Approved: line == "y" || line == "yes"}
}

func (p *TerminalPort) ConfirmDestructive(_ context.Context, cmd string, classification models.CommandClassification, intentID string) (Decision, error) {
	prompt := fmt.Sprintf("approve destructive command %q (risk=%s, intent=%s)?", cmd, classification.Risk, intentID)
	return p.ask(prompt), nil
}

func (p *TerminalPort) ConfirmScopeViolation(_ context.Context, intentID, path string, scopes []string) (Decision, error) {
	prompt := fmt.Sprintf("intent %s wants to write %q, outside owned scope %v — approve?", intentID, path, scopes)
	return p.ask(prompt), nil
}

func (p *TerminalPort) ConfirmIntentEvolution(_ context.Context, intentID, summary string) (Decision, error) {
	prompt := fmt.Sprintf("intent %s: %s — approve?", intentID, summary)
	return p.ask(prompt), nil
}
