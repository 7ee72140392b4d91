package pipeline

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/agentgate/agentgate/internal/approval"
	"github.com/agentgate/agentgate/internal/command"
	"github.com/agentgate/agentgate/internal/health"
	"github.com/agentgate/agentgate/internal/hooks"
	"github.com/agentgate/agentgate/internal/ignoreindex"
	"github.com/agentgate/agentgate/internal/intent"
	"github.com/agentgate/agentgate/internal/lesson"
	"github.com/agentgate/agentgate/internal/lock"
	"github.com/agentgate/agentgate/internal/models"
	"github.com/agentgate/agentgate/internal/mutation"
	"github.com/agentgate/agentgate/internal/recovery"
	"github.com/agentgate/agentgate/internal/session"
	"github.com/agentgate/agentgate/internal/spatial"
	"github.com/agentgate/agentgate/internal/trace"
	"github.com/agentgate/agentgate/internal/vcs"
)

// Tool names the required hooks register against. toolWriteToFile and
// toolExecuteCommand are the two effectful tools they gate, per spec.md 4.H.
const (
	toolWriteToFile    = "write_to_file"
	toolExecuteCommand = "execute_command"
	toolReadFile       = "read_file"
	toolSelectIntent   = "select_intent"
)

// Deps bundles every process-wide service the required hooks consult.
// Constructed once during bootstrap and handed to Register.
type Deps struct {
	Intents   *intent.Store
	Ignore    *ignoreindex.Index
	Locks     *lock.Manager
	Sessions  *session.Registry
	Trace     *trace.Store
	IntentMap *trace.IntentMap
	Lessons   *lesson.Log
	Approval  approval.Port
	VCS       *vcs.Probe
	Health    *health.Collector

	// MutationBackend is the optional LLM-assisted classifier (spec.md
	// 4.E). Nil means trace_recorder classifies with mutation.Classify's
	// structural/textual heuristics alone.
	MutationBackend *mutation.LLMBackend

	Now func() time.Time
}

// recordAcquire is nil-safe so Deps.Health remains optional.
func (d *Deps) recordAcquire(contended bool) {
	if d.Health != nil {
		d.Health.RecordAcquire(contended)
	}
}

func (d *Deps) recordApprovalCheck(denied bool) {
	if d.Health != nil {
		d.Health.RecordApprovalCheck(denied)
	}
}

func (d *Deps) recordWrite(stale bool) {
	if d.Health != nil {
		d.Health.RecordWrite(stale)
	}
}

func (d *Deps) recordJournalAppend(elapsed time.Duration) {
	if d.Health != nil {
		d.Health.RecordJournalAppend(elapsed)
	}
}

// Register installs the required pre-hooks and post-hooks (spec.md 4.H)
// plus the read_file recorder that feeds LockManager.RegisterRead, into
// registry.
func Register(registry *hooks.Registry, deps *Deps) {
	if deps.Now == nil {
		deps.Now = time.Now
	}

	registry.RegisterPre(hooks.Wildcard, intentGatekeeper())
	registry.RegisterPre(toolExecuteCommand, commandClassifierHook(deps))
	registry.RegisterPre(toolWriteToFile, scopeEnforcer(deps))
	registry.RegisterPre(toolWriteToFile, staleFileDetector(deps))

	registry.RegisterPost(toolWriteToFile, lockReleaser(deps))
	registry.RegisterPost(toolWriteToFile, traceRecorder(deps))
	registry.RegisterPost(toolReadFile, readRecorder(deps))
	registry.RegisterPost(hooks.Wildcard, lessonRecorder(deps))
	registry.RegisterPost(hooks.Wildcard, recoveryLogger(deps))
}

func sessionID(hc *models.HookContext) string {
	if hc.Session == nil {
		return ""
	}
	return hc.Session.ID
}

func intentID(hc *models.HookContext) string {
	if hc.Session == nil {
		return ""
	}
	return hc.Session.IntentID
}

func argString(hc *models.HookContext, key string) string {
	v, _ := hc.Args[key].(string)
	return v
}

// intentGatekeeper is the global pre-hook enforcing intent selection
// (spec.md 4.H, invariant 2): select_intent is exempt; every other tool
// requires session.IntentID to already be set.
func intentGatekeeper() hooks.PreHook {
	return func(_ context.Context, hc *models.HookContext) {
		if hc.ToolName == toolSelectIntent {
			return
		}
		if intentID(hc) == "" {
			hc.Block(models.HookError{
				Type:    models.ErrIntentRequired,
				Message: "no active intent set for this session",
			})
		}
	}
}

// commandClassifierHook gates execute_command per spec.md 4.H.
func commandClassifierHook(deps *Deps) hooks.PreHook {
	return func(ctx context.Context, hc *models.HookContext) {
		cmd := argString(hc, "command")
		iid := intentID(hc)

		if deps.Ignore.IsExcluded(cmd, iid) {
			hc.Block(models.HookError{Type: models.ErrCommandExcluded, Message: "command excluded by ignore rules"})
			return
		}

		classification := command.Classify(cmd)
		if classification.Risk == models.RiskSafe {
			return
		}
		if deps.Ignore.AllowsDestructive(iid) {
			return
		}

		decision, err := deps.Approval.ConfirmDestructive(ctx, cmd, classification, iid)
		if err == nil && decision.Approved {
			deps.recordApprovalCheck(false)
			hc.UserFeedback = &models.UserFeedback{Approved: true, Feedback: decision.Feedback, Remember: decision.Remember}
			return
		}
		deps.recordApprovalCheck(true)

		hc.Block(models.HookError{
			Type:       models.ErrDestructiveCommand,
			Message:    "destructive command was not approved",
			Suggestion: classification.SuggestedAlternative,
		})
	}
}

// scopeEnforcer gates write_to_file's path against the active intent's
// owned scope, per spec.md 4.H.
func scopeEnforcer(deps *Deps) hooks.PreHook {
	return func(ctx context.Context, hc *models.HookContext) {
		path := argString(hc, "path")
		iid := intentID(hc)

		if deps.Ignore.IsExcluded(path, iid) {
			hc.Block(models.HookError{Type: models.ErrFileExcluded, Message: "path excluded by ignore rules"})
			return
		}

		it, err := deps.Intents.Get(iid)
		if err != nil {
			hc.Block(models.HookError{Type: models.ErrMissingIntent, Message: "active intent not found: " + iid})
			return
		}

		if intent.ScopeMatches(it, path) {
			return
		}

		decision, aerr := deps.Approval.ConfirmScopeViolation(ctx, iid, path, it.OwnedScope)
		if aerr == nil && decision.Approved {
			deps.recordApprovalCheck(false)
			hc.UserFeedback = &models.UserFeedback{Approved: true, Feedback: decision.Feedback}
			return
		}
		deps.recordApprovalCheck(true)

		hc.Block(models.HookError{
			Type:       models.ErrScopeViolation,
			Message:    fmt.Sprintf("%q is outside intent %s's owned scope", path, iid),
			Suggestion: fmt.Sprintf("owned scope: %s", strings.Join(it.OwnedScope, ", ")),
		})
	}
}

// staleFileDetector acquires the file lock and validates the write
// against the session's registered read-version, per spec.md 4.H.
func staleFileDetector(deps *Deps) hooks.PreHook {
	return func(_ context.Context, hc *models.HookContext) {
		if hc.Blocked {
			return
		}

		path := argString(hc, "path")
		sid := sessionID(hc)

		outcome := deps.Locks.Acquire(path, sid)
		deps.recordAcquire(outcome == lock.Contended)
		if outcome == lock.Contended {
			_, position := deps.Locks.QueueWrite(path, sid)
			hc.Block(models.HookError{
				Type:    models.ErrFileLocked,
				Message: "file is locked by another session",
				Details: position,
			})
			return
		}

		currentContent := readFileOrEmpty(path)
		validated, _ := deps.Locks.ValidateWrite(path, sid, currentContent)
		deps.recordWrite(validated != lock.ValidateOK)
		if validated != lock.ValidateOK {
			deps.Locks.Release(path, sid)
			hc.Block(models.HookError{
				Type:    models.ErrStaleFile,
				Message: "on-disk content changed since this session last read it",
			})
			return
		}

		// Stashed for trace_recorder, which needs the pre-write content to
		// classify the mutation; re-reading it there would race against the
		// write this same call is about to perform.
		hc.Args["__prior_content"] = currentContent
	}
}

// lockReleaser releases the write_to_file lock regardless of the tool's
// own result, per spec.md 4.H.
func lockReleaser(deps *Deps) hooks.PostHook {
	return func(_ context.Context, hc *models.HookContext, _ *models.Result) {
		deps.Locks.Release(argString(hc, "path"), sessionID(hc))
	}
}

// traceRecorder appends a TraceRecord for a successful write_to_file call
// and refreshes the derived intent map, per spec.md 4.H.
func traceRecorder(deps *Deps) hooks.PostHook {
	return func(ctx context.Context, hc *models.HookContext, result *models.Result) {
		if !result.Success {
			return
		}

		path := argString(hc, "path")
		content := argString(hc, "content")
		prior, _ := hc.Args["__prior_content"].(string)
		iid := intentID(hc)

		verdict := classifyMutation(ctx, deps, prior, content)
		contentHash := spatial.Hash(content)

		var snap models.VCSSnapshot
		if deps.VCS != nil {
			snap = deps.VCS.Revision()
		} else {
			snap = models.VCSSnapshot{RevisionID: "unknown"}
		}

		record := models.TraceRecord{
			VCS:           snap,
			MutationClass: verdict.Class,
			Files: []models.FileEntry{{
				RelativePath: path,
				Conversations: []models.Conversation{{
					Contributor: models.Contributor{Kind: models.ContributorAI, SessionID: sessionID(hc)},
					Ranges: []models.Range{{
						StartLine:     1,
						EndLine:       lineCount(content),
						ContentHash:   contentHash,
						MutationClass: verdict.Class,
						Confidence:    verdict.Confidence,
					}},
					Related: []models.Related{{Kind: models.RelatedSpecification, Value: iid}},
				}},
			}},
			Metadata: models.TraceMetadata{SessionID: sessionID(hc)},
		}

		appendStart := deps.Now()
		deps.Trace.Append(record)
		deps.recordJournalAppend(deps.Now().Sub(appendStart))

		if deps.IntentMap != nil {
			if err := deps.IntentMap.Update(ctx, deps.Trace, iid); err != nil {
				fmt.Fprintf(os.Stderr, "pipeline: update intent map: %v\n", err)
			}
		}
	}
}

// readRecorder registers the read-version LockManager.validate_write and
// SessionRegistry need, for tools that read a file's content. Not one of
// spec.md 4.H's four required post-hooks, but required for the invariant
// that a session must have called register_read before it can write
// (spec.md 8, invariant 1) to ever be satisfiable outside of tests that
// set it up directly.
func readRecorder(deps *Deps) hooks.PostHook {
	return func(_ context.Context, hc *models.HookContext, result *models.Result) {
		if !result.Success {
			return
		}
		content, _ := result.Value.(string)
		path := argString(hc, "path")
		sid := sessionID(hc)

		deps.Locks.RegisterRead(path, sid, content)
		if hc.Session != nil {
			deps.Sessions.RecordRead(hc.Session.ID, path, spatial.Hash(content))
		}
	}
}

// lessonRecorder is the global post-hook appending a structured lesson
// entry whenever the wrapped tool itself failed, per spec.md 4.H. Pipeline
// never reaches post-hooks on a pre-hook block (spec.md 4.I step 3 returns
// before step 5), so this only fires for next()'s own failures.
func lessonRecorder(deps *Deps) hooks.PostHook {
	return func(_ context.Context, hc *models.HookContext, result *models.Result) {
		if result.Success || result.Error == nil {
			return
		}
		deps.Lessons.Append(lesson.FromHookError(deps.Now(), hc.ToolName, intentID(hc), *result.Error))
	}
}

// recoveryLogger is the global post-hook appending the recovery strategy
// applied for a failed call, per spec.md 4.H.
func recoveryLogger(deps *Deps) hooks.PostHook {
	return func(_ context.Context, hc *models.HookContext, result *models.Result) {
		if result.Success || result.Error == nil {
			return
		}
		deps.Lessons.Append(lesson.Entry{
			Timestamp:  deps.Now(),
			Type:       "RECOVERY_APPLIED",
			IntentID:   intentID(hc),
			Tool:       hc.ToolName,
			Message:    fmt.Sprintf("applied recovery for %s", result.Error.Type),
			Resolution: recoveryInstructionFor(*result.Error),
		})
	}
}

// classifyMutation prefers the configured LLM backend, since it can weigh
// intent the structural/textual heuristics can't see, but never lets a
// backend failure block a trace record: any error falls back to
// mutation.Classify, which always succeeds.
func classifyMutation(ctx context.Context, deps *Deps, prior, content string) mutation.Result {
	if deps.MutationBackend != nil {
		if verdict, err := deps.MutationBackend.Classify(ctx, prior, content); err == nil {
			return verdict
		}
	}
	return mutation.Classify(prior, content)
}

func readFileOrEmpty(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return string(data)
}

// lineCount counts the 1-indexed line span of content, matching
// SpatialHasher's convention of treating an empty blob as spanning no
// lines.
func lineCount(content string) int {
	if content == "" {
		return 0
	}
	return strings.Count(content, "\n") + 1
}

func recoveryInstructionFor(hookErr models.HookError) string {
	return recovery.Format(hookErr, 0).Recovery.Instruction
}
