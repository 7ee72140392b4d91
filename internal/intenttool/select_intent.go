// Package intenttool implements select_intent (spec.md 4.M): the one
// externally-callable operation that records an intent choice on a
// session and returns a curated context snapshot. It is exempt from the
// intent gatekeeper but is otherwise routed through the same Pipeline as
// every other tool call.
//
// Grounded on internal/mcp/server.go's handler shape (a thin struct
// wrapping process-wide services, one method per tool), generalized from
// the teacher's store-backed handlers to the intent/session/trace
// services select_intent needs.
package intenttool

import (
	"context"
	"errors"
	"fmt"

	"github.com/agentgate/agentgate/internal/intent"
	"github.com/agentgate/agentgate/internal/models"
	"github.com/agentgate/agentgate/internal/session"
	"github.com/agentgate/agentgate/internal/trace"
)

// maxCuratedConstraints bounds the curated variant's constraint list,
// per spec.md 4.M and 9's first Open Question resolution.
const maxCuratedConstraints = 3

// recentActivityCount is how many TraceStore entries the enhanced variant
// attaches, per spec.md 4.M.
const recentActivityCount = 3

// ErrIntentNotFound names the condition of an intent id that does not
// resolve in the declarative store. Select does not return it: it reports
// that condition as a *models.HookError of type MISSING_INTENT.
var ErrIntentNotFound = errors.New("intenttool: intent not found")

// ActivityEntry is one recent TraceStore entry surfaced by the enhanced
// variant, projected down to what a curated summary needs.
type ActivityEntry struct {
	Path          string              `json:"path"`
	MutationClass models.MutationClass `json:"mutation_class"`
	Timestamp     string              `json:"timestamp"`
}

// CuratedContext is what select_intent returns on success: a bounded
// summary of the intent, never the full declaration (spec.md 4.M). The
// curated variant keeps the first maxCuratedConstraints constraints in
// declaration order; it does not rank them by relevance.
type CuratedContext struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Status         models.IntentStatus `json:"status"`
	Constraints    []string        `json:"constraints"`
	PrimaryFocus   string          `json:"primary_focus,omitempty"`
	Guidance       string          `json:"guidance"`
	Enhanced       bool            `json:"enhanced"`
	RecentActivity []ActivityEntry `json:"recent_activity,omitempty"`
}

// Tool implements the select_intent operation over the process-wide
// intent/session/trace services.
type Tool struct {
	Intents  *intent.Store
	Sessions *session.Registry
	Trace    *trace.Store

	// EnhancedDefault is the config-level default for the curated-vs-
	// enhanced choice (spec.md 9, Open Question 1); an explicit "enhanced"
	// arg always overrides it.
	EnhancedDefault bool
}

// New returns a Tool wired to the given process-wide services.
func New(intents *intent.Store, sessions *session.Registry, tr *trace.Store) *Tool {
	return &Tool{Intents: intents, Sessions: sessions, Trace: tr}
}

// Select is the select_intent operation's core logic, called as the
// Pipeline's next() for the "select_intent" tool name. args must contain
// "intent_id"; an optional boolean "enhanced" opts into the full variant.
func (t *Tool) Select(ctx context.Context, args map[string]any, sess *models.Session) (any, error) {
	intentID, _ := args["intent_id"].(string)
	if intentID == "" {
		return nil, fmt.Errorf("select_intent: intent_id is required")
	}

	var it models.Intent
	err := intent.ErrNotFound
	if t.Intents != nil {
		it, err = t.Intents.Get(intentID)
	}
	if err != nil {
		return nil, &models.HookError{
			Type:       models.ErrMissingIntent,
			Message:    fmt.Sprintf("intent %s not found", intentID),
			Suggestion: "consult the declarative intent store for valid ids",
		}
	}

	if sess != nil && t.Sessions != nil {
		t.Sessions.SetIntent(sess.ID, intentID)
	}

	enhanced := t.EnhancedDefault
	if v, ok := args["enhanced"].(bool); ok {
		enhanced = v
	}

	if enhanced {
		return t.enhancedContext(ctx, it), nil
	}
	return t.curatedContext(it), nil
}

// curatedContext bounds constraints to maxCuratedConstraints and surfaces
// only the intent's first owned scope glob as "primary focus" — a
// deliberately partial view, per spec.md 4.M.
func (t *Tool) curatedContext(it models.Intent) CuratedContext {
	constraints := it.Constraints
	if len(constraints) > maxCuratedConstraints {
		constraints = constraints[:maxCuratedConstraints]
	}

	var primaryFocus string
	if len(it.OwnedScope) > 0 {
		primaryFocus = it.OwnedScope[0]
	}

	return CuratedContext{
		ID:           it.ID,
		Name:         it.Name,
		Status:       it.Status,
		Constraints:  constraints,
		PrimaryFocus: primaryFocus,
		Guidance:     guidanceFor(it, primaryFocus),
	}
}

// enhancedContext returns the full constraint list plus recent
// TraceStore activity, an explicit opt-in per spec.md 4.M / 9.
func (t *Tool) enhancedContext(ctx context.Context, it models.Intent) CuratedContext {
	cc := t.curatedContext(it)
	cc.Constraints = it.Constraints
	cc.Enhanced = true

	if t.Trace == nil {
		return cc
	}
	records, err := t.Trace.ByIntent(ctx, it.ID)
	if err != nil {
		return cc
	}
	cc.RecentActivity = recentActivity(records, recentActivityCount)
	return cc
}

// recentActivity flattens a TraceRecord list into its last n
// (file, mutation_class, timestamp) tuples, most recent first. The
// journal is append-only in chronological order, so the tail of records
// is already the most recent.
func recentActivity(records []models.TraceRecord, n int) []ActivityEntry {
	var flat []ActivityEntry
	for _, rec := range records {
		for _, f := range rec.Files {
			flat = append(flat, ActivityEntry{
				Path:          f.RelativePath,
				MutationClass: rec.MutationClass,
				Timestamp:     rec.Timestamp,
			})
		}
	}
	if len(flat) <= n {
		reverse(flat)
		return flat
	}
	tail := flat[len(flat)-n:]
	reverse(tail)
	return tail
}

func reverse(entries []ActivityEntry) {
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
}

func guidanceFor(it models.Intent, primaryFocus string) string {
	if primaryFocus == "" {
		return fmt.Sprintf("intent %s (%s) has no owned scope: it is read-only, no write_to_file call will be accepted under it", it.ID, it.Name)
	}
	return fmt.Sprintf("intent %s (%s) is active; keep writes within %s", it.ID, it.Name, primaryFocus)
}
