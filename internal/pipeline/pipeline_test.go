package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentgate/agentgate/internal/approval"
	"github.com/agentgate/agentgate/internal/health"
	"github.com/agentgate/agentgate/internal/hooks"
	"github.com/agentgate/agentgate/internal/ignoreindex"
	"github.com/agentgate/agentgate/internal/intent"
	"github.com/agentgate/agentgate/internal/lesson"
	"github.com/agentgate/agentgate/internal/lock"
	"github.com/agentgate/agentgate/internal/models"
	"github.com/agentgate/agentgate/internal/session"
	"github.com/agentgate/agentgate/internal/trace"
	"github.com/agentgate/agentgate/internal/vcs"
)

const intentDoc = `
active_intents:
  - id: INT-001
    name: Weather fetch
    status: ACTIVE
    owned_scope:
      - "src/api/weather/**"
    constraints: []
    acceptance_criteria: []
`

func newTestDeps(t *testing.T, port approval.Port) *Deps {
	t.Helper()
	dir := t.TempDir()

	intentPath := filepath.Join(dir, "intents.yaml")
	require.NoError(t, os.WriteFile(intentPath, []byte(intentDoc), 0o644))
	intents := intent.New(intentPath)
	intents.Load()

	ignore := ignoreindex.New()
	require.NoError(t, ignore.Load(filepath.Join(dir, "missing.ignore")))

	return &Deps{
		Intents:   intents,
		Ignore:    ignore,
		Locks:     lock.New(),
		Sessions:  session.New(),
		Trace:     trace.NewStore(filepath.Join(dir, "trace.jsonl")),
		IntentMap: trace.NewIntentMap(filepath.Join(dir, "intent_map.md")),
		Lessons:   lesson.New(filepath.Join(dir, "lessons.md")),
		Approval:  port,
		VCS:       vcs.New(dir),
		Health:    health.NewCollector(),
	}
}

func newTestPipeline(t *testing.T, port approval.Port) (*Pipeline, *Deps) {
	t.Helper()
	deps := newTestDeps(t, port)
	registry := hooks.New()
	Register(registry, deps)
	return New(registry), deps
}

func okNext(context.Context, *models.HookContext) (any, error) { return "ok", nil }

func TestScenario_S1_GatekeeperBlocksNakedWrite(t *testing.T) {
	p, deps := newTestPipeline(t, approval.NullPort{})
	sess := &models.Session{ID: "s1"}

	result := p.Execute(context.Background(), "write_to_file",
		map[string]any{"path": "a.txt", "content": "x"}, sess, okNext)

	assert.False(t, result.Success)
	require.NotNil(t, result.Error)
	assert.Equal(t, models.ErrIntentRequired, result.Error.Type)

	records, err := deps.Trace.ByFile(context.Background(), "a.txt")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestScenario_S2_HappyPathWriteWithTrace(t *testing.T) {
	p, deps := newTestPipeline(t, approval.NullPort{})
	sess := &models.Session{ID: "s2", IntentID: "INT-001"}

	// The agent reads the (as yet nonexistent) file before writing it, the
	// same way read_file's post-hook would register it for a real tool call.
	deps.Locks.RegisterRead("src/api/weather/fetch.ts", sess.ID, "")

	content := "export const f = 1;\n"
	result := p.Execute(context.Background(), "write_to_file",
		map[string]any{"path": "src/api/weather/fetch.ts", "content": content}, sess, okNext)

	require.True(t, result.Success)

	records, err := deps.Trace.ByIntent(context.Background(), "INT-001")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "src/api/weather/fetch.ts", records[0].Files[0].RelativePath)
	assert.Equal(t, "INT-001", records[0].Files[0].Conversations[0].Related[0].Value)
	assert.Equal(t, "unknown", records[0].VCS.RevisionID)

	snap := deps.Health.Snapshot()
	assert.Equal(t, 1, snap.Acquires)
	assert.Equal(t, 1, snap.Writes)
	assert.Equal(t, 1, snap.JournalAppends)
}

func TestScenario_S3_ScopeViolationRejected(t *testing.T) {
	p, deps := newTestPipeline(t, approval.NullPort{})
	sess := &models.Session{ID: "s3", IntentID: "INT-001"}

	result := p.Execute(context.Background(), "write_to_file",
		map[string]any{"path": "src/other/x.ts", "content": "y"}, sess, okNext)

	require.False(t, result.Success)
	require.NotNil(t, result.Error)
	assert.Equal(t, models.ErrScopeViolation, result.Error.Type)
	assert.Contains(t, result.Error.Suggestion, "src/api/weather/**")

	records, err := deps.Trace.ByFile(context.Background(), "src/other/x.ts")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestScenario_S4_DestructiveCommandRejected(t *testing.T) {
	p, _ := newTestPipeline(t, approval.NullPort{})
	sess := &models.Session{ID: "s4", IntentID: "INT-001"}

	result := p.Execute(context.Background(), "execute_command",
		map[string]any{"command": "git push --force"}, sess, okNext)

	require.False(t, result.Success)
	require.NotNil(t, result.Error)
	assert.Equal(t, models.ErrDestructiveCommand, result.Error.Type)

	actions, ok := result.LLMError["_recovery"].(map[string]any)["suggested_actions"].([]any)
	require.True(t, ok)
	found := false
	for _, a := range actions {
		if s, ok := a.(string); ok && strings.Contains(s, "--force-with-lease") {
			found = true
		}
	}
	assert.True(t, found, "expected a suggested action mentioning --force-with-lease, got %v", actions)
	assert.Contains(t, result.Error.Suggestion, "--force-with-lease")
}

func TestScenario_S5_ConcurrentWritesSerialize(t *testing.T) {
	p, deps := newTestPipeline(t, approval.NullPort{})
	sessA := &models.Session{ID: "sA", IntentID: "INT-001"}
	path := "src/api/weather/f.ts"

	deps.Locks.RegisterRead(path, sessA.ID, "")

	// Simulate another session already holding the lock: sessA's write must
	// be contended, not serviced.
	require.Equal(t, lock.Acquired, deps.Locks.Acquire(path, "external-session"))

	contended := p.Execute(context.Background(), "write_to_file",
		map[string]any{"path": path, "content": "a"}, sessA, okNext)
	require.False(t, contended.Success)
	require.NotNil(t, contended.Error)
	assert.Equal(t, models.ErrFileLocked, contended.Error.Type)
	assert.Equal(t, 0, contended.Error.Details)

	// The other session releases; sessA can now acquire, but a replay with
	// a stale read-version is rejected rather than accepted.
	deps.Locks.Release(path, "external-session")
	deps.Locks.RegisterRead(path, sessA.ID, "a stale snapshot no longer on disk")

	stale := p.Execute(context.Background(), "write_to_file",
		map[string]any{"path": path, "content": "a"}, sessA, okNext)
	require.False(t, stale.Success)
	require.NotNil(t, stale.Error)
	assert.Equal(t, models.ErrStaleFile, stale.Error.Type)
}

func TestPipeline_UnknownCommandTreatedLikeDestructive(t *testing.T) {
	p, _ := newTestPipeline(t, approval.NullPort{})
	sess := &models.Session{ID: "s6", IntentID: "INT-001"}

	result := p.Execute(context.Background(), "execute_command",
		map[string]any{"command": "some-made-up-tool --flag"}, sess, okNext)

	require.False(t, result.Success)
	assert.Equal(t, models.ErrDestructiveCommand, result.Error.Type)
}

func TestPipeline_AllowsDestructiveBypassesApproval(t *testing.T) {
	dir := t.TempDir()
	intentPath := filepath.Join(dir, "intents.yaml")
	require.NoError(t, os.WriteFile(intentPath, []byte(intentDoc), 0o644))
	intents := intent.New(intentPath)
	intents.Load()

	ignorePath := filepath.Join(dir, "rules.ignore")
	require.NoError(t, os.WriteFile(ignorePath, []byte("INT-001:* allow_destructive\n"), 0o644))
	ignore := ignoreindex.New()
	require.NoError(t, ignore.Load(ignorePath))

	deps := &Deps{
		Intents:   intents,
		Ignore:    ignore,
		Locks:     lock.New(),
		Sessions:  session.New(),
		Trace:     trace.NewStore(filepath.Join(dir, "trace.jsonl")),
		IntentMap: trace.NewIntentMap(filepath.Join(dir, "intent_map.md")),
		Lessons:   lesson.New(filepath.Join(dir, "lessons.md")),
		Approval:  approval.NullPort{}, // would reject if ever consulted
	}
	registry := hooks.New()
	Register(registry, deps)
	p := New(registry)

	sess := &models.Session{ID: "s7", IntentID: "INT-001"}
	result := p.Execute(context.Background(), "execute_command",
		map[string]any{"command": "rm -rf /tmp/whatever"}, sess, okNext)

	assert.True(t, result.Success)
}

func TestFallbackPipeline_BypassesAfterCatastrophicFailure(t *testing.T) {
	registry := hooks.New()
	registry.RegisterPre(hooks.Wildcard, func(context.Context, *models.HookContext) {
		panic("simulated registry corruption")
	})
	fb := NewFallbackPipeline(New(registry))

	sess := &models.Session{ID: "s8", IntentID: "INT-001"}
	first := fb.Execute(context.Background(), "write_to_file", map[string]any{"path": "a", "content": "b"}, sess, okNext)
	assert.False(t, first.Success)

	// Still within the bypass window: hooks are skipped entirely, so the
	// intentionally panicking hook never runs and next() is called directly.
	second := fb.Execute(context.Background(), "write_to_file", map[string]any{"path": "a", "content": "b"}, sess, okNext)
	assert.True(t, second.Success)
}
