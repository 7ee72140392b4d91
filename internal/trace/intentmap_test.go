package trace

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntentMap_UpdateRendersBulletsForIntent(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store := NewStore(filepath.Join(dir, "trace.jsonl"))
	store.Append(newRecord(t, "INT-001", "src/a.ts", "x"))

	m := NewIntentMap(filepath.Join(dir, "intent_map.md"))
	require.NoError(t, m.Update(ctx, store, "INT-001"))

	raw, err := os.ReadFile(filepath.Join(dir, "intent_map.md"))
	require.NoError(t, err)
	content := string(raw)
	assert.Contains(t, content, "## INT-001")
	assert.Contains(t, content, "src/a.ts")
}

func TestIntentMap_UpdatePreservesOtherIntentSections(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store := NewStore(filepath.Join(dir, "trace.jsonl"))
	store.Append(newRecord(t, "INT-001", "src/a.ts", "x"))
	store.Append(newRecord(t, "INT-002", "src/b.ts", "y"))

	m := NewIntentMap(filepath.Join(dir, "intent_map.md"))
	require.NoError(t, m.Update(ctx, store, "INT-001"))
	require.NoError(t, m.Update(ctx, store, "INT-002"))

	raw, err := os.ReadFile(filepath.Join(dir, "intent_map.md"))
	require.NoError(t, err)
	content := string(raw)
	assert.Contains(t, content, "## INT-001")
	assert.Contains(t, content, "src/a.ts")
	assert.Contains(t, content, "## INT-002")
	assert.Contains(t, content, "src/b.ts")
}
