package doctor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_AllPresentAndValidPasses(t *testing.T) {
	dir := t.TempDir()
	intentPath := filepath.Join(dir, "intents.yaml")
	ignorePath := filepath.Join(dir, "rules.ignore")
	require.NoError(t, os.WriteFile(intentPath, []byte("active_intents: []\n"), 0o644))
	require.NoError(t, os.WriteFile(ignorePath, []byte(""), 0o644))

	c := NewChecker()
	checks := c.Run(Layout{
		IntentPath:       intentPath,
		IgnorePath:       ignorePath,
		TraceJournalPath: filepath.Join(dir, "trace.jsonl"),
		LessonLogPath:    filepath.Join(dir, "lessons.md"),
	})

	require.Len(t, checks, 4)
	for _, c := range checks {
		assert.True(t, c.Passed, "%s: %s", c.Name, c.Detail)
	}
}

func TestRun_MissingIntentFileFails(t *testing.T) {
	dir := t.TempDir()
	c := NewChecker()
	checks := c.Run(Layout{IntentPath: filepath.Join(dir, "missing.yaml")})

	require.Len(t, checks, 1)
	assert.False(t, checks[0].Passed)
}

func TestRun_MalformedIntentYAMLFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "intents.yaml")
	require.NoError(t, os.WriteFile(path, []byte("not: [valid: yaml"), 0o644))

	c := NewChecker()
	checks := c.Run(Layout{IntentPath: path})

	require.Len(t, checks, 1)
	assert.False(t, checks[0].Passed)
}

func TestRun_SkipsUnconfiguredPaths(t *testing.T) {
	c := NewChecker()
	checks := c.Run(Layout{})
	assert.Empty(t, checks)
}
