package intent

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentgate/agentgate/internal/models"
)

const sampleYAML = `
active_intents:
  - id: INT-001
    name: Weather widget
    status: ACTIVE
    owned_scope:
      - "src/api/weather/**"
    constraints:
      - "Use metric units"
      - "No external network calls"
      - "Keep under 200 lines"
      - "Match existing lint config"
    acceptance_criteria:
      - "Returns structured forecast"
  - id: INT-002
    name: Read-only audit
    status: PAUSED
    owned_scope: []
`

func writeTempStore(t *testing.T, content string) *Store {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "intents.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return New(path)
}

func TestLoad_ParsesIntents(t *testing.T) {
	s := writeTempStore(t, sampleYAML)
	intents := s.Load()
	assert.Len(t, intents, 2)
}

func TestGet_Found(t *testing.T) {
	s := writeTempStore(t, sampleYAML)
	s.Load()

	it, err := s.Get("INT-001")
	require.NoError(t, err)
	assert.Equal(t, "Weather widget", it.Name)
	assert.Equal(t, models.IntentStatusActive, it.Status)
}

func TestGet_NotFound(t *testing.T) {
	s := writeTempStore(t, sampleYAML)
	s.Load()

	_, err := s.Get("INT-999")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoad_MissingFileFailsOpenToEmpty(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	intents := s.Load()
	assert.Empty(t, intents)

	_, err := s.Get("INT-001")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoad_MalformedFileFailsOpenToEmpty(t *testing.T) {
	s := writeTempStore(t, "not: [valid, yaml: structure")
	intents := s.Load()
	assert.Empty(t, intents)
}

func TestScopeMatches(t *testing.T) {
	s := writeTempStore(t, sampleYAML)
	s.Load()
	it, err := s.Get("INT-001")
	require.NoError(t, err)

	assert.True(t, ScopeMatches(it, "src/api/weather/fetch.ts"))
	assert.False(t, ScopeMatches(it, "src/other/x.ts"))
}

func TestScopeMatches_EmptyScopeRejectsEverything(t *testing.T) {
	s := writeTempStore(t, sampleYAML)
	s.Load()
	it, err := s.Get("INT-002")
	require.NoError(t, err)

	assert.False(t, ScopeMatches(it, "anything.ts"))
	assert.False(t, ScopeMatches(it, ""))
}

func TestScopeMatches_IsPureAndStable(t *testing.T) {
	s := writeTempStore(t, sampleYAML)
	s.Load()
	it, err := s.Get("INT-001")
	require.NoError(t, err)

	first := ScopeMatches(it, "src/api/weather/fetch.ts")
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, ScopeMatches(it, "src/api/weather/fetch.ts"))
	}
}
