package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreate_AssignsUniqueID(t *testing.T) {
	r := New()
	a := r.Create()
	b := r.Create()
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestGet_ReturnsCreatedSessionAndTouchesIt(t *testing.T) {
	r := New()
	s := r.Create()

	got, ok := r.Get(s.ID)
	require.True(t, ok)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, 1, got.ToolCallCount)
}

func TestGet_UnknownIDIsNotOK(t *testing.T) {
	r := New()
	_, ok := r.Get("does-not-exist")
	assert.False(t, ok)
}

func TestSetIntent_RecordsChosenIntent(t *testing.T) {
	r := New()
	s := r.Create()
	r.SetIntent(s.ID, "INT-001")

	got, ok := r.Get(s.ID)
	require.True(t, ok)
	assert.Equal(t, "INT-001", got.IntentID)
}

func TestGet_ExpiresIdleSessionAfterFiveMinutes(t *testing.T) {
	r := New()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	s := r.Create()
	now = now.Add(6 * time.Minute)

	_, ok := r.Get(s.ID)
	assert.False(t, ok)
}

func TestReap_RemovesOnlyIdleSessions(t *testing.T) {
	r := New()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	stale := r.Create()
	now = now.Add(6 * time.Minute)
	fresh := r.Create()

	r.reap()

	_, staleOK := r.sessions[stale.ID]
	_, freshOK := r.sessions[fresh.ID]
	assert.False(t, staleOK)
	assert.True(t, freshOK)
}

func TestCount_ReflectsLiveSessionsOnly(t *testing.T) {
	r := New()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	r.Create()
	now = now.Add(6 * time.Minute)
	r.Create()

	assert.Equal(t, 1, r.Count())
}
