package models

import "time"

// SessionIdleTimeout is how long a session may go without a tool call
// before the SessionRegistry reaper expires it.
const SessionIdleTimeout = 5 * time.Minute

// ReadVersion records the fingerprint a session last observed for a path,
// used by LockManager.validate_write to detect stale writes.
type ReadVersion struct {
	Hash      string
	ObservedAt time.Time
}

// Session is per-agent runtime state tracked by the SessionRegistry.
type Session struct {
	ID             string
	IntentID       string
	ModelID        string
	ConversationID string
	ReadVersions   map[string]ReadVersion // keyed by normalized path
	CreatedAt      time.Time
	LastActiveAt   time.Time
	ToolCallCount  int
}

// Touch refreshes the session's last-active timestamp.
func (s *Session) Touch(now time.Time) {
	s.LastActiveAt = now
	s.ToolCallCount++
}

// Expired reports whether the session has been idle past SessionIdleTimeout.
func (s *Session) Expired(now time.Time) bool {
	return now.Sub(s.LastActiveAt) > SessionIdleTimeout
}
