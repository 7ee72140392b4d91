// Package session implements SessionRegistry (spec.md 3, 9): tracking
// concurrent agent sessions, their declared intent, their read-version
// sets, and their idle lifecycle.
//
// Grounded on the teacher's internal/store Manager/Store split: a thin
// in-memory Manager wraps per-session state, with the reaper loop shape
// reused from lock.Manager.StartReaper (itself grounded on
// happyhappa-party/daemon/internal/supervisor/supervisor.go).
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agentgate/agentgate/internal/models"
)

// Registry is the process-wide session service.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*models.Session

	now func() time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
}

// New returns an empty Registry. Call StartReaper to begin expiring idle
// sessions.
func New() *Registry {
	return &Registry{
		sessions: map[string]*models.Session{},
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// Create starts a new session with a generated id and returns it.
func (r *Registry) Create() *models.Session {
	now := r.now()
	s := &models.Session{
		ID:           uuid.NewString(),
		ReadVersions: map[string]models.ReadVersion{},
		CreatedAt:    now,
		LastActiveAt: now,
	}

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return s
}

// Get resolves a session by id, touching its last-active timestamp. The
// second return value is false if the session is unknown or has expired.
func (r *Registry) Get(id string) (*models.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	now := r.now()
	if s.Expired(now) {
		delete(r.sessions, id)
		return nil, false
	}
	s.Touch(now)
	return s, true
}

// SetIntent records the session's chosen intent id, per select_intent.
func (r *Registry) SetIntent(id, intentID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		s.IntentID = intentID
	}
}

// RecordRead stores a read-version for path under the session, mirroring
// what LockManager.RegisterRead does for the lock table's own bookkeeping;
// SessionRegistry keeps its own copy so a session's full read set can be
// inspected without reaching into LockManager internals.
func (r *Registry) RecordRead(id, path, hash string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return
	}
	s.ReadVersions[path] = models.ReadVersion{Hash: hash, ObservedAt: r.now()}
}

// Count returns the number of live (non-expired) sessions, used by the
// health scorer and doctor diagnostics.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	n := 0
	for id, s := range r.sessions {
		if s.Expired(now) {
			delete(r.sessions, id)
			continue
		}
		n++
	}
	return n
}

// reap evicts every session idle past models.SessionIdleTimeout.
func (r *Registry) reap() {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	for id, s := range r.sessions {
		if s.Expired(now) {
			delete(r.sessions, id)
		}
	}
}

// StartReaper runs the idle-session sweep every interval until stop fires
// or Stop is called.
func (r *Registry) StartReaper(stop <-chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-r.stopCh:
				return
			case <-ticker.C:
				r.reap()
			}
		}
	}()
}

// Stop halts any reaper goroutine started without an external stop channel.
func (r *Registry) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
}
