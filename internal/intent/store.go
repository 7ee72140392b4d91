// Package intent implements the Intent store and scope validator
// (spec.md 4.A): loading declared intents from a YAML document, resolving
// by id, and matching a candidate path against an intent's owned scope.
package intent

import (
	"errors"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/agentgate/agentgate/internal/globmatch"
	"github.com/agentgate/agentgate/internal/models"
)

// ErrNotFound is returned by Get when no intent with the given id exists.
var ErrNotFound = errors.New("intent: not found")

// Store loads and resolves Intent declarations from a YAML file. It is
// read-only at runtime: Load() may be called again between operations to
// pick up external edits, but the store never mutates the backing file.
//
// Grounded on internal/store/store.go's method-per-query shape, adapted
// from a SQLite-backed Store to a read-only in-memory snapshot over a
// declarative file, per spec.md 4.A's "fail-open on absence" rationale.
type Store struct {
	path string

	mu      sync.RWMutex
	intents map[string]models.Intent
}

// New returns a Store reading from the given YAML path. Load must be
// called at least once before Get/List return anything.
func New(path string) *Store {
	return &Store{path: path, intents: map[string]models.Intent{}}
}

// Load reads and parses the declarative store. Any I/O or parse error
// results in an empty intent set rather than a propagated error — spec.md
// 4.A requires the middleware never crash on a missing or malformed store;
// all later gate checks then fail closed via ErrNotFound.
func (s *Store) Load() []models.Intent {
	data, err := os.ReadFile(s.path)
	if err != nil {
		s.set(nil)
		return nil
	}

	var doc models.IntentDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		s.set(nil)
		return nil
	}

	s.set(doc.ActiveIntents)
	return doc.ActiveIntents
}

func (s *Store) set(intents []models.Intent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.intents = make(map[string]models.Intent, len(intents))
	for _, it := range intents {
		s.intents[it.ID] = it
	}
}

// Get resolves an intent by id, or ErrNotFound.
func (s *Store) Get(id string) (models.Intent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.intents[id]
	if !ok {
		return models.Intent{}, ErrNotFound
	}
	return it, nil
}

// List returns all loaded intents.
func (s *Store) List() []models.Intent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Intent, 0, len(s.intents))
	for _, it := range s.intents {
		out = append(out, it)
	}
	return out
}

// ScopeMatches reports whether path falls within any of the intent's owned
// scope globs. An intent with an empty scope list is read-only: nothing is
// ever in scope for it.
func ScopeMatches(it models.Intent, path string) bool {
	if len(it.OwnedScope) == 0 {
		return false
	}
	return globmatch.MatchAny(it.OwnedScope, path)
}
