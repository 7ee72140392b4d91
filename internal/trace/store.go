package trace

import (
	"context"
	"os"

	"github.com/agentgate/agentgate/internal/models"
)

// Store is TraceStore: the journal is the single source of truth; the
// index, when present and fresh, accelerates queries but is never
// required for correctness.
type Store struct {
	journal *Journal
	index   *Index
}

// NewStore returns a Store with no secondary index; queries always
// full-scan the journal. Use AttachIndex to add acceleration.
func NewStore(journalPath string) *Store {
	return &Store{journal: NewJournal(journalPath)}
}

// AttachIndex wires a SQLite secondary index into the store.
func (s *Store) AttachIndex(idx *Index) {
	s.index = idx
}

// Append records one accepted mutation.
func (s *Store) Append(record models.TraceRecord) {
	s.journal.Append(record)
}

// RebuildIndex re-ingests the full journal into the attached index. A
// no-op if no index is attached.
func (s *Store) RebuildIndex(ctx context.Context) error {
	if s.index == nil {
		return nil
	}
	return s.index.Rebuild(ctx, s.journal)
}

// indexFresh reports whether the attached index exists and has ingested
// everything currently in the journal.
func (s *Store) indexFresh(ctx context.Context) bool {
	if s.index == nil {
		return false
	}
	info, err := os.Stat(s.journal.path)
	if err != nil {
		return false
	}
	stale, err := s.index.IsStale(ctx, info.Size())
	if err != nil {
		return false
	}
	return !stale
}

// ByIntent returns every record referencing intentID via a specification
// relation. Consults the index when fresh; otherwise falls back to a full
// journal scan (fail-open on a stale or absent index).
func (s *Store) ByIntent(ctx context.Context, intentID string) ([]models.TraceRecord, error) {
	if s.indexFresh(ctx) {
		uuids, err := s.index.RecordUUIDsByIntent(ctx, intentID)
		if err == nil {
			return s.journal.recordsByUUID(uuids)
		}
	}
	return s.journal.ByIntent(intentID)
}

// ByFile returns every record touching a file matching path by suffix.
func (s *Store) ByFile(ctx context.Context, path string) ([]models.TraceRecord, error) {
	if s.indexFresh(ctx) {
		uuids, err := s.index.RecordUUIDsByFile(ctx, path)
		if err == nil {
			return s.journal.recordsByUUID(uuids)
		}
	}
	return s.journal.ByFile(path)
}

// ByContentHash returns every (record, file) pair with a range matching
// hash. This is the spatial-independence query: locate code by what it
// is, not where it lives.
func (s *Store) ByContentHash(ctx context.Context, hash string) ([]FileMatch, error) {
	if s.indexFresh(ctx) {
		matches, err := s.index.FileMatchesByContentHash(ctx, hash)
		if err == nil {
			out := make([]FileMatch, 0, len(matches))
			for _, m := range matches {
				recs, rerr := s.journal.recordsByUUID([]string{m.RecordUUID})
				if rerr != nil || len(recs) == 0 {
					continue
				}
				out = append(out, FileMatch{Record: recs[0], File: m.Path})
			}
			return out, nil
		}
	}
	return s.journal.ByContentHash(hash)
}

// ImpactReport summarizes every file an intent has touched, derived
// entirely from ByIntent: the journal remains the single source of truth,
// this is just a different projection of it.
type ImpactReport struct {
	IntentID string
	Files    []string
}

// Impact composes ByIntent into a deduplicated file list.
func (s *Store) Impact(ctx context.Context, intentID string) (ImpactReport, error) {
	records, err := s.ByIntent(ctx, intentID)
	if err != nil {
		return ImpactReport{}, err
	}

	seen := map[string]bool{}
	report := ImpactReport{IntentID: intentID}
	for _, rec := range records {
		for _, f := range rec.Files {
			if !seen[f.RelativePath] {
				seen[f.RelativePath] = true
				report.Files = append(report.Files, f.RelativePath)
			}
		}
	}
	return report, nil
}

// recordsByUUID scans the journal once, collecting every record whose
// UUID is in want. Used to resolve index hits back to full records, since
// the index itself never stores record bodies.
func (j *Journal) recordsByUUID(want []string) ([]models.TraceRecord, error) {
	wantSet := map[string]bool{}
	for _, u := range want {
		wantSet[u] = true
	}
	var out []models.TraceRecord
	err := j.scan(func(rec models.TraceRecord) {
		if wantSet[rec.UUID] {
			out = append(out, rec)
		}
	})
	return out, err
}
