// Package trace implements TraceStore (spec.md 4.G): an append-only JSONL
// journal of TraceRecords, the single source of truth, plus a SQLite
// secondary index that accelerates by_intent/by_file/by_content_hash
// queries and is always safe to fall back away from.
//
// The journal's single-writer discipline is grounded on
// internal/store/sqlite.go's db.SetMaxOpenConns(1) reasoning, generalized
// from "one SQLite connection" to "one mutex-guarded append"; the
// TraceRecord shape is grounded on
// other_examples/papercomputeco-tapes__agenttrace.go.
package trace

import (
	"bufio"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/agentgate/agentgate/internal/models"
)

// Journal is the append-only, single-writer JSONL trace log.
type Journal struct {
	path string
	mu   sync.Mutex
}

// newRecordID returns a lexically sortable id whose prefix is the
// millisecond timestamp; ids minted within the same millisecond are not
// ordered among themselves, since each call seeds fresh entropy. Grounded
// directly on
// internal/store/sqlite.go's ulid.MustNew(ulid.Timestamp(...),
// ulid.Monotonic(...)) id generator.
func newRecordID() string {
	entropy := rand.New(rand.NewSource(time.Now().UnixNano()))
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulid.Monotonic(entropy, 0)).String()
}

// NewJournal returns a Journal backed by the file at path. The file is
// created lazily on first Append.
func NewJournal(path string) *Journal {
	return &Journal{path: path}
}

// Append serializes record as one JSON line and atomically appends it to
// the journal. record.UUID and record.Timestamp are filled in if unset. A
// write failure is logged to stderr and swallowed: tracing never blocks or
// propagates an error to the caller, per spec.md 4.G.
func (j *Journal) Append(record models.TraceRecord) {
	if record.UUID == "" {
		record.UUID = newRecordID()
	}
	if record.Timestamp == "" {
		record.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	line, err := json.Marshal(record)
	if err != nil {
		fmt.Fprintf(os.Stderr, "trace: marshal record: %v\n", err)
		return
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	f, err := os.OpenFile(j.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "trace: open journal: %v\n", err)
		return
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Write(append(line, '\n')); err != nil {
		fmt.Fprintf(os.Stderr, "trace: append record: %v\n", err)
	}
}

// scan reads every record in the journal, skipping malformed lines, and
// calls visit for each. It is the full-scan fallback every query method
// can always use whether or not a secondary index is available.
func (j *Journal) scan(visit func(models.TraceRecord)) error {
	f, err := os.Open(j.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		var rec models.TraceRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			continue
		}
		visit(rec)
	}
	return scanner.Err()
}

// ByIntent scans the journal for records with a file/conversation/related
// entry whose kind is "specification" and value equals id.
func (j *Journal) ByIntent(id string) ([]models.TraceRecord, error) {
	var out []models.TraceRecord
	err := j.scan(func(rec models.TraceRecord) {
		if recordReferencesIntent(rec, id) {
			out = append(out, rec)
		}
	})
	return out, err
}

func recordReferencesIntent(rec models.TraceRecord, id string) bool {
	for _, f := range rec.Files {
		for _, c := range f.Conversations {
			for _, rel := range c.Related {
				if rel.Kind == models.RelatedSpecification && rel.Value == id {
					return true
				}
			}
		}
	}
	return false
}

// ByFile emits records containing a file entry whose relative_path matches
// path by suffix (tolerating absolute-vs-relative differences).
func (j *Journal) ByFile(path string) ([]models.TraceRecord, error) {
	var out []models.TraceRecord
	err := j.scan(func(rec models.TraceRecord) {
		for _, f := range rec.Files {
			if strings.HasSuffix(f.RelativePath, path) || strings.HasSuffix(path, f.RelativePath) {
				out = append(out, rec)
				return
			}
		}
	})
	return out, err
}

// FileMatch pairs a record with the specific file path within it that
// matched a by_content_hash query.
type FileMatch struct {
	Record models.TraceRecord
	File   string
}

// ByContentHash emits (record, file_path) for any range whose content_hash
// equals hash. This is the "spatial independence" query.
func (j *Journal) ByContentHash(hash string) ([]FileMatch, error) {
	var out []FileMatch
	err := j.scan(func(rec models.TraceRecord) {
		for _, f := range rec.Files {
			for _, c := range f.Conversations {
				for _, r := range c.Ranges {
					if r.ContentHash == hash {
						out = append(out, FileMatch{Record: rec, File: f.RelativePath})
						return
					}
				}
			}
		}
	})
	return out, err
}
