package trace

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/agentgate/agentgate/internal/models"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Index is the derived, rebuildable SQLite secondary index over the
// journal. It accelerates by_intent/by_file/by_content_hash; it is never
// the source of truth, and a stale or missing index simply means its
// caller falls back to a full journal scan.
//
// Grounded on internal/store/sqlite.go's NewSQLiteStore/Migrate shape
// (WAL mode, busy_timeout, embedded migrations, single-connection pool).
type Index struct {
	db *sql.DB
}

// OpenIndex opens (creating if needed) the SQLite index at dbPath and
// applies any pending migrations.
func OpenIndex(ctx context.Context, dbPath string) (*Index, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create index directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open trace index: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	idx := &Index{db: db}
	if err := idx.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return idx, nil
}

func (idx *Index) migrate(ctx context.Context) error {
	if _, err := idx.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		filename TEXT PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT (datetime('now'))
	)`); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()

		var count int
		if err := idx.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM schema_migrations WHERE filename = ?", name).Scan(&count); err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if count > 0 {
			continue
		}

		data, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := idx.db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		if _, err := idx.db.ExecContext(ctx,
			"INSERT INTO schema_migrations (filename) VALUES (?)", name); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
	}
	return nil
}

// Close closes the underlying database connection.
func (idx *Index) Close() error {
	return idx.db.Close()
}

// SyncedOffset returns the journal byte offset this index has fully
// ingested, or 0 if it has never been built.
func (idx *Index) SyncedOffset(ctx context.Context) (int64, error) {
	var value string
	err := idx.db.QueryRowContext(ctx, "SELECT value FROM index_state WHERE key = 'synced_offset'").Scan(&value)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var offset int64
	_, err = fmt.Sscanf(value, "%d", &offset)
	return offset, err
}

// IsStale reports whether journalSize exceeds the offset this index has
// ingested — i.e. the journal has grown since the last Rebuild.
func (idx *Index) IsStale(ctx context.Context, journalSize int64) (bool, error) {
	offset, err := idx.SyncedOffset(ctx)
	if err != nil {
		return true, err
	}
	return journalSize > offset, nil
}

// Rebuild truncates the index and re-ingests every record the journal
// currently holds, recording the journal's resulting byte size as the
// synced offset.
func (idx *Index) Rebuild(ctx context.Context, j *Journal) error {
	tx, err := idx.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin rebuild tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"trace_records", "trace_intents", "trace_files", "trace_content_hashes"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("truncate %s: %w", table, err)
		}
	}

	var ingestErr error
	scanErr := j.scan(func(rec models.TraceRecord) {
		if ingestErr != nil {
			return
		}
		ingestErr = ingestRecord(ctx, tx, rec)
	})
	if scanErr != nil {
		return fmt.Errorf("scan journal: %w", scanErr)
	}
	if ingestErr != nil {
		return fmt.Errorf("ingest record: %w", ingestErr)
	}

	info, err := os.Stat(j.path)
	var size int64
	if err == nil {
		size = info.Size()
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO index_state (key, value) VALUES ('synced_offset', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, fmt.Sprintf("%d", size),
	); err != nil {
		return fmt.Errorf("record synced offset: %w", err)
	}

	return tx.Commit()
}

func ingestRecord(ctx context.Context, tx *sql.Tx, rec models.TraceRecord) error {
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO trace_records (uuid, timestamp, mutation_class) VALUES (?, ?, ?)",
		rec.UUID, rec.Timestamp, string(rec.MutationClass)); err != nil {
		return err
	}

	for _, f := range rec.Files {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO trace_files (record_uuid, relative_path) VALUES (?, ?)",
			rec.UUID, f.RelativePath); err != nil {
			return err
		}
		for _, c := range f.Conversations {
			for _, rel := range c.Related {
				if rel.Kind != models.RelatedSpecification {
					continue
				}
				if _, err := tx.ExecContext(ctx,
					"INSERT INTO trace_intents (record_uuid, intent_id) VALUES (?, ?)",
					rec.UUID, rel.Value); err != nil {
					return err
				}
			}
			for _, r := range c.Ranges {
				if r.ContentHash == "" {
					continue
				}
				if _, err := tx.ExecContext(ctx,
					"INSERT INTO trace_content_hashes (record_uuid, relative_path, content_hash) VALUES (?, ?, ?)",
					rec.UUID, f.RelativePath, r.ContentHash); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// RecordUUIDsByIntent returns the UUIDs of records indexed under intentID.
func (idx *Index) RecordUUIDsByIntent(ctx context.Context, intentID string) ([]string, error) {
	rows, err := idx.db.QueryContext(ctx, "SELECT DISTINCT record_uuid FROM trace_intents WHERE intent_id = ?", intentID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return scanStrings(rows)
}

// RecordUUIDsByFile returns the UUIDs of records touching a file whose
// relative_path ends with, or is a suffix of, path.
func (idx *Index) RecordUUIDsByFile(ctx context.Context, path string) ([]string, error) {
	rows, err := idx.db.QueryContext(ctx,
		"SELECT DISTINCT record_uuid FROM trace_files WHERE relative_path LIKE '%' || ? OR ? LIKE '%' || relative_path",
		path, path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return scanStrings(rows)
}

// FileMatchesByContentHash returns the (record_uuid, relative_path) pairs
// indexed under hash.
func (idx *Index) FileMatchesByContentHash(ctx context.Context, hash string) ([]struct{ RecordUUID, Path string }, error) {
	rows, err := idx.db.QueryContext(ctx,
		"SELECT DISTINCT record_uuid, relative_path FROM trace_content_hashes WHERE content_hash = ?", hash)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []struct{ RecordUUID, Path string }
	for rows.Next() {
		var m struct{ RecordUUID, Path string }
		if err := rows.Scan(&m.RecordUUID, &m.Path); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func scanStrings(rows *sql.Rows) ([]string, error) {
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
