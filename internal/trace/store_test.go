package trace

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentgate/agentgate/internal/models"
	"github.com/agentgate/agentgate/internal/spatial"
)

func newRecord(t *testing.T, intentID, relPath, content string) models.TraceRecord {
	t.Helper()
	return models.TraceRecord{
		MutationClass: models.MutationIntentEvolution,
		Files: []models.FileEntry{
			{
				RelativePath: relPath,
				Conversations: []models.Conversation{
					{
						Contributor: models.Contributor{Kind: models.ContributorAI},
						Ranges: []models.Range{
							{StartLine: 1, EndLine: 1, ContentHash: spatial.Hash(content)},
						},
						Related: []models.Related{
							{Kind: models.RelatedSpecification, Value: intentID},
						},
					},
				},
			},
		},
	}
}

func TestJournal_AppendIsAppendOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.jsonl")
	j := NewJournal(path)

	j.Append(newRecord(t, "INT-001", "a.ts", "one"))
	sizeAfterFirst, err := os.Stat(path)
	require.NoError(t, err)

	j.Append(newRecord(t, "INT-001", "b.ts", "two"))
	sizeAfterSecond, err := os.Stat(path)
	require.NoError(t, err)

	assert.Greater(t, sizeAfterSecond.Size(), sizeAfterFirst.Size())

	// The bytes written for the first record must be an untouched prefix
	// of the file after the second append.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, byte('\n'), data[sizeAfterFirst.Size()-1])
}

func TestJournal_MalformedLinesAreSkipped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("not json\n{\"uuid\":\"x\"}\n"), 0o644))

	j := NewJournal(path)
	records, err := j.ByFile("")
	require.NoError(t, err)
	assert.Len(t, records, 0) // neither line has a matching file entry, but no error either
}

func TestScenario_HappyPathWriteWithTrace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.jsonl")
	store := NewStore(path)

	content := "export const f = 1;\n"
	store.Append(newRecord(t, "INT-001", "src/api/weather/fetch.ts", content))

	records, err := store.ByIntent(context.Background(), "INT-001")
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	require.Len(t, rec.Files, 1)
	assert.Equal(t, "src/api/weather/fetch.ts", rec.Files[0].RelativePath)
	require.Len(t, rec.Files[0].Conversations, 1)
	conv := rec.Files[0].Conversations[0]
	require.Len(t, conv.Related, 1)
	assert.Equal(t, "INT-001", conv.Related[0].Value)
	require.Len(t, conv.Ranges, 1)
	assert.Equal(t, spatial.Hash(content), conv.Ranges[0].ContentHash)
}

func TestStore_ByFileSuffixMatchToleratesAbsoluteVsRelative(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.jsonl")
	store := NewStore(path)
	store.Append(newRecord(t, "INT-001", "src/api/weather/fetch.ts", "x"))

	records, err := store.ByFile(context.Background(), "/repo/src/api/weather/fetch.ts")
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestStore_ByContentHashLocatesCodeByWhatItIs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.jsonl")
	store := NewStore(path)
	content := "export const f = 1;\n"
	store.Append(newRecord(t, "INT-001", "src/a.ts", content))

	matches, err := store.ByContentHash(context.Background(), spatial.Hash(content))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "src/a.ts", matches[0].File)
}

func TestStore_ImpactDerivesDeduplicatedFileListFromByIntent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.jsonl")
	store := NewStore(path)
	store.Append(newRecord(t, "INT-001", "src/a.ts", "x"))
	store.Append(newRecord(t, "INT-001", "src/a.ts", "y"))
	store.Append(newRecord(t, "INT-001", "src/b.ts", "z"))

	report, err := store.Impact(context.Background(), "INT-001")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"src/a.ts", "src/b.ts"}, report.Files)
}

func TestStore_IndexAccelerationMatchesFullScanFallback(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	journalPath := filepath.Join(dir, "trace.jsonl")

	store := NewStore(journalPath)
	store.Append(newRecord(t, "INT-001", "src/a.ts", "x"))
	store.Append(newRecord(t, "INT-002", "src/b.ts", "y"))

	withoutIndex, err := store.ByIntent(ctx, "INT-001")
	require.NoError(t, err)

	idx, err := OpenIndex(ctx, filepath.Join(dir, "index.db"))
	require.NoError(t, err)
	defer func() { _ = idx.Close() }()
	store.AttachIndex(idx)
	require.NoError(t, store.RebuildIndex(ctx))

	withIndex, err := store.ByIntent(ctx, "INT-001")
	require.NoError(t, err)

	require.Len(t, withIndex, len(withoutIndex))
	assert.Equal(t, withoutIndex[0].Files[0].RelativePath, withIndex[0].Files[0].RelativePath)
}

func TestStore_StaleIndexFailsOpenToFullScan(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	journalPath := filepath.Join(dir, "trace.jsonl")

	store := NewStore(journalPath)
	store.Append(newRecord(t, "INT-001", "src/a.ts", "x"))

	idx, err := OpenIndex(ctx, filepath.Join(dir, "index.db"))
	require.NoError(t, err)
	defer func() { _ = idx.Close() }()
	store.AttachIndex(idx)
	require.NoError(t, store.RebuildIndex(ctx))

	// Append a second record without rebuilding the index: it is now
	// stale relative to the journal, so queries must fail open to a full
	// scan and still find the new record.
	store.Append(newRecord(t, "INT-001", "src/c.ts", "z"))

	records, err := store.ByIntent(ctx, "INT-001")
	require.NoError(t, err)
	assert.Len(t, records, 2)
}
