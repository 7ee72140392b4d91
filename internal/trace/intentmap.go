package trace

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/agentgate/agentgate/internal/models"
)

// IntentMap is the derived intent-to-file map (spec.md 6): a rewritten
// Markdown file sectioned by intent id, one bullet per (file,
// mutation_class, timestamp) tuple. It is a view over the Store, never the
// source of truth; losing this file loses nothing the journal can't
// rebuild.
type IntentMap struct {
	path string
}

// NewIntentMap returns an IntentMap rewriting path.
func NewIntentMap(path string) *IntentMap {
	return &IntentMap{path: path}
}

// Update regenerates intentID's section from the Store's current records
// and rewrites the file, leaving every other intent's section untouched.
func (m *IntentMap) Update(ctx context.Context, store *Store, intentID string) error {
	records, err := store.ByIntent(ctx, intentID)
	if err != nil {
		return err
	}

	sections, err := m.readSections()
	if err != nil {
		return err
	}
	sections[intentID] = renderSection(intentID, records)

	return m.write(sections)
}

func (m *IntentMap) readSections() (map[string]string, error) {
	sections := map[string]string{}

	data, err := os.ReadFile(m.path)
	if os.IsNotExist(err) {
		return sections, nil
	}
	if err != nil {
		return nil, err
	}

	for _, block := range strings.Split(string(data), "\n## ") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		if !strings.HasPrefix(block, "## ") {
			block = "## " + block
		}
		lines := strings.SplitN(block, "\n", 2)
		id := strings.TrimSpace(strings.TrimPrefix(lines[0], "## "))
		sections[id] = block
	}
	return sections, nil
}

func (m *IntentMap) write(sections map[string]string) error {
	ids := make([]string, 0, len(sections))
	for id := range sections {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b strings.Builder
	for _, id := range ids {
		b.WriteString(sections[id])
		b.WriteString("\n\n")
	}
	return os.WriteFile(m.path, []byte(b.String()), 0o644)
}

func renderSection(intentID string, records []models.TraceRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n", intentID)
	for _, rec := range records {
		for _, f := range rec.Files {
			fmt.Fprintf(&b, "- %s — %s — %s\n", f.RelativePath, rec.MutationClass, rec.Timestamp)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
