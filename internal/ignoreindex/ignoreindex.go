// Package ignoreindex implements IgnoreIndex (spec.md 4.B): per-intent and
// global exclusion / allow-destructive / require-approval rules parsed from
// a plaintext rules file.
package ignoreindex

import (
	"bufio"
	"os"
	"strings"

	"github.com/agentgate/agentgate/internal/globmatch"
	"github.com/agentgate/agentgate/internal/models"
)

// Index holds the parsed ignore rules, intent-specific and global.
//
// Grounded on internal/standards/standards.go's line-oriented, no-library
// parsing style (there's no corpus library for this shape of rules file;
// see DESIGN.md's stdlib justification).
type Index struct {
	rules []models.IgnoreRule
}

// New returns an empty Index. Load populates it.
func New() *Index {
	return &Index{}
}

// Load reads the rules file at path. A missing file is not an error: the
// documented defaults (node_modules/**, .git/**, dist/**, *.log, all
// exclude) are installed instead.
func (idx *Index) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			idx.rules = models.DefaultIgnoreRules()
			return nil
		}
		return err
	}
	defer func() { _ = f.Close() }()

	var rules []models.IgnoreRule
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rule, ok := parseLine(line)
		if ok {
			rules = append(rules, rule)
		}
	}
	idx.rules = rules
	return scanner.Err()
}

// parseLine parses "[intent_id:]pattern [kind]". kind defaults to exclude.
func parseLine(line string) (models.IgnoreRule, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return models.IgnoreRule{}, false
	}

	patternField := fields[0]
	kind := models.IgnoreKindExclude
	if len(fields) > 1 {
		kind = models.IgnoreRuleKind(fields[1])
	}

	var intentID, pattern string
	if i := strings.Index(patternField, ":"); i >= 0 {
		intentID = patternField[:i]
		pattern = patternField[i+1:]
	} else {
		pattern = patternField
	}

	if pattern == "" {
		return models.IgnoreRule{}, false
	}

	return models.IgnoreRule{IntentID: intentID, Pattern: pattern, Kind: kind}, true
}

// effectiveRules resolves the rule set in effect for intentID: global rules,
// with any intent-specific rule for the same pattern replacing its global
// counterpart (spec.md 3: "Intent-specific overrides global for the same
// pattern").
func (idx *Index) effectiveRules(intentID string) []models.IgnoreRule {
	byPattern := map[string]models.IgnoreRule{}
	var order []string
	for _, r := range idx.rules {
		if r.IntentID != "" {
			continue
		}
		if _, ok := byPattern[r.Pattern]; !ok {
			order = append(order, r.Pattern)
		}
		byPattern[r.Pattern] = r
	}
	for _, r := range idx.rules {
		if r.IntentID != intentID {
			continue
		}
		if _, ok := byPattern[r.Pattern]; !ok {
			order = append(order, r.Pattern)
		}
		byPattern[r.Pattern] = r
	}

	out := make([]models.IgnoreRule, 0, len(order))
	for _, p := range order {
		out = append(out, byPattern[p])
	}
	return out
}

// matches reports whether path matches a rule of the given kind in the
// rule set effective for intentID.
func (idx *Index) matches(path, intentID string, kind models.IgnoreRuleKind) bool {
	for _, r := range idx.effectiveRules(intentID) {
		if r.Kind == kind && globmatch.Match(r.Pattern, path) {
			return true
		}
	}
	return false
}

// IsExcluded reports whether path is excluded, optionally scoped to intentID.
func (idx *Index) IsExcluded(path, intentID string) bool {
	return idx.matches(path, intentID, models.IgnoreKindExclude)
}

// AllowsDestructive reports whether intentID (or the global rule set) is
// permitted to run destructive commands without approval. Unlike path
// rules, allow_destructive is a blanket flag: any matching rule (pattern
// "*" by convention, or any pattern at all) for this intent's effective
// rule set grants it.
func (idx *Index) AllowsDestructive(intentID string) bool {
	for _, r := range idx.effectiveRules(intentID) {
		if r.Kind == models.IgnoreKindAllowDestructive {
			return true
		}
	}
	return false
}

// RequiresApproval reports whether path requires approval for intentID.
func (idx *Index) RequiresApproval(path, intentID string) bool {
	return idx.matches(path, intentID, models.IgnoreKindRequireApproval)
}

// Rules returns the loaded rule set (for diagnostics/doctor).
func (idx *Index) Rules() []models.IgnoreRule {
	return idx.rules
}
