// Package doctor runs a preflight diagnostic over the governance file
// layout: the declarative intent store, ignore file, trace journal
// directory, and lesson log path. Grounded on
// internal/standards/standards.go's file/dir-existence Checker pattern,
// generalized from repo-compliance checks to governance-file-layout
// checks.
package doctor

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Check is one diagnostic result.
type Check struct {
	Name   string
	Passed bool
	Detail string
}

// Layout names every governance file/directory doctor inspects. All
// fields are optional; a zero-value field's check is skipped.
type Layout struct {
	IntentPath       string
	IgnorePath       string
	TraceJournalPath string
	LessonLogPath    string
}

// Checker evaluates a Layout.
type Checker struct{}

// NewChecker returns a new Checker.
func NewChecker() *Checker {
	return &Checker{}
}

// Run evaluates every configured path in layout.
func (c *Checker) Run(layout Layout) []Check {
	var checks []Check

	if layout.IntentPath != "" {
		checks = append(checks, checkIntentFile(layout.IntentPath))
	}
	if layout.IgnorePath != "" {
		checks = append(checks, checkFile(layout.IgnorePath, "Ignore rules"))
	}
	if layout.TraceJournalPath != "" {
		checks = append(checks, checkWritableDir(filepath.Dir(layout.TraceJournalPath), "Trace journal directory"))
	}
	if layout.LessonLogPath != "" {
		checks = append(checks, checkWritableDir(filepath.Dir(layout.LessonLogPath), "Lesson log directory"))
	}

	return checks
}

func checkFile(path, label string) Check {
	if _, err := os.Stat(path); err != nil {
		return Check{Name: label, Passed: false, Detail: path + " missing"}
	}
	return Check{Name: label, Passed: true, Detail: path + " found"}
}

// checkIntentFile additionally verifies the file parses as YAML, since a
// present-but-malformed intent store is the failure mode doctor exists
// to catch early.
func checkIntentFile(path string) Check {
	data, err := os.ReadFile(path)
	if err != nil {
		return Check{Name: "Intent store", Passed: false, Detail: path + " missing"}
	}
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Check{Name: "Intent store", Passed: false, Detail: path + " is not valid YAML: " + err.Error()}
	}
	return Check{Name: "Intent store", Passed: true, Detail: path + " found and parses"}
}

func checkWritableDir(dir, label string) Check {
	info, err := os.Stat(dir)
	if err != nil {
		return Check{Name: label, Passed: false, Detail: dir + " missing"}
	}
	if !info.IsDir() {
		return Check{Name: label, Passed: false, Detail: dir + " is not a directory"}
	}
	probe := filepath.Join(dir, ".agentgate-doctor-probe")
	if err := os.WriteFile(probe, []byte("x"), 0o600); err != nil {
		return Check{Name: label, Passed: false, Detail: dir + " is not writable: " + err.Error()}
	}
	os.Remove(probe)
	return Check{Name: label, Passed: true, Detail: dir + " found and writable"}
}
