// Package spatial implements the SpatialHasher (spec.md 4.D): normalizing
// text, fingerprinting it with SHA-256, and locating a fingerprint across a
// directory tree by sliding window — the "spatial independence" query that
// locates code by what it is rather than where it lives (see
// other_examples/papercomputeco-tapes__agenttrace.go's Range.ContentHash,
// the attribution-schema precedent this hasher feeds).
package spatial

import (
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// sourceSuffixes are the file extensions find_by_hash considers.
var sourceSuffixes = []string{
	".go", ".ts", ".tsx", ".js", ".jsx", ".py", ".rb", ".java", ".c", ".cc",
	".cpp", ".h", ".hpp", ".rs", ".md", ".yaml", ".yml", ".json", ".sh",
}

// windowSizes are the sliding-window sizes find_by_hash tries, in order,
// per spec.md 4.D: "5, 10, 15, ... 50 lines".
var windowSizes = func() []int {
	sizes := make([]int, 0, 10)
	for n := 5; n <= 50; n += 5 {
		sizes = append(sizes, n)
	}
	return sizes
}()

// Normalize splits text on LF, strips trailing horizontal whitespace from
// each line, rejoins with LF, and outer-trims the result.
func Normalize(text string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// Hash returns the hex-encoded SHA-256 digest of Normalize(text).
func Hash(text string) string {
	sum := sha256.Sum256([]byte(Normalize(text)))
	return hex.EncodeToString(sum[:])
}

// HashBlock hashes only the inclusive 1-indexed [start, end] line range
// of text.
func HashBlock(text string, start, end int) string {
	lines := strings.Split(text, "\n")
	if start < 1 {
		start = 1
	}
	if end > len(lines) {
		end = len(lines)
	}
	if start > end || start > len(lines) {
		return Hash("")
	}
	block := strings.Join(lines[start-1:end], "\n")
	return Hash(block)
}

// Match is one hit returned by FindByHash.
type Match struct {
	Path      string
	StartLine int
	EndLine   int
	Content   string
}

// FindByHash walks searchRoots skipping dot-directories and node_modules,
// considering only recognized source suffixes, and slides windows of size
// 5..50 (step 5) looking for a line range whose hash equals target. This is
// deliberately O(files * windowSizes * lines): an auditor query, not a
// hot-path operation.
func FindByHash(target string, searchRoots []string) ([]Match, error) {
	var matches []Match

	for _, root := range searchRoots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil // best-effort walk; skip unreadable entries
			}
			if d.IsDir() {
				name := d.Name()
				if name != "." && (strings.HasPrefix(name, ".") || name == "node_modules") {
					return filepath.SkipDir
				}
				return nil
			}
			if !hasSourceSuffix(path) {
				return nil
			}

			found, err := findInFile(path, target)
			if err != nil {
				return nil
			}
			matches = append(matches, found...)
			return nil
		})
		if err != nil {
			return matches, err
		}
	}

	return matches, nil
}

func hasSourceSuffix(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, s := range sourceSuffixes {
		if ext == s {
			return true
		}
	}
	return false
}

func findInFile(path, target string) ([]Match, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	lines := strings.Split(string(data), "\n")

	var matches []Match
	for _, size := range windowSizes {
		if size > len(lines) {
			break
		}
		for start := 0; start+size <= len(lines); start++ {
			block := strings.Join(lines[start:start+size], "\n")
			if Hash(block) == target {
				matches = append(matches, Match{
					Path:      path,
					StartLine: start + 1,
					EndLine:   start + size,
					Content:   block,
				})
			}
		}
	}
	return matches, nil
}
