// Package globmatch implements the glob semantics scope globs and ignore
// patterns share: "*" matches any run of non-separator characters, "**"
// matches any run of characters including separators, "?" matches exactly
// one non-separator character, and all other characters (including path
// separators) are compared literally and case-sensitively.
//
// No example repo in the retrieved corpus imports a doublestar-style glob
// library, and path/filepath.Match has no "**" support, so this is a small
// hand-rolled translator from glob syntax to a stdlib regexp — the same
// technique general-purpose glob libraries use internally.
package globmatch

import (
	"regexp"
	"strings"
	"sync"
)

var (
	cacheMu sync.Mutex
	cache   = map[string]*regexp.Regexp{}
)

// Match reports whether path matches the given glob pattern.
func Match(pattern, path string) bool {
	re, err := compile(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(path)
}

// MatchAny reports whether path matches any of the given glob patterns.
func MatchAny(patterns []string, path string) bool {
	for _, p := range patterns {
		if Match(p, path) {
			return true
		}
	}
	return false
}

func compile(pattern string) (*regexp.Regexp, error) {
	cacheMu.Lock()
	if re, ok := cache[pattern]; ok {
		cacheMu.Unlock()
		return re, nil
	}
	cacheMu.Unlock()

	re, err := regexp.Compile(toRegexString(pattern))
	if err != nil {
		return nil, err
	}

	cacheMu.Lock()
	cache[pattern] = re
	cacheMu.Unlock()
	return re, nil
}

// toRegexString translates a glob pattern into an anchored regex string.
func toRegexString(pattern string) string {
	var b strings.Builder
	b.WriteString("^")

	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch r {
		case '*':
			if i+1 < len(runes) && runes[i+1] == '*' {
				b.WriteString(".*")
				i++
				// Swallow a following separator so "a/**/b" can match "a/b".
				if i+1 < len(runes) && runes[i+1] == '/' {
					i++
				}
			} else {
				b.WriteString("[^/]*")
			}
		case '?':
			b.WriteString("[^/]")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}

	b.WriteString("$")
	return b.String()
}
