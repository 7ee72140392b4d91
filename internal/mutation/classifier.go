// Package mutation implements MutationClassifier (spec.md 4.E):
// classifying a code change between an original and a new blob into one of
// a closed taxonomy of mutation classes, with a confidence score.
//
// Grounded on spec.md 4.E directly for the decision table; the optional
// LLM-assisted backend (backend_llm.go) borrows its prompt/response shape
// from internal/llm/llm.go.
package mutation

import (
	"strings"
	"unicode"

	"github.com/agentgate/agentgate/internal/models"
)

// Result is the outcome of Classify: a mutation class and a confidence
// score. Classify leaves Changes empty; LLMBackend.Classify fills it with
// the model's one-sentence reason when the model gives one.
type Result struct {
	Class      models.MutationClass
	Confidence float64
	Changes    []string
}

// Classify compares original and updated blobs and returns the mutation
// class spec.md 4.E assigns them. It always succeeds: the textual fallback
// never errors, so the structural path's failure mode is simply "shapes
// differ" rather than an error return.
func Classify(original, updated string) Result {
	origShape, origOK := structuralShape(original)
	newShape, newOK := structuralShape(updated)

	if origOK && newOK {
		// TODO/FIXME removal is checked ahead of shape equality: markers
		// commonly live in comments, which the shape never sees, so a
		// shape-coincide verdict alone would miss a real bug fix.
		if hadMarkers(original) && !hadMarkers(updated) {
			return Result{Class: models.MutationBugFix, Confidence: 0.9}
		}
		if shapesEqual(origShape, newShape) {
			return Result{Class: models.MutationASTRefactor, Confidence: 0.95}
		}
		return Result{Class: models.MutationIntentEvolution, Confidence: 0.85}
	}

	return classifyTextual(original, updated)
}

// classifyTextual applies the ordered textual heuristics spec.md 4.E
// specifies as the fallback when structural comparison is unavailable.
func classifyTextual(original, updated string) Result {
	if hasDocAnnotations(updated) && !hasDocAnnotations(original) {
		return Result{Class: models.MutationDocsUpdate, Confidence: 0.9}
	}
	if hadMarkers(original) && !hadMarkers(updated) {
		return Result{Class: models.MutationBugFix, Confidence: 0.8}
	}

	lineDelta := abs(lineCount(updated) - lineCount(original))
	charDelta := abs(len(updated) - len(original))
	if lineDelta > 20 || charDelta > 500 {
		return Result{Class: models.MutationIntentEvolution, Confidence: 0.85}
	}

	confidence := 0.6
	if charDelta > 0 {
		// Scale within the documented 0.6-0.7 band for "any minor change":
		// larger minor edits get the higher end.
		confidence = 0.6 + 0.1*minF(1.0, float64(charDelta)/200.0)
	}
	return Result{Class: models.MutationASTRefactor, Confidence: confidence}
}

// tok is one element of a structural shape: its node *type*, never its
// identifier/literal/comment content.
type tok string

const (
	tokIdent   tok = "IDENT"
	tokNumber  tok = "NUMBER"
	tokString  tok = "STRING"
	tokKeyword tok = "KEYWORD"
	tokPunct   tok = "PUNCT"
)

var keywords = map[string]bool{
	"func": true, "if": true, "else": true, "for": true, "return": true,
	"var": true, "const": true, "type": true, "struct": true, "interface": true,
	"package": true, "import": true, "switch": true, "case": true, "default": true,
	"break": true, "continue": true, "go": true, "defer": true, "range": true,
	"map": true, "chan": true, "select": true, "def": true, "class": true,
	"function": true, "let": true, "while": true,
}

// structuralShape tokenizes text into a sequence of node types, discarding
// comments, identifiers, and literal values. Returns ok=false for blank
// input, which routes the caller to the textual fallback.
func structuralShape(text string) ([]tok, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, false
	}

	var shape []tok
	runes := []rune(stripComments(text))
	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case unicode.IsLetter(r) || r == '_':
			start := i
			for i < len(runes) && (unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i]) || runes[i] == '_') {
				i++
			}
			word := string(runes[start:i])
			if keywords[word] {
				shape = append(shape, tokKeyword)
			} else {
				shape = append(shape, tokIdent)
			}
		case unicode.IsDigit(r):
			for i < len(runes) && (unicode.IsDigit(runes[i]) || runes[i] == '.') {
				i++
			}
			shape = append(shape, tokNumber)
		case r == '"' || r == '\'' || r == '`':
			quote := r
			i++
			for i < len(runes) && runes[i] != quote {
				if runes[i] == '\\' && i+1 < len(runes) {
					i++
				}
				i++
			}
			i++
			shape = append(shape, tokString)
		default:
			shape = append(shape, tokPunct)
			i++
		}
	}
	return shape, true
}

// stripComments removes // line comments and /* */ block comments so they
// never influence the structural shape.
func stripComments(text string) string {
	var b strings.Builder
	runes := []rune(text)
	i := 0
	for i < len(runes) {
		if i+1 < len(runes) && runes[i] == '/' && runes[i+1] == '/' {
			for i < len(runes) && runes[i] != '\n' {
				i++
			}
			continue
		}
		if i+1 < len(runes) && runes[i] == '/' && runes[i+1] == '*' {
			i += 2
			for i+1 < len(runes) && !(runes[i] == '*' && runes[i+1] == '/') {
				i++
			}
			i += 2
			continue
		}
		b.WriteRune(runes[i])
		i++
	}
	return b.String()
}

func shapesEqual(a, b []tok) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

var markerWords = []string{"TODO", "FIXME"}

func hadMarkers(text string) bool {
	for _, m := range markerWords {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}

var docAnnotationPrefixes = []string{"@param", "@returns", "@throws", "@return"}

func hasDocAnnotations(text string) bool {
	for _, p := range docAnnotationPrefixes {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

func lineCount(text string) int {
	if text == "" {
		return 0
	}
	return strings.Count(text, "\n") + 1
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
