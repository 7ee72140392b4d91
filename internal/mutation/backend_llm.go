package mutation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/agentgate/agentgate/internal/models"
)

// LLMBackend is an optional, config-gated alternative to the structural and
// textual classifiers: an LLM judges the mutation class directly. It is
// never consulted unless a caller explicitly constructs one and wires it in
// — the default Classify path never touches the network, and this backend
// never decides policy (approval/blocking), only the trace-record label.
//
// Grounded on internal/llm/llm.go's Client/prompt-building/fenced-JSON-
// stripping shape.
type LLMBackend struct {
	api   *anthropic.Client
	model anthropic.Model
}

// NewLLMBackend constructs a backend using apiKey (empty defers to the
// SDK's default credential resolution) and model.
func NewLLMBackend(apiKey, model string) *LLMBackend {
	opts := []option.RequestOption{}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	client := anthropic.NewClient(opts...)
	return &LLMBackend{api: &client, model: anthropic.Model(model)}
}

type llmVerdict struct {
	Class      string  `json:"class"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

func buildClassifyPrompt(original, updated string) (system, user string) {
	system = `You classify a code change into exactly one of these mutation classes:
- "AST_REFACTOR": the change preserves structure/behavior (renames, formatting, reordering)
- "INTENT_EVOLUTION": the change alters behavior or adds/removes functionality
- "BUG_FIX": the change corrects a defect, often removing a TODO/FIXME
- "PERF_IMPROVEMENT": the change only improves performance without changing observable behavior
- "DOCS_UPDATE": the change only affects documentation/comments/annotations

Return ONLY a JSON object: {"class": "...", "confidence": 0.0-1.0, "reason": "one sentence"}`

	var sb strings.Builder
	sb.WriteString("Original:\n")
	sb.WriteString(original)
	sb.WriteString("\n\nUpdated:\n")
	sb.WriteString(updated)
	user = sb.String()
	return
}

// Classify asks the LLM to classify the change and maps its verdict onto
// the closed taxonomy. An unrecognized class name or malformed response is
// an error, not a silent fallback: callers should fall back to Classify
// themselves if this is not acceptable, since this backend is never
// trusted to make a policy decision on its own.
func (b *LLMBackend) Classify(ctx context.Context, original, updated string) (Result, error) {
	systemPrompt, userPrompt := buildClassifyPrompt(original, updated)

	msg, err := b.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     b.model,
		MaxTokens: 512,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		return Result{}, fmt.Errorf("anthropic API call: %w", err)
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}
	if text == "" {
		return Result{}, fmt.Errorf("no text content in API response")
	}

	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		lines := strings.SplitN(text, "\n", 2)
		if len(lines) > 1 {
			text = lines[1]
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}

	var v llmVerdict
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return Result{}, fmt.Errorf("parse LLM response as JSON: %w\nraw response: %s", err, text)
	}

	class := models.MutationClass(v.Class)
	switch class {
	case models.MutationASTRefactor, models.MutationIntentEvolution,
		models.MutationBugFix, models.MutationPerfImprovement, models.MutationDocsUpdate:
	default:
		return Result{}, fmt.Errorf("unrecognized mutation class from LLM: %q", v.Class)
	}

	var changes []string
	if v.Reason != "" {
		changes = []string{v.Reason}
	}
	return Result{Class: class, Confidence: v.Confidence, Changes: changes}, nil
}
