// Package pipeline implements Pipeline and FallbackPipeline (spec.md 4.I):
// the single entry point that runs pre-hooks, invokes the wrapped tool,
// and fires post-hooks, with isolated per-hook failure boundaries and a
// catch-all recoverable error payload.
//
// Grounded on other_examples/dotcommander-vybe__hook.go's "a hook must
// never block the host — log and continue" pattern, carried through every
// hook boundary here via recover/log rather than propagated panics.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/agentgate/agentgate/internal/hooks"
	"github.com/agentgate/agentgate/internal/models"
	"github.com/agentgate/agentgate/internal/recovery"
)

// Next invokes the tool itself once every pre-hook has passed. Its Value
// is carried into the Result and into any post-hook that inspects it.
type Next func(ctx context.Context, hc *models.HookContext) (any, error)

// Pipeline is the primary interceptor. Construct once during bootstrap
// with a fully-populated Registry and hand it the same instance every
// caller uses.
type Pipeline struct {
	registry *hooks.Registry
}

// New returns a Pipeline dispatching through registry.
func New(registry *hooks.Registry) *Pipeline {
	return &Pipeline{registry: registry}
}

// Execute runs the full pre-hook / next / post-hook cycle for one tool
// call, per spec.md 4.I's six-step algorithm.
func (p *Pipeline) Execute(ctx context.Context, toolName string, args map[string]any, session *models.Session, next Next) (result models.Result) {
	defer func() {
		// Step 6: the pipeline itself never throws; any exception surviving
		// every inner recover becomes a HOOK_ERROR payload.
		if r := recover(); r != nil {
			slog.Error("pipeline: unrecovered failure", "tool", toolName, "panic", r)
			result = models.Result{Success: false, Error: &models.HookError{
				Type:    models.ErrHookError,
				Message: fmt.Sprintf("pipeline failure: %v", r),
			}}
		}
	}()

	hc := &models.HookContext{ToolName: toolName, Args: args, Session: session}

	for _, pre := range p.registry.PreHooksFor(toolName) {
		runPreIsolated(ctx, pre, hc)
		if hc.Blocked {
			break
		}
	}

	if hc.Blocked {
		return blockedResult(hc)
	}

	value, err := next(ctx, hc)
	result = models.Result{Success: err == nil, Value: value}
	if err != nil {
		var hookErr *models.HookError
		if errors.As(err, &hookErr) {
			result.Error = hookErr
		} else {
			result.Error = &models.HookError{Type: models.ErrHookError, Message: err.Error()}
		}
	}

	for _, post := range p.registry.PostHooksFor(toolName) {
		runPostIsolated(ctx, post, hc, &result)
	}

	return result
}

// runPreIsolated invokes a pre-hook inside its own failure boundary: a
// hook that panics is logged and suppressed, and the loop continues with
// hc unmodified by that hook (fail-open per hook, spec.md 4.I step 2).
func runPreIsolated(ctx context.Context, hook hooks.PreHook, hc *models.HookContext) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("pipeline: pre-hook panicked, continuing", "panic", r)
		}
	}()
	hook(ctx, hc)
}

// runPostIsolated mirrors runPreIsolated for post-hooks. Post-hook
// failures never alter result.
func runPostIsolated(ctx context.Context, hook hooks.PostHook, hc *models.HookContext, result *models.Result) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("pipeline: post-hook panicked, continuing", "panic", r)
		}
	}()
	hook(ctx, hc, result)
}

// blockedResult builds the terminal Result for a blocked HookContext,
// attaching the serialized RecoveryFormatter payload as llm_error per
// spec.md 3's HookContext.llm_error field.
func blockedResult(hc *models.HookContext) models.Result {
	queuePosition := 0
	if hc.Error != nil && hc.Error.Type == models.ErrFileLocked {
		if pos, ok := hc.Error.Details.(int); ok {
			queuePosition = pos
		}
	}

	payload := recovery.Format(*hc.Error, queuePosition)
	hc.LLMError = toMap(payload)

	return models.Result{Success: false, Error: hc.Error, LLMError: hc.LLMError}
}

// toMap round-trips payload through JSON to the map[string]any shape
// HookContext.llm_error declares.
func toMap(payload recovery.Payload) map[string]any {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}
	return m
}
