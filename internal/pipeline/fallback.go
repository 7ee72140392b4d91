package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/agentgate/agentgate/internal/models"
)

// BypassDuration is how long FallbackPipeline stays in bypass mode after a
// catastrophic primary failure, per spec.md 4.I.
const BypassDuration = 60 * time.Second

// FallbackPipeline wraps a Pipeline so a catastrophic failure in the
// primary registry's own machinery — beyond anything Pipeline.Execute's
// own recover already absorbs — cannot wedge the host agent. While in
// bypass mode, hooks are disabled entirely and the wrapped tool runs
// directly.
//
// Grounded on the ticker-plus-ctx.Done() reaper shape shared with
// lock.Manager.StartReaper and session.Registry.StartReaper.
type FallbackPipeline struct {
	primary *Pipeline

	mu          sync.Mutex
	bypassUntil time.Time

	now func() time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewFallbackPipeline wraps primary.
func NewFallbackPipeline(primary *Pipeline) *FallbackPipeline {
	return &FallbackPipeline{primary: primary, now: time.Now, stopCh: make(chan struct{})}
}

// Execute runs through the primary pipeline, or in bypass mode (hooks
// disabled, tool runs directly) if a catastrophic failure is still within
// its 60s window.
func (f *FallbackPipeline) Execute(ctx context.Context, toolName string, args map[string]any, session *models.Session, next Next) models.Result {
	if f.inBypass() {
		return f.runBypassed(ctx, toolName, args, session, next)
	}
	return f.runPrimary(ctx, toolName, args, session, next)
}

func (f *FallbackPipeline) inBypass() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now().Before(f.bypassUntil)
}

func (f *FallbackPipeline) runBypassed(ctx context.Context, toolName string, args map[string]any, session *models.Session, next Next) models.Result {
	hc := &models.HookContext{ToolName: toolName, Args: args, Session: session}
	value, err := next(ctx, hc)
	if err != nil {
		return models.Result{Success: false, Error: &models.HookError{Type: models.ErrHookError, Message: err.Error()}}
	}
	return models.Result{Success: true, Value: value}
}

// runPrimary calls the wrapped Pipeline with an additional recover layer.
// Pipeline.Execute already converts every panic raised while it runs —
// hook panics and registry lookups alike — to HOOK_ERROR, so this recover
// fires only for a panic that escapes Pipeline.Execute itself; that is
// what spec.md 4.I means by "catastrophic."
func (f *FallbackPipeline) runPrimary(ctx context.Context, toolName string, args map[string]any, session *models.Session, next Next) (result models.Result) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("pipeline: catastrophic failure, entering bypass mode", "panic", r)
			f.mu.Lock()
			f.bypassUntil = f.now().Add(BypassDuration)
			f.mu.Unlock()
			result = models.Result{Success: false, Error: &models.HookError{
				Type:    models.ErrHookError,
				Message: fmt.Sprintf("governance pipeline unavailable, running in bypass mode: %v", r),
			}}
		}
	}()
	return f.primary.Execute(ctx, toolName, args, session, next)
}

// StartHealthCheck periodically probes the primary while in bypass mode
// and reinstates it as soon as probe succeeds. probe may be nil, in which
// case bypass mode simply expires after BypassDuration on its own.
func (f *FallbackPipeline) StartHealthCheck(stop <-chan struct{}, interval time.Duration, probe func() error) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-f.stopCh:
				return
			case <-ticker.C:
				f.checkAndReinstate(probe)
			}
		}
	}()
}

func (f *FallbackPipeline) checkAndReinstate(probe func() error) {
	if !f.inBypass() {
		return
	}
	if probe != nil && probe() != nil {
		return
	}
	f.mu.Lock()
	f.bypassUntil = f.now()
	f.mu.Unlock()
	slog.Info("pipeline: health check passed, primary reinstated")
}

// Stop halts any health-check goroutine started without an external stop
// channel.
func (f *FallbackPipeline) Stop() {
	f.stopOnce.Do(func() { close(f.stopCh) })
}
