// Package bootstrap assembles every process-wide service (the
// declarative intent store, ignore index, lock manager, session
// registry, trace store, lesson log, health collector, approval port,
// and VCS probe) into a wired *pipeline.FallbackPipeline, per spec.md
// 9's "rebrand singletons as process-wide services created once during
// bootstrap and handed to the Pipeline by dependency injection."
//
// Grounded on the teacher's cmd/root.go initDeps/getStore lazy-init
// pattern, generalized from a single lazy store to eagerly constructing
// every governance service up front (unlike a data store, a mis-wired
// hook is a silent policy hole, not a deferred error) — the reaper
// goroutines this starts need to be running before the first tool call.
package bootstrap

import (
	"context"

	"github.com/agentgate/agentgate/internal/approval"
	"github.com/agentgate/agentgate/internal/config"
	"github.com/agentgate/agentgate/internal/health"
	"github.com/agentgate/agentgate/internal/hooks"
	"github.com/agentgate/agentgate/internal/ignoreindex"
	"github.com/agentgate/agentgate/internal/intent"
	"github.com/agentgate/agentgate/internal/intenttool"
	"github.com/agentgate/agentgate/internal/lesson"
	"github.com/agentgate/agentgate/internal/lock"
	"github.com/agentgate/agentgate/internal/mutation"
	"github.com/agentgate/agentgate/internal/pipeline"
	"github.com/agentgate/agentgate/internal/session"
	"github.com/agentgate/agentgate/internal/trace"
	"github.com/agentgate/agentgate/internal/vcs"
)

// App bundles every constructed service plus the wired pipeline, so a
// caller (a cobra command, the MCP server, a test) can reach any one of
// them without re-deriving the wiring.
type App struct {
	Config *config.Config

	Intents   *intent.Store
	Ignore    *ignoreindex.Index
	Locks     *lock.Manager
	Sessions  *session.Registry
	Trace     *trace.Store
	IntentMap *trace.IntentMap
	Lessons   *lesson.Log
	Health    *health.Collector
	Approval  approval.Port
	VCS       *vcs.Probe

	Registry     *hooks.Registry
	SelectIntent *intenttool.Tool
	Pipeline     *pipeline.FallbackPipeline

	stop chan struct{}
}

// New constructs every process-wide service from cfg and wires the
// required hooks into a Pipeline wrapped in a FallbackPipeline, per
// spec.md 4.H/4.I. Call Start to load the intent/ignore stores and begin
// the background reapers; call Stop to halt them.
func New(cfg *config.Config) *App {
	intents := intent.New(cfg.Intent.Path)
	ignore := ignoreindex.New()
	locks := lock.New()
	sessions := session.New()
	traceStore := trace.NewStore(cfg.Trace.JournalPath)
	intentMap := trace.NewIntentMap(cfg.Trace.IntentMapPath)
	lessons := lesson.New(cfg.Lesson.Path)
	healthCollector := health.NewCollector()
	approvalPort := newApprovalPort(cfg.Approval.Mode)
	vcsProbe := vcs.New(cfg.RepoRoot)

	var mutationBackend *mutation.LLMBackend
	if cfg.Mutation.LLMBackend {
		mutationBackend = mutation.NewLLMBackend(cfg.Mutation.AnthropicAPIKey, cfg.Mutation.AnthropicModel)
	}

	registry := hooks.New()
	deps := &pipeline.Deps{
		Intents:         intents,
		Ignore:          ignore,
		Locks:           locks,
		Sessions:        sessions,
		Trace:           traceStore,
		IntentMap:       intentMap,
		Lessons:         lessons,
		Approval:        approvalPort,
		VCS:             vcsProbe,
		Health:          healthCollector,
		MutationBackend: mutationBackend,
	}
	pipeline.Register(registry, deps)

	primary := pipeline.New(registry)
	fb := pipeline.NewFallbackPipeline(primary)

	selectIntentTool := intenttool.New(intents, sessions, traceStore)
	selectIntentTool.EnhancedDefault = cfg.SelectIntent.Enhanced

	return &App{
		Config:       cfg,
		Intents:      intents,
		Ignore:       ignore,
		Locks:        locks,
		Sessions:     sessions,
		Trace:        traceStore,
		IntentMap:    intentMap,
		Lessons:      lessons,
		Health:       healthCollector,
		Approval:     approvalPort,
		VCS:          vcsProbe,
		Registry:     registry,
		SelectIntent: selectIntentTool,
		Pipeline:     fb,
		stop:         make(chan struct{}),
	}
}

// Start loads the declarative intent and ignore stores and begins the
// background reapers (lock eviction, session expiry, fallback health
// checks). Safe to call once per App.
func (a *App) Start(ctx context.Context) error {
	a.Intents.Load()
	if err := a.Ignore.Load(a.Config.Ignore.Path); err != nil {
		return err
	}

	if idx, err := trace.OpenIndex(ctx, a.Config.Trace.IndexPath); err == nil {
		a.Trace.AttachIndex(idx)
		_ = a.Trace.RebuildIndex(ctx)
	}

	a.Locks.StartReaper(a.stop, a.Config.Lock.ReapInterval)
	a.Sessions.StartReaper(a.stop, a.Config.Session.ReapInterval)
	a.Pipeline.StartHealthCheck(a.stop, a.Config.Fallback.HealthCheckInterval, nil)

	return nil
}

// Stop halts every background reaper. Safe to call more than once.
func (a *App) Stop() {
	select {
	case <-a.stop:
	default:
		close(a.stop)
	}
	a.Locks.Stop()
	a.Sessions.Stop()
	a.Pipeline.Stop()
}

// newApprovalPort selects the UserApprovalPort implementation named by
// mode, defaulting to the interactive terminal prompt.
func newApprovalPort(mode string) approval.Port {
	switch mode {
	case "null":
		return approval.NullPort{}
	case "always":
		return approval.AlwaysApprovePort{}
	default:
		return approval.NewTerminalPort()
	}
}
