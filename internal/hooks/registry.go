// Package hooks implements HookRegistry (spec.md 4.H): ordered, per-tool
// and global registration of pre-hooks (validators) and post-hooks
// (recorders). The registry only holds ordering; dispatch and failure
// isolation live in the Pipeline that consults it.
package hooks

import (
	"context"

	"github.com/agentgate/agentgate/internal/models"
)

// Wildcard registers a hook as global: it runs for every tool, ahead of
// any tool-specific hook (spec.md 4.H: "global ones run before
// tool-specific").
const Wildcard = "*"

// PreHook inspects or blocks a HookContext before the wrapped tool runs.
type PreHook func(ctx context.Context, hc *models.HookContext)

// PostHook observes a HookContext and the tool's result after it runs.
type PostHook func(ctx context.Context, hc *models.HookContext, result *models.Result)

// Registry holds ordered pre/post hook registrations, global and
// per-tool.
type Registry struct {
	globalPre  []PreHook
	toolPre    map[string][]PreHook
	globalPost []PostHook
	toolPost   map[string][]PostHook
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		toolPre:  map[string][]PreHook{},
		toolPost: map[string][]PostHook{},
	}
}

// RegisterPre registers hook for toolNameOrWildcard, preserving
// registration order. Wildcard registers a global pre-hook.
func (r *Registry) RegisterPre(toolNameOrWildcard string, hook PreHook) {
	if toolNameOrWildcard == Wildcard {
		r.globalPre = append(r.globalPre, hook)
		return
	}
	r.toolPre[toolNameOrWildcard] = append(r.toolPre[toolNameOrWildcard], hook)
}

// RegisterPost registers hook for toolNameOrWildcard, preserving
// registration order. Wildcard registers a global post-hook.
func (r *Registry) RegisterPost(toolNameOrWildcard string, hook PostHook) {
	if toolNameOrWildcard == Wildcard {
		r.globalPost = append(r.globalPost, hook)
		return
	}
	r.toolPost[toolNameOrWildcard] = append(r.toolPost[toolNameOrWildcard], hook)
}

// PreHooksFor returns the ordered pre-hook chain for toolName: every
// global hook first, in registration order, then every hook registered
// specifically for toolName, in registration order.
func (r *Registry) PreHooksFor(toolName string) []PreHook {
	out := make([]PreHook, 0, len(r.globalPre)+len(r.toolPre[toolName]))
	out = append(out, r.globalPre...)
	out = append(out, r.toolPre[toolName]...)
	return out
}

// PostHooksFor returns the ordered post-hook chain for toolName, global
// first then tool-specific, mirroring PreHooksFor.
func (r *Registry) PostHooksFor(toolName string) []PostHook {
	out := make([]PostHook, 0, len(r.globalPost)+len(r.toolPost[toolName]))
	out = append(out, r.globalPost...)
	out = append(out, r.toolPost[toolName]...)
	return out
}
