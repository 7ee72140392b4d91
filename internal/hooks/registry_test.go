package hooks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agentgate/agentgate/internal/models"
)

func TestPreHooksFor_GlobalRunsBeforeToolSpecific(t *testing.T) {
	r := New()
	var order []string

	r.RegisterPre("write_to_file", func(context.Context, *models.HookContext) { order = append(order, "tool-specific") })
	r.RegisterPre(Wildcard, func(context.Context, *models.HookContext) { order = append(order, "global") })

	for _, h := range r.PreHooksFor("write_to_file") {
		h(context.Background(), &models.HookContext{})
	}
	assert.Equal(t, []string{"global", "tool-specific"}, order)
}

func TestPreHooksFor_PreservesRegistrationOrderWithinGroup(t *testing.T) {
	r := New()
	var order []string

	r.RegisterPre(Wildcard, func(context.Context, *models.HookContext) { order = append(order, "first") })
	r.RegisterPre(Wildcard, func(context.Context, *models.HookContext) { order = append(order, "second") })

	for _, h := range r.PreHooksFor("any_tool") {
		h(context.Background(), &models.HookContext{})
	}
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestPreHooksFor_ToolSpecificDoesNotLeakToOtherTools(t *testing.T) {
	r := New()
	r.RegisterPre("write_to_file", func(context.Context, *models.HookContext) {})
	assert.Len(t, r.PreHooksFor("execute_command"), 0)
	assert.Len(t, r.PreHooksFor("write_to_file"), 1)
}

func TestPostHooksFor_GlobalBeforeToolSpecific(t *testing.T) {
	r := New()
	var order []string

	r.RegisterPost("write_to_file", func(context.Context, *models.HookContext, *models.Result) { order = append(order, "tool-specific") })
	r.RegisterPost(Wildcard, func(context.Context, *models.HookContext, *models.Result) { order = append(order, "global") })

	for _, h := range r.PostHooksFor("write_to_file") {
		h(context.Background(), &models.HookContext{}, &models.Result{})
	}
	assert.Equal(t, []string{"global", "tool-specific"}, order)
}
