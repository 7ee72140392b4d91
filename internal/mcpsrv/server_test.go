package mcpsrv

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	mcpgo "github.com/mark3labs/mcp-go/mcp"

	"github.com/agentgate/agentgate/internal/intent"
	"github.com/agentgate/agentgate/internal/intenttool"
	"github.com/agentgate/agentgate/internal/models"
	"github.com/agentgate/agentgate/internal/pipeline"
	"github.com/agentgate/agentgate/internal/session"
)

// stubExecutor runs next() unconditionally, standing in for the full
// governance Pipeline so these tests exercise the MCP transport layer in
// isolation from hook policy (pipeline_test.go covers hook policy).
type stubExecutor struct {
	blocked *models.HookError
}

func (s *stubExecutor) Execute(ctx context.Context, toolName string, args map[string]any, sess *models.Session, next pipeline.Next) models.Result {
	if s.blocked != nil {
		return models.Result{Success: false, Error: s.blocked}
	}
	hc := &models.HookContext{ToolName: toolName, Args: args, Session: sess}
	value, err := next(ctx, hc)
	if err != nil {
		return models.Result{Success: false, Error: &models.HookError{Type: models.ErrHookError, Message: err.Error()}}
	}
	return models.Result{Success: true, Value: value}
}

func callToolReq(name string, args map[string]any) mcpgo.CallToolRequest {
	return mcpgo.CallToolRequest{
		Params: mcpgo.CallToolParams{Name: name, Arguments: args},
	}
}

func resultText(t *testing.T, result *mcpgo.CallToolResult) string {
	t.Helper()
	var b strings.Builder
	for _, c := range result.Content {
		if tc, ok := c.(mcpgo.TextContent); ok {
			b.WriteString(tc.Text)
		}
	}
	return b.String()
}

func TestSelectIntentToolRoutesThroughPipeline(t *testing.T) {
	sessions := session.New()
	tool := intenttool.New(intent.New("/nonexistent/intents.yaml"), sessions, nil)
	srv := NewServer(&stubExecutor{}, sessions, tool)

	// tool.Select requires a resolvable intent; the store points at a
	// missing file and is never loaded, so the lookup fails, which is
	// exactly the "intent not found" path this
	// test wants to confirm surfaces as a Result, not a transport error.
	_, handler := srv.selectIntentTool()
	result, err := handler(context.Background(), callToolReq("select_intent", map[string]any{"intent_id": "INT-001"}))
	if err != nil {
		t.Fatalf("handler returned transport error: %v", err)
	}

	var res models.Result
	if uerr := json.Unmarshal([]byte(resultText(t, result)), &res); uerr != nil {
		t.Fatalf("result was not valid JSON: %v", uerr)
	}
	if res.Success {
		t.Fatal("expected failure: intent store is empty")
	}
}

func TestWriteToFileToolBlockSurfacesAsData(t *testing.T) {
	sessions := session.New()
	blocked := &models.HookError{Type: models.ErrScopeViolation, Message: "outside scope"}
	srv := NewServer(&stubExecutor{blocked: blocked}, sessions, intenttool.New(nil, sessions, nil))

	_, handler := srv.writeToFileTool()
	result, err := handler(context.Background(), callToolReq("write_to_file", map[string]any{
		"path":    "a.txt",
		"content": "hello",
	}))
	if err != nil {
		t.Fatalf("handler returned transport error: %v", err)
	}

	var res models.Result
	if uerr := json.Unmarshal([]byte(resultText(t, result)), &res); uerr != nil {
		t.Fatalf("result was not valid JSON: %v", uerr)
	}
	if res.Success {
		t.Fatal("expected a blocked result to be surfaced as failed data, not a transport error")
	}
	if res.Error == nil || res.Error.Type != models.ErrScopeViolation {
		t.Fatalf("expected SCOPE_VIOLATION in the result payload, got %+v", res.Error)
	}
}

func TestReadFileToolMissingFileReturnsEmptyContent(t *testing.T) {
	sessions := session.New()
	srv := NewServer(&stubExecutor{}, sessions, intenttool.New(nil, sessions, nil))

	_, handler := srv.readFileTool()
	result, err := handler(context.Background(), callToolReq("read_file", map[string]any{
		"path": "/nonexistent/agentgate-test-file.txt",
	}))
	if err != nil {
		t.Fatalf("handler returned transport error: %v", err)
	}

	var res models.Result
	if uerr := json.Unmarshal([]byte(resultText(t, result)), &res); uerr != nil {
		t.Fatalf("result was not valid JSON: %v", uerr)
	}
	if !res.Success {
		t.Fatalf("expected success with empty content for a missing file, got %+v", res.Error)
	}
	if res.Value != "" {
		t.Fatalf("expected empty content, got %v", res.Value)
	}
}
