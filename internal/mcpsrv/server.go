// Package mcpsrv exposes the governance pipeline as an MCP tool server:
// the transport an agent host actually calls through. select_intent,
// write_to_file, execute_command, and read_file are each registered as
// MCP tools whose handlers route through the same governance Executor
// (the bootstrap's *pipeline.FallbackPipeline when served by
// `agentgate serve`), so an MCP-connected agent is governed identically
// to any other caller.
//
// Grounded directly on internal/mcp/server.go's Server/mcp.NewTool/
// AddTool/ToolHandlerFunc shape.
package mcpsrv

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/agentgate/agentgate/internal/intenttool"
	"github.com/agentgate/agentgate/internal/models"
	"github.com/agentgate/agentgate/internal/pipeline"
	"github.com/agentgate/agentgate/internal/session"
)

// Executor is the subset of *pipeline.FallbackPipeline (or *pipeline.Pipeline)
// the MCP handlers depend on, so tests can substitute a stub.
type Executor interface {
	Execute(ctx context.Context, toolName string, args map[string]any, sess *models.Session, next pipeline.Next) models.Result
}

// Server wraps the governance pipeline and exposes it as MCP tools. One
// Server instance serves one agent host process over stdio (spec.md 1's
// "the agent/LLM itself" is the out-of-scope collaborator on the other
// end of the pipe), so it holds a single governance Session for the
// lifetime of the connection rather than multiplexing several — a host
// running several agents concurrently runs several agentgate server
// processes, one SessionRegistry entry each.
type Server struct {
	pipeline Executor
	sessions *session.Registry
	intents  *intenttool.Tool
	session  *models.Session
}

// NewServer returns a Server dispatching every tool call through p,
// resolving sessions via sessions, and handling select_intent via intents.
func NewServer(p Executor, sessions *session.Registry, intents *intenttool.Tool) *Server {
	return &Server{pipeline: p, sessions: sessions, intents: intents, session: sessions.Create()}
}

// MCPServer returns a configured mcp-go server with every governed tool
// registered.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer("agentgate", "1.0.0", server.WithToolCapabilities(true))

	srv.AddTool(s.selectIntentTool())
	srv.AddTool(s.writeToFileTool())
	srv.AddTool(s.executeCommandTool())
	srv.AddTool(s.readFileTool())

	return srv
}

// ServeStdio starts the stdio transport, blocking until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	srv := s.MCPServer()
	stdioServer := server.NewStdioServer(srv)
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

// sessionFor returns the connection's governance Session, refreshing its
// last-active timestamp and re-creating it transparently if the
// SessionRegistry reaper expired it from underneath a long-lived
// connection.
func (s *Server) sessionFor(context.Context) *models.Session {
	if got, ok := s.sessions.Get(s.session.ID); ok {
		return got
	}
	s.session = s.sessions.Create()
	return s.session
}

// select_intent
func (s *Server) selectIntentTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("select_intent",
		mcp.WithDescription("Declare the intent this session is working under. Required before any write_to_file or execute_command call. Returns a curated summary of the intent: name, status, up to 3 constraints, and its primary scope focus."),
		mcp.WithString("intent_id", mcp.Required(), mcp.Description("The declared intent's id, e.g. INT-001")),
		mcp.WithString("enhanced", mcp.Description("\"true\" to return the full constraint list plus recent trace activity instead of the curated default")),
	)
	return tool, s.handleSelectIntent
}

func (s *Server) handleSelectIntent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess := s.sessionFor(ctx)
	enhanced, _ := strconv.ParseBool(request.GetString("enhanced", "false"))
	args := map[string]any{
		"intent_id": request.GetString("intent_id", ""),
		"enhanced":  enhanced,
	}

	result := s.pipeline.Execute(ctx, "select_intent", args, sess, func(ctx context.Context, hc *models.HookContext) (any, error) {
		return s.intents.Select(ctx, hc.Args, sess)
	})
	return toolResult(result)
}

// write_to_file
func (s *Server) writeToFileTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("write_to_file",
		mcp.WithDescription("Write content to a file, governed by the active intent's owned scope, optimistic locking, and the ignore index."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path relative to the repository root")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Full file content to write")),
	)
	return tool, s.handleWriteToFile
}

func (s *Server) handleWriteToFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess := s.sessionFor(ctx)
	args := map[string]any{
		"path":    request.GetString("path", ""),
		"content": request.GetString("content", ""),
	}

	result := s.pipeline.Execute(ctx, "write_to_file", args, sess, func(ctx context.Context, hc *models.HookContext) (any, error) {
		path, _ := hc.Args["path"].(string)
		content, _ := hc.Args["content"].(string)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", path, err)
		}
		return "written", nil
	})
	return toolResult(result)
}

// execute_command
func (s *Server) executeCommandTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("execute_command",
		mcp.WithDescription("Run a shell command, governed by the command classifier and, for destructive commands, an approval prompt."),
		mcp.WithString("command", mcp.Required(), mcp.Description("The shell command to run")),
	)
	return tool, s.handleExecuteCommand
}

func (s *Server) handleExecuteCommand(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess := s.sessionFor(ctx)
	args := map[string]any{"command": request.GetString("command", "")}

	result := s.pipeline.Execute(ctx, "execute_command", args, sess, func(ctx context.Context, hc *models.HookContext) (any, error) {
		// Actual command execution is the out-of-scope collaborator
		// (spec.md 1): the pipeline governs the decision to run it, not
		// the subprocess plumbing itself.
		return "accepted", nil
	})
	return toolResult(result)
}

// read_file
func (s *Server) readFileTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("read_file",
		mcp.WithDescription("Read a file's content, registering its fingerprint as this session's read-version for later optimistic-lock validation."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path relative to the repository root")),
	)
	return tool, s.handleReadFile
}

func (s *Server) handleReadFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess := s.sessionFor(ctx)
	args := map[string]any{"path": request.GetString("path", "")}

	result := s.pipeline.Execute(ctx, "read_file", args, sess, func(ctx context.Context, hc *models.HookContext) (any, error) {
		path, _ := hc.Args["path"].(string)
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			return "", nil
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		return string(data), nil
	})
	return toolResult(result)
}

// toolResult renders a governance Result as an mcp.CallToolResult. A
// blocked/failed Result is never surfaced as an MCP protocol error: the
// agent needs the structured error payload as data it can read and act
// on, per spec.md 7's "the agent sees a JSON payload" contract.
func toolResult(result models.Result) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
