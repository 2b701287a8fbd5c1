// Package mcpapi provides a stateless MCP streamable-HTTP adapter.
package mcpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/taskopia/taskopia/internal/adapters/server/common"
	"github.com/taskopia/taskopia/internal/app"
)

// maxActivityLimit caps one activity page requested over MCP.
const maxActivityLimit = 200

// Config captures MCP transport configuration.
type Config struct {
	ServerName    string
	ServerVersion string
	EndpointPath  string
}

// Handler wraps one stateless MCP streamable HTTP handler.
type Handler struct {
	httpHandler http.Handler
}

// NewHandler builds one stateless MCP adapter exposing the board tools.
func NewHandler(cfg Config, board common.BoardService) (*Handler, error) {
	if board == nil {
		return nil, fmt.Errorf("board service is required")
	}
	cfg = normalizeConfig(cfg)

	mcpSrv := mcpserver.NewMCPServer(
		cfg.ServerName,
		cfg.ServerVersion,
		mcpserver.WithToolCapabilities(false),
	)
	registerReadTools(mcpSrv, board)
	registerTaskTools(mcpSrv, board)

	streamable := mcpserver.NewStreamableHTTPServer(
		mcpSrv,
		mcpserver.WithEndpointPath(cfg.EndpointPath),
		mcpserver.WithStateLess(true),
	)
	return &Handler{httpHandler: streamable}, nil
}

// ServeHTTP handles one MCP streamable HTTP request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.httpHandler == nil {
		http.Error(w, "mcp handler unavailable", http.StatusServiceUnavailable)
		return
	}
	h.httpHandler.ServeHTTP(w, r)
}

// normalizeConfig applies deterministic defaults to MCP adapter config.
func normalizeConfig(cfg Config) Config {
	cfg.ServerName = strings.TrimSpace(cfg.ServerName)
	if cfg.ServerName == "" {
		cfg.ServerName = "taskopia"
	}
	cfg.ServerVersion = strings.TrimSpace(cfg.ServerVersion)
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = "dev"
	}
	cfg.EndpointPath = strings.TrimSpace(cfg.EndpointPath)
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/mcp"
	}
	cfg.EndpointPath = "/" + strings.Trim(cfg.EndpointPath, "/")
	return cfg
}

// registerReadTools registers the read-only board tools.
func registerReadTools(srv *mcpserver.MCPServer, board common.BoardService) {
	srv.AddTool(
		mcp.NewTool(
			"taskopia.get_board",
			mcp.WithDescription("Return the board columns with their visible tasks, overall progress and the roster."),
			mcp.WithString("search", mcp.Description("Case-insensitive substring of title or description")),
			mcp.WithString("priority", mcp.Description("Priority filter"), mcp.Enum("all", "Low", "Medium", "High")),
			mcp.WithString("assignee_id", mcp.Description("Assignee user id or all")),
			mcp.WithString("status", mcp.Description("Status filter or all")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			out, err := board.Board(ctx, common.Filters{
				Search:     req.GetString("search", ""),
				Priority:   req.GetString("priority", ""),
				AssigneeID: req.GetString("assignee_id", ""),
				Status:     req.GetString("status", ""),
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("get_board", out)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"taskopia.get_task",
			mcp.WithDescription("Return one task with its assignee, deadline state and progress value."),
			mcp.WithString("task_id", mcp.Required(), mcp.Description("Task identifier")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			taskID, err := req.RequireString("task_id")
			if err != nil {
				return invalidRequestToolResult(err), nil
			}
			out, err := board.Task(ctx, taskID)
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("get_task", out)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"taskopia.get_progress",
			mcp.WithDescription("Return total, completed, pending and percentage over all tasks."),
		),
		func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			out, err := board.Progress(ctx)
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("get_progress", out)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"taskopia.list_users",
			mcp.WithDescription("List the team roster."),
		),
		func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			users, err := board.Users(ctx)
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("list_users", map[string]any{"users": users})
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"taskopia.list_activity",
			mcp.WithDescription("List recent board change events, newest first."),
			mcp.WithNumber("limit", mcp.Description("Maximum events to return (1-200, default 50)")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			limit := req.GetInt("limit", 50)
			if limit <= 0 || limit > maxActivityLimit {
				return mcp.NewToolResultError(fmt.Sprintf("invalid_request: limit must be between 1 and %d", maxActivityLimit)), nil
			}
			events, err := board.Activity(ctx, limit)
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("list_activity", map[string]any{"events": events})
		},
	)
}

// jsonResult encodes one structured tool result.
func jsonResult(tool string, payload any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s result: %w", tool, err)
	}
	return result, nil
}

// invalidRequestToolResult reports malformed tool arguments.
func invalidRequestToolResult(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError("invalid_request: " + err.Error())
}

// toolResultFromError maps service errors into MCP-visible tool errors.
func toolResultFromError(err error) *mcp.CallToolResult {
	switch {
	case err == nil:
		return mcp.NewToolResultError("unknown error")
	case errors.Is(err, common.ErrInvalidRequest):
		return mcp.NewToolResultError("invalid_request: " + app.UserMessage(err))
	case errors.Is(err, common.ErrNotFound):
		return mcp.NewToolResultError("not_found: " + err.Error())
	case errors.Is(err, common.ErrConflict):
		return mcp.NewToolResultError("conflict: " + app.UserMessage(err))
	case errors.Is(err, common.ErrUnauthorized):
		return mcp.NewToolResultError("unauthorized: " + app.UserMessage(err))
	default:
		return mcp.NewToolResultError("internal_error: " + err.Error())
	}
}
