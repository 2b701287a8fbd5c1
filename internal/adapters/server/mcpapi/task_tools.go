package mcpapi

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/taskopia/taskopia/internal/adapters/server/common"
	"github.com/taskopia/taskopia/internal/app"
)

// taskArgs mirrors the task dialog fields.
type taskArgs struct {
	TaskID      string `json:"task_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
	Deadline    string `json:"deadline"`
	AssigneeID  string `json:"assignee_id"`
	ActorID     string `json:"actor_id"`
}

func (a taskArgs) request() common.TaskRequest {
	return common.TaskRequest{
		Title:       a.Title,
		Description: a.Description,
		Status:      a.Status,
		Priority:    a.Priority,
		Deadline:    a.Deadline,
		AssigneeID:  a.AssigneeID,
	}
}

// withActor attributes the mutation to actorID when one is given.
func withActor(ctx context.Context, actorID string) context.Context {
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return ctx
	}
	return app.WithActor(ctx, actorID)
}

func taskFieldOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("description", mcp.Required(), mcp.Description("Markdown description, at least 5 characters")),
		mcp.WithString("status", mcp.Required(), mcp.Description("Board column"), mcp.Enum("To Do", "In Progress", "Review", "Completed")),
		mcp.WithString("priority", mcp.Required(), mcp.Description("Priority"), mcp.Enum("Low", "Medium", "High")),
		mcp.WithString("deadline", mcp.Required(), mcp.Description("Deadline as yyyy-MM-dd")),
		mcp.WithString("assignee_id", mcp.Required(), mcp.Description("Roster user id")),
		mcp.WithString("actor_id", mcp.Description("User id recorded on the change event")),
	}
}

// registerTaskTools registers create/update/delete/move task tools.
func registerTaskTools(srv *mcpserver.MCPServer, board common.BoardService) {
	createOpts := append([]mcp.ToolOption{
		mcp.WithDescription("Create one task and append it to its status column."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Task title, at least 2 characters")),
	}, taskFieldOptions()...)
	srv.AddTool(
		mcp.NewTool("taskopia.create_task", createOpts...),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var args taskArgs
			if err := req.BindArguments(&args); err != nil {
				return invalidRequestToolResult(err), nil
			}
			task, err := board.CreateTask(withActor(ctx, args.ActorID), args.request())
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("create_task", task)
		},
	)

	updateOpts := append([]mcp.ToolOption{
		mcp.WithDescription("Replace the editable fields of one task. A status change moves it to the end of the new column."),
		mcp.WithString("task_id", mcp.Required(), mcp.Description("Task identifier")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Task title, at least 2 characters")),
	}, taskFieldOptions()...)
	srv.AddTool(
		mcp.NewTool("taskopia.update_task", updateOpts...),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var args taskArgs
			if err := req.BindArguments(&args); err != nil {
				return invalidRequestToolResult(err), nil
			}
			if strings.TrimSpace(args.TaskID) == "" {
				return mcp.NewToolResultError(`invalid_request: required argument "task_id" not found`), nil
			}
			task, err := board.UpdateTask(withActor(ctx, args.ActorID), args.TaskID, args.request())
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("update_task", task)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"taskopia.delete_task",
			mcp.WithDescription("Delete one task and remove it from its column."),
			mcp.WithString("task_id", mcp.Required(), mcp.Description("Task identifier")),
			mcp.WithString("actor_id", mcp.Description("User id recorded on the change event")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			taskID, err := req.RequireString("task_id")
			if err != nil {
				return invalidRequestToolResult(err), nil
			}
			if err := board.DeleteTask(withActor(ctx, req.GetString("actor_id", "")), taskID); err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("delete_task", map[string]any{"deleted": taskID})
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"taskopia.move_task",
			mcp.WithDescription("Move one task between or within columns. Moving across columns sets its status to the destination."),
			mcp.WithString("task_id", mcp.Required(), mcp.Description("Task identifier")),
			mcp.WithString("from", mcp.Required(), mcp.Description("Source column")),
			mcp.WithString("to", mcp.Required(), mcp.Description("Destination column")),
			mcp.WithNumber("index", mcp.Description("Destination index; clamped to the column length")),
			mcp.WithString("actor_id", mcp.Description("User id recorded on the change event")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var args struct {
				TaskID  string `json:"task_id"`
				From    string `json:"from"`
				To      string `json:"to"`
				Index   int    `json:"index"`
				ActorID string `json:"actor_id"`
			}
			if err := req.BindArguments(&args); err != nil {
				return invalidRequestToolResult(err), nil
			}
			for _, field := range []struct{ name, value string }{
				{"task_id", args.TaskID},
				{"from", args.From},
				{"to", args.To},
			} {
				if strings.TrimSpace(field.value) == "" {
					return mcp.NewToolResultError(`invalid_request: required argument "` + field.name + `" not found`), nil
				}
			}
			task, err := board.MoveTask(withActor(ctx, args.ActorID), common.MoveTaskRequest{
				TaskID: args.TaskID,
				From:   args.From,
				To:     args.To,
				Index:  args.Index,
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("move_task", task)
		},
	)
}
