package mcp

import (
	"context"
	"errors"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Strob0t/blackboard/internal/domain"
)

// Tool result texts. IDE agents parse these, so they must not change.
const (
	textNoActiveTask     = "No active tasks found for your role."
	textCompletionOK     = "Completion reported successfully."
	textCommandFormat    = "Command registered with ID: %s"
	textFetchFormat      = "TASK_ID: %s\nDESCRIPTION: %s"
	textPollFoundFormat  = "FOUND: %d tasks."
	textPollNothingFound = "NO_TASKS"
)

// registerTools registers all MCP tools on the server.
func (s *Server) registerTools() {
	s.mcpServer.AddTools(
		s.fetchNextTaskTool(),
		s.submitTaskCompletionTool(),
		s.sendCommandTool(),
		s.pollTasksTool(),
	)
}

func (s *Server) fetchNextTaskTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("fetch_next_task",
		mcplib.WithDescription("Fetches the next available task assigned to you."),
		mcplib.WithString("role",
			mcplib.Required(),
			mcplib.Description("The role of the agent (e.g., Coder, Reviewer)"),
		),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleFetchNextTask}
}

func (s *Server) submitTaskCompletionTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("submit_task_completion",
		mcplib.WithDescription("Reports completion of a task."),
		mcplib.WithString("task_id",
			mcplib.Required(),
			mcplib.Description("The ID of the task"),
		),
		mcplib.WithString("result",
			mcplib.Required(),
			mcplib.Description("The outcome or summary of the work"),
		),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleSubmitTaskCompletion}
}

func (s *Server) sendCommandTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("send_command",
		mcplib.WithDescription("Allows an agent to assign a task to another agent."),
		mcplib.WithString("target_role",
			mcplib.Required(),
			mcplib.Description("The role to receive the task"),
		),
		mcplib.WithString("description",
			mcplib.Required(),
			mcplib.Description("Details of the command"),
		),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleSendCommand}
}

func (s *Server) pollTasksTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("poll_tasks",
		mcplib.WithDescription("Checks for available tasks for a specific role."),
		mcplib.WithString("role",
			mcplib.Required(),
			mcplib.Description("The role to poll for"),
		),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handlePollTasks}
}

func (s *Server) handleFetchNextTask(_ context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Gateway == nil {
		return mcplib.NewToolResultError("gateway not configured"), nil
	}
	role, err := req.RequireString("role")
	if err != nil {
		return mcplib.NewToolResultError(err.Error()), nil
	}
	t, ok := s.deps.Gateway.FetchNextTask(role)
	if !ok {
		return mcplib.NewToolResultText(textNoActiveTask), nil
	}
	return mcplib.NewToolResultText(fmt.Sprintf(textFetchFormat, t.ID, t.Description)), nil
}

func (s *Server) handleSubmitTaskCompletion(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Gateway == nil {
		return mcplib.NewToolResultError("gateway not configured"), nil
	}
	taskID, err := req.RequireString("task_id")
	if err != nil {
		return mcplib.NewToolResultError(err.Error()), nil
	}
	result := req.GetString("result", "")

	if err := s.deps.Gateway.ReportCompletion(ctx, taskID, result); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return mcplib.NewToolResultError(fmt.Sprintf("Task %s not found.", taskID)), nil
		}
		return mcplib.NewToolResultErrorFromErr("failed to report completion", err), nil
	}
	return mcplib.NewToolResultText(textCompletionOK), nil
}

func (s *Server) handleSendCommand(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Gateway == nil {
		return mcplib.NewToolResultError("gateway not configured"), nil
	}
	target, err := req.RequireString("target_role")
	if err != nil {
		return mcplib.NewToolResultError(err.Error()), nil
	}
	desc, err := req.RequireString("description")
	if err != nil {
		return mcplib.NewToolResultError(err.Error()), nil
	}

	id, err := s.deps.Gateway.IssueCommand(ctx, target, desc)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to register command", err), nil
	}
	return mcplib.NewToolResultText(fmt.Sprintf(textCommandFormat, id)), nil
}

func (s *Server) handlePollTasks(_ context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Gateway == nil {
		return mcplib.NewToolResultError("gateway not configured"), nil
	}
	role, err := req.RequireString("role")
	if err != nil {
		return mcplib.NewToolResultError(err.Error()), nil
	}

	res := s.deps.Gateway.PollTasks(role)
	if res.Count == 0 {
		return mcplib.NewToolResultText(textPollNothingFound), nil
	}
	return mcplib.NewToolResultStructured(res.FirstTask, fmt.Sprintf(textPollFoundFormat, res.Count)), nil
}
