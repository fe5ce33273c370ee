package mcp

import (
	"context"
	"encoding/json"

	mcplib "github.com/mark3labs/mcp-go/mcp"
)

// registerResources registers all MCP resources on the server.
func (s *Server) registerResources() {
	s.mcpServer.AddResource(
		mcplib.NewResource(
			"blackboard://tasks",
			"Task List",
			mcplib.WithResourceDescription("Every task on the blackboard in insertion order"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handleTasksResource,
	)

	s.mcpServer.AddResource(
		mcplib.NewResource(
			"blackboard://agents",
			"Agent List",
			mcplib.WithResourceDescription("Registered agents in registration order"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handleAgentsResource,
	)
}

func (s *Server) handleTasksResource(_ context.Context, req mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.State == nil {
		return jsonResource(req.Params.URI, map[string]string{"error": "state reader not configured"})
	}
	return jsonResource(req.Params.URI, s.deps.State.Tasks())
}

func (s *Server) handleAgentsResource(_ context.Context, req mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.State == nil {
		return jsonResource(req.Params.URI, map[string]string{"error": "state reader not configured"})
	}
	return jsonResource(req.Params.URI, s.deps.State.Agents())
}

func jsonResource(uri string, v any) ([]mcplib.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
