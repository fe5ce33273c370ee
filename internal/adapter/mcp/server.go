// Package mcp exposes the completion gateway to IDE agents as Model Context
// Protocol tools served over SSE.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Strob0t/blackboard/internal/domain/agent"
	"github.com/Strob0t/blackboard/internal/domain/task"
	"github.com/Strob0t/blackboard/internal/service"
)

const (
	sseEndpoint     = "/mcp/sse"
	messageEndpoint = "/mcp/messages"
)

// ServerConfig holds the MCP listener settings.
type ServerConfig struct {
	Addr    string
	Name    string
	Version string
	// BaseURL is the externally reachable URL clients use for the message
	// endpoint. Empty derives it from the request.
	BaseURL string
}

// Gateway is the worker-facing surface the tools call.
type Gateway interface {
	FetchNextTask(role string) (task.Task, bool)
	ReportCompletion(ctx context.Context, taskID, result string) error
	IssueCommand(ctx context.Context, targetRole, description string) (string, error)
	PollTasks(role string) service.PollResult
}

// StateReader serves the read-only resources.
type StateReader interface {
	Tasks() []task.Task
	Agents() []agent.Agent
}

// ServerDeps are the services behind the tools. Nil fields make the
// corresponding tools and resources answer with an error result.
type ServerDeps struct {
	Gateway Gateway
	State   StateReader
}

// Server wraps an mcp-go server and its SSE transport.
type Server struct {
	cfg       ServerConfig
	deps      ServerDeps
	mcpServer *mcpserver.MCPServer
	sse       *mcpserver.SSEServer
	http      *http.Server
}

// NewServer creates a Server with all tools and resources registered.
func NewServer(cfg ServerConfig, deps ServerDeps) *Server {
	s := &Server{
		cfg:  cfg,
		deps: deps,
		mcpServer: mcpserver.NewMCPServer(cfg.Name, cfg.Version,
			mcpserver.WithToolCapabilities(false),
			mcpserver.WithResourceCapabilities(false, false),
			mcpserver.WithRecovery(),
		),
	}
	s.registerTools()
	s.registerResources()

	s.http = &http.Server{ReadHeaderTimeout: 10 * time.Second}
	opts := []mcpserver.SSEOption{
		mcpserver.WithSSEEndpoint(sseEndpoint),
		mcpserver.WithMessageEndpoint(messageEndpoint),
		mcpserver.WithHTTPServer(s.http),
		mcpserver.WithKeepAlive(true),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, mcpserver.WithBaseURL(cfg.BaseURL))
	}
	s.sse = mcpserver.NewSSEServer(s.mcpServer, opts...)
	s.http.Handler = s.sse
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *mcpserver.MCPServer { return s.mcpServer }

// Handler returns the SSE transport so it can be mounted on another router.
func (s *Server) Handler() http.Handler { return s.sse }

// Start listens on cfg.Addr and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("mcp listen %s: %w", s.cfg.Addr, err)
	}
	go func() {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("mcp server error", "error", err)
		}
	}()
	slog.Info("mcp server started", "addr", ln.Addr().String(), "sse", sseEndpoint)
	return nil
}

// Stop closes open SSE sessions and the listener.
func (s *Server) Stop(ctx context.Context) error {
	if err := s.sse.Shutdown(ctx); err != nil {
		return fmt.Errorf("mcp shutdown: %w", err)
	}
	slog.Info("mcp server stopped")
	return nil
}
