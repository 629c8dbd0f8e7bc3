package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/automaton"
	"github.com/aretw0/automaton/internal/logging"
	"github.com/aretw0/automaton/pkg/definition"
	"github.com/aretw0/automaton/pkg/runner"
	"github.com/aretw0/automaton/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const graphURI = "automaton://graph"

// Server exposes automaton sessions as MCP tools.
type Server struct {
	sessions   *session.Manager
	definition *definition.Definition
	mcpServer  *server.MCPServer
	logger     *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP server whose sessions start from def.
func NewServer(sessions *session.Manager, def *definition.Definition, opts ...Option) *Server {
	s := &Server{
		sessions:   sessions,
		definition: def,
		mcpServer:  server.NewMCPServer("automaton-mcp", strings.TrimSpace(automaton.Version)),
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves MCP over SSE on port until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(fmt.Sprintf("http://localhost:%d", port)))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())
	httpServer := &http.Server{Addr: addr, Handler: mux}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("start_session",
		mcp.WithDescription("Start a new automaton session in the initial state."),
		mcp.WithString("session_id", mcp.Description("Session ID to use (optional, generated when omitted)")),
	), s.handleStartSession)

	s.mcpServer.AddTool(mcp.NewTool("fire_event",
		mcp.WithDescription("Fire an event on a session. Returns the action produced and the new state."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithString("event", mcp.Required(), mcp.Description("Event label")),
	), s.handleFireEvent)

	s.mcpServer.AddTool(mcp.NewTool("get_state",
		mcp.WithDescription("Get the current state of a session and the events it accepts."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
	), s.handleGetState)

	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Get the automaton definition as an edge list."),
	), s.handleGetGraph)
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(graphURI, "Automaton Graph",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		data, err := s.graphJSON()
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      graphURI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}

// StateResponse is returned by start_session and get_state.
type StateResponse struct {
	SessionID string   `json:"session_id"`
	State     string   `json:"state"`
	Accepts   []string `json:"accepts"`
}

func (s *Server) handleStartSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	a, err := s.definition.Build()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid definition: %v", err)), nil
	}
	id, err := s.sessions.Start(ctx, request.GetString("session_id", ""), a)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("start failed: %v", err)), nil
	}
	return s.stateResult(ctx, id)
}

func (s *Server) handleFireEvent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := request.RequireString("event")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	event, err := runner.SanitizeEvent(raw)
	if err != nil {
		s.logger.Warn("MCP fire_event: event rejected", "err", err, "size", len(raw))
		return mcp.NewToolResultError(fmt.Sprintf("event rejected: %v", err)), nil
	}

	res, err := s.sessions.Fire(ctx, id, event)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) handleGetState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.stateResult(ctx, id)
}

func (s *Server) handleGetGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := s.graphJSON()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) stateResult(ctx context.Context, id string) (*mcp.CallToolResult, error) {
	a, err := s.sessions.Load(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	resp := StateResponse{SessionID: id, Accepts: []string{}}
	if current := a.CurrentState(); current != nil {
		resp.State = current.Name()
		resp.Accepts = current.Events()
	}
	return jsonResult(resp)
}

func (s *Server) graphJSON() ([]byte, error) {
	if s.definition == nil {
		return nil, errors.New("no definition loaded")
	}
	a, err := s.definition.Build()
	if err != nil {
		return nil, fmt.Errorf("invalid definition: %w", err)
	}
	return json.Marshal(map[string]any{
		"name":    s.definition.Name,
		"initial": s.definition.Initial,
		"edges":   a.Edges(),
	})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}
