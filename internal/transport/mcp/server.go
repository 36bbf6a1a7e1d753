package mcp

import (
	"context"
	"log/slog"
	"net/http"

	mcpserver "github.com/mark3labs/mcp-go/server"

	groupchatsvc "github.com/alanyang/role-master/internal/service/groupchat"
	rolesvc "github.com/alanyang/role-master/internal/service/role"
)

const (
	serverName    = "ai-role-master"
	serverVersion = "1.0.0"
)

// Server wraps the mark3labs/mcp-go MCPServer and its StreamableHTTPServer.
// Tools live in tools.go, prompts in prompts.go, session tracking in registry.go.
type Server struct {
	httpSrv *mcpserver.StreamableHTTPServer
	reg     *SessionRegistry
}

// New creates the MCP transport server. reg is built first by the wire so the
// notifier can hold it as a sink before the server exists.
func New(reg *SessionRegistry, roleSvc *rolesvc.Service, groupSvc *groupchatsvc.Service) *Server {
	s := &Server{reg: reg}

	hooks := &mcpserver.Hooks{}
	hooks.OnRegisterSession = append(hooks.OnRegisterSession, s.onSessionOpen)
	hooks.OnUnregisterSession = append(hooks.OnUnregisterSession, s.onSessionClose)

	mcpSrv := mcpserver.NewMCPServer(
		serverName,
		serverVersion,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithPromptCapabilities(true),
		mcpserver.WithHooks(hooks),
	)
	reg.SetMCPServer(mcpSrv)

	RegisterTools(mcpSrv, roleSvc, groupSvc)
	RegisterPrompts(mcpSrv, roleSvc, groupSvc)

	s.httpSrv = mcpserver.NewStreamableHTTPServer(mcpSrv)
	return s
}

// Handler returns the http.Handler serving the streamable MCP endpoint.
func (s *Server) Handler() http.Handler {
	return s.httpSrv
}

func (s *Server) Registry() *SessionRegistry {
	return s.reg
}

func (s *Server) onSessionOpen(ctx context.Context, session mcpserver.ClientSession) {
	s.reg.Register(session.SessionID())
	slog.InfoContext(ctx, "mcp: session opened", "session_id", session.SessionID())
}

func (s *Server) onSessionClose(ctx context.Context, session mcpserver.ClientSession) {
	if s.reg.Unregister(session.SessionID()) {
		slog.InfoContext(ctx, "mcp: session closed", "session_id", session.SessionID())
	}
}
