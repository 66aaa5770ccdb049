// Package mcpserver registers the debug-control tool surface on an MCP
// stdio server and dispatches each tool call into internal/manager and
// internal/session.
package mcpserver

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/opendbg/netdbg-mcp/internal/config"
	"github.com/opendbg/netdbg-mcp/internal/manager"
)

// Server wires the tool surface to a session Manager and the process
// configuration.
type Server struct {
	mcp     *server.MCPServer
	manager *manager.Manager
	config  *config.Config
}

// NewServer builds a Server with every tool the current configuration
// allows registered against mcp.
func NewServer(cfg *config.Config, mgr *manager.Manager) *Server {
	mcpServer := server.NewMCPServer(
		"netdbg-mcp",
		"0.1.0",
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	s := &Server{
		mcp:     mcpServer,
		manager: mgr,
		config:  cfg,
	}
	s.registerTools()
	return s
}

// ServeStdio runs the server over stdin/stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// Close terminates every session and their debuggees.
func (s *Server) Close() {
	s.manager.Shutdown()
}
