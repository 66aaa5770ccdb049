package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/opendbg/netdbg-mcp/internal/errors"
)

func (s *Server) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessions := s.manager.List()
	out := make([]map[string]interface{}, 0, len(sessions))
	for _, sess := range sessions {
		st := sess.Status()
		out = append(out, map[string]interface{}{
			"sessionId": sess.ID,
			"isDefault": sess.ID == s.manager.DefaultID(),
			"status":    st,
		})
	}
	return jsonResult(map[string]interface{}{"sessions": out})
}

func (s *Server) handleSelectSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("sessionId")
	if err != nil {
		return errResult(errors.MissingParameter("sessionId", "Provide the session id to make default."))
	}
	if err := s.manager.SelectDefault(id); err != nil {
		return errResult(err)
	}
	return jsonResult(map[string]interface{}{"defaultSessionId": id})
}

func (s *Server) handleTerminateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("sessionId")
	if err != nil {
		return errResult(errors.MissingParameter("sessionId", "Provide the session id to terminate."))
	}
	terminateDebuggee := request.GetBool("terminateDebuggee", false)
	if err := s.manager.Remove(id, terminateDebuggee); err != nil {
		return errResult(err)
	}
	return jsonResult(map[string]interface{}{"sessionId": id, "terminated": true})
}
