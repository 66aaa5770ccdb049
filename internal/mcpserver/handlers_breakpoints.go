package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/opendbg/netdbg-mcp/internal/errors"
)

func (s *Server) handleSetBreakpoint(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	file, err := request.RequireString("file")
	if err != nil {
		return errResult(errors.MissingParameter("file", "Provide the absolute source file path."))
	}
	line, err := requiredInt(request, "line")
	if err != nil {
		return errResult(errors.MissingParameter("line", "Provide the 1-based line number."))
	}

	sess, err := s.resolveSession(request)
	if err != nil {
		return errResult(err)
	}

	bp, err := sess.SetBreakpoint(file, line, optionalString(request, "condition"))
	if err != nil {
		return errResult(err)
	}
	return jsonResult(bp)
}

func (s *Server) handleRemoveBreakpoint(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	file, err := request.RequireString("file")
	if err != nil {
		return errResult(errors.MissingParameter("file", "Provide the absolute source file path."))
	}
	line, err := requiredInt(request, "line")
	if err != nil {
		return errResult(errors.MissingParameter("line", "Provide the 1-based line number."))
	}

	sess, err := s.resolveSession(request)
	if err != nil {
		return errResult(err)
	}

	if err := sess.RemoveBreakpoint(file, line); err != nil {
		return errResult(err)
	}
	return jsonResult(map[string]interface{}{"file": file, "line": line, "removed": true})
}

func (s *Server) handleListBreakpoints(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.resolveSession(request)
	if err != nil {
		return errResult(err)
	}
	return jsonResult(sess.ListBreakpoints())
}
