package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/opendbg/netdbg-mcp/internal/errors"
)

func (s *Server) handleStackTrace(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.resolveSession(request)
	if err != nil {
		return errResult(err)
	}
	depth := optionalInt(request, "depth", 20)
	frames, total, err := sess.StackTrace(optionalInt(request, "threadId", 0), 0, depth)
	if err != nil {
		return errResult(err)
	}
	return jsonResult(map[string]interface{}{"frames": frames, "totalFrames": total})
}

func (s *Server) handleScopes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.resolveSession(request)
	if err != nil {
		return errResult(err)
	}
	frameID, err := requiredInt(request, "frameId")
	if err != nil {
		return errResult(errors.MissingParameter("frameId", "Provide a stack frame id from stack_trace."))
	}
	scopes, err := sess.Scopes(frameID)
	if err != nil {
		return errResult(err)
	}
	return jsonResult(scopes)
}

func (s *Server) handleVariables(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.resolveSession(request)
	if err != nil {
		return errResult(err)
	}
	ref, err := requiredInt(request, "variablesReference")
	if err != nil {
		return errResult(errors.MissingParameter("variablesReference", "Provide a reference from scopes or a parent variable."))
	}
	vars, err := sess.Variables(ref)
	if err != nil {
		return errResult(err)
	}
	return jsonResult(vars)
}

func (s *Server) handleEvaluate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.resolveSession(request)
	if err != nil {
		return errResult(err)
	}
	expr, err := request.RequireString("expression")
	if err != nil {
		return errResult(errors.MissingParameter("expression", "Provide the C# expression to evaluate."))
	}
	result, err := sess.Evaluate(expr, optionalInt(request, "frameId", 0))
	if err != nil {
		return errResult(errors.EvaluationFailed(expr, err))
	}
	return jsonResult(result)
}

func (s *Server) handleThreads(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.resolveSession(request)
	if err != nil {
		return errResult(err)
	}
	threads, err := sess.Threads()
	if err != nil {
		return errResult(err)
	}
	return jsonResult(threads)
}

func (s *Server) handleOutput(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.resolveSession(request)
	if err != nil {
		return errResult(err)
	}
	lines, total := sess.Output()
	limit := optionalInt(request, "lines", 20)
	if limit > 0 && len(lines) > limit {
		lines = lines[len(lines)-limit:]
	}
	return jsonResult(map[string]interface{}{"lines": lines, "totalLineCount": total})
}

func (s *Server) handleStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.resolveSession(request)
	if err != nil {
		return errResult(err)
	}
	return jsonResult(sess.Status())
}
