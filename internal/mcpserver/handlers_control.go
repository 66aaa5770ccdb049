package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) handleContinue(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.resolveSession(request)
	if err != nil {
		return errResult(err)
	}
	threadID := optionalInt(request, "threadId", 0)
	allThreads, err := sess.Continue(threadID)
	if err != nil {
		return errResult(err)
	}
	return jsonResult(map[string]interface{}{"allThreadsContinued": allThreads})
}

func (s *Server) handlePause(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.resolveSession(request)
	if err != nil {
		return errResult(err)
	}
	if err := sess.Pause(optionalInt(request, "threadId", 0)); err != nil {
		return errResult(err)
	}
	return jsonResult(map[string]interface{}{"paused": true})
}

func (s *Server) handleStepOver(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.resolveSession(request)
	if err != nil {
		return errResult(err)
	}
	if err := sess.StepOver(optionalInt(request, "threadId", 0)); err != nil {
		return errResult(err)
	}
	return jsonResult(map[string]interface{}{"stepped": "over"})
}

func (s *Server) handleStepInto(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.resolveSession(request)
	if err != nil {
		return errResult(err)
	}
	if err := sess.StepInto(optionalInt(request, "threadId", 0)); err != nil {
		return errResult(err)
	}
	return jsonResult(map[string]interface{}{"stepped": "into"})
}

func (s *Server) handleStepOut(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.resolveSession(request)
	if err != nil {
		return errResult(err)
	}
	if err := sess.StepOut(optionalInt(request, "threadId", 0)); err != nil {
		return errResult(err)
	}
	return jsonResult(map[string]interface{}{"stepped": "out"})
}
