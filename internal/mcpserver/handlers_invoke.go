package mcpserver

import (
	"context"
	"encoding/json"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/opendbg/netdbg-mcp/internal/errors"
	"github.com/opendbg/netdbg-mcp/internal/harness"
)

func (s *Server) handleInvoke(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	assembly, err := request.RequireString("assembly")
	if err != nil {
		return errResult(errors.MissingParameter("assembly", "Provide the path to the compiled assembly."))
	}
	typeName, err := request.RequireString("type")
	if err != nil {
		return errResult(errors.MissingParameter("type", "Provide the fully-qualified type name."))
	}
	method, err := request.RequireString("method")
	if err != nil {
		return errResult(errors.MissingParameter("method", "Provide the method name to call."))
	}

	req := harness.Request{
		Assembly: assembly,
		Type:     typeName,
		Method:   method,
	}
	if raw := optionalString(request, "args"); raw != "" {
		req.MethodArgs = json.RawMessage(raw)
	}
	if raw := optionalString(request, "ctorArgs"); raw != "" {
		req.CtorArgs = json.RawMessage(raw)
	}

	cwd := optionalString(request, "cwd")
	if cwd == "" {
		cwd = filepath.Dir(assembly)
	}

	if request.GetBool("debug", false) {
		cfg := harness.DebugConfig(s.config.HarnessPath, req, cwd)
		sess, caps, err := s.manager.Launch(s.config.NetCoreDbgPath, optionalString(request, "sessionId"), cfg, cwd)
		if err != nil {
			return errResult(err)
		}
		return jsonResult(map[string]interface{}{
			"sessionId":    sess.ID,
			"capabilities": caps,
		})
	}

	result, err := harness.Run(ctx, s.config.HarnessPath, req)
	if err != nil {
		return errResult(err)
	}
	return jsonResult(result)
}
