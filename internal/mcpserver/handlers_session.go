package mcpserver

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/opendbg/netdbg-mcp/internal/errors"
	"github.com/opendbg/netdbg-mcp/internal/manager"
	"github.com/opendbg/netdbg-mcp/pkg/types"
)

func (s *Server) handleLaunch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	program, err := request.RequireString("program")
	if err != nil {
		return errResult(errors.MissingParameter("program", "Provide the path to the compiled assembly or project executable to launch."))
	}

	args, err := parseJSONArray(optionalString(request, "args"))
	if err != nil {
		return errResult(errors.InvalidJSON("args", err, `["--flag", "value"]`))
	}
	env, err := parseJSONObject(optionalString(request, "env"))
	if err != nil {
		return errResult(errors.InvalidJSON("env", err, `{"ASPNETCORE_ENVIRONMENT": "Development"}`))
	}

	cfg := types.SessionConfig{
		Program:       program,
		Args:          args,
		Cwd:           optionalString(request, "cwd"),
		StopAtEntry:   request.GetBool("stopAtEntry", false),
		LaunchProfile: optionalString(request, "launchProfile"),
		Env:           env,
	}
	if cfg.Cwd == "" {
		cfg.Cwd = filepath.Dir(program)
	}

	sess, caps, err := s.manager.Launch(s.config.NetCoreDbgPath, optionalString(request, "sessionId"), cfg, filepath.Dir(program))
	if err != nil {
		return errResult(err)
	}

	return jsonResult(map[string]interface{}{
		"sessionId":    sess.ID,
		"capabilities": caps,
		"resolvedEnv":  sess.Config.ResolvedEnv,
	})
}

func (s *Server) handleAttach(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !s.config.CanAttach() {
		return errResult(errors.Configuration("attach is disabled by server configuration", nil))
	}

	pid, err := requiredInt(request, "processId")
	if err != nil {
		return errResult(errors.MissingParameter("processId", "Provide the OS process id of a running .NET process."))
	}

	cfg := types.SessionConfig{
		Program:   fmt.Sprintf("process:%d", pid),
		ProcessID: pid,
	}

	sess, caps, err := s.manager.Attach(s.config.NetCoreDbgPath, optionalString(request, "sessionId"), cfg)
	if err != nil {
		return errResult(err)
	}

	return jsonResult(map[string]interface{}{
		"sessionId":    sess.ID,
		"capabilities": caps,
	})
}

func (s *Server) handleLaunchWatch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectPath, err := request.RequireString("projectPath")
	if err != nil {
		return errResult(errors.MissingParameter("projectPath", "Provide the path to the .csproj file or its containing directory."))
	}
	args, err := parseJSONArray(optionalString(request, "args"))
	if err != nil {
		return errResult(errors.InvalidJSON("args", err, `["--flag", "value"]`))
	}

	req := manager.LaunchWatchRequest{
		SessionID:     optionalString(request, "sessionId"),
		ProjectPath:   projectPath,
		LaunchProfile: optionalString(request, "launchProfile"),
		Args:          args,
		NoHotReload:   request.GetBool("noHotReload", false),
	}

	sess, caps, err := s.manager.LaunchWatch(s.config.DotnetPath, s.config.NetCoreDbgPath, s.config.ReconnectTimeout, req)
	if err != nil {
		return errResult(err)
	}

	return jsonResult(map[string]interface{}{
		"sessionId":    sess.ID,
		"capabilities": caps,
	})
}

func (s *Server) handleStopWatch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.resolveSession(request)
	if err != nil {
		return errResult(err)
	}
	if err := sess.Terminate(true); err != nil {
		return errResult(err)
	}
	return jsonResult(map[string]interface{}{"sessionId": sess.ID, "stopped": true})
}

func (s *Server) handleRestart(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.resolveSession(request)
	if err != nil {
		return errResult(err)
	}
	caps, err := sess.Restart(s.config.NetCoreDbgPath, s.config.DotnetPath, request.GetBool("rebuild", false))
	if err != nil {
		return errResult(err)
	}
	return jsonResult(map[string]interface{}{"sessionId": sess.ID, "capabilities": caps})
}

func (s *Server) handleTerminate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.resolveSession(request)
	if err != nil {
		return errResult(err)
	}
	terminateDebuggee := request.GetBool("terminateDebuggee", false)
	if err := sess.Terminate(terminateDebuggee); err != nil {
		return errResult(err)
	}
	return jsonResult(map[string]interface{}{"sessionId": sess.ID, "terminated": true})
}
