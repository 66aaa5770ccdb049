package mcpserver

import (
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/opendbg/netdbg-mcp/internal/errors"
	"github.com/opendbg/netdbg-mcp/internal/session"
)

// jsonResult marshals v as indented JSON and wraps it as a tool text result.
func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(errors.Wrap(errors.CodeInvalidJSON, "failed to encode result", "", err).Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// errResult turns any error into a tool error result, extracting the
// structured DebugError if one is chained in it.
func errResult(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(errors.FromError(err).Error()), nil
}

func optionalString(request mcp.CallToolRequest, name string) string {
	v, _ := request.RequireString(name)
	return v
}

func requiredInt(request mcp.CallToolRequest, name string) (int, error) {
	f, err := request.RequireFloat(name)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

func optionalInt(request mcp.CallToolRequest, name string, def int) int {
	f, err := request.RequireFloat(name)
	if err != nil {
		return def
	}
	return int(f)
}

// resolveSession looks up the session named in the "sessionId" argument (or
// the default session if omitted).
func (s *Server) resolveSession(request mcp.CallToolRequest) (*session.Session, error) {
	return s.manager.Get(optionalString(request, "sessionId"))
}

func parseJSONArray(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func parseJSONObject(raw string) (map[string]string, error) {
	if raw == "" {
		return nil, nil
	}
	var out map[string]string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, err
	}
	return out, nil
}
