package manager

import (
	"github.com/opendbg/netdbg-mcp/pkg/types"

	godap "github.com/google/go-dap"

	"github.com/opendbg/netdbg-mcp/internal/session"
)

// Launch derives a session id (if id is empty), spawns a fresh
// netcoredbg, launches cfg.Program under it, and registers the resulting
// session.
func (m *Manager) Launch(adapterPath string, id string, cfg types.SessionConfig, projectDir string) (*session.Session, godap.Capabilities, error) {
	if id == "" {
		id = m.NextID(cfg.Program)
	}
	s, caps, err := session.Launch(id, adapterPath, cfg, projectDir)
	if err != nil {
		return nil, godap.Capabilities{}, err
	}
	if err := m.Add(s); err != nil {
		_ = s.Terminate(true)
		return nil, godap.Capabilities{}, err
	}
	return s, caps, nil
}

// Attach derives a session id (if id is empty), spawns a fresh
// netcoredbg, attaches it to cfg.ProcessID, and registers the resulting
// session.
func (m *Manager) Attach(adapterPath string, id string, cfg types.SessionConfig) (*session.Session, godap.Capabilities, error) {
	if id == "" {
		id = m.NextID(cfg.Program)
	}
	s, caps, err := session.Attach(id, adapterPath, cfg)
	if err != nil {
		return nil, godap.Capabilities{}, err
	}
	if err := m.Add(s); err != nil {
		_ = s.Terminate(true)
		return nil, godap.Capabilities{}, err
	}
	return s, caps, nil
}
