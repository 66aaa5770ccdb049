package manager

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"time"

	godap "github.com/google/go-dap"

	"github.com/opendbg/netdbg-mcp/internal/dap"
	"github.com/opendbg/netdbg-mcp/internal/errors"
	"github.com/opendbg/netdbg-mcp/internal/profile"
	"github.com/opendbg/netdbg-mcp/internal/session"
	"github.com/opendbg/netdbg-mcp/internal/watch"
	"github.com/opendbg/netdbg-mcp/pkg/types"
)

// LaunchWatchRequest carries the launch_watch tool's arguments.
type LaunchWatchRequest struct {
	SessionID     string // "" means derive one from ProjectPath
	ProjectPath   string
	LaunchProfile string
	Args          []string
	NoHotReload   bool
}

// LaunchWatch starts the rebuild-driver process under projectPath,
// discovers the debuggee it spawns, attaches a Session to it, and wires a
// hot-reload watch.Controller so the session survives subsequent
// rebuild/restart cycles. DotnetPath and AdapterPath come from process
// configuration (internal/config.Config).
func (m *Manager) LaunchWatch(dotnetPath, adapterPath string, reconnectTimeout time.Duration, req LaunchWatchRequest) (*session.Session, godap.Capabilities, error) {
	projectDir, err := filepath.Abs(req.ProjectPath)
	if err != nil {
		return nil, godap.Capabilities{}, errors.Configuration("resolve project path", err)
	}

	var ports []int
	if ls, _, err := profile.LoadAndDiscover(projectDir); err == nil {
		if _, p, err := profile.Resolve(ls, req.LaunchProfile); err == nil {
			ports = profile.Ports(p.ApplicationURL)
		}
	}

	id := req.SessionID
	if id == "" {
		id = m.NextID(projectDir)
	}

	binMarker := filepath.Join(filepath.Base(projectDir), "bin") + string(filepath.Separator)

	cfg := types.SessionConfig{
		Program:       "watch:" + projectDir,
		Args:          req.Args,
		Cwd:           projectDir,
		Mode:          types.ModeWatch,
		LaunchProfile: req.LaunchProfile,
		StartTime:     time.Now(),
	}

	sess := session.New(id, cfg, nil, nil, 0)

	startCfg := watch.StartConfig{
		Config: watch.Config{
			ReconnectTimeout: reconnectTimeout,
			PollInterval:     500 * time.Millisecond,
		},
		DriverPath:    dotnetPath,
		ProjectDir:    projectDir,
		LaunchProfile: req.LaunchProfile,
		NoHotReload:   req.NoHotReload,
		ExtraArgs:     req.Args,
		BinMarker:     binMarker,
		Ports:         ports,
		Attach: func(_ context.Context, pid int) (*dap.Client, *exec.Cmd, error) {
			return session.AttachAdapter(adapterPath, pid)
		},
	}

	ctrl, client, proc, pid, err := watch.Start(startCfg, sess)
	if err != nil {
		return nil, godap.Capabilities{}, fmt.Errorf("launch_watch: %w", err)
	}

	sess.Rebind(client, proc, pid)
	sess.SetWatchController(ctrl)

	if err := m.Add(sess); err != nil {
		ctrl.Stop()
		_ = sess.Terminate(true)
		return nil, godap.Capabilities{}, err
	}

	return sess, client.Capabilities(), nil
}
