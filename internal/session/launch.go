package session

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	godap "github.com/google/go-dap"

	"github.com/opendbg/netdbg-mcp/internal/dap"
	"github.com/opendbg/netdbg-mcp/internal/procutil"
	"github.com/opendbg/netdbg-mcp/internal/profile"
	"github.com/opendbg/netdbg-mcp/pkg/types"
)

const initializeTimeout = 10 * time.Second

// spawnAdapter starts a fresh netcoredbg child in vscode-interpreter mode,
// wires its stdio into a Transport/Client pair, and completes the
// `initialize` handshake.
func spawnAdapter(adapterPath string) (*dap.Client, *exec.Cmd, error) {
	cmd := exec.Command(adapterPath, "--interpreter=vscode")
	procutil.SetProcAttr(cmd)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("open adapter stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("open adapter stdout: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, nil, fmt.Errorf("start %s: %w", adapterPath, err)
	}

	transport := dap.NewStdioTransport(stdin, stdout)
	client := dap.NewClient(transport)

	if _, err := client.Initialize("netdbg-mcp", "netdbg-mcp"); err != nil {
		client.Close()
		_ = cmd.Process.Kill()
		return nil, nil, fmt.Errorf("initialize: %w", err)
	}

	return client, cmd, nil
}

// resolveEnv merges the named launch profile (if cfg names one and
// projectDir resolves to a launchSettings.json) with cfg's explicit
// overrides: launchProfile.environmentVariables ∪ { ASPNETCORE_URLS ←
// launchProfile.applicationUrl } ∪ explicitEnv, with explicit overrides
// always winning. Returns cfg's overrides unchanged (not an error) when no
// profile applies — an absent or malformed launch-settings file is
// treated the same as no profile at all.
func resolveEnv(projectDir, profileName string, overrides map[string]string) map[string]string {
	if projectDir == "" {
		return overrides
	}
	ls, _, err := profile.LoadAndDiscover(projectDir)
	if err != nil {
		return overrides
	}
	_, p, err := profile.Resolve(ls, profileName)
	if err != nil {
		return overrides
	}
	return profile.ResolvedEnv(p, overrides)
}

// launchArgs builds the DAP `launch` request body for cfg.
func launchArgs(cfg types.SessionConfig) map[string]interface{} {
	args := map[string]interface{}{
		"program":     cfg.Program,
		"cwd":         cfg.Cwd,
		"stopAtEntry": cfg.StopAtEntry,
		"console":     "internalConsole",
	}
	if len(cfg.Args) > 0 {
		args["args"] = cfg.Args
	}
	if len(cfg.ResolvedEnv) > 0 {
		args["env"] = cfg.ResolvedEnv
	}
	return args
}

// Launch creates a brand-new Session: spawns netcoredbg, resolves the
// effective environment from the project's launch profile (if named),
// sends `launch` then `configurationDone`, and returns the session along
// with the adapter's reported capabilities.
func Launch(id, adapterPath string, cfg types.SessionConfig, projectDir string) (*Session, godap.Capabilities, error) {
	cfg.Mode = types.ModeLaunch
	cfg.ResolvedEnv = resolveEnv(projectDir, cfg.LaunchProfile, cfg.Env)
	cfg.StartTime = time.Now()

	client, cmd, err := spawnAdapter(adapterPath)
	if err != nil {
		return nil, godap.Capabilities{}, err
	}

	if _, err := client.Launch(launchArgs(cfg)); err != nil {
		client.Close()
		_ = cmd.Process.Kill()
		return nil, godap.Capabilities{}, fmt.Errorf("launch: %w", err)
	}
	if err := client.ConfigurationDone(); err != nil {
		client.Close()
		_ = cmd.Process.Kill()
		return nil, godap.Capabilities{}, fmt.Errorf("configurationDone: %w", err)
	}

	s := New(id, cfg, client, cmd, 0)
	return s, client.Capabilities(), nil
}

// Attach creates a brand-new Session bound to an already-running process
// by pid.
func Attach(id, adapterPath string, cfg types.SessionConfig) (*Session, godap.Capabilities, error) {
	cfg.Mode = types.ModeAttach
	cfg.StartTime = time.Now()

	client, cmd, err := spawnAdapter(adapterPath)
	if err != nil {
		return nil, godap.Capabilities{}, err
	}

	if _, err := client.Attach(map[string]interface{}{"processId": cfg.ProcessID}); err != nil {
		client.Close()
		_ = cmd.Process.Kill()
		return nil, godap.Capabilities{}, fmt.Errorf("attach: %w", err)
	}
	if err := client.ConfigurationDone(); err != nil {
		client.Close()
		_ = cmd.Process.Kill()
		return nil, godap.Capabilities{}, fmt.Errorf("configurationDone: %w", err)
	}

	s := New(id, cfg, client, cmd, cfg.ProcessID)
	return s, client.Capabilities(), nil
}

// AttachAdapter spawns a fresh netcoredbg instance and attaches it to pid,
// without constructing a Session. internal/manager wraps it in a
// watch.Attacher closure, which the watch controller calls on every
// reconnect cycle (and the initial launch_watch attach uses, via watch.Start).
func AttachAdapter(adapterPath string, pid int) (*dap.Client, *exec.Cmd, error) {
	client, cmd, err := spawnAdapter(adapterPath)
	if err != nil {
		return nil, nil, err
	}
	if _, err := client.Attach(map[string]interface{}{"processId": pid}); err != nil {
		client.Close()
		_ = cmd.Process.Kill()
		return nil, nil, fmt.Errorf("attach: %w", err)
	}
	if err := client.ConfigurationDone(); err != nil {
		client.Close()
		_ = cmd.Process.Kill()
		return nil, nil, fmt.Errorf("configurationDone: %w", err)
	}
	return client, cmd, nil
}

// rebuildProject runs `dotnet build` in dir and returns its combined
// stdout/stderr.
func rebuildProject(dotnetPath, dir string) (string, error) {
	cmd := exec.Command(dotnetPath, "build")
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return string(out), fmt.Errorf("dotnet build failed: %w", err)
	}
	return string(out), nil
}

// Restart relaunches a launch-mode session using its saved SessionConfig:
// when rebuild is true it first runs `dotnet build` in the session's
// working directory, failing (and leaving the existing session untouched)
// if the build fails; it then cleans up the existing transport (if any),
// spawns a fresh adapter, repeats the launch/configurationDone handshake,
// and rebinds the session in place, preserving breakpoints and the output
// buffer. Attach-mode sessions cannot be restarted (there is no program to
// relaunch).
func (s *Session) Restart(adapterPath, dotnetPath string, rebuild bool) (godap.Capabilities, error) {
	s.mu.Lock()
	cfg := s.Config
	oldClient := s.client
	oldPID := s.pid
	s.mu.Unlock()

	if cfg.Mode != types.ModeLaunch {
		return godap.Capabilities{}, fmt.Errorf("restart is only supported for launch-mode sessions")
	}

	if rebuild {
		dir := cfg.Cwd
		if dir == "" {
			dir = s.projectDirHint()
		}
		out, err := rebuildProject(dotnetPath, dir)
		for _, line := range strings.Split(strings.TrimRight(out, "\n"), "\n") {
			if line != "" {
				s.Note("build", line)
			}
		}
		if err != nil {
			s.Note("restart", err.Error())
			return godap.Capabilities{}, err
		}
	}

	if oldClient != nil {
		_ = oldClient.Disconnect(true)
		_ = oldClient.Close()
	}
	if oldPID > 0 {
		_ = procutil.KillGroup(oldPID)
	}

	cfg.ResolvedEnv = resolveEnv(s.projectDirHint(), cfg.LaunchProfile, cfg.Env)
	cfg.StartTime = time.Now()

	client, cmd, err := spawnAdapter(adapterPath)
	if err != nil {
		return godap.Capabilities{}, err
	}
	if _, err := client.Launch(launchArgs(cfg)); err != nil {
		client.Close()
		_ = cmd.Process.Kill()
		return godap.Capabilities{}, fmt.Errorf("launch: %w", err)
	}
	if err := client.ConfigurationDone(); err != nil {
		client.Close()
		_ = cmd.Process.Kill()
		return godap.Capabilities{}, fmt.Errorf("configurationDone: %w", err)
	}

	s.mu.Lock()
	s.Config = cfg
	s.mu.Unlock()

	s.Rebind(client, cmd, 0)
	if err := s.ReplayBreakpoints(); err != nil {
		s.Note("restart", fmt.Sprintf("failed to replay breakpoints: %v", err))
	}

	return client.Capabilities(), nil
}

// projectDirHint returns the directory a launch profile would be
// discovered from for this session's program path — the directory
// containing the compiled DLL, which profile.Discover walks upward from.
func (s *Session) projectDirHint() string {
	return filepath.Dir(s.Config.Program)
}
