// Package watch implements the hot-reload reconnection engine: the
// component that keeps a debug session alive across a `dotnet watch`
// rebuild/restart cycle by detecting the rebuild, killing the stale
// debuggee, waiting for its port to free, discovering the freshly spawned
// debuggee, and reattaching the debug session to it.
package watch

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os/exec"
	"strings"
	"sync"
	"time"

	godap "github.com/google/go-dap"

	"github.com/opendbg/netdbg-mcp/internal/dap"
	"github.com/opendbg/netdbg-mcp/internal/portwait"
	"github.com/opendbg/netdbg-mcp/internal/procutil"
)

// buildingMarker is the literal substring dotnet watch prints to its
// stdout when it starts a rebuild.
const buildingMarker = "Building..."

// livenessInterval is how often the orphan/liveness poller samples the
// process tree.
const livenessInterval = time.Second

// portWaitTimeout bounds how long the reattach gate waits for a tracked
// port to leave both LISTEN and TIME_WAIT before proceeding anyway with a
// warning.
const portWaitTimeout = 10 * time.Second

// Attacher spawns a fresh netcoredbg instance and attaches it to pid,
// returning the connected client and the spawned netcoredbg process.
type Attacher func(ctx context.Context, debuggeePID int) (*dap.Client, *exec.Cmd, error)

// Rebindable is the subset of *session.Session the controller needs,
// expressed narrowly so this package doesn't need to import
// internal/session (which itself depends on this package's
// session.WatchController interface being satisfied by *Controller).
type Rebindable interface {
	Rebind(client *dap.Client, process *exec.Cmd, pid int)
	ReplayBreakpoints() error
	DisconnectCurrent()
	Note(tag, message string)
}

// Config carries the tunables a Controller needs from the process-wide
// configuration.
type Config struct {
	ReconnectTimeout time.Duration
	PollInterval     time.Duration
}

// Controller drives one session's hot-reload lifecycle. Exactly one
// reconnect cycle runs at a time: concurrent triggers (an early
// "Building..." line and a later DAP terminated event for the same
// rebuild) coalesce into that single cycle via the reconnecting flag,
// which is set synchronously the instant the first trigger fires.
type Controller struct {
	cfg Config

	driverCmd *exec.Cmd
	driverPID int
	binMarker string
	ports     []int

	attach  Attacher
	session Rebindable

	mu           sync.Mutex
	reconnecting bool
	stopped      bool
	currentPID   int

	done chan struct{}
}

// NewController builds a Controller for a driver process (dotnet watch)
// whose process tree currently contains the debuggee at currentPID.
// binMarker is the substring (typically ".../bin/") that identifies the
// debuggee's command line among the driver's descendants, and ports are
// the TCP ports the debuggee is expected to (re)bind once restarted
// (resolved from the launch profile's ApplicationURL).
func NewController(cfg Config, driverCmd *exec.Cmd, driverPID, currentPID int, binMarker string, ports []int, attach Attacher, sess Rebindable) *Controller {
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}
	if cfg.ReconnectTimeout == 0 {
		cfg.ReconnectTimeout = 30 * time.Second
	}
	c := &Controller{
		cfg:        cfg,
		driverCmd:  driverCmd,
		driverPID:  driverPID,
		binMarker:  binMarker,
		ports:      ports,
		attach:     attach,
		session:    sess,
		currentPID: currentPID,
		done:       make(chan struct{}),
	}
	go c.pollLiveness()
	return c
}

// WatchOutput scans a driver output stream (stdout or stderr) for rebuild
// markers, triggering a reconnect cycle on each one, and appends every
// line to the session's output buffer tagged with tag ("driver" for
// stdout, "stderr" for stderr). The literal substring Building... is the
// only structured signal watched for; everything else is just appended to
// the session's output buffer. It blocks until r is exhausted or Stop is
// called, and should be run in its own goroutine.
func (c *Controller) WatchOutput(r io.Reader, tag string) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		c.session.Note(tag, line)
		if tag == "driver" && strings.Contains(line, buildingMarker) {
			c.trigger("stdout rebuild marker")
		}
	}
}

// OnDAPEvent is registered on the session's DAP client as a "terminated"
// listener; an unexpected debuggee exit during a watch session is the
// second reconnect trigger (the one that fires when the rebuild completes
// before WatchOutput's scanner catches up, or when "Building..." wasn't
// seen at all — e.g. a crash-and-restart rather than a file-change
// rebuild).
func (c *Controller) OnDAPEvent(godap.Event) {
	c.trigger("debuggee terminated")
}

// pollLiveness watches the current debuggee pid for two conditions neither
// the stdout scanner nor the DAP "terminated" event reliably catches — the
// process disappearing outright, or being reparented to pid 1 (the driver
// killed its wrapper but left the app running).
func (c *Controller) pollLiveness() {
	ticker := time.NewTicker(livenessInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
		}

		c.mu.Lock()
		pid := c.currentPID
		reconnecting := c.reconnecting
		c.mu.Unlock()
		if pid <= 0 || reconnecting {
			continue
		}

		if !procutil.IsAlive(pid) {
			c.trigger("debuggee process vanished")
			continue
		}

		procs, err := procutil.Snapshot()
		if err != nil {
			continue
		}
		if procutil.IsOrphaned(procs, pid) {
			c.session.Note("watch", fmt.Sprintf("debuggee pid %d orphaned (driver wrapper died); killing it", pid))
			if err := procutil.KillGroup(pid); err != nil {
				log.Printf("watch: failed to kill orphaned debuggee %d: %v", pid, err)
			}
			c.trigger("debuggee orphaned")
		}
	}
}

// trigger starts exactly one reconnect cycle per rebuild: if a cycle is
// already running, this call is a no-op, coalescing the stdout-marker,
// terminated-event, and liveness-poller triggers for the same rebuild.
// The reconnecting flag flips synchronously here, and the eager half of
// the cleanup phase (disconnect the stale transport, SIGKILL the stale
// pid) runs synchronously too, before the rest of the cycle continues in
// its own goroutine, so a second trigger arriving mid-cycle sees
// reconnecting already true and backs off instead of racing the cleanup.
func (c *Controller) trigger(reason string) {
	c.mu.Lock()
	if c.stopped || c.reconnecting {
		c.mu.Unlock()
		return
	}
	c.reconnecting = true
	stalePID := c.currentPID
	c.mu.Unlock()

	log.Printf("watch: reconnect triggered (%s)", reason)
	c.session.Note("watch", fmt.Sprintf("rebuild detected (%s); reconnecting", reason))

	c.session.DisconnectCurrent()
	if stalePID > 0 {
		if err := procutil.KillGroup(stalePID); err != nil {
			log.Printf("watch: failed to kill stale debuggee %d: %v", stalePID, err)
		}
	}

	go c.runCycle(stalePID)
}

// Reconnecting reports whether a reconnect cycle is currently in flight.
func (c *Controller) Reconnecting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reconnecting
}

func (c *Controller) runCycle(stalePID int) {
	defer func() {
		c.mu.Lock()
		c.reconnecting = false
		c.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.ReconnectTimeout)
	defer cancel()

	c.waitForPorts(ctx)

	newPID, err := c.waitForNewDebuggee(ctx, stalePID)
	if err != nil {
		log.Printf("watch: failed to discover rebuilt debuggee: %v", err)
		c.session.Note("watch", fmt.Sprintf("failed to discover rebuilt debuggee: %v", err))
		return
	}

	// Give the freshly discovered process a moment to finish starting
	// before attaching the debugger.
	select {
	case <-time.After(time.Second):
	case <-ctx.Done():
		return
	}

	client, proc, err := c.attach(ctx, newPID)
	if err != nil {
		log.Printf("watch: failed to reattach to pid %d: %v", newPID, err)
		c.session.Note("watch", fmt.Sprintf("failed to reattach to pid %d: %v", newPID, err))
		return
	}

	c.mu.Lock()
	c.currentPID = newPID
	c.mu.Unlock()

	c.session.Rebind(client, proc, newPID)
	client.On("terminated", c.OnDAPEvent)

	if err := c.session.ReplayBreakpoints(); err != nil {
		log.Printf("watch: failed to replay breakpoints after reconnect: %v", err)
	}

	log.Printf("watch: reconnected to pid %d", newPID)
	c.session.Note("watch", fmt.Sprintf("reconnected to pid %d", newPID))
}

// waitForPorts waits up to portWaitTimeout for every tracked port to
// become genuinely available (neither LISTEN nor TIME_WAIT). A port still
// busy at the deadline is only a warning — the reattach proceeds anyway.
func (c *Controller) waitForPorts(ctx context.Context) {
	for _, port := range c.ports {
		waitCtx, cancel := context.WithTimeout(ctx, portWaitTimeout)
		err := portwait.WaitFree(waitCtx, port, c.cfg.PollInterval)
		cancel()
		if err != nil {
			log.Printf("watch: %v", err)
			c.session.Note("watch", fmt.Sprintf("port %d still busy after %s, proceeding anyway", port, portWaitTimeout))
		}
	}
}

// StartConfig carries everything Start needs to spawn the rebuild driver
// and discover the initial debuggee.
type StartConfig struct {
	Config
	DriverPath    string // e.g. "dotnet"
	ProjectDir    string
	LaunchProfile string // "" means --no-launch-profile
	NoHotReload   bool
	ExtraArgs     []string // pass-through args after "--"
	BinMarker     string   // project's bin output dir substring, e.g. "MyApp/bin/"
	Ports         []int
	Attach        Attacher
}

const (
	initialDiscoverTimeout = 30 * time.Second
	initialSettleDelay     = time.Second
)

// driverArgs assembles `dotnet watch`'s argument list: "watch", optional
// "--no-hot-reload", "run", "--launch-profile <name>" or
// "--no-launch-profile", "--", pass-through user args.
func driverArgs(cfg StartConfig) []string {
	args := []string{"watch"}
	if cfg.NoHotReload {
		args = append(args, "--no-hot-reload")
	}
	args = append(args, "run")
	if cfg.LaunchProfile != "" {
		args = append(args, "--launch-profile", cfg.LaunchProfile)
	} else {
		args = append(args, "--no-launch-profile")
	}
	args = append(args, "--")
	args = append(args, cfg.ExtraArgs...)
	return args
}

// Start spawns the rebuild-driver process, discovers the debuggee it
// launches, attaches the first DAP client to it, and returns a running
// Controller alongside that client/process/pid for the caller to
// construct its Session from. sess must already exist (its breakpoints
// and output buffer are used from the very first attach onward), so
// callers typically construct a not-yet-bound Session shell, call Start,
// then finish constructing the Session with the returned client.
func Start(cfg StartConfig, sess Rebindable) (*Controller, *dap.Client, *exec.Cmd, int, error) {
	driverCmd := exec.Command(cfg.DriverPath, driverArgs(cfg)...)
	driverCmd.Dir = cfg.ProjectDir
	driverCmd.Env = append(driverCmd.Environ(), "DOTNET_WATCH_RESTART_ON_RUDE_EDIT=1")
	procutil.SetProcAttr(driverCmd)

	stdout, err := driverCmd.StdoutPipe()
	if err != nil {
		return nil, nil, nil, 0, fmt.Errorf("open driver stdout: %w", err)
	}
	stderr, err := driverCmd.StderrPipe()
	if err != nil {
		return nil, nil, nil, 0, fmt.Errorf("open driver stderr: %w", err)
	}

	if err := driverCmd.Start(); err != nil {
		return nil, nil, nil, 0, fmt.Errorf("start rebuild driver: %w", err)
	}
	driverPID := driverCmd.Process.Pid

	pid, err := discoverDebuggee(driverPID, cfg.BinMarker, 0, initialDiscoverTimeout, cfg.PollInterval)
	if err != nil {
		_ = procutil.KillGroup(driverPID)
		return nil, nil, nil, 0, err
	}

	time.Sleep(initialSettleDelay)

	client, proc, err := cfg.Attach(context.Background(), pid)
	if err != nil {
		_ = procutil.KillGroup(driverPID)
		return nil, nil, nil, 0, fmt.Errorf("attach to discovered debuggee pid %d: %w", pid, err)
	}

	c := NewController(cfg.Config, driverCmd, driverPID, pid, cfg.BinMarker, cfg.Ports, cfg.Attach, sess)
	client.On("terminated", c.OnDAPEvent)

	go c.WatchOutput(stdout, "driver")
	go c.WatchOutput(stderr, "stderr")

	return c, client, proc, pid, nil
}

// discoverDebuggee polls the driver's process tree until a debuggee
// distinct from excludePID appears or timeout elapses.
func discoverDebuggee(driverPID int, binMarker string, excludePID int, timeout, pollInterval time.Duration) (int, error) {
	if pollInterval == 0 {
		pollInterval = 500 * time.Millisecond
	}
	deadline := time.Now().Add(timeout)
	for {
		procs, err := procutil.Snapshot()
		if err != nil {
			return 0, err
		}
		if pid := procutil.FindDebuggee(procs, driverPID, binMarker); pid != 0 && pid != excludePID {
			return pid, nil
		}
		if time.Now().After(deadline) {
			return 0, fmt.Errorf("timed out waiting for debuggee under driver pid %d", driverPID)
		}
		time.Sleep(pollInterval)
	}
}

// waitForNewDebuggee polls the driver's process tree until a debuggee
// distinct from stalePID appears, enforcing the monotonic pid-transition
// property: the discovered pid must never equal stalePID, since that
// would mean we reattached to a process we just killed.
func (c *Controller) waitForNewDebuggee(ctx context.Context, stalePID int) (int, error) {
	for {
		procs, err := procutil.Snapshot()
		if err != nil {
			return 0, err
		}
		if pid := procutil.FindDebuggee(procs, c.driverPID, c.binMarker); pid != 0 && pid != stalePID {
			return pid, nil
		}

		select {
		case <-ctx.Done():
			return 0, fmt.Errorf("timed out waiting for rebuilt debuggee under driver pid %d", c.driverPID)
		case <-time.After(c.cfg.PollInterval):
		}
	}
}

// Stop ends the watch: no further reconnect cycles will start, and the
// driver process is sent SIGTERM (rather than the stale-debuggee cleanup
// path's SIGKILL) so `dotnet watch` gets the chance to shut down its own
// children gracefully.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	driverPID := c.driverPID
	c.mu.Unlock()

	close(c.done)

	if driverPID > 0 {
		if err := procutil.TerminateGroup(driverPID); err != nil {
			log.Printf("watch: failed to terminate driver process group %d: %v", driverPID, err)
		}
	}
}

// Done returns a channel closed when Stop has been called.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}
