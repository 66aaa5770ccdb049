// Package session implements the single-session state machine described by
// the design's Session component: breakpoints, output buffer, stop state,
// and an optional hot-reload watch controller layered on top of one DAP
// transport.
package session

import (
	"fmt"
	"log"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	godap "github.com/google/go-dap"

	"github.com/opendbg/netdbg-mcp/internal/dap"
	"github.com/opendbg/netdbg-mcp/internal/errors"
	"github.com/opendbg/netdbg-mcp/internal/procutil"
	"github.com/opendbg/netdbg-mcp/pkg/types"
)

const outputBufferLimit = 100

// WatchController is the narrow view of internal/watch.Controller that a
// Session needs. Kept as an interface here (rather than importing
// internal/watch directly) so internal/watch can depend on internal/session
// without creating an import cycle; internal/manager wires the concrete
// controller in after constructing both.
type WatchController interface {
	Stop()
	Reconnecting() bool
}

// Session is one logical debug session: a DAP client bound to a single
// debuggee, the breakpoints set against it, a bounded buffer of its
// stdout/stderr output, and its last-known stop state. All mutating and
// DAP-issuing methods serialize through mu, matching the one-in-flight-
// call-per-session concurrency rule.
type Session struct {
	ID     string
	Config types.SessionConfig

	mu      sync.Mutex
	client  *dap.Client
	process *exec.Cmd
	pid     int

	// breakpoints is keyed by absolute source path; DAP's setBreakpoints
	// is a full-file replacement, so every mutation resends the whole
	// slice for that path.
	breakpoints map[string][]*types.StoredBreakpoint

	output     []string
	outputSeen int // total lines ever recorded, including ones evicted from output

	lastStop        *dap.StoppedInfo
	terminated      bool
	watchController WatchController

	createdAt time.Time
}

// New creates a Session bound to an already-connected client.
func New(id string, cfg types.SessionConfig, client *dap.Client, process *exec.Cmd, pid int) *Session {
	s := &Session{
		ID:          id,
		Config:      cfg,
		client:      client,
		process:     process,
		pid:         pid,
		breakpoints: make(map[string][]*types.StoredBreakpoint),
		createdAt:   time.Now(),
	}
	s.subscribe(client)
	return s
}

// subscribe wires the Session's event handlers onto client. A nil client is
// a no-op, so a Session can be constructed before its first DAP client
// exists (the launch_watch startup sequence attaches the initial client
// only after the driver process discovers a debuggee), with Rebind wiring
// the real client in once it's available.
func (s *Session) subscribe(client *dap.Client) {
	if client == nil {
		return
	}
	client.On("output", s.onOutput)
	client.On("stopped", s.onStopped)
	client.On("continued", s.onContinued)
	client.On("terminated", s.onTerminated)
	client.On("exited", s.onTerminated)
	client.On("process", s.onProcess)
}

// onProcess records the debuggee's own pid once the adapter reports it —
// in launch mode netcoredbg spawns the debuggee itself, so this "process"
// event is the only place that pid becomes known.
func (s *Session) onProcess(ev godap.Event) {
	e, ok := ev.(*godap.ProcessEvent)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.Body.SystemProcessId != 0 {
		s.pid = e.Body.SystemProcessId
	}
}

func (s *Session) onOutput(ev godap.Event) {
	e, ok := ev.(*godap.OutputEvent)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendOutputLocked(e.Body.Output)
}

func (s *Session) appendOutputLocked(line string) {
	s.outputSeen++
	s.output = append(s.output, line)
	if len(s.output) > outputBufferLimit {
		s.output = s.output[len(s.output)-outputBufferLimit:]
	}
}

func (s *Session) onStopped(ev godap.Event) {
	e, ok := ev.(*godap.StoppedEvent)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastStop = &dap.StoppedInfo{
		Reason:      e.Body.Reason,
		ThreadID:    e.Body.ThreadId,
		Description: e.Body.Description,
		AllStopped:  e.Body.AllThreadsStopped,
	}
}

func (s *Session) onContinued(godap.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastStop = nil
}

func (s *Session) onTerminated(godap.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watchController == nil || !s.watchController.Reconnecting() {
		s.terminated = true
	}
}

// SetWatchController attaches the hot-reload controller for a launch_watch
// session. Must be called once, before the controller starts reconnect
// cycles.
func (s *Session) SetWatchController(wc WatchController) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchController = wc
}

// DisconnectCurrent best-effort disconnects and closes the current DAP
// client and clears it, without touching breakpoints or output — the
// eager half of the watch controller's cleanup phase, run synchronously
// the instant a rebuild is detected, before the asynchronous port-wait and
// reattach continue. Safe to call with no client bound.
func (s *Session) DisconnectCurrent() {
	s.mu.Lock()
	client := s.client
	s.client = nil
	s.mu.Unlock()

	if client == nil {
		return
	}
	if err := client.Disconnect(true); err != nil {
		log.Printf("session %s: disconnect during reconnect failed: %v", s.ID, err)
	}
	if err := client.Close(); err != nil {
		log.Printf("session %s: client close during reconnect failed: %v", s.ID, err)
	}
}

// Rebind swaps in a freshly attached client and process after a hot-reload
// reconnect, clearing the terminated flag and last-stop state (the new
// process hasn't stopped yet) but preserving breakpoints and output.
func (s *Session) Rebind(client *dap.Client, process *exec.Cmd, pid int) {
	s.mu.Lock()
	s.client = client
	s.process = process
	s.pid = pid
	s.lastStop = nil
	s.terminated = false
	s.mu.Unlock()

	s.subscribe(client)
}

// withClient runs fn with the session lock held and the current client,
// returning Reconnecting if a reconnect is in flight, or NotRunning if there
// is no client or the session has terminated.
func (s *Session) withClient(fn func(*dap.Client) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.watchController != nil && s.watchController.Reconnecting() {
		return errors.Reconnecting(s.ID)
	}
	if s.client == nil || s.terminated {
		return errors.NotRunning(s.ID)
	}
	return fn(s.client)
}

// SetBreakpoint adds or updates a breakpoint at path:line (with an
// optional condition), resends the full breakpoint set for that file, and
// returns the debugger's echo of it. path is normalized to absolute form
// first, since breakpoints are identified by (absolute source path, line).
func (s *Session) SetBreakpoint(path string, line int, condition string) (*types.StoredBreakpoint, error) {
	path, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.BreakpointFailed(path, line, err.Error())
	}

	var result *types.StoredBreakpoint

	err = s.withClient(func(c *dap.Client) error {
		bps := s.breakpoints[path]

		found := false
		for _, bp := range bps {
			if bp.Line == line {
				bp.Condition = condition
				found = true
				break
			}
		}
		if !found {
			bps = append(bps, &types.StoredBreakpoint{Line: line, Condition: condition})
			s.breakpoints[path] = bps
		}

		if _, err := s.sendBreakpointsLocked(c, path); err != nil {
			return err
		}
		for _, bp := range s.breakpoints[path] {
			if bp.Line == line {
				result = bp
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RemoveBreakpoint removes the breakpoint at path:line and resends the
// remaining set for that file. Removing a breakpoint that was never set
// fails explicitly rather than silently resending the unchanged set. path
// is normalized to absolute form first, matching SetBreakpoint.
func (s *Session) RemoveBreakpoint(path string, line int) error {
	path, err := filepath.Abs(path)
	if err != nil {
		return errors.BreakpointFailed(path, line, err.Error())
	}

	return s.withClient(func(c *dap.Client) error {
		bps := s.breakpoints[path]
		found := false
		kept := bps[:0]
		for _, bp := range bps {
			if bp.Line == line {
				found = true
				continue
			}
			kept = append(kept, bp)
		}
		if !found {
			return errors.BreakpointNotFound(path, line)
		}
		s.breakpoints[path] = kept

		_, err := s.sendBreakpointsLocked(c, path)
		return err
	})
}

// sendBreakpointsLocked resends the complete breakpoint set for path and
// updates the stored echo (id/verified/message) from the response. Caller
// must hold s.mu.
func (s *Session) sendBreakpointsLocked(c *dap.Client, path string) ([]godap.Breakpoint, error) {
	stored := s.breakpoints[path]
	args := make([]godap.SourceBreakpoint, len(stored))
	for i, bp := range stored {
		args[i] = godap.SourceBreakpoint{Line: bp.Line, Condition: bp.Condition}
	}

	resp, err := c.SetBreakpoints(godap.Source{Path: path}, args)
	if err != nil {
		return nil, errors.BreakpointFailed(path, 0, err.Error())
	}

	for i, echoed := range resp {
		if i >= len(stored) {
			break
		}
		stored[i].ID = echoed.Id
		stored[i].Verified = echoed.Verified
		stored[i].Message = echoed.Message
	}

	return resp, nil
}

// ListBreakpoints returns every breakpoint currently tracked, grouped by
// source path.
func (s *Session) ListBreakpoints() map[string][]types.StoredBreakpoint {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string][]types.StoredBreakpoint, len(s.breakpoints))
	for path, bps := range s.breakpoints {
		copied := make([]types.StoredBreakpoint, len(bps))
		for i, bp := range bps {
			copied[i] = *bp
		}
		out[path] = copied
	}
	return out
}

// ReplayBreakpoints resends every tracked file's breakpoint set to the
// current client, used right after a hot-reload reattach.
func (s *Session) ReplayBreakpoints() error {
	return s.withClient(func(c *dap.Client) error {
		for path := range s.breakpoints {
			if _, err := s.sendBreakpointsLocked(c, path); err != nil {
				log.Printf("session %s: failed to replay breakpoints for %s: %v", s.ID, path, err)
			}
		}
		return nil
	})
}

// Note appends an informational line from a non-DAP source (the watch
// controller, and Restart's build/restart steps) to the output buffer, tagged so a reader can
// tell it apart from the debuggee's own stdout/stderr.
func (s *Session) Note(tag, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendOutputLocked(fmt.Sprintf("[%s] %s", tag, message))
}

// Output returns up to the last outputBufferLimit lines of captured
// stdout/stderr, and the total number of lines ever recorded.
func (s *Session) Output() ([]string, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.output))
	copy(out, s.output)
	return out, s.outputSeen
}

// Status derives the session's current reportable state.
func (s *Session) Status() types.SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := types.SessionStatus{
		SessionID:       s.ID,
		ProcessID:       s.pid,
		UptimeSeconds:   time.Since(s.createdAt).Seconds(),
		OutputLineCount: s.outputSeen,
	}
	for _, bps := range s.breakpoints {
		st.BreakpointCount += len(bps)
	}

	switch {
	case s.watchController != nil && s.watchController.Reconnecting():
		st.State = types.StateReconnecting
	case s.terminated || s.client == nil:
		st.State = types.StateTerminated
	case s.lastStop != nil:
		st.State = types.StateStopped
		st.StopReason = s.lastStop.Reason
		st.StoppedThreadID = s.lastStop.ThreadID
	default:
		st.State = types.StateRunning
	}

	return st
}

// Client returns the current DAP client, or an error if none is bound or a
// reconnect is in flight, applying the same checks as withClient but
// without holding the session lock while the caller uses the client.
func (s *Session) Client() (*dap.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watchController != nil && s.watchController.Reconnecting() {
		return nil, errors.Reconnecting(s.ID)
	}
	if s.client == nil || s.terminated {
		return nil, errors.NotRunning(s.ID)
	}
	return s.client, nil
}

// Terminate disconnects the DAP client and, when terminateDebuggee is set,
// kills the debuggee's process group, stopping any hot-reload watch first.
func (s *Session) Terminate(terminateDebuggee bool) error {
	s.mu.Lock()
	wc := s.watchController
	client := s.client
	pid := s.pid
	s.mu.Unlock()

	if wc != nil {
		wc.Stop()
	}

	if client != nil {
		var disconnectErr error
		if terminateDebuggee {
			disconnectErr = client.Terminate()
		} else {
			disconnectErr = client.Disconnect(false)
		}
		if disconnectErr != nil {
			log.Printf("session %s: disconnect failed: %v", s.ID, disconnectErr)
		}
		if err := client.Close(); err != nil {
			log.Printf("session %s: client close failed: %v", s.ID, err)
		}
	}

	if terminateDebuggee && pid > 0 {
		if err := procutil.KillGroup(pid); err != nil {
			log.Printf("session %s: failed to kill process group %d: %v", s.ID, pid, err)
		}
	}

	s.mu.Lock()
	s.terminated = true
	s.mu.Unlock()

	return nil
}
