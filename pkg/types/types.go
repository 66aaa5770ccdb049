// Package types defines the shared data model used across the debug-control
// mediator: the session configuration, derived status, stored breakpoints,
// and launchSettings.json profiles.
//
// Wire-shaped DAP entities (breakpoints, stack frames, scopes, variables,
// threads, capabilities) are not duplicated here — callers use the
// github.com/google/go-dap types directly, since go-dap already defines
// exactly those shapes.
package types

import "time"

// Mode identifies how a Session's debuggee was started.
type Mode string

const (
	ModeLaunch Mode = "launch"
	ModeAttach Mode = "attach"
	ModeWatch  Mode = "watch"
)

// SessionConfig is immutable after creation aside from ProcessID and
// StartTime, which are updated on every (re)launch and every hot-reload
// reattach.
type SessionConfig struct {
	Program       string            `json:"program"` // DLL path, "process:<pid>", or "watch:<projectPath>"
	Args          []string          `json:"args,omitempty"`
	Cwd           string            `json:"cwd,omitempty"`
	StopAtEntry   bool              `json:"stopAtEntry,omitempty"`
	Mode          Mode              `json:"mode"`
	LaunchProfile string            `json:"launchProfile,omitempty"`
	Env           map[string]string `json:"env,omitempty"`         // explicit overrides requested by the caller
	ResolvedEnv   map[string]string `json:"resolvedEnv,omitempty"` // profile env ∪ ASPNETCORE_URLS ∪ explicit env
	ProcessID     int               `json:"processId,omitempty"`
	StartTime     time.Time         `json:"startTime"`
}

// SessionState is the coarse state reported by the status tool.
type SessionState string

const (
	StateRunning      SessionState = "running"
	StateStopped      SessionState = "stopped"
	StateReconnecting SessionState = "reconnecting"
	StateTerminated   SessionState = "terminated"
)

// SessionStatus is derived on demand, never stored.
type SessionStatus struct {
	SessionID       string       `json:"sessionId"`
	State           SessionState `json:"state"`
	StopReason      string       `json:"stopReason,omitempty"`
	StoppedThreadID int          `json:"stoppedThreadId,omitempty"`
	ProcessID       int          `json:"processId,omitempty"`
	UptimeSeconds   float64      `json:"uptimeSeconds"`
	BreakpointCount int          `json:"breakpointCount"`
	OutputLineCount int          `json:"outputLineCount"`
}

// StoredBreakpoint is the client-side authoritative record of one requested
// breakpoint: the line and condition as requested, plus the debugger's most
// recent echo of it (id, verified, message). The condition is kept here
// because DAP setBreakpoints responses never echo it back.
type StoredBreakpoint struct {
	Line      int    `json:"line"`
	Condition string `json:"condition,omitempty"`
	ID        int    `json:"id,omitempty"`
	Verified  bool   `json:"verified"`
	Message   string `json:"message,omitempty"`
}

// LaunchProfile is one named entry of a Properties/launchSettings.json file.
type LaunchProfile struct {
	EnvironmentVariables map[string]string `json:"environmentVariables,omitempty"`
	ApplicationURL       string            `json:"applicationUrl,omitempty"`
	CommandName          string            `json:"commandName,omitempty"`
}

// LaunchSettings is the root shape of Properties/launchSettings.json.
type LaunchSettings struct {
	Profiles map[string]LaunchProfile `json:"profiles"`
}
