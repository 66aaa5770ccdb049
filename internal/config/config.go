// Package config provides configuration management for the debug-control
// mediator.
//
// Configuration controls:
//   - Capability mode (readonly vs full): determines which tools are available
//   - Permission flags: control attach and modify operations
//   - Binary locations: netcoredbg and the reflection harness
//   - Safety limits: maximum sessions and session timeout
//
// Configuration can be loaded from a JSON file or use sensible defaults.
// The readonly mode exposes only inspection tools, while full mode enables
// all debugging capabilities including execution control.
package config

import (
	"encoding/json"
	"os"
	"os/exec"
	"time"
)

// CapabilityMode defines the level of debugging capabilities exposed.
type CapabilityMode string

const (
	ModeReadOnly CapabilityMode = "readonly" // only inspection tools
	ModeFull     CapabilityMode = "full"     // all tools enabled
)

// Config holds the server configuration.
type Config struct {
	// Capability levels
	Mode        CapabilityMode `json:"mode"`
	AllowAttach bool           `json:"allowAttach"`
	AllowModify bool           `json:"allowModify"`

	// Binary locations
	NetCoreDbgPath string `json:"netCoreDbgPath"`
	HarnessPath    string `json:"harnessPath"`

	// dotnet binary, used by launch_watch as the watch driver and by
	// restart's optional rebuild
	DotnetPath string `json:"dotnetPath"`

	// Limits for safety
	MaxSessions    int           `json:"maxSessions"`
	SessionTimeout time.Duration `json:"sessionTimeout"`

	// ReconnectTimeout bounds how long the watch controller waits for a
	// rebuilt debuggee to appear and its port to free up before giving up
	// on a hot-reload cycle.
	ReconnectTimeout time.Duration `json:"reconnectTimeout"`
}

// findNetCoreDbg searches for netcoredbg in PATH and common install
// locations across platforms.
func findNetCoreDbg() string {
	if path, err := exec.LookPath("netcoredbg"); err == nil {
		return path
	}

	locations := []string{
		"/usr/bin/netcoredbg",
		"/usr/local/bin/netcoredbg",
		"/opt/netcoredbg/netcoredbg",
	}
	if home, err := os.UserHomeDir(); err == nil {
		locations = append(locations,
			home+"/.vscode/extensions/ms-dotnettools.csdevkit/.debugger/netcoredbg/netcoredbg",
			home+"/netcoredbg/netcoredbg",
		)
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	// Fall back to the bare name; invoking it will fail with a clear error.
	return "netcoredbg"
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Mode:             ModeFull,
		AllowAttach:      true,
		AllowModify:      true,
		NetCoreDbgPath:   findNetCoreDbg(),
		DotnetPath:       "dotnet",
		MaxSessions:      10,
		SessionTimeout:   30 * time.Minute,
		ReconnectTimeout: 60 * time.Second,
	}
}

// LoadConfig loads configuration from a JSON file, falling back to
// DefaultConfig fields for anything the file doesn't set.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// CanUseControlTools returns true if execution-control tools are enabled.
func (c *Config) CanUseControlTools() bool {
	return c.Mode == ModeFull
}

// CanAttach returns true if attaching to a running process is allowed.
func (c *Config) CanAttach() bool {
	return c.AllowAttach
}

// CanModifyVariables returns true if variable modification is allowed.
func (c *Config) CanModifyVariables() bool {
	return c.Mode == ModeFull && c.AllowModify
}
