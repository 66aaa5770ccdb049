// Package profile reads a .NET project's Properties/launchSettings.json,
// the closest .NET analogue of VS Code's launch.json: named profiles that
// carry environment variables and an application URL.
package profile

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/opendbg/netdbg-mcp/pkg/types"
)

const (
	propertiesDirName    = "Properties"
	launchSettingsFile   = "launchSettings.json"
	maxWalkUpLevels      = 5
)

// Discover walks up from startPath (at most maxWalkUpLevels directories)
// looking for Properties/launchSettings.json. Unlike an upward search for a
// VS Code launch.json, the walk is capped, since a project root is
// expected to be nearby.
func Discover(startPath string) (string, error) {
	absPath, err := filepath.Abs(startPath)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path: %w", err)
	}

	if info, err := os.Stat(absPath); err == nil && !info.IsDir() {
		absPath = filepath.Dir(absPath)
	}

	current := absPath
	for i := 0; i <= maxWalkUpLevels; i++ {
		candidate := filepath.Join(current, propertiesDirName, launchSettingsFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}

	return "", fmt.Errorf("no %s/%s found within %d levels of %s", propertiesDirName, launchSettingsFile, maxWalkUpLevels, startPath)
}

// Load reads and parses a launchSettings.json file at an explicit path.
func Load(path string) (*types.LaunchSettings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read launchSettings.json: %w", err)
	}

	var ls types.LaunchSettings
	if err := json.Unmarshal(data, &ls); err != nil {
		return nil, fmt.Errorf("parse launchSettings.json: %w", err)
	}

	return &ls, nil
}

// LoadAndDiscover combines discovery and loading starting from projectPath.
func LoadAndDiscover(projectPath string) (*types.LaunchSettings, string, error) {
	path, err := Discover(projectPath)
	if err != nil {
		return nil, "", err
	}
	ls, err := Load(path)
	if err != nil {
		return nil, "", err
	}
	return ls, path, nil
}

// Resolve picks the named profile (or, if name is empty, a profile with
// CommandName=="Project") and returns its name and the profile as written.
// When several profiles have CommandName=="Project", which one is returned
// is not defined. Merging ApplicationURL into ASPNETCORE_URLS is done by
// ResolvedEnv, not here.
func Resolve(ls *types.LaunchSettings, name string) (string, types.LaunchProfile, error) {
	if name != "" {
		p, ok := ls.Profiles[name]
		if !ok {
			return "", types.LaunchProfile{}, fmt.Errorf("launch profile %q not found", name)
		}
		return name, p, nil
	}

	for profileName, p := range ls.Profiles {
		if p.CommandName == "Project" {
			return profileName, p, nil
		}
	}
	return "", types.LaunchProfile{}, fmt.Errorf("no profile with commandName \"Project\" found")
}

// ResolvedEnv merges a profile's EnvironmentVariables with ASPNETCORE_URLS
// derived from ApplicationURL (if set and not already present) and any
// caller-supplied overrides, in that precedence order (profile < URL <
// overrides).
func ResolvedEnv(p types.LaunchProfile, overrides map[string]string) map[string]string {
	env := make(map[string]string, len(p.EnvironmentVariables)+1)
	for k, v := range p.EnvironmentVariables {
		env[k] = v
	}

	if p.ApplicationURL != "" {
		if _, ok := env["ASPNETCORE_URLS"]; !ok {
			env["ASPNETCORE_URLS"] = p.ApplicationURL
		}
	}

	for k, v := range overrides {
		env[k] = v
	}

	return env
}

// Ports extracts the TCP ports named in a semicolon-separated ApplicationURL
// or ASPNETCORE_URLS value (e.g. "https://localhost:5001;http://localhost:5000").
func Ports(urls string) []int {
	var ports []int
	for _, raw := range strings.Split(urls, ";") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || u.Port() == "" {
			continue
		}
		if port, err := strconv.Atoi(u.Port()); err == nil {
			ports = append(ports, port)
		}
	}
	return ports
}
