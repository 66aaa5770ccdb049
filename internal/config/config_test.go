package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigCapabilities(t *testing.T) {
	cfg := DefaultConfig()

	if !cfg.CanUseControlTools() {
		t.Error("expected default mode to enable control tools")
	}
	if !cfg.CanAttach() {
		t.Error("expected default config to allow attach")
	}
	if !cfg.CanModifyVariables() {
		t.Error("expected default config to allow variable modification")
	}
}

func TestReadOnlyModeDisablesControlAndModify(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mode = ModeReadOnly

	if cfg.CanUseControlTools() {
		t.Error("expected readonly mode to disable control tools")
	}
	if cfg.CanModifyVariables() {
		t.Error("expected readonly mode to disable variable modification even with AllowModify set")
	}
}

func TestLoadConfigEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig(\"\"): %v", err)
	}
	if cfg.Mode != ModeFull {
		t.Fatalf("expected default mode full, got %s", cfg.Mode)
	}
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	content := `{"mode": "readonly", "maxSessions": 3}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Mode != ModeReadOnly {
		t.Fatalf("expected overridden mode readonly, got %s", cfg.Mode)
	}
	if cfg.MaxSessions != 3 {
		t.Fatalf("expected overridden maxSessions 3, got %d", cfg.MaxSessions)
	}
	// Fields the file doesn't set should retain DefaultConfig's values.
	if cfg.DotnetPath != "dotnet" {
		t.Fatalf("expected dotnetPath to keep default 'dotnet', got %q", cfg.DotnetPath)
	}
}

func TestLoadConfigMissingFileErrors(t *testing.T) {
	if _, err := LoadConfig("/no/such/config.json"); err == nil {
		t.Fatal("expected error loading a nonexistent config file")
	}
}

func TestLoadConfigMalformedJSONErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error loading malformed config JSON")
	}
}
