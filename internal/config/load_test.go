package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/adrg/xdg"

	"github.com/dshills/keyburst/internal/config/loader"
	"github.com/dshills/keyburst/internal/logging"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, `
toggle_key = "f12"

[macros.j]
mode = 2
keys = ["a", "b"]
`)

	cfg, err := Load(Options{Path: path})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Path != path {
		t.Errorf("Path = %q, want %q", cfg.Path, path)
	}
	if cfg.ToggleKey != "f12" {
		t.Errorf("ToggleKey = %q, want f12", cfg.ToggleKey)
	}
	if len(cfg.Macros) != 1 {
		t.Errorf("Macros = %v, want one macro", cfg.Triggers())
	}
}

func TestLoad_Layers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, `
"@include": base.lua
TOGGLE_KEY: f12
timing:
  press: 0.02
`)
	writeFile(t, filepath.Join(dir, "base.lua"), `
MACROS = { j = { mode = 1, keys = { "w" } } }
KEY_RELEASE_DURATION = 0.04
`)

	t.Setenv("KEYBURST_TOGGLE_KEY", "f9")
	t.Setenv("KEYBURST_TIMING_SEQUENCE", "3ms")

	cfg, err := Load(Options{
		Path:      path,
		EnvPrefix: loader.DefaultEnvPrefix,
		Overrides: map[string]any{"log_level": "warn"},
	})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.ToggleKey != "f9" {
		t.Errorf("ToggleKey = %q, want f9 (environment beats file)", cfg.ToggleKey)
	}
	if cfg.Timing.Press != 20*time.Millisecond {
		t.Errorf("Timing.Press = %v, want 20ms from the file", cfg.Timing.Press)
	}
	if cfg.Timing.Release != 40*time.Millisecond {
		t.Errorf("Timing.Release = %v, want 40ms from the include", cfg.Timing.Release)
	}
	if cfg.Timing.Sequence != 3*time.Millisecond {
		t.Errorf("Timing.Sequence = %v, want 3ms from the environment", cfg.Timing.Sequence)
	}
	if cfg.LogLevel != logging.LevelWarn {
		t.Errorf("LogLevel = %v, want WARN from overrides", cfg.LogLevel)
	}
	if _, ok := cfg.Macros["j"]; !ok {
		t.Errorf("expected macro j from the include, got %v", cfg.Triggers())
	}
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(Options{Path: filepath.Join(t.TempDir(), "none.toml")})
	if !errors.Is(err, ErrFileNotFound) {
		t.Errorf("Load() error = %v, want ErrFileNotFound", err)
	}
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	writeFile(t, path, `{"macros": {"j": {"mode": 5, "keys": ["a"]}}}`)

	cfg, err := Load(Options{Path: path})
	if !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("Load() error = %v, want validation failure", err)
	}
	if cfg == nil || cfg.Path != path {
		t.Error("Load() should still return the partial config with its path")
	}
}

func TestLoad_ParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, "[macros\n")

	_, err := Load(Options{Path: path})
	var perr *loader.ParseError
	if !errors.As(err, &perr) {
		t.Errorf("Load() error = %v, want *loader.ParseError", err)
	}
}

func TestDefaultPath(t *testing.T) {
	dir := t.TempDir()
	t.Cleanup(xdg.Reload)
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("XDG_CONFIG_DIRS", filepath.Join(dir, "system"))
	xdg.Reload()

	if _, err := DefaultPath(); !errors.Is(err, ErrNoConfig) {
		t.Fatalf("DefaultPath() error = %v, want ErrNoConfig", err)
	}

	want := filepath.Join(dir, AppName, "config.yml")
	writeFile(t, want, "macros: {}\n")

	got, err := DefaultPath()
	if err != nil {
		t.Fatalf("DefaultPath() error: %v", err)
	}
	if got != want {
		t.Errorf("DefaultPath() = %q, want %q", got, want)
	}

	user, err := UserPath(loader.FormatTOML)
	if err != nil {
		t.Fatalf("UserPath() error: %v", err)
	}
	if user != filepath.Join(dir, AppName, "config.toml") {
		t.Errorf("UserPath() = %q", user)
	}
}
