package loader

import (
	"errors"
	"strings"
	"testing"
)

func TestFormatOf(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"/etc/keyburst/config.toml", FormatTOML, false},
		{"config.yaml", FormatYAML, false},
		{"config.YML", FormatYAML, false},
		{"macros.json", FormatJSON, false},
		{"config.lua", FormatLua, false},
		{"config.ini", "", true},
		{"config", "", true},
	}

	for _, tt := range tests {
		got, err := FormatOf(tt.path)
		if (err != nil) != tt.wantErr {
			t.Errorf("FormatOf(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			continue
		}
		if err != nil && !errors.Is(err, ErrUnknownFormat) {
			t.Errorf("FormatOf(%q) error = %v, want ErrUnknownFormat", tt.path, err)
		}
		if got != tt.want {
			t.Errorf("FormatOf(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestForPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/c.toml", "*loader.TOMLLoader"},
		{"/c.yaml", "*loader.YAMLLoader"},
		{"/c.json", "*loader.JSONLoader"},
		{"/c.lua", "*loader.LuaLoader"},
	}

	for _, tt := range tests {
		l, err := ForPath(NewMemFS(), tt.path)
		if err != nil {
			t.Fatalf("ForPath(%q) error: %v", tt.path, err)
		}
		if got := typeName(l); got != tt.want {
			t.Errorf("ForPath(%q) = %s, want %s", tt.path, got, tt.want)
		}
	}

	if _, err := ForPath(NewMemFS(), "/c.xml"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("ForPath(.xml) error = %v, want ErrUnknownFormat", err)
	}
}

func typeName(l FileLoader) string {
	switch l.(type) {
	case *TOMLLoader:
		return "*loader.TOMLLoader"
	case *YAMLLoader:
		return "*loader.YAMLLoader"
	case *JSONLoader:
		return "*loader.JSONLoader"
	case *LuaLoader:
		return "*loader.LuaLoader"
	default:
		return "unknown"
	}
}

func TestFormatsDecodeAlike(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/c.toml", `
toggle_key = "f12"
[macros.j]
mode = 1
keys = ["a", "s"]
`)
	memfs.AddFile("/c.yaml", `
toggle_key: f12
macros:
  j:
    mode: 1
    keys: [a, s]
`)
	memfs.AddFile("/c.json", `{"toggle_key": "f12", "macros": {"j": {"mode": 1, "keys": ["a", "s"]}}}`)
	memfs.AddFile("/c.lua", `
toggle_key = "f12"
macros = { j = { mode = 1, keys = { "a", "s" } } }
`)

	for _, path := range []string{"/c.toml", "/c.yaml", "/c.json", "/c.lua"} {
		t.Run(path, func(t *testing.T) {
			l, err := ForPath(memfs, path)
			if err != nil {
				t.Fatalf("ForPath error: %v", err)
			}
			config, err := l.Load()
			if err != nil {
				t.Fatalf("Load error: %v", err)
			}
			if config["toggle_key"] != "f12" {
				t.Errorf("toggle_key = %v, want f12", config["toggle_key"])
			}
			mode, _ := getByPath(config, "macros.j.mode")
			if mode != int64(1) {
				t.Errorf("macros.j.mode = %v (%T), want int64 1", mode, mode)
			}
			keys, _ := getByPath(config, "macros.j.keys")
			list, ok := keys.([]any)
			if !ok || len(list) != 2 || list[0] != "a" || list[1] != "s" {
				t.Errorf("macros.j.keys = %#v, want [a s]", keys)
			}
		})
	}
}

func TestLoadWithIncludes(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/config.toml", `
"@include" = ["base.yaml", "macros.json"]
toggle_key = "f12"

[timing]
press = 0.02
`)
	memfs.AddFile("/base.yaml", `
toggle_key: "`+"`"+`"
timing:
  press: 0.01
  release: 0.01
`)
	memfs.AddFile("/macros.json", `{"macros": {"j": {"mode": 2, "keys": ["a"]}}}`)

	config, err := LoadWithIncludes(memfs, "/config.toml", 5)
	if err != nil {
		t.Fatalf("LoadWithIncludes failed: %v", err)
	}

	if _, ok := config["@include"]; ok {
		t.Error("@include should be removed from the result")
	}
	if config["toggle_key"] != "f12" {
		t.Errorf("toggle_key = %v, want f12 (including file wins)", config["toggle_key"])
	}
	if v, _ := getByPath(config, "timing.press"); v != 0.02 {
		t.Errorf("timing.press = %v, want 0.02", v)
	}
	if v, _ := getByPath(config, "timing.release"); v != 0.01 {
		t.Errorf("timing.release = %v, want 0.01 (from include)", v)
	}
	if v, _ := getByPath(config, "macros.j.mode"); v != int64(2) {
		t.Errorf("macros.j.mode = %v, want 2 (from json include)", v)
	}
}

func TestLoadWithIncludes_DepthExceeded(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/a.toml", `"@include" = ["b.toml"]`)
	memfs.AddFile("/b.toml", `"@include" = ["c.toml"]`)
	memfs.AddFile("/c.toml", `"@include" = ["d.toml"]`)
	memfs.AddFile("/d.toml", `value = 1`)

	_, err := LoadWithIncludes(memfs, "/a.toml", 2)
	if !errors.Is(err, ErrIncludeDepthExceeded) {
		t.Fatalf("expected ErrIncludeDepthExceeded, got: %v", err)
	}

	config, err := LoadWithIncludes(memfs, "/a.toml", 5)
	if err != nil {
		t.Fatalf("expected success with depth 5, got: %v", err)
	}
	if config["value"] != int64(1) {
		t.Errorf("value = %v, want 1", config["value"])
	}
}

func TestLoadWithIncludes_BadDirective(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/a.toml", `"@include" = 3`)

	_, err := LoadWithIncludes(memfs, "/a.toml", 5)
	if err == nil || !strings.Contains(err.Error(), "@include") {
		t.Fatalf("expected @include error, got: %v", err)
	}
}

func TestParseError_Error(t *testing.T) {
	tests := []struct {
		err  *ParseError
		want string
	}{
		{&ParseError{Path: "c.toml", Message: "bad"}, "parse error in c.toml: bad"},
		{&ParseError{Path: "c.toml", Line: 3, Message: "bad"}, "parse error in c.toml at line 3: bad"},
		{&ParseError{Path: "c.toml", Line: 3, Column: 7, Message: "bad"}, "parse error in c.toml at line 3, column 7: bad"},
	}

	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}
