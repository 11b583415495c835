package loader

import (
	"errors"
	"io/fs"
	"strings"
	"testing"
	"time"
)

// MemFS is an in-memory file system for testing.
type MemFS struct {
	files map[string][]byte
}

func NewMemFS() *MemFS {
	return &MemFS{files: make(map[string][]byte)}
}

func (m *MemFS) AddFile(path string, content string) {
	m.files[path] = []byte(content)
}

func (m *MemFS) Open(name string) (fs.File, error) {
	return nil, fs.ErrNotExist
}

func (m *MemFS) ReadFile(path string) ([]byte, error) {
	data, ok := m.files[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return data, nil
}

func (m *MemFS) Stat(path string) (fs.FileInfo, error) {
	if _, ok := m.files[path]; ok {
		return &memFileInfo{name: path}, nil
	}
	return nil, fs.ErrNotExist
}

type memFileInfo struct {
	name string
}

func (f *memFileInfo) Name() string       { return f.name }
func (f *memFileInfo) Size() int64        { return 0 }
func (f *memFileInfo) Mode() fs.FileMode  { return 0644 }
func (f *memFileInfo) ModTime() time.Time { return time.Now() }
func (f *memFileInfo) IsDir() bool        { return false }
func (f *memFileInfo) Sys() any           { return nil }

func TestTOMLLoader_Load(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/config.toml", `
toggle_key = "`+"`"+`"

[timing]
press = 0.02
release = "15ms"

[macros.j]
mode = 2
keys = ["a", "b"]
`)

	loader := NewTOMLLoaderWithFS(memfs, "/config.toml")
	config, err := loader.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if config["toggle_key"] != "`" {
		t.Errorf("toggle_key = %v, want '`'", config["toggle_key"])
	}

	timing, ok := config["timing"].(map[string]any)
	if !ok {
		t.Fatal("expected timing to be a map")
	}
	if timing["press"] != 0.02 {
		t.Errorf("press = %v (%T), want 0.02", timing["press"], timing["press"])
	}
	if timing["release"] != "15ms" {
		t.Errorf("release = %v, want '15ms'", timing["release"])
	}

	j, ok := getByPath(config, "macros.j")
	if !ok {
		t.Fatal("expected macros.j")
	}
	macro := j.(map[string]any)
	if macro["mode"] != int64(2) {
		t.Errorf("mode = %v (%T), want 2", macro["mode"], macro["mode"])
	}
	if keys, ok := macro["keys"].([]any); !ok || len(keys) != 2 {
		t.Errorf("keys = %v, want [a b]", macro["keys"])
	}
}

func TestTOMLLoader_LoadNonExistent(t *testing.T) {
	memfs := NewMemFS()
	loader := NewTOMLLoaderWithFS(memfs, "/nonexistent.toml")

	config, err := loader.Load()
	if err != nil {
		t.Fatalf("expected no error for non-existent file, got: %v", err)
	}
	if config != nil {
		t.Error("expected nil config for non-existent file")
	}
}

func TestTOMLLoader_LoadInvalid(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/invalid.toml", `
[timing
press = 4
`)

	loader := NewTOMLLoaderWithFS(memfs, "/invalid.toml")
	_, err := loader.Load()
	if err == nil {
		t.Fatal("expected parse error")
	}

	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if parseErr.Path != "/invalid.toml" {
		t.Errorf("Path = %q, want '/invalid.toml'", parseErr.Path)
	}
	if parseErr.Line == 0 {
		t.Error("expected a line number in the parse error")
	}
}

func TestTOMLLoader_LoadFromReader(t *testing.T) {
	loader := &TOMLLoader{}

	content := `
toggle_key = "f12"
log_level = "debug"
`
	config, err := loader.LoadFromReader(strings.NewReader(content))
	if err != nil {
		t.Fatalf("LoadFromReader failed: %v", err)
	}

	if config["toggle_key"] != "f12" {
		t.Errorf("toggle_key = %v, want 'f12'", config["toggle_key"])
	}
	if config["log_level"] != "debug" {
		t.Errorf("log_level = %v, want 'debug'", config["log_level"])
	}
}

func TestTOMLLoader_Empty(t *testing.T) {
	config, err := (&TOMLLoader{}).LoadFromReader(strings.NewReader(""))
	if err != nil {
		t.Fatalf("LoadFromReader failed: %v", err)
	}
	if config == nil || len(config) != 0 {
		t.Errorf("expected empty non-nil map, got %v", config)
	}
}

func TestDeepMerge(t *testing.T) {
	tests := []struct {
		name     string
		dst      map[string]any
		src      map[string]any
		expected map[string]any
	}{
		{
			name:     "nil dst",
			dst:      nil,
			src:      map[string]any{"a": 1},
			expected: map[string]any{"a": 1},
		},
		{
			name:     "nil src",
			dst:      map[string]any{"a": 1},
			src:      nil,
			expected: map[string]any{"a": 1},
		},
		{
			name:     "src overrides dst",
			dst:      map[string]any{"toggle_key": "`"},
			src:      map[string]any{"toggle_key": "f12"},
			expected: map[string]any{"toggle_key": "f12"},
		},
		{
			name: "nested merge",
			dst: map[string]any{
				"timing": map[string]any{"press": 0.01},
			},
			src: map[string]any{
				"timing": map[string]any{"release": 0.02},
			},
			expected: map[string]any{
				"timing": map[string]any{"press": 0.01, "release": 0.02},
			},
		},
		{
			name: "nested override",
			dst: map[string]any{
				"timing": map[string]any{"press": 0.01},
			},
			src: map[string]any{
				"timing": map[string]any{"press": 0.05},
			},
			expected: map[string]any{
				"timing": map[string]any{"press": 0.05},
			},
		},
		{
			name:     "map replaced by scalar",
			dst:      map[string]any{"timing": map[string]any{"press": 0.01}},
			src:      map[string]any{"timing": "fast"},
			expected: map[string]any{"timing": "fast"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := DeepMerge(tt.dst, tt.src)
			if !mapsEqual(result, tt.expected) {
				t.Errorf("DeepMerge() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestClone(t *testing.T) {
	original := map[string]any{
		"toggle_key": "`",
		"macros": map[string]any{
			"j": map[string]any{"keys": []any{"a", "b"}},
		},
		"force_quit": []any{"alt", "shift", "delete"},
	}

	cloned := Clone(original)

	original["toggle_key"] = "f12"
	original["macros"].(map[string]any)["j"].(map[string]any)["keys"].([]any)[0] = "x"
	original["force_quit"].([]any)[0] = "ctrl"

	if cloned["toggle_key"] != "`" {
		t.Error("clone was affected by original modification")
	}
	keys := cloned["macros"].(map[string]any)["j"].(map[string]any)["keys"].([]any)
	if keys[0] != "a" {
		t.Error("nested clone was affected by original modification")
	}
	if cloned["force_quit"].([]any)[0] != "alt" {
		t.Error("array clone was affected by original modification")
	}
}

func TestClone_Nil(t *testing.T) {
	if Clone(nil) != nil {
		t.Error("Clone(nil) should return nil")
	}
}

// mapsEqual compares two maps for equality (simple version for tests).
func mapsEqual(a, b map[string]any) bool {
	if len(a) != len(b) {
		return false
	}
	for k, va := range a {
		vb, ok := b[k]
		if !ok {
			return false
		}
		switch ta := va.(type) {
		case map[string]any:
			tb, ok := vb.(map[string]any)
			if !ok || !mapsEqual(ta, tb) {
				return false
			}
		default:
			if va != vb {
				return false
			}
		}
	}
	return true
}
