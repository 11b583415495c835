package config

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dshills/keyburst/internal/input/key"
	"github.com/dshills/keyburst/internal/input/macro"
	"github.com/dshills/keyburst/internal/input/scancode"
	"github.com/dshills/keyburst/internal/logging"
)

func validRaw() map[string]any {
	return map[string]any{
		"toggle_key": "`",
		"macros": map[string]any{
			"j": map[string]any{
				"mode": int64(2),
				"keys": []any{"a", "s", "d"},
			},
		},
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.ToggleKey != "`" {
		t.Errorf("ToggleKey = %q, want '`'", cfg.ToggleKey)
	}
	if len(cfg.ForceQuit) != 3 {
		t.Errorf("ForceQuit = %v, want alt shift delete", cfg.ForceQuit)
	}
	if cfg.Timing.Press != 10*time.Millisecond || cfg.Timing.Release != 10*time.Millisecond {
		t.Errorf("Timing = %+v, want 10ms press and release", cfg.Timing)
	}
	if cfg.Timing.Sequence != time.Millisecond {
		t.Errorf("Timing.Sequence = %v, want 1ms", cfg.Timing.Sequence)
	}
	if cfg.Engine.PollSlice != macro.DefaultPollSlice {
		t.Errorf("Engine.PollSlice = %v, want %v", cfg.Engine.PollSlice, macro.DefaultPollSlice)
	}
	if cfg.Dispatch.SingleShotUnblock != 50*time.Millisecond {
		t.Errorf("Dispatch.SingleShotUnblock = %v, want 50ms", cfg.Dispatch.SingleShotUnblock)
	}
}

func TestDecode_Valid(t *testing.T) {
	raw := map[string]any{
		"toggle_key": "F12",
		"force_quit": "ctrl+alt+end",
		"log_level":  "debug",
		"timing": map[string]any{
			"press":    0.02,
			"release":  "15ms",
			"sequence": int64(0),
		},
		"engine":   map[string]any{"poll_slice": "5ms"},
		"dispatch": map[string]any{"single_shot_unblock": 0.1},
		"macros": map[string]any{
			"J": map[string]any{
				"mode":   "continuous",
				"keys":   []any{"W", int64(1)},
				"holds":  []any{0.03, "40ms"},
				"delays": []any{int64(0), 0.005},
			},
			"!": map[string]any{
				"mode": int64(0),
				"keys": []any{"e"},
			},
		},
	}

	cfg, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}

	if cfg.ToggleKey != "f12" {
		t.Errorf("ToggleKey = %q, want f12", cfg.ToggleKey)
	}
	wantQuit := []key.Symbol{"ctrl", "alt", "end"}
	if len(cfg.ForceQuit) != 3 || cfg.ForceQuit[0] != wantQuit[0] || cfg.ForceQuit[2] != wantQuit[2] {
		t.Errorf("ForceQuit = %v, want %v", cfg.ForceQuit, wantQuit)
	}
	if cfg.LogLevel != logging.LevelDebug {
		t.Errorf("LogLevel = %v, want DEBUG", cfg.LogLevel)
	}
	if cfg.Timing.Press != 20*time.Millisecond || cfg.Timing.Release != 15*time.Millisecond || cfg.Timing.Sequence != 0 {
		t.Errorf("Timing = %+v", cfg.Timing)
	}
	if cfg.Engine.PollSlice != 5*time.Millisecond {
		t.Errorf("PollSlice = %v, want 5ms", cfg.Engine.PollSlice)
	}
	if cfg.Dispatch.SingleShotUnblock != 100*time.Millisecond {
		t.Errorf("SingleShotUnblock = %v, want 100ms", cfg.Dispatch.SingleShotUnblock)
	}

	j, ok := cfg.Macros["j"]
	if !ok {
		t.Fatalf("expected trigger j, got %v", cfg.Triggers())
	}
	if j.Mode != macro.ModeContinuous {
		t.Errorf("j.Mode = %v, want continuous", j.Mode)
	}
	if len(j.Keys) != 2 || j.Keys[0] != "w" || j.Keys[1] != "1" {
		t.Errorf("j.Keys = %v, want [w 1]", j.Keys)
	}
	if j.Holds[1] != 40*time.Millisecond || j.Delays[1] != 5*time.Millisecond {
		t.Errorf("j.Holds = %v, j.Delays = %v", j.Holds, j.Delays)
	}

	// Shifted punctuation triggers fold to the base key, as events do.
	if _, ok := cfg.Macros["1"]; !ok {
		t.Errorf("expected trigger ! to fold to 1, got %v", cfg.Triggers())
	}
}

func TestDecode_Legacy(t *testing.T) {
	raw := map[string]any{
		"MACROS": map[string]any{
			"q": map[string]any{"MODE": int64(1), "KEYS": []any{"a"}},
		},
		"TOGGLE_KEY":           "f1",
		"KEY_PRESS_DURATION":   0.05,
		"KEY_RELEASE_DURATION": 0.02,
		"SEQUENCE_DELAY":       0.003,
	}

	cfg, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if cfg.ToggleKey != "f1" {
		t.Errorf("ToggleKey = %q, want f1", cfg.ToggleKey)
	}
	if cfg.Timing.Press != 50*time.Millisecond || cfg.Timing.Release != 20*time.Millisecond || cfg.Timing.Sequence != 3*time.Millisecond {
		t.Errorf("Timing = %+v", cfg.Timing)
	}
	if cfg.Macros["q"].Mode != macro.ModeContinuous {
		t.Errorf("q.Mode = %v, want continuous", cfg.Macros["q"].Mode)
	}
	if len(cfg.Warnings) != 0 {
		t.Errorf("legacy names should not warn, got %v", cfg.Warnings)
	}
}

func TestDecode_TimingSectionBeatsLegacy(t *testing.T) {
	raw := validRaw()
	raw["key_press_duration"] = 0.05
	raw["timing"] = map[string]any{"press": 0.02}

	cfg, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if cfg.Timing.Press != 20*time.Millisecond {
		t.Errorf("Timing.Press = %v, want 20ms", cfg.Timing.Press)
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name  string
		raw   map[string]any
		paths []string
	}{
		{
			name:  "missing macros",
			raw:   map[string]any{"toggle_key": "`"},
			paths: []string{"macros"},
		},
		{
			name: "toggle in force quit",
			raw: map[string]any{
				"toggle_key": "Delete",
				"macros":     map[string]any{"j": map[string]any{"mode": 2, "keys": []any{"a"}}},
			},
			paths: []string{"toggle_key"},
		},
		{
			name:  "empty macros",
			raw:   map[string]any{"macros": map[string]any{}},
			paths: []string{"macros"},
		},
		{
			name:  "macros not a table",
			raw:   map[string]any{"macros": "j"},
			paths: []string{"macros"},
		},
		{
			name: "macro not a table",
			raw: map[string]any{"macros": map[string]any{
				"j": []any{"a"},
			}},
			paths: []string{"macros.j"},
		},
		{
			name: "missing keys and mode",
			raw: map[string]any{"macros": map[string]any{
				"j": map[string]any{"holds": []any{0.1}},
			}},
			paths: []string{"macros.j.mode", "macros.j.keys"},
		},
		{
			name: "bad mode",
			raw: map[string]any{"macros": map[string]any{
				"j": map[string]any{"mode": int64(3), "keys": []any{"a"}},
			}},
			paths: []string{"macros.j.mode"},
		},
		{
			name: "keys not a list",
			raw: map[string]any{"macros": map[string]any{
				"j": map[string]any{"mode": int64(1), "keys": "a"},
			}},
			paths: []string{"macros.j.keys"},
		},
		{
			name: "empty keys",
			raw: map[string]any{"macros": map[string]any{
				"j": map[string]any{"mode": int64(1), "keys": []any{}},
			}},
			paths: []string{"macros.j.keys"},
		},
		{
			name: "delays length mismatch",
			raw: map[string]any{"macros": map[string]any{
				"j": map[string]any{"mode": int64(2), "keys": []any{"a", "b"}, "delays": []any{0.1}},
			}},
			paths: []string{"macros.j.delays"},
		},
		{
			name: "negative delay",
			raw: map[string]any{"macros": map[string]any{
				"j": map[string]any{"mode": int64(2), "keys": []any{"a", "b"}, "delays": []any{0.1, -0.5}},
			}},
			paths: []string{"macros.j.delays[1]"},
		},
		{
			name: "hold not a number",
			raw: map[string]any{"macros": map[string]any{
				"j": map[string]any{"mode": int64(2), "keys": []any{"a"}, "holds": []any{true}},
			}},
			paths: []string{"macros.j.holds[0]"},
		},
		{
			name: "duplicate trigger after folding",
			raw: map[string]any{"macros": map[string]any{
				"J": map[string]any{"mode": int64(2), "keys": []any{"a"}},
				"j": map[string]any{"mode": int64(2), "keys": []any{"b"}},
			}},
			paths: []string{"macros.j"},
		},
		{
			name: "negative timing",
			raw: func() map[string]any {
				r := validRaw()
				r["timing"] = map[string]any{"press": -0.01}
				return r
			}(),
			paths: []string{"timing.press"},
		},
		{
			name: "bad toggle and log level",
			raw: func() map[string]any {
				r := validRaw()
				r["toggle_key"] = true
				r["log_level"] = "loud"
				return r
			}(),
			paths: []string{"toggle_key", "log_level"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.raw)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, ErrValidationFailed) {
				t.Errorf("errors.Is(err, ErrValidationFailed) = false for %v", err)
			}
			verrs, ok := IsValidation(err)
			if !ok {
				t.Fatalf("expected *ValidationErrors, got %T", err)
			}
			for _, p := range tt.paths {
				if len(verrs.ErrorsForPath(p)) == 0 {
					t.Errorf("expected an error at %s, got:\n%v", p, verrs)
				}
			}
		})
	}
}

func TestDecode_CollectsAllErrors(t *testing.T) {
	raw := map[string]any{
		"timing": map[string]any{"press": "soon"},
		"macros": map[string]any{
			"j": map[string]any{"mode": int64(9), "keys": []any{}},
			"k": map[string]any{"mode": int64(1)},
		},
	}

	_, err := Decode(raw)
	verrs, ok := IsValidation(err)
	if !ok {
		t.Fatalf("expected *ValidationErrors, got %v", err)
	}
	if verrs.Len() != 4 {
		t.Errorf("Len() = %d, want 4:\n%v", verrs.Len(), verrs)
	}
	if got := len(verrs.ErrorsUnderPath("macros.j")); got != 2 {
		t.Errorf("errors under macros.j = %d, want 2", got)
	}
}

func TestDecode_Warnings(t *testing.T) {
	raw := validRaw()
	raw["theme"] = "dark"
	raw["macros"].(map[string]any)["j"].(map[string]any)["repeat"] = true
	raw["macros"].(map[string]any)["`"] = map[string]any{"mode": int64(2), "keys": []any{"x"}}

	cfg, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}

	joined := strings.Join(cfg.Warnings, "\n")
	for _, want := range []string{"theme", "macros.j.repeat", "toggle key"} {
		if !strings.Contains(joined, want) {
			t.Errorf("expected warning mentioning %q, got:\n%s", want, joined)
		}
	}
}

func TestDecode_PollSliceCapped(t *testing.T) {
	raw := validRaw()
	raw["engine"] = map[string]any{"poll_slice": "200ms"}

	cfg, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if cfg.Engine.PollSlice != macro.MaxPollSlice {
		t.Errorf("PollSlice = %v, want capped to %v", cfg.Engine.PollSlice, macro.MaxPollSlice)
	}
}

func TestConfig_Table(t *testing.T) {
	raw := map[string]any{
		"timing": map[string]any{"press": 0.03, "release": 0.02},
		"macros": map[string]any{
			"j": map[string]any{"mode": int64(2), "keys": []any{"a", "s", "d"}},
			"k": map[string]any{
				"mode":   int64(1),
				"keys":   []any{"q", "w"},
				"holds":  []any{0.05, 0},
				"delays": []any{0, 0.07},
			},
		},
	}

	cfg, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	table := cfg.Table()
	if err := table.Validate(); err != nil {
		t.Fatalf("table.Validate() error: %v", err)
	}

	j := table["j"]
	want := []macro.Action{
		{Key: "a", Hold: 30 * time.Millisecond, Delay: 20 * time.Millisecond},
		{Key: "s", Hold: 30 * time.Millisecond, Delay: 20 * time.Millisecond},
		{Key: "d", Hold: 30 * time.Millisecond, Delay: 0},
	}
	for i, a := range j.Actions {
		if a != want[i] {
			t.Errorf("j.Actions[%d] = %+v, want %+v", i, a, want[i])
		}
	}

	k := table["k"]
	if k.Actions[0].Hold != 50*time.Millisecond || k.Actions[0].Delay != 0 {
		t.Errorf("k.Actions[0] = %+v, explicit values must win", k.Actions[0])
	}
	if k.Actions[1].Hold != 0 || k.Actions[1].Delay != 70*time.Millisecond {
		t.Errorf("k.Actions[1] = %+v, explicit values must win", k.Actions[1])
	}
}

func TestConfig_EngineAndDispatcher(t *testing.T) {
	cfg, err := Decode(validRaw())
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	cfg.Timing.Sequence = 4 * time.Millisecond

	opts := cfg.EngineOptions()
	if opts.SequenceGap != 4*time.Millisecond || opts.PollSlice != macro.DefaultPollSlice {
		t.Errorf("EngineOptions() = %+v", opts)
	}

	dc := cfg.DispatcherConfig()
	if dc.ToggleKey != "`" || len(dc.ForceQuit) != 3 || dc.SingleShotUnblockDelay != 50*time.Millisecond {
		t.Errorf("DispatcherConfig() = %+v", dc)
	}
}

func TestConfig_UnknownKeys(t *testing.T) {
	raw := validRaw()
	raw["macros"].(map[string]any)["j"].(map[string]any)["keys"] = []any{"a", "warp", "d"}

	cfg, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	unknown := cfg.UnknownKeys(scancode.Default)
	if len(unknown) != 1 || !strings.Contains(unknown[0], "macros.j.keys[1]") {
		t.Errorf("UnknownKeys() = %v, want one entry for macros.j.keys[1]", unknown)
	}
}
