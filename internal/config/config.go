package config

import (
	"fmt"
	"sort"
	"time"

	"github.com/dshills/keyburst/internal/dispatcher"
	"github.com/dshills/keyburst/internal/input/key"
	"github.com/dshills/keyburst/internal/input/macro"
	"github.com/dshills/keyburst/internal/logging"
)

// Default timing values.
const (
	DefaultPressDuration   = 10 * time.Millisecond
	DefaultReleaseDuration = 10 * time.Millisecond
	DefaultSequenceDelay   = time.Millisecond
)

// DefaultToggleKey flips macros on and off.
const DefaultToggleKey key.Symbol = "`"

// DefaultForceQuit is the chord that shuts keyburst down.
var DefaultForceQuit = []key.Symbol{"alt", "shift", "delete"}

// Timing holds the global defaults applied while building actions.
type Timing struct {
	// Press is the default hold of each action.
	Press time.Duration
	// Release is the default wait after each action except the last.
	Release time.Duration
	// Sequence is the pause between passes of a continuous macro.
	Sequence time.Duration
}

// EngineSettings tunes the macro engine.
type EngineSettings struct {
	PollSlice       time.Duration
	SelfInjectGrace time.Duration
}

// DispatchSettings tunes the dispatcher.
type DispatchSettings struct {
	SingleShotUnblock time.Duration
}

// Macro is one macro as written in the configuration. Holds and Delays are
// nil when the file leaves them out.
type Macro struct {
	Trigger key.Symbol
	Mode    macro.Mode
	Keys    []key.Symbol
	Holds   []time.Duration
	Delays  []time.Duration
}

// Config is a decoded, validated keyburst configuration.
type Config struct {
	// Path is the file the configuration came from, empty for defaults.
	Path string

	ToggleKey key.Symbol
	ForceQuit []key.Symbol
	LogLevel  logging.Level

	Timing   Timing
	Engine   EngineSettings
	Dispatch DispatchSettings

	Macros map[key.Symbol]Macro

	// Warnings lists problems that do not stop the configuration from
	// being used, such as unknown settings.
	Warnings []string
}

// Default returns the built-in configuration, which has no macros.
func Default() *Config {
	return &Config{
		ToggleKey: DefaultToggleKey,
		ForceQuit: append([]key.Symbol(nil), DefaultForceQuit...),
		LogLevel:  logging.LevelInfo,
		Timing: Timing{
			Press:    DefaultPressDuration,
			Release:  DefaultReleaseDuration,
			Sequence: DefaultSequenceDelay,
		},
		Engine: EngineSettings{
			PollSlice:       macro.DefaultPollSlice,
			SelfInjectGrace: macro.DefaultSelfInjectGrace,
		},
		Dispatch: DispatchSettings{
			SingleShotUnblock: dispatcher.DefaultSingleShotUnblockDelay,
		},
		Macros: make(map[key.Symbol]Macro),
	}
}

// Triggers returns the configured triggers in sorted order.
func (c *Config) Triggers() []key.Symbol {
	out := make([]key.Symbol, 0, len(c.Macros))
	for k := range c.Macros {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Table builds the engine's macro table. Each action's hold defaults to
// Timing.Press; its delay defaults to Timing.Release except on the last
// action, where it defaults to zero. Explicit holds and delays always win.
func (c *Config) Table() macro.Table {
	t := make(macro.Table, len(c.Macros))
	for trig, m := range c.Macros {
		def := macro.Definition{
			Trigger: trig,
			Mode:    m.Mode,
			Actions: make([]macro.Action, len(m.Keys)),
		}
		for i, k := range m.Keys {
			a := macro.Action{
				Key:   k,
				Hold:  c.Timing.Press,
				Delay: c.Timing.Release,
			}
			if i == len(m.Keys)-1 {
				a.Delay = 0
			}
			if m.Holds != nil {
				a.Hold = m.Holds[i]
			}
			if m.Delays != nil {
				a.Delay = m.Delays[i]
			}
			def.Actions[i] = a
		}
		t[trig] = def
	}
	return t
}

// EngineOptions returns the engine timing options.
func (c *Config) EngineOptions() macro.Options {
	return macro.Options{
		PollSlice:       c.Engine.PollSlice,
		SequenceGap:     c.Timing.Sequence,
		SelfInjectGrace: c.Engine.SelfInjectGrace,
	}
}

// DispatcherConfig returns the dispatcher configuration.
func (c *Config) DispatcherConfig() dispatcher.Config {
	return dispatcher.DefaultConfig().
		WithToggleKey(c.ToggleKey).
		WithForceQuit(c.ForceQuit...).
		WithSingleShotUnblockDelay(c.Dispatch.SingleShotUnblock)
}

// UnknownKeys lists every action key r cannot resolve, as
// "macros.<trigger>.keys[i]: name" strings. The engine skips such actions.
func (c *Config) UnknownKeys(r macro.Resolver) []string {
	var out []string
	for _, trig := range c.Triggers() {
		for i, k := range c.Macros[trig].Keys {
			if _, ok := r.Resolve(k); !ok {
				out = append(out, fmt.Sprintf("%s: unknown key %q", Index(Sub("macros."+string(trig), "keys"), i), k))
			}
		}
	}
	return out
}
