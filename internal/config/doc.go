// Package config loads and validates keyburst configuration.
//
// # Sources
//
// Configuration is layered, higher layers overriding lower:
//
//	┌──────────────────────────────┐
//	│  4. Command-line overrides   │  ← --log-level and friends
//	├──────────────────────────────┤
//	│  3. Environment variables    │  ← KEYBURST_TOGGLE_KEY, ...
//	├──────────────────────────────┤
//	│  2. Configuration file       │  ← ~/.config/keyburst/config.toml
//	│     (+ its @include files)   │
//	├──────────────────────────────┤
//	│  1. Built-in defaults        │
//	└──────────────────────────────┘
//
// The file may be TOML, YAML, JSON or a Lua script; see package loader.
//
// # Schema
//
//	toggle_key = "`"
//	force_quit = ["alt", "shift", "delete"]
//	log_level  = "info"
//
//	[timing]            # seconds, or a duration string such as "15ms"
//	press    = 0.01     # default hold of every action
//	release  = 0.01     # default delay after every action but the last
//	sequence = 0.001    # pause between passes of a continuous macro
//
//	[engine]
//	poll_slice        = "10ms"
//	self_inject_grace = "30ms"
//
//	[dispatch]
//	single_shot_unblock = "50ms"
//
//	[macros.j]
//	mode   = 2          # 0 disabled, 1 continuous, 2 single-shot
//	keys   = ["a", "s", "d"]
//	holds  = [0.02, 0.02, 0.05]   # optional, one per key
//	delays = [0.01, 0.01, 0]      # optional, one per key
//
// Setting names are case-insensitive, and the flat names MACROS,
// TOGGLE_KEY, KEY_PRESS_DURATION, KEY_RELEASE_DURATION and SEQUENCE_DELAY
// are accepted so that configurations written as plain global assignments
// (for example in Lua) keep working.
//
// # Validation
//
// Decode collects every problem into a *ValidationErrors, each tagged with
// the path of the offending value (macros.j.delays[1]). Problems that do
// not stop the configuration from working, such as unknown settings, are
// reported in Config.Warnings instead.
//
// # Reloading
//
// Package watcher reports changes to the file; the application re-runs
// Load and applies the result only when it validates.
package config
