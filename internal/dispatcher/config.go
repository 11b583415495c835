package dispatcher

import (
	"time"

	"github.com/dshills/keyburst/internal/input/key"
)

// DefaultSingleShotUnblockDelay is how long a released single-shot trigger
// stays blocked against a new press.
const DefaultSingleShotUnblockDelay = 50 * time.Millisecond

// Config holds dispatcher configuration options.
type Config struct {
	// ToggleKey flips macros on and off.
	ToggleKey key.Symbol

	// ForceQuit is the chord that shuts the process down.
	ForceQuit []key.Symbol

	// SingleShotUnblockDelay is the debounce window after a single-shot
	// trigger is released.
	SingleShotUnblockDelay time.Duration
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		ToggleKey:              "`",
		ForceQuit:              []key.Symbol{"alt", "shift", "delete"},
		SingleShotUnblockDelay: DefaultSingleShotUnblockDelay,
	}
}

// WithToggleKey returns a copy of the config with the toggle key set.
func (c Config) WithToggleKey(k key.Symbol) Config {
	c.ToggleKey = k
	return c
}

// WithForceQuit returns a copy of the config with the force-quit chord set.
func (c Config) WithForceQuit(keys ...key.Symbol) Config {
	c.ForceQuit = append([]key.Symbol(nil), keys...)
	return c
}

// WithSingleShotUnblockDelay returns a copy of the config with the
// single-shot debounce window set.
func (c Config) WithSingleShotUnblockDelay(d time.Duration) Config {
	c.SingleShotUnblockDelay = d
	return c
}

// normalize canonicalises key names and fills zero values.
func (c Config) normalize() Config {
	c.ToggleKey = key.Normalize(string(c.ToggleKey), false)
	keys := make([]key.Symbol, 0, len(c.ForceQuit))
	for _, k := range c.ForceQuit {
		if n := key.Normalize(string(k), false); !n.IsNone() {
			keys = append(keys, n)
		}
	}
	c.ForceQuit = keys
	if c.SingleShotUnblockDelay < 0 {
		c.SingleShotUnblockDelay = 0
	}
	return c
}

// Validate reports settings the dispatcher cannot honour. An empty
// force-quit chord is allowed and disables the chord.
func (c Config) Validate() error {
	c = c.normalize()
	if c.ToggleKey.IsNone() {
		return ErrNoToggleKey
	}
	for _, k := range c.ForceQuit {
		if k == c.ToggleKey {
			return ErrToggleInForceQuit
		}
	}
	return nil
}
