package dispatcher

import "github.com/dshills/keyburst/internal/input/key"

// Chord tracks a set of keys that must be held together.
type Chord struct {
	keys    key.Set
	pressed key.Set
}

// NewChord creates a chord over keys.
func NewChord(keys ...key.Symbol) *Chord {
	return &Chord{
		keys:    key.NewSet(keys...),
		pressed: key.NewSet(),
	}
}

// Contains reports whether k is part of the chord.
func (c *Chord) Contains(k key.Symbol) bool {
	return c.keys.Has(k)
}

// Press records k as down and reports whether the chord is now complete.
// Keys outside the chord are ignored.
func (c *Chord) Press(k key.Symbol) bool {
	if c.keys.Has(k) {
		c.pressed.Add(k)
	}
	return c.Complete()
}

// Release records k as up.
func (c *Chord) Release(k key.Symbol) {
	c.pressed.Remove(k)
}

// Complete reports whether every chord key is down. An empty chord is
// never complete.
func (c *Chord) Complete() bool {
	return len(c.keys) > 0 && c.pressed.ContainsAll(c.keys)
}

// Reset forgets every pressed key.
func (c *Chord) Reset() {
	c.pressed = key.NewSet()
}

// Keys returns the chord keys sorted.
func (c *Chord) Keys() []key.Symbol {
	return c.keys.Sorted()
}
