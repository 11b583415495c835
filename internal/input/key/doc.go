// Package key defines key symbols and the raw hook event type, and the
// normalisation that maps whatever name a hook back-end reports onto the
// canonical symbol used throughout keyburst.
//
// # Symbols
//
// A Symbol is the lower-case, layout-independent name of a physical key:
// "a", "1", "`", "space", "left", "f5", "numpad 3", "right shift". Shifted
// punctuation reported by some back-ends ("!", "@", "{") is mapped back to
// the unshifted key that produced it, and keypad keys always carry the
// "numpad " prefix so they never collide with the main block.
//
// Canonical is the configuration-side entry point (aliases, case and width
// folding); Normalize additionally applies the shift map and keypad prefix
// and is what the dispatcher runs on every hook event.
package key
