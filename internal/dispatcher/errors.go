package dispatcher

import "errors"

// Configuration errors reported by Config.Validate.
var (
	// ErrNoToggleKey indicates the toggle key is empty.
	ErrNoToggleKey = errors.New("dispatcher: no toggle key")

	// ErrToggleInForceQuit indicates the toggle key is also a key of the
	// force-quit chord, so the chord could never be completed with macros
	// in a known state.
	ErrToggleInForceQuit = errors.New("dispatcher: toggle key is part of the force-quit chord")
)
