package macro

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dshills/keyburst/internal/input/key"
)

// Mode is the execution policy of a macro.
type Mode int

const (
	// ModeDisabled ignores the trigger.
	ModeDisabled Mode = iota
	// ModeContinuous repeats the actions while the trigger is held.
	ModeContinuous
	// ModeSingleShot runs the actions once per press, single-flight.
	ModeSingleShot
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeDisabled:
		return "disabled"
	case ModeContinuous:
		return "continuous"
	case ModeSingleShot:
		return "single-shot"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m >= ModeDisabled && m <= ModeSingleShot
}

// ErrUnknownMode is returned by ParseMode for unrecognised names.
var ErrUnknownMode = errors.New("unknown macro mode")

// ParseMode parses a mode from its numeric code (0, 1, 2) or a name.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "0", "disabled", "off", "none":
		return ModeDisabled, nil
	case "1", "continuous", "repeat", "hold":
		return ModeContinuous, nil
	case "2", "single-shot", "single_shot", "singleshot", "single", "once":
		return ModeSingleShot, nil
	}
	if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		return Mode(n), fmt.Errorf("%w: %d", ErrUnknownMode, n)
	}
	return ModeDisabled, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Action is one press, hold, release, delay step.
type Action struct {
	// Key is the key to drive.
	Key key.Symbol

	// Hold is how long the key stays pressed.
	Hold time.Duration

	// Delay is the wait after release before the next action.
	Delay time.Duration
}

// Definition binds a trigger to a mode and an action list.
type Definition struct {
	Trigger key.Symbol
	Mode    Mode
	Actions []Action
}

// Enabled reports whether the definition reacts to its trigger.
func (d Definition) Enabled() bool {
	return d.Mode != ModeDisabled
}

// Validate checks the definition invariants.
func (d Definition) Validate() error {
	if d.Trigger.IsNone() {
		return errors.New("empty trigger")
	}
	if !d.Mode.Valid() {
		return fmt.Errorf("macro %s: %w: %d", d.Trigger, ErrUnknownMode, int(d.Mode))
	}
	if d.Mode != ModeDisabled && len(d.Actions) == 0 {
		return fmt.Errorf("macro %s: %s mode requires at least one action", d.Trigger, d.Mode)
	}
	for i, a := range d.Actions {
		if a.Key.IsNone() {
			return fmt.Errorf("macro %s: action %d: empty key", d.Trigger, i)
		}
		if a.Hold < 0 {
			return fmt.Errorf("macro %s: action %d: negative hold %v", d.Trigger, i, a.Hold)
		}
		if a.Delay < 0 {
			return fmt.Errorf("macro %s: action %d: negative delay %v", d.Trigger, i, a.Delay)
		}
	}
	return nil
}

// Table maps triggers to definitions.
type Table map[key.Symbol]Definition

// Validate checks every definition and that each is stored under its own
// trigger. All failures are joined.
func (t Table) Validate() error {
	var errs []error
	for _, trig := range t.Triggers(true) {
		d := t[trig]
		if d.Trigger != trig {
			errs = append(errs, fmt.Errorf("macro stored under %s has trigger %s", trig, d.Trigger))
			continue
		}
		if err := d.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Triggers returns the sorted trigger keys. Disabled definitions are
// included only when all is true.
func (t Table) Triggers(all bool) []key.Symbol {
	out := make([]key.Symbol, 0, len(t))
	for k, d := range t {
		if all || d.Enabled() {
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Clone returns a deep copy of the table.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for k, d := range t {
		actions := make([]Action, len(d.Actions))
		copy(actions, d.Actions)
		d.Actions = actions
		out[k] = d
	}
	return out
}
