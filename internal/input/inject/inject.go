// Package inject issues hardware-level key presses and releases.
//
// The engine only depends on the Injector interface. The system injector
// talks to the OS (SendInput on Windows); Recorder keeps every call in memory
// for tests and dry runs.
package inject

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dshills/keyburst/internal/input/scancode"
	"github.com/dshills/keyburst/internal/logging"
)

// Marker is stamped into the extra-info field of every injected event so the
// hook source can tell engine input from hardware input on the same key.
const Marker uintptr = 0x4B425354

// ErrRejected is returned when the OS accepts fewer events than were sent.
var ErrRejected = errors.New("input rejected by the system")

// Injector presses and releases a single physical key.
type Injector interface {
	Press(code scancode.Code) error
	Release(code scancode.Code) error
}

// Op is the direction of an injected key transition.
type Op uint8

const (
	// OpPress is a key-down transition.
	OpPress Op = iota
	// OpRelease is a key-up transition.
	OpRelease
)

// String returns "press" or "release".
func (o Op) String() string {
	if o == OpRelease {
		return "release"
	}
	return "press"
}

// Call is one recorded injection.
type Call struct {
	Op   Op
	Code scancode.Code
	At   time.Time
}

// Recorder is an Injector that records calls instead of sending them.
// Failures can be configured per code and direction.
type Recorder struct {
	mu     sync.Mutex
	calls  []Call
	fail   map[failKey]error
	logger *logging.Logger
}

type failKey struct {
	op   Op
	code scancode.Code
}

// NewRecorder creates a recorder. A non-nil logger makes the recorder log
// every call at info level, which is how dry-run mode reports what it would
// have sent.
func NewRecorder(logger *logging.Logger) *Recorder {
	r := &Recorder{fail: make(map[failKey]error)}
	if logger != nil {
		r.logger = logger.WithComponent("inject")
	}
	return r
}

// Press records a press.
func (r *Recorder) Press(code scancode.Code) error {
	return r.record(OpPress, code)
}

// Release records a release.
func (r *Recorder) Release(code scancode.Code) error {
	return r.record(OpRelease, code)
}

func (r *Recorder) record(op Op, code scancode.Code) error {
	r.mu.Lock()
	err := r.fail[failKey{op, code}]
	if err == nil {
		r.calls = append(r.calls, Call{Op: op, Code: code, At: time.Now()})
	}
	logger := r.logger
	r.mu.Unlock()

	if logger != nil {
		if err != nil {
			logger.Warn("dry-run %s %s failed: %v", op, code, err)
		} else {
			logger.Info("dry-run %s %s", op, code)
		}
	}
	if err != nil {
		return fmt.Errorf("%s %s: %w", op, code, err)
	}
	return nil
}

// FailOn makes every later op on code return err. A nil err clears it.
func (r *Recorder) FailOn(op Op, code scancode.Code, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := failKey{op, code}
	if err == nil {
		delete(r.fail, k)
		return
	}
	r.fail[k] = err
}

// Calls returns a copy of the recorded calls in order.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// Count returns how many times op was recorded for code.
func (r *Recorder) Count(op Op, code scancode.Code) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c.Op == op && c.Code == code {
			n++
		}
	}
	return n
}

// Reset clears recorded calls. Configured failures are kept.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}
