// Package hook delivers physical key transitions to a handler that decides
// whether each one is suppressed.
//
// A Source calls the handler synchronously for every transition of a
// registered key, in the order the OS reports them, and obeys the returned
// decision. Keys that are not registered never reach the handler.
package hook

import (
	"context"
	"errors"
	"sync"

	"github.com/dshills/keyburst/internal/input/key"
)

// ErrClosed is returned when registering on a source that was unhooked.
var ErrClosed = errors.New("hook source closed")

// Handler decides key transitions. Returning true suppresses the event.
type Handler interface {
	HandlePress(ev key.Event) bool
	HandleRelease(ev key.Event) bool
}

// Source is an OS keyboard event source.
type Source interface {
	// Register replaces the set of tracked keys and the handler.
	Register(keys []key.Symbol, h Handler) error

	// Run delivers events until ctx is done or Unhook is called.
	Run(ctx context.Context) error

	// Unhook stops delivery and releases OS resources. It is safe to call
	// more than once and from any goroutine.
	Unhook() error
}

// Registry holds the tracked keys and handler of a source.
type Registry struct {
	mu      sync.RWMutex
	keys    key.Set
	handler Handler
}

// Set replaces the tracked keys and handler. Key names are normalised.
func (r *Registry) Set(keys []key.Symbol, h Handler) {
	set := key.NewSet()
	for _, k := range keys {
		if n := key.Normalize(string(k), false); !n.IsNone() {
			set.Add(n)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = set
	r.handler = h
}

// Tracked returns the tracked keys sorted.
func (r *Registry) Tracked() []key.Symbol {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.keys == nil {
		return nil
	}
	return r.keys.Sorted()
}

// Dispatch hands ev to the handler if its key is tracked and returns the
// handler's decision. Untracked keys are never suppressed.
func (r *Registry) Dispatch(ev key.Event, down bool) bool {
	sym := ev.Symbol()

	r.mu.RLock()
	h := r.handler
	tracked := r.keys.Has(sym)
	r.mu.RUnlock()

	if h == nil || !tracked {
		return false
	}
	if down {
		return h.HandlePress(ev)
	}
	return h.HandleRelease(ev)
}

// Manual is a Source driven by explicit Press and Release calls. It backs
// tests and platforms without a system hook.
type Manual struct {
	Registry

	mu     sync.Mutex
	done   chan struct{}
	closed bool
}

// NewManual creates a manual source.
func NewManual() *Manual {
	return &Manual{done: make(chan struct{})}
}

// Register replaces the tracked keys and handler.
func (m *Manual) Register(keys []key.Symbol, h Handler) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.Set(keys, h)
	return nil
}

// Run blocks until ctx is done or Unhook is called.
func (m *Manual) Run(ctx context.Context) error {
	select {
	case <-ctx.Done():
	case <-m.done:
	}
	return nil
}

// Unhook stops the source.
func (m *Manual) Unhook() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	m.Set(nil, nil)
	close(m.done)
	return nil
}

// Press delivers a key-down for name and returns the suppress decision.
func (m *Manual) Press(name string) bool {
	return m.Dispatch(key.NewEvent(name), true)
}

// Release delivers a key-up for name and returns the suppress decision.
func (m *Manual) Release(name string) bool {
	return m.Dispatch(key.NewEvent(name), false)
}
