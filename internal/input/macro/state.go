package macro

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/dshills/keyburst/internal/input/key"
)

// RuntimeState is the mutable state shared by the hook callback and the
// macro workers. All fields are guarded by mu.
type RuntimeState struct {
	mu sync.Mutex

	// enabled is the global kill switch.
	enabled bool

	// cancelled is set once by shutdown and never cleared.
	cancelled bool

	// held holds the triggers the user is physically holding.
	held key.Set

	// active is the running continuous trigger, or key.None.
	active       key.Symbol
	activeID     uuid.UUID
	activeCancel context.CancelFunc

	// signals holds one completion signal per single-shot trigger.
	signals map[key.Symbol]*Signal

	// injected counts outstanding engine-driven presses per key.
	injected map[key.Symbol]int
}

func newRuntimeState() *RuntimeState {
	return &RuntimeState{
		enabled:  true,
		held:     key.NewSet(),
		signals:  make(map[key.Symbol]*Signal),
		injected: make(map[key.Symbol]int),
	}
}

// continuousAlive is the keep-going predicate for continuous workers.
func (s *RuntimeState) continuousAlive(trigger key.Symbol) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled && !s.cancelled && s.held.Has(trigger)
}

// singleShotAlive is the keep-going predicate for single-shot workers.
func (s *RuntimeState) singleShotAlive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled && !s.cancelled
}

// clearActive unsets the continuous slot if it still belongs to id.
func (s *RuntimeState) clearActive(trigger key.Symbol, id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == trigger && s.activeID == id {
		if s.activeCancel != nil {
			s.activeCancel()
		}
		s.active = key.None
		s.activeID = uuid.Nil
		s.activeCancel = nil
	}
}

// cancelActiveLocked signals the running continuous macro, if any.
func (s *RuntimeState) cancelActiveLocked() {
	if s.activeCancel != nil {
		s.activeCancel()
	}
}

func (s *RuntimeState) addInjected(k key.Symbol) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.injected[k]++
}

func (s *RuntimeState) removeInjected(k key.Symbol) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := s.injected[k]; n > 1 {
		s.injected[k] = n - 1
	} else {
		delete(s.injected, k)
	}
}

// State is a point-in-time view of the engine.
type State struct {
	Enabled bool

	// ActiveContinuous is the running continuous trigger, or key.None.
	ActiveContinuous key.Symbol

	// InvocationID identifies the running continuous invocation.
	InvocationID string

	SingleShotInFlight []key.Symbol
	Held               []key.Symbol
	SelfInjected       []key.Symbol

	// Triggers is the number of enabled definitions.
	Triggers int
}

func (s *RuntimeState) snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		Enabled:          s.enabled,
		ActiveContinuous: s.active,
		Held:             s.held.Sorted(),
	}
	if s.activeID != uuid.Nil {
		st.InvocationID = s.activeID.String()
	}
	for k, sig := range s.signals {
		if !sig.Idle() {
			st.SingleShotInFlight = append(st.SingleShotInFlight, k)
		}
	}
	sortSymbols(st.SingleShotInFlight)
	for k := range s.injected {
		st.SelfInjected = append(st.SelfInjected, k)
	}
	sortSymbols(st.SelfInjected)
	return st
}

func sortSymbols(s []key.Symbol) {
	sort.Slice(s, func(i, j int) bool { return s[i] < s[j] })
}
