package macro

import "sync"

// Signal is the completion signal of a single-shot trigger. It is idle or
// in flight, and TryAcquire is the only way to move it from idle to in
// flight.
type Signal struct {
	mu   sync.Mutex
	busy bool
	idle chan struct{}
}

// NewSignal returns a signal in the idle state.
func NewSignal() *Signal {
	ch := make(chan struct{})
	close(ch)
	return &Signal{idle: ch}
}

// TryAcquire marks the signal in flight. It returns false if it already was.
func (s *Signal) TryAcquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return false
	}
	s.busy = true
	s.idle = make(chan struct{})
	return true
}

// Release returns the signal to idle.
func (s *Signal) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.busy {
		return
	}
	s.busy = false
	close(s.idle)
}

// Idle reports whether no instance is in flight.
func (s *Signal) Idle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.busy
}

// Done returns a channel that is closed once the signal is idle.
func (s *Signal) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idle
}
