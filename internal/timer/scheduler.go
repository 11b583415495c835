// Package timer provides a small deferred-task scheduler built on
// time.AfterFunc.
//
// Tasks are either keyed, where scheduling a key again replaces the pending
// task, or anonymous. Stop cancels every pending task and makes later
// scheduling a no-op, so nothing fires after teardown.
package timer

import (
	"errors"
	"sync"
	"time"
)

// ErrStopped is returned when scheduling on a stopped scheduler.
var ErrStopped = errors.New("scheduler stopped")

// Scheduler runs functions after a delay on their own goroutine.
type Scheduler struct {
	mu      sync.Mutex
	keyed   map[string]*task
	anon    map[uint64]*task
	nextID  uint64
	stopped bool
	wg      sync.WaitGroup
}

type task struct {
	timer *time.Timer
	gen   uint64
}

// New creates a scheduler.
func New() *Scheduler {
	return &Scheduler{
		keyed: make(map[string]*task),
		anon:  make(map[uint64]*task),
	}
}

// Schedule runs fn after d under key, replacing any task pending for the
// same key.
func (s *Scheduler) Schedule(key string, d time.Duration, fn func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrStopped
	}

	if prev, ok := s.keyed[key]; ok {
		if prev.timer.Stop() {
			s.wg.Done()
		}
		delete(s.keyed, key)
	}

	s.nextID++
	t := &task{gen: s.nextID}
	s.wg.Add(1)
	t.timer = time.AfterFunc(d, func() {
		defer s.wg.Done()

		s.mu.Lock()
		cur, ok := s.keyed[key]
		if !ok || cur.gen != t.gen || s.stopped {
			s.mu.Unlock()
			return
		}
		delete(s.keyed, key)
		s.mu.Unlock()

		fn()
	})
	s.keyed[key] = t
	return nil
}

// After runs fn after d. Anonymous tasks never replace each other.
func (s *Scheduler) After(d time.Duration, fn func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrStopped
	}

	s.nextID++
	id := s.nextID
	t := &task{gen: id}
	s.wg.Add(1)
	t.timer = time.AfterFunc(d, func() {
		defer s.wg.Done()

		s.mu.Lock()
		_, ok := s.anon[id]
		if !ok || s.stopped {
			s.mu.Unlock()
			return
		}
		delete(s.anon, id)
		s.mu.Unlock()

		fn()
	})
	s.anon[id] = t
	return nil
}

// Cancel drops the task pending under key. It reports whether a task was
// pending.
func (s *Scheduler) Cancel(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.keyed[key]
	if !ok {
		return false
	}
	delete(s.keyed, key)
	if t.timer.Stop() {
		s.wg.Done()
	}
	return true
}

// Pending reports whether a task is pending under key.
func (s *Scheduler) Pending(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.keyed[key]
	return ok
}

// Len returns the number of pending tasks.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.keyed) + len(s.anon)
}

// Stop cancels all pending tasks and rejects further scheduling. It waits
// for callbacks already running to return. Stop must not be called from a
// scheduled callback.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	for k, t := range s.keyed {
		if t.timer.Stop() {
			s.wg.Done()
		}
		delete(s.keyed, k)
	}
	for id, t := range s.anon {
		if t.timer.Stop() {
			s.wg.Done()
		}
		delete(s.anon, id)
	}
	s.mu.Unlock()

	s.wg.Wait()
}

// Stopped reports whether Stop has been called.
func (s *Scheduler) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}
