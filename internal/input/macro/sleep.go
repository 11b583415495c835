package macro

import (
	"context"
	"time"
)

// sleep waits for d in slices of at most e.opts.PollSlice, calling keep
// before every slice. It returns true when the full duration elapsed and
// false as soon as keep reports false or ctx is done.
func (e *Engine) sleep(ctx context.Context, d time.Duration, keep func() bool) bool {
	if d <= 0 {
		return keep()
	}

	deadline := time.Now().Add(d)
	var t *time.Timer
	defer func() {
		if t != nil {
			t.Stop()
		}
	}()

	for {
		if !keep() {
			return false
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return true
		}
		slice := min(remaining, e.opts.PollSlice)
		if t == nil {
			t = time.NewTimer(slice)
		} else {
			t.Reset(slice)
		}
		select {
		case <-ctx.Done():
			return false
		case <-t.C:
		}
	}
}
