package macro

import (
	"context"
	"runtime/debug"

	"github.com/google/uuid"

	"github.com/dshills/keyburst/internal/input/key"
	"github.com/dshills/keyburst/internal/logging"
)

// invocation is one run of a macro.
type invocation struct {
	id     uuid.UUID
	def    Definition
	logger *logging.Logger
	keep   func() bool
}

func (e *Engine) newInvocation(id uuid.UUID, def Definition, keep func() bool) *invocation {
	return &invocation{
		id:  id,
		def: def,
		logger: e.logger.WithFields(map[string]any{
			"trigger":    def.Trigger,
			"invocation": id.String()[:8],
		}),
		keep: keep,
	}
}

// recoverWorker logs a worker panic. Cleanup registered before it still runs.
func (e *Engine) recoverWorker(inv *invocation) {
	if r := recover(); r != nil {
		e.metrics.panics.Add(1)
		inv.logger.Error("macro worker panic: %v\n%s", r, debug.Stack())
	}
}

func (e *Engine) runContinuous(ctx context.Context, id uuid.UUID, def Definition) {
	inv := e.newInvocation(id, def, nil)
	inv.keep = func() bool {
		return ctx.Err() == nil && e.state.continuousAlive(def.Trigger)
	}

	defer e.wg.Done()
	defer func() {
		e.state.clearActive(def.Trigger, id)
		inv.logger.Debug("continuous macro finished")
	}()
	defer e.recoverWorker(inv)

	inv.logger.Debug("continuous macro started")
	for inv.keep() {
		e.metrics.passes.Add(1)
		if !e.runPass(ctx, inv) {
			e.metrics.aborted.Add(1)
			return
		}
		if !e.sleep(ctx, e.opts.SequenceGap, inv.keep) {
			return
		}
	}
}

func (e *Engine) runSingleShot(ctx context.Context, id uuid.UUID, def Definition, sig *Signal) {
	inv := e.newInvocation(id, def, nil)
	inv.keep = func() bool {
		return ctx.Err() == nil && e.state.singleShotAlive()
	}

	defer e.wg.Done()
	defer func() {
		sig.Release()
		inv.logger.Debug("single-shot macro finished")
	}()
	defer e.recoverWorker(inv)

	inv.logger.Debug("single-shot macro started")
	e.metrics.passes.Add(1)
	if !e.runPass(ctx, inv) {
		e.metrics.aborted.Add(1)
	}
}

// runPass runs every action once. It returns false if the pass was cut
// short by cancellation.
func (e *Engine) runPass(ctx context.Context, inv *invocation) bool {
	for i := range inv.def.Actions {
		if !inv.keep() {
			return false
		}
		if !e.executeAction(ctx, inv, inv.def.Actions[i]) {
			return false
		}
	}
	return true
}

// executeAction presses, holds, releases and waits for one action. It
// returns false if a wait was interrupted.
func (e *Engine) executeAction(ctx context.Context, inv *invocation, a Action) bool {
	code, ok := e.resolver.Resolve(a.Key)
	if !ok {
		e.metrics.unknownKeys.Add(1)
		inv.logger.Debug("skipping unknown key %q", a.Key)
		return true
	}

	if a.Key == inv.def.Trigger {
		return e.sleep(ctx, a.Delay, inv.keep)
	}

	e.metrics.actions.Add(1)

	borrowed := e.IsMacroKey(a.Key)
	if borrowed {
		e.state.addInjected(a.Key)
	}

	if err := e.injector.Press(code); err != nil {
		e.metrics.injectFailures.Add(1)
		inv.logger.Warn("press %s failed: %v", a.Key, err)
		if borrowed {
			e.releaseBorrowed(a.Key)
		}
		return true
	}

	held := e.sleep(ctx, a.Hold, inv.keep)

	err := e.injector.Release(code)
	if borrowed {
		e.releaseBorrowed(a.Key)
	}
	if err != nil {
		e.metrics.injectFailures.Add(1)
		inv.logger.Warn("release %s failed: %v", a.Key, err)
		return held
	}
	if !held {
		return false
	}
	return e.sleep(ctx, a.Delay, inv.keep)
}

// releaseBorrowed drops the self-injected mark on k after the grace period.
func (e *Engine) releaseBorrowed(k key.Symbol) {
	if e.opts.SelfInjectGrace <= 0 {
		e.state.removeInjected(k)
		return
	}
	if err := e.sched.After(e.opts.SelfInjectGrace, func() { e.state.removeInjected(k) }); err != nil {
		e.state.removeInjected(k)
	}
}
