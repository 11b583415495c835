// Package macro provides the keyburst macro execution engine.
//
// A macro binds a trigger key to an ordered list of actions. Each action
// presses one key, holds it, releases it and waits before the next action.
//
// # Modes
//
// A definition runs in one of three modes:
//   - ModeDisabled: Start rejects the trigger; the dispatcher swallows its key.
//   - ModeContinuous: the action list repeats for as long as the user holds
//     the trigger. At most one continuous macro runs at a time.
//   - ModeSingleShot: the action list runs exactly once per press. A trigger
//     cannot start again while its previous run is in flight, but distinct
//     single-shot triggers may overlap.
//
// Continuous macros stop as soon as the trigger is released. Single-shot
// macros ignore release and only abort when macros are disabled globally.
//
// # Cancellation
//
// Every wait inside a macro is an interruptible sleep: it is split into
// poll slices and the cancellation predicate is re-checked on each slice, so
// a release or global disable is observed within one slice no matter how
// long a hold or delay is configured to be.
//
// # Self-injected keys
//
// When an action drives a key that is also another macro's trigger, the key
// is recorded as self-injected for the duration of the press plus a short
// grace period. The dispatcher uses ShouldBlockTrigger to let those events
// pass through instead of starting the other macro.
//
// # Thread Safety
//
// Engine methods are safe for concurrent use. Configure must only be called
// while no macro is running; Quiesce provides that.
package macro
