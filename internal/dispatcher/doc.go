// Package dispatcher decides, inside the OS hook callback, whether each
// physical key transition is suppressed or forwarded, and drives the macro
// engine from those transitions.
//
// # Press handling
//
// HandlePress applies these rules in order, first match wins:
//
//  1. The key name is normalised (shifted punctuation maps to its base key,
//     numeric-pad keys get distinct names).
//  2. A force-quit key is recorded; once the whole chord is down the
//     shutdown callback runs and the event is suppressed.
//  3. The toggle key flips the engine's enabled flag and is suppressed.
//  4. With macros disabled, or for keys with no definition, the event is
//     forwarded. Triggers of disabled-mode definitions fall through to rule 8.
//  5. If the engine is itself driving the key as part of another macro, the
//     event is forwarded.
//  6. Auto-repeat and re-presses of a blocked trigger are suppressed.
//  7. A single-shot trigger whose previous run is in flight is suppressed.
//  8. Otherwise the key is marked held and blocked, the macro is started and
//     the event is suppressed. If the engine rejects the start the held and
//     blocked records are dropped again so the next auto-repeat retries.
//
// # Release handling
//
// HandleRelease clears force-quit bookkeeping, swallows the toggle key and
// forwards keys it never tracked. A release the engine injected itself while
// borrowing the key is forwarded before any held check. For a held trigger it clears the held
// record; a continuous macro is stopped and unblocked at once, a single-shot
// trigger is unblocked after Config.SingleShotUnblockDelay.
//
// Neither method blocks. Delayed unblocking runs on a timer.Scheduler so it
// can be cancelled en masse at shutdown.
package dispatcher
