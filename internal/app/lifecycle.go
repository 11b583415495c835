package app

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
)

// Frontend is a user-facing status surface such as the tray icon or the
// console view.
type Frontend interface {
	// Run blocks until ctx is done or the user asks to exit. A user exit
	// is reported by returning ErrQuit or nil after calling Exit on the
	// controller it was built with.
	Run(ctx context.Context) error

	// Refresh redraws the status. It may be called from any goroutine,
	// including the hook callback, and must not block.
	Refresh()
}

// Run starts the hook loop and the frontend and blocks until shutdown is
// requested by the force-quit chord, the frontend, Exit or ctx. It then
// tears every component down. A normal exit returns nil. Run may only be
// called once.
func (app *Application) Run(ctx context.Context) error {
	if !app.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	app.running.Store(true)
	defer func() {
		app.running.Store(false)
		close(app.finished)
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-app.quit:
			cancel()
		case <-ctx.Done():
		}
	}()

	hookErr := make(chan error, 1)
	go func() {
		err := app.source.Run(ctx)
		hookErr <- err
		cancel()
	}()

	app.printBanner()

	var runErr error
	if f := app.currentFrontend(); f != nil {
		runErr = app.runFrontend(ctx, f)
	} else {
		<-ctx.Done()
	}
	cancel()
	app.requestShutdown()

	var errs ErrorList
	if runErr != nil && !errors.Is(runErr, ErrQuit) && !errors.Is(runErr, context.Canceled) {
		errs.Add(NewComponentError("frontend", "run", runErr))
	}
	if err := <-hookErr; err != nil && !errors.Is(err, context.Canceled) {
		errs.Add(NewComponentError("hook", "run", err))
	}
	errs.Add(app.teardown())

	app.logger.Info("stopped")
	return errs.AsError()
}

// runFrontend runs f, turning a panic into an error so the hook is still
// removed on the way out.
func (app *Application) runFrontend(ctx context.Context, f Frontend) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &RecoveredPanicError{Value: r, Stack: string(debug.Stack())}
		}
	}()
	return f.Run(ctx)
}

// Shutdown requests shutdown and waits until Run has returned or ctx is
// done. Calling it when Run was never started tears the components down
// directly.
func (app *Application) Shutdown(ctx context.Context) error {
	app.requestShutdown()
	if !app.started.Load() {
		return app.teardown()
	}

	select {
	case <-app.finished:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrShutdownTimeout, ctx.Err())
	}
}
