// Package app wires the keyburst components together and owns the process
// lifecycle: startup, live configuration reload and shutdown.
package app

import (
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/keyburst/internal/config"
	"github.com/dshills/keyburst/internal/config/watcher"
	"github.com/dshills/keyburst/internal/dispatcher"
	"github.com/dshills/keyburst/internal/input/hook"
	"github.com/dshills/keyburst/internal/input/inject"
	"github.com/dshills/keyburst/internal/input/macro"
	"github.com/dshills/keyburst/internal/input/scancode"
	"github.com/dshills/keyburst/internal/logging"
	"github.com/dshills/keyburst/internal/timer"
)

// DefaultQuiesceTimeout bounds how long reload and shutdown wait for macro
// workers to return.
const DefaultQuiesceTimeout = 2 * time.Second

// Application is the central coordinator for all keyburst components.
type Application struct {
	mu sync.RWMutex

	opts   Options
	logger *logging.Logger

	config     *config.Config
	resolver   *scancode.Resolver
	injector   inject.Injector
	engine     *macro.Engine
	sched      *timer.Scheduler
	dispatcher *dispatcher.Dispatcher
	source     hook.Source
	watcher    *watcher.Watcher
	frontend   Frontend
	metrics    *Metrics

	reloadMu sync.Mutex

	started  atomic.Bool
	running  atomic.Bool
	quit     chan struct{}
	quitOnce sync.Once
	finished chan struct{}
	stopOnce sync.Once
	stopErr  error
}

// Options configures the application.
type Options struct {
	// Config is an already loaded configuration. When nil it is loaded
	// with Load.
	Config *config.Config

	// Load locates and layers the configuration. It is also used for
	// reloads, so its environment prefix and overrides apply every time.
	Load config.Options

	// Logger receives all component logs. Nil discards them.
	Logger *logging.Logger

	// Source overrides the OS keyboard hook.
	Source hook.Source

	// Injector overrides the OS input injector.
	Injector inject.Injector

	// DryRun logs injected input instead of sending it.
	DryRun bool

	// Watch reloads the configuration when its file changes.
	Watch bool

	// Stdout receives the startup banner. Nil disables it.
	Stdout io.Writer

	// QuiesceTimeout bounds waits for macro workers. Zero uses
	// DefaultQuiesceTimeout.
	QuiesceTimeout time.Duration
}

// New creates an Application and starts every component except the hook
// loop and the frontend, which Run drives.
func New(opts Options) (*Application, error) {
	if opts.QuiesceTimeout <= 0 {
		opts.QuiesceTimeout = DefaultQuiesceTimeout
	}
	app := &Application{
		opts:     opts,
		logger:   logging.OrNull(opts.Logger).WithComponent("app"),
		quit:     make(chan struct{}),
		finished: make(chan struct{}),
		metrics:  NewMetrics(),
	}

	if err := app.bootstrap(); err != nil {
		_ = app.teardown()
		return nil, err
	}
	return app, nil
}

// SetFrontend sets the status surface. Must be called before Run.
func (app *Application) SetFrontend(f Frontend) error {
	if app.started.Load() {
		return ErrAlreadyRunning
	}
	app.mu.Lock()
	defer app.mu.Unlock()
	app.frontend = f
	return nil
}

// Config returns the active configuration.
func (app *Application) Config() *config.Config {
	app.mu.RLock()
	defer app.mu.RUnlock()
	return app.config
}

// Engine returns the macro engine.
func (app *Application) Engine() *macro.Engine {
	return app.engine
}

// Dispatcher returns the event dispatcher.
func (app *Application) Dispatcher() *dispatcher.Dispatcher {
	return app.dispatcher
}

// Metrics returns the application metrics.
func (app *Application) Metrics() *Metrics {
	return app.metrics
}

// IsRunning returns true while Run is active.
func (app *Application) IsRunning() bool {
	return app.running.Load()
}

// Enabled reports whether macros are enabled.
func (app *Application) Enabled() bool {
	return app.engine.Enabled()
}

// ToggleEnabled flips the global enabled flag, as the toggle key does, and
// returns the new value.
func (app *Application) ToggleEnabled() bool {
	return app.engine.ToggleEnabled()
}

// Exit requests shutdown. It returns immediately; Run performs the
// teardown and returns.
func (app *Application) Exit() {
	app.requestShutdown()
}

// Done is closed once shutdown has been requested.
func (app *Application) Done() <-chan struct{} {
	return app.quit
}

// requestShutdown cancels every macro and signals Run. It may run inside
// the hook callback, so it never blocks.
func (app *Application) requestShutdown() {
	app.quitOnce.Do(func() {
		app.logger.Info("shutdown requested")
		app.engine.Shutdown()
		close(app.quit)
	})
}

func (app *Application) currentFrontend() Frontend {
	app.mu.RLock()
	defer app.mu.RUnlock()
	return app.frontend
}

func (app *Application) refreshFrontend() {
	if f := app.currentFrontend(); f != nil {
		f.Refresh()
	}
}
