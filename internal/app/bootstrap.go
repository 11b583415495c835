package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/dshills/keyburst/internal/config"
	"github.com/dshills/keyburst/internal/config/watcher"
	"github.com/dshills/keyburst/internal/dispatcher"
	"github.com/dshills/keyburst/internal/input/hook"
	"github.com/dshills/keyburst/internal/input/inject"
	"github.com/dshills/keyburst/internal/input/key"
	"github.com/dshills/keyburst/internal/input/macro"
	"github.com/dshills/keyburst/internal/input/scancode"
	"github.com/dshills/keyburst/internal/timer"
)

// bootstrap initializes all components in dependency order.
func (app *Application) bootstrap() error {
	// 1. Configuration
	cfg := app.opts.Config
	if cfg == nil {
		loaded, err := config.Load(app.opts.Load)
		if err != nil {
			return &InitError{Component: "config", Err: err}
		}
		cfg = loaded
	}
	app.config = cfg
	if app.opts.Logger != nil {
		app.opts.Logger.SetLevel(cfg.LogLevel)
	}

	// 2. Key resolution and injection
	app.resolver = scancode.Default
	switch {
	case app.opts.Injector != nil:
		app.injector = app.opts.Injector
	case app.opts.DryRun:
		app.injector = inject.NewRecorder(app.opts.Logger)
	default:
		sys, err := inject.NewSystem()
		if err != nil {
			return &InitError{Component: "injector", Err: err}
		}
		app.injector = sys
	}

	// 3. Macro engine
	app.engine = macro.NewEngine(app.resolver, app.injector, cfg.EngineOptions(), app.opts.Logger)
	if err := app.engine.Configure(cfg.Table()); err != nil {
		return &InitError{Component: "engine", Err: err}
	}
	app.engine.OnEnabledChange(app.onEnabledChange)

	// 4. Dispatcher
	app.sched = timer.New()
	app.dispatcher = dispatcher.New(app.engine, app.sched, cfg.DispatcherConfig(), app.requestShutdown, app.opts.Logger)

	// 5. Keyboard hook
	app.source = app.opts.Source
	if app.source == nil {
		src, err := hook.NewSystem(app.opts.Logger)
		if err != nil {
			return &InitError{Component: "hook", Err: err}
		}
		app.source = src
	}
	if err := app.source.Register(app.trackedKeys(), app.dispatcher); err != nil {
		return &InitError{Component: "hook", Err: err}
	}

	// 6. Config watcher
	if app.opts.Watch && cfg.Path != "" {
		if err := app.startWatcher(cfg.Path); err != nil {
			// Reload is a convenience; run without it.
			app.logger.Warn("live reload disabled: %v", err)
		}
	}

	app.reportConfig(cfg)
	return nil
}

// trackedKeys is the set of keys the hook must deliver: every trigger,
// disabled-mode ones included, plus the toggle key and force-quit chord.
func (app *Application) trackedKeys() []key.Symbol {
	set := key.NewSet(app.engine.Table().Triggers(true)...)
	for _, k := range app.dispatcher.Tracked() {
		set.Add(k)
	}
	return set.Sorted()
}

func (app *Application) startWatcher(path string) error {
	w, err := watcher.New(watcher.WithErrorHandler(func(err error) {
		app.logger.Warn("config watcher: %v", err)
	}))
	if err != nil {
		return err
	}
	if err := w.Watch(path); err != nil {
		_ = w.Close()
		return err
	}
	w.OnChange(app.handleConfigChange)
	if err := w.Start(); err != nil {
		_ = w.Close()
		return err
	}
	app.watcher = w
	return nil
}

// reportConfig logs what the loaded configuration contains and anything
// in it that will be ignored.
func (app *Application) reportConfig(cfg *config.Config) {
	log := app.logger.WithField("path", cfg.Path)
	log.Info("loaded %d macros, toggle=%s", len(cfg.Macros), cfg.ToggleKey)
	for _, w := range cfg.Warnings {
		log.Warn("%s", w)
	}
	for _, u := range cfg.UnknownKeys(app.resolver) {
		log.Warn("%s (it will be skipped)", u)
	}
}

func (app *Application) onEnabledChange(bool) {
	app.metrics.toggles.Add(1)
	app.refreshFrontend()
}

// teardown cancels macros, removes the hook and stops the remaining
// components. It is safe to call with a partially bootstrapped application.
func (app *Application) teardown() error {
	app.stopOnce.Do(func() {
		var errs ErrorList

		if app.engine != nil {
			app.engine.Shutdown()
		}
		if app.source != nil {
			if err := app.source.Unhook(); err != nil && !errors.Is(err, hook.ErrClosed) {
				errs.Add(NewComponentError("hook", "unhook", err))
			}
		}
		if app.watcher != nil {
			if err := app.watcher.Close(); err != nil {
				errs.Add(NewComponentError("watcher", "close", err))
			}
		}
		if app.sched != nil {
			app.sched.Stop()
		}
		if app.engine != nil && !app.waitWorkers(app.opts.QuiesceTimeout) {
			errs.Add(fmt.Errorf("%w: macro workers still running after %v", ErrShutdownTimeout, app.opts.QuiesceTimeout))
		}
		app.stopErr = errs.AsError()
	})
	return app.stopErr
}

// waitWorkers waits up to timeout for every macro worker to return.
func (app *Application) waitWorkers(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		app.engine.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
