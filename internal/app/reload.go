package app

import (
	"errors"

	"github.com/dshills/keyburst/internal/config"
	"github.com/dshills/keyburst/internal/config/watcher"
)

// handleConfigChange reloads the configuration after the watcher reports a
// change. A removed file keeps the running configuration; the editor may
// be about to write it back.
func (app *Application) handleConfigChange(ev watcher.Event) {
	log := app.logger.WithFields(map[string]any{"path": ev.Path, "op": ev.Op.String()})
	if !ev.Op.Exists() {
		log.Warn("config file went away, keeping the running configuration")
		return
	}
	if err := app.Reload(); err != nil {
		log.Error("reload failed: %v", err)
		return
	}
}

// Reload loads the configuration again and applies it. An invalid
// configuration is rejected and the running one is kept. A valid one is
// applied with macros quiesced: every running macro is cancelled and
// joined, the dispatcher and engine are reconfigured, the hook tracks the
// new keys and finally the previous enabled state is restored.
func (app *Application) Reload() error {
	app.reloadMu.Lock()
	defer app.reloadMu.Unlock()

	select {
	case <-app.quit:
		return ErrNotRunning
	default:
	}

	opts := app.opts.Load
	if opts.Path == "" {
		opts.Path = app.Config().Path
	}

	cfg, err := config.Load(opts)
	if err != nil {
		app.metrics.recordReload(false)
		return NewOperationError("reload", opts.Path, errors.Join(ErrReloadRejected, err))
	}
	if err := cfg.Table().Validate(); err != nil {
		app.metrics.recordReload(false)
		return NewOperationError("reload", opts.Path, errors.Join(ErrReloadRejected, err))
	}

	if err := app.apply(cfg); err != nil {
		app.metrics.recordReload(false)
		return NewOperationError("reload", opts.Path, err)
	}
	app.metrics.recordReload(true)
	app.reportConfig(cfg)
	app.refreshFrontend()
	return nil
}

// apply installs a validated configuration.
func (app *Application) apply(cfg *config.Config) error {
	prev := app.Config()

	wasEnabled, err := app.engine.Quiesce(app.opts.QuiesceTimeout)
	if err != nil {
		// A worker that ignores cancellation is stuck inside an injector
		// call; carry on, it exits at its next check.
		app.logger.Warn("reload: %v", err)
	}
	defer app.engine.SetEnabled(wasEnabled)

	if prev != nil && prev.EngineOptions() != cfg.EngineOptions() {
		app.logger.Warn("engine settings changed; they take effect after a restart")
	}
	if app.opts.Logger != nil && (prev == nil || prev.LogLevel != cfg.LogLevel) {
		app.opts.Logger.SetLevel(cfg.LogLevel)
	}

	app.dispatcher.Reconfigure(cfg.DispatcherConfig())
	if err := app.engine.Configure(cfg.Table()); err != nil {
		return err
	}

	app.mu.Lock()
	app.config = cfg
	app.mu.Unlock()

	if err := app.source.Register(app.trackedKeys(), app.dispatcher); err != nil {
		return NewComponentError("hook", "register", err)
	}
	return nil
}
