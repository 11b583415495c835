package app

import (
	"time"

	"github.com/dshills/keyburst/internal/dispatcher"
	"github.com/dshills/keyburst/internal/input/key"
	"github.com/dshills/keyburst/internal/input/macro"
)

// CallbackBudget is the hook-callback p99 latency above which the status
// reports the dispatcher as unhealthy. The OS drops a low-level hook that
// stalls for a few hundred milliseconds.
const CallbackBudget = 5 * time.Millisecond

// MacroSummary describes one configured macro.
type MacroSummary struct {
	Trigger key.Symbol
	Mode    macro.Mode
	Keys    []key.Symbol
}

// Status is everything a frontend shows.
type Status struct {
	ConfigPath string
	ToggleKey  key.Symbol
	ForceQuit  []key.Symbol
	DryRun     bool

	Macros []MacroSummary

	Engine        macro.State
	EngineMetrics macro.MetricsSnapshot
	Dispatch      dispatcher.MetricsSnapshot
	Health        dispatcher.HealthStatus
	App           MetricsSnapshot
}

// Status collects the current status from every component.
func (app *Application) Status() Status {
	cfg := app.Config()
	st := Status{
		ConfigPath:    cfg.Path,
		ToggleKey:     cfg.ToggleKey,
		ForceQuit:     append([]key.Symbol(nil), cfg.ForceQuit...),
		DryRun:        app.opts.DryRun,
		Engine:        app.engine.Snapshot(),
		EngineMetrics: app.engine.Metrics(),
		Dispatch:      app.dispatcher.Metrics().Snapshot(),
		Health:        app.dispatcher.Metrics().HealthCheck(CallbackBudget),
		App:           app.metrics.Snapshot(),
	}
	for _, trig := range cfg.Triggers() {
		m := cfg.Macros[trig]
		st.Macros = append(st.Macros, MacroSummary{
			Trigger: trig,
			Mode:    m.Mode,
			Keys:    append([]key.Symbol(nil), m.Keys...),
		})
	}
	return st
}
