// Package tray shows keyburst in the system tray: an icon coloured by the
// engine state, a status line, an enable toggle, reload and exit.
package tray

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"fyne.io/systray"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/dshills/keyburst/internal/app"
	"github.com/dshills/keyburst/internal/logging"
)

// PollInterval is how often the icon is refreshed while nothing reports a
// change, so running macros show up.
const PollInterval = 500 * time.Millisecond

// Controller is the part of the application the tray drives.
type Controller interface {
	Status() app.Status
	ToggleEnabled() bool
	Reload() error
	Exit()
}

// Tray is an app.Frontend backed by the system tray.
type Tray struct {
	ctl     Controller
	logger  *logging.Logger
	refresh chan struct{}

	mu    sync.Mutex
	icons map[string][]byte
}

// New creates a tray for ctl.
func New(ctl Controller, logger *logging.Logger) *Tray {
	return &Tray{
		ctl:     ctl,
		logger:  logging.OrNull(logger).WithComponent("tray"),
		refresh: make(chan struct{}, 1),
		icons:   make(map[string][]byte),
	}
}

// Refresh schedules a redraw. It never blocks.
func (t *Tray) Refresh() {
	select {
	case t.refresh <- struct{}{}:
	default:
	}
}

// Run shows the tray icon and blocks until ctx is done or Exit is chosen.
// It must be called from the main goroutine.
func (t *Tray) Run(ctx context.Context) error {
	systray.Run(func() { t.onReady(ctx) }, func() {
		t.logger.Debug("tray removed")
	})
	return nil
}

type menu struct {
	status *systray.MenuItem
	toggle *systray.MenuItem
	reload *systray.MenuItem
	exit   *systray.MenuItem
}

func (t *Tray) onReady(ctx context.Context) {
	systray.SetTitle("keyburst")

	m := menu{}
	m.status = systray.AddMenuItem("keyburst", "")
	m.status.Disable()
	systray.AddSeparator()
	m.toggle = systray.AddMenuItemCheckbox("Macros enabled", "Enable or disable every macro", true)
	m.reload = systray.AddMenuItem("Reload configuration", "Read the configuration file again")
	systray.AddSeparator()
	m.exit = systray.AddMenuItem("Exit", "Cancel all macros and quit")

	t.apply(m)
	go t.loop(ctx, m)
}

func (t *Tray) loop(ctx context.Context, m menu) {
	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			systray.Quit()
			return
		case <-m.toggle.ClickedCh:
			t.ctl.ToggleEnabled()
		case <-m.reload.ClickedCh:
			if err := t.ctl.Reload(); err != nil {
				t.logger.Error("reload: %v", err)
			}
			t.apply(m)
		case <-m.exit.ClickedCh:
			t.logger.Info("exit chosen from tray")
			t.ctl.Exit()
			systray.Quit()
			return
		case <-t.refresh:
			t.apply(m)
		case <-ticker.C:
			t.apply(m)
		}
	}
}

func (t *Tray) apply(m menu) {
	v := render(t.ctl.Status())

	if icon, err := t.icon(v.color); err != nil {
		t.logger.Warn("icon: %v", err)
	} else {
		systray.SetIcon(icon)
	}
	systray.SetTooltip(v.tooltip)
	m.status.SetTitle(v.status)
	if v.enabled {
		m.toggle.Check()
	} else {
		m.toggle.Uncheck()
	}
}

// icon returns the encoded icon for c, cached per colour.
func (t *Tray) icon(c colorful.Color) ([]byte, error) {
	hex := c.Hex()
	t.mu.Lock()
	defer t.mu.Unlock()
	if data, ok := t.icons[hex]; ok {
		return data, nil
	}
	data, err := encodePNG(c)
	if err != nil {
		return nil, err
	}
	if runtime.GOOS == "windows" {
		data = wrapICO(data, IconSize)
	}
	t.icons[hex] = data
	return data, nil
}

// view is what the tray shows for one status.
type view struct {
	enabled bool
	busy    bool
	color   colorful.Color
	status  string
	tooltip string
}

func render(st app.Status) view {
	v := view{
		enabled: st.Engine.Enabled,
		busy:    !st.Engine.ActiveContinuous.IsNone() || len(st.Engine.SingleShotInFlight) > 0,
	}

	switch {
	case !v.enabled:
		v.color = colorDisabled
		v.status = "keyburst running (macros disabled)"
	case v.busy:
		v.color = colorEnabled.BlendLab(colorActive, 0.6).Clamped()
		v.status = "keyburst running (macro active)"
	default:
		v.color = colorEnabled
		v.status = "keyburst running"
	}

	v.tooltip = fmt.Sprintf("keyburst: %d macros, toggle %s", len(st.Macros), st.ToggleKey)
	if st.DryRun {
		v.tooltip += " (dry run)"
	}
	if !st.Health.Healthy {
		v.tooltip += "; " + st.Health.Message
	}
	return v
}
