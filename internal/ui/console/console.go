// Package console is a terminal status view for keyburst, used instead of
// the tray with --console. It shows the engine state, the configured macros
// and live counters, and takes single-key commands.
package console

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"

	"github.com/dshills/keyburst/internal/app"
	"github.com/dshills/keyburst/internal/input/key"
	"github.com/dshills/keyburst/internal/logging"
)

// RedrawInterval is how often the view redraws without being asked.
const RedrawInterval = 250 * time.Millisecond

// Controller is the part of the application the console drives.
type Controller interface {
	Status() app.Status
	ToggleEnabled() bool
	Reload() error
	Exit()
}

// Console is an app.Frontend drawing to a terminal.
type Console struct {
	ctl     Controller
	logger  *logging.Logger
	screen  tcell.Screen
	refresh chan struct{}

	mu      sync.Mutex
	message string
}

// Option configures a Console.
type Option func(*Console)

// WithScreen draws to s instead of the process terminal.
func WithScreen(s tcell.Screen) Option {
	return func(c *Console) {
		c.screen = s
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Console) {
		c.logger = logging.OrNull(l).WithComponent("console")
	}
}

// New creates a console view for ctl.
func New(ctl Controller, opts ...Option) *Console {
	c := &Console{
		ctl:     ctl,
		logger:  logging.Null,
		refresh: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Refresh schedules a redraw. It never blocks.
func (c *Console) Refresh() {
	select {
	case c.refresh <- struct{}{}:
	default:
	}
}

// Run takes over the terminal until ctx is done or the user quits.
func (c *Console) Run(ctx context.Context) error {
	if c.screen == nil {
		s, err := tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("opening terminal: %w", err)
		}
		c.screen = s
	}
	if err := c.screen.Init(); err != nil {
		return fmt.Errorf("initializing terminal: %w", err)
	}
	defer c.screen.Fini()
	c.screen.HideCursor()

	events := make(chan tcell.Event, 8)
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			ev := c.screen.PollEvent()
			if ev == nil {
				close(events)
				return
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()

	ticker := time.NewTicker(RedrawInterval)
	defer ticker.Stop()

	c.draw()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.refresh:
		case <-ticker.C:
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if quit := c.handle(ev); quit {
				return app.ErrQuit
			}
		}
		c.draw()
	}
}

// handle reacts to one terminal event and reports whether to quit.
func (c *Console) handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		c.screen.Sync()
	case *tcell.EventKey:
		switch {
		case ev.Key() == tcell.KeyEscape, ev.Key() == tcell.KeyCtrlC:
			c.ctl.Exit()
			return true
		case ev.Key() != tcell.KeyRune:
		case ev.Rune() == 'q':
			c.ctl.Exit()
			return true
		case ev.Rune() == 't':
			c.ctl.ToggleEnabled()
		case ev.Rune() == 'r':
			if err := c.ctl.Reload(); err != nil {
				c.logger.Error("reload: %v", err)
				c.setMessage("reload failed: " + err.Error())
			} else {
				c.setMessage("configuration reloaded")
			}
		}
	}
	return false
}

func (c *Console) setMessage(m string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.message = m
}

func (c *Console) currentMessage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.message
}

var (
	styleDefault = tcell.StyleDefault
	styleTitle   = tcell.StyleDefault.Bold(true)
	styleDim     = tcell.StyleDefault.Dim(true)
	styleOn      = tcell.StyleDefault.Foreground(tcell.ColorGreen).Bold(true)
	styleOff     = tcell.StyleDefault.Foreground(tcell.ColorGray).Bold(true)
	styleBusy    = tcell.StyleDefault.Foreground(tcell.ColorOrange)
	styleWarn    = tcell.StyleDefault.Foreground(tcell.ColorRed)
)

func (c *Console) draw() {
	st := c.ctl.Status()
	s := c.screen
	s.Clear()
	w, h := s.Size()

	lines := layout(st, c.currentMessage())
	for y, ln := range lines {
		if y >= h {
			break
		}
		x := 1
		for _, seg := range ln {
			x += drawText(s, x, y, w-x, seg.style, seg.text)
		}
	}
	s.Show()
}

type segment struct {
	text  string
	style tcell.Style
}

type line []segment

func plain(text string) line {
	return line{{text, styleDefault}}
}

// layout builds the screen content top to bottom.
func layout(st app.Status, message string) []line {
	state := segment{"[ENABLED]", styleOn}
	if !st.Engine.Enabled {
		state = segment{"[DISABLED]", styleOff}
	}

	out := []line{
		{{"keyburst ", styleTitle}, state},
	}
	if st.ConfigPath != "" {
		out = append(out, line{{"config  ", styleDim}, {st.ConfigPath, styleDefault}})
	}
	controls := line{
		{"toggle  ", styleDim}, {string(st.ToggleKey), styleDefault},
		{"   exit  ", styleDim}, {joinKeys(st.ForceQuit, "+"), styleDefault},
	}
	if st.DryRun {
		controls = append(controls, segment{"   dry run", styleBusy})
	}
	out = append(out, controls, line{})

	inFlight := key.NewSet(st.Engine.SingleShotInFlight...)
	out = append(out, line{{fmt.Sprintf("%-8s %-12s %-24s %s", "TRIGGER", "MODE", "KEYS", "STATE"), styleTitle}})
	for _, m := range st.Macros {
		text := fmt.Sprintf("%-8s %-12s %-24s ", m.Trigger, m.Mode, truncate(joinKeys(m.Keys, " "), 24))
		ln := plain(text)
		if m.Trigger == st.Engine.ActiveContinuous || inFlight.Has(m.Trigger) {
			ln = append(ln, segment{"running", styleBusy})
		}
		out = append(out, ln)
	}
	if len(st.Macros) == 0 {
		out = append(out, line{{"no macros configured", styleDim}})
	}
	out = append(out, line{})

	em := st.EngineMetrics
	out = append(out, plain(fmt.Sprintf("starts %d  rejected %d  passes %d  actions %d  inject failures %d",
		em.Starts, em.Rejections, em.Passes, em.Actions, em.InjectFailures)))
	dm := st.Dispatch
	hookLine := line{{fmt.Sprintf("hook: %d presses  %d suppressed  p99 %v  peak %v",
		dm.Presses, dm.Suppressed, dm.P99Latency, dm.PeakLatency), styleDefault}}
	if !st.Health.Healthy {
		hookLine = append(hookLine, segment{"  " + st.Health.Message, styleWarn})
	}
	out = append(out, hookLine)
	out = append(out, plain(fmt.Sprintf("reloads %d  failed %d  up %v",
		st.App.Reloads, st.App.ReloadFailures, st.App.Uptime.Truncate(time.Second))))

	out = append(out, line{})
	if message != "" {
		out = append(out, plain(message))
	}
	out = append(out, line{{"t toggle   r reload   q quit", styleDim}})
	return out
}

// drawText draws text at x,y clipped to width cells and returns the number
// of cells used. Wide and combined characters are kept whole.
func drawText(s tcell.Screen, x, y, width int, style tcell.Style, text string) int {
	used := 0
	g := uniseg.NewGraphemes(text)
	for g.Next() {
		runes := g.Runes()
		cw := g.Width()
		if used+cw > width {
			break
		}
		s.SetContent(x+used, y, runes[0], runes[1:], style)
		used += cw
	}
	return used
}

// truncate shortens text to at most width cells, marking the cut with "…".
func truncate(text string, width int) string {
	if uniseg.StringWidth(text) <= width {
		return text
	}
	var b strings.Builder
	used := 0
	g := uniseg.NewGraphemes(text)
	for g.Next() {
		if used+g.Width() > width-1 {
			break
		}
		b.WriteString(g.Str())
		used += g.Width()
	}
	b.WriteString("…")
	return b.String()
}

func joinKeys(keys []key.Symbol, sep string) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = string(k)
	}
	return strings.Join(parts, sep)
}
