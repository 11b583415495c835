package console

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/keyburst/internal/app"
	"github.com/dshills/keyburst/internal/dispatcher"
	"github.com/dshills/keyburst/internal/input/key"
	"github.com/dshills/keyburst/internal/input/macro"
)

type fakeController struct {
	mu        sync.Mutex
	st        app.Status
	toggles   int
	reloads   int
	exits     int
	reloadErr error
}

func newFakeController() *fakeController {
	return &fakeController{st: app.Status{
		ConfigPath: "/home/u/.config/keyburst/config.toml",
		ToggleKey:  "`",
		ForceQuit:  []key.Symbol{"alt", "shift", "delete"},
		Macros: []app.MacroSummary{
			{Trigger: "j", Mode: macro.ModeSingleShot, Keys: []key.Symbol{"a", "b"}},
			{Trigger: "k", Mode: macro.ModeContinuous, Keys: []key.Symbol{"c"}},
		},
		Engine: macro.State{Enabled: true, ActiveContinuous: "k"},
		Health: dispatcher.HealthStatus{Healthy: true},
	}}
}

func (f *fakeController) Status() app.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.st
}

func (f *fakeController) ToggleEnabled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.toggles++
	f.st.Engine.Enabled = !f.st.Engine.Enabled
	return f.st.Engine.Enabled
}

func (f *fakeController) Reload() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reloads++
	return f.reloadErr
}

func (f *fakeController) Exit() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exits++
}

func (f *fakeController) counts() (toggles, reloads, exits int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.toggles, f.reloads, f.exits
}

func newScreen(t *testing.T) tcell.SimulationScreen {
	t.Helper()
	s := tcell.NewSimulationScreen("UTF-8")
	if err := s.Init(); err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	s.SetSize(80, 25)
	return s
}

// rows returns the screen content as one string per row.
func rows(s tcell.SimulationScreen) []string {
	cells, w, h := s.GetContents()
	out := make([]string, h)
	for y := 0; y < h; y++ {
		var b strings.Builder
		for x := 0; x < w; x++ {
			c := cells[y*w+x]
			if len(c.Runes) == 0 {
				b.WriteByte(' ')
				continue
			}
			b.WriteString(string(c.Runes))
		}
		out[y] = strings.TrimRight(b.String(), " ")
	}
	return out
}

func screenHas(s tcell.SimulationScreen, want string) bool {
	for _, r := range rows(s) {
		if strings.Contains(r, want) {
			return true
		}
	}
	return false
}

func TestConsole_Draw(t *testing.T) {
	s := newScreen(t)
	defer s.Fini()
	ctl := newFakeController()
	c := New(ctl, WithScreen(s))

	c.draw()
	for _, want := range []string{
		"keyburst [ENABLED]",
		"config  /home/u/.config/keyburst/config.toml",
		"exit  alt+shift+delete",
		"j        single-shot  a b",
		"running",
		"t toggle   r reload   q quit",
	} {
		if !screenHas(s, want) {
			t.Errorf("screen missing %q:\n%s", want, strings.Join(rows(s), "\n"))
		}
	}

	ctl.ToggleEnabled()
	c.draw()
	if !screenHas(s, "[DISABLED]") {
		t.Error("disabled state not shown")
	}
}

func TestLayout_RunningMarker(t *testing.T) {
	st := newFakeController().st
	st.Engine.ActiveContinuous = key.None
	st.Engine.SingleShotInFlight = []key.Symbol{"j"}

	var running []string
	for _, ln := range layout(st, "") {
		if len(ln) == 2 && ln[1].text == "running" {
			running = append(running, strings.Fields(ln[0].text)[0])
		}
	}
	if len(running) != 1 || running[0] != "j" {
		t.Errorf("running markers on %v, want [j]", running)
	}
}

func TestDrawText_Clips(t *testing.T) {
	s := newScreen(t)
	defer s.Fini()

	if n := drawText(s, 0, 0, 5, styleDefault, "日本語です"); n != 4 {
		t.Errorf("drawText() used %d cells, want 4 (wide runes are not split)", n)
	}
	if n := drawText(s, 0, 1, 10, styleDefault, "e\u0301tat"); n != 4 {
		t.Errorf("drawText() used %d cells, want 4 (combining mark shares a cell)", n)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"a b c", 10, "a b c"},
		{"shift ctrl alt space", 10, "shift ctr…"},
		{"日本語", 4, "日…"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}

func TestConsole_Keys(t *testing.T) {
	s := tcell.NewSimulationScreen("UTF-8")
	ctl := newFakeController()
	ctl.reloadErr = errors.New("bad mode")
	c := New(ctl, WithScreen(s))

	done := make(chan error, 1)
	go func() { done <- c.Run(context.Background()) }()

	waitFor(t, func() bool { return screenHas(s, "keyburst") })

	s.InjectKey(tcell.KeyRune, 't', tcell.ModNone)
	s.InjectKey(tcell.KeyRune, 'r', tcell.ModNone)
	waitFor(t, func() bool { return screenHas(s, "reload failed: bad mode") })

	s.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)
	select {
	case err := <-done:
		if !errors.Is(err, app.ErrQuit) {
			t.Errorf("Run() = %v, want ErrQuit", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after q")
	}

	toggles, reloads, exits := ctl.counts()
	if toggles != 1 || reloads != 1 || exits != 1 {
		t.Errorf("toggles=%d reloads=%d exits=%d, want 1 each", toggles, reloads, exits)
	}
}

func TestConsole_ContextCancel(t *testing.T) {
	s := tcell.NewSimulationScreen("UTF-8")
	c := New(newFakeController(), WithScreen(s))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	c.Refresh()
	c.Refresh()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() = %v, want nil", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
