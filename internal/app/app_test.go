package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dshills/keyburst/internal/config"
	"github.com/dshills/keyburst/internal/input/hook"
	"github.com/dshills/keyburst/internal/input/inject"
	"github.com/dshills/keyburst/internal/input/key"
	"github.com/dshills/keyburst/internal/input/macro"
	"github.com/dshills/keyburst/internal/input/scancode"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Macros["j"] = config.Macro{Trigger: "j", Mode: macro.ModeSingleShot, Keys: []key.Symbol{"a", "b"}}
	cfg.Macros["k"] = config.Macro{Trigger: "k", Mode: macro.ModeContinuous, Keys: []key.Symbol{"c"}}
	cfg.Macros["l"] = config.Macro{Trigger: "l", Mode: macro.ModeDisabled, Keys: []key.Symbol{"d"}}
	return cfg
}

type harness struct {
	app *Application
	src *hook.Manual
	rec *inject.Recorder
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	h := &harness{src: hook.NewManual(), rec: inject.NewRecorder(nil)}
	if opts.Config == nil && opts.Load.Path == "" {
		opts.Config = testConfig()
	}
	opts.Source = h.src
	opts.Injector = h.rec

	app, err := New(opts)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = app.Shutdown(ctx)
	})
	h.app = app
	return h
}

func (h *harness) presses(t *testing.T, name string) int {
	t.Helper()
	code, ok := scancode.Default.Resolve(key.Symbol(name))
	if !ok {
		t.Fatalf("no scan code for %q", name)
	}
	return h.rec.Count(inject.OpPress, code)
}

type fakeFrontend struct {
	refreshes atomic.Int32
	started   chan struct{}
	run       func(ctx context.Context) error
}

func newFakeFrontend(run func(ctx context.Context) error) *fakeFrontend {
	return &fakeFrontend{started: make(chan struct{}), run: run}
}

func (f *fakeFrontend) Run(ctx context.Context) error {
	close(f.started)
	if f.run != nil {
		return f.run(ctx)
	}
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakeFrontend) Refresh() {
	f.refreshes.Add(1)
}

func runAsync(app *Application) <-chan error {
	done := make(chan error, 1)
	go func() { done <- app.Run(context.Background()) }()
	return done
}

func waitRun(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return")
		return nil
	}
}

func TestNew_TracksTriggersAndControlKeys(t *testing.T) {
	h := newHarness(t, Options{})

	got := h.src.Tracked()
	want := []key.Symbol{"`", "alt", "delete", "j", "k", "l", "shift"}
	if len(got) != len(want) {
		t.Fatalf("Tracked() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Tracked()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

type failingSource struct{ *hook.Manual }

func (f *failingSource) Register([]key.Symbol, hook.Handler) error {
	return errors.New("no hook for you")
}

func TestNew_InitError(t *testing.T) {
	_, err := New(Options{
		Config:   testConfig(),
		Source:   &failingSource{hook.NewManual()},
		Injector: inject.NewRecorder(nil),
	})
	if !errors.Is(err, ErrInitialization) {
		t.Fatalf("New() error = %v, want ErrInitialization", err)
	}
	var ie *InitError
	if !errors.As(err, &ie) || ie.Component != "hook" {
		t.Errorf("New() error = %#v, want hook InitError", err)
	}
}

func TestNew_LoadsConfigFile(t *testing.T) {
	_, err := New(Options{
		Load:     config.Options{Path: filepath.Join(t.TempDir(), "missing.toml")},
		Source:   hook.NewManual(),
		Injector: inject.NewRecorder(nil),
	})
	if !errors.Is(err, config.ErrFileNotFound) {
		t.Errorf("New() error = %v, want ErrFileNotFound", err)
	}
}

func TestApplication_SingleShotThroughHook(t *testing.T) {
	h := newHarness(t, Options{})

	if !h.src.Press("j") {
		t.Error("trigger press should be suppressed")
	}
	h.app.Engine().Wait()
	if !h.src.Release("j") {
		t.Error("trigger release should be suppressed")
	}

	for _, k := range []string{"a", "b"} {
		if n := h.presses(t, k); n != 1 {
			t.Errorf("%s pressed %d times, want 1", k, n)
		}
	}
	if h.src.Press("x") {
		t.Error("untracked key must pass through")
	}
}

func TestApplication_DisabledModeTriggerSwallowed(t *testing.T) {
	h := newHarness(t, Options{})

	if !h.src.Press("l") {
		t.Error("disabled-mode trigger press should be suppressed")
	}
	if !h.src.Release("l") {
		t.Error("disabled-mode trigger release should be suppressed")
	}
	if n := h.presses(t, "d"); n != 0 {
		t.Errorf("d pressed %d times, want 0 for a disabled-mode macro", n)
	}
}

func TestApplication_ToggleKey(t *testing.T) {
	h := newHarness(t, Options{})
	fe := newFakeFrontend(nil)
	if err := h.app.SetFrontend(fe); err != nil {
		t.Fatal(err)
	}

	if !h.src.Press("`") {
		t.Error("toggle key press should be suppressed")
	}
	h.src.Release("`")
	if h.app.Enabled() {
		t.Fatal("macros still enabled after toggle")
	}
	if fe.refreshes.Load() == 0 {
		t.Error("frontend was not refreshed on toggle")
	}
	if h.src.Press("j") {
		t.Error("trigger must pass through while disabled")
	}
	h.src.Release("j")

	if !h.app.ToggleEnabled() {
		t.Error("ToggleEnabled() should re-enable")
	}
	if got := h.app.Metrics().Snapshot().Toggles; got != 2 {
		t.Errorf("Toggles = %d, want 2", got)
	}
}

func TestApplication_ForceQuitEndsRun(t *testing.T) {
	h := newHarness(t, Options{})
	done := runAsync(h.app)

	h.src.Press("alt")
	h.src.Press("shift")
	if !h.src.Press("delete") {
		t.Error("completing the force-quit chord should be suppressed")
	}

	if err := waitRun(t, done); err != nil {
		t.Errorf("Run() = %v, want nil", err)
	}
	if err := h.src.Register(nil, nil); !errors.Is(err, hook.ErrClosed) {
		t.Errorf("hook still registered after shutdown: %v", err)
	}
	if h.app.IsRunning() {
		t.Error("IsRunning() = true after Run returned")
	}
}

func TestApplication_RunWithFrontend(t *testing.T) {
	tests := []struct {
		name    string
		run     func(ctx context.Context) error
		wantErr bool
	}{
		{"exit via controller", nil, false},
		{"frontend quits", func(context.Context) error { return ErrQuit }, false},
		{"frontend fails", func(context.Context) error { return errors.New("no display") }, true},
		{"frontend panics", func(context.Context) error { panic("boom") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, Options{})
			fe := newFakeFrontend(tt.run)
			if err := h.app.SetFrontend(fe); err != nil {
				t.Fatal(err)
			}

			done := runAsync(h.app)
			<-fe.started
			if tt.run == nil {
				h.app.Exit()
			}

			err := waitRun(t, done)
			if (err != nil) != tt.wantErr {
				t.Errorf("Run() = %v, wantErr %v", err, tt.wantErr)
			}
			select {
			case <-h.app.Done():
			default:
				t.Error("Done() not closed after Run returned")
			}
		})
	}
}

func TestApplication_RunOnce(t *testing.T) {
	h := newHarness(t, Options{})
	done := runAsync(h.app)

	deadline := time.Now().Add(time.Second)
	for !h.app.IsRunning() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if err := h.app.Run(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Run() = %v, want ErrAlreadyRunning", err)
	}
	if err := h.app.SetFrontend(nil); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("SetFrontend() while running = %v, want ErrAlreadyRunning", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := h.app.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() = %v", err)
	}
	if err := waitRun(t, done); err != nil {
		t.Errorf("Run() = %v", err)
	}
}

func TestApplication_ShutdownWithoutRun(t *testing.T) {
	h := newHarness(t, Options{})
	for i := 0; i < 2; i++ {
		if err := h.app.Shutdown(context.Background()); err != nil {
			t.Errorf("Shutdown() #%d = %v", i+1, err)
		}
	}
	if h.src.Press("j") {
		t.Error("keys must pass through after shutdown")
	}
}

const reloadBase = `
[macros.j]
mode = 2
keys = ["a"]
`

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestApplication_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeConfig(t, path, reloadBase)
	h := newHarness(t, Options{Load: config.Options{Path: path}})

	h.app.Engine().SetEnabled(false)
	writeConfig(t, path, "toggle_key = \"f12\"\n"+reloadBase+`
[macros.m]
mode = "continuous"
keys = ["b"]
`)
	if err := h.app.Reload(); err != nil {
		t.Fatalf("Reload() error: %v", err)
	}

	if !h.app.Engine().IsMacroKey("m") {
		t.Error("new macro m not installed")
	}
	if h.app.Enabled() {
		t.Error("Reload() should restore the disabled state")
	}
	if got := h.app.Config().ToggleKey; got != "f12" {
		t.Errorf("ToggleKey = %q, want f12", got)
	}
	tracked := key.NewSet(h.src.Tracked()...)
	if !tracked.Has("m") || !tracked.Has("f12") || tracked.Has("`") {
		t.Errorf("Tracked() = %v after reload", h.src.Tracked())
	}

	writeConfig(t, path, `[macros.j]
mode = 7
keys = ["a"]
`)
	err := h.app.Reload()
	if !errors.Is(err, ErrReloadRejected) || !errors.Is(err, config.ErrValidationFailed) {
		t.Fatalf("Reload() of invalid file = %v, want rejection", err)
	}
	if !h.app.Engine().IsMacroKey("m") {
		t.Error("rejected reload replaced the running table")
	}

	snap := h.app.Metrics().Snapshot()
	if snap.Reloads != 1 || snap.ReloadFailures != 1 || snap.LastReload.IsZero() {
		t.Errorf("metrics = %+v, want 1 reload and 1 failure", snap)
	}
}

func TestApplication_ReloadOnFileChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeConfig(t, path, reloadBase)
	h := newHarness(t, Options{Load: config.Options{Path: path}, Watch: true})
	if h.app.watcher == nil {
		t.Fatal("watcher not started")
	}

	writeConfig(t, path, reloadBase+`
[macros.m]
mode = 1
keys = ["b"]
`)

	deadline := time.Now().Add(3 * time.Second)
	for !h.app.Engine().IsMacroKey("m") {
		if time.Now().After(deadline) {
			t.Fatal("file change was not applied")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestApplication_Status(t *testing.T) {
	h := newHarness(t, Options{DryRun: true})
	st := h.app.Status()

	if !st.DryRun || st.ToggleKey != "`" {
		t.Errorf("Status() = %+v", st)
	}
	if len(st.Macros) != 3 || st.Macros[0].Trigger != "j" {
		t.Errorf("Macros = %+v, want j, k, l", st.Macros)
	}
	if !st.Engine.Enabled {
		t.Error("Engine.Enabled = false")
	}
	if !st.Health.Healthy {
		t.Errorf("Health = %+v", st.Health)
	}
}

func TestBanner(t *testing.T) {
	var buf bytes.Buffer
	h := newHarness(t, Options{Stdout: &buf, DryRun: true})
	h.app.printBanner()

	out := buf.String()
	for _, want := range []string{
		"press ` to enable or disable macros",
		"press alt+shift+delete",
		"dry run",
		"j        single-shot",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("banner missing %q:\n%s", want, out)
		}
	}
}
