package app

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/term"

	"github.com/dshills/keyburst/internal/input/key"
)

const bannerWidth = 60

// printBanner writes the startup banner to Options.Stdout. Nothing is
// written when Stdout is a file that is not a terminal.
func (app *Application) printBanner() {
	w := app.opts.Stdout
	if w == nil {
		return
	}
	width := bannerWidth
	if f, ok := w.(interface{ Fd() uintptr }); ok {
		fd := int(f.Fd())
		if !term.IsTerminal(fd) {
			return
		}
		if cols, _, err := term.GetSize(fd); err == nil && cols > 0 && cols < width {
			width = cols
		}
	}
	writeBanner(w, app.Status(), width)
}

func writeBanner(w io.Writer, st Status, width int) {
	rule := strings.Repeat("=", width)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "keyburst is running")
	if st.ConfigPath != "" {
		fmt.Fprintf(w, "  config:  %s\n", st.ConfigPath)
	}
	fmt.Fprintf(w, "  toggle:  press %s to enable or disable macros\n", st.ToggleKey)
	fmt.Fprintf(w, "  exit:    press %s or use the tray menu\n", chordString(st.ForceQuit))
	if st.DryRun {
		fmt.Fprintln(w, "  dry run: input is logged, not sent")
	}
	fmt.Fprintln(w, strings.Repeat("-", width))
	for _, m := range st.Macros {
		fmt.Fprintf(w, "  %-8s %-11s %s\n", m.Trigger, m.Mode, joinKeys(m.Keys, " "))
	}
	fmt.Fprintln(w, rule)
}

func chordString(keys []key.Symbol) string {
	if len(keys) == 0 {
		return "(none)"
	}
	return joinKeys(keys, "+")
}

func joinKeys(keys []key.Symbol, sep string) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = string(k)
	}
	return strings.Join(parts, sep)
}
