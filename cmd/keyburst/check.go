package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/keyburst/internal/config"
	"github.com/dshills/keyburst/internal/input/key"
	"github.com/dshills/keyburst/internal/input/scancode"
)

type checkOptions struct {
	Strict bool
}

// NewCheckCommand builds "keyburst check".
func NewCheckCommand(root *rootOptions) *cobra.Command {
	opts := &checkOptions{}
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration and list its macros",
		Long: `Load the configuration exactly as "keyburst run" would, report every
problem found, and print the resulting macro table. Exits with status 1 when
the configuration is invalid.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, root, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "treat warnings and unknown keys as errors")
	return cmd
}

func runCheck(cmd *cobra.Command, root *rootOptions, opts *checkOptions) error {
	loadOpts, err := root.loadOptions()
	if err != nil {
		return err
	}
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()

	cfg, err := config.Load(loadOpts)
	if verrs, ok := config.IsValidation(err); ok {
		fmt.Fprintf(errOut, "%s: %d problem(s)\n", cfg.Path, verrs.Len())
		for _, e := range verrs.Errors {
			fmt.Fprintf(errOut, "  %v\n", e)
		}
		return &exitError{code: 1}
	}
	if err != nil {
		return withInitHint(err)
	}
	table := cfg.Table()
	if err := table.Validate(); err != nil {
		return fmt.Errorf("%s: %w", cfg.Path, err)
	}

	fmt.Fprintf(out, "%s: OK, %d macros\n", cfg.Path, len(cfg.Macros))
	fmt.Fprintf(out, "toggle %s, exit %s\n\n", cfg.ToggleKey, joinSymbols(cfg.ForceQuit, "+"))

	rows := make([]map[string]any, 0, len(cfg.Macros))
	for _, trig := range cfg.Triggers() {
		def := table[trig]
		var pass time.Duration
		keys := make([]string, len(def.Actions))
		for i, a := range def.Actions {
			keys[i] = string(a.Key)
			pass += a.Hold + a.Delay
		}
		rows = append(rows, map[string]any{
			"trigger": trig,
			"mode":    def.Mode,
			"keys":    strings.Join(keys, " "),
			"pass":    pass,
		})
	}
	renderTable(out, []tableColumn{
		{Header: "TRIGGER", Key: "trigger"},
		{Header: "MODE", Key: "mode"},
		{Header: "PASS", Key: "pass"},
		{Header: "KEYS", Key: "keys"},
	}, rows)

	problems := append(append([]string(nil), cfg.Warnings...), cfg.UnknownKeys(scancode.Default)...)
	if len(problems) > 0 {
		fmt.Fprintln(out)
	}
	for _, p := range problems {
		fmt.Fprintf(out, "warning: %s\n", p)
	}
	if opts.Strict && len(problems) > 0 {
		return &exitError{code: 1}
	}
	return nil
}

func joinSymbols(keys []key.Symbol, sep string) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = string(k)
	}
	return strings.Join(parts, sep)
}
