package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tidwall/match"

	"github.com/dshills/keyburst/internal/input/scancode"
)

// NewKeysCommand builds "keyburst keys".
func NewKeysCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "keys [pattern]",
		Short: "List the key names macros can send",
		Long: `List every key name the injector can resolve, with its Set 1 scan code.
An optional pattern filters the names; * matches any run of characters and ?
matches one.`,
		Example: `  keyburst keys
  keyburst keys 'f?'
  keyburst keys 'num*'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pattern := "*"
			if len(args) == 1 {
				pattern = args[0]
			}
			return runKeys(cmd, pattern)
		},
	}
}

func runKeys(cmd *cobra.Command, pattern string) error {
	out := cmd.OutOrStdout()
	var rows []map[string]any
	for _, name := range scancode.Default.Names() {
		if !match.Match(string(name), pattern) {
			continue
		}
		code, _ := scancode.Default.Resolve(name)
		rows = append(rows, map[string]any{"name": name, "code": code})
	}
	if len(rows) == 0 {
		fmt.Fprintf(out, "no keys match %q\n", pattern)
		return nil
	}
	renderTable(out, []tableColumn{
		{Header: "KEY", Key: "name"},
		{Header: "SCANCODE", Key: "code"},
	}, rows)
	return nil
}
