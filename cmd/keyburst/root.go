package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/spf13/cobra"

	"github.com/dshills/keyburst/internal/config"
	"github.com/dshills/keyburst/internal/config/loader"
	"github.com/dshills/keyburst/internal/logging"
)

// configEnv names the configuration file when --config is not given.
const configEnv = loader.DefaultEnvPrefix + "CONFIG"

// rootOptions holds the flags shared by every command.
type rootOptions struct {
	ConfigPath string
	LogLevel   string
	LogFile    string
}

// NewRootCommand builds the keyburst command tree. Without a subcommand it
// behaves like "keyburst run".
func NewRootCommand() *cobra.Command {
	root := &rootOptions{}
	runOpts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "keyburst",
		Short: "Keyboard macros triggered by hotkeys",
		Long: `keyburst watches the keyboard for configured trigger keys and replays
key sequences in their place. A continuous macro repeats while its trigger is
held; a single-shot macro plays once per press.

Macros are read from config.toml, config.yaml, config.json or config.lua in
the keyburst directory under $XDG_CONFIG_HOME, or from --config.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, root, runOpts)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&root.ConfigPath, "config", "c", "", "configuration file (default: $KEYBURST_CONFIG, then the XDG config directories)")
	flags.StringVar(&root.LogLevel, "log-level", "", "log level: debug, info, warn or error (overrides the file)")
	flags.StringVar(&root.LogFile, "log-file", "", "append logs to this file instead of stderr")
	addRunFlags(cmd, runOpts)

	cmd.SetVersionTemplate("keyburst {{.Version}}\n")
	cmd.AddCommand(NewRunCommand(root))
	cmd.AddCommand(NewCheckCommand(root))
	cmd.AddCommand(NewKeysCommand())
	cmd.AddCommand(NewInitCommand())
	return cmd
}

// loadOptions returns the configuration sources selected by the flags.
func (o *rootOptions) loadOptions() (config.Options, error) {
	opts := config.Options{
		Path:      o.ConfigPath,
		EnvPrefix: loader.DefaultEnvPrefix,
	}
	if opts.Path == "" {
		opts.Path = os.Getenv(configEnv)
	}
	if o.LogLevel != "" {
		if _, ok := logging.LookupLevel(o.LogLevel); !ok {
			return opts, fmt.Errorf("invalid log level %q (must be debug, info, warn, or error)", o.LogLevel)
		}
		opts.Overrides = map[string]any{"log_level": o.LogLevel}
	}
	return opts, nil
}

// withInitHint points at "keyburst init" when no configuration exists yet.
func withInitHint(err error) error {
	if errors.Is(err, config.ErrNoConfig) {
		return fmt.Errorf("%w (create one with \"keyburst init\")", err)
	}
	return err
}

// newLogger opens the log destination. When the terminal is taken over by
// the console view and no file was given, logs go to the XDG state
// directory. The returned function closes any opened file.
func (o *rootOptions) newLogger(stderr io.Writer, console bool) (*logging.Logger, func(), error) {
	cfg := logging.DefaultConfig()
	if level, ok := logging.LookupLevel(o.LogLevel); ok {
		cfg.Level = level
	}
	cfg.Output = stderr

	path := o.LogFile
	if path == "" && console {
		p, err := xdg.StateFile(filepath.Join(config.AppName, "keyburst.log"))
		if err != nil {
			return nil, nil, fmt.Errorf("resolving log path: %w", err)
		}
		path = p
	}
	if path == "" {
		return logging.New(cfg), func() {}, nil
	}

	f, err := logging.OpenFile(path)
	if err != nil {
		return nil, nil, err
	}
	cfg.Output = f
	return logging.New(cfg), func() { _ = f.Close() }, nil
}
