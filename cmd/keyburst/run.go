package main

import (
	"github.com/spf13/cobra"

	"github.com/dshills/keyburst/internal/app"
	"github.com/dshills/keyburst/internal/input/hook"
	"github.com/dshills/keyburst/internal/ui/console"
	"github.com/dshills/keyburst/internal/ui/tray"
)

// hookSource replaces the OS keyboard hook when set.
var hookSource hook.Source

// runOptions holds the flags of the run command.
type runOptions struct {
	Console bool
	NoTray  bool
	DryRun  bool
	NoWatch bool
}

// NewRunCommand builds "keyburst run".
func NewRunCommand(root *rootOptions) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Install the keyboard hook and run macros until exit",
		Long: `Install the keyboard hook and run macros until the force-quit chord,
the tray Exit item, or an interrupt signal.`,
		Example: `  keyburst run
  keyburst run --console
  keyburst run --dry-run --log-level debug`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, root, opts)
		},
	}
	addRunFlags(cmd, opts)
	return cmd
}

func addRunFlags(cmd *cobra.Command, opts *runOptions) {
	flags := cmd.Flags()
	flags.BoolVar(&opts.Console, "console", false, "show a terminal status view instead of the tray icon")
	flags.BoolVar(&opts.NoTray, "no-tray", false, "run without the tray icon")
	flags.BoolVarP(&opts.DryRun, "dry-run", "n", false, "log macro input instead of sending it")
	flags.BoolVar(&opts.NoWatch, "no-watch", false, "do not reload the configuration when its file changes")
}

func runRun(cmd *cobra.Command, root *rootOptions, opts *runOptions) error {
	loadOpts, err := root.loadOptions()
	if err != nil {
		return err
	}
	logger, closeLog, err := root.newLogger(cmd.ErrOrStderr(), opts.Console)
	if err != nil {
		return err
	}
	defer closeLog()

	appOpts := app.Options{
		Load:   loadOpts,
		Logger: logger,
		Source: hookSource,
		DryRun: opts.DryRun,
		Watch:  !opts.NoWatch,
		Stdout: cmd.OutOrStdout(),
	}
	if opts.Console {
		appOpts.Stdout = nil
	}

	application, err := app.New(appOpts)
	if err != nil {
		return withInitHint(err)
	}

	switch {
	case opts.Console:
		err = application.SetFrontend(console.New(application, console.WithLogger(logger)))
	case !opts.NoTray:
		err = application.SetFrontend(tray.New(application, logger))
	}
	if err != nil {
		_ = application.Shutdown(cmd.Context())
		return err
	}

	return application.Run(cmd.Context())
}
