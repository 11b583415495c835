package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dshills/keyburst/internal/config"
	"github.com/dshills/keyburst/internal/config/loader"
)

type initOptions struct {
	Format string
	Force  bool
	Print  bool
}

// NewInitCommand builds "keyburst init".
func NewInitCommand() *cobra.Command {
	opts := &initOptions{}
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a starter configuration file",
		Long: `Write a commented starter configuration. Without a path the file is
created in the keyburst directory under $XDG_CONFIG_HOME. The format follows
--format, or the path's extension, or defaults to TOML.`,
		Example: `  keyburst init
  keyburst init --format lua
  keyburst init ./macros.yaml
  keyburst init --print --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, args, opts)
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&opts.Format, "format", "f", "", "file format: toml, yaml, json or lua")
	flags.BoolVar(&opts.Force, "force", false, "overwrite an existing file")
	flags.BoolVar(&opts.Print, "print", false, "write to stdout instead of a file")
	return cmd
}

func runInit(cmd *cobra.Command, args []string, opts *initOptions) error {
	var path string
	if len(args) == 1 {
		path = args[0]
	}
	format, err := initFormat(path, opts.Format)
	if err != nil {
		return err
	}

	data, err := config.MarshalSample(format)
	if err != nil {
		return err
	}
	if opts.Print {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}

	if path == "" {
		if path, err = config.UserPath(format); err != nil {
			return err
		}
	}
	if !opts.Force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
	return nil
}

// initFormat picks the output format from the flag and the path extension,
// which must agree since loading goes by extension.
func initFormat(path, flag string) (loader.Format, error) {
	var byExt loader.Format
	if path != "" {
		f, err := loader.FormatOf(path)
		if err != nil {
			return "", err
		}
		byExt = f
	}
	if flag == "" {
		if byExt != "" {
			return byExt, nil
		}
		return loader.FormatTOML, nil
	}
	f, err := loader.ParseFormat(flag)
	if err != nil {
		return "", err
	}
	if byExt != "" && byExt != f {
		return "", fmt.Errorf("--format %s does not match %s", f, path)
	}
	return f, nil
}
