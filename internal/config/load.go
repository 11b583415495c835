package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"

	"github.com/dshills/keyburst/internal/config/loader"
)

// AppName is the directory name used under the XDG config directories.
const AppName = "keyburst"

// DefaultIncludeDepth bounds nested @include directives.
const DefaultIncludeDepth = 8

// Options controls Load.
type Options struct {
	// Path is the configuration file. When empty the XDG config
	// directories are searched for keyburst/config.{toml,yaml,yml,json,lua}.
	Path string

	// FS is the file system to read from. Defaults to the OS.
	FS loader.FileSystem

	// EnvPrefix enables environment overrides with this prefix
	// (loader.DefaultEnvPrefix). Empty disables them.
	EnvPrefix string

	// Overrides is merged last, above the file and the environment. The
	// CLI uses it for flags such as --log-level.
	Overrides map[string]any
}

// Load reads, merges and decodes the configuration. Sources are layered
// from lowest to highest priority: built-in defaults, the file (with its
// includes), environment variables, then Options.Overrides.
func Load(opts Options) (*Config, error) {
	fsys := opts.FS
	if fsys == nil {
		fsys = loader.DefaultFS()
	}

	path := opts.Path
	if path == "" {
		found, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = found
	}

	raw, err := loader.LoadWithIncludes(fsys, path, DefaultIncludeDepth)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}

	if opts.EnvPrefix != "" {
		env, err := loader.NewEnvLoader(opts.EnvPrefix).Load()
		if err != nil {
			return nil, fmt.Errorf("reading environment: %w", err)
		}
		raw = loader.DeepMerge(foldKeys(raw), foldKeys(env))
	}
	raw = loader.DeepMerge(foldKeys(raw), foldKeys(loader.Clone(opts.Overrides)))

	cfg, err := Decode(raw)
	cfg.Path = path
	if err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// foldKeys lower-cases setting names so that sources spelling a setting
// differently still merge onto the same key. Trigger names under macros are
// left alone; Decode reports triggers that collide after normalisation.
func foldKeys(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		name := strings.ToLower(strings.TrimSpace(k))
		switch t := v.(type) {
		case map[string]any:
			if name == "macros" {
				macros := make(map[string]any, len(t))
				for trig, def := range t {
					if fields, ok := def.(map[string]any); ok {
						def = lowerKeys(fields)
					}
					macros[trig] = def
				}
				v = macros
			} else {
				v = foldKeys(t)
			}
		}
		out[name] = v
	}
	return out
}

// candidateNames lists the file names searched for, in order.
func candidateNames() []string {
	names := make([]string, 0, len(loader.Formats)+1)
	for _, f := range loader.Formats {
		names = append(names, "config"+f.Extension())
		if f == loader.FormatYAML {
			names = append(names, "config.yml")
		}
	}
	return names
}

// DefaultPath searches the XDG config directories for a keyburst
// configuration file and returns the first one found.
func DefaultPath() (string, error) {
	for _, name := range candidateNames() {
		if p, err := xdg.SearchConfigFile(filepath.Join(AppName, name)); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w in %s", ErrNoConfig, filepath.Join(xdg.ConfigHome, AppName))
}

// UserPath returns the path a new configuration of format f is written to,
// creating the parent directory.
func UserPath(f loader.Format) (string, error) {
	p, err := xdg.ConfigFile(filepath.Join(AppName, "config"+f.Extension()))
	if err != nil {
		return "", fmt.Errorf("resolving config path: %w", err)
	}
	return p, nil
}

// IsValidation reports whether err carries configuration validation
// failures, and returns them.
func IsValidation(err error) (*ValidationErrors, bool) {
	var verrs *ValidationErrors
	if errors.As(err, &verrs) {
		return verrs, true
	}
	return nil, false
}
