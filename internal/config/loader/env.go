package loader

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// DefaultEnvPrefix is the prefix of the environment overrides.
const DefaultEnvPrefix = "KEYBURST_"

// EnvLoader loads configuration from environment variables.
type EnvLoader struct {
	prefix  string            // Environment variable prefix (e.g., "KEYBURST_")
	mapping map[string]string // Env var -> config path
	ignore  map[string]bool
}

// NewEnvLoader creates a new environment variable loader.
// The prefix should include the trailing underscore (e.g., "KEYBURST_").
func NewEnvLoader(prefix string) *EnvLoader {
	return &EnvLoader{
		prefix:  prefix,
		mapping: defaultEnvMapping(),
		ignore: map[string]bool{
			"KEYBURST_CONFIG": true,
		},
	}
}

// NewEnvLoaderWithMapping creates a loader with custom environment variable mappings.
func NewEnvLoaderWithMapping(prefix string, mapping map[string]string) *EnvLoader {
	return &EnvLoader{
		prefix:  prefix,
		mapping: mapping,
	}
}

func defaultEnvMapping() map[string]string {
	return map[string]string{
		"KEYBURST_TOGGLE_KEY":                   "toggle_key",
		"KEYBURST_FORCE_QUIT":                   "force_quit",
		"KEYBURST_LOG_LEVEL":                    "log_level",
		"KEYBURST_TIMING_PRESS":                 "timing.press",
		"KEYBURST_TIMING_RELEASE":               "timing.release",
		"KEYBURST_TIMING_SEQUENCE":              "timing.sequence",
		"KEYBURST_ENGINE_POLL_SLICE":            "engine.poll_slice",
		"KEYBURST_ENGINE_SELF_INJECT_GRACE":     "engine.self_inject_grace",
		"KEYBURST_DISPATCH_SINGLE_SHOT_UNBLOCK": "dispatch.single_shot_unblock",
	}
}

// Load reads environment variables and returns a configuration map.
// Note: Empty string values are treated as valid values, not as unset.
func (l *EnvLoader) Load() (map[string]any, error) {
	config := make(map[string]any)

	for env, path := range l.mapping {
		if val, ok := os.LookupEnv(env); ok {
			setByPath(config, path, l.parseValue(val))
		}
	}

	if l.prefix == "" {
		return config, nil
	}

	for _, env := range os.Environ() {
		name, value, ok := strings.Cut(env, "=")
		if !ok || !strings.HasPrefix(name, l.prefix) {
			continue
		}
		if _, mapped := l.mapping[name]; mapped || l.ignore[name] {
			continue
		}

		setByPath(config, l.envToPath(name), l.parseValue(value))
	}

	return config, nil
}

// AddMapping adds a custom environment variable mapping.
func (l *EnvLoader) AddMapping(envVar, configPath string) {
	if l.mapping == nil {
		l.mapping = make(map[string]string)
	}
	l.mapping[envVar] = configPath
}

// RemoveMapping removes an environment variable mapping.
func (l *EnvLoader) RemoveMapping(envVar string) {
	delete(l.mapping, envVar)
}

// Ignore excludes an environment variable from the prefix scan.
func (l *EnvLoader) Ignore(envVar string) {
	if l.ignore == nil {
		l.ignore = make(map[string]bool)
	}
	l.ignore[envVar] = true
}

// envToPath converts KEYBURST_ENGINE_POLL_SLICE to engine.poll_slice: the
// first word names the section, the rest is the snake_case setting.
func (l *EnvLoader) envToPath(env string) string {
	name := strings.ToLower(strings.TrimPrefix(env, l.prefix))
	section, setting, ok := strings.Cut(name, "_")
	if !ok {
		return section
	}
	return section + "." + setting
}

// parseValue attempts to parse the string value into an appropriate type.
// Bare digits stay numbers rather than booleans since "1" is a key name.
func (l *EnvLoader) parseValue(s string) any {
	if s == "" {
		return s
	}

	switch strings.ToLower(s) {
	case "true", "yes":
		return true
	case "false", "no":
		return false
	}

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}

	if strings.Contains(s, ".") {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}

	if d, err := time.ParseDuration(s); err == nil {
		return d
	}

	if strings.HasPrefix(s, "[") || strings.HasPrefix(s, "{") {
		if gjson.Valid(s) {
			return normalizeValue(gjson.Parse(s).Value())
		}
	}

	return s
}

// setByPath sets a value in a nested map using a dot-separated path.
func setByPath(data map[string]any, path string, value any) {
	parts := strings.Split(path, ".")
	current := data

	for i := 0; i < len(parts)-1; i++ {
		part := parts[i]
		if next, ok := current[part].(map[string]any); ok {
			current = next
		} else {
			next := make(map[string]any)
			current[part] = next
			current = next
		}
	}

	current[parts[len(parts)-1]] = value
}
