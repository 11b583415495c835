package config

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dshills/keyburst/internal/dispatcher"
	"github.com/dshills/keyburst/internal/input/key"
	"github.com/dshills/keyburst/internal/input/macro"
	"github.com/dshills/keyburst/internal/logging"
)

// legacyTiming maps the original flat timing names to timing.* settings.
var legacyTiming = map[string]string{
	"key_press_duration":   "press",
	"key_release_duration": "release",
	"sequence_delay":       "sequence",
}

var knownTopLevel = map[string]bool{
	"toggle_key": true,
	"force_quit": true,
	"log_level":  true,
	"timing":     true,
	"engine":     true,
	"dispatch":   true,
	"macros":     true,
}

// Decode builds a Config from a loaded configuration map, starting from
// Default. Setting names are case-insensitive. Every problem found is
// collected into a *ValidationErrors; the returned Config is only usable
// when the error is nil.
func Decode(raw map[string]any) (*Config, error) {
	cfg := Default()
	var errs ValidationErrors
	d := decoder{cfg: cfg, errs: &errs}

	top := lowerKeys(raw)

	for _, k := range sortedKeys(top) {
		if !knownTopLevel[k] && legacyTiming[k] == "" {
			d.warn("%s: unknown setting ignored", k)
		}
	}

	if v, ok := top["toggle_key"]; ok {
		d.toggleKey(v)
	}
	if v, ok := top["force_quit"]; ok {
		d.forceQuit(v)
	}
	if v, ok := top["log_level"]; ok {
		d.logLevel(v)
	}
	d.timing(top)
	d.engine(top["engine"])
	d.dispatch(top["dispatch"])

	v, ok := top["macros"]
	if !ok {
		errs.Add("macros", "required setting is missing")
	} else {
		d.macros(v)
	}

	if errors.Is(cfg.DispatcherConfig().Validate(), dispatcher.ErrToggleInForceQuit) {
		errs.AddWithValue("toggle_key", "must not be one of the force_quit keys", string(cfg.ToggleKey))
	}
	if m, clash := cfg.Macros[cfg.ToggleKey]; clash && m.Mode != macro.ModeDisabled {
		d.warn("macros.%s: trigger is also the toggle key and will never fire", cfg.ToggleKey)
	}

	return cfg, errs.AsError()
}

type decoder struct {
	cfg  *Config
	errs *ValidationErrors
}

func (d decoder) warn(format string, args ...any) {
	d.cfg.Warnings = append(d.cfg.Warnings, fmt.Sprintf(format, args...))
}

func (d decoder) toggleKey(v any) {
	s, ok := asString(v)
	if !ok {
		d.errs.AddWithValue("toggle_key", "must be a key name", v)
		return
	}
	sym := key.Normalize(s, false)
	if sym.IsNone() {
		d.errs.Add("toggle_key", "must not be empty")
		return
	}
	d.cfg.ToggleKey = sym
}

// forceQuit accepts a list of key names or one string joined with '+'.
func (d decoder) forceQuit(v any) {
	var names []any
	switch t := v.(type) {
	case string:
		for _, part := range strings.Split(t, "+") {
			if strings.TrimSpace(part) != "" {
				names = append(names, part)
			}
		}
	case []any:
		names = t
	default:
		d.errs.AddWithValue("force_quit", "must be a list of key names", v)
		return
	}

	keys := make([]key.Symbol, 0, len(names))
	for i, n := range names {
		s, ok := asString(n)
		sym := key.Normalize(s, false)
		if !ok || sym.IsNone() {
			d.errs.AddWithValue(Index("force_quit", i), "must be a key name", n)
			continue
		}
		keys = append(keys, sym)
	}
	d.cfg.ForceQuit = keys
}

func (d decoder) logLevel(v any) {
	s, ok := v.(string)
	if !ok {
		d.errs.AddWithValue("log_level", "must be a string", v)
		return
	}
	if strings.TrimSpace(s) == "" {
		return
	}
	level, ok := logging.LookupLevel(s)
	if !ok {
		d.errs.AddWithValue("log_level", "must be one of debug, info, warn, error", s)
		return
	}
	d.cfg.LogLevel = level
}

func (d decoder) timing(top map[string]any) {
	section := make(map[string]any)
	for legacy, name := range legacyTiming {
		if v, ok := top[legacy]; ok {
			section[name] = v
		}
	}
	if v, ok := top["timing"]; ok {
		m, ok := asMap(v)
		if !ok {
			d.errs.AddWithValue("timing", "must be a table", v)
			return
		}
		for k, v := range lowerKeys(m) {
			section[k] = v
		}
	}

	d.section("timing", section, map[string]*time.Duration{
		"press":    &d.cfg.Timing.Press,
		"release":  &d.cfg.Timing.Release,
		"sequence": &d.cfg.Timing.Sequence,
	})
}

func (d decoder) engine(v any) {
	if v == nil {
		return
	}
	m, ok := asMap(v)
	if !ok {
		d.errs.AddWithValue("engine", "must be a table", v)
		return
	}
	d.section("engine", lowerKeys(m), map[string]*time.Duration{
		"poll_slice":        &d.cfg.Engine.PollSlice,
		"self_inject_grace": &d.cfg.Engine.SelfInjectGrace,
	})
	if d.cfg.Engine.PollSlice > macro.MaxPollSlice {
		d.warn("engine.poll_slice: %v capped at %v", d.cfg.Engine.PollSlice, macro.MaxPollSlice)
		d.cfg.Engine.PollSlice = macro.MaxPollSlice
	}
	if d.cfg.Engine.PollSlice == 0 {
		d.cfg.Engine.PollSlice = macro.DefaultPollSlice
	}
}

func (d decoder) dispatch(v any) {
	if v == nil {
		return
	}
	m, ok := asMap(v)
	if !ok {
		d.errs.AddWithValue("dispatch", "must be a table", v)
		return
	}
	d.section("dispatch", lowerKeys(m), map[string]*time.Duration{
		"single_shot_unblock": &d.cfg.Dispatch.SingleShotUnblock,
	})
}

// section decodes a table of durations into the given fields.
func (d decoder) section(path string, m map[string]any, fields map[string]*time.Duration) {
	for _, name := range sortedKeys(m) {
		field, ok := fields[name]
		if !ok {
			d.warn("%s: unknown setting ignored", Sub(path, name))
			continue
		}
		if dur, ok := d.duration(Sub(path, name), m[name]); ok {
			*field = dur
		}
	}
}

func (d decoder) duration(path string, v any) (time.Duration, bool) {
	dur, ok := asDuration(v)
	if !ok {
		d.errs.AddWithValue(path, "must be a number of seconds or a duration string", v)
		return 0, false
	}
	if dur < 0 {
		d.errs.AddWithValue(path, "must be >= 0", v)
		return 0, false
	}
	return dur, true
}

func (d decoder) macros(v any) {
	m, ok := asMap(v)
	if !ok {
		d.errs.AddWithValue("macros", "must be a table of trigger to macro", v)
		return
	}
	if len(m) == 0 {
		d.errs.Add("macros", "no macros defined")
		return
	}

	seen := make(map[key.Symbol]string, len(m))
	for _, name := range sortedKeys(m) {
		path := Sub("macros", name)
		trig := key.Normalize(name, false)
		if trig.IsNone() {
			d.errs.Add(path, "trigger must be a key name")
			continue
		}
		if prev, dup := seen[trig]; dup {
			d.errs.Addf(path, "trigger %s is already bound by macros.%s", trig, prev)
			continue
		}
		seen[trig] = name
		if mac, ok := d.macro(path, trig, m[name]); ok {
			d.cfg.Macros[trig] = mac
		}
	}
}

func (d decoder) macro(path string, trig key.Symbol, v any) (Macro, bool) {
	raw, ok := asMap(v)
	if !ok {
		d.errs.Add(path, `must be a table, for example { keys = ["a", "b"], mode = 2 }`)
		return Macro{}, false
	}
	fields := lowerKeys(raw)
	before := d.errs.Len()
	mac := Macro{Trigger: trig}

	for _, k := range sortedKeys(fields) {
		switch k {
		case "keys", "mode", "holds", "delays":
		default:
			d.warn("%s: unknown setting ignored", Sub(path, k))
		}
	}

	if mv, ok := fields["mode"]; !ok {
		d.errs.Add(Sub(path, "mode"), "required setting is missing")
	} else {
		mode, err := macro.ParseMode(modeString(mv))
		if err != nil {
			d.errs.AddWithValue(Sub(path, "mode"), "must be 0, 1 or 2 (0 = disabled, 1 = continuous, 2 = single-shot)", mv)
		}
		mac.Mode = mode
	}

	keyCount := 0
	kv, ok := fields["keys"]
	switch {
	case !ok:
		d.errs.Add(Sub(path, "keys"), "required setting is missing")
	default:
		list, isList := kv.([]any)
		keyCount = len(list)
		switch {
		case !isList:
			d.errs.AddWithValue(Sub(path, "keys"), "must be a list", kv)
		case len(list) == 0:
			d.errs.Add(Sub(path, "keys"), "must not be empty")
		default:
			for i, item := range list {
				s, ok := asString(item)
				sym := key.Canonical(s)
				if !ok || sym.IsNone() {
					d.errs.AddWithValue(Index(Sub(path, "keys"), i), "must be a key name", item)
					continue
				}
				mac.Keys = append(mac.Keys, sym)
			}
		}
	}

	mac.Holds = d.timings(Sub(path, "holds"), fields, "holds", keyCount)
	mac.Delays = d.timings(Sub(path, "delays"), fields, "delays", keyCount)

	return mac, d.errs.Len() == before
}

// timings decodes an optional per-action duration list, which must match
// the key count.
func (d decoder) timings(path string, fields map[string]any, name string, n int) []time.Duration {
	v, ok := fields[name]
	if !ok {
		return nil
	}
	list, ok := v.([]any)
	if !ok {
		d.errs.AddWithValue(path, "must be a list", v)
		return nil
	}
	if len(list) != n {
		d.errs.Addf(path, "has %d entries but keys has %d; leave %s out to use the defaults", len(list), n, name)
		return nil
	}

	out := make([]time.Duration, len(list))
	for i, item := range list {
		dur, ok := d.duration(Index(path, i), item)
		if !ok {
			return nil
		}
		out[i] = dur
	}
	return out
}

func lowerKeys(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return out
}

func sortedKeys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// asMap accepts a table, or an empty list since some formats cannot tell an
// empty table from an empty list.
func asMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case []any:
		if len(t) == 0 {
			return map[string]any{}, true
		}
	}
	return nil, false
}

// asString accepts strings and numbers, since digit keys are often written
// unquoted.
func asString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case int64:
		return strconv.FormatInt(t, 10), true
	case int:
		return strconv.Itoa(t), true
	case float64:
		if t == math.Trunc(t) {
			return strconv.FormatFloat(t, 'f', -1, 64), true
		}
	}
	return "", false
}

func modeString(v any) string {
	if b, ok := v.(bool); ok {
		return strconv.FormatBool(b)
	}
	return fmt.Sprint(v)
}

// asDuration accepts seconds as a number or numeric string, a Go duration
// string, or a time.Duration.
func asDuration(v any) (time.Duration, bool) {
	switch t := v.(type) {
	case time.Duration:
		return t, true
	case int64:
		return time.Duration(t) * time.Second, true
	case int:
		return time.Duration(t) * time.Second, true
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0, false
		}
		return time.Duration(math.Round(t * float64(time.Second))), true
	case string:
		s := strings.TrimSpace(t)
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return asDuration(f)
		}
		dur, err := time.ParseDuration(s)
		return dur, err == nil
	}
	return 0, false
}
