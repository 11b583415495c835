package config

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"github.com/dshills/keyburst/internal/config/loader"
)

type sampleEntry struct {
	path  string
	value any
}

// sampleEntries is the starter configuration written by "keyburst init",
// in the order it appears in formats that keep order.
var sampleEntries = []sampleEntry{
	{"toggle_key", string(DefaultToggleKey)},
	{"force_quit", []any{"alt", "shift", "delete"}},
	{"log_level", "info"},
	{"timing.press", "10ms"},
	{"timing.release", "10ms"},
	{"timing.sequence", "1ms"},
	{"macros.j.mode", 2},
	{"macros.j.keys", []any{"a", "s", "d"}},
	{"macros.j.delays", []any{0.05, 0.05, 0.0}},
	{"macros.k.mode", 1},
	{"macros.k.keys", []any{"space"}},
	{"macros.k.holds", []any{0.02}},
	{"macros.l.mode", 0},
	{"macros.l.keys", []any{"e", "f"}},
}

const sampleHeader = `keyburst configuration
mode: 0 = disabled, 1 = continuous (repeats while held), 2 = single-shot
holds and delays are optional per-key seconds`

// Sample returns the starter configuration as a configuration map.
func Sample() map[string]any {
	out := make(map[string]any)
	for _, e := range sampleEntries {
		parts := strings.Split(e.path, ".")
		m := out
		for _, p := range parts[:len(parts)-1] {
			next, ok := m[p].(map[string]any)
			if !ok {
				next = make(map[string]any)
				m[p] = next
			}
			m = next
		}
		m[parts[len(parts)-1]] = e.value
	}
	return out
}

// MarshalSample encodes the starter configuration in format f. Every format
// produces a file that Load accepts.
func MarshalSample(f loader.Format) ([]byte, error) {
	switch f {
	case loader.FormatTOML:
		body, err := loader.MarshalTOML(Sample())
		if err != nil {
			return nil, err
		}
		return append(commentHeader("# "), body...), nil
	case loader.FormatYAML:
		body, err := loader.MarshalYAML(Sample())
		if err != nil {
			return nil, err
		}
		return append(commentHeader("# "), body...), nil
	case loader.FormatJSON:
		return sampleJSON()
	case loader.FormatLua:
		return sampleLua(), nil
	}
	return nil, fmt.Errorf("%w: %q", loader.ErrUnknownFormat, f)
}

func commentHeader(prefix string) []byte {
	var b strings.Builder
	for _, ln := range strings.Split(sampleHeader, "\n") {
		b.WriteString(prefix + ln + "\n")
	}
	b.WriteString("\n")
	return []byte(b.String())
}

func sampleJSON() ([]byte, error) {
	doc := []byte("{}")
	for _, e := range sampleEntries {
		var err error
		doc, err = sjson.SetBytes(doc, e.path, e.value)
		if err != nil {
			return nil, fmt.Errorf("setting %s: %w", e.path, err)
		}
	}
	return pretty.Pretty(doc), nil
}

var luaIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// sampleLua writes the starter configuration as Lua globals.
func sampleLua() []byte {
	var b strings.Builder
	b.Write(commentHeader("-- "))
	sample := Sample()
	keys := make([]string, 0, len(sample))
	for k := range sample {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(k + " = ")
		writeLua(&b, sample[k], 0)
		b.WriteString("\n")
	}
	return []byte(b.String())
}

func writeLua(b *strings.Builder, v any, depth int) {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		indent := strings.Repeat("  ", depth+1)
		b.WriteString("{\n")
		for _, k := range keys {
			b.WriteString(indent)
			if luaIdent.MatchString(k) {
				b.WriteString(k)
			} else {
				b.WriteString("[" + strconv.Quote(k) + "]")
			}
			b.WriteString(" = ")
			writeLua(b, t[k], depth+1)
			b.WriteString(",\n")
		}
		b.WriteString(strings.Repeat("  ", depth) + "}")
	case []any:
		b.WriteString("{ ")
		for i, item := range t {
			if i > 0 {
				b.WriteString(", ")
			}
			writeLua(b, item, depth)
		}
		b.WriteString(" }")
	case string:
		b.WriteString(strconv.Quote(t))
	case float64:
		b.WriteString(strconv.FormatFloat(t, 'g', -1, 64))
	default:
		fmt.Fprint(b, t)
	}
}
