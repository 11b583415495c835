package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// DefaultLuaTimeout bounds how long a Lua config script may run.
const DefaultLuaTimeout = 2 * time.Second

// maxLuaDepth bounds table nesting, which also stops self-referencing tables.
const maxLuaDepth = 32

// LuaLoader loads configuration from Lua scripts. The script runs in a
// sandbox with only the base, table, string and math libraries; every global
// it defines that holds a string, number, boolean or table becomes a
// top-level configuration key.
type LuaLoader struct {
	fs      FileSystem
	path    string
	timeout time.Duration
}

// NewLuaLoader creates a new Lua loader for the given path.
func NewLuaLoader(path string) *LuaLoader {
	return NewLuaLoaderWithFS(DefaultFS(), path)
}

// NewLuaLoaderWithFS creates a Lua loader with a custom file system.
func NewLuaLoaderWithFS(fs FileSystem, path string) *LuaLoader {
	return &LuaLoader{
		fs:      fs,
		path:    path,
		timeout: DefaultLuaTimeout,
	}
}

// SetTimeout sets the script execution limit. Non-positive values restore
// the default.
func (l *LuaLoader) SetTimeout(d time.Duration) {
	if d <= 0 {
		d = DefaultLuaTimeout
	}
	l.timeout = d
}

// Load reads configuration from the configured path.
func (l *LuaLoader) Load() (map[string]any, error) {
	return l.LoadFrom(l.path)
}

// LoadFrom reads configuration from a specific path.
func (l *LuaLoader) LoadFrom(path string) (map[string]any, error) {
	data, err := readFile(l.fs, path)
	if err != nil || data == nil {
		return nil, err
	}
	return l.run(path, data)
}

// LoadFromReader reads configuration from an io.Reader.
func (l *LuaLoader) LoadFromReader(r io.Reader) (map[string]any, error) {
	data, err := readAll(r)
	if err != nil {
		return nil, err
	}
	return l.run("<reader>", data)
}

// unsafeGlobals are removed from the base library before the script runs.
var unsafeGlobals = []string{"dofile", "loadfile", "load", "loadstring", "require", "module", "collectgarbage"}

func newSandbox() *lua.LState {
	L := lua.NewState(lua.Options{
		SkipOpenLibs:        true,
		IncludeGoStackTrace: false,
	})
	for _, lib := range []struct {
		name string
		open lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		L.Push(L.NewFunction(lib.open))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}
	for _, name := range unsafeGlobals {
		L.SetGlobal(name, lua.LNil)
	}
	return L
}

var luaLine = regexp.MustCompile(`:(\d+):`)

func (l *LuaLoader) run(source string, data []byte) (map[string]any, error) {
	L := newSandbox()
	defer L.Close()

	builtin := make(map[string]bool)
	L.G.Global.ForEach(func(k, _ lua.LValue) {
		builtin[k.String()] = true
	})

	timeout := l.timeout
	if timeout <= 0 {
		timeout = DefaultLuaTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	L.SetContext(ctx)

	fn, err := L.Load(bytes.NewReader(data), source)
	if err == nil {
		L.Push(fn)
		err = L.PCall(0, lua.MultRet, nil)
	}
	if err != nil {
		perr := &ParseError{
			Path:    source,
			Message: err.Error(),
			Err:     err,
		}
		var apiErr *lua.ApiError
		if errors.As(err, &apiErr) {
			perr.Message = apiErr.Object.String()
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			perr.Message = fmt.Sprintf("script exceeded %s", timeout)
		}
		if m := luaLine.FindStringSubmatch(perr.Message); m != nil {
			perr.Line, _ = strconv.Atoi(m[1])
		}
		return nil, perr
	}

	config := make(map[string]any)
	var convErr error
	L.G.Global.ForEach(func(k, v lua.LValue) {
		name := k.String()
		if builtin[name] || convErr != nil {
			return
		}
		val, ok, err := fromLua(v, 0)
		if err != nil {
			convErr = fmt.Errorf("global %s: %w", name, err)
			return
		}
		if ok {
			config[name] = val
		}
	})
	if convErr != nil {
		return nil, &ParseError{Path: source, Message: convErr.Error(), Err: convErr}
	}
	return config, nil
}

// fromLua converts a Lua value to the shared map shape. Functions and other
// non-data values report ok=false and are skipped.
func fromLua(v lua.LValue, depth int) (any, bool, error) {
	if depth > maxLuaDepth {
		return nil, false, fmt.Errorf("tables nested deeper than %d", maxLuaDepth)
	}

	switch t := v.(type) {
	case lua.LString:
		return string(t), true, nil
	case lua.LBool:
		return bool(t), true, nil
	case lua.LNumber:
		return normalizeValue(float64(t)), true, nil
	case *lua.LTable:
		return fromLuaTable(t, depth)
	default:
		return nil, false, nil
	}
}

func fromLuaTable(t *lua.LTable, depth int) (any, bool, error) {
	count := 0
	t.ForEach(func(_, _ lua.LValue) { count++ })

	n := t.MaxN()
	if count == 0 {
		return []any{}, true, nil
	}
	if n == count {
		list := make([]any, 0, n)
		for i := 1; i <= n; i++ {
			val, ok, err := fromLua(t.RawGetInt(i), depth+1)
			if err != nil {
				return nil, false, fmt.Errorf("[%d]: %w", i, err)
			}
			if ok {
				list = append(list, val)
			}
		}
		return list, true, nil
	}

	m := make(map[string]any, count)
	var err error
	t.ForEach(func(k, v lua.LValue) {
		if err != nil {
			return
		}
		var key string
		switch kk := k.(type) {
		case lua.LString:
			key = string(kk)
		case lua.LNumber:
			key = fmt.Sprint(normalizeValue(float64(kk)))
		default:
			return
		}
		val, ok, cerr := fromLua(v, depth+1)
		if cerr != nil {
			err = fmt.Errorf("%s: %w", key, cerr)
			return
		}
		if ok {
			m[key] = val
		}
	})
	if err != nil {
		return nil, false, err
	}
	return m, true, nil
}
