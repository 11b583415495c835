//go:build windows

package hook

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/dshills/keyburst/internal/input/inject"
	"github.com/dshills/keyburst/internal/input/key"
	"github.com/dshills/keyburst/internal/input/scancode"
	"github.com/dshills/keyburst/internal/logging"
)

const (
	whKeyboardLL = 13
	hcAction     = 0

	wmQuit       = 0x0012
	wmKeyDown    = 0x0100
	wmKeyUp      = 0x0101
	wmSysKeyDown = 0x0104
	wmSysKeyUp   = 0x0105

	llkhfExtended = 0x01
	llkhfInjected = 0x10
)

var (
	user32                  = windows.NewLazySystemDLL("user32.dll")
	procSetWindowsHookExW   = user32.NewProc("SetWindowsHookExW")
	procUnhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")
	procCallNextHookEx      = user32.NewProc("CallNextHookEx")
	procGetMessageW         = user32.NewProc("GetMessageW")
	procPostThreadMessageW  = user32.NewProc("PostThreadMessageW")
)

// ErrBusy is returned when another system source is already running.
var ErrBusy = errors.New("a keyboard hook is already installed")

type kbdLLHookStruct struct {
	VkCode      uint32
	ScanCode    uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

type point struct {
	X, Y int32
}

type msg struct {
	Hwnd    uintptr
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	Pt      point
}

// The OS callback carries no user data, so the running source is global.
var (
	active       atomic.Pointer[systemSource]
	callbackOnce sync.Once
	callback     uintptr
)

type systemSource struct {
	Registry

	resolver *scancode.Resolver
	logger   *logging.Logger

	mu       sync.Mutex
	threadID uint32
	closed   bool
}

// NewSystem returns the low-level keyboard hook source.
func NewSystem(logger *logging.Logger) (Source, error) {
	if err := procSetWindowsHookExW.Find(); err != nil {
		return nil, fmt.Errorf("locating SetWindowsHookExW: %w", err)
	}
	return &systemSource{
		resolver: scancode.Default,
		logger:   logging.OrNull(logger).WithComponent("hook"),
	}, nil
}

func (s *systemSource) Register(keys []key.Symbol, h Handler) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.Set(keys, h)
	s.logger.Debug("tracking %d keys", len(keys))
	return nil
}

// Run installs the hook and pumps messages on a locked OS thread. The
// hook callback runs on this thread.
func (s *systemSource) Run(ctx context.Context) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if !active.CompareAndSwap(nil, s) {
		return ErrBusy
	}
	defer active.CompareAndSwap(s, nil)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.threadID = windows.GetCurrentThreadId()
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.threadID = 0
		s.mu.Unlock()
	}()

	callbackOnce.Do(func() {
		callback = windows.NewCallback(hookProc)
	})

	var module windows.Handle
	if err := windows.GetModuleHandleEx(0, nil, &module); err != nil {
		return fmt.Errorf("module handle: %w", err)
	}
	handle, _, err := procSetWindowsHookExW.Call(whKeyboardLL, callback, uintptr(module), 0)
	if handle == 0 {
		return fmt.Errorf("SetWindowsHookExW: %w", err)
	}
	defer procUnhookWindowsHookEx.Call(handle)
	s.logger.Info("keyboard hook installed")

	stop := context.AfterFunc(ctx, s.quit)
	defer stop()

	var m msg
	for {
		ret, _, err := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		switch int32(ret) {
		case -1:
			return fmt.Errorf("GetMessageW: %w", err)
		case 0:
			s.logger.Info("keyboard hook removed")
			return nil
		}
	}
}

func (s *systemSource) quit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.threadID != 0 {
		procPostThreadMessageW.Call(uintptr(s.threadID), wmQuit, 0, 0)
	}
}

func (s *systemSource) Unhook() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.Set(nil, nil)
	s.quit()
	return nil
}

func (s *systemSource) handle(wParam uintptr, kb *kbdLLHookStruct) bool {
	var down bool
	switch wParam {
	case wmKeyDown, wmSysKeyDown:
		down = true
	case wmKeyUp, wmSysKeyUp:
	default:
		return false
	}

	injected := kb.Flags&llkhfInjected != 0
	if injected && kb.DwExtraInfo == inject.Marker {
		return false
	}

	code := scancode.Code{Scan: uint16(kb.ScanCode), Extended: kb.Flags&llkhfExtended != 0}
	name, ok := s.resolver.Name(code)
	if !ok {
		return false
	}

	return s.Dispatch(key.Event{
		Name:      string(name),
		ScanCode:  code.Scan,
		Extended:  code.Extended,
		Keypad:    name.IsNumpad(),
		Injected:  injected,
		Timestamp: time.Now(),
	}, down)
}

func hookProc(nCode int, wParam uintptr, lParam uintptr) uintptr {
	if nCode == hcAction {
		if s := active.Load(); s != nil {
			kb := (*kbdLLHookStruct)(unsafe.Pointer(lParam))
			if s.handle(wParam, kb) {
				return 1
			}
		}
	}
	ret, _, _ := procCallNextHookEx.Call(0, uintptr(nCode), wParam, lParam)
	return ret
}
