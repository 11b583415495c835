//go:build windows

package inject

import (
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/dshills/keyburst/internal/input/scancode"
)

var (
	user32        = windows.NewLazySystemDLL("user32.dll")
	procSendInput = user32.NewProc("SendInput")
)

const (
	inputKeyboard = 1

	keyEventFExtendedKey = 0x0001
	keyEventFKeyUp       = 0x0002
	keyEventFScanCode    = 0x0008
)

type keybdInput struct {
	wVk         uint16
	wScan       uint16
	dwFlags     uint32
	time        uint32
	dwExtraInfo uintptr
}

// input mirrors INPUT. The trailing padding brings the union up to the size
// of MOUSEINPUT on both 32 and 64 bit.
type input struct {
	typ     uint32
	ki      keybdInput
	padding uint64
}

type record struct {
	down input
	up   input
}

// System injects scan-code input through SendInput. Records are built once
// per code and reused.
type System struct {
	mu    sync.RWMutex
	cache map[scancode.Code]*record
}

// NewSystem returns the SendInput injector.
func NewSystem() (*System, error) {
	if err := procSendInput.Find(); err != nil {
		return nil, fmt.Errorf("locating SendInput: %w", err)
	}
	return &System{cache: make(map[scancode.Code]*record)}, nil
}

// Press sends a key-down for code.
func (s *System) Press(code scancode.Code) error {
	rec := s.lookup(code)
	return send(&rec.down)
}

// Release sends a key-up for code.
func (s *System) Release(code scancode.Code) error {
	rec := s.lookup(code)
	return send(&rec.up)
}

func (s *System) lookup(code scancode.Code) *record {
	s.mu.RLock()
	rec, ok := s.cache[code]
	s.mu.RUnlock()
	if ok {
		return rec
	}

	flags := uint32(keyEventFScanCode)
	if code.Extended {
		flags |= keyEventFExtendedKey
	}
	rec = &record{
		down: input{typ: inputKeyboard, ki: keybdInput{wScan: code.Scan, dwFlags: flags, dwExtraInfo: Marker}},
		up:   input{typ: inputKeyboard, ki: keybdInput{wScan: code.Scan, dwFlags: flags | keyEventFKeyUp, dwExtraInfo: Marker}},
	}

	s.mu.Lock()
	if existing, ok := s.cache[code]; ok {
		rec = existing
	} else {
		s.cache[code] = rec
	}
	s.mu.Unlock()
	return rec
}

func send(in *input) error {
	ret, _, err := procSendInput.Call(1, uintptr(unsafe.Pointer(in)), unsafe.Sizeof(*in))
	if ret != 1 {
		return fmt.Errorf("SendInput scan %#x: %w: %v", in.ki.wScan, ErrRejected, err)
	}
	return nil
}
