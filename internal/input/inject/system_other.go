//go:build !windows

package inject

import (
	"errors"

	"github.com/dshills/keyburst/internal/input/scancode"
)

// System is unavailable on this platform.
type System struct{}

// NewSystem reports errors.ErrUnsupported outside Windows.
func NewSystem() (*System, error) {
	return nil, errors.ErrUnsupported
}

// Press always fails.
func (s *System) Press(scancode.Code) error { return errors.ErrUnsupported }

// Release always fails.
func (s *System) Release(scancode.Code) error { return errors.ErrUnsupported }
