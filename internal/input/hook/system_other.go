//go:build !windows

package hook

import (
	"errors"

	"github.com/dshills/keyburst/internal/logging"
)

// NewSystem reports errors.ErrUnsupported outside Windows.
func NewSystem(*logging.Logger) (Source, error) {
	return nil, errors.ErrUnsupported
}
