//go:build !windows

package shortcut

import (
	"context"

	"github.com/jakebf/clipdeck/internal/hotkey"
)

// NewSystemBinder reports ErrNoSystemBinder outside Windows.
func NewSystemBinder(context.Context, func(hotkey.Combo)) (Binder, error) {
	return nil, ErrNoSystemBinder
}
