package service

import (
	"errors"
	"fmt"
)

var (
	// ErrCancelled reports a user-dismissed interaction such as the file
	// picker. It is normal control flow, not a failure.
	ErrCancelled = errors.New("cancelled")

	// ErrIgnoredSource is returned by AddClip for text copied from an
	// ignored application.
	ErrIgnoredSource = errors.New("source application is ignored")

	ErrNotFound        = errors.New("not found")
	ErrInvalidSettings = errors.New("invalid settings")
)

// ShortcutError reports a global shortcut that could not be registered.
type ShortcutError struct {
	Hotkey string
	Reason string
}

func (e *ShortcutError) Error() string {
	if e.Hotkey == "" {
		return fmt.Sprintf("register shortcut: %s", e.Reason)
	}
	return fmt.Sprintf("register shortcut %s: %s", e.Hotkey, e.Reason)
}

// IsShortcutError reports whether err is or wraps a *ShortcutError.
func IsShortcutError(err error) bool {
	var se *ShortcutError
	return errors.As(err, &se)
}
