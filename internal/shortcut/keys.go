package shortcut

import (
	"errors"

	"github.com/jakebf/clipdeck/internal/hotkey"
)

// ErrNoSystemBinder is returned by NewSystemBinder on platforms where the
// daemon cannot grab a global shortcut. The registry then only records it.
var ErrNoSystemBinder = errors.New("global shortcuts are not supported on this platform")

// Windows RegisterHotKey modifier flags.
const (
	modAlt      = 0x0001
	modControl  = 0x0002
	modShift    = 0x0004
	modWin      = 0x0008
	modNoRepeat = 0x4000
)

func winModifiers(m hotkey.Modifier) uintptr {
	flags := uintptr(modNoRepeat)
	if m.Has(hotkey.Ctrl) {
		flags |= modControl
	}
	if m.Has(hotkey.Alt) {
		flags |= modAlt
	}
	if m.Has(hotkey.Shift) {
		flags |= modShift
	}
	if m.Has(hotkey.Cmd) {
		flags |= modWin
	}
	return flags
}

// virtualKey maps a terminal token to its Windows virtual-key code. Letters
// and digits share their ASCII codes.
func virtualKey(key string) (uintptr, bool) {
	if key == hotkey.SpaceToken {
		return 0x20, true
	}
	if len(key) != 1 {
		return 0, false
	}
	c := key[0]
	if (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
		return uintptr(c), true
	}
	return 0, false
}
