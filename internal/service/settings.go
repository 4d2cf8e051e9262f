package service

import (
	"fmt"
	"slices"

	"github.com/jakebf/clipdeck/internal/hotkey"
)

// Themes accepted in Settings.Theme.
const (
	ThemeDark   = "dark"
	ThemeLight  = "light"
	ThemeSystem = "system"
)

// Themes lists the theme values in display order.
var Themes = []string{ThemeDark, ThemeLight, ThemeSystem}

// History cap bounds.
const (
	MinMaxItems  = 100
	MaxMaxItems  = 5000
	MaxItemsStep = 100
)

// AutoDeleteOptions lists the accepted auto_delete_days values in display
// order. 0 means never.
var AutoDeleteOptions = []int{7, 14, 30, 60, 90, 365, 0}

// DefaultHotkey is the activation shortcut on first run.
const DefaultHotkey = "Ctrl+Shift+V"

// Settings is the single durable settings record.
type Settings struct {
	Theme              string `json:"theme"`
	MaxItems           int    `json:"max_items"`
	AutoDeleteDays     int    `json:"auto_delete_days"`
	Hotkey             string `json:"hotkey"`
	StartupWithWindows bool   `json:"startup_with_windows"`
}

// DefaultSettings returns the first-run record.
func DefaultSettings() Settings {
	return Settings{
		Theme:          ThemeSystem,
		MaxItems:       1000,
		AutoDeleteDays: 30,
		Hotkey:         DefaultHotkey,
	}
}

// Validate checks every field against its enumeration. The returned error
// wraps ErrInvalidSettings.
func (s Settings) Validate() error {
	if !slices.Contains(Themes, s.Theme) {
		return fmt.Errorf("%w: theme %q", ErrInvalidSettings, s.Theme)
	}
	if !ValidMaxItems(s.MaxItems) {
		return fmt.Errorf("%w: max_items %d", ErrInvalidSettings, s.MaxItems)
	}
	if !slices.Contains(AutoDeleteOptions, s.AutoDeleteDays) {
		return fmt.Errorf("%w: auto_delete_days %d", ErrInvalidSettings, s.AutoDeleteDays)
	}
	if !hotkey.Valid(s.Hotkey) {
		return fmt.Errorf("%w: hotkey %q", ErrInvalidSettings, s.Hotkey)
	}
	return nil
}

// ValidMaxItems reports whether n is in [MinMaxItems, MaxMaxItems] on a
// MaxItemsStep boundary.
func ValidMaxItems(n int) bool {
	return n >= MinMaxItems && n <= MaxMaxItems && n%MaxItemsStep == 0
}

// Sanitize replaces every invalid field with its default, returning the
// names of the fields it replaced.
func (s Settings) Sanitize() (Settings, []string) {
	def := DefaultSettings()
	var fixed []string
	if !slices.Contains(Themes, s.Theme) {
		s.Theme = def.Theme
		fixed = append(fixed, "theme")
	}
	if !ValidMaxItems(s.MaxItems) {
		s.MaxItems = def.MaxItems
		fixed = append(fixed, "max_items")
	}
	if !slices.Contains(AutoDeleteOptions, s.AutoDeleteDays) {
		s.AutoDeleteDays = def.AutoDeleteDays
		fixed = append(fixed, "auto_delete_days")
	}
	if !hotkey.Valid(s.Hotkey) {
		s.Hotkey = def.Hotkey
		fixed = append(fixed, "hotkey")
	}
	return s, fixed
}

// AutoDeleteLabel renders an auto_delete_days value for display.
func AutoDeleteLabel(days int) string {
	switch days {
	case 0:
		return "Never"
	case 365:
		return "1 year"
	}
	return fmt.Sprintf("%d days", days)
}
