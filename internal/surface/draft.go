// Package surface holds the settings-surface protocol logic that does not
// depend on how the surface is drawn: the editable working copy of the
// settings record, the commit sequence, and the ignored-application mirror.
package surface

import (
	"slices"

	"github.com/jakebf/clipdeck/internal/service"
)

// Draft is the settings surface's working copy of the settings record.
// Editors only ever move fields between enumerated values, so a Draft built
// from a valid record stays valid.
type Draft struct {
	service.Settings
}

// NewDraft copies s into a new working copy.
func NewDraft(s service.Settings) Draft {
	return Draft{Settings: s}
}

// CycleTheme moves to the next (dir > 0) or previous theme.
func (d *Draft) CycleTheme(dir int) {
	d.Theme = cycle(service.Themes, d.Theme, dir)
}

// StepMaxItems moves the history cap by one step, clamped to its bounds.
func (d *Draft) StepMaxItems(dir int) {
	n := d.MaxItems + sign(dir)*service.MaxItemsStep
	if !service.ValidMaxItems(d.MaxItems) {
		n = service.DefaultSettings().MaxItems
	}
	d.MaxItems = max(service.MinMaxItems, min(service.MaxMaxItems, n))
}

// CycleAutoDelete moves to the next or previous auto-delete option.
func (d *Draft) CycleAutoDelete(dir int) {
	d.AutoDeleteDays = cycle(service.AutoDeleteOptions, d.AutoDeleteDays, dir)
}

// ToggleStartup flips start-at-login.
func (d *Draft) ToggleStartup() {
	d.StartupWithWindows = !d.StartupWithWindows
}

func cycle[T comparable](opts []T, cur T, dir int) T {
	i := slices.Index(opts, cur)
	if i < 0 {
		return opts[0]
	}
	n := len(opts)
	return opts[((i+sign(dir))%n+n)%n]
}

func sign(n int) int {
	if n < 0 {
		return -1
	}
	return 1
}
