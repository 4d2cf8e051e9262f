// Package shortcut owns the daemon's single global activation shortcut.
package shortcut

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/jakebf/clipdeck/internal/hotkey"
	"github.com/jakebf/clipdeck/internal/service"
)

// DefaultReserved lists combinations that belong to the desktop or to
// ordinary editing and are reported as already bound.
var DefaultReserved = []string{
	"Ctrl+A", "Ctrl+C", "Ctrl+S", "Ctrl+V", "Ctrl+X", "Ctrl+Z",
	"Alt+F4",
	"Cmd+A", "Cmd+C", "Cmd+Q", "Cmd+S", "Cmd+V", "Cmd+X", "Cmd+Z",
}

// Binder grabs a combination at the OS level. Bind is called with the new
// combination before the previous one is released.
type Binder interface {
	Bind(c hotkey.Combo) error
	Unbind(c hotkey.Combo)
}

// Registry tracks the current binding. It is safe for concurrent use.
type Registry struct {
	binder   Binder
	reserved []string

	mu      sync.Mutex
	current *hotkey.Combo
}

// NewRegistry returns a registry that rejects the given reserved
// combinations. A nil binder only records the binding.
func NewRegistry(binder Binder, reserved []string) *Registry {
	if binder == nil {
		binder = nopBinder{}
	}
	return &Registry{binder: binder, reserved: slices.Clone(reserved)}
}

// Register replaces the current binding with s. On failure the previous
// binding stays in place and a *service.ShortcutError is returned.
func (r *Registry) Register(s string) error {
	c, err := hotkey.Parse(s)
	if err != nil {
		return &service.ShortcutError{Hotkey: s, Reason: err.Error()}
	}
	if c.Mods == 0 {
		return &service.ShortcutError{Hotkey: s, Reason: "needs at least one modifier"}
	}
	if !c.HasKey() {
		return &service.ShortcutError{Hotkey: s, Reason: "needs a key after the modifiers"}
	}
	if slices.Contains(r.reserved, c.String()) {
		return &service.ShortcutError{Hotkey: s, Reason: "already bound"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current != nil && *r.current == c {
		return nil
	}
	if err := r.binder.Bind(c); err != nil {
		return &service.ShortcutError{Hotkey: s, Reason: err.Error()}
	}
	if r.current != nil {
		r.binder.Unbind(*r.current)
	}
	r.current = &c
	slog.Info("global shortcut registered", "hotkey", c.String())
	return nil
}

// Current returns the bound combination, or "" when nothing is bound.
func (r *Registry) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return ""
	}
	return r.current.String()
}

// Release drops the current binding.
func (r *Registry) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current != nil {
		r.binder.Unbind(*r.current)
		r.current = nil
	}
}

type nopBinder struct{}

func (nopBinder) Bind(hotkey.Combo) error { return nil }
func (nopBinder) Unbind(hotkey.Combo) {}

// String is used in log lines.
func (r *Registry) String() string {
	return fmt.Sprintf("shortcut(%s)", r.Current())
}
