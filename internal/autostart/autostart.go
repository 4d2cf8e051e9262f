// Package autostart installs or removes the per-user login entry that starts
// the clipdeck daemon.
package autostart

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Item is a login entry that can be switched on and off.
type Item interface {
	IsEnabled() bool
	Enable() error
	Disable() error
}

// Manager toggles one login Item.
type Manager struct {
	item Item
}

// New returns a manager for the current platform that launches argv.
func New(argv []string) (*Manager, error) {
	it, err := platformItem(argv)
	if err != nil {
		return nil, err
	}
	return &Manager{item: it}, nil
}

// NewWithItem returns a manager for a custom item.
func NewWithItem(it Item) *Manager {
	return &Manager{item: it}
}

// Enabled reports whether the login entry exists.
func (m *Manager) Enabled() bool {
	return m.item.IsEnabled()
}

// Set installs or removes the login entry.
func (m *Manager) Set(enabled bool) error {
	if enabled {
		if err := m.item.Enable(); err != nil {
			return fmt.Errorf("enable login item: %w", err)
		}
		return nil
	}
	if err := m.item.Disable(); err != nil {
		return fmt.Errorf("remove login item: %w", err)
	}
	return nil
}

// FileEntry is a login item written as a single file.
type FileEntry struct {
	// Path is where the login item lives.
	Path string
	// Render produces the file contents for Argv.
	Render func(argv []string) string
	Argv   []string
}

func (e FileEntry) IsEnabled() bool {
	_, err := os.Stat(e.Path)
	return err == nil
}

func (e FileEntry) Enable() error {
	if err := os.MkdirAll(filepath.Dir(e.Path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(e.Path, []byte(e.Render(e.Argv)), 0o644)
}

func (e FileEntry) Disable() error {
	err := os.Remove(e.Path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
