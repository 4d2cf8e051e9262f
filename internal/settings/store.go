// Package settings persists the daemon's settings record and ignored
// application list as a TOML document.
package settings

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jakebf/clipdeck/internal/hotkey"
	"github.com/jakebf/clipdeck/internal/service"
)

// FileName is the settings document's base name inside the config dir.
const FileName = "settings.toml"

// Document is the on-disk shape.
type Document struct {
	Theme              string   `toml:"theme"`
	MaxItems           int      `toml:"max_items"`
	AutoDeleteDays     int      `toml:"auto_delete_days"`
	Hotkey             string   `toml:"hotkey"`
	StartupWithWindows bool     `toml:"startup_with_windows"`
	IgnoredApps        []string `toml:"ignored_apps"`
}

func newDocument(s service.Settings, apps []string) Document {
	return Document{
		Theme:              s.Theme,
		MaxItems:           s.MaxItems,
		AutoDeleteDays:     s.AutoDeleteDays,
		Hotkey:             s.Hotkey,
		StartupWithWindows: s.StartupWithWindows,
		IgnoredApps:        apps,
	}
}

// Settings returns the settings half of the document.
func (d Document) Settings() service.Settings {
	return service.Settings{
		Theme:              d.Theme,
		MaxItems:           d.MaxItems,
		AutoDeleteDays:     d.AutoDeleteDays,
		Hotkey:             d.Hotkey,
		StartupWithWindows: d.StartupWithWindows,
	}
}

// Store is a mutex-guarded view of the settings document. Every mutation is
// written through to disk before it returns.
type Store struct {
	path string

	mu  sync.Mutex
	doc Document

	lastSelfWrite atomic.Int64 // unix millis of our last save
}

// Open loads the document at path, creating it with defaults when missing.
// A corrupt document is replaced by defaults in memory and logged; it is
// only overwritten on the next save.
func Open(path string) (*Store, error) {
	s := &Store{path: path}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		s.doc = newDocument(service.DefaultSettings(), nil)
		if err := s.saveLocked(); err != nil {
			return nil, fmt.Errorf("create default settings: %w", err)
		}
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("read settings: %w", err)
	}
	doc, err := decode(data)
	if err != nil {
		slog.Warn("corrupt settings, using defaults", "path", path, "err", err)
		doc = newDocument(service.DefaultSettings(), nil)
	}
	s.doc = doc
	return s, nil
}

// Path returns the document's location.
func (s *Store) Path() string { return s.path }

func decode(data []byte) (Document, error) {
	doc := newDocument(service.DefaultSettings(), nil)
	if _, err := toml.Decode(string(data), &doc); err != nil {
		return Document{}, err
	}
	return clean(doc), nil
}

// clean normalizes hand-edited values and replaces anything invalid with its
// default.
func clean(doc Document) Document {
	if hk, err := hotkey.Normalize(doc.Hotkey); err == nil {
		doc.Hotkey = hk
	}
	set, fixed := doc.Settings().Sanitize()
	if len(fixed) > 0 {
		slog.Warn("settings fields reset to defaults", "fields", fixed)
	}
	apps := make([]string, 0, len(doc.IgnoredApps))
	for _, a := range doc.IgnoredApps {
		if a = strings.TrimSpace(a); a != "" {
			apps = append(apps, a)
		}
	}
	slices.Sort(apps)
	return newDocument(set, slices.Compact(apps))
}

// Settings returns the current settings record.
func (s *Store) Settings() service.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Settings()
}

// SaveSettings validates and persists a full settings record. The ignored
// application list is untouched.
func (s *Store) SaveSettings(set service.Settings) error {
	if err := set.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.doc
	s.doc = newDocument(set, s.doc.IgnoredApps)
	if err := s.saveLocked(); err != nil {
		s.doc = prev
		return err
	}
	return nil
}

// IgnoredApps returns the ignored application names, sorted.
func (s *Store) IgnoredApps() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.doc.IgnoredApps)
}

// AddIgnoredApp adds name. Adding a name already present is a no-op.
func (s *Store) AddIgnoredApp(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: empty application name", service.ErrInvalidSettings)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i, found := slices.BinarySearch(s.doc.IgnoredApps, name)
	if found {
		return nil
	}
	prev := s.doc.IgnoredApps
	s.doc.IgnoredApps = slices.Insert(slices.Clone(prev), i, name)
	if err := s.saveLocked(); err != nil {
		s.doc.IgnoredApps = prev
		return err
	}
	return nil
}

// RemoveIgnoredApp removes name. Removing an absent name is a no-op.
func (s *Store) RemoveIgnoredApp(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, found := slices.BinarySearch(s.doc.IgnoredApps, name)
	if !found {
		return nil
	}
	prev := s.doc.IgnoredApps
	s.doc.IgnoredApps = slices.Delete(slices.Clone(prev), i, i+1)
	if err := s.saveLocked(); err != nil {
		s.doc.IgnoredApps = prev
		return err
	}
	return nil
}

// IsIgnored reports whether app matches an ignored name. Matching is a
// case-insensitive substring test so "1password" matches "1Password.exe".
func (s *Store) IsIgnored(app string) bool {
	if app == "" {
		return false
	}
	app = strings.ToLower(app)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, name := range s.doc.IgnoredApps {
		if strings.Contains(app, strings.ToLower(name)) {
			return true
		}
	}
	return false
}

// Reload re-reads the document from disk. It returns false when the file
// could not be parsed or did not change, leaving the in-memory copy alone.
// The read happens under the store lock so a concurrent save cannot land
// between reading the file and adopting its contents.
func (s *Store) Reload() (Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.path)
	if err != nil {
		slog.Warn("reload settings", "err", err)
		return Document{}, false
	}
	doc, err := decode(data)
	if err != nil {
		slog.Warn("reload settings: parse", "err", err)
		return Document{}, false
	}
	if doc.Settings() == s.doc.Settings() && slices.Equal(doc.IgnoredApps, s.doc.IgnoredApps) {
		return doc, false
	}
	s.doc = doc
	return doc, true
}

func (s *Store) saveLocked() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(s.doc); err != nil {
		return err
	}
	// Write to a temp file and rename so a crash mid-write can't leave a
	// truncated document behind.
	tmp, err := os.CreateTemp(dir, ".settings-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	s.lastSelfWrite.Store(time.Now().UnixMilli())
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

// recentlyWritten reports whether the store itself wrote the file within d.
func (s *Store) recentlyWritten(d time.Duration) bool {
	return time.Since(time.UnixMilli(s.lastSelfWrite.Load())) < d
}
