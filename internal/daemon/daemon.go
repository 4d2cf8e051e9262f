// Package daemon implements the clipdeck service: it owns the settings
// record, the ignored-application list, the clip history and the global
// shortcut, and keeps them consistent.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jakebf/clipdeck/internal/history"
	"github.com/jakebf/clipdeck/internal/hotkey"
	"github.com/jakebf/clipdeck/internal/monitor"
	"github.com/jakebf/clipdeck/internal/service"
	"github.com/jakebf/clipdeck/internal/settings"
	"github.com/jakebf/clipdeck/internal/shortcut"
)

// PruneInterval is how often retention runs in the background.
const PruneInterval = time.Hour

// Notifier receives change events for connected surfaces.
type Notifier interface {
	Publish(ev service.Event)
}

// FilePicker shows a native file dialog.
type FilePicker interface {
	Pick(ctx context.Context) (string, error)
}

// Autostart controls the start-at-login entry.
type Autostart interface {
	Enabled() bool
	Set(enabled bool) error
}

// Options wires a Daemon. Settings, History and Shortcuts are required.
type Options struct {
	Settings  *settings.Store
	History   *history.DB
	Shortcuts *shortcut.Registry
	Notifier  Notifier
	Picker    FilePicker
	Autostart Autostart

	// WriteClipboard puts text on the system clipboard.
	WriteClipboard func(string) error
	// Monitor, when set, feeds the history from the system clipboard in Run.
	Monitor *monitor.Monitor
}

// Daemon implements service.Backend.
type Daemon struct {
	settings  *settings.Store
	history   *history.DB
	shortcuts *shortcut.Registry
	notifier  Notifier
	picker    FilePicker
	autostart Autostart
	write     func(string) error
	monitor   *monitor.Monitor

	// saveMu serializes saves and hot reloads so the startup entry, the
	// registered shortcut and the stored record change together.
	saveMu sync.Mutex
}

var _ service.Backend = (*Daemon)(nil)

// New builds a daemon from opts.
func New(opts Options) *Daemon {
	d := &Daemon{
		settings:  opts.Settings,
		history:   opts.History,
		shortcuts: opts.Shortcuts,
		notifier:  opts.Notifier,
		picker:    opts.Picker,
		autostart: opts.Autostart,
		write:     opts.WriteClipboard,
		monitor:   opts.Monitor,
	}
	if d.notifier == nil {
		d.notifier = nopNotifier{}
	}
	if d.monitor != nil {
		d.monitor.Sink = d.storeClip
	}
	return d
}

type nopNotifier struct{}

func (nopNotifier) Publish(service.Event) {}

// Start registers the stored shortcut and applies retention once. A shortcut
// that cannot be registered is logged and otherwise ignored.
func (d *Daemon) Start(ctx context.Context) {
	s := d.settings.Settings()
	if s.Hotkey != "" {
		if err := d.shortcuts.Register(s.Hotkey); err != nil {
			slog.Warn("global shortcut not registered", "hotkey", s.Hotkey, "err", err)
		}
	}
	d.prune(ctx)
}

// Run drives the background work until ctx is done: clipboard polling,
// periodic retention and settings hot reload.
func (d *Daemon) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	errc := make(chan error, 2)

	if d.monitor != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := d.monitor.Run(ctx); err != nil {
				slog.Error("clipboard monitor stopped", "err", err)
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := d.settings.Watch(ctx, d.reloaded); err != nil {
			errc <- err
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(PruneInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				d.prune(ctx)
			}
		}
	}()

	wg.Wait()
	select {
	case err := <-errc:
		return err
	default:
		return nil
	}
}

// reloaded handles an on-disk settings edit.
func (d *Daemon) reloaded(doc settings.Document) {
	d.saveMu.Lock()
	defer d.saveMu.Unlock()
	s := doc.Settings()
	if s.Hotkey != "" && s.Hotkey != d.shortcuts.Current() {
		if err := d.shortcuts.Register(s.Hotkey); err != nil {
			slog.Warn("global shortcut not registered", "hotkey", s.Hotkey, "err", err)
		}
	}
	d.notifier.Publish(service.Event{Type: service.EventSettingsChanged, Settings: &s})
}

func (d *Daemon) prune(ctx context.Context) {
	s := d.settings.Settings()
	n, err := d.history.Prune(ctx, s.MaxItems, s.AutoDeleteDays)
	if err != nil {
		slog.Error("prune history", "err", err)
		return
	}
	if n > 0 {
		slog.Info("pruned history", "removed", n)
	}
}

// storeClip is the monitor's sink.
func (d *Daemon) storeClip(ctx context.Context, text, source string) error {
	_, err := d.AddClip(ctx, text, source)
	return err
}

// GetSettings returns the stored record, with startup_with_windows reporting
// whether the login entry actually exists.
func (d *Daemon) GetSettings(context.Context) (service.Settings, error) {
	s := d.settings.Settings()
	if d.autostart != nil {
		s.StartupWithWindows = d.autostart.Enabled()
	}
	return s, nil
}

// SaveSettings validates and replaces the stored record, applies the startup
// entry and broadcasts the change.
func (d *Daemon) SaveSettings(ctx context.Context, s service.Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	d.saveMu.Lock()
	defer d.saveMu.Unlock()

	if d.autostart != nil && d.autostart.Enabled() != s.StartupWithWindows {
		if err := d.autostart.Set(s.StartupWithWindows); err != nil {
			return fmt.Errorf("startup entry: %w", err)
		}
	}
	if err := d.settings.SaveSettings(s); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	d.notifier.Publish(service.Event{Type: service.EventSettingsChanged, Settings: &s})
	d.prune(ctx)
	return nil
}

// ShortcutPressed tells connected surfaces that the global shortcut fired.
func (d *Daemon) ShortcutPressed(c hotkey.Combo) {
	slog.Debug("global shortcut pressed", "hotkey", c.String())
	d.notifier.Publish(service.Event{Type: service.EventShortcutActivated})
}

func (d *Daemon) RegisterGlobalShortcut(_ context.Context, hotkey string) error {
	return d.shortcuts.Register(hotkey)
}

func (d *Daemon) GetClipboardHistorySize(ctx context.Context) (int, error) {
	return d.history.Count(ctx)
}

// ClearClipboardHistory removes every unpinned clip.
func (d *Daemon) ClearClipboardHistory(ctx context.Context) error {
	n, err := d.history.ClearHistory(ctx)
	if err != nil {
		return err
	}
	slog.Info("history cleared", "removed", n)
	d.notifier.Publish(service.Event{Type: service.EventHistoryCleared})
	return nil
}

// ClearAllClips removes every clip, pinned ones included.
func (d *Daemon) ClearAllClips(ctx context.Context) error {
	n, err := d.history.ClearAll(ctx)
	if err != nil {
		return err
	}
	slog.Info("all clips cleared", "removed", n)
	d.notifier.Publish(service.Event{Type: service.EventHistoryCleared})
	return nil
}

func (d *Daemon) RemoveDuplicateClips(ctx context.Context) (int, error) {
	n, err := d.history.RemoveDuplicates(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		d.notifier.Publish(service.Event{Type: service.EventHistoryCleared})
	}
	return n, nil
}

func (d *Daemon) GetIgnoredApps(context.Context) ([]string, error) {
	return d.settings.IgnoredApps(), nil
}

func (d *Daemon) AddIgnoredApp(_ context.Context, name string) error {
	return d.settings.AddIgnoredApp(name)
}

func (d *Daemon) RemoveIgnoredApp(_ context.Context, name string) error {
	return d.settings.RemoveIgnoredApp(name)
}

func (d *Daemon) PickFile(ctx context.Context) (string, error) {
	if d.picker == nil {
		return "", fmt.Errorf("file picker unavailable")
	}
	return d.picker.Pick(ctx)
}

func (d *Daemon) GetClips(ctx context.Context, q service.ClipQuery) ([]service.Clip, error) {
	return d.history.List(ctx, q)
}

// AddClip stores text unless source is an ignored application, then applies
// retention and broadcasts the new clip.
func (d *Daemon) AddClip(ctx context.Context, text, source string) (service.Clip, error) {
	if d.settings.IsIgnored(source) {
		return service.Clip{}, service.ErrIgnoredSource
	}
	clip, err := d.history.Add(ctx, text, source)
	if err != nil {
		return service.Clip{}, err
	}
	d.prune(ctx)
	d.notifier.Publish(service.Event{Type: service.EventClipboardChange, Clip: &clip})
	return clip, nil
}

// PasteClip puts the clip on the system clipboard and moves it to the top.
func (d *Daemon) PasteClip(ctx context.Context, id string) error {
	clip, err := d.history.Get(ctx, id)
	if err != nil {
		return err
	}
	if d.write != nil {
		if err := d.write(clip.Content); err != nil {
			return fmt.Errorf("write clipboard: %w", err)
		}
	}
	if d.monitor != nil {
		// The monitor would otherwise store the paste as a new copy.
		d.monitor.Seed(clip.Content)
	}
	if err := d.history.Touch(ctx, id); err != nil {
		return err
	}
	d.notifier.Publish(service.Event{Type: service.EventClipboardChange, Clip: &clip})
	return nil
}

func (d *Daemon) PinClip(ctx context.Context, id string, pinned bool) error {
	if err := d.history.SetPinned(ctx, id, pinned); err != nil {
		return err
	}
	d.notifier.Publish(service.Event{Type: service.EventClipboardChange})
	return nil
}

func (d *Daemon) DeleteClip(ctx context.Context, id string) error {
	if err := d.history.Delete(ctx, id); err != nil {
		return err
	}
	d.notifier.Publish(service.Event{Type: service.EventClipboardChange})
	return nil
}
