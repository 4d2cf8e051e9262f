// Package service defines the request/response contract between the
// clipdeck surfaces and the background daemon that owns settings, clip
// history and the ignored-application list.
package service

import (
	"context"
	"time"
)

// Service is the configuration and maintenance half of the contract, used by
// the settings surface. Every method is a single request/response exchange.
type Service interface {
	GetSettings(ctx context.Context) (Settings, error)
	SaveSettings(ctx context.Context, s Settings) error

	// RegisterGlobalShortcut binds hotkey as the global activation shortcut,
	// replacing the previous binding. Fails with *ShortcutError when the
	// combination is invalid or already bound elsewhere.
	RegisterGlobalShortcut(ctx context.Context, hotkey string) error

	GetClipboardHistorySize(ctx context.Context) (int, error)
	ClearClipboardHistory(ctx context.Context) error
	ClearAllClips(ctx context.Context) error
	RemoveDuplicateClips(ctx context.Context) (int, error)

	GetIgnoredApps(ctx context.Context) ([]string, error)
	AddIgnoredApp(ctx context.Context, name string) error
	RemoveIgnoredApp(ctx context.Context, name string) error

	// PickFile opens a native file dialog and returns the chosen absolute
	// path. Returns ErrCancelled when the user dismisses the dialog.
	PickFile(ctx context.Context) (string, error)
}

// History is the clip-browsing half of the contract, used by the primary
// surface.
type History interface {
	GetClips(ctx context.Context, q ClipQuery) ([]Clip, error)
	// AddClip stores text as the newest clip. Returns ErrIgnoredSource when
	// source matches an ignored application.
	AddClip(ctx context.Context, text, source string) (Clip, error)
	// PasteClip writes the clip to the system clipboard and moves it to the
	// top of the history.
	PasteClip(ctx context.Context, id string) error
	PinClip(ctx context.Context, id string, pinned bool) error
	DeleteClip(ctx context.Context, id string) error
}

// Backend is everything the daemon serves.
type Backend interface {
	Service
	History
}

// Clip is one clipboard history entry.
type Clip struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Preview   string    `json:"preview"`
	Hash      string    `json:"content_hash"`
	Pinned    bool      `json:"is_pinned"`
	SourceApp string    `json:"source_app,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// PreviewLen is the number of runes kept in Clip.Preview.
const PreviewLen = 200

// MakePreview returns the first PreviewLen runes of text.
func MakePreview(text string) string {
	n := 0
	for i := range text {
		if n == PreviewLen {
			return text[:i]
		}
		n++
	}
	return text
}

// ClipQuery selects clips for GetClips. A zero Limit means no limit.
type ClipQuery struct {
	Search     string `json:"search,omitempty"`
	PinnedOnly bool   `json:"pinned_only,omitempty"`
	Limit      int    `json:"limit,omitempty"`
	Offset     int    `json:"offset,omitempty"`
}

// Event types pushed by the daemon to connected surfaces.
const (
	EventClipboardChange = "clipboard-change"
	EventSettingsChanged = "settings-changed"
	EventHistoryCleared  = "history-cleared"
	// EventShortcutActivated is sent when the global shortcut is pressed.
	EventShortcutActivated = "shortcut-activated"
)

// Event is a change notification pushed by the daemon.
type Event struct {
	Type     string    `json:"type"`
	Clip     *Clip     `json:"clip,omitempty"`
	Settings *Settings `json:"settings,omitempty"`
}
