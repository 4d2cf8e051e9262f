// Package monitor polls the system clipboard and feeds new text into the
// history.
package monitor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/atotto/clipboard"

	"github.com/jakebf/clipdeck/internal/service"
)

// DefaultInterval is how often the clipboard is read.
const DefaultInterval = 200 * time.Millisecond

// Sink receives each new clipboard text along with the foreground
// application that produced it.
type Sink func(ctx context.Context, text, source string) error

// Monitor watches the clipboard for changes.
type Monitor struct {
	Interval time.Duration
	// Read returns the current clipboard text. Nil reads the system
	// clipboard.
	Read func() (string, error)
	// Foreground names the application that owns the focused window, or ""
	// when it cannot be determined.
	Foreground func() string
	Sink       Sink

	mu   sync.Mutex
	last string
}

// New returns a monitor reading the system clipboard.
func New(sink Sink) *Monitor {
	return &Monitor{
		Interval:   DefaultInterval,
		Foreground: ForegroundApp,
		Sink:       sink,
	}
}

// Seed records text as already seen, so it is not stored on the first poll.
// Safe to call while Run is polling.
func (m *Monitor) Seed(text string) {
	m.mu.Lock()
	m.last = text
	m.mu.Unlock()
}

// Run polls until ctx is done.
func (m *Monitor) Run(ctx context.Context) error {
	if m.Read == nil {
		if clipboard.Unsupported {
			return errors.New("clipboard: no supported clipboard utility found")
		}
		m.Read = clipboard.ReadAll
	}
	if text, err := m.Read(); err == nil {
		m.Seed(text)
	}
	interval := m.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.Poll(ctx)
		}
	}
}

// Poll reads the clipboard once and hands changed, non-empty text to the
// sink.
func (m *Monitor) Poll(ctx context.Context) {
	text, err := m.Read()
	if err != nil {
		slog.Debug("clipboard read", "err", err)
		return
	}
	m.mu.Lock()
	seen := text == m.last
	m.last = text
	m.mu.Unlock()
	if text == "" || seen {
		return
	}
	source := ""
	if m.Foreground != nil {
		source = m.Foreground()
	}
	err = m.Sink(ctx, text, source)
	switch {
	case errors.Is(err, service.ErrIgnoredSource):
		slog.Debug("clip from ignored app dropped", "app", source)
	case err != nil:
		slog.Warn("store clip", "err", err)
	}
}
