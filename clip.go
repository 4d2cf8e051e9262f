package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"

	"github.com/jakebf/clipdeck/internal/service"
)

// ─── Types ───────────────────────────────────────────────────────────────────

type pane int

const (
	listPane pane = iota
	previewPane
)

// category is the primary surface's history filter.
type category int

const (
	categoryAll category = iota
	categoryPinned
)

var categories = []category{categoryAll, categoryPinned}

func (c category) String() string {
	if c == categoryPinned {
		return "Pinned"
	}
	return "Clipboard History"
}

func (c category) query() service.ClipQuery {
	return service.ClipQuery{PinnedOnly: c == categoryPinned}
}

func (c category) next(dir int) category {
	n := len(categories)
	return categories[((int(c)+dir)%n+n)%n]
}

// clip adapts service.Clip to list.Item.
type clip struct {
	service.Clip
}

func (c clip) Title() string {
	return oneLine(c.Preview)
}

func (c clip) Description() string {
	return c.CreatedAt.Format("2006-01-02 15:04")
}

func (c clip) FilterValue() string {
	return c.Content
}

// oneLine flattens whitespace runs, newlines included, to single spaces.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// age renders how long ago t was, compactly: "now", "5m", "3h", "2d", then
// the date.
func age(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d/time.Minute))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d/time.Hour))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd", int(d/(24*time.Hour)))
	case t.Year() == now.Year():
		return t.Format("01-02")
	default:
		return t.Format("2006-01-02")
	}
}

func clipsToItems(clips []service.Clip) []list.Item {
	items := make([]list.Item, len(clips))
	for i, c := range clips {
		items[i] = clip{c}
	}
	return items
}
