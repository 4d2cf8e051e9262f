package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ─── Custom Delegate ─────────────────────────────────────────────────────────

var (
	pinnedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorYellow)
	unsetStyle  = lipgloss.NewStyle().Foreground(colorDim)
	dateStyle   = lipgloss.NewStyle().Foreground(colorDim)
	selectedBar = lipgloss.NewStyle().Foreground(colorAccent).SetString("│ ")
	normalBar   = lipgloss.NewStyle().SetString("  ")
)

type clipDelegate struct {
	now func() time.Time
	// pasting is the clip being pasted, shown with the spinner.
	pasting     *string
	spinnerView *string
}

func (d clipDelegate) Height() int                             { return 1 }
func (d clipDelegate) Spacing() int                            { return 0 }
func (d clipDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d clipDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	c, ok := item.(clip)
	if !ok {
		return
	}

	bar := normalBar
	if index == m.Index() {
		bar = selectedBar
	}

	maxW := m.Width() - 3 // -2 for bar prefix, -1 for right padding
	if maxW < 10 {
		maxW = 10
	}

	badge := unsetStyle.Render("·")
	if c.Pinned {
		badge = pinnedStyle.Render("★")
	}
	if d.pasting != nil && *d.pasting == c.ID && d.spinnerView != nil && *d.spinnerView != "" {
		badge = *d.spinnerView
	}
	badgeW := lipgloss.Width(badge)

	now := time.Now
	if d.now != nil {
		now = d.now
	}
	date := age(c.CreatedAt, now())
	dateW := lipgloss.Width(date) + 1 // +1 for leading space

	avail := maxW - badgeW - dateW
	title := truncateForWidth(" "+c.Title(), avail)
	pad := ""
	if tw := lipgloss.Width(title); avail > 0 && tw < avail {
		pad = strings.Repeat(" ", avail-tw)
	}

	fmt.Fprintf(w, "%s%s%s%s %s ", bar, badge, title, pad, dateStyle.Render(date))
}
