package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ─── Colors ──────────────────────────────────────────────────────────────────

var (
	colorBlack   = lipgloss.Color("0")
	colorAccent  = lipgloss.Color("5")  // magenta: brand, focused borders, keys
	colorDim     = lipgloss.Color("8")  // gray: secondary text, unfocused borders
	colorFull    = lipgloss.Color("7")  // white: full help descriptions
	colorGreen   = lipgloss.Color("10") // enabled toggles
	colorYellow  = lipgloss.Color("11") // pinned clips, recording hotkey
	colorMagenta = lipgloss.Color("13") // status bar messages
	colorRed     = lipgloss.Color("9")  // destructive confirmations
)

// ─── Styles ──────────────────────────────────────────────────────────────────

var (
	focusedBorder   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorAccent)
	unfocusedBorder = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim)
	paneTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Padding(0, 1)
	helpTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorAccent).MarginBottom(1)
	helpBoxStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorAccent).
			Padding(1, 3)
	statusTextStyle = lipgloss.NewStyle().Bold(true).Foreground(colorMagenta)
	warnTextStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorRed)
)

func truncateForWidth(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= maxWidth {
		return s
	}
	if maxWidth == 1 {
		return "…"
	}
	limit := maxWidth - 1
	var b strings.Builder
	width := 0
	for _, r := range s {
		rw := lipgloss.Width(string(r))
		if width+rw > limit {
			break
		}
		b.WriteRune(r)
		width += rw
	}
	return b.String() + "…"
}

// helpModal centers the full keybinding help over a w×h screen.
func helpModal(content string, w, h int) string {
	// Keep the help modal comfortably narrow on wide terminals while still
	// fitting on small screens.
	modalMaxW := w - 4
	if modalMaxW > 76 {
		modalMaxW = 76
	}
	if modalMaxW < 20 {
		modalMaxW = 20
	}

	// helpBoxStyle uses 1-cell borders and 3-cell horizontal padding.
	contentMaxW := modalMaxW - 8
	if contentMaxW < 12 {
		contentMaxW = 12
	}

	content = lipgloss.NewStyle().MaxWidth(contentMaxW).Render(content)
	overlay := helpBoxStyle.MaxWidth(modalMaxW).Render(content)
	return lipgloss.Place(w, h, lipgloss.Center, lipgloss.Center, overlay,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(colorBlack),
	)
}

// ─── View ────────────────────────────────────────────────────────────────────

func (m model) View() string {
	if !m.ready {
		return "Loading..."
	}

	// 40/60 split: list pane gets 40% of terminal width, preview gets the rest.
	listW := m.width * 40 / 100
	previewW := m.width - listW

	innerH := m.height - 3 // -2 for borders, -1 for hint bar

	var leftStyle, rightStyle lipgloss.Style
	if m.focused == listPane {
		leftStyle = focusedBorder.Width(listW - 2).Height(innerH)
		rightStyle = unfocusedBorder.Width(previewW - 2).Height(innerH)
	} else {
		leftStyle = unfocusedBorder.Width(listW - 2).Height(innerH)
		rightStyle = focusedBorder.Width(previewW - 2).Height(innerH)
	}

	var leftContent string
	if len(m.list.Items()) == 0 && !m.list.IsFiltered() && !m.list.SettingFilter() {
		msg := "No clips yet\n\nCopy something and it\nwill show up here."
		if m.category == categoryPinned {
			msg = "No pinned clips\n\np pins the selected clip\n[ back to history"
		}
		hint := lipgloss.NewStyle().Foreground(colorDim).
			Width(listW - 4).Align(lipgloss.Center).
			Render(msg)
		leftContent = lipgloss.Place(listW-2, innerH, lipgloss.Center, lipgloss.Center, hint)
	} else {
		leftContent = m.list.View()
	}

	previewTitle := ""
	if c, ok := m.selectedClip(); ok {
		meta := c.CreatedAt.Format("2006-01-02 15:04")
		if c.SourceApp != "" {
			meta = c.SourceApp + " · " + meta
		}
		if c.Pinned {
			meta = "★ " + meta
		}
		previewTitle = paneTitleStyle.Render(truncateForWidth(meta, previewW-6))
	}
	rightContent := previewTitle + "\n" + m.viewport.View()

	panes := lipgloss.JoinHorizontal(lipgloss.Top,
		leftStyle.Render(leftContent),
		rightStyle.Render(rightContent),
	)

	var statusBar string
	if m.status.text != "" {
		statusBar = " " + m.status.spinner.View() + " " + statusTextStyle.Render(truncateForWidth(m.status.text, m.width-4))
	} else {
		statusBar = " " + m.help.ShortHelpView(m.keys.ShortHelp())
	}
	base := panes + "\n" + statusBar

	if m.help.ShowAll {
		content := helpTitleStyle.Render("Keybindings") + "\n" + m.help.FullHelpView(m.keys.FullHelp())
		base = helpModal(content, m.width, m.height)
	}

	return base
}
