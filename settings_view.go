package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jakebf/clipdeck/internal/hotkey"
	"github.com/jakebf/clipdeck/internal/service"
)

var (
	sectionStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	labelStyle     = lipgloss.NewStyle().Width(20)
	valueStyle     = lipgloss.NewStyle().Bold(true)
	onStyle        = lipgloss.NewStyle().Bold(true).Foreground(colorGreen)
	recordingStyle = lipgloss.NewStyle().Bold(true).Foreground(colorYellow)
)

var themeLabels = map[string]string{
	service.ThemeDark:   "Dark",
	service.ThemeLight:  "Light",
	service.ThemeSystem: "System",
}

// line is one rendered row of the settings panel; row is -1 for headings.
type line struct {
	text string
	row  int
}

func (m settingsModel) valueFor(r settingsRow, selected bool) string {
	arrows := func(s string) string {
		if selected {
			return dateStyle.Render("‹ ") + valueStyle.Render(s) + dateStyle.Render(" ›")
		}
		return valueStyle.Render(s)
	}
	d := m.draft
	switch r.kind {
	case rowTheme:
		return arrows(themeLabels[d.Theme])
	case rowMaxItems:
		return arrows(strconv.Itoa(d.MaxItems))
	case rowAutoDelete:
		return arrows(service.AutoDeleteLabel(d.AutoDeleteDays))
	case rowHotkey:
		if m.recorder.State() == hotkey.Recording {
			return recordingStyle.Render(m.recorder.PendingString())
		}
		if d.Hotkey == "" {
			return dateStyle.Render("none")
		}
		return valueStyle.Render(d.Hotkey)
	case rowStartup:
		if d.StartupWithWindows {
			return onStyle.Render("● on")
		}
		return dateStyle.Render("○ off")
	}
	return ""
}

func (m settingsModel) lines() (lines []line, cursorLine int) {
	heading := func(s string) {
		if len(lines) > 0 {
			lines = append(lines, line{row: -1})
		}
		lines = append(lines, line{text: sectionStyle.Render(s), row: -1})
	}
	rows := m.rows()
	cursor := max(0, min(m.cursor, len(rows)-1))
	for i, r := range rows {
		switch r.kind {
		case rowTheme:
			heading("Appearance")
		case rowMaxItems:
			heading("History")
		case rowHotkey:
			heading("Shortcut")
		case rowStartup:
			heading("Startup")
		case rowApp:
			if i == 0 || rows[i-1].kind != rowApp {
				heading("Ignored applications")
			}
		case rowAddApp:
			if rows[i-1].kind != rowApp {
				heading("Ignored applications")
			}
		case rowDuplicates:
			heading("Maintenance")
		}

		bar := normalBar.String()
		if i == cursor {
			bar = selectedBar.String()
		}
		var text string
		switch r.kind {
		case rowTheme:
			text = labelStyle.Render("Theme") + m.valueFor(r, i == cursor)
		case rowMaxItems:
			text = labelStyle.Render("Maximum items") + m.valueFor(r, i == cursor)
		case rowAutoDelete:
			text = labelStyle.Render("Auto-delete after") + m.valueFor(r, i == cursor)
		case rowHotkey:
			text = labelStyle.Render("Open clipdeck") + m.valueFor(r, i == cursor)
		case rowStartup:
			text = labelStyle.Render("Start at login") + m.valueFor(r, i == cursor)
		case rowApp:
			text = r.app
		case rowAddApp:
			if m.adding {
				text = "+ " + m.input.View()
			} else {
				text = dateStyle.Render("+ Add application…")
			}
		case rowDuplicates:
			text = "Remove duplicate clips"
		case rowClearHistory:
			text = "Clear history " + dateStyle.Render("(keeps pinned)")
		case rowResetAll:
			text = "Delete all clips"
		}
		if i == cursor {
			cursorLine = len(lines)
		}
		lines = append(lines, line{text: bar + text, row: i})

		if r.kind == rowAutoDelete {
			size := "…"
			if m.sizeKnown {
				size = strconv.Itoa(m.historySize)
			}
			lines = append(lines, line{text: normalBar.String() + labelStyle.Render("Stored clips") + dateStyle.Render(size), row: -1})
		}
	}
	return lines, cursorLine
}

// window returns the slice of lines that fits in height, keeping cursorLine
// visible.
func window(lines []line, cursorLine, height int) []line {
	if height <= 0 || len(lines) <= height {
		return lines
	}
	start := max(0, cursorLine-height/2)
	start = min(start, len(lines)-height)
	return lines[start : start+height]
}

func (m settingsModel) statusLine() string {
	switch {
	case m.confirm == confirmClearHistory:
		return " " + warnTextStyle.Render("Clear clipboard history? Pinned clips are kept. (y/n)")
	case m.confirm == confirmResetAll:
		return " " + warnTextStyle.Render("Delete ALL clips, pinned ones too? This cannot be undone. (y/n)")
	case m.status.text != "":
		return " " + m.status.spinner.View() + " " + statusTextStyle.Render(truncateForWidth(m.status.text, m.width-4))
	case m.adding:
		hint := lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
		dim := lipgloss.NewStyle().Foreground(colorDim)
		return " " + hint.Render("enter") + dim.Render(" add | ") + hint.Render("ctrl+o") + dim.Render(" pick file | ") + hint.Render("esc") + dim.Render(" cancel")
	}
	return " " + m.help.ShortHelpView(m.keys.ShortHelp())
}

func (m settingsModel) View() string {
	if m.loadErr != nil {
		msg := fmt.Sprintf("Could not load settings:\n%v\n\nIs the daemon running? Start it with: clipdeck serve\n\nq to quit", m.loadErr)
		return lipgloss.NewStyle().Padding(1, 2).Render(msg)
	}
	if !m.loaded {
		return "Loading..."
	}

	boxW := 64
	if m.width > 0 && m.width-2 < boxW {
		boxW = max(30, m.width-2)
	}
	bodyH := 0
	if m.height > 0 {
		bodyH = m.height - 5 // borders, title, status bar
	}

	lines, cursorLine := m.lines()
	var b strings.Builder
	b.WriteString(paneTitleStyle.Render("Clipdeck Settings"))
	for _, l := range window(lines, cursorLine, bodyH) {
		b.WriteString("\n" + truncateForWidth(l.text, boxW-2))
	}

	panel := focusedBorder.Width(boxW - 2).Render(b.String())
	base := panel + "\n" + m.statusLine()

	if m.help.ShowAll {
		content := helpTitleStyle.Render("Settings keys") + "\n" + m.help.FullHelpView(m.keys.FullHelp())
		return helpModal(content, max(m.width, 40), max(m.height, 12))
	}
	return base
}
