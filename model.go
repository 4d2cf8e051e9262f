package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jakebf/clipdeck/internal/service"
)

// ─── Key Map ─────────────────────────────────────────────────────────────────

type keyMap struct {
	Navigate     key.Binding
	SwitchPane   key.Binding
	Paste        key.Binding
	Pin          key.Binding
	Delete       key.Binding
	Filter       key.Binding
	PrevCategory key.Binding
	NextCategory key.Binding
	ScrollDown   key.Binding
	ScrollUp     key.Binding
	Help         key.Binding
	Settings     key.Binding
	Quit         key.Binding
	ForceQuit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Navigate:     key.NewBinding(key.WithKeys("j", "k"), key.WithHelp("j/k", "navigate / scroll")),
		SwitchPane:   key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "switch pane")),
		Paste:        key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "paste")),
		Pin:          key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pin / unpin")),
		Delete:       key.NewBinding(key.WithKeys("#"), key.WithHelp("#", "delete clip")),
		Filter:       key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		PrevCategory: key.NewBinding(key.WithKeys("["), key.WithHelp("[/]", "history / pinned")),
		NextCategory: key.NewBinding(key.WithKeys("]")),
		ScrollDown:   key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "page down")),
		ScrollUp:     key.NewBinding(key.WithKeys("B"), key.WithHelp("B", "page up")),
		Help:         key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Settings:     key.NewBinding(key.WithKeys(","), key.WithHelp(",", "settings")),
		Quit:         key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		ForceQuit:    key.NewBinding(key.WithKeys("ctrl+c")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Paste, k.Pin, k.Delete, k.PrevCategory, k.Filter, k.Settings, k.Help}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		// Actions
		{k.Paste, k.Pin, k.Delete, k.PrevCategory, k.Filter, k.Settings},
		// Navigation / app
		{k.Navigate, k.SwitchPane, k.ScrollDown, k.ScrollUp, k.Help, k.Quit},
	}
}

// ─── Model ───────────────────────────────────────────────────────────────────

const statusTimeout = 3 * time.Second

type statusBarState struct {
	text    string
	id      int
	spinner spinner.Model
}

type model struct {
	// Layout
	list     list.Model
	viewport viewport.Model
	keys     keyMap
	help     help.Model
	focused  pane
	width    int
	height   int
	ready    bool // true after first WindowSizeMsg

	// Preview rendering
	previewCache map[string]string // clip id → glamour-rendered content
	previewWidth int               // cached width for invalidation on resize
	prerendered  bool              // true after first render pass
	glamourStyle string            // "dark" or "light"

	// Clip data
	svc          service.Backend
	events       eventStream
	settingsArgv []string // command line that opens the settings surface
	demo         bool
	clips        []service.Clip
	category     category
	theme        string

	prevIndex     int
	jumpTop       bool // select the newest clip on the next load
	confirmDelete bool
	pasting       *string // shared with delegate
	spinView      *string // shared with delegate for spinner frame
	status        statusBarState
}

func newModel(svc service.Backend, events eventStream, settingsArgv []string) model {
	var pasting, spinView string
	delegate := clipDelegate{pasting: &pasting, spinnerView: &spinView}
	l := list.New(nil, delegate, 0, 0)
	l.Title = "Clipdeck"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.Styles.Title = lipgloss.NewStyle().Padding(0, 0, 0, 0)
	l.Styles.TitleBar = lipgloss.NewStyle().Padding(0, 1, 1, 2)
	l.KeyMap.Quit.SetKeys("q") // esc clears the filter first
	l.FilterInput.Prompt = "Search: "

	h := help.New()
	h.ShortSeparator = " | "
	h.Styles.ShortKey = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	h.Styles.ShortDesc = lipgloss.NewStyle().Foreground(colorDim)
	h.Styles.ShortSeparator = lipgloss.NewStyle().Foreground(colorDim)
	h.Styles.FullKey = lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Width(10)
	h.Styles.FullDesc = lipgloss.NewStyle().Foreground(colorFull)
	h.Styles.FullSeparator = lipgloss.NewStyle()

	s := spinner.New()
	s.Spinner = spinner.Pulse
	s.Style = lipgloss.NewStyle().Foreground(colorAccent)

	return model{
		list:         l,
		viewport:     viewport.New(0, 0),
		keys:         newKeyMap(),
		help:         h,
		focused:      listPane,
		prevIndex:    -1,
		previewCache: make(map[string]string),
		glamourStyle: glamourStyleFor(service.ThemeSystem),
		svc:          svc,
		events:       events,
		settingsArgv: settingsArgv,
		theme:        service.ThemeSystem,
		pasting:      &pasting,
		spinView:     &spinView,
		status:       statusBarState{spinner: s},
	}
}

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		loadSettings(m.svc),
		loadClips(m.svc, m.category.query()),
	}
	if m.events != nil {
		cmds = append(cmds, watchEvents(m.events))
	}
	return tea.Batch(cmds...)
}

// glamourStyleFor maps a settings theme to a glamour style. "system" follows
// the terminal background.
func glamourStyleFor(theme string) string {
	switch theme {
	case service.ThemeDark:
		return "dark"
	case service.ThemeLight:
		return "light"
	}
	if lipgloss.HasDarkBackground() {
		return "dark"
	}
	return "light"
}

// setStatus shows a transient message in the status bar with a spinner animation.
// If duration > 0, the message auto-clears after that time.
func (m *model) setStatus(text string, duration time.Duration) tea.Cmd {
	m.status.id++
	m.status.text = text
	id := m.status.id
	var cmds []tea.Cmd
	cmds = append(cmds, m.status.spinner.Tick)
	if duration > 0 {
		cmds = append(cmds, tea.Tick(duration, func(time.Time) tea.Msg {
			return statusClearMsg{id: id}
		}))
	}
	return tea.Batch(cmds...)
}

func (m *model) clearStatus() {
	m.status.text = ""
}

func (m *model) restoreTitle() {
	brand := lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	tab := lipgloss.NewStyle().Bold(true)
	ghost := lipgloss.NewStyle().Foreground(colorDim)

	var tabs string
	if m.category == categoryPinned {
		tabs = ghost.Render("[ ") + ghost.Render("History") + ghost.Render(" · ") + tab.Render("Pinned") + ghost.Render(" ]")
	} else {
		tabs = ghost.Render("[ ") + tab.Render("History") + ghost.Render(" · ") + ghost.Render("Pinned") + ghost.Render(" ]")
	}
	tabsW := lipgloss.Width(tabs)

	left := brand.Render("Clipdeck")
	if m.demo {
		left += " " + ghost.Render("demo")
	}
	if m.list.IsFiltered() {
		if filterText := m.list.FilterValue(); filterText != "" {
			left += " " + dateStyle.Render("/"+filterText)
		}
	}

	maxW := m.list.Width() - 3 // TitleBar padding: left (2) + right (1)
	avail := maxW - lipgloss.Width(left) - tabsW
	if avail > 0 {
		m.list.Title = left + strings.Repeat(" ", avail) + tabs
	} else {
		// Not enough room, drop tabs to avoid wrapping
		m.list.Title = left
	}
}

func (m model) selectedClip() (service.Clip, bool) {
	if item, ok := m.list.SelectedItem().(clip); ok {
		return item.Clip, true
	}
	return service.Clip{}, false
}

func (m model) selectedID() string {
	if c, ok := m.selectedClip(); ok {
		return c.ID
	}
	return ""
}

// selectClip moves the cursor to the clip with id, or stays at the current
// index if it is gone (clamped to list length).
func (m *model) selectClip(id string) {
	for i, item := range m.list.Items() {
		if c, ok := item.(clip); ok && c.ID == id {
			m.list.Select(i)
			return
		}
	}
	if idx := m.list.Index(); idx >= len(m.list.Items()) && len(m.list.Items()) > 0 {
		m.list.Select(len(m.list.Items()) - 1)
	}
}

// showSelected swaps the preview to the selected clip when it is rendered.
func (m *model) showSelected() {
	id := m.selectedID()
	if id == "" {
		m.viewport.SetContent("")
		return
	}
	if content, ok := m.previewCache[id]; ok {
		m.viewport.SetContent(content)
		m.viewport.GotoTop()
	}
}

func (m model) reload() tea.Cmd {
	return loadClips(m.svc, m.category.query())
}

func (m model) previewW() int {
	return m.width - (m.width * 40 / 100) - 2
}

// renderWindow renders the selected clip plus a few neighbors (±2) if not
// cached, so they're warm by the time the user navigates to them.
func (m model) renderWindow() tea.Cmd {
	items := m.list.Items()
	idx := m.list.Index()
	if len(items) == 0 {
		return nil
	}
	var cmds []tea.Cmd
	for i := idx - 2; i <= idx+2; i++ {
		if i < 0 || i >= len(items) {
			continue
		}
		c, ok := items[i].(clip)
		if !ok {
			continue
		}
		if _, cached := m.previewCache[c.ID]; cached {
			continue
		}
		cmds = append(cmds, renderClip(c.Clip, m.glamourStyle, m.previewW()))
	}
	if len(cmds) == 0 {
		return nil
	}
	return tea.Batch(cmds...)
}

// applyTheme switches the preview style, re-rendering when it changes.
func (m *model) applyTheme(theme string) tea.Cmd {
	m.theme = theme
	style := glamourStyleFor(theme)
	if style == m.glamourStyle {
		return nil
	}
	m.glamourStyle = style
	m.previewCache = make(map[string]string)
	return m.renderWindow()
}

// ─── Modal Key Handlers ──────────────────────────────────────────────────────

func (m model) handleDeleteConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y":
		if c, ok := m.selectedClip(); ok {
			m.confirmDelete = false
			m.clearStatus()
			return m, deleteClip(m.svc, c)
		}
	case "n", "esc":
		m.confirmDelete = false
		m.clearStatus()
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.confirmDelete = false
		m.clearStatus()
		return m, nil
	case key.Matches(msg, m.keys.ForceQuit):
		return m, tea.Quit
	}
	return m, nil
}

// ─── Key Handling ─────────────────────────────────────────────────────────────

// handleKeyMsg processes keyboard input, returning handled=true for keys that
// should short-circuit Update (modals, commands, etc.) and handled=false for
// keys that should fall through to list.Update for default navigation/search.
func (m model) handleKeyMsg(msg tea.KeyMsg) (model, tea.Cmd, bool) {
	filtering := m.list.SettingFilter()

	// Settings, from anywhere but a text field
	if key.Matches(msg, m.keys.Settings) && !filtering && !m.confirmDelete {
		m.help.ShowAll = false
		if len(m.settingsArgv) == 0 {
			return m, m.setStatus("Settings unavailable", statusTimeout), true
		}
		return m, openSettings(m.settingsArgv), true
	}

	// Help modal: swallow everything except ?, esc, q
	if m.help.ShowAll {
		switch {
		case key.Matches(msg, m.keys.Help) || msg.String() == "esc":
			m.help.ShowAll = false
		case key.Matches(msg, m.keys.Quit), key.Matches(msg, m.keys.ForceQuit):
			return m, tea.Quit, true
		}
		return m, nil, true
	}

	if m.confirmDelete {
		mod, cmd := m.handleDeleteConfirm(msg)
		return mod.(model), cmd, true
	}

	// Space / B scroll the preview regardless of pane focus
	if !filtering {
		switch {
		case key.Matches(msg, m.keys.ScrollDown):
			m.viewport.HalfViewDown()
			return m, nil, true
		case key.Matches(msg, m.keys.ScrollUp):
			m.viewport.HalfViewUp()
			return m, nil, true
		}
	}

	// Preview pane: scrolling
	if m.focused == previewPane && !filtering {
		switch msg.String() {
		case "j", "down":
			m.viewport.LineDown(1)
			return m, nil, true
		case "k", "up":
			m.viewport.LineUp(1)
			return m, nil, true
		case "pgdown":
			m.viewport.HalfViewDown()
			return m, nil, true
		case "u", "pgup":
			m.viewport.HalfViewUp()
			return m, nil, true
		}
		switch {
		case key.Matches(msg, m.keys.SwitchPane):
			m.focused = listPane
			return m, nil, true
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = true
			return m, nil, true
		case key.Matches(msg, m.keys.Quit), key.Matches(msg, m.keys.ForceQuit):
			return m, tea.Quit, true
		}
		return m, nil, true
	}

	// List pane keys
	switch {
	case key.Matches(msg, m.keys.ForceQuit):
		return m, tea.Quit, true
	case key.Matches(msg, m.keys.Quit):
		if !filtering {
			return m, tea.Quit, true
		}
	case msg.String() == "esc":
		if !filtering && !m.list.IsFiltered() {
			return m, tea.Quit, true
		}
	case key.Matches(msg, m.keys.Help):
		if !filtering {
			m.help.ShowAll = true
			return m, nil, true
		}
	case key.Matches(msg, m.keys.SwitchPane):
		if !filtering {
			m.focused = previewPane
			return m, nil, true
		}
	case key.Matches(msg, m.keys.Paste):
		if !filtering {
			if c, ok := m.selectedClip(); ok {
				*m.pasting = c.ID
				return m, tea.Batch(pasteClip(m.svc, c), m.status.spinner.Tick), true
			}
			return m, nil, true
		}
	case key.Matches(msg, m.keys.Pin):
		if !filtering {
			if c, ok := m.selectedClip(); ok {
				return m, pinClip(m.svc, c), true
			}
			return m, nil, true
		}
	case key.Matches(msg, m.keys.Delete):
		if !filtering {
			if c, ok := m.selectedClip(); ok {
				m.confirmDelete = true
				m.status.id++
				m.status.text = fmt.Sprintf("Delete %q? (y/n)", truncateForWidth(oneLine(c.Preview), 30))
				return m, m.status.spinner.Tick, true
			}
			return m, nil, true
		}
	case key.Matches(msg, m.keys.NextCategory), key.Matches(msg, m.keys.PrevCategory):
		if !filtering {
			dir := 1
			if key.Matches(msg, m.keys.PrevCategory) {
				dir = -1
			}
			m.category = m.category.next(dir)
			m.list.ResetSelected()
			m.restoreTitle()
			return m, m.reload(), true
		}
	}

	// Not handled, fall through to list.Update for default navigation/search
	return m, nil, false
}

// ─── Update ──────────────────────────────────────────────────────────────────

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		mod, cmd, handled := m.handleKeyMsg(msg)
		m = mod // Always apply model changes
		if handled {
			return m, cmd
		}

	case tea.MouseMsg:
		if msg.Action != tea.MouseActionPress {
			return m, nil
		}
		listW := m.width * 40 / 100
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			if msg.X < listW {
				m.list.CursorUp()
			} else {
				m.viewport.LineUp(3)
			}
		case tea.MouseButtonWheelDown:
			if msg.X < listW {
				m.list.CursorDown()
			} else {
				m.viewport.LineDown(3)
			}
		default:
			return m, nil
		}
		if msg.X < listW && m.list.Index() != m.prevIndex {
			m.prevIndex = m.list.Index()
			m.showSelected()
			cmds = append(cmds, m.renderWindow())
		}
		return m, tea.Batch(cmds...)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

		listW := m.width * 40 / 100
		innerListW := listW - 2
		innerPreviewW := m.previewW()
		innerH := m.height - 3 // -2 for borders, -1 for hint bar

		if innerListW < 10 {
			innerListW = 10
		}
		if innerPreviewW < 10 {
			innerPreviewW = 10
		}
		if innerH < 5 {
			innerH = 5
		}

		m.list.SetSize(innerListW, innerH-1)
		m.viewport.Width = innerPreviewW
		m.viewport.Height = innerH - 1
		m.restoreTitle()

		if !m.prerendered || m.previewWidth != innerPreviewW {
			m.prerendered = true
			m.previewWidth = innerPreviewW
			m.previewCache = make(map[string]string)
			cmds = append(cmds, m.renderWindow())
		}
		return m, tea.Batch(cmds...)

	case clipsLoadedMsg:
		prevID := m.selectedID()
		if m.jumpTop {
			prevID = ""
			m.jumpTop = false
		}
		m.clips = msg.clips
		m.list.SetItems(clipsToItems(m.clips))
		m.selectClip(prevID)
		m.prevIndex = m.list.Index()
		m.showSelected()
		m.restoreTitle()
		return m, m.renderWindow()

	case clipContentMsg:
		m.previewCache[msg.id] = msg.content
		if msg.id == m.selectedID() {
			m.viewport.SetContent(msg.content)
			m.viewport.GotoTop()
		}
		return m, nil

	case settingsLoadedMsg:
		return m, m.applyTheme(msg.settings.Theme)

	case daemonEventMsg:
		switch msg.event.Type {
		case service.EventClipboardChange, service.EventHistoryCleared:
			cmds = append(cmds, m.reload())
		case service.EventSettingsChanged:
			if msg.event.Settings != nil {
				cmds = append(cmds, m.applyTheme(msg.event.Settings.Theme))
			}
		case service.EventShortcutActivated:
			m.category = categoryAll
			m.list.ResetFilter()
			m.list.ResetSelected()
			m.jumpTop = true
			m.restoreTitle()
			cmds = append(cmds, m.reload())
		}
		if m.events != nil {
			cmds = append(cmds, watchEvents(m.events))
		}
		return m, tea.Batch(cmds...)

	case pastedMsg:
		*m.pasting = ""
		return m, tea.Quit

	case clipChangedMsg:
		return m, tea.Batch(m.reload(), m.setStatus(msg.message, statusTimeout))

	case settingsClosedMsg:
		return m, loadSettings(m.svc)

	case spinner.TickMsg:
		if m.status.text != "" || *m.pasting != "" {
			var cmd tea.Cmd
			m.status.spinner, cmd = m.status.spinner.Update(msg)
			*m.spinView = m.status.spinner.View()
			return m, cmd
		}
		return m, nil

	case statusClearMsg:
		if msg.id == m.status.id {
			m.clearStatus()
		}
		return m, nil

	case errMsg:
		*m.pasting = ""
		return m, m.setStatus(fmt.Sprintf("Error: %v", msg.err), statusTimeout)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	cmds = append(cmds, cmd)

	m.restoreTitle()

	// On cursor change, swap the preview to the newly selected clip.
	// Cached content is shown immediately; uncached triggers renderWindow.
	if m.list.Index() != m.prevIndex {
		m.prevIndex = m.list.Index()
		m.showSelected()
		cmds = append(cmds, m.renderWindow())
	}

	return m, tea.Batch(cmds...)
}
