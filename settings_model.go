package main

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jakebf/clipdeck/internal/hotkey"
	"github.com/jakebf/clipdeck/internal/service"
	"github.com/jakebf/clipdeck/internal/surface"
)

// ─── Key Map ─────────────────────────────────────────────────────────────────

type settingsKeyMap struct {
	Navigate     key.Binding
	Change       key.Binding
	Activate     key.Binding
	AddApp       key.Binding
	PickApp      key.Binding
	RemoveApp    key.Binding
	Duplicates   key.Binding
	ClearHistory key.Binding
	ResetAll     key.Binding
	Save         key.Binding
	Close        key.Binding
	Help         key.Binding
	ForceQuit    key.Binding
}

func newSettingsKeyMap() settingsKeyMap {
	return settingsKeyMap{
		Navigate:     key.NewBinding(key.WithKeys("j", "k", "down", "up"), key.WithHelp("j/k", "move")),
		Change:       key.NewBinding(key.WithKeys("h", "l", "left", "right"), key.WithHelp("h/l", "change value")),
		Activate:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "edit / run")),
		AddApp:       key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "ignore an app")),
		PickApp:      key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "pick app file")),
		RemoveApp:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "stop ignoring app")),
		Duplicates:   key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "remove duplicates")),
		ClearHistory: key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "clear history")),
		ResetAll:     key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "delete all clips")),
		Save:         key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save & close")),
		Close:        key.NewBinding(key.WithKeys("esc", "q"), key.WithHelp("esc", "close")),
		Help:         key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		ForceQuit:    key.NewBinding(key.WithKeys("ctrl+c")),
	}
}

func (k settingsKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Save, k.Activate, k.Change, k.AddApp, k.Close, k.Help}
}

func (k settingsKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Activate, k.Change, k.Navigate, k.Save, k.Close, k.Help},
		{k.AddApp, k.PickApp, k.RemoveApp, k.Duplicates, k.ClearHistory, k.ResetAll},
	}
}

// ─── Rows ────────────────────────────────────────────────────────────────────

type rowKind int

const (
	rowTheme rowKind = iota
	rowMaxItems
	rowAutoDelete
	rowHotkey
	rowStartup
	rowApp
	rowAddApp
	rowDuplicates
	rowClearHistory
	rowResetAll
)

type settingsRow struct {
	kind rowKind
	app  string // set for rowApp
}

type confirmKind int

const (
	confirmNone confirmKind = iota
	confirmClearHistory
	confirmResetAll
)

// ─── Model ───────────────────────────────────────────────────────────────────

type settingsModel struct {
	svc    service.Service
	keys   settingsKeyMap
	help   help.Model
	width  int
	height int

	loaded      bool
	loadErr     error
	draft       surface.Draft
	apps        surface.IgnoredApps
	historySize int
	sizeKnown   bool

	cursor   int
	bus      *hotkey.Bus
	recorder *hotkey.Recorder

	adding bool
	input  textinput.Model

	confirm    confirmKind
	committing bool
	result     *surface.CommitResult // set once the draft is saved

	status statusBarState
}

func newSettingsModel(svc service.Service) settingsModel {
	bus := &hotkey.Bus{}

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

	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = "application name or path fragment"
	ti.CharLimit = 120
	ti.Width = 36

	return settingsModel{
		svc:      svc,
		keys:     newSettingsKeyMap(),
		help:     h,
		bus:      bus,
		recorder: hotkey.NewRecorder(bus),
		input:    ti,
		status:   statusBarState{spinner: s},
	}
}

func (m settingsModel) Init() tea.Cmd {
	return tea.Batch(loadDraft(m.svc), loadHistorySize(m.svc), loadIgnoredApps(m.svc))
}

func (m settingsModel) rows() []settingsRow {
	rows := []settingsRow{
		{kind: rowTheme},
		{kind: rowMaxItems},
		{kind: rowAutoDelete},
		{kind: rowHotkey},
		{kind: rowStartup},
	}
	for _, name := range m.apps.Names() {
		rows = append(rows, settingsRow{kind: rowApp, app: name})
	}
	return append(rows,
		settingsRow{kind: rowAddApp},
		settingsRow{kind: rowDuplicates},
		settingsRow{kind: rowClearHistory},
		settingsRow{kind: rowResetAll},
	)
}

func (m settingsModel) currentRow() settingsRow {
	rows := m.rows()
	return rows[max(0, min(m.cursor, len(rows)-1))]
}

func (m *settingsModel) moveCursor(delta int) {
	m.cursor = max(0, min(len(m.rows())-1, m.cursor+delta))
}

func (m *settingsModel) setStatus(text string) tea.Cmd {
	m.status.id++
	m.status.text = text
	id := m.status.id
	return tea.Batch(m.status.spinner.Tick, tea.Tick(statusTimeout, func(time.Time) tea.Msg {
		return statusClearMsg{id: id}
	}))
}

// setBusy shows text until the next status replaces it.
func (m *settingsModel) setBusy(text string) tea.Cmd {
	m.status.id++
	m.status.text = text
	return m.status.spinner.Tick
}

func (m *settingsModel) openInput(value string) tea.Cmd {
	m.adding = true
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Focus()
	return textinput.Blink
}

func (m *settingsModel) closeInput() {
	m.adding = false
	m.input.Blur()
	m.input.SetValue("")
}

// ─── Hotkey Capture ──────────────────────────────────────────────────────────

// keyEvents translates a terminal key press into the key-down events a
// keyboard would have produced. Terminals do not report lone modifier
// presses, so F1-F4 stand in for Ctrl, Alt, Shift and Cmd.
func keyEvents(msg tea.KeyMsg) []hotkey.Event {
	switch msg.Type {
	case tea.KeyF1:
		return []hotkey.Event{{Key: "Control"}}
	case tea.KeyF2:
		return []hotkey.Event{{Key: "Alt"}}
	case tea.KeyF3:
		return []hotkey.Event{{Key: "Shift"}}
	case tea.KeyF4:
		return []hotkey.Event{{Key: "Meta"}}
	case tea.KeyEsc:
		return []hotkey.Event{{Key: "Escape"}}
	}

	var evs []hotkey.Event
	s := msg.String()
	if rest, ok := strings.CutPrefix(s, "alt+"); ok {
		evs = append(evs, hotkey.Event{Key: "Alt"})
		s = rest
	}
	if s == "ctrl+@" {
		return append(evs, hotkey.Event{Key: "Control"}, hotkey.Event{Key: " "})
	}
	if rest, ok := strings.CutPrefix(s, "ctrl+"); ok {
		evs = append(evs, hotkey.Event{Key: "Control"})
		s = rest
	}
	if rest, ok := strings.CutPrefix(s, "shift+"); ok {
		evs = append(evs, hotkey.Event{Key: "Shift"})
		s = rest
	} else if r := []rune(s); len(r) == 1 && unicode.IsUpper(r[0]) {
		evs = append(evs, hotkey.Event{Key: "Shift"})
	}
	return append(evs, hotkey.Event{Key: s})
}

// handleRecording feeds a key press to the recorder. Every key is consumed
// while recording.
func (m settingsModel) handleRecording(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	for _, ev := range keyEvents(msg) {
		m.bus.Dispatch(ev)
		if m.recorder.State() == hotkey.Idle {
			break
		}
	}
	if hk, ok := m.recorder.Captured(); ok {
		m.draft.Hotkey = hk
		return m, m.setStatus("Shortcut set to " + hk + " · ctrl+s to save")
	}
	if m.recorder.State() == hotkey.Idle {
		return m, m.setStatus("Shortcut unchanged")
	}
	m.clearStatus()
	return m, nil
}

func (m *settingsModel) clearStatus() {
	m.status.text = ""
}

// ─── Key Handling ────────────────────────────────────────────────────────────

func (m settingsModel) handleConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "y":
		all := m.confirm == confirmResetAll
		m.confirm = confirmNone
		if all {
			return m, tea.Batch(m.setBusy("Deleting all clips..."), clearHistory(m.svc, true))
		}
		return m, tea.Batch(m.setBusy("Clearing history..."), clearHistory(m.svc, false))
	case msg.String() == "n", key.Matches(msg, m.keys.Close):
		m.confirm = confirmNone
		return m, nil
	case key.Matches(msg, m.keys.ForceQuit):
		return m, tea.Quit
	}
	return m, nil
}

func (m settingsModel) handleInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.ForceQuit):
		return m, tea.Quit
	case msg.Type == tea.KeyEsc:
		m.closeInput()
		return m, nil
	case msg.String() == "ctrl+o":
		return m, pickApp(m.svc)
	case msg.Type == tea.KeyEnter:
		name, ok := m.apps.Candidate(m.input.Value())
		m.closeInput()
		if !ok {
			return m, nil
		}
		return m, addIgnoredApp(m.svc, name)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// change moves the value of the current row. dir is +1 or -1.
func (m *settingsModel) change(dir int) {
	switch m.currentRow().kind {
	case rowTheme:
		m.draft.CycleTheme(dir)
	case rowMaxItems:
		m.draft.StepMaxItems(dir)
	case rowAutoDelete:
		m.draft.CycleAutoDelete(dir)
	case rowStartup:
		m.draft.ToggleStartup()
	}
}

func (m settingsModel) activate() (tea.Model, tea.Cmd) {
	row := m.currentRow()
	switch row.kind {
	case rowTheme, rowMaxItems, rowAutoDelete, rowStartup:
		m.change(1)
		return m, nil
	case rowHotkey:
		m.recorder.Start()
		return m, m.setBusy("Press the new shortcut · F1-F4 for Ctrl/Alt/Shift/Cmd · esc to cancel")
	case rowApp:
		return m, m.setStatus("x stops ignoring " + row.app)
	case rowAddApp:
		return m, m.openInput("")
	case rowDuplicates:
		return m, tea.Batch(m.setBusy("Removing duplicates..."), removeDuplicates(m.svc))
	case rowClearHistory:
		m.confirm = confirmClearHistory
		return m, nil
	case rowResetAll:
		m.confirm = confirmResetAll
		return m, nil
	}
	return m, nil
}

func (m settingsModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.recorder.State() == hotkey.Recording {
		return m.handleRecording(msg)
	}

	if !m.loaded {
		if key.Matches(msg, m.keys.Close) || key.Matches(msg, m.keys.ForceQuit) {
			return m, tea.Quit
		}
		return m, nil
	}

	if m.help.ShowAll {
		switch {
		case key.Matches(msg, m.keys.Help), msg.String() == "esc":
			m.help.ShowAll = false
		case key.Matches(msg, m.keys.ForceQuit):
			return m, tea.Quit
		}
		return m, nil
	}

	if m.confirm != confirmNone {
		return m.handleConfirm(msg)
	}
	if m.adding {
		return m.handleInput(msg)
	}

	switch {
	case key.Matches(msg, m.keys.ForceQuit), key.Matches(msg, m.keys.Close):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Save):
		if m.committing {
			return m, nil
		}
		m.committing = true
		return m, tea.Batch(m.setBusy("Saving..."), commitDraft(m.svc, m.draft))
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = true
	case key.Matches(msg, m.keys.Navigate):
		if s := msg.String(); s == "k" || s == "up" {
			m.moveCursor(-1)
		} else {
			m.moveCursor(1)
		}
	case key.Matches(msg, m.keys.Change):
		if s := msg.String(); s == "h" || s == "left" {
			m.change(-1)
		} else {
			m.change(1)
		}
	case key.Matches(msg, m.keys.Activate):
		return m.activate()
	case key.Matches(msg, m.keys.AddApp):
		return m, m.openInput("")
	case key.Matches(msg, m.keys.PickApp):
		return m, pickApp(m.svc)
	case key.Matches(msg, m.keys.RemoveApp):
		if row := m.currentRow(); row.kind == rowApp {
			return m, removeIgnoredApp(m.svc, row.app)
		}
	case key.Matches(msg, m.keys.Duplicates):
		return m, tea.Batch(m.setBusy("Removing duplicates..."), removeDuplicates(m.svc))
	case key.Matches(msg, m.keys.ClearHistory):
		m.confirm = confirmClearHistory
	case key.Matches(msg, m.keys.ResetAll):
		m.confirm = confirmResetAll
	}
	return m, nil
}

// ─── Update ──────────────────────────────────────────────────────────────────

func (m settingsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case draftLoadedMsg:
		m.draft = surface.NewDraft(msg.settings)
		m.loaded = true
		m.loadErr = nil
		return m, nil

	case historySizeMsg:
		m.historySize = msg.size
		m.sizeKnown = true
		return m, nil

	case ignoredAppsMsg:
		m.apps = surface.NewIgnoredApps(msg.apps)
		return m, nil

	case appAddedMsg:
		m.apps.Insert(msg.name)
		return m, m.setStatus("Ignoring " + msg.name)

	case appRemovedMsg:
		m.apps.Remove(msg.name)
		m.moveCursor(0)
		return m, m.setStatus("No longer ignoring " + msg.name)

	case filePickedMsg:
		return m, m.openInput(msg.name)

	case committedMsg:
		m.committing = false
		res := msg.result
		m.result = &res
		return m, tea.Quit

	case commitFailedMsg:
		m.committing = false
		return m, m.setStatus(fmt.Sprintf("Error: %v", msg.err))

	case maintenanceDoneMsg:
		return m, tea.Batch(m.setStatus(msg.message), loadHistorySize(m.svc))

	case spinner.TickMsg:
		if m.status.text != "" {
			var cmd tea.Cmd
			m.status.spinner, cmd = m.status.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case statusClearMsg:
		if msg.id == m.status.id {
			m.clearStatus()
		}
		return m, nil

	case errMsg:
		if !m.loaded {
			m.loadErr = msg.err
			return m, nil
		}
		return m, m.setStatus(fmt.Sprintf("Error: %v", msg.err))
	}

	if m.adding {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}
