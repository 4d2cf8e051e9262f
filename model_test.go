package main

import (
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jakebf/clipdeck/internal/service"
)

// cmdTimeout bounds how long the test driver waits for a single command.
// Delayed commands (status ticks, cursor blinks) are dropped.
const cmdTimeout = 500 * time.Millisecond

var testNow = time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

func testClips() []service.Clip {
	clips := []service.Clip{
		newClip("go test ./...", "kitty", testNow.Add(-1*time.Minute)),
		newClip("https://example.com/docs", "firefox", testNow.Add(-2*time.Hour)),
		newClip("Meeting at 14:30", "slack", testNow.Add(-3*24*time.Hour)),
		newClip("ssh deploy@staging", "kitty", testNow.Add(-40*24*time.Hour)),
	}
	clips[2].Pinned = true
	return clips
}

func testModel(t *testing.T, svc service.Backend) model {
	t.Helper()
	m := newModel(svc, nil, nil)
	mod, cmd := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = mod.(model)
	execCmd(t, &m, cmd)
	execCmd(t, &m, m.Init())
	return m
}

// runCmd executes cmd and returns the messages it produced, flattening
// batches. Spinner frames and cursor blinks are dropped so animations do not
// loop forever.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()
	var msg tea.Msg
	select {
	case msg = <-done:
	case <-time.After(cmdTimeout):
		return nil
	}

	switch msg := msg.(type) {
	case nil, spinner.TickMsg, cursor.BlinkMsg:
		return nil
	case tea.BatchMsg:
		results := make([][]tea.Msg, len(msg))
		var wg sync.WaitGroup
		for i, sub := range msg {
			wg.Add(1)
			go func() {
				defer wg.Done()
				results[i] = runCmd(sub)
			}()
		}
		wg.Wait()
		var out []tea.Msg
		for _, r := range results {
			out = append(out, r...)
		}
		return out
	}
	return []tea.Msg{msg}
}

// execCmd feeds the results of cmd back into m until no work is left. It
// reports whether a tea.Quit was produced along the way.
func execCmd(t *testing.T, m *model, cmd tea.Cmd) (quit bool) {
	t.Helper()
	for _, msg := range runCmd(cmd) {
		if _, ok := msg.(tea.QuitMsg); ok {
			quit = true
			continue
		}
		m2, next := m.Update(msg)
		*m = m2.(model)
		if execCmd(t, m, next) {
			quit = true
		}
	}
	return quit
}

func press(t *testing.T, m *model, keys ...string) (quit bool) {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "ctrl+s":
			msg = tea.KeyMsg{Type: tea.KeyCtrlS}
		case "ctrl+o":
			msg = tea.KeyMsg{Type: tea.KeyCtrlO}
		case "ctrl+c":
			msg = tea.KeyMsg{Type: tea.KeyCtrlC}
		case "f1":
			msg = tea.KeyMsg{Type: tea.KeyF1}
		case "f3":
			msg = tea.KeyMsg{Type: tea.KeyF3}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		m2, cmd := m.Update(msg)
		*m = m2.(model)
		if execCmd(t, m, cmd) {
			quit = true
		}
	}
	return quit
}

func selectedContent(m model) string {
	c, _ := m.selectedClip()
	return c.Content
}

func TestInitLoadsClipsNewestFirst(t *testing.T) {
	m := testModel(t, newMemService(testClips()))

	if got := len(m.list.Items()); got != 4 {
		t.Fatalf("items = %d, want 4", got)
	}
	if got := selectedContent(m); got != "go test ./..." {
		t.Fatalf("selected = %q, want newest clip", got)
	}
	if m.list.Index() != 0 {
		t.Fatalf("index = %d, want 0", m.list.Index())
	}
}

func TestPreviewRenderedForSelection(t *testing.T) {
	m := testModel(t, newMemService(testClips()))
	id := m.selectedID()
	content, ok := m.previewCache[id]
	if !ok {
		t.Fatal("selected clip was not rendered")
	}
	if !strings.Contains(content, "go test") {
		t.Fatalf("preview does not contain clip text:\n%s", content)
	}
}

func TestNavigateKeepsSelectionAcrossReload(t *testing.T) {
	svc := newMemService(testClips())
	m := testModel(t, svc)
	press(t, &m, "j")
	if got := selectedContent(m); got != "https://example.com/docs" {
		t.Fatalf("after j selected = %q", got)
	}

	// A new clip arrives at the top; the cursor follows the selected clip.
	if _, err := svc.AddClip(t.Context(), "fresh", "kitty"); err != nil {
		t.Fatal(err)
	}
	execCmd(t, &m, m.reload())
	if got := selectedContent(m); got != "https://example.com/docs" {
		t.Fatalf("after reload selected = %q, want the same clip", got)
	}
	if m.list.Index() != 2 {
		t.Fatalf("index = %d, want 2", m.list.Index())
	}
}

func TestPinToggles(t *testing.T) {
	svc := newMemService(testClips())
	m := testModel(t, svc)
	id := m.selectedID()

	press(t, &m, "p")
	if i := svc.indexLocked(id); !svc.clips[i].Pinned {
		t.Fatal("clip not pinned in service")
	}
	if m.status.text != "Pinned" {
		t.Fatalf("status = %q, want Pinned", m.status.text)
	}
	if c, _ := m.selectedClip(); !c.Pinned {
		t.Fatal("list not refreshed after pin")
	}

	press(t, &m, "p")
	if i := svc.indexLocked(id); svc.clips[i].Pinned {
		t.Fatal("clip still pinned after second p")
	}
	if m.status.text != "Unpinned" {
		t.Fatalf("status = %q, want Unpinned", m.status.text)
	}
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	svc := newMemService(testClips())
	m := testModel(t, svc)
	id := m.selectedID()

	press(t, &m, "#")
	if !m.confirmDelete {
		t.Fatal("expected delete confirmation")
	}
	if !strings.Contains(m.status.text, "Delete") {
		t.Fatalf("status = %q, want a delete prompt", m.status.text)
	}

	press(t, &m, "n")
	if m.confirmDelete {
		t.Fatal("n should cancel the confirmation")
	}
	if svc.indexLocked(id) < 0 {
		t.Fatal("clip deleted without confirmation")
	}

	press(t, &m, "#", "y")
	if svc.indexLocked(id) >= 0 {
		t.Fatal("clip not deleted after y")
	}
	if got := len(m.list.Items()); got != 3 {
		t.Fatalf("items = %d, want 3", got)
	}
	if m.status.text != "Deleted" {
		t.Fatalf("status = %q, want Deleted", m.status.text)
	}
}

func TestDeleteConfirmationSwallowsOtherKeys(t *testing.T) {
	svc := newMemService(testClips())
	m := testModel(t, svc)

	press(t, &m, "#", "p", "j")
	if !m.confirmDelete {
		t.Fatal("confirmation dismissed by unrelated key")
	}
	if m.list.Index() != 0 {
		t.Fatal("cursor moved while confirming")
	}
	if c, _ := m.selectedClip(); c.Pinned {
		t.Fatal("p acted while confirming")
	}
}

func TestCategoryCycle(t *testing.T) {
	m := testModel(t, newMemService(testClips()))

	press(t, &m, "]")
	if m.category != categoryPinned {
		t.Fatalf("category = %v, want pinned", m.category)
	}
	if got := len(m.list.Items()); got != 1 {
		t.Fatalf("pinned items = %d, want 1", got)
	}
	if got := selectedContent(m); got != "Meeting at 14:30" {
		t.Fatalf("selected = %q", got)
	}

	press(t, &m, "]")
	if m.category != categoryAll {
		t.Fatalf("category = %v, want all", m.category)
	}
	press(t, &m, "[")
	if m.category != categoryPinned {
		t.Fatalf("[ from all = %v, want pinned", m.category)
	}
}

func TestPasteBumpsClipAndQuits(t *testing.T) {
	svc := newMemService(testClips())
	svc.now = func() time.Time { return testNow }
	m := testModel(t, svc)

	press(t, &m, "j", "j")
	want := selectedContent(m)
	if quit := press(t, &m, "enter"); !quit {
		t.Fatal("expected quit after paste")
	}
	if svc.clips[0].Content != want {
		t.Fatalf("top clip = %q, want pasted %q", svc.clips[0].Content, want)
	}
	if *m.pasting != "" {
		t.Fatal("pasting marker not cleared")
	}
}

func TestPasteFailureStaysOpen(t *testing.T) {
	svc := newMemService(testClips())
	m := testModel(t, svc)
	if err := svc.ClearAllClips(t.Context()); err != nil {
		t.Fatal(err)
	}

	if quit := press(t, &m, "enter"); quit {
		t.Fatal("should not quit when paste fails")
	}
	if !strings.HasPrefix(m.status.text, "Error:") {
		t.Fatalf("status = %q, want error", m.status.text)
	}
}

func TestEscQuitsFromList(t *testing.T) {
	m := testModel(t, newMemService(testClips()))
	if quit := press(t, &m, "esc"); !quit {
		t.Fatal("esc should close the history window")
	}
}

func TestSettingsUnavailableWithoutCommand(t *testing.T) {
	m := testModel(t, newMemService(testClips()))
	press(t, &m, ",")
	if m.status.text != "Settings unavailable" {
		t.Fatalf("status = %q", m.status.text)
	}
}

type fakeStream struct {
	mu     sync.Mutex
	events []service.Event
}

func (s *fakeStream) Next() (service.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.events) == 0 {
		return service.Event{}, io.EOF
	}
	ev := s.events[0]
	s.events = s.events[1:]
	return ev, nil
}

func TestDaemonEventsRefresh(t *testing.T) {
	svc := newMemService(testClips())
	m := testModel(t, svc)
	if _, err := svc.AddClip(t.Context(), "from elsewhere", "code"); err != nil {
		t.Fatal(err)
	}

	light := service.DefaultSettings()
	light.Theme = service.ThemeLight
	m.events = &fakeStream{events: []service.Event{
		{Type: service.EventClipboardChange},
		{Type: service.EventSettingsChanged, Settings: &light},
	}}
	execCmd(t, &m, watchEvents(m.events))

	if got := len(m.list.Items()); got != 5 {
		t.Fatalf("items = %d, want 5 after clipboard-change", got)
	}
	if m.theme != service.ThemeLight || m.glamourStyle != "light" {
		t.Fatalf("theme = %q style = %q, want light", m.theme, m.glamourStyle)
	}
}

func TestHistoryClearedEventEmptiesList(t *testing.T) {
	svc := newMemService(testClips())
	m := testModel(t, svc)
	if err := svc.ClearAllClips(t.Context()); err != nil {
		t.Fatal(err)
	}
	mod, cmd := m.Update(daemonEventMsg{event: service.Event{Type: service.EventHistoryCleared}})
	m = mod.(model)
	execCmd(t, &m, cmd)
	if got := len(m.list.Items()); got != 0 {
		t.Fatalf("items = %d, want 0", got)
	}
	if !strings.Contains(m.View(), "No clips yet") {
		t.Fatal("empty hint not shown")
	}
}

func TestShortcutActivatedShowsNewestClip(t *testing.T) {
	svc := newMemService(testClips())
	m := testModel(t, svc)
	press(t, &m, "]")
	if m.category != categoryPinned {
		t.Fatalf("category = %v, want pinned", m.category)
	}
	if _, err := svc.AddClip(t.Context(), "just copied", "code"); err != nil {
		t.Fatal(err)
	}

	mod, cmd := m.Update(daemonEventMsg{event: service.Event{Type: service.EventShortcutActivated}})
	m = mod.(model)
	execCmd(t, &m, cmd)

	if m.category != categoryAll {
		t.Fatalf("category = %v, want all", m.category)
	}
	if got := len(m.list.Items()); got != 5 {
		t.Fatalf("items = %d, want 5", got)
	}
	if got := selectedContent(m); got != "just copied" {
		t.Fatalf("selected = %q, want the newest clip", got)
	}
}

func TestSettingsClosedReloadsTheme(t *testing.T) {
	svc := newMemService(testClips())
	m := testModel(t, svc)

	s := service.DefaultSettings()
	s.Theme = service.ThemeDark
	if err := svc.SaveSettings(t.Context(), s); err != nil {
		t.Fatal(err)
	}
	mod, cmd := m.Update(settingsClosedMsg{})
	m = mod.(model)
	execCmd(t, &m, cmd)
	if m.theme != service.ThemeDark || m.glamourStyle != "dark" {
		t.Fatalf("theme = %q style = %q, want dark", m.theme, m.glamourStyle)
	}
}

func TestErrMsgShowsStatus(t *testing.T) {
	m := testModel(t, newMemService(testClips()))
	mod, _ := m.Update(errMsg{errors.New("daemon not reachable")})
	m = mod.(model)
	if m.status.text != "Error: daemon not reachable" {
		t.Fatalf("status = %q", m.status.text)
	}
}

func TestHelpModalToggle(t *testing.T) {
	m := testModel(t, newMemService(testClips()))
	press(t, &m, "?")
	if !m.help.ShowAll {
		t.Fatal("? should open help")
	}
	if !strings.Contains(m.View(), "Keybindings") {
		t.Fatal("help modal not rendered")
	}
	press(t, &m, "p")
	if c, _ := m.selectedClip(); c.Pinned {
		t.Fatal("help modal should swallow keys")
	}
	press(t, &m, "esc")
	if m.help.ShowAll {
		t.Fatal("esc should close help")
	}
}

func TestViewShowsDemoBadgeAndPinnedHint(t *testing.T) {
	svc := newMemService([]service.Clip{newClip("only clip", "kitty", testNow)})
	m := newModel(svc, nil, nil)
	m.demo = true
	mod, cmd := m.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	m = mod.(model)
	execCmd(t, &m, cmd)
	execCmd(t, &m, m.Init())

	if view := m.View(); !strings.Contains(view, "demo") || !strings.Contains(view, "only clip") {
		t.Fatalf("view missing demo badge or clip:\n%s", view)
	}

	press(t, &m, "]")
	if view := m.View(); !strings.Contains(view, "No pinned clips") {
		t.Fatalf("view missing pinned hint:\n%s", view)
	}
}

func BenchmarkUpdateJK(b *testing.B) {
	svc := newMemService(demoClips())
	m := newModel(svc, nil, nil)
	mod, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = mod.(model)
	mod, _ = m.Update(clipsLoadedMsg{clips: svc.clips})
	m = mod.(model)

	j := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")}
	k := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("k")}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		mod, _ = m.Update(j)
		m = mod.(model)
		mod, _ = m.Update(k)
		m = mod.(model)
	}
}

func BenchmarkViewSteadyState(b *testing.B) {
	svc := newMemService(demoClips())
	m := newModel(svc, nil, nil)
	mod, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = mod.(model)
	mod, _ = m.Update(clipsLoadedMsg{clips: svc.clips})
	m = mod.(model)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = m.View()
	}
}
