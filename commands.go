package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/jakebf/clipdeck/internal/service"
	"github.com/jakebf/clipdeck/internal/surface"
)

// rpcTimeout bounds every daemon call except the file picker, which waits on
// the user.
const rpcTimeout = 5 * time.Second

// rendererPool caches glamour renderers keyed by "style:width".
// Each key maps to a sync.Pool so concurrent goroutines get their own instance.
var (
	rendererPoolMu sync.Mutex
	rendererPools  = make(map[string]*sync.Pool)
)

func getRenderer(style string, width int) (*glamour.TermRenderer, error) {
	key := fmt.Sprintf("%s:%d", style, width)
	rendererPoolMu.Lock()
	pool, ok := rendererPools[key]
	if !ok {
		pool = &sync.Pool{}
		rendererPools[key] = pool
	}
	rendererPoolMu.Unlock()

	// Try to reuse a pooled renderer; create a new one on miss.
	if r, _ := pool.Get().(*glamour.TermRenderer); r != nil {
		return r, nil
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, fmt.Errorf("could not create renderer for %s: %w", key, err)
	}
	return r, nil
}

func putRenderer(style string, width int, r *glamour.TermRenderer) {
	key := fmt.Sprintf("%s:%d", style, width)
	rendererPoolMu.Lock()
	pool := rendererPools[key]
	rendererPoolMu.Unlock()
	if pool != nil {
		pool.Put(r)
	}
}

// ─── Commands ────────────────────────────────────────────────────────────────

func glamourRender(markdown, style string, width int) string {
	pw := width - 4
	if pw < 20 {
		pw = 80
	}
	r, err := getRenderer(style, pw)
	if err != nil {
		return markdown
	}
	rendered, err := r.Render(markdown)
	putRenderer(style, pw, r)
	if err != nil {
		return markdown
	}
	return rendered
}

// clipMarkdown wraps clip text in a fenced block longer than any backtick run
// inside it, so the text is shown verbatim.
func clipMarkdown(content string) string {
	longest, run := 0, 0
	for _, r := range content {
		if r == '`' {
			run++
			longest = max(longest, run)
		} else {
			run = 0
		}
	}
	fence := strings.Repeat("`", max(3, longest+1))
	return fence + "\n" + strings.TrimRight(content, "\n") + "\n" + fence + "\n"
}

func renderClip(c service.Clip, style string, width int) tea.Cmd {
	return func() tea.Msg {
		return clipContentMsg{id: c.ID, content: glamourRender(clipMarkdown(c.Content), style, width)}
	}
}

func loadClips(svc service.History, q service.ClipQuery) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
		defer cancel()
		clips, err := svc.GetClips(ctx, q)
		if err != nil {
			return errMsg{fmt.Errorf("load clips: %w", err)}
		}
		return clipsLoadedMsg{clips: clips}
	}
}

func loadSettings(svc service.Service) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
		defer cancel()
		s, err := svc.GetSettings(ctx)
		if err != nil {
			return errMsg{fmt.Errorf("load settings: %w", err)}
		}
		return settingsLoadedMsg{settings: s}
	}
}

func pasteClip(svc service.History, c service.Clip) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
		defer cancel()
		if err := svc.PasteClip(ctx, c.ID); err != nil {
			return errMsg{fmt.Errorf("paste: %w", err)}
		}
		return pastedMsg{clip: c}
	}
}

func pinClip(svc service.History, c service.Clip) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
		defer cancel()
		if err := svc.PinClip(ctx, c.ID, !c.Pinned); err != nil {
			return errMsg{fmt.Errorf("pin: %w", err)}
		}
		if c.Pinned {
			return clipChangedMsg{message: "Unpinned"}
		}
		return clipChangedMsg{message: "Pinned"}
	}
}

func deleteClip(svc service.History, c service.Clip) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
		defer cancel()
		if err := svc.DeleteClip(ctx, c.ID); err != nil {
			return errMsg{fmt.Errorf("delete: %w", err)}
		}
		return clipChangedMsg{message: "Deleted"}
	}
}

// eventStream is the daemon's push channel (rpc.Subscription).
type eventStream interface {
	Next() (service.Event, error)
}

// watchEvents waits for the next daemon event. The model re-arms it after
// each delivery; a closed stream ends the loop.
func watchEvents(stream eventStream) tea.Cmd {
	return func() tea.Msg {
		ev, err := stream.Next()
		if err != nil {
			slog.Debug("event stream closed", "err", err)
			return nil
		}
		return daemonEventMsg{event: ev}
	}
}

// openSettings runs the settings surface in the foreground and reports back
// when it exits.
func openSettings(argv []string) tea.Cmd {
	c := exec.Command(argv[0], argv[1:]...)
	return tea.ExecProcess(c, func(err error) tea.Msg {
		if err != nil {
			return errMsg{fmt.Errorf("settings failed: %w", err)}
		}
		return settingsClosedMsg{}
	})
}

// ─── Settings surface commands ───────────────────────────────────────────────

func loadDraft(svc service.Service) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
		defer cancel()
		s, err := svc.GetSettings(ctx)
		if err != nil {
			return errMsg{fmt.Errorf("load settings: %w", err)}
		}
		return draftLoadedMsg{settings: s}
	}
}

func loadHistorySize(svc service.Service) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
		defer cancel()
		n, err := svc.GetClipboardHistorySize(ctx)
		if err != nil {
			return errMsg{fmt.Errorf("history size: %w", err)}
		}
		return historySizeMsg{size: n}
	}
}

func loadIgnoredApps(svc service.Service) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
		defer cancel()
		apps, err := svc.GetIgnoredApps(ctx)
		if err != nil {
			return errMsg{fmt.Errorf("ignored apps: %w", err)}
		}
		return ignoredAppsMsg{apps: apps}
	}
}

func commitDraft(svc service.Service, d surface.Draft) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*rpcTimeout)
		defer cancel()
		res, err := surface.Commit(ctx, svc, d)
		if err != nil {
			return commitFailedMsg{err: err}
		}
		return committedMsg{result: res}
	}
}

func addIgnoredApp(svc service.Service, name string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
		defer cancel()
		if err := svc.AddIgnoredApp(ctx, name); err != nil {
			return errMsg{fmt.Errorf("add %s: %w", name, err)}
		}
		return appAddedMsg{name: name}
	}
}

func removeIgnoredApp(svc service.Service, name string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
		defer cancel()
		if err := svc.RemoveIgnoredApp(ctx, name); err != nil {
			return errMsg{fmt.Errorf("remove %s: %w", name, err)}
		}
		return appRemovedMsg{name: name}
	}
}

// pickApp asks the daemon for a file dialog. Cancellation and failure both
// leave the input alone without telling the user.
func pickApp(svc service.Service) tea.Cmd {
	return func() tea.Msg {
		path, err := svc.PickFile(context.Background())
		if err != nil {
			if !errors.Is(err, service.ErrCancelled) {
				slog.Debug("file picker failed", "err", err)
			}
			return nil
		}
		name := surface.AppNameFromPath(path)
		if name == "" {
			return nil
		}
		return filePickedMsg{name: name}
	}
}

func removeDuplicates(svc service.Service) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
		defer cancel()
		n, err := svc.RemoveDuplicateClips(ctx)
		if err != nil {
			return errMsg{fmt.Errorf("remove duplicates: %w", err)}
		}
		return maintenanceDoneMsg{message: fmt.Sprintf("Removed %s", plural(n, "duplicate"))}
	}
}

// clearHistory runs one of the destructive clears and reports how many clips
// it removed.
func clearHistory(svc service.Service, all bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
		defer cancel()
		before, err := svc.GetClipboardHistorySize(ctx)
		if err != nil {
			return errMsg{fmt.Errorf("history size: %w", err)}
		}
		if all {
			err = svc.ClearAllClips(ctx)
		} else {
			err = svc.ClearClipboardHistory(ctx)
		}
		if err != nil {
			return errMsg{fmt.Errorf("clear: %w", err)}
		}
		after, err := svc.GetClipboardHistorySize(ctx)
		if err != nil {
			return errMsg{fmt.Errorf("history size: %w", err)}
		}
		removed := before - after
		if all {
			return maintenanceDoneMsg{message: fmt.Sprintf("Reset: deleted %s", plural(removed, "clip"))}
		}
		msg := fmt.Sprintf("Cleared %s", plural(removed, "clip"))
		if after > 0 {
			msg += fmt.Sprintf(", kept %d pinned", after)
		}
		return maintenanceDoneMsg{message: msg}
	}
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}
