package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jakebf/clipdeck/internal/history"
	"github.com/jakebf/clipdeck/internal/service"
	"github.com/jakebf/clipdeck/internal/shortcut"
)

//go:embed demo_clips.json
var demoClipsJSON []byte

type demoClip struct {
	Content string `json:"content"`
	Source  string `json:"source"`
	Minutes int    `json:"minutes"`
	Pinned  bool   `json:"pinned"`
}

func demoClips() []service.Clip {
	var raw []demoClip
	if err := json.Unmarshal(demoClipsJSON, &raw); err != nil {
		// Embedded data is compile-time constant; panic is appropriate.
		panic("demo_clips.json: " + err.Error())
	}
	now := time.Now()
	clips := make([]service.Clip, len(raw))
	for i, d := range raw {
		clips[i] = newClip(d.Content, d.Source, now.Add(-time.Duration(d.Minutes)*time.Minute))
		clips[i].Pinned = d.Pinned
	}
	return clips
}

func newClip(content, source string, at time.Time) service.Clip {
	return service.Clip{
		ID:        uuid.NewString(),
		Content:   content,
		Preview:   service.MakePreview(content),
		Hash:      history.Hash(content),
		SourceApp: source,
		CreatedAt: at,
	}
}

// ─── memService ──────────────────────────────────────────────────────────────

// memService implements service.Backend in memory (no daemon, no disk I/O).
// Clips are kept most recently used first.
type memService struct {
	mu        sync.Mutex
	settings  service.Settings
	clips     []service.Clip
	apps      []string
	shortcuts *shortcut.Registry
	now       func() time.Time

	// pickPath is returned by PickFile; empty means the dialog is dismissed.
	pickPath string
}

var _ service.Backend = (*memService)(nil)

func newMemService(clips []service.Clip) *memService {
	s := &memService{
		settings:  service.DefaultSettings(),
		clips:     slices.Clone(clips),
		apps:      []string{"1Password", "KeePassXC"},
		shortcuts: shortcut.NewRegistry(nil, shortcut.DefaultReserved),
		now:       time.Now,
		pickPath:  "/usr/bin/bitwarden",
	}
	slices.SortStableFunc(s.clips, func(a, b service.Clip) int { return b.CreatedAt.Compare(a.CreatedAt) })
	_ = s.shortcuts.Register(s.settings.Hotkey)
	return s
}

func (s *memService) GetSettings(context.Context) (service.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings, nil
}

func (s *memService) SaveSettings(_ context.Context, set service.Settings) error {
	if err := set.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = set
	s.pruneLocked()
	return nil
}

func (s *memService) RegisterGlobalShortcut(_ context.Context, hotkey string) error {
	return s.shortcuts.Register(hotkey)
}

func (s *memService) GetClipboardHistorySize(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clips), nil
}

func (s *memService) ClearClipboardHistory(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clips = slices.DeleteFunc(s.clips, func(c service.Clip) bool { return !c.Pinned })
	return nil
}

func (s *memService) ClearAllClips(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clips = nil
	return nil
}

// RemoveDuplicateClips keeps the most recent clip for each content hash,
// or the pinned one when any copy is pinned.
func (s *memService) RemoveDuplicateClips(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keep := make(map[string]string)
	for _, c := range s.clips {
		if id, ok := keep[c.Hash]; !ok || (c.Pinned && !s.pinnedLocked(id)) {
			keep[c.Hash] = c.ID
		}
	}
	before := len(s.clips)
	s.clips = slices.DeleteFunc(s.clips, func(c service.Clip) bool { return keep[c.Hash] != c.ID })
	return before - len(s.clips), nil
}

func (s *memService) pinnedLocked(id string) bool {
	i := s.indexLocked(id)
	return i >= 0 && s.clips[i].Pinned
}

func (s *memService) GetIgnoredApps(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.apps), nil
}

func (s *memService) AddIgnoredApp(_ context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return service.ErrInvalidSettings
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, found := slices.BinarySearch(s.apps, name); !found {
		s.apps = slices.Insert(s.apps, i, name)
	}
	return nil
}

func (s *memService) RemoveIgnoredApp(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, found := slices.BinarySearch(s.apps, name); found {
		s.apps = slices.Delete(s.apps, i, i+1)
	}
	return nil
}

func (s *memService) PickFile(context.Context) (string, error) {
	if s.pickPath == "" {
		return "", service.ErrCancelled
	}
	return s.pickPath, nil
}

func (s *memService) GetClips(_ context.Context, q service.ClipQuery) ([]service.Clip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	search := strings.ToLower(strings.TrimSpace(q.Search))
	var out []service.Clip
	for _, c := range s.clips {
		if q.PinnedOnly && !c.Pinned {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(c.Content), search) {
			continue
		}
		out = append(out, c)
	}
	if q.Offset > 0 {
		out = out[min(q.Offset, len(out)):]
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (s *memService) AddClip(_ context.Context, text, source string) (service.Clip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ignoredLocked(source) {
		return service.Clip{}, service.ErrIgnoredSource
	}
	hash := history.Hash(text)
	for i, c := range s.clips {
		if c.Hash == hash && !c.Pinned {
			c.CreatedAt = s.now()
			c.SourceApp = source
			s.clips = slices.Delete(s.clips, i, i+1)
			s.clips = slices.Insert(s.clips, 0, c)
			return c, nil
		}
	}
	c := newClip(text, source, s.now())
	s.clips = slices.Insert(s.clips, 0, c)
	s.pruneLocked()
	return c, nil
}

func (s *memService) ignoredLocked(source string) bool {
	if source == "" {
		return false
	}
	source = strings.ToLower(source)
	for _, name := range s.apps {
		if strings.Contains(source, strings.ToLower(name)) {
			return true
		}
	}
	return false
}

// pruneLocked drops the oldest unpinned clips beyond max_items. Pinned clips
// count toward the cap first.
func (s *memService) pruneLocked() {
	n := 0
	for _, c := range s.clips {
		if c.Pinned {
			n++
		}
	}
	s.clips = slices.DeleteFunc(s.clips, func(c service.Clip) bool {
		if c.Pinned {
			return false
		}
		n++
		return n > s.settings.MaxItems
	})
}

func (s *memService) PasteClip(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return service.ErrNotFound
	}
	c := s.clips[i]
	c.CreatedAt = s.now()
	s.clips = slices.Delete(s.clips, i, i+1)
	s.clips = slices.Insert(s.clips, 0, c)
	return nil
}

func (s *memService) PinClip(_ context.Context, id string, pinned bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return service.ErrNotFound
	}
	s.clips[i].Pinned = pinned
	return nil
}

func (s *memService) DeleteClip(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return service.ErrNotFound
	}
	s.clips = slices.Delete(s.clips, i, i+1)
	return nil
}

func (s *memService) indexLocked(id string) int {
	return slices.IndexFunc(s.clips, func(c service.Clip) bool { return c.ID == id })
}
