package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakebf/clipdeck/internal/service"
)

type fakeClipboard struct {
	mu   sync.Mutex
	text string
	err  error
}

func (f *fakeClipboard) set(s string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.text = s
}

func (f *fakeClipboard) read() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.text, f.err
}

type sinkRecorder struct {
	mu    sync.Mutex
	texts []string
	srcs  []string
	err   error
}

func (s *sinkRecorder) sink(_ context.Context, text, source string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.texts = append(s.texts, text)
	s.srcs = append(s.srcs, source)
	return s.err
}

func (s *sinkRecorder) got() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.texts...)
}

func TestPollStoresChangesOnly(t *testing.T) {
	cb := &fakeClipboard{}
	rec := &sinkRecorder{}
	m := &Monitor{Read: cb.read, Foreground: func() string { return "editor" }, Sink: rec.sink}
	ctx := context.Background()

	m.Poll(ctx)
	cb.set("one")
	m.Poll(ctx)
	m.Poll(ctx)
	cb.set("two")
	m.Poll(ctx)
	cb.set("one")
	m.Poll(ctx)

	assert.Equal(t, []string{"one", "two", "one"}, rec.got())
	assert.Equal(t, []string{"editor", "editor", "editor"}, rec.srcs)
}

func TestPollSkipsReadErrorsAndSinkErrors(t *testing.T) {
	cb := &fakeClipboard{err: errors.New("no display")}
	rec := &sinkRecorder{err: service.ErrIgnoredSource}
	m := &Monitor{Read: cb.read, Sink: rec.sink}
	ctx := context.Background()

	cb.set("secret")
	m.Poll(ctx)
	assert.Empty(t, rec.got())

	cb.mu.Lock()
	cb.err = nil
	cb.mu.Unlock()
	m.Poll(ctx)
	m.Poll(ctx)
	assert.Equal(t, []string{"secret"}, rec.got(), "a rejected clip is not offered again")
}

func TestRunSeedsWithCurrentClipboard(t *testing.T) {
	cb := &fakeClipboard{text: "before start"}
	rec := &sinkRecorder{}
	m := &Monitor{Interval: 5 * time.Millisecond, Read: cb.read, Sink: rec.sink}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cb.set("after start")
	require.Eventually(t, func() bool { return len(rec.got()) == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, []string{"after start"}, rec.got())
}
