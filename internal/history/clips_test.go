package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakebf/clipdeck/internal/service"
)

// clock is a manually advanced time source.
type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func openTestDB(t *testing.T) (*DB, *clock) {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), FileName))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	c := &clock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	db.now = c.now
	return db, c
}

func contents(clips []service.Clip) []string {
	out := make([]string, len(clips))
	for i, c := range clips {
		out[i] = c.Content
	}
	return out
}

func TestAddAndList(t *testing.T) {
	db, c := openTestDB(t)
	ctx := context.Background()

	first, err := db.Add(ctx, "alpha", "firefox")
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, Hash("alpha"), first.Hash)
	assert.Equal(t, "firefox", first.SourceApp)
	c.advance(time.Second)
	_, err = db.Add(ctx, "beta", "")
	require.NoError(t, err)

	clips, err := db.List(ctx, service.ClipQuery{})
	require.NoError(t, err)
	assert.Equal(t, []string{"beta", "alpha"}, contents(clips))

	n, err := db.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestAddRejectsEmpty(t *testing.T) {
	db, _ := openTestDB(t)
	_, err := db.Add(context.Background(), "", "")
	assert.Error(t, err)
}

func TestAddDeduplicates(t *testing.T) {
	db, c := openTestDB(t)
	ctx := context.Background()

	a, err := db.Add(ctx, "same", "")
	require.NoError(t, err)
	c.advance(time.Second)
	_, err = db.Add(ctx, "other", "")
	require.NoError(t, err)
	c.advance(time.Second)
	again, err := db.Add(ctx, "same", "")
	require.NoError(t, err)

	assert.Equal(t, a.ID, again.ID)
	clips, err := db.List(ctx, service.ClipQuery{})
	require.NoError(t, err)
	assert.Equal(t, []string{"same", "other"}, contents(clips))
}

func TestAddRevivesDeleted(t *testing.T) {
	db, c := openTestDB(t)
	ctx := context.Background()

	a, err := db.Add(ctx, "gone", "")
	require.NoError(t, err)
	require.NoError(t, db.Delete(ctx, a.ID))
	_, err = db.Get(ctx, a.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)

	c.advance(time.Second)
	back, err := db.Add(ctx, "gone", "")
	require.NoError(t, err)
	assert.Equal(t, a.ID, back.ID)
	_, err = db.Get(ctx, a.ID)
	assert.NoError(t, err)
}

func TestListFilters(t *testing.T) {
	db, c := openTestDB(t)
	ctx := context.Background()

	for _, s := range []string{"100% done", "hello world", "say hello", "snake_case"} {
		_, err := db.Add(ctx, s, "")
		require.NoError(t, err)
		c.advance(time.Second)
	}
	hello, err := db.List(ctx, service.ClipQuery{Search: "hello"})
	require.NoError(t, err)
	assert.Equal(t, []string{"say hello", "hello world"}, contents(hello))

	pct, err := db.List(ctx, service.ClipQuery{Search: "%"})
	require.NoError(t, err)
	assert.Equal(t, []string{"100% done"}, contents(pct))

	under, err := db.List(ctx, service.ClipQuery{Search: "_"})
	require.NoError(t, err)
	assert.Equal(t, []string{"snake_case"}, contents(under))

	page, err := db.List(ctx, service.ClipQuery{Limit: 2, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"say hello", "hello world"}, contents(page))

	require.NoError(t, db.SetPinned(ctx, hello[1].ID, true))
	pinned, err := db.List(ctx, service.ClipQuery{PinnedOnly: true})
	require.NoError(t, err)
	require.Len(t, pinned, 1)
	assert.True(t, pinned[0].Pinned)
}

func TestTouchMovesToTop(t *testing.T) {
	db, c := openTestDB(t)
	ctx := context.Background()

	a, err := db.Add(ctx, "a", "")
	require.NoError(t, err)
	c.advance(time.Second)
	_, err = db.Add(ctx, "b", "")
	require.NoError(t, err)
	c.advance(time.Second)
	require.NoError(t, db.Touch(ctx, a.ID))

	clips, err := db.List(ctx, service.ClipQuery{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, contents(clips))

	assert.ErrorIs(t, db.Touch(ctx, "missing"), service.ErrNotFound)
}

func TestClearHistoryKeepsPinned(t *testing.T) {
	db, _ := openTestDB(t)
	ctx := context.Background()

	keep, err := db.Add(ctx, "keep", "")
	require.NoError(t, err)
	require.NoError(t, db.SetPinned(ctx, keep.ID, true))
	_, err = db.Add(ctx, "drop1", "")
	require.NoError(t, err)
	_, err = db.Add(ctx, "drop2", "")
	require.NoError(t, err)

	n, err := db.ClearHistory(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	count, err := db.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, err = db.ClearAll(ctx)
	require.NoError(t, err)
	count, err = db.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRemoveDuplicates(t *testing.T) {
	db, _ := openTestDB(t)
	ctx := context.Background()

	// Add deduplicates, so seed duplicate rows directly.
	insert := func(uuid, content string, pinned bool) {
		_, err := db.conn.Exec(`
			INSERT INTO clips (uuid, content, text_preview, content_hash, is_pinned, created_at, last_accessed)
			VALUES (?, ?, ?, ?, ?, 0, 0)`, uuid, content, content, Hash(content), pinned)
		require.NoError(t, err)
	}
	insert("a1", "a", false)
	insert("a2", "a", false)
	insert("a3", "a", false)
	insert("b1", "b", true)
	insert("b2", "b", false)
	insert("c1", "c", false)

	n, err := db.RemoveDuplicates(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = db.Get(ctx, "a3")
	assert.NoError(t, err, "newest copy survives")
	_, err = db.Get(ctx, "b1")
	assert.NoError(t, err, "pinned copy survives")
	_, err = db.Get(ctx, "b2")
	assert.ErrorIs(t, err, service.ErrNotFound)

	n, err = db.RemoveDuplicates(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPruneNeverTouchesPinned(t *testing.T) {
	db, c := openTestDB(t)
	ctx := context.Background()

	old, err := db.Add(ctx, "old pinned", "")
	require.NoError(t, err)
	require.NoError(t, db.SetPinned(ctx, old.ID, true))
	_, err = db.Add(ctx, "old", "")
	require.NoError(t, err)
	c.advance(10 * 24 * time.Hour)
	for _, s := range []string{"n1", "n2", "n3"} {
		_, err := db.Add(ctx, s, "")
		require.NoError(t, err)
		c.advance(time.Minute)
	}

	n, err := db.Prune(ctx, 0, 7)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = db.Prune(ctx, 2, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	clips, err := db.List(ctx, service.ClipQuery{})
	require.NoError(t, err)
	assert.Equal(t, []string{"n3", "old pinned"}, contents(clips))
}
