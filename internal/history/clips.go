package history

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jakebf/clipdeck/internal/service"
)

const clipColumns = `uuid, content, text_preview, content_hash, is_pinned, source_app, created_at`

// Hash returns the content hash used for deduplication.
func Hash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

func scanClip(sc interface{ Scan(...any) error }) (service.Clip, error) {
	var c service.Clip
	var created int64
	if err := sc.Scan(&c.ID, &c.Content, &c.Preview, &c.Hash, &c.Pinned, &c.SourceApp, &created); err != nil {
		return service.Clip{}, err
	}
	c.CreatedAt = time.UnixMilli(created)
	return c, nil
}

// Add stores content as the most recent clip. Identical content already in
// the history is revived and moved to the top instead of duplicated.
func (db *DB) Add(ctx context.Context, content, source string) (service.Clip, error) {
	if content == "" {
		return service.Clip{}, errors.New("empty clip")
	}
	hash := Hash(content)
	now := db.now().UnixMilli()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return service.Clip{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Prefer a pinned match, then the newest unpinned one.
	var rowID int64
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM clips
		WHERE content_hash = ?
		ORDER BY is_pinned DESC, id DESC
		LIMIT 1
	`, hash).Scan(&rowID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx, `
			INSERT INTO clips (uuid, content, text_preview, content_hash, source_app, created_at, last_accessed)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, uuid.NewString(), content, service.MakePreview(content), hash, source, now, now)
		if err != nil {
			return service.Clip{}, fmt.Errorf("failed to save clip: %w", err)
		}
		err = tx.QueryRowContext(ctx, `SELECT last_insert_rowid()`).Scan(&rowID)
		if err != nil {
			return service.Clip{}, fmt.Errorf("failed to get last insert ID: %w", err)
		}
	case err != nil:
		return service.Clip{}, fmt.Errorf("failed to look up clip: %w", err)
	default:
		_, err = tx.ExecContext(ctx, `
			UPDATE clips SET is_deleted = 0, last_accessed = ?, source_app = ?
			WHERE id = ?
		`, now, source, rowID)
		if err != nil {
			return service.Clip{}, fmt.Errorf("failed to revive clip: %w", err)
		}
	}

	clip, err := scanClip(tx.QueryRowContext(ctx, `SELECT `+clipColumns+` FROM clips WHERE id = ?`, rowID))
	if err != nil {
		return service.Clip{}, fmt.Errorf("failed to read clip: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return service.Clip{}, fmt.Errorf("failed to commit clip: %w", err)
	}
	return clip, nil
}

// Get returns the clip with the given id.
func (db *DB) Get(ctx context.Context, id string) (service.Clip, error) {
	clip, err := scanClip(db.conn.QueryRowContext(ctx,
		`SELECT `+clipColumns+` FROM clips WHERE uuid = ? AND is_deleted = 0`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return service.Clip{}, fmt.Errorf("clip %s: %w", id, service.ErrNotFound)
	}
	if err != nil {
		return service.Clip{}, fmt.Errorf("failed to get clip: %w", err)
	}
	return clip, nil
}

// List returns clips most recently used first.
func (db *DB) List(ctx context.Context, q service.ClipQuery) ([]service.Clip, error) {
	var where []string
	var args []any
	where = append(where, "is_deleted = 0")
	if q.PinnedOnly {
		where = append(where, "is_pinned = 1")
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		where = append(where, `content LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(s)+"%")
	}
	limit := q.Limit
	if limit <= 0 {
		limit = -1
	}
	args = append(args, limit, max(q.Offset, 0))

	query := `SELECT ` + clipColumns + ` FROM clips
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY last_accessed DESC, id DESC
		LIMIT ? OFFSET ?`
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query clips: %w", err)
	}
	defer rows.Close()

	var clips []service.Clip
	for rows.Next() {
		c, err := scanClip(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan clip: %w", err)
		}
		clips = append(clips, c)
	}
	return clips, rows.Err()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// Touch marks a clip as just used, moving it to the top of the history.
func (db *DB) Touch(ctx context.Context, id string) error {
	return db.updateOne(ctx, `UPDATE clips SET last_accessed = ? WHERE uuid = ? AND is_deleted = 0`,
		id, db.now().UnixMilli(), id)
}

// SetPinned pins or unpins a clip. Pinned clips survive clears and pruning.
func (db *DB) SetPinned(ctx context.Context, id string, pinned bool) error {
	return db.updateOne(ctx, `UPDATE clips SET is_pinned = ? WHERE uuid = ? AND is_deleted = 0`,
		id, pinned, id)
}

// Delete hides a clip. The row is purged by the next clear or prune.
func (db *DB) Delete(ctx context.Context, id string) error {
	return db.updateOne(ctx, `UPDATE clips SET is_deleted = 1, is_pinned = 0 WHERE uuid = ? AND is_deleted = 0`,
		id, id)
}

func (db *DB) updateOne(ctx context.Context, query, id string, args ...any) error {
	result, err := db.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update clip: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("clip %s: %w", id, service.ErrNotFound)
	}
	return nil
}

// Count returns the number of visible clips.
func (db *DB) Count(ctx context.Context) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM clips WHERE is_deleted = 0`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count clips: %w", err)
	}
	return n, nil
}

// ClearHistory deletes every unpinned clip. It returns the number of rows
// removed.
func (db *DB) ClearHistory(ctx context.Context) (int64, error) {
	return db.exec(ctx, `DELETE FROM clips WHERE is_pinned = 0 OR is_deleted = 1`)
}

// ClearAll deletes every clip, pinned or not.
func (db *DB) ClearAll(ctx context.Context) (int64, error) {
	return db.exec(ctx, `DELETE FROM clips`)
}

// RemoveDuplicates deletes unpinned clips whose content also appears in a
// pinned clip or a more recent clip. It returns the number removed.
func (db *DB) RemoveDuplicates(ctx context.Context) (int, error) {
	n, err := db.exec(ctx, `
		DELETE FROM clips
		WHERE is_pinned = 0 AND is_deleted = 0 AND EXISTS (
			SELECT 1 FROM clips AS other
			WHERE other.content_hash = clips.content_hash
				AND other.id != clips.id
				AND other.is_deleted = 0
				AND (other.is_pinned = 1 OR other.id > clips.id)
		)
	`)
	return int(n), err
}

// Prune enforces retention. Pinned clips count toward maxItems first and
// unpinned clips beyond the cap are deleted oldest first. When days > 0,
// unpinned clips unused for longer than days are deleted too. Pinned clips
// are never pruned.
func (db *DB) Prune(ctx context.Context, maxItems, days int) (int64, error) {
	var total int64
	if maxItems > 0 {
		n, err := db.exec(ctx, `
			DELETE FROM clips
			WHERE is_pinned = 0 AND id NOT IN (
				SELECT id FROM clips WHERE is_deleted = 0
				ORDER BY is_pinned DESC, last_accessed DESC, id DESC
				LIMIT ?
			)
		`, maxItems)
		if err != nil {
			return total, err
		}
		total += n
	}
	if days > 0 {
		cutoff := db.now().Add(-time.Duration(days) * 24 * time.Hour).UnixMilli()
		n, err := db.exec(ctx, `DELETE FROM clips WHERE is_pinned = 0 AND last_accessed < ?`, cutoff)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func (db *DB) exec(ctx context.Context, query string, args ...any) (int64, error) {
	result, err := db.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete clips: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}
