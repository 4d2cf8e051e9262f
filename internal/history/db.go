// Package history stores clipboard history in SQLite.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// FileName is the database's base name inside the data dir.
const FileName = "clipdeck.db"

type DB struct {
	conn *sql.DB
	now  func() time.Time
}

// Open opens the database at path and initializes the schema.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer at a time; SQLite serializes anyway and this avoids SQLITE_BUSY.
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	db := &DB{conn: conn, now: time.Now}
	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS clips (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		uuid TEXT NOT NULL UNIQUE,
		content TEXT NOT NULL,
		text_preview TEXT NOT NULL,
		content_hash TEXT NOT NULL,
		is_pinned INTEGER NOT NULL DEFAULT 0,
		is_deleted INTEGER NOT NULL DEFAULT 0,
		source_app TEXT NOT NULL DEFAULT '',

		-- unix milliseconds
		created_at INTEGER NOT NULL,
		last_accessed INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_clips_hash ON clips(content_hash);
	CREATE INDEX IF NOT EXISTS idx_clips_last_accessed ON clips(last_accessed);
	CREATE INDEX IF NOT EXISTS idx_clips_pinned ON clips(is_pinned);
	`
	_, err := db.conn.Exec(schema)
	return err
}
