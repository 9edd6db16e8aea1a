// Package store provides the SQLite-backed document store for study entities,
// cross-reference edges, backlinks, and verse captures. Every table is keyed
// by user so ownership filtering happens at the query boundary.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS entities (
	user_id    TEXT NOT NULL,
	kind       TEXT NOT NULL,
	id         TEXT NOT NULL,
	title      TEXT NOT NULL DEFAULT '',
	arabic     TEXT NOT NULL DEFAULT '',
	stripped   TEXT NOT NULL DEFAULT '',
	translit   TEXT NOT NULL DEFAULT '',
	meanings   TEXT NOT NULL DEFAULT '[]',
	ref_string TEXT NOT NULL DEFAULT '',
	doc        TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (user_id, kind, id)
);

CREATE TABLE IF NOT EXISTS entity_links (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id      TEXT NOT NULL,
	source_kind  TEXT NOT NULL,
	source_id    TEXT NOT NULL,
	target_kind  TEXT NOT NULL,
	target_id    TEXT NOT NULL,
	relationship TEXT NOT NULL DEFAULT 'related',
	note         TEXT NOT NULL DEFAULT '',
	created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(user_id, source_kind, source_id, target_kind, target_id)
);

CREATE INDEX IF NOT EXISTS idx_links_source ON entity_links(user_id, source_kind, source_id);
CREATE INDEX IF NOT EXISTS idx_links_target ON entity_links(user_id, target_kind, target_id);

CREATE TABLE IF NOT EXISTS backlinks (
	user_id      TEXT NOT NULL,
	note_id      TEXT NOT NULL,
	target_kind  TEXT NOT NULL,
	target_id    TEXT NOT NULL,
	display_text TEXT NOT NULL DEFAULT '',
	UNIQUE(user_id, note_id, target_kind, target_id)
);

CREATE INDEX IF NOT EXISTS idx_backlinks_note ON backlinks(user_id, note_id);
CREATE INDEX IF NOT EXISTS idx_backlinks_target ON backlinks(user_id, target_kind, target_id);

CREATE TABLE IF NOT EXISTS verse_captures (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id    TEXT NOT NULL,
	surah      INTEGER NOT NULL,
	ayah_start INTEGER NOT NULL,
	ayah_end   INTEGER NOT NULL DEFAULT 0,
	note       TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_captures_surah ON verse_captures(user_id, surah);
`

// DB wraps a sql.DB with store-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
