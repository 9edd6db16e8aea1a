package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/starford/fihrist/internal/model"
)

// InsertCapture persists a verse capture and returns its row id.
func (db *DB) InsertCapture(c *model.VerseCapture) (int64, error) {
	res, err := db.conn.Exec(`
		INSERT INTO verse_captures (user_id, surah, ayah_start, ayah_end, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, c.UserID, c.Surah, c.AyahStart, c.AyahEnd, c.Note, c.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("store: insert capture: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("store: insert capture id: %w", err)
	}
	return id, nil
}

// GetCapture returns one capture by id, or nil when it does not exist for
// this user.
func (db *DB) GetCapture(userID string, id int64) (*model.VerseCapture, error) {
	row := db.conn.QueryRow(`
		SELECT id, user_id, surah, ayah_start, ayah_end, note, created_at
		FROM verse_captures WHERE user_id = ? AND id = ?
	`, userID, id)
	var c model.VerseCapture
	err := row.Scan(&c.ID, &c.UserID, &c.Surah, &c.AyahStart, &c.AyahEnd, &c.Note, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get capture: %w", err)
	}
	return &c, nil
}

// CapturesForSurah returns all captures the user saved for one surah via the
// (user_id, surah) equality index.
func (db *DB) CapturesForSurah(userID string, surah int) ([]model.VerseCapture, error) {
	rows, err := db.conn.Query(`
		SELECT id, user_id, surah, ayah_start, ayah_end, note, created_at
		FROM verse_captures WHERE user_id = ? AND surah = ?
		ORDER BY ayah_start, id
	`, userID, surah)
	if err != nil {
		return nil, fmt.Errorf("store: captures for surah: %w", err)
	}
	defer rows.Close()

	var out []model.VerseCapture
	for rows.Next() {
		var c model.VerseCapture
		if err := rows.Scan(&c.ID, &c.UserID, &c.Surah, &c.AyahStart, &c.AyahEnd, &c.Note, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// DeleteCapture removes one capture by id.
func (db *DB) DeleteCapture(userID string, id int64) error {
	res, err := db.conn.Exec(`DELETE FROM verse_captures WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("store: delete capture: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
