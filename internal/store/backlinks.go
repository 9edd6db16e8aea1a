package store

import (
	"fmt"

	"github.com/starford/fihrist/internal/model"
)

// ReplaceBacklinks swaps the complete backlink set for one note in a single
// transaction: delete old rows, bulk insert the new set. A failure leaves the
// old set intact.
func (db *DB) ReplaceBacklinks(userID, noteID string, links []model.Backlink) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if _, err := tx.Exec(`DELETE FROM backlinks WHERE user_id = ? AND note_id = ?`, userID, noteID); err != nil {
		return fmt.Errorf("store: clear backlinks: %w", err)
	}
	if len(links) > 0 {
		stmt, err := tx.Prepare(`
			INSERT OR IGNORE INTO backlinks (user_id, note_id, target_kind, target_id, display_text)
			VALUES (?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("store: prepare backlink insert: %w", err)
		}
		defer stmt.Close()
		for _, bl := range links {
			if _, err := stmt.Exec(userID, noteID, string(bl.Target.Kind), bl.Target.ID, bl.DisplayText); err != nil {
				return fmt.Errorf("store: insert backlink: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeleteBacklinksForNote removes every backlink owned by the note.
func (db *DB) DeleteBacklinksForNote(userID, noteID string) error {
	_, err := db.conn.Exec(`DELETE FROM backlinks WHERE user_id = ? AND note_id = ?`, userID, noteID)
	if err != nil {
		return fmt.Errorf("store: delete backlinks for note: %w", err)
	}
	return nil
}

// DeleteBacklinksForTarget removes every backlink pointing at the entity.
func (db *DB) DeleteBacklinksForTarget(userID string, target model.Ref) error {
	_, err := db.conn.Exec(`
		DELETE FROM backlinks WHERE user_id = ? AND target_kind = ? AND target_id = ?
	`, userID, string(target.Kind), target.ID)
	if err != nil {
		return fmt.Errorf("store: delete backlinks for target: %w", err)
	}
	return nil
}

// BacklinksFor returns every backlink pointing at the entity.
func (db *DB) BacklinksFor(userID string, target model.Ref) ([]model.Backlink, error) {
	rows, err := db.conn.Query(`
		SELECT user_id, note_id, target_kind, target_id, display_text
		FROM backlinks WHERE user_id = ? AND target_kind = ? AND target_id = ?
		ORDER BY note_id
	`, userID, string(target.Kind), target.ID)
	if err != nil {
		return nil, fmt.Errorf("store: backlinks for: %w", err)
	}
	defer rows.Close()

	var out []model.Backlink
	for rows.Next() {
		var bl model.Backlink
		var kind string
		if err := rows.Scan(&bl.UserID, &bl.NoteID, &kind, &bl.Target.ID, &bl.DisplayText); err != nil {
			return nil, err
		}
		bl.Target.Kind = model.Kind(kind)
		out = append(out, bl)
	}
	return out, rows.Err()
}

// BacklinksCount returns the number of backlinks pointing at the entity.
func (db *DB) BacklinksCount(userID string, target model.Ref) (int, error) {
	var n int
	err := db.conn.QueryRow(`
		SELECT count(*) FROM backlinks WHERE user_id = ? AND target_kind = ? AND target_id = ?
	`, userID, string(target.Kind), target.ID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("store: backlinks count: %w", err)
	}
	return n, nil
}

// BacklinksCountMany returns counts for a batch of targets in one query,
// keyed by "kind:id". Targets with no backlinks are present with count 0.
func (db *DB) BacklinksCountMany(userID string, targets []model.Ref) (map[string]int, error) {
	out := make(map[string]int, len(targets))
	if len(targets) == 0 {
		return out, nil
	}

	args := make([]any, 0, 1+2*len(targets))
	args = append(args, userID)
	placeholders := ""
	for i, t := range targets {
		out[t.Key()] = 0
		if i > 0 {
			placeholders += ", "
		}
		placeholders += "(?, ?)"
		args = append(args, string(t.Kind), t.ID)
	}

	rows, err := db.conn.Query(`
		SELECT target_kind, target_id, count(*)
		FROM backlinks
		WHERE user_id = ? AND (target_kind, target_id) IN (VALUES `+placeholders+`)
		GROUP BY target_kind, target_id
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("store: backlinks count many: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var kind, id string
		var n int
		if err := rows.Scan(&kind, &id, &n); err != nil {
			return nil, err
		}
		out[model.Ref{Kind: model.Kind(kind), ID: id}.Key()] = n
	}
	return out, rows.Err()
}
