package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/starford/fihrist/internal/model"
)

const entityColumns = `user_id, kind, id, title, arabic, stripped, translit, meanings, ref_string, doc, created_at, updated_at`

// UpsertEntity inserts or replaces an entity row. The caller is responsible
// for deriving Stripped from Arabic before the write.
func (db *DB) UpsertEntity(e *model.Entity) error {
	meaningsJSON, _ := json.Marshal(e.Meanings)
	doc := ""
	if len(e.Doc) > 0 {
		doc = string(e.Doc)
	}
	_, err := db.conn.Exec(`
		INSERT INTO entities (`+entityColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, kind, id) DO UPDATE SET
			title      = excluded.title,
			arabic     = excluded.arabic,
			stripped   = excluded.stripped,
			translit   = excluded.translit,
			meanings   = excluded.meanings,
			ref_string = excluded.ref_string,
			doc        = excluded.doc,
			updated_at = excluded.updated_at
	`, e.UserID, string(e.Kind), e.ID, e.Title, e.Arabic, e.Stripped, e.Translit,
		string(meaningsJSON), e.RefString, doc, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("store: upsert entity: %w", err)
	}
	return nil
}

// GetEntity returns one entity by its composite key, or nil when no row
// exists for this user.
func (db *DB) GetEntity(userID string, ref model.Ref) (*model.Entity, error) {
	row := db.conn.QueryRow(`
		SELECT `+entityColumns+` FROM entities
		WHERE user_id = ? AND kind = ? AND id = ?
	`, userID, string(ref.Kind), ref.ID)
	e, err := scanEntity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get entity: %w", err)
	}
	return e, nil
}

// ListEntities returns all entities of one kind owned by the user, ordered by
// update time descending.
func (db *DB) ListEntities(userID string, kind model.Kind) ([]model.Entity, error) {
	rows, err := db.conn.Query(`
		SELECT `+entityColumns+` FROM entities
		WHERE user_id = ? AND kind = ?
		ORDER BY updated_at DESC
	`, userID, string(kind))
	if err != nil {
		return nil, fmt.Errorf("store: list entities: %w", err)
	}
	defer rows.Close()

	var out []model.Entity
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// DeleteEntity removes the entity row only. Graph cleanup is the caller's
// concern (see graph.CascadeDelete).
func (db *DB) DeleteEntity(userID string, ref model.Ref) error {
	res, err := db.conn.Exec(`
		DELETE FROM entities WHERE user_id = ? AND kind = ? AND id = ?
	`, userID, string(ref.Kind), ref.ID)
	if err != nil {
		return fmt.Errorf("store: delete entity: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntity(r rowScanner) (*model.Entity, error) {
	var e model.Entity
	var kind, meaningsJSON, doc string
	if err := r.Scan(&e.UserID, &kind, &e.ID, &e.Title, &e.Arabic, &e.Stripped,
		&e.Translit, &meaningsJSON, &e.RefString, &doc, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	e.Kind = model.Kind(kind)
	_ = json.Unmarshal([]byte(meaningsJSON), &e.Meanings)
	if doc != "" {
		e.Doc = json.RawMessage(doc)
	}
	return &e, nil
}
