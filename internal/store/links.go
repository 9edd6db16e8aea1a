package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/starford/fihrist/internal/model"
)

// LinkExists reports whether a directed edge for the ordered (source, target)
// pair already exists, checked through the source-side index.
func (db *DB) LinkExists(userID string, source, target model.Ref) (bool, error) {
	var one int
	err := db.conn.QueryRow(`
		SELECT 1 FROM entity_links
		WHERE user_id = ? AND source_kind = ? AND source_id = ?
		  AND target_kind = ? AND target_id = ?
	`, userID, string(source.Kind), source.ID, string(target.Kind), target.ID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("store: link exists: %w", err)
	}
	return true, nil
}

// InsertLink persists a new edge and returns its row id.
func (db *DB) InsertLink(l *model.EntityLink) (int64, error) {
	res, err := db.conn.Exec(`
		INSERT INTO entity_links (user_id, source_kind, source_id, target_kind, target_id, relationship, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, l.UserID, string(l.Source.Kind), l.Source.ID, string(l.Target.Kind), l.Target.ID,
		string(l.Relationship), l.Note, l.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("store: insert link: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("store: insert link id: %w", err)
	}
	return id, nil
}

// GetLink returns one edge by id, or nil when it does not exist for this user.
func (db *DB) GetLink(userID string, id int64) (*model.EntityLink, error) {
	row := db.conn.QueryRow(`
		SELECT id, user_id, source_kind, source_id, target_kind, target_id, relationship, note, created_at
		FROM entity_links WHERE user_id = ? AND id = ?
	`, userID, id)
	l, err := scanLink(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get link: %w", err)
	}
	return l, nil
}

// UpdateLink patches relationship and/or note on an existing edge.
func (db *DB) UpdateLink(userID string, id int64, relationship model.Relationship, note *string) error {
	l, err := db.GetLink(userID, id)
	if err != nil {
		return err
	}
	if l == nil {
		return sql.ErrNoRows
	}
	if relationship != "" {
		l.Relationship = relationship
	}
	if note != nil {
		l.Note = *note
	}
	_, err = db.conn.Exec(`
		UPDATE entity_links SET relationship = ?, note = ? WHERE user_id = ? AND id = ?
	`, string(l.Relationship), l.Note, userID, id)
	if err != nil {
		return fmt.Errorf("store: update link: %w", err)
	}
	return nil
}

// DeleteLink removes one edge by id.
func (db *DB) DeleteLink(userID string, id int64) error {
	res, err := db.conn.Exec(`DELETE FROM entity_links WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("store: delete link: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteLinksForEntity removes every edge where the entity appears as either
// source or target. Used by the entity-deletion cascade.
func (db *DB) DeleteLinksForEntity(userID string, ref model.Ref) error {
	_, err := db.conn.Exec(`
		DELETE FROM entity_links
		WHERE user_id = ?
		  AND ((source_kind = ? AND source_id = ?) OR (target_kind = ? AND target_id = ?))
	`, userID, string(ref.Kind), ref.ID, string(ref.Kind), ref.ID)
	if err != nil {
		return fmt.Errorf("store: delete links for entity: %w", err)
	}
	return nil
}

// LinksFrom returns outgoing edges, each hydrated with the target entity's
// current data. Edges to vanished entities carry a nil Entity.
func (db *DB) LinksFrom(userID string, source model.Ref) ([]model.HydratedLink, error) {
	return db.hydratedLinks(userID, `
		WHERE l.user_id = ? AND l.source_kind = ? AND l.source_id = ?`,
		"l.target_kind", "l.target_id", userID, string(source.Kind), source.ID)
}

// LinksTo returns incoming edges, each hydrated with the source entity's
// current data.
func (db *DB) LinksTo(userID string, target model.Ref) ([]model.HydratedLink, error) {
	return db.hydratedLinks(userID, `
		WHERE l.user_id = ? AND l.target_kind = ? AND l.target_id = ?`,
		"l.source_kind", "l.source_id", userID, string(target.Kind), target.ID)
}

// hydratedLinks joins edges against the entity registry on the far side of
// the edge (farKind/farID name the columns to join on).
func (db *DB) hydratedLinks(userID, where, farKind, farID string, args ...any) ([]model.HydratedLink, error) {
	rows, err := db.conn.Query(`
		SELECT l.id, l.user_id, l.source_kind, l.source_id, l.target_kind, l.target_id,
		       l.relationship, l.note, l.created_at,
		       e.kind, e.id, e.title, e.arabic, e.translit, e.ref_string
		FROM entity_links l
		LEFT JOIN entities e
		  ON e.user_id = l.user_id AND e.kind = `+farKind+` AND e.id = `+farID+`
		`+where+`
		ORDER BY l.created_at DESC, l.id DESC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("store: hydrated links: %w", err)
	}
	defer rows.Close()

	var out []model.HydratedLink
	for rows.Next() {
		var h model.HydratedLink
		var srcKind, tgtKind string
		var eKind, eID, eTitle, eArabic, eTranslit, eRefString sql.NullString
		if err := rows.Scan(&h.ID, &h.UserID, &srcKind, &h.Source.ID, &tgtKind, &h.Target.ID,
			&h.Relationship, &h.Note, &h.CreatedAt,
			&eKind, &eID, &eTitle, &eArabic, &eTranslit, &eRefString); err != nil {
			return nil, err
		}
		h.Source.Kind = model.Kind(srcKind)
		h.Target.Kind = model.Kind(tgtKind)
		if eKind.Valid {
			h.Entity = &model.Entity{
				Ref:       model.Ref{Kind: model.Kind(eKind.String), ID: eID.String},
				UserID:    h.UserID,
				Title:     eTitle.String,
				Arabic:    eArabic.String,
				Translit:  eTranslit.String,
				RefString: eRefString.String,
			}
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func scanLink(r rowScanner) (*model.EntityLink, error) {
	var l model.EntityLink
	var srcKind, tgtKind, rel string
	if err := r.Scan(&l.ID, &l.UserID, &srcKind, &l.Source.ID, &tgtKind, &l.Target.ID,
		&rel, &l.Note, &l.CreatedAt); err != nil {
		return nil, err
	}
	l.Source.Kind = model.Kind(srcKind)
	l.Target.Kind = model.Kind(tgtKind)
	l.Relationship = model.Relationship(rel)
	return &l, nil
}
