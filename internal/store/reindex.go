package store

import (
	"fmt"
	"log/slog"

	"github.com/starford/fihrist/internal/arabic"
)

// Reindex sweeps the entity registry and rewrites any row whose stored
// diacritic-stripped text has diverged from its raw Arabic text. The stripped
// column is a pure function of the raw column; a mismatch means the index is
// stale (for example after a normalization change) and search would misrank
// until the next write.
func Reindex(db *DB, logger *slog.Logger) error {
	rows, err := db.conn.Query(`SELECT user_id, kind, id, arabic, stripped FROM entities WHERE arabic != ''`)
	if err != nil {
		return fmt.Errorf("store: reindex scan: %w", err)
	}
	defer rows.Close()

	type stale struct {
		userID, kind, id, want string
	}
	var pending []stale
	for rows.Next() {
		var s stale
		var raw, stored string
		if err := rows.Scan(&s.userID, &s.kind, &s.id, &raw, &stored); err != nil {
			return err
		}
		if want := arabic.StripDiacritics(raw); want != stored {
			s.want = want
			pending = append(pending, s)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, s := range pending {
		_, err := db.conn.Exec(`
			UPDATE entities SET stripped = ? WHERE user_id = ? AND kind = ? AND id = ?
		`, s.want, s.userID, s.kind, s.id)
		if err != nil {
			logger.Warn("reindex: update failed",
				slog.String("kind", s.kind),
				slog.String("id", s.id),
				slog.String("error", err.Error()))
			continue
		}
		logger.Debug("reindex: recomputed stripped text",
			slog.String("kind", s.kind),
			slog.String("id", s.id))
	}

	if len(pending) > 0 {
		logger.Info("reindex: refreshed stale searchable text", slog.Int("count", len(pending)))
	}
	return nil
}
