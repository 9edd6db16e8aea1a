// Package quran manages saved verse captures and range-overlap lookups.
package quran

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/fihrist/internal/apperr"
	"github.com/starford/fihrist/internal/model"
	"github.com/starford/fihrist/internal/store"
)

const surahCount = 114

// Service exposes verse-capture operations.
type Service struct {
	db *store.DB
}

// NewService creates a capture service over the store.
func NewService(db *store.DB) *Service {
	return &Service{db: db}
}

// validateRange rejects malformed verse ranges before any write.
func validateRange(surah, ayahStart, ayahEnd int) error {
	err := validation.Errors{
		"surah":      validation.Validate(surah, validation.Required, validation.Min(1), validation.Max(surahCount)),
		"ayah_start": validation.Validate(ayahStart, validation.Required, validation.Min(1)),
	}.Filter()
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrValidation, err)
	}
	if ayahEnd != 0 && ayahEnd < ayahStart {
		return fmt.Errorf("%w: ayah_end %d precedes ayah_start %d", apperr.ErrValidation, ayahEnd, ayahStart)
	}
	return nil
}

// Overlaps reports whether two inclusive ayah ranges intersect. A capture
// with no end is a single-ayah range.
func Overlaps(a, b model.VerseCapture) bool {
	return a.AyahStart <= b.EffectiveEnd() && b.AyahStart <= a.EffectiveEnd()
}

// CreateCapture validates and persists a verse capture.
func (s *Service) CreateCapture(userID string, surah, ayahStart, ayahEnd int, note string) (*model.VerseCapture, error) {
	if userID == "" {
		return nil, apperr.ErrUnauthorized
	}
	if err := validateRange(surah, ayahStart, ayahEnd); err != nil {
		return nil, err
	}
	c := &model.VerseCapture{
		UserID:    userID,
		Surah:     surah,
		AyahStart: ayahStart,
		AyahEnd:   ayahEnd,
		Note:      note,
		CreatedAt: time.Now().UTC(),
	}
	id, err := s.db.InsertCapture(c)
	if err != nil {
		return nil, err
	}
	c.ID = id
	return c, nil
}

// DeleteCapture removes one capture. Missing and foreign-owned captures are
// both ErrNotFound.
func (s *Service) DeleteCapture(userID string, id int64) error {
	if userID == "" {
		return apperr.ErrUnauthorized
	}
	err := s.db.DeleteCapture(userID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.ErrNotFound
	}
	return err
}

// ListCaptures returns all captures the user saved for one surah.
func (s *Service) ListCaptures(userID string, surah int) ([]model.VerseCapture, error) {
	if userID == "" {
		return nil, nil
	}
	return s.db.CapturesForSurah(userID, surah)
}

// FindOverlapping returns every capture of the user in the given surah whose
// ayah range intersects [ayahStart, ayahEnd]. ayahEnd of zero means a
// single-ayah query. All matches are returned, including captures that also
// overlap each other.
func (s *Service) FindOverlapping(userID string, surah, ayahStart, ayahEnd int) ([]model.VerseCapture, error) {
	if userID == "" {
		return nil, nil
	}
	if err := validateRange(surah, ayahStart, ayahEnd); err != nil {
		return nil, err
	}
	candidates, err := s.db.CapturesForSurah(userID, surah)
	if err != nil {
		return nil, err
	}
	query := model.VerseCapture{Surah: surah, AyahStart: ayahStart, AyahEnd: ayahEnd}
	var out []model.VerseCapture
	for _, c := range candidates {
		if Overlaps(query, c) {
			out = append(out, c)
		}
	}
	return out, nil
}
