// Package studyservice coordinates the store, graph, and search for the API
// and MCP surfaces: entity saves derive searchable text and materialize
// backlinks, deletes cascade through the graph, and search assembles the live
// collections the ranker runs over.
package studyservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/fihrist/internal/apperr"
	"github.com/starford/fihrist/internal/arabic"
	"github.com/starford/fihrist/internal/graph"
	"github.com/starford/fihrist/internal/model"
	"github.com/starford/fihrist/internal/richtext"
	"github.com/starford/fihrist/internal/search"
	"github.com/starford/fihrist/internal/store"
)

// Service is the study center's application service.
type Service struct {
	db    *store.DB
	graph *graph.Service
}

// NewService creates a study service.
func NewService(db *store.DB, g *graph.Service) *Service {
	return &Service{db: db, graph: g}
}

// Graph exposes the underlying graph service.
func (s *Service) Graph() *graph.Service {
	return s.graph
}

// EntityDetail is an entity enriched with its graph context.
type EntityDetail struct {
	model.Entity
	Backlinks []model.Backlink `json:"backlinks"`
	Links     *graph.Links     `json:"links"`
}

// SaveEntity validates and upserts an entity. The diacritic-stripped text is
// re-derived from the raw Arabic on every write. Saving a note extracts its
// embedded references and replaces the note's backlink set synchronously.
func (s *Service) SaveEntity(_ context.Context, userID string, e *model.Entity) (*model.Entity, error) {
	if userID == "" {
		return nil, apperr.ErrUnauthorized
	}
	if !e.Kind.Valid() {
		return nil, fmt.Errorf("%w: unknown entity kind %q", apperr.ErrValidation, e.Kind)
	}
	if e.ID == "" {
		return nil, fmt.Errorf("%w: entity id is required", apperr.ErrValidation)
	}

	now := time.Now().UTC()
	e.UserID = userID
	e.Arabic = arabic.Normalize(e.Arabic)
	e.Stripped = arabic.StripDiacritics(e.Arabic)
	e.UpdatedAt = now
	if existing, err := s.db.GetEntity(userID, e.Ref); err != nil {
		return nil, err
	} else if existing != nil {
		e.CreatedAt = existing.CreatedAt
	} else {
		e.CreatedAt = now
	}

	var refs []richtext.Reference
	if e.Kind == model.KindNote && len(e.Doc) > 0 {
		root, err := richtext.ParseDoc(e.Doc)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apperr.ErrValidation, err)
		}
		refs = richtext.ExtractReferences(root)
	}

	if err := s.db.UpsertEntity(e); err != nil {
		return nil, err
	}
	if e.Kind == model.KindNote {
		if err := s.graph.ReplaceBacklinks(userID, e.ID, refs); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// GetEntity returns an entity with its backlinks and both link directions.
func (s *Service) GetEntity(_ context.Context, userID string, ref model.Ref) (*EntityDetail, error) {
	if userID == "" {
		return nil, apperr.ErrNotFound
	}
	e, err := s.db.GetEntity(userID, ref)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, apperr.ErrNotFound
	}
	bl, err := s.graph.BacklinksFor(userID, ref)
	if err != nil {
		return nil, err
	}
	if bl == nil {
		bl = []model.Backlink{}
	}
	links, err := s.graph.LinksFor(userID, ref)
	if err != nil {
		return nil, err
	}
	return &EntityDetail{Entity: *e, Backlinks: bl, Links: links}, nil
}

// ListEntities returns all entities of one kind for the user.
func (s *Service) ListEntities(_ context.Context, userID string, kind model.Kind) ([]model.Entity, error) {
	if userID == "" {
		return []model.Entity{}, nil
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown entity kind %q", apperr.ErrValidation, kind)
	}
	out, err := s.db.ListEntities(userID, kind)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.Entity{}
	}
	return out, nil
}

// DeleteEntity removes an entity and cascades through the graph so no
// dangling edges or backlinks remain.
func (s *Service) DeleteEntity(_ context.Context, userID string, ref model.Ref) error {
	if userID == "" {
		return apperr.ErrUnauthorized
	}
	if err := s.graph.CascadeDelete(userID, ref); err != nil {
		return err
	}
	err := s.db.DeleteEntity(userID, ref)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.ErrNotFound
	}
	return err
}

// Search assembles the user's live collections and runs the ranker.
func (s *Service) Search(_ context.Context, userID, query string, filters *search.Filters) ([]search.Result, error) {
	if userID == "" {
		return []search.Result{}, nil
	}
	cols := make(search.Collections, len(model.Kinds))
	for _, kind := range model.Kinds {
		if filters != nil && len(filters.Kinds) > 0 && !containsKind(filters.Kinds, kind) {
			continue
		}
		entities, err := s.db.ListEntities(userID, kind)
		if err != nil {
			return nil, err
		}
		cols[kind] = entities
	}
	results := search.Search(query, cols, filters)
	if results == nil {
		results = []search.Result{}
	}
	return results, nil
}

func containsKind(kinds []model.Kind, k model.Kind) bool {
	for _, want := range kinds {
		if want == k {
			return true
		}
	}
	return false
}
