// Package graph implements the cross-reference graph over the document
// store: explicit entity links, note backlinks, and the deletion cascade.
// Every operation is scoped to the calling user; reads without an identity
// return empty results, writes are rejected.
package graph

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/fihrist/internal/apperr"
	"github.com/starford/fihrist/internal/model"
	"github.com/starford/fihrist/internal/richtext"
	"github.com/starford/fihrist/internal/store"
)

// Service exposes the graph operations.
type Service struct {
	db *store.DB
}

// NewService creates a graph service over the store.
func NewService(db *store.DB) *Service {
	return &Service{db: db}
}

// Links is the bidirectional view of one entity's edges.
type Links struct {
	Outgoing []model.HydratedLink `json:"outgoing"`
	Incoming []model.HydratedLink `json:"incoming"`
}

// CreateLink persists a new directed edge. Self-links and duplicate edges for
// the same ordered (source, target) pair are rejected before any write.
func (s *Service) CreateLink(userID string, source, target model.Ref, rel model.Relationship, note string) (*model.EntityLink, error) {
	if userID == "" {
		return nil, apperr.ErrUnauthorized
	}
	if !source.Kind.Valid() || !target.Kind.Valid() || source.ID == "" || target.ID == "" {
		return nil, fmt.Errorf("%w: source and target must be valid entity refs", apperr.ErrValidation)
	}
	if !rel.Valid() {
		return nil, fmt.Errorf("%w: unknown relationship %q", apperr.ErrValidation, rel)
	}
	if source == target {
		return nil, fmt.Errorf("%w: cannot link an entity to itself", apperr.ErrConflict)
	}
	exists, err := s.db.LinkExists(userID, source, target)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: link already exists", apperr.ErrConflict)
	}

	link := &model.EntityLink{
		UserID:       userID,
		Source:       source,
		Target:       target,
		Relationship: rel,
		Note:         note,
		CreatedAt:    time.Now().UTC(),
	}
	id, err := s.db.InsertLink(link)
	if err != nil {
		return nil, err
	}
	link.ID = id
	return link, nil
}

// UpdateLink patches relationship and/or note. A missing edge and an edge
// owned by another user are the same ErrNotFound.
func (s *Service) UpdateLink(userID string, id int64, rel model.Relationship, note *string) error {
	if userID == "" {
		return apperr.ErrUnauthorized
	}
	if rel != "" && !rel.Valid() {
		return fmt.Errorf("%w: unknown relationship %q", apperr.ErrValidation, rel)
	}
	err := s.db.UpdateLink(userID, id, rel, note)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.ErrNotFound
	}
	return err
}

// DeleteLink removes one edge by id.
func (s *Service) DeleteLink(userID string, id int64) error {
	if userID == "" {
		return apperr.ErrUnauthorized
	}
	err := s.db.DeleteLink(userID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.ErrNotFound
	}
	return err
}

// LinksFor returns both directions of an entity's edges, hydrated.
func (s *Service) LinksFor(userID string, ref model.Ref) (*Links, error) {
	if userID == "" {
		return &Links{Outgoing: []model.HydratedLink{}, Incoming: []model.HydratedLink{}}, nil
	}
	out, err := s.db.LinksFrom(userID, ref)
	if err != nil {
		return nil, err
	}
	in, err := s.db.LinksTo(userID, ref)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.HydratedLink{}
	}
	if in == nil {
		in = []model.HydratedLink{}
	}
	return &Links{Outgoing: out, Incoming: in}, nil
}

// LinksFrom returns outgoing edges only.
func (s *Service) LinksFrom(userID string, source model.Ref) ([]model.HydratedLink, error) {
	if userID == "" {
		return nil, nil
	}
	return s.db.LinksFrom(userID, source)
}

// LinksTo returns incoming edges only.
func (s *Service) LinksTo(userID string, target model.Ref) ([]model.HydratedLink, error) {
	if userID == "" {
		return nil, nil
	}
	return s.db.LinksTo(userID, target)
}

// BacklinksFor returns the backlinks pointing at an entity.
func (s *Service) BacklinksFor(userID string, target model.Ref) ([]model.Backlink, error) {
	if userID == "" {
		return nil, nil
	}
	return s.db.BacklinksFor(userID, target)
}

// BacklinksCount returns the number of backlinks pointing at an entity.
func (s *Service) BacklinksCount(userID string, target model.Ref) (int, error) {
	if userID == "" {
		return 0, nil
	}
	return s.db.BacklinksCount(userID, target)
}

// BacklinksCountMany returns backlink counts for a batch of targets, keyed by
// "kind:id". List views use this for badges instead of N+1 count queries.
func (s *Service) BacklinksCountMany(userID string, targets []model.Ref) (map[string]int, error) {
	if userID == "" {
		return map[string]int{}, nil
	}
	return s.db.BacklinksCountMany(userID, targets)
}

// ReplaceBacklinks materializes the references extracted from a note's latest
// save, superseding the previous set in one transaction.
func (s *Service) ReplaceBacklinks(userID, noteID string, refs []richtext.Reference) error {
	if userID == "" {
		return apperr.ErrUnauthorized
	}
	links := make([]model.Backlink, len(refs))
	for i, r := range refs {
		links[i] = model.Backlink{
			UserID:      userID,
			NoteID:      noteID,
			Target:      r.Target,
			DisplayText: r.DisplayText,
		}
	}
	return s.db.ReplaceBacklinks(userID, noteID, links)
}

// CascadeDelete removes every graph edge touching the entity: explicit links
// in both directions, backlinks where it is the target, and, for notes,
// backlinks it owns. Every entity-deletion handler goes through here.
func (s *Service) CascadeDelete(userID string, ref model.Ref) error {
	if userID == "" {
		return apperr.ErrUnauthorized
	}
	if err := s.db.DeleteLinksForEntity(userID, ref); err != nil {
		return err
	}
	if err := s.db.DeleteBacklinksForTarget(userID, ref); err != nil {
		return err
	}
	if ref.Kind == model.KindNote {
		if err := s.db.DeleteBacklinksForNote(userID, ref.ID); err != nil {
			return err
		}
	}
	return nil
}
