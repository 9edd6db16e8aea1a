// Package model defines the domain types for Fihrist.
package model

import (
	"encoding/json"
	"time"
)

// Kind identifies an entity type in the study center.
type Kind string

// Entity kinds. Every kind participates in the cross-reference graph.
const (
	KindWord    Kind = "word"
	KindRoot    Kind = "root"
	KindVerse   Kind = "verse"
	KindHadith  Kind = "hadith"
	KindNote    Kind = "note"
	KindCourse  Kind = "course"
	KindLesson  Kind = "lesson"
	KindBook    Kind = "book"
	KindChapter Kind = "chapter"
	KindTag     Kind = "tag"
)

// Kinds lists all entity kinds in the order search results are assembled.
var Kinds = []Kind{
	KindWord, KindRoot, KindVerse, KindHadith, KindNote,
	KindCourse, KindLesson, KindBook, KindChapter, KindTag,
}

// Valid reports whether k is a known entity kind.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Ref is the composite (kind, id) key identifying one entity.
type Ref struct {
	Kind Kind   `json:"kind"`
	ID   string `json:"id"`
}

// Key returns the canonical "kind:id" form used for de-duplication and maps.
func (r Ref) Key() string {
	return string(r.Kind) + ":" + r.ID
}

// Relationship is a user-authored link relationship type.
type Relationship string

// The closed set of link relationship types.
const (
	RelRelated     Relationship = "related"
	RelSynonym     Relationship = "synonym"
	RelAntonym     Relationship = "antonym"
	RelExplains    Relationship = "explains"
	RelDerivedFrom Relationship = "derived_from"
	RelContrasts   Relationship = "contrasts"
	RelSupports    Relationship = "supports"
	RelExampleOf   Relationship = "example_of"
)

// Relationships lists every valid relationship type.
var Relationships = []Relationship{
	RelRelated, RelSynonym, RelAntonym, RelExplains,
	RelDerivedFrom, RelContrasts, RelSupports, RelExampleOf,
}

// Valid reports whether rel is a known relationship type.
func (rel Relationship) Valid() bool {
	for _, known := range Relationships {
		if rel == known {
			return true
		}
	}
	return false
}

// Entity is the generic registry row shared by all kinds. Kind-specific
// attributes live in the fields that apply (Arabic text for words and verses,
// RefString for verse/hadith citations, Doc for notes); unused fields stay
// zero-valued.
type Entity struct {
	Ref
	UserID    string          `json:"-"`
	Title     string          `json:"title"`
	Arabic    string          `json:"arabic,omitempty"`
	Stripped  string          `json:"-"` // derived: diacritic-stripped Arabic
	Translit  string          `json:"transliteration,omitempty"`
	Meanings  []string        `json:"meanings,omitempty"`
	RefString string          `json:"ref_string,omitempty"` // "2:255", "Bukhari #1", "k-t-b"
	Doc       json.RawMessage `json:"doc,omitempty"`        // rich-text document (notes)
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// EntityLink is a directed, typed edge between two entities.
type EntityLink struct {
	ID           int64        `json:"id"`
	UserID       string       `json:"-"`
	Source       Ref          `json:"source"`
	Target       Ref          `json:"target"`
	Relationship Relationship `json:"relationship"`
	Note         string       `json:"note,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}

// HydratedLink is an edge joined with the entity on its far side. Entity is
// nil when the pointed-to entity no longer exists; the edge itself is still
// the source of truth.
type HydratedLink struct {
	EntityLink
	Entity *Entity `json:"entity"`
}

// Backlink is the materialized inverse of one reference embedded in a note.
type Backlink struct {
	UserID      string `json:"-"`
	NoteID      string `json:"note_id"`
	Target      Ref    `json:"target"`
	DisplayText string `json:"display_text,omitempty"`
}

// VerseCapture is a saved Quranic verse range. AyahEnd of zero means a
// single-ayah capture ending at AyahStart.
type VerseCapture struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"-"`
	Surah     int       `json:"surah"`
	AyahStart int       `json:"ayah_start"`
	AyahEnd   int       `json:"ayah_end,omitempty"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// EffectiveEnd returns the inclusive end of the capture's ayah range.
func (c VerseCapture) EffectiveEnd() int {
	if c.AyahEnd == 0 {
		return c.AyahStart
	}
	return c.AyahEnd
}
