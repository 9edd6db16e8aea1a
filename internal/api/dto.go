package api

import (
	"encoding/json"

	"github.com/starford/fihrist/internal/model"
	"github.com/starford/fihrist/internal/search"
	"github.com/starford/fihrist/internal/studyservice"
)

// SaveEntityRequest is the request body for creating or updating an entity.
type SaveEntityRequest struct {
	Kind     string          `json:"kind" example:"word"`
	ID       string          `json:"id" example:"w-kitab"`
	Title    string          `json:"title,omitempty" example:"kitab"`
	Arabic   string          `json:"arabic,omitempty" example:"كِتَاب"`
	Translit string          `json:"transliteration,omitempty" example:"kitab"`
	Meanings []string        `json:"meanings,omitempty" example:"book"`
	Ref      string          `json:"ref_string,omitempty" example:"2:255"`
	Doc      json.RawMessage `json:"doc,omitempty"`
}

// CreateLinkRequest is the request body for creating an entity link.
type CreateLinkRequest struct {
	Source       model.Ref `json:"source"`
	Target       model.Ref `json:"target"`
	Relationship string    `json:"relationship" example:"synonym"`
	Note         string    `json:"note,omitempty"`
}

// UpdateLinkRequest is the partial-patch body for an entity link.
type UpdateLinkRequest struct {
	Relationship *string `json:"relationship,omitempty"`
	Note         *string `json:"note,omitempty"`
}

// CreateCaptureRequest is the request body for saving a verse capture.
type CreateCaptureRequest struct {
	Surah     int    `json:"surah" example:"2"`
	AyahStart int    `json:"ayah_start" example:"255"`
	AyahEnd   int    `json:"ayah_end,omitempty" example:"257"`
	Note      string `json:"note,omitempty"`
}

// EntityDetail is the full entity response type (aliased from the domain layer).
type EntityDetail = studyservice.EntityDetail

// EntityListResponse wraps entity listings.
type EntityListResponse struct {
	Entities []model.Entity `json:"entities"`
	Total    int            `json:"total"`
}

// SearchResponse wraps ranked search hits.
type SearchResponse struct {
	Results []search.Result `json:"results"`
}

// BacklinksResponse wraps an entity's backlinks.
type BacklinksResponse struct {
	Backlinks []model.Backlink `json:"backlinks"`
	Total     int              `json:"total"`
}

// CapturesResponse wraps verse capture listings.
type CapturesResponse struct {
	Captures []model.VerseCapture `json:"captures"`
}

// AttachmentUploadResponse is returned after a successful attachment upload.
type AttachmentUploadResponse struct {
	Filename string `json:"filename" example:"recitation.mp3"`
	Size     int64  `json:"size" example:"12345"`
	URL      string `json:"url" example:"/attachments/recitation.mp3"`
}
