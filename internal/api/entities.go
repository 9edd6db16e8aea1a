package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/fihrist/internal/model"
	"github.com/starford/fihrist/internal/quran"
	"github.com/starford/fihrist/internal/studyservice"
)

// EventPublisher receives entity change notifications for live view refresh.
type EventPublisher interface {
	PublishEntityEvent(kind string, ref model.Ref)
}

// Handler holds API route handlers.
type Handler struct {
	svc      *studyservice.Service
	captures *quran.Service
	events   EventPublisher
}

// NewHandler creates a new Handler. events may be nil.
func NewHandler(svc *studyservice.Service, captures *quran.Service, events EventPublisher) *Handler {
	return &Handler{svc: svc, captures: captures, events: events}
}

func (h *Handler) publish(kind string, ref model.Ref) {
	if h.events != nil {
		h.events.PublishEntityEvent(kind, ref)
	}
}

// entityRef extracts the {kind}/{id} pair from the URL.
func entityRef(r *http.Request) model.Ref {
	return model.Ref{
		Kind: model.Kind(chi.URLParam(r, "kind")),
		ID:   chi.URLParam(r, "id"),
	}
}

// ListEntities handles GET /api/entities?kind=word.
func (h *Handler) ListEntities(w http.ResponseWriter, r *http.Request) {
	kind := model.Kind(r.URL.Query().Get("kind"))
	items, err := h.svc.ListEntities(r.Context(), UserID(r.Context()), kind)
	if err != nil {
		writeError(w, "list entities", err)
		return
	}
	writeJSON(w, http.StatusOK, EntityListResponse{Entities: items, Total: len(items)})
}

// GetEntity handles GET /api/entities/{kind}/{id}.
func (h *Handler) GetEntity(w http.ResponseWriter, r *http.Request) {
	detail, err := h.svc.GetEntity(r.Context(), UserID(r.Context()), entityRef(r))
	if err != nil {
		writeError(w, "get entity", err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// SaveEntity handles POST /api/entities and PUT /api/entities/{kind}/{id}.
// A note save runs reference extraction and replaces the note's backlinks.
func (h *Handler) SaveEntity(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var req SaveEntityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if urlRef := entityRef(r); urlRef.ID != "" {
		req.Kind = string(urlRef.Kind)
		req.ID = urlRef.ID
	}

	e := &model.Entity{
		Ref:       model.Ref{Kind: model.Kind(req.Kind), ID: req.ID},
		Title:     req.Title,
		Arabic:    req.Arabic,
		Translit:  req.Translit,
		Meanings:  req.Meanings,
		RefString: req.Ref,
		Doc:       req.Doc,
	}
	saved, err := h.svc.SaveEntity(r.Context(), UserID(r.Context()), e)
	if err != nil {
		writeError(w, "save entity", err)
		return
	}
	kind := "updated"
	status := http.StatusOK
	if r.Method == http.MethodPost {
		kind = "created"
		status = http.StatusCreated
	}
	h.publish(kind, saved.Ref)
	writeJSON(w, status, saved)
}

// DeleteEntity handles DELETE /api/entities/{kind}/{id}. Deletion cascades
// through the cross-reference graph.
func (h *Handler) DeleteEntity(w http.ResponseWriter, r *http.Request) {
	ref := entityRef(r)
	if err := h.svc.DeleteEntity(r.Context(), UserID(r.Context()), ref); err != nil {
		writeError(w, "delete entity", err)
		return
	}
	h.publish("deleted", ref)
	w.WriteHeader(http.StatusNoContent)
}
