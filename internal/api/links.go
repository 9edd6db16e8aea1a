package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/fihrist/internal/model"
)

// CreateLink handles POST /api/links.
func (h *Handler) CreateLink(w http.ResponseWriter, r *http.Request) {
	var req CreateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	link, err := h.svc.Graph().CreateLink(UserID(r.Context()),
		req.Source, req.Target, model.Relationship(req.Relationship), req.Note)
	if err != nil {
		writeError(w, "create link", err)
		return
	}
	h.publish("updated", req.Source)
	writeJSON(w, http.StatusCreated, link)
}

// UpdateLink handles PATCH /api/links/{id}.
func (h *Handler) UpdateLink(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid link id"))
		return
	}
	var req UpdateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	rel := model.Relationship("")
	if req.Relationship != nil {
		rel = model.Relationship(*req.Relationship)
	}
	if err := h.svc.Graph().UpdateLink(UserID(r.Context()), id, rel, req.Note); err != nil {
		writeError(w, "update link", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteLink handles DELETE /api/links/{id}.
func (h *Handler) DeleteLink(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid link id"))
		return
	}
	if err := h.svc.Graph().DeleteLink(UserID(r.Context()), id); err != nil {
		writeError(w, "delete link", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetLinks handles GET /api/entities/{kind}/{id}/links: both directions,
// hydrated with the far-side entity where it still exists.
func (h *Handler) GetLinks(w http.ResponseWriter, r *http.Request) {
	links, err := h.svc.Graph().LinksFor(UserID(r.Context()), entityRef(r))
	if err != nil {
		writeError(w, "get links", err)
		return
	}
	writeJSON(w, http.StatusOK, links)
}

// GetBacklinks handles GET /api/entities/{kind}/{id}/backlinks.
func (h *Handler) GetBacklinks(w http.ResponseWriter, r *http.Request) {
	bl, err := h.svc.Graph().BacklinksFor(UserID(r.Context()), entityRef(r))
	if err != nil {
		writeError(w, "get backlinks", err)
		return
	}
	if bl == nil {
		bl = []model.Backlink{}
	}
	writeJSON(w, http.StatusOK, BacklinksResponse{Backlinks: bl, Total: len(bl)})
}

// BacklinkCounts handles GET /api/backlinks/counts?refs=word:w1,verse:v1.
// List views use this for badges without issuing a count query per row.
func (h *Handler) BacklinkCounts(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("refs")
	if raw == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'refs' is required"))
		return
	}
	var targets []model.Ref
	for _, part := range strings.Split(raw, ",") {
		kind, id, ok := strings.Cut(part, ":")
		if !ok || kind == "" || id == "" {
			writeJSON(w, http.StatusBadRequest, errorBody("refs entries must be kind:id"))
			return
		}
		targets = append(targets, model.Ref{Kind: model.Kind(kind), ID: id})
	}
	counts, err := h.svc.Graph().BacklinksCountMany(UserID(r.Context()), targets)
	if err != nil {
		writeError(w, "backlink counts", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"counts": counts})
}
