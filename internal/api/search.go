package api

import (
	"net/http"
	"strings"

	"github.com/starford/fihrist/internal/model"
	"github.com/starford/fihrist/internal/search"
)

// Search handles GET /api/search?q=...&kinds=word,root.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}

	var filters *search.Filters
	if raw := r.URL.Query().Get("kinds"); raw != "" {
		f := &search.Filters{}
		for _, part := range strings.Split(raw, ",") {
			kind := model.Kind(strings.TrimSpace(part))
			if !kind.Valid() {
				writeJSON(w, http.StatusBadRequest, errorBody("unknown kind: "+string(kind)))
				return
			}
			f.Kinds = append(f.Kinds, kind)
		}
		filters = f
	}

	results, err := h.svc.Search(r.Context(), UserID(r.Context()), q, filters)
	if err != nil {
		writeError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}
