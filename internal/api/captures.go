package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/fihrist/internal/model"
)

func queryInt(r *http.Request, key string) (int, bool) {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	return v, err == nil
}

// ListCaptures handles GET /api/captures?surah=2.
func (h *Handler) ListCaptures(w http.ResponseWriter, r *http.Request) {
	surah, ok := queryInt(r, "surah")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'surah' is required"))
		return
	}
	captures, err := h.captures.ListCaptures(UserID(r.Context()), surah)
	if err != nil {
		writeError(w, "list captures", err)
		return
	}
	if captures == nil {
		captures = []model.VerseCapture{}
	}
	writeJSON(w, http.StatusOK, CapturesResponse{Captures: captures})
}

// CreateCapture handles POST /api/captures.
func (h *Handler) CreateCapture(w http.ResponseWriter, r *http.Request) {
	var req CreateCaptureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	c, err := h.captures.CreateCapture(UserID(r.Context()), req.Surah, req.AyahStart, req.AyahEnd, req.Note)
	if err != nil {
		writeError(w, "create capture", err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// DeleteCapture handles DELETE /api/captures/{id}.
func (h *Handler) DeleteCapture(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid capture id"))
		return
	}
	if err := h.captures.DeleteCapture(UserID(r.Context()), id); err != nil {
		writeError(w, "delete capture", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// OverlappingCaptures handles GET /api/captures/overlapping?surah=2&start=255&end=257.
// end is optional and defaults to a single-ayah query.
func (h *Handler) OverlappingCaptures(w http.ResponseWriter, r *http.Request) {
	surah, ok := queryInt(r, "surah")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'surah' is required"))
		return
	}
	start, ok := queryInt(r, "start")
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'start' is required"))
		return
	}
	end, _ := queryInt(r, "end")

	captures, err := h.captures.FindOverlapping(UserID(r.Context()), surah, start, end)
	if err != nil {
		writeError(w, "overlapping captures", err)
		return
	}
	if captures == nil {
		captures = []model.VerseCapture{}
	}
	writeJSON(w, http.StatusOK, CapturesResponse{Captures: captures})
}
