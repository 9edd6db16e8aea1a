package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/fihrist/internal/quran"
	"github.com/starford/fihrist/internal/studyservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced; tokens maps
// bearer tokens to user ids. sseHandler, if non-nil, is mounted at
// GET /events inside the auth group. dataRoot resolves the attachments
// directory. events may be nil.
func NewRouter(svc *studyservice.Service, captures *quran.Service, authEnabled bool, tokens map[string]string, sseHandler http.Handler, dataRoot string, events EventPublisher) chi.Router {
	h := NewHandler(svc, captures, events)
	ah := NewAttachmentHandler(dataRoot)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, tokens))

	// Entities CRUD.
	r.Get("/entities", h.ListEntities)
	r.Post("/entities", h.SaveEntity)
	r.Get("/entities/{kind}/{id}", h.GetEntity)
	r.Put("/entities/{kind}/{id}", h.SaveEntity)
	r.Delete("/entities/{kind}/{id}", h.DeleteEntity)

	// Cross-reference graph.
	r.Post("/links", h.CreateLink)
	r.Patch("/links/{id}", h.UpdateLink)
	r.Delete("/links/{id}", h.DeleteLink)
	r.Get("/entities/{kind}/{id}/links", h.GetLinks)
	r.Get("/entities/{kind}/{id}/backlinks", h.GetBacklinks)
	r.Get("/backlinks/counts", h.BacklinkCounts)

	// Search.
	r.Get("/search", h.Search)

	// Verse captures.
	r.Get("/captures", h.ListCaptures)
	r.Post("/captures", h.CreateCapture)
	r.Get("/captures/overlapping", h.OverlappingCaptures)
	r.Delete("/captures/{id}", h.DeleteCapture)

	// Attachments upload (auth-protected).
	r.Post("/attachments", ah.Upload)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
