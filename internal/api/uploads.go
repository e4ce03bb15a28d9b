package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ─── GET /uploads/{name} ──────────────────────────────────────────────────────

// handleGetUpload serves a previously uploaded logo.
func (s *Server) handleGetUpload(w http.ResponseWriter, r *http.Request) {
	path, ok := s.uploads.Lookup(chi.URLParam(r, "name"))
	if !ok {
		respondErr(w, http.StatusNotFound, "not found")
		return
	}
	http.ServeFile(w, r, path)
}
