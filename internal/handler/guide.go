package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/destinationbook/boatserver/internal/domain"
)

// ListGuides handles GET /guides.
// It returns every mirrored guide with its serving path, last update
// time, and whether an extraction is ready to serve.
func (s *Server) ListGuides(w http.ResponseWriter, r *http.Request) {
	infos, err := s.guides.List()
	if err != nil {
		s.internalError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"guides": infos})
}

// GetGuideContent handles GET /guides/{id}/content.
// It returns the guide's extracted description document.
func (s *Server) GetGuideContent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" || strings.ContainsAny(id, "/\\") || strings.Contains(id, "..") {
		s.badRequest(w, "invalid guide id")
		return
	}

	data, err := s.guides.Content(id)
	if errors.Is(err, domain.ErrNotFound) {
		s.notFound(w, "guide not found")
		return
	}
	if err != nil {
		s.internalError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data) //nolint:errcheck
}
