package adapthttp

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleFoodSearch(w http.ResponseWriter, r *http.Request) {
	pageSize := intQuery(r, "pageSize", s.catalog.PageSize())
	items, err := s.catalog.SearchByText(r.Context(), r.URL.Query().Get("q"), pageSize)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleFoodBarcode(w http.ResponseWriter, r *http.Request) {
	product, found, err := s.catalog.LookupByBarcode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	if !found {
		writeJSON(w, http.StatusOK, map[string]any{"found": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"found": true, "item": product})
}
