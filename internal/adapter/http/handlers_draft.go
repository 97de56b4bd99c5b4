package adapthttp

import (
	"errors"
	"net/http"
	"strings"

	"foodfollow/internal/app"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleDraftGet(w http.ResponseWriter, r *http.Request) {
	ws := s.workspaces.Get(userFrom(r.Context()))
	writeJSON(w, http.StatusOK, ws.Draft.View())
}

func (s *Server) handleDraftCategory(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Category string `json:"category"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ws := s.workspaces.Get(userFrom(r.Context()))
	if err := ws.Draft.SetCategory(body.Category); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ws.Draft.View())
}

func (s *Server) handleDraftAddFood(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Code string `json:"code"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ws := s.workspaces.Get(userFrom(r.Context()))
	food, added, err := ws.AddResult(body.Code)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"added": added, "food": food, "draft": ws.Draft.View()})
}

func (s *Server) handleDraftRemoveFood(w http.ResponseWriter, r *http.Request) {
	ws := s.workspaces.Get(userFrom(r.Context()))
	if !ws.Draft.Remove(chi.URLParam(r, "id")) {
		writeError(w, http.StatusNotFound, errors.New("food is not in the meal"))
		return
	}
	writeJSON(w, http.StatusOK, ws.Draft.View())
}

func (s *Server) handleDraftScan(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Barcode string `json:"barcode"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ws := s.workspaces.Get(userFrom(r.Context()))
	res, err := s.scanner.Scan(r.Context(), ws, strings.TrimSpace(body.Barcode))
	if errors.Is(err, app.ErrBarcodeFailed) {
		s.log.Warn("scan lookup failed", "err", err)
		writeJSON(w, http.StatusBadGateway, map[string]any{"error": res.Message})
		return
	}
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleDraftResume(w http.ResponseWriter, r *http.Request) {
	ws := s.workspaces.Get(userFrom(r.Context()))
	food, ok := ws.Draft.Resume(ws.Pending)
	resp := map[string]any{"resumed": ok, "draft": ws.Draft.View()}
	if ok {
		resp["food"] = food
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDraftSave(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	ws := s.workspaces.Get(user)
	meal, err := s.meals.SaveDraft(r.Context(), user, ws.Draft)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, meal)
}
