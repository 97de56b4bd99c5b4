package adapthttp

import (
	"encoding/json"
	"fmt"
	"net/http"
)

func (s *Server) handleSearchGet(w http.ResponseWriter, r *http.Request) {
	ws := s.workspaces.Get(userFrom(r.Context()))
	writeJSON(w, http.StatusOK, ws.Search.Snapshot())
}

func (s *Server) handleSearchPut(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Query string `json:"query"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ws := s.workspaces.Get(userFrom(r.Context()))
	ws.Search.Input(body.Query)
	writeJSON(w, http.StatusOK, ws.Search.Snapshot())
}

func (s *Server) handleSearchDelete(w http.ResponseWriter, r *http.Request) {
	ws := s.workspaces.Get(userFrom(r.Context()))
	ws.Search.Clear()
	writeJSON(w, http.StatusOK, ws.Search.Snapshot())
}

// handleSearchEvents streams search snapshots as Server-Sent Events, starting
// with the current one.
func (s *Server) handleSearchEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	session := s.workspaces.Get(userFrom(r.Context())).Search
	ch := session.Subscribe()
	defer session.Unsubscribe(ch)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	send := func(v any) bool {
		payload, err := json.Marshal(v)
		if err != nil {
			return false
		}
		if _, err := fmt.Fprintf(w, "event: search\ndata: %s\n\n", payload); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}
	if !send(session.Snapshot()) {
		return
	}

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-ch:
			if !ok || !send(snap) {
				return
			}
		}
	}
}
