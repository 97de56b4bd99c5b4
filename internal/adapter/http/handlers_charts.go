package adapthttp

import (
	"net/http"
)

func (s *Server) handleChartsDaily(w http.ResponseWriter, r *http.Request) {
	days := intQuery(r, "days", 7)
	points, err := s.charts.GetDaily(r.Context(), userFrom(r.Context()), days)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"days": len(points), "points": points})
}
