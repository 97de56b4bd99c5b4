package adapthttp

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"foodfollow/internal/app"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

// writeAppError maps an application error onto a status code. Catalog
// failures are reported with their retry message only.
func (s *Server) writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, app.ErrEmptyBarcode),
		errors.Is(err, app.ErrUnknownCategory),
		errors.Is(err, app.ErrEmptyDraft):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, app.ErrResultNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, app.ErrScanInProgress):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, app.ErrMealsUnavailable):
		s.log.Warn("meal history unavailable", "path", r.URL.Path, "err", err)
		writeError(w, http.StatusServiceUnavailable, app.ErrMealsUnavailable)
	case errors.Is(err, app.ErrSearchFailed):
		s.log.Warn("catalog search failed", "path", r.URL.Path, "err", err)
		writeError(w, http.StatusBadGateway, app.ErrSearchFailed)
	case errors.Is(err, app.ErrBarcodeFailed):
		s.log.Warn("catalog barcode lookup failed", "path", r.URL.Path, "err", err)
		writeError(w, http.StatusBadGateway, app.ErrBarcodeFailed)
	default:
		s.log.Error("request failed", "path", r.URL.Path, "err", err)
		writeError(w, http.StatusInternalServerError, errors.New("internal error"))
	}
}

func parseJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	return nil
}

func intQuery(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func withNoCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
