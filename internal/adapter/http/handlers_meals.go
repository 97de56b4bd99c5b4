package adapthttp

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"foodfollow/internal/app"
	"foodfollow/internal/domain"

	"github.com/go-chi/chi/v5"
)

var (
	errMealNotFound   = errors.New("meal not found")
	errFoodIDRequired = errors.New("food id is required")
)

// normalizeFoods checks client supplied foods: every food needs an id, ids
// are unique and grades are normalized.
func normalizeFoods(foods []domain.FoodItem) ([]domain.FoodItem, error) {
	out := make([]domain.FoodItem, 0, len(foods))
	seen := make(map[string]struct{}, len(foods))
	for _, f := range foods {
		f.ID = strings.TrimSpace(f.ID)
		if f.ID == "" {
			return nil, errFoodIDRequired
		}
		if _, dup := seen[f.ID]; dup {
			return nil, fmt.Errorf("duplicate food id %q", f.ID)
		}
		seen[f.ID] = struct{}{}
		f.NutriScore = domain.NormalizeGrade(f.NutriScore)
		out = append(out, f)
	}
	return out, nil
}

func (s *Server) handleMealsList(w http.ResponseWriter, r *http.Request) {
	items, err := s.meals.List(r.Context(), userFrom(r.Context()))
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleMealsCreate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name  string            `json:"name"`
		Foods []domain.FoodItem `json:"foods"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if len(body.Foods) == 0 {
		writeError(w, http.StatusBadRequest, app.ErrEmptyDraft)
		return
	}
	foods, err := normalizeFoods(body.Foods)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		name = domain.CategorySnack
	}
	meal := domain.NewMeal(name, foods, s.meals.Now())
	if err := s.meals.AddMeal(r.Context(), userFrom(r.Context()), meal); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, meal)
}

func (s *Server) handleMealGet(w http.ResponseWriter, r *http.Request) {
	meal, ok, err := s.meals.Get(r.Context(), userFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, errMealNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"meal": meal, "totals": domain.Totals(meal)})
}

func (s *Server) handleMealDelete(w http.ResponseWriter, r *http.Request) {
	removed, err := s.meals.RemoveMeal(r.Context(), userFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, errMealNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMealAddFood(w http.ResponseWriter, r *http.Request) {
	var food domain.FoodItem
	if err := parseJSON(r, &food); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	checked, err := normalizeFoods([]domain.FoodItem{food})
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	food = checked[0]

	user := userFrom(r.Context())
	id := chi.URLParam(r, "id")
	added, err := s.meals.AddFoodToMeal(r.Context(), user, id, food)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	if !added {
		writeError(w, http.StatusNotFound, errMealNotFound)
		return
	}
	meal, _, err := s.meals.Get(r.Context(), user, id)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, meal)
}

func (s *Server) handleDays(w http.ResponseWriter, r *http.Request) {
	days, err := s.meals.Days(r.Context(), userFrom(r.Context()))
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": days})
}
