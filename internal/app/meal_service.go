package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"foodfollow/internal/domain"
	"foodfollow/internal/metrics"
)

// MealsKeyPrefix prefixes the storage key holding a user's meals.
const MealsKeyPrefix = "@food-follow/meals/"

// MealsKey returns the storage key of user's meal list.
func MealsKey(user string) string {
	return MealsKeyPrefix + user
}

// ErrMealsUnavailable indicates a change refused because the stored meal
// history could not be read.
var ErrMealsUnavailable = errors.New("meal history unavailable, retry")

// MealService keeps each user's meal list in memory and mirrors it to a
// BlobStore after every change. The in-memory list is authoritative: write
// failures are logged, never returned. Reads that fail show an empty list, and
// changes are refused with ErrMealsUnavailable until a read succeeds.
type MealService struct {
	store   domain.BlobStore
	metrics *metrics.Metrics
	log     *slog.Logger

	// Now is the clock used by SaveDraft.
	Now func() time.Time

	mu    sync.Mutex
	meals map[string][]domain.Meal
}

// NewMealService creates a MealService persisting to store.
func NewMealService(store domain.BlobStore, m *metrics.Metrics, logger *slog.Logger) *MealService {
	if m == nil {
		m = metrics.Discard()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MealService{
		store:   store,
		metrics: m,
		log:     logger,
		Now:     time.Now,
		meals:   make(map[string][]domain.Meal),
	}
}

// loadLocked returns user's meals, reading them from storage on first access.
// A failed read is not cached: the caller gets an empty list and loaded=false,
// and the next access reads again.
func (s *MealService) loadLocked(ctx context.Context, user string) (meals []domain.Meal, loaded bool) {
	if meals, ok := s.meals[user]; ok {
		return meals, true
	}
	meals = []domain.Meal{}
	raw, ok, err := s.store.Get(ctx, MealsKey(user))
	switch {
	case err != nil:
		s.metrics.PersistenceFailures.WithLabelValues("load").Inc()
		s.log.Error("load meals", "user", user, "err", err)
		return meals, false
	case ok:
		if err := json.Unmarshal([]byte(raw), &meals); err != nil {
			s.metrics.PersistenceFailures.WithLabelValues("decode").Inc()
			s.log.Error("decode meals", "user", user, "err", err)
			meals = []domain.Meal{}
		}
	}
	s.meals[user] = meals
	return meals, true
}

// loadForWriteLocked is loadLocked for mutations, which must not overwrite a
// history that was never read.
func (s *MealService) loadForWriteLocked(ctx context.Context, user string) ([]domain.Meal, error) {
	meals, loaded := s.loadLocked(ctx, user)
	if !loaded {
		return nil, ErrMealsUnavailable
	}
	return meals, nil
}

// storeLocked replaces user's meals and writes them through.
func (s *MealService) storeLocked(ctx context.Context, user string, meals []domain.Meal) {
	s.meals[user] = meals
	// Writes are not cancelled with the request.
	ctx = context.WithoutCancel(ctx)

	key := MealsKey(user)
	if len(meals) == 0 {
		if err := s.store.Delete(ctx, key); err != nil {
			s.metrics.PersistenceFailures.WithLabelValues("delete").Inc()
			s.log.Error("delete meals", "user", user, "err", err)
		}
		return
	}
	b, err := json.Marshal(meals)
	if err != nil {
		s.metrics.PersistenceFailures.WithLabelValues("encode").Inc()
		s.log.Error("encode meals", "user", user, "err", err)
		return
	}
	if err := s.store.Set(ctx, key, string(b)); err != nil {
		s.metrics.PersistenceFailures.WithLabelValues("save").Inc()
		s.log.Error("save meals", "user", user, "err", err)
	}
}

// AddMeal stores meal ahead of the existing ones.
func (s *MealService) AddMeal(ctx context.Context, user string, meal domain.Meal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	meals, err := s.loadForWriteLocked(ctx, user)
	if err != nil {
		return err
	}
	next := make([]domain.Meal, 0, len(meals)+1)
	next = append(next, meal)
	next = append(next, meals...)
	s.storeLocked(ctx, user, next)
	return nil
}

// AddFoodToMeal appends food to the meal with mealID. It reports false and
// changes nothing when no such meal exists.
func (s *MealService) AddFoodToMeal(ctx context.Context, user, mealID string, food domain.FoodItem) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	meals, err := s.loadForWriteLocked(ctx, user)
	if err != nil {
		return false, err
	}
	i := slices.IndexFunc(meals, func(m domain.Meal) bool { return m.ID == mealID })
	if i < 0 {
		return false, nil
	}
	next := slices.Clone(meals)
	m := next[i]
	m.Foods = append(slices.Clone(m.Foods), food)
	next[i] = m
	s.storeLocked(ctx, user, next)
	return true, nil
}

// RemoveMeal deletes the first meal with mealID. It reports false when there
// is none.
func (s *MealService) RemoveMeal(ctx context.Context, user, mealID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	meals, err := s.loadForWriteLocked(ctx, user)
	if err != nil {
		return false, err
	}
	i := slices.IndexFunc(meals, func(m domain.Meal) bool { return m.ID == mealID })
	if i < 0 {
		return false, nil
	}
	next := slices.Delete(slices.Clone(meals), i, i+1)
	s.storeLocked(ctx, user, next)
	return true, nil
}

// List returns user's meals, most recent first.
func (s *MealService) List(ctx context.Context, user string) ([]domain.Meal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	meals, _ := s.loadLocked(ctx, user)
	return slices.Clone(meals), nil
}

// Get returns the meal with mealID.
func (s *MealService) Get(ctx context.Context, user, mealID string) (domain.Meal, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	meals, _ := s.loadLocked(ctx, user)
	for _, m := range meals {
		if m.ID == mealID {
			return m, true, nil
		}
	}
	return domain.Meal{}, false, nil
}

// Days groups user's meals by calendar day, latest day first.
func (s *MealService) Days(ctx context.Context, user string) ([]domain.DayGroup, error) {
	meals, err := s.List(ctx, user)
	if err != nil {
		return nil, err
	}
	return domain.GroupByDay(meals), nil
}

// SaveDraft builds a meal from draft, stores it and resets the draft.
func (s *MealService) SaveDraft(ctx context.Context, user string, draft *Draft) (domain.Meal, error) {
	meal, err := draft.Build(s.Now())
	if err != nil {
		return domain.Meal{}, err
	}
	if err := s.AddMeal(ctx, user, meal); err != nil {
		return domain.Meal{}, fmt.Errorf("add meal: %w", err)
	}
	draft.Reset()
	return meal, nil
}
