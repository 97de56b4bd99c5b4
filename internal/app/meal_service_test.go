package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"foodfollow/internal/app"
	"foodfollow/internal/domain"
)

type mockBlobStore struct {
	data map[string]string

	getFn func(ctx context.Context, key string) (string, bool, error)
	setFn func(ctx context.Context, key, value string) error
	delFn func(ctx context.Context, key string) error

	sets    int
	deletes int
}

func newMockBlobStore() *mockBlobStore {
	return &mockBlobStore{data: map[string]string{}}
}

func (m *mockBlobStore) Get(ctx context.Context, key string) (string, bool, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *mockBlobStore) Set(ctx context.Context, key, value string) error {
	m.sets++
	if m.setFn != nil {
		return m.setFn(ctx, key, value)
	}
	m.data[key] = value
	return nil
}

func (m *mockBlobStore) Delete(ctx context.Context, key string) error {
	m.deletes++
	if m.delFn != nil {
		return m.delFn(ctx, key)
	}
	delete(m.data, key)
	return nil
}

func meal(id, date string, foods ...domain.FoodItem) domain.Meal {
	return domain.Meal{ID: id, Name: domain.CategorySnack, Date: date, Foods: foods}
}

func TestMealService_AddMealPrependsAndPersists(t *testing.T) {
	store := newMockBlobStore()
	svc := app.NewMealService(store, nil, nil)
	ctx := context.Background()

	if err := svc.AddMeal(ctx, "u1", meal("1", "2026-02-18")); err != nil {
		t.Fatal(err)
	}
	if err := svc.AddMeal(ctx, "u1", meal("2", "2026-02-18")); err != nil {
		t.Fatal(err)
	}

	list, err := svc.List(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].ID != "2" || list[1].ID != "1" {
		t.Fatalf("expected most recent first, got %+v", list)
	}

	raw, ok := store.data[app.MealsKey("u1")]
	if !ok {
		t.Fatal("expected meals to be persisted")
	}
	var stored []domain.Meal
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		t.Fatalf("stored blob is not a meal array: %v", err)
	}
	if len(stored) != 2 || stored[0].ID != "2" {
		t.Fatalf("unexpected stored meals %+v", stored)
	}
}

func TestMealService_LoadsExistingBlob(t *testing.T) {
	store := newMockBlobStore()
	store.data["@food-follow/meals/u1"] = `[{"id":"9","name":"dinner","date":"2026-02-17","foods":[]}]`
	svc := app.NewMealService(store, nil, nil)

	m, ok, err := svc.Get(context.Background(), "u1", "9")
	if err != nil || !ok {
		t.Fatalf("Get = %v, %v", ok, err)
	}
	if m.Name != "dinner" {
		t.Fatalf("unexpected meal %+v", m)
	}
	if _, ok, _ := svc.Get(context.Background(), "u2", "9"); ok {
		t.Fatal("meals must be scoped per user")
	}
}

func TestMealService_BadBlobStartsEmpty(t *testing.T) {
	tests := []struct {
		name  string
		store *mockBlobStore
	}{
		{
			name: "corrupt json",
			store: &mockBlobStore{data: map[string]string{
				app.MealsKey("u1"): "{not json",
			}},
		},
		{
			name: "read failure",
			store: &mockBlobStore{
				data: map[string]string{},
				getFn: func(context.Context, string) (string, bool, error) {
					return "", false, errors.New("disk gone")
				},
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := app.NewMealService(tc.store, nil, nil)
			list, err := svc.List(context.Background(), "u1")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(list) != 0 {
				t.Fatalf("expected no meals, got %+v", list)
			}
		})
	}
}

func TestMealService_RemoveLastMealDeletesKey(t *testing.T) {
	store := newMockBlobStore()
	svc := app.NewMealService(store, nil, nil)
	ctx := context.Background()

	_ = svc.AddMeal(ctx, "u1", meal("1", "2026-02-18"))
	removed, err := svc.RemoveMeal(ctx, "u1", "1")
	if err != nil || !removed {
		t.Fatalf("RemoveMeal = %v, %v", removed, err)
	}
	if _, ok := store.data[app.MealsKey("u1")]; ok {
		t.Fatal("expected the key to be deleted, not set to an empty list")
	}
	if store.deletes != 1 {
		t.Fatalf("deletes = %d, want 1", store.deletes)
	}
}

func TestMealService_UnknownIDIsNoop(t *testing.T) {
	store := newMockBlobStore()
	svc := app.NewMealService(store, nil, nil)
	ctx := context.Background()
	_ = svc.AddMeal(ctx, "u1", meal("1", "2026-02-18"))
	sets := store.sets

	removed, err := svc.RemoveMeal(ctx, "u1", "nope")
	if err != nil || removed {
		t.Fatalf("RemoveMeal = %v, %v", removed, err)
	}
	added, err := svc.AddFoodToMeal(ctx, "u1", "nope", domain.FoodItem{ID: "x"})
	if err != nil || added {
		t.Fatalf("AddFoodToMeal = %v, %v", added, err)
	}
	if store.sets != sets || store.deletes != 0 {
		t.Fatal("no-op mutations must not write")
	}
}

func TestMealService_AddFoodToMealAppends(t *testing.T) {
	store := newMockBlobStore()
	svc := app.NewMealService(store, nil, nil)
	ctx := context.Background()
	_ = svc.AddMeal(ctx, "u1", meal("1", "2026-02-18", domain.FoodItem{ID: "a", Calories: 100}))

	before, _ := svc.List(ctx, "u1")

	for range 2 {
		ok, err := svc.AddFoodToMeal(ctx, "u1", "1", domain.FoodItem{ID: "b", Calories: 50})
		if err != nil || !ok {
			t.Fatalf("AddFoodToMeal = %v, %v", ok, err)
		}
	}

	m, _, _ := svc.Get(ctx, "u1", "1")
	if len(m.Foods) != 3 || m.Foods[2].ID != "b" {
		t.Fatalf("expected appended foods without dedupe, got %+v", m.Foods)
	}
	if got := domain.Totals(m).Calories; got != 200 {
		t.Fatalf("calories = %v, want 200", got)
	}
	if len(before[0].Foods) != 1 {
		t.Fatal("earlier snapshots must not change")
	}
}

func TestMealService_SaveFailureKeepsMemory(t *testing.T) {
	store := newMockBlobStore()
	store.setFn = func(context.Context, string, string) error { return errors.New("quota exceeded") }
	svc := app.NewMealService(store, nil, nil)

	if err := svc.AddMeal(context.Background(), "u1", meal("1", "2026-02-18")); err != nil {
		t.Fatalf("storage failures must not surface: %v", err)
	}
	list, _ := svc.List(context.Background(), "u1")
	if len(list) != 1 {
		t.Fatalf("expected the meal to stay in memory, got %+v", list)
	}
}

func TestMealService_Days(t *testing.T) {
	svc := app.NewMealService(newMockBlobStore(), nil, nil)
	ctx := context.Background()
	_ = svc.AddMeal(ctx, "u1", meal("1", "2026-02-18", domain.FoodItem{ID: "a", Calories: 100}))
	_ = svc.AddMeal(ctx, "u1", meal("2", "2026-02-18", domain.FoodItem{ID: "b", Calories: 50}))
	_ = svc.AddMeal(ctx, "u1", meal("3", "2026-02-19", domain.FoodItem{ID: "c", Calories: 10}))

	days, err := svc.Days(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(days) != 2 || days[0].Date != "2026-02-19" {
		t.Fatalf("unexpected days %+v", days)
	}
	if days[1].Totals.Calories != 150 || len(days[1].Meals) != 2 {
		t.Fatalf("unexpected 2026-02-18 group %+v", days[1])
	}
}

func TestMealService_SaveDraft(t *testing.T) {
	svc := app.NewMealService(newMockBlobStore(), nil, nil)
	svc.Now = func() time.Time { return time.Date(2026, 2, 18, 12, 30, 0, 0, time.UTC) }
	ctx := context.Background()
	d := app.NewDraft()

	if _, err := svc.SaveDraft(ctx, "u1", d); !errors.Is(err, app.ErrEmptyDraft) {
		t.Fatalf("expected ErrEmptyDraft, got %v", err)
	}

	d.Add(domain.FoodItem{ID: "1", Name: "Pomme"})
	m, err := svc.SaveDraft(ctx, "u1", d)
	if err != nil {
		t.Fatal(err)
	}
	if m.ID != "1771417800000" || m.Date != "2026-02-18" || m.Name != domain.CategorySnack {
		t.Fatalf("unexpected meal %+v", m)
	}
	if len(d.View().Foods) != 0 {
		t.Fatal("draft should be reset after saving")
	}
	list, _ := svc.List(ctx, "u1")
	if len(list) != 1 {
		t.Fatalf("expected the saved meal in the list, got %d", len(list))
	}
}

func TestMealService_FailedLoadKeepsStoredHistory(t *testing.T) {
	store := newMockBlobStore()
	seeded, err := json.Marshal([]domain.Meal{meal("2", "2026-02-18"), meal("1", "2026-02-17")})
	if err != nil {
		t.Fatal(err)
	}
	store.data[app.MealsKey("u1")] = string(seeded)

	failOnce := true
	store.getFn = func(_ context.Context, key string) (string, bool, error) {
		if failOnce {
			failOnce = false
			return "", false, errors.New("connection refused")
		}
		v, ok := store.data[key]
		return v, ok, nil
	}

	svc := app.NewMealService(store, nil, nil)
	ctx := context.Background()

	list, err := svc.List(ctx, "u1")
	if err != nil || len(list) != 0 {
		t.Fatalf("expected empty list on failed read, got %+v, %v", list, err)
	}

	if err := svc.AddMeal(ctx, "u1", meal("3", "2026-02-18")); err != nil {
		t.Fatalf("AddMeal after recovery: %v", err)
	}

	var stored []domain.Meal
	if err := json.Unmarshal([]byte(store.data[app.MealsKey("u1")]), &stored); err != nil {
		t.Fatal(err)
	}
	if len(stored) != 3 || stored[0].ID != "3" || stored[1].ID != "2" || stored[2].ID != "1" {
		t.Fatalf("expected history to survive, got %+v", stored)
	}
}

func TestMealService_RefusesChangesWhileUnreadable(t *testing.T) {
	store := newMockBlobStore()
	store.getFn = func(context.Context, string) (string, bool, error) {
		return "", false, errors.New("connection refused")
	}
	svc := app.NewMealService(store, nil, nil)
	ctx := context.Background()

	if err := svc.AddMeal(ctx, "u1", meal("1", "2026-02-18")); !errors.Is(err, app.ErrMealsUnavailable) {
		t.Fatalf("AddMeal err = %v; want ErrMealsUnavailable", err)
	}
	if _, err := svc.RemoveMeal(ctx, "u1", "1"); !errors.Is(err, app.ErrMealsUnavailable) {
		t.Fatalf("RemoveMeal err = %v; want ErrMealsUnavailable", err)
	}
	if _, err := svc.AddFoodToMeal(ctx, "u1", "1", domain.FoodItem{ID: "x"}); !errors.Is(err, app.ErrMealsUnavailable) {
		t.Fatalf("AddFoodToMeal err = %v; want ErrMealsUnavailable", err)
	}
	if store.sets != 0 || store.deletes != 0 {
		t.Fatalf("expected no writes, got %d sets and %d deletes", store.sets, store.deletes)
	}
}
