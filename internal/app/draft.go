package app

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"foodfollow/internal/domain"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var (
	// ErrEmptyDraft indicates an attempt to save a meal without any food.
	ErrEmptyDraft = errors.New("add at least one food before saving")
	// ErrUnknownCategory indicates a meal category outside domain.Categories.
	ErrUnknownCategory = errors.New("unknown meal category")
)

// DraftView is a copy of a draft's state.
type DraftView struct {
	Category string            `json:"category"`
	Foods    []domain.FoodItem `json:"foods"`
	Totals   domain.Macros     `json:"totals"`
	Message  string            `json:"message,omitempty"`
}

// Draft is the meal being composed: a category and the foods picked so far.
// A food id appears at most once.
type Draft struct {
	mu       sync.Mutex
	category string
	foods    []domain.FoodItem
	message  string
}

// NewDraft creates an empty snack draft.
func NewDraft() *Draft {
	return &Draft{category: domain.CategorySnack}
}

// ValidateCategory reports whether category is one of domain.Categories.
func ValidateCategory(category string) error {
	in := make([]any, len(domain.Categories))
	for i, c := range domain.Categories {
		in[i] = c
	}
	if err := validation.Validate(category, validation.Required, validation.In(in...)); err != nil {
		return fmt.Errorf("%w %q: %v", ErrUnknownCategory, category, err)
	}
	return nil
}

// SetCategory changes the meal category.
func (d *Draft) SetCategory(category string) error {
	if err := ValidateCategory(category); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.category = category
	return nil
}

// Add appends food unless a food with the same id is already selected.
func (d *Draft) Add(food domain.FoodItem) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.addLocked(food, "Added: ")
}

func (d *Draft) addLocked(food domain.FoodItem, prefix string) bool {
	if slices.ContainsFunc(d.foods, func(f domain.FoodItem) bool { return f.ID == food.ID }) {
		d.message = food.Name + " is already in the meal"
		return false
	}
	d.foods = append(slices.Clip(d.foods), food)
	d.message = prefix + food.Name
	return true
}

// Remove drops the food with the given id.
func (d *Draft) Remove(foodID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	i := slices.IndexFunc(d.foods, func(f domain.FoodItem) bool { return f.ID == foodID })
	if i < 0 {
		return false
	}
	d.foods = slices.Delete(slices.Clone(d.foods), i, i+1)
	return true
}

// Resume moves a pending scanned food, if any, into the selection. added is
// false when nothing was pending or the food was already selected; the
// pending value is consumed either way.
func (d *Draft) Resume(pending *PendingScan) (food domain.FoodItem, added bool) {
	food, ok := pending.Consume()
	if !ok {
		return domain.FoodItem{}, false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return food, d.addLocked(food, "Added via scan: ")
}

// View returns a copy of the draft.
func (d *Draft) View() DraftView {
	d.mu.Lock()
	defer d.mu.Unlock()
	foods := slices.Clone(d.foods)
	if foods == nil {
		foods = []domain.FoodItem{}
	}
	return DraftView{
		Category: d.category,
		Foods:    foods,
		Totals:   domain.Totals(domain.Meal{Foods: foods}),
		Message:  d.message,
	}
}

// Build turns the draft into a meal stamped with now.
func (d *Draft) Build(now time.Time) (domain.Meal, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.foods) == 0 {
		d.message = ErrEmptyDraft.Error()
		return domain.Meal{}, ErrEmptyDraft
	}
	return domain.NewMeal(d.category, slices.Clone(d.foods), now), nil
}

// Reset empties the draft and restores the default category.
func (d *Draft) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.category = domain.CategorySnack
	d.foods = nil
	d.message = ""
}
