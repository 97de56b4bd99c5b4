package domain

import (
	"context"
	"sort"
	"strconv"
	"time"
)

// Meal categories offered when composing a meal.
const (
	CategoryBreakfast = "breakfast"
	CategoryLunch     = "lunch"
	CategoryDinner    = "dinner"
	CategorySnack     = "snack"
)

// Categories lists the meal categories in display order.
var Categories = []string{CategoryBreakfast, CategoryLunch, CategoryDinner, CategorySnack}

// DayLayout is the calendar date format used for Meal.Date.
const DayLayout = "2006-01-02"

// Meal is a named, dated group of food items.
type Meal struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Date  string     `json:"date"`
	Foods []FoodItem `json:"foods"`
}

// NewMeal builds a meal stamped with now: the id is the Unix millisecond
// timestamp and the date is now's calendar day in its own location.
func NewMeal(name string, foods []FoodItem, now time.Time) Meal {
	return Meal{
		ID:    strconv.FormatInt(now.UnixMilli(), 10),
		Name:  name,
		Date:  now.Format(DayLayout),
		Foods: foods,
	}
}

// Macros is a set of summed macro values.
type Macros struct {
	Calories float64 `json:"calories"`
	Proteins float64 `json:"proteins"`
	Carbs    float64 `json:"carbs"`
	Fats     float64 `json:"fats"`
}

// Add returns the element-wise sum of m and o.
func (m Macros) Add(o Macros) Macros {
	return Macros{
		Calories: m.Calories + o.Calories,
		Proteins: m.Proteins + o.Proteins,
		Carbs:    m.Carbs + o.Carbs,
		Fats:     m.Fats + o.Fats,
	}
}

// Totals sums the macros of every food in the meal.
func Totals(meal Meal) Macros {
	var t Macros
	for _, f := range meal.Foods {
		t = t.Add(f.Macros())
	}
	return t
}

// MealCalories returns the summed calories of the meal.
func MealCalories(meal Meal) float64 {
	return Totals(meal).Calories
}

// DayGroup gathers the meals sharing one calendar date.
type DayGroup struct {
	Date   string `json:"date"`
	Meals  []Meal `json:"meals"`
	Totals Macros `json:"totals"`
}

// GroupByDay groups meals by their exact Date string. Meals keep their input
// order inside a group; groups are ordered by date, most recent first.
func GroupByDay(meals []Meal) []DayGroup {
	groups := make([]DayGroup, 0)
	index := make(map[string]int)

	for _, m := range meals {
		i, ok := index[m.Date]
		if !ok {
			i = len(groups)
			index[m.Date] = i
			groups = append(groups, DayGroup{Date: m.Date})
		}
		groups[i].Meals = append(groups[i].Meals, m)
		groups[i].Totals = groups[i].Totals.Add(Totals(m))
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Date > groups[j].Date
	})
	return groups
}

// BlobStore is the port for the key-value persistence of serialized state.
type BlobStore interface {
	// Get returns ok=false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
