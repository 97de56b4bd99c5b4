// Package domain contains the core business entities and interfaces.
package domain

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// DefaultNutriScore is the grade assigned when the catalog has none.
const DefaultNutriScore = "e"

// Nutriments holds per-100g macro readings as returned by the catalog.
// A nil field means the catalog did not report a usable value, which is
// different from an explicit zero.
type Nutriments struct {
	EnergyKcal100g    *float64 `json:"energyKcal100g"`
	Proteins100g      *float64 `json:"proteins100g"`
	Carbohydrates100g *float64 `json:"carbohydrates100g"`
	Fat100g           *float64 `json:"fat100g"`
}

// Product is a normalized catalog record, shaped for display.
type Product struct {
	Code            string     `json:"code"`
	Name            string     `json:"name"`
	Brand           *string    `json:"brand"`
	ImageURL        *string    `json:"imageUrl"`
	NutriScoreGrade *string    `json:"nutriScoreGrade"`
	Nutriments      Nutriments `json:"nutriments"`
}

// FoodItem is the nutrition record stored inside a meal. Macro fields are
// always set so aggregation never has to deal with missing values.
type FoodItem struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Brand      string  `json:"brand"`
	ImageURL   string  `json:"image_url"`
	NutriScore string  `json:"nutriscore"`
	Calories   float64 `json:"calories"`
	Proteins   float64 `json:"proteins"`
	Carbs      float64 `json:"carbs"`
	Fats       float64 `json:"fats"`
}

// Macros returns the four macro values of the item.
func (f FoodItem) Macros() Macros {
	return Macros{Calories: f.Calories, Proteins: f.Proteins, Carbs: f.Carbs, Fats: f.Fats}
}

// NewFoodItem maps a catalog product to a food item. Products without a code
// get a random identifier.
func NewFoodItem(p Product) FoodItem {
	id := p.Code
	if id == "" {
		id = uuid.NewString()
	}
	return FoodItem{
		ID:         id,
		Name:       p.Name,
		Brand:      deref(p.Brand),
		ImageURL:   deref(p.ImageURL),
		NutriScore: NormalizeGrade(deref(p.NutriScoreGrade)),
		Calories:   orZero(p.Nutriments.EnergyKcal100g),
		Proteins:   orZero(p.Nutriments.Proteins100g),
		Carbs:      orZero(p.Nutriments.Carbohydrates100g),
		Fats:       orZero(p.Nutriments.Fat100g),
	}
}

// NormalizeGrade lower-cases a nutrition grade and falls back to
// DefaultNutriScore for anything outside a..e.
func NormalizeGrade(grade string) string {
	g := strings.ToLower(strings.TrimSpace(grade))
	if len(g) == 1 && g[0] >= 'a' && g[0] <= 'e' {
		return g
	}
	return DefaultNutriScore
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func orZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// Catalog is the port for the external product database.
type Catalog interface {
	SearchProducts(ctx context.Context, terms string, pageSize int) ([]Product, error)
	// ProductByBarcode returns found=false when the catalog does not know the code.
	ProductByBarcode(ctx context.Context, barcode string) (Product, bool, error)
}
