package domain_test

import (
	"testing"

	"foodfollow/internal/domain"
)

func ptr[T any](v T) *T { return &v }

func TestNormalizeGrade(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"A", "a"},
		{"c", "c"},
		{" E ", "e"},
		{"", "e"},
		{"unknown", "e"},
		{"f", "e"},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			if got := domain.NormalizeGrade(tc.in); got != tc.want {
				t.Errorf("NormalizeGrade(%q) = %q; want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNewFoodItem(t *testing.T) {
	p := domain.Product{
		Code:            "3017620422003",
		Name:            "Nutella",
		Brand:           ptr("Ferrero"),
		NutriScoreGrade: ptr("E"),
		Nutriments: domain.Nutriments{
			EnergyKcal100g: ptr(539.0),
			Proteins100g:   ptr(6.3),
			Fat100g:        ptr(30.9),
		},
	}

	f := domain.NewFoodItem(p)
	if f.ID != "3017620422003" || f.Name != "Nutella" || f.Brand != "Ferrero" {
		t.Fatalf("unexpected identity fields: %+v", f)
	}
	if f.ImageURL != "" {
		t.Errorf("expected empty image url, got %q", f.ImageURL)
	}
	if f.NutriScore != "e" {
		t.Errorf("expected lower-case grade, got %q", f.NutriScore)
	}
	if f.Calories != 539 || f.Proteins != 6.3 || f.Fats != 30.9 {
		t.Errorf("unexpected macros: %+v", f)
	}
	if f.Carbs != 0 {
		t.Errorf("unknown carbs should default to 0, got %v", f.Carbs)
	}
}

func TestNewFoodItem_FallbackID(t *testing.T) {
	a := domain.NewFoodItem(domain.Product{Name: "Mystery"})
	b := domain.NewFoodItem(domain.Product{Name: "Mystery"})
	if a.ID == "" || b.ID == "" {
		t.Fatal("expected generated ids")
	}
	if a.ID == b.ID {
		t.Fatalf("expected distinct fallback ids, got %q twice", a.ID)
	}
	if a.NutriScore != domain.DefaultNutriScore {
		t.Errorf("expected default grade, got %q", a.NutriScore)
	}
}
