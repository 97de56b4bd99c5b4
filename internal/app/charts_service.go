package app

import (
	"context"

	"foodfollow/internal/domain"
)

// MaxChartDays bounds the length of a daily series.
const MaxChartDays = 366

// ChartsService encapsulates chart data retrieval use cases.
type ChartsService struct {
	meals *MealService
}

// NewChartsService creates a ChartsService reading from the given meal log.
func NewChartsService(meals *MealService) *ChartsService {
	return &ChartsService{meals: meals}
}

// DayPoint is a single data point returned by GetDaily.
type DayPoint struct {
	Day   string `json:"day"`
	Meals int    `json:"meals"`
	domain.Macros
}

// GetDaily returns one point per calendar day for the last days days ending
// today, oldest first. Days without meals are zero.
func (s *ChartsService) GetDaily(ctx context.Context, user string, days int) ([]DayPoint, error) {
	if days <= 0 {
		days = 7
	}
	if days > MaxChartDays {
		days = MaxChartDays
	}

	groups, err := s.meals.Days(ctx, user)
	if err != nil {
		return nil, err
	}
	byDay := make(map[string]domain.DayGroup, len(groups))
	for _, g := range groups {
		byDay[g.Date] = g
	}

	today := s.meals.Now()
	points := make([]DayPoint, 0, days)
	for i := days - 1; i >= 0; i-- {
		dayStr := today.AddDate(0, 0, -i).Format(domain.DayLayout)
		p := DayPoint{Day: dayStr}
		if g, ok := byDay[dayStr]; ok {
			p.Meals = len(g.Meals)
			p.Macros = g.Totals
		}
		points = append(points, p)
	}
	return points, nil
}
