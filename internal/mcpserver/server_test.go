package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"foodfollow/internal/adapter/memory"
	"foodfollow/internal/app"
	"foodfollow/internal/domain"
)

type stubCatalog struct {
	products []domain.Product
	err      error
	gotSize  int
}

func (c *stubCatalog) SearchProducts(_ context.Context, _ string, pageSize int) ([]domain.Product, error) {
	c.gotSize = pageSize
	return c.products, c.err
}

func (c *stubCatalog) ProductByBarcode(_ context.Context, code string) (domain.Product, bool, error) {
	if c.err != nil {
		return domain.Product{}, false, c.err
	}
	for _, p := range c.products {
		if p.Code == code {
			return p, true, nil
		}
	}
	return domain.Product{}, false, nil
}

func testServer(t *testing.T, cat *stubCatalog) (*Server, *app.MealService) {
	t.Helper()
	meals := app.NewMealService(memory.New(), nil, nil)
	srv := New(app.NewCatalogService(cat, 10, nil), meals, "", "test")
	return srv, meals
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	var result *mcp.CallToolResult
	var err error
	switch name {
	case "search_foods":
		result, err = srv.searchFoods(ctx, req)
	case "lookup_barcode":
		result, err = srv.lookupBarcode(ctx, req)
	case "list_meals":
		result, err = srv.listMeals(ctx, req)
	case "day_summary":
		result, err = srv.daySummary(ctx, req)
	case "daily_chart":
		result, err = srv.dailyChart(ctx, req)
	case "delete_meal":
		result, err = srv.deleteMeal(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}
	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestSearchFoods(t *testing.T) {
	cat := &stubCatalog{products: []domain.Product{{Code: "1", Name: "Yaourt nature"}}}
	srv, _ := testServer(t, cat)

	res := callTool(t, srv, "search_foods", map[string]interface{}{"query": "yaourt", "page_size": float64(5)})
	if res.IsError {
		t.Fatalf("unexpected error: %s", resultText(res))
	}
	var products []domain.Product
	if err := json.Unmarshal([]byte(resultText(res)), &products); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(products) != 1 || products[0].Name != "Yaourt nature" {
		t.Fatalf("unexpected products %+v", products)
	}
	if cat.gotSize != 5 {
		t.Errorf("page size = %d, want 5", cat.gotSize)
	}

	res = callTool(t, srv, "search_foods", map[string]interface{}{})
	if !res.IsError {
		t.Fatal("expected an error without query")
	}
}

func TestSearchFoodsFailure(t *testing.T) {
	srv, _ := testServer(t, &stubCatalog{err: errors.New("down")})
	res := callTool(t, srv, "search_foods", map[string]interface{}{"query": "pain"})
	if !res.IsError || resultText(res) != "search failed, retry" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestLookupBarcode(t *testing.T) {
	grade := "A"
	srv, _ := testServer(t, &stubCatalog{products: []domain.Product{{Code: "42", Name: "Pomme", NutriScoreGrade: &grade}}})

	res := callTool(t, srv, "lookup_barcode", map[string]interface{}{"barcode": "42"})
	var food domain.FoodItem
	if err := json.Unmarshal([]byte(resultText(res)), &food); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if food.ID != "42" || food.NutriScore != "a" {
		t.Fatalf("unexpected food %+v", food)
	}

	res = callTool(t, srv, "lookup_barcode", map[string]interface{}{"barcode": "000"})
	if res.IsError || !strings.Contains(resultText(res), "not found") {
		t.Fatalf("unexpected result %q", resultText(res))
	}
}

func TestMealTools(t *testing.T) {
	srv, meals := testServer(t, &stubCatalog{})
	ctx := context.Background()
	day := time.Date(2026, 2, 18, 8, 0, 0, 0, time.UTC)
	_ = meals.AddMeal(ctx, domain.LocalUser, domain.NewMeal("breakfast", []domain.FoodItem{{ID: "1", Calories: 100}}, day))
	_ = meals.AddMeal(ctx, domain.LocalUser, domain.NewMeal("lunch", []domain.FoodItem{{ID: "2", Calories: 50}}, day.Add(4*time.Hour)))

	var list []domain.Meal
	if err := json.Unmarshal([]byte(resultText(callTool(t, srv, "list_meals", nil))), &list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].Name != "lunch" {
		t.Fatalf("unexpected meals %+v", list)
	}

	var days []domain.DayGroup
	if err := json.Unmarshal([]byte(resultText(callTool(t, srv, "day_summary", nil))), &days); err != nil {
		t.Fatal(err)
	}
	if len(days) != 1 || days[0].Totals.Calories != 150 {
		t.Fatalf("unexpected days %+v", days)
	}

	res := callTool(t, srv, "delete_meal", map[string]interface{}{"id": list[0].ID})
	if res.IsError {
		t.Fatalf("delete: %s", resultText(res))
	}
	res = callTool(t, srv, "delete_meal", map[string]interface{}{"id": list[0].ID})
	if !res.IsError {
		t.Fatal("deleting twice should fail")
	}
}

func TestDailyChart(t *testing.T) {
	srv, meals := testServer(t, &stubCatalog{})
	day := time.Date(2026, 2, 18, 8, 0, 0, 0, time.UTC)
	meals.Now = func() time.Time { return day.Add(24 * time.Hour) }
	_ = meals.AddMeal(context.Background(), domain.LocalUser, domain.NewMeal("breakfast", []domain.FoodItem{{ID: "1", Calories: 100, Proteins: 4}}, day))

	var points []app.DayPoint
	if err := json.Unmarshal([]byte(resultText(callTool(t, srv, "daily_chart", map[string]interface{}{"days": float64(2)}))), &points); err != nil {
		t.Fatal(err)
	}
	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %+v", points)
	}
	if points[0].Day != "2026-02-18" || points[0].Calories != 100 || points[0].Proteins != 4 {
		t.Fatalf("unexpected first point %+v", points[0])
	}
	if points[1].Day != "2026-02-19" || points[1].Meals != 0 {
		t.Fatalf("unexpected second point %+v", points[1])
	}
}
