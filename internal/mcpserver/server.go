// Package mcpserver exposes catalog search and the local user's meal log as
// MCP tools over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"foodfollow/internal/app"
	"foodfollow/internal/domain"
)

// Server wraps the MCP server with the food tracking tools.
type Server struct {
	mcp     *server.MCPServer
	catalog *app.CatalogService
	meals   *app.MealService
	charts  *app.ChartsService
	user    string
}

// New creates an MCP server acting on behalf of user.
func New(catalog *app.CatalogService, meals *app.MealService, user string, version string) *Server {
	if user == "" {
		user = domain.LocalUser
	}
	s := &Server{catalog: catalog, meals: meals, charts: app.NewChartsService(meals), user: user}

	s.mcp = server.NewMCPServer(
		"FoodFollow",
		version,
		server.WithToolCapabilities(false),
	)

	s.mcp.AddTool(mcp.NewTool("search_foods",
		mcp.WithDescription("Search Open Food Facts products by name. Returns normalized products with nutriments per 100 g."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search terms, at least 2 characters")),
		mcp.WithNumber("page_size", mcp.Description("Maximum number of products (default 10)")),
	), s.searchFoods)

	s.mcp.AddTool(mcp.NewTool("lookup_barcode",
		mcp.WithDescription("Look up a single product by its barcode."),
		mcp.WithString("barcode", mcp.Required(), mcp.Description("EAN/UPC barcode digits")),
	), s.lookupBarcode)

	s.mcp.AddTool(mcp.NewTool("list_meals",
		mcp.WithDescription("List recorded meals, most recent first."),
	), s.listMeals)

	s.mcp.AddTool(mcp.NewTool("day_summary",
		mcp.WithDescription("Meals grouped by calendar day with calorie and macro totals, latest day first."),
	), s.daySummary)

	s.mcp.AddTool(mcp.NewTool("daily_chart",
		mcp.WithDescription("Calorie and macro totals per day for the last N days, oldest first. Days without meals are zero."),
		mcp.WithNumber("days", mcp.Description("Number of days ending today (default 7, max 366)")),
	), s.dailyChart)

	s.mcp.AddTool(mcp.NewTool("delete_meal",
		mcp.WithDescription("Delete a recorded meal by id."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Meal id as returned by list_meals")),
	), s.deleteMeal)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func (s *Server) searchFoods(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	products, err := s.catalog.SearchByText(ctx, query, req.GetInt("page_size", 0))
	if err != nil {
		return mcp.NewToolResultError(app.ErrSearchFailed.Error()), nil
	}
	return jsonResult(products), nil
}

func (s *Server) lookupBarcode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, err := req.RequireString("barcode")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p, found, err := s.catalog.LookupByBarcode(ctx, code)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !found {
		return mcp.NewToolResultText(fmt.Sprintf("product %s not found", code)), nil
	}
	return jsonResult(domain.NewFoodItem(p)), nil
}

func (s *Server) listMeals(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	meals, err := s.meals.List(ctx, s.user)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(meals), nil
}

func (s *Server) daySummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	days, err := s.meals.Days(ctx, s.user)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(days), nil
}

func (s *Server) dailyChart(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	points, err := s.charts.GetDaily(ctx, s.user, req.GetInt("days", 7))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(points), nil
}

func (s *Server) deleteMeal(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	removed, err := s.meals.RemoveMeal(ctx, s.user, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !removed {
		return mcp.NewToolResultError(fmt.Sprintf("meal not found: %s", id)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s", id)), nil
}
