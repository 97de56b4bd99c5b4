package main

import (
	"context"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"
)

var version = "dev"

func main() {
	cmd := &cli.Command{
		Name:    "foodfollow",
		Usage:   "Food tracking backend: Open Food Facts search, barcode scans and a daily meal log",
		Version: version,
		Action:  runServe,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("FOODFOLLOW_CONFIG"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API",
				Action: runServe,
			},
			{
				Name:      "search",
				Usage:     "Search the catalog by text and print the products as JSON",
				ArgsUsage: "<terms>",
				Action:    runSearch,
			},
			{
				Name:      "barcode",
				Usage:     "Look up one product by barcode and print it as JSON",
				ArgsUsage: "<code>",
				Action:    runBarcode,
			},
			{
				Name:   "mcp",
				Usage:  "Serve the MCP tools on stdin/stdout",
				Action: runMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
