// Command notion-query dumps every row of a Notion database as JSON. It
// is used to check what the drill server has uploaded.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/keisan-drill/backend/internal/infrastructure/config"
	"github.com/keisan-drill/backend/internal/notion"
)

func main() {
	cfg := config.LoadLocal()

	databaseID := flag.String("database", cfg.NotionDatabaseID, "database to query (default NOTION_DATABASE_ID)")
	titles := flag.Bool("titles", false, "print one title per line instead of JSON")
	flag.Parse()

	if cfg.NotionAPIKey == "" || *databaseID == "" {
		fmt.Fprintln(os.Stderr, "notion-query: NOTION_API_KEY and a database id are required")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := notion.New(cfg.NotionAPIKey,
		notion.WithBaseURL(cfg.NotionBaseURL),
		notion.WithTimeout(cfg.NotionTimeout),
	)
	pages, err := client.QueryAll(ctx, *databaseID)
	if err != nil {
		fmt.Fprintln(os.Stderr, "notion-query:", err)
		os.Exit(1)
	}

	if *titles {
		for _, p := range pages {
			fmt.Printf("%s\t%s\n", p.ID, p.PlainTitle())
		}
		return
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(pages); err != nil {
		fmt.Fprintln(os.Stderr, "notion-query:", err)
		os.Exit(1)
	}
}
