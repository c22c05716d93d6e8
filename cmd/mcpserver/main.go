package main

import (
	"context"
	"log"
	"os"

	"agentbounty-backend/mcp"
	"agentbounty-backend/services"
	storage "agentbounty-backend/storage/bounty"
)

type config struct {
	StoreDriver string
	PGDSN       string
}

func loadConfig() config {
	return config{
		StoreDriver: envDefault("BOUNTY_STORE_DRIVER", "memory"),
		PGDSN:       os.Getenv("BOUNTY_PG_DSN"),
	}
}

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	cfg := loadConfig()

	ctx := context.Background()
	var store storage.Store
	switch cfg.StoreDriver {
	case "postgres":
		if cfg.PGDSN == "" {
			log.Fatal("BOUNTY_PG_DSN required when BOUNTY_STORE_DRIVER=postgres")
		}
		pg, err := storage.NewPGStore(ctx, cfg.PGDSN)
		if err != nil {
			log.Fatalf("failed to init store: %v", err)
		}
		store = pg
	default:
		store = storage.NewMemoryStore()
	}
	defer store.Close()

	mcpServer := mcp.NewMCPServer(services.NewMarketplaceService(store))

	log.Printf("Agent bounty MCP server starting (driver=%s)", cfg.StoreDriver)

	// Serve tools over stdio transport
	if err := mcpServer.Serve(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
