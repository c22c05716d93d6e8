package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/swaggo/swag"

	"agentbounty-backend/container"
	"agentbounty-backend/core/bounty"
	_ "agentbounty-backend/docs"
	"agentbounty-backend/mcp"
	"agentbounty-backend/metrics"
	"agentbounty-backend/middleware"
)

// @title Agent Bounty Marketplace API
// @version 1.0
// @description Escrow-backed bounty marketplace for autonomous agents.
// @BasePath /api

func main() {
	cfg := loadConfig()

	ctx := context.Background()
	c, err := container.NewContainer(ctx, container.Config{
		StoreDriver:   cfg.StoreDriver,
		PGDSN:         cfg.PGDSN,
		FaucetAmount:  cfg.FaucetAmount,
		APIKeySeed:    cfg.APIKey,
		SeedPrincipal: cfg.Authority,
	})
	if err != nil {
		log.Fatalf("failed to init container: %v", err)
	}
	defer c.Close()

	mux := http.NewServeMux()
	setupRoutes(mux, c)

	// Apply middleware to all routes
	handler := middleware.Recovery(
		middleware.Logging(
			middleware.CORS(
				middleware.SecurityHeaders(
					middleware.ContentType(
						middleware.Timeout(30 * time.Second)(mux),
					),
				),
			),
		),
	)

	log.Printf("Server starting on :%s (store=%s)", cfg.Port, cfg.StoreDriver)
	log.Printf("Marketplace API endpoints at: http://localhost:%s/api/", cfg.Port)
	log.Printf("MCP tool bridge at: http://localhost:%s/mcp/", cfg.Port)
	log.Printf("Prometheus metrics at: http://localhost:%s/metrics", cfg.Port)

	log.Fatal(http.ListenAndServe(":"+cfg.Port, handler))
}

func setupRoutes(mux *http.ServeMux, c *container.Container) {
	authn := middleware.OptionalAPIAuth(c.APIKeys)
	limited := middleware.RateLimit(30, time.Minute)
	route := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, middleware.Metrics(pattern)(authn(h)))
	}

	// Health endpoints
	route("/api/health", c.HealthHandler.HandleHealth)

	// Marketplace registry endpoints
	route("/api/marketplace", c.MarketplaceHandler.HandleStats)
	mux.Handle("/api/marketplace/init",
		middleware.Metrics("/api/marketplace/init")(
			middleware.APIAuth(c.APIKeys)(http.HandlerFunc(c.MarketplaceHandler.HandleInit))))

	// Bounty lifecycle endpoints
	route("/api/bounties", c.BountyHandler.HandleBounties)
	route("/api/bounties/", c.BountyHandler.HandleBounty)

	// Agent endpoints
	route("/api/agents/", c.AgentHandler.HandleAgent)
	mux.Handle("/api/faucet",
		middleware.Metrics("/api/faucet")(limited(http.HandlerFunc(c.AgentHandler.HandleFaucet))))

	// Auth endpoints, rate limited to slow key guessing
	authRoute := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, middleware.Metrics(pattern)(limited(h)))
	}
	authRoute("/api/auth/challenge", c.APIKeyHandler.HandleChallenge)
	authRoute("/api/auth/register", c.APIKeyHandler.HandleRegister)
	authRoute("/api/auth/login", c.APIKeyHandler.HandleLogin)

	// QR code endpoints
	route("/api/qrcode", c.QRCodeHandler.HandleGenerateQRCode)

	// MCP tool bridge
	bridge := mcp.NewHTTPMCPServer(c.MarketplaceService, c.APIKeys)
	bridge.RegisterRoutes(mux)

	// Observability
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/swagger/doc.json", handleSwaggerDoc)
}

func handleSwaggerDoc(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc()
	if err != nil {
		http.Error(w, "swagger spec unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(doc))
}

type config struct {
	Port         string
	StoreDriver  string
	PGDSN        string
	APIKey       string
	Authority    bounty.Principal
	FaucetAmount uint64
}

func loadConfig() config {
	port := envDefault("BOUNTY_PORT", "3001")
	storeDriver := envDefault("BOUNTY_STORE_DRIVER", "memory")

	faucetAmount := uint64(1_000_000_000)
	if raw := os.Getenv("BOUNTY_FAUCET_AMOUNT"); raw != "" {
		if v, err := strconv.ParseUint(raw, 10, 64); err == nil {
			faucetAmount = v
		}
	}

	var authority bounty.Principal
	if raw := os.Getenv("BOUNTY_AUTHORITY"); raw != "" {
		p, err := bounty.ParsePrincipal(raw)
		if err != nil {
			log.Fatalf("invalid BOUNTY_AUTHORITY: %v", err)
		}
		authority = p
	}

	apiKey := os.Getenv("BOUNTY_API_KEY")
	if apiKey != "" && authority == (bounty.Principal{}) {
		log.Fatal("BOUNTY_API_KEY requires BOUNTY_AUTHORITY to bind the key to")
	}

	return config{
		Port:         port,
		StoreDriver:  storeDriver,
		PGDSN:        os.Getenv("BOUNTY_PG_DSN"),
		APIKey:       apiKey,
		Authority:    authority,
		FaucetAmount: faucetAmount,
	}
}

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
