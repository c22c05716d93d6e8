package container

import (
	"context"
	"fmt"
	"time"

	"agentbounty-backend/core/bounty"
	"agentbounty-backend/handlers"
	"agentbounty-backend/services"
	"agentbounty-backend/storage/auth"
	storage "agentbounty-backend/storage/bounty"
)

// Config selects the storage driver and tunes optional features.
type Config struct {
	StoreDriver  string // memory | postgres
	PGDSN        string
	FaucetAmount uint64 // 0 disables the faucet

	// APIKeySeed bootstraps one known key bound to SeedPrincipal, so an
	// operator can call authenticated endpoints before registration.
	APIKeySeed    string
	SeedPrincipal bounty.Principal

	ChallengeTTL time.Duration
}

// Container holds all application dependencies
type Container struct {
	// Storage
	Store      storage.Store
	APIKeys    auth.APIKeyValidator
	KeyIssuer  auth.APIKeyIssuer
	Challenges *auth.ChallengeStore

	// Services
	MarketplaceService *services.MarketplaceService
	QRCodeService      *services.QRCodeService
	HealthService      *services.HealthService

	// Handlers
	HealthHandler      *handlers.HealthHandler
	MarketplaceHandler *handlers.MarketplaceHandler
	BountyHandler      *handlers.BountyHandler
	AgentHandler       *handlers.AgentHandler
	APIKeyHandler      *handlers.APIKeyHandler
	QRCodeHandler      *handlers.QRCodeHandler
}

// NewContainer creates a new dependency container
func NewContainer(ctx context.Context, cfg Config) (*Container, error) {
	if cfg.ChallengeTTL == 0 {
		cfg.ChallengeTTL = 5 * time.Minute
	}

	var store storage.Store
	var keyStore interface {
		auth.APIKeyValidator
		auth.APIKeyIssuer
		Seed(key string, principal bounty.Principal, source string)
	}

	switch cfg.StoreDriver {
	case "postgres":
		if cfg.PGDSN == "" {
			return nil, fmt.Errorf("postgres driver requires a DSN")
		}
		pg, err := storage.NewPGStore(ctx, cfg.PGDSN)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
		store = pg

		pgKeys, err := auth.NewPGAPIKeyStore(ctx, cfg.PGDSN)
		if err != nil {
			return nil, fmt.Errorf("init api key store: %w", err)
		}
		keyStore = pgKeys
	default:
		store = storage.NewMemoryStore()
		keyStore = auth.NewAPIKeyStore()
	}

	if cfg.APIKeySeed != "" {
		keyStore.Seed(cfg.APIKeySeed, cfg.SeedPrincipal, "bootstrap")
	}

	marketplaceService := services.NewMarketplaceService(store)
	qrService := services.NewQRCodeService()
	healthService := services.NewHealthService()
	challenges := auth.NewChallengeStore(cfg.ChallengeTTL)

	return &Container{
		Store:      store,
		APIKeys:    keyStore,
		KeyIssuer:  keyStore,
		Challenges: challenges,

		MarketplaceService: marketplaceService,
		QRCodeService:      qrService,
		HealthService:      healthService,

		HealthHandler:      handlers.NewHealthHandler(healthService),
		MarketplaceHandler: handlers.NewMarketplaceHandler(marketplaceService),
		BountyHandler:      handlers.NewBountyHandler(marketplaceService),
		AgentHandler:       handlers.NewAgentHandler(marketplaceService, cfg.FaucetAmount),
		APIKeyHandler:      handlers.NewAPIKeyHandler(keyStore, keyStore, challenges),
		QRCodeHandler:      handlers.NewQRCodeHandler(qrService, marketplaceService),
	}, nil
}

// Close releases the storage backends.
func (c *Container) Close() {
	c.Store.Close()
}
