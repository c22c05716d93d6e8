// Package bounty persists marketplace state. Both implementations apply the
// lifecycle rules from core/bounty; the store's job is atomicity, so every
// operation either fully commits or leaves no trace.
package bounty

import (
	"context"

	"agentbounty-backend/core/bounty"
)

// Store is the persistence boundary for the marketplace.
type Store interface {
	// InitializeMarketplace creates the singleton registry. Fails with
	// ErrMarketplaceExists if called twice.
	InitializeMarketplace(ctx context.Context, authority bounty.Principal) (bounty.Marketplace, error)
	Marketplace(ctx context.Context) (bounty.Marketplace, error)

	// CreateBounty assigns the next sequential ID, moves the reward from
	// the creator's account into the bounty vault, and bumps the registry
	// counters. The creator must hold at least the reward amount.
	CreateBounty(ctx context.Context, creator bounty.Principal, p bounty.CreateBountyParams) (bounty.Bounty, error)
	ClaimBounty(ctx context.Context, id uint64, agent bounty.Principal) (bounty.Bounty, error)
	SubmitCompletion(ctx context.Context, id uint64, agent bounty.Principal, completionData, submissionURL string) (bounty.Bounty, error)

	// ApproveCompletion releases the vault: the fee share to the platform
	// account, the rest to the assigned agent, and credits the agent's
	// reputation in the same atomic step.
	ApproveCompletion(ctx context.Context, id uint64, creator bounty.Principal) (bounty.Bounty, bounty.Payout, error)
	RejectCompletion(ctx context.Context, id uint64, creator bounty.Principal, reason string) (bounty.Bounty, error)

	GetBounty(ctx context.Context, id uint64) (bounty.Bounty, error)
	ListBounties(ctx context.Context, filter bounty.BountyFilter) ([]bounty.Bounty, error)
	GetAgentProfile(ctx context.Context, agent bounty.Principal) (bounty.AgentProfile, error)
	GetVault(ctx context.Context, id uint64) (bounty.Vault, error)

	// Balance and Faucet expose the funds primitive. Faucet is a dev
	// convenience for seeding creator accounts.
	Balance(ctx context.Context, account bounty.Principal) (uint64, error)
	Faucet(ctx context.Context, account bounty.Principal, amount uint64) error

	Close()
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*PGStore)(nil)
)
