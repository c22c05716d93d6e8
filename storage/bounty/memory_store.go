package bounty

import (
	"context"
	"sort"
	"sync"
	"time"

	"agentbounty-backend/core/bounty"
	"agentbounty-backend/token"
)

// MemoryStore keeps all marketplace state in process memory. Safe for
// concurrent use; every operation runs under one lock so partial updates are
// never observable.
type MemoryStore struct {
	mu          sync.RWMutex
	marketplace *bounty.Marketplace
	bounties    map[uint64]bounty.Bounty
	profiles    map[bounty.Principal]bounty.AgentProfile
	ledger      *token.MemoryLedger
	now         func() int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		bounties: make(map[uint64]bounty.Bounty),
		profiles: make(map[bounty.Principal]bounty.AgentProfile),
		ledger:   token.NewMemoryLedger(),
		now:      func() int64 { return time.Now().Unix() },
	}
}

// SetClock overrides the time source. Tests use this to cross deadlines
// without sleeping.
func (s *MemoryStore) SetClock(now func() int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemoryStore) InitializeMarketplace(ctx context.Context, authority bounty.Principal) (bounty.Marketplace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.marketplace != nil {
		return bounty.Marketplace{}, bounty.ErrMarketplaceExists
	}
	s.marketplace = &bounty.Marketplace{Authority: authority}
	return *s.marketplace, nil
}

func (s *MemoryStore) Marketplace(ctx context.Context) (bounty.Marketplace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.marketplace == nil {
		return bounty.Marketplace{}, bounty.ErrMarketplaceNotFound
	}
	return *s.marketplace, nil
}

func (s *MemoryStore) CreateBounty(ctx context.Context, creator bounty.Principal, p bounty.CreateBountyParams) (bounty.Bounty, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.marketplace == nil {
		return bounty.Bounty{}, bounty.ErrMarketplaceNotFound
	}

	id := s.marketplace.TotalBounties
	b, err := bounty.NewBounty(id, creator, p, s.now())
	if err != nil {
		return bounty.Bounty{}, err
	}

	vault := bounty.VaultAddress(creator, id)
	if err := s.ledger.Transfer(creator, vault, p.Reward); err != nil {
		return bounty.Bounty{}, err
	}

	s.bounties[id] = b
	s.marketplace.TotalBounties++
	s.marketplace.TotalVolume += p.Reward
	return b, nil
}

func (s *MemoryStore) ClaimBounty(ctx context.Context, id uint64, agent bounty.Principal) (bounty.Bounty, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bounties[id]
	if !ok {
		return bounty.Bounty{}, bounty.ErrBountyNotFound
	}
	if err := b.Claim(agent, s.now()); err != nil {
		return bounty.Bounty{}, err
	}
	if _, ok := s.profiles[agent]; !ok {
		s.profiles[agent] = bounty.NewAgentProfile(agent)
	}
	s.bounties[id] = b
	return b, nil
}

func (s *MemoryStore) SubmitCompletion(ctx context.Context, id uint64, agent bounty.Principal, completionData, submissionURL string) (bounty.Bounty, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bounties[id]
	if !ok {
		return bounty.Bounty{}, bounty.ErrBountyNotFound
	}
	if err := b.SubmitCompletion(agent, completionData, submissionURL, s.now()); err != nil {
		return bounty.Bounty{}, err
	}
	s.bounties[id] = b
	return b, nil
}

func (s *MemoryStore) ApproveCompletion(ctx context.Context, id uint64, creator bounty.Principal) (bounty.Bounty, bounty.Payout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.marketplace == nil {
		return bounty.Bounty{}, bounty.Payout{}, bounty.ErrMarketplaceNotFound
	}
	b, ok := s.bounties[id]
	if !ok {
		return bounty.Bounty{}, bounty.Payout{}, bounty.ErrBountyNotFound
	}

	payout, err := b.ApproveCompletion(creator, s.now())
	if err != nil {
		return bounty.Bounty{}, bounty.Payout{}, err
	}

	if err := s.ledger.Transfer(payout.Vault, payout.Agent, payout.AgentPayment); err != nil {
		return bounty.Bounty{}, bounty.Payout{}, err
	}
	if err := s.ledger.Transfer(payout.Vault, bounty.PlatformAccount(*s.marketplace), payout.PlatformFee); err != nil {
		return bounty.Bounty{}, bounty.Payout{}, err
	}

	profile, ok := s.profiles[payout.Agent]
	if !ok {
		profile = bounty.NewAgentProfile(payout.Agent)
	}
	profile.RecordApproval(payout.AgentPayment)
	s.profiles[payout.Agent] = profile

	s.bounties[id] = b
	return b, payout, nil
}

func (s *MemoryStore) RejectCompletion(ctx context.Context, id uint64, creator bounty.Principal, reason string) (bounty.Bounty, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bounties[id]
	if !ok {
		return bounty.Bounty{}, bounty.ErrBountyNotFound
	}
	if err := b.RejectCompletion(creator, reason); err != nil {
		return bounty.Bounty{}, err
	}
	s.bounties[id] = b
	return b, nil
}

func (s *MemoryStore) GetBounty(ctx context.Context, id uint64) (bounty.Bounty, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bounties[id]
	if !ok {
		return bounty.Bounty{}, bounty.ErrBountyNotFound
	}
	return b, nil
}

func (s *MemoryStore) ListBounties(ctx context.Context, filter bounty.BountyFilter) ([]bounty.Bounty, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]bounty.Bounty, 0, len(s.bounties))
	for _, b := range s.bounties {
		if filter.Matches(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return []bounty.Bounty{}, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *MemoryStore) GetAgentProfile(ctx context.Context, agent bounty.Principal) (bounty.AgentProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[agent]
	if !ok {
		return bounty.AgentProfile{}, bounty.ErrAgentNotFound
	}
	return p, nil
}

func (s *MemoryStore) GetVault(ctx context.Context, id uint64) (bounty.Vault, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bounties[id]
	if !ok {
		return bounty.Vault{}, bounty.ErrBountyNotFound
	}
	addr := bounty.VaultAddress(b.Creator, b.ID)
	return bounty.Vault{Bounty: b.ID, Address: addr, Balance: s.ledger.Balance(addr)}, nil
}

func (s *MemoryStore) Balance(ctx context.Context, account bounty.Principal) (uint64, error) {
	return s.ledger.Balance(account), nil
}

func (s *MemoryStore) Faucet(ctx context.Context, account bounty.Principal, amount uint64) error {
	s.ledger.Mint(account, amount)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() {}
