package bounty

import (
	"context"
	"errors"
	"strings"
	"testing"

	"agentbounty-backend/core/bounty"
	"agentbounty-backend/token"
)

func testPrincipal(b byte) bounty.Principal {
	var p bounty.Principal
	for i := range p {
		p[i] = b
	}
	return p
}

var (
	authority = testPrincipal(0xAA)
	creator   = testPrincipal(1)
	agent     = testPrincipal(2)
)

const reward = 100_000_000

// newTestStore returns an initialized store with a funded creator and a
// frozen clock starting at t=1000.
func newTestStore(t *testing.T) (*MemoryStore, *int64) {
	t.Helper()
	now := int64(1000)
	s := NewMemoryStore()
	s.SetClock(func() int64 { return now })
	ctx := context.Background()

	if _, err := s.InitializeMarketplace(ctx, authority); err != nil {
		t.Fatalf("init marketplace: %v", err)
	}
	if err := s.Faucet(ctx, creator, reward*10); err != nil {
		t.Fatalf("faucet: %v", err)
	}
	return s, &now
}

func params() bounty.CreateBountyParams {
	return bounty.CreateBountyParams{
		Title:        "index the docs site",
		Description:  "crawl docs.example.com and build a search index",
		Requirements: "index served over HTTP, p95 under 50ms",
		Reward:       reward,
		Deadline:     1000 + 86400,
	}
}

func TestFullLifecycle(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	b, err := s.CreateBounty(ctx, creator, params())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if b.ID != 0 || b.Status != bounty.StatusOpen {
		t.Fatalf("unexpected bounty after create: %+v", b)
	}

	vault, err := s.GetVault(ctx, b.ID)
	if err != nil {
		t.Fatalf("vault: %v", err)
	}
	if vault.Balance != reward {
		t.Fatalf("vault balance = %d, want %d", vault.Balance, reward)
	}
	if got, _ := s.Balance(ctx, creator); got != reward*9 {
		t.Fatalf("creator balance = %d after escrow, want %d", got, reward*9)
	}

	if _, err := s.ClaimBounty(ctx, b.ID, agent); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if _, err := s.SubmitCompletion(ctx, b.ID, agent, "done, index live", "https://example.com/pr/1"); err != nil {
		t.Fatalf("submit: %v", err)
	}

	final, payout, err := s.ApproveCompletion(ctx, b.ID, creator)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if final.Status != bounty.StatusCompleted {
		t.Fatalf("status = %v, want completed", final.Status)
	}
	if payout.AgentPayment != 95_000_000 || payout.PlatformFee != 5_000_000 {
		t.Fatalf("payout split = %d/%d", payout.AgentPayment, payout.PlatformFee)
	}
	if got, _ := s.Balance(ctx, agent); got != payout.AgentPayment {
		t.Fatalf("agent balance = %d, want %d", got, payout.AgentPayment)
	}
	if got, _ := s.Balance(ctx, authority); got != payout.PlatformFee {
		t.Fatalf("authority balance = %d, want %d", got, payout.PlatformFee)
	}
	if v, _ := s.GetVault(ctx, b.ID); v.Balance != 0 {
		t.Fatalf("vault not drained: %d", v.Balance)
	}

	profile, err := s.GetAgentProfile(ctx, agent)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if profile.ReputationScore != 1050 || profile.CompletedBounties != 1 || profile.TotalEarned != payout.AgentPayment {
		t.Fatalf("unexpected profile: %+v", profile)
	}

	m, _ := s.Marketplace(ctx)
	if m.TotalBounties != 1 || m.TotalVolume != reward {
		t.Fatalf("unexpected registry counters: %+v", m)
	}
}

func TestRejectionAndReclaim(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	other := testPrincipal(3)

	b, err := s.CreateBounty(ctx, creator, params())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.ClaimBounty(ctx, b.ID, agent); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if _, err := s.SubmitCompletion(ctx, b.ID, agent, "half done", "https://example.com/pr/2"); err != nil {
		t.Fatalf("submit: %v", err)
	}

	rejected, err := s.RejectCompletion(ctx, b.ID, creator, "index missing half the pages")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != bounty.StatusOpen || rejected.AssignedAgent != nil {
		t.Fatalf("reject did not reopen: %+v", rejected)
	}
	if rejected.CompletionData != nil || rejected.SubmissionURL != nil || rejected.SubmittedAt != nil {
		t.Fatalf("reject left submission fields: %+v", rejected)
	}
	if rejected.RejectionReason == nil || *rejected.RejectionReason != "index missing half the pages" {
		t.Fatalf("rejection reason not recorded: %+v", rejected.RejectionReason)
	}
	if v, _ := s.GetVault(ctx, b.ID); v.Balance != reward {
		t.Fatalf("reject touched the vault: %d", v.Balance)
	}

	// A different agent picks it up and finishes.
	if _, err := s.ClaimBounty(ctx, b.ID, other); err != nil {
		t.Fatalf("reclaim: %v", err)
	}
	if _, err := s.SubmitCompletion(ctx, b.ID, other, "all pages indexed", "https://example.com/pr/3"); err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if _, _, err := s.ApproveCompletion(ctx, b.ID, creator); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := s.GetAgentProfile(ctx, agent); err != nil {
		t.Fatalf("first claimant lost profile: %v", err)
	}
	profile, _ := s.GetAgentProfile(ctx, other)
	if profile.CompletedBounties != 1 {
		t.Fatalf("second claimant not credited: %+v", profile)
	}
}

func TestClaimAfterDeadline(t *testing.T) {
	s, now := newTestStore(t)
	ctx := context.Background()

	b, err := s.CreateBounty(ctx, creator, params())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	*now = b.Deadline
	if _, err := s.ClaimBounty(ctx, b.ID, agent); !errors.Is(err, bounty.ErrBountyExpired) {
		t.Fatalf("claim at deadline: %v", err)
	}

	// The record itself stays open; only the claim path checks time.
	got, _ := s.GetBounty(ctx, b.ID)
	if got.Status != bounty.StatusOpen {
		t.Fatalf("status = %v, want open", got.Status)
	}
}

func TestDoubleInitialize(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.InitializeMarketplace(context.Background(), testPrincipal(0xBB))
	if !errors.Is(err, bounty.ErrMarketplaceExists) {
		t.Fatalf("second init: %v", err)
	}
	m, _ := s.Marketplace(context.Background())
	if m.Authority != authority {
		t.Fatal("second init replaced the authority")
	}
}

func TestCreateValidation(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*bounty.CreateBountyParams)
		want   error
	}{
		{"title too long", func(p *bounty.CreateBountyParams) { p.Title = strings.Repeat("x", 101) }, bounty.ErrTitleTooLong},
		{"description too long", func(p *bounty.CreateBountyParams) { p.Description = strings.Repeat("x", 501) }, bounty.ErrDescriptionTooLong},
		{"requirements too long", func(p *bounty.CreateBountyParams) { p.Requirements = strings.Repeat("x", 201) }, bounty.ErrRequirementsTooLong},
		{"zero reward", func(p *bounty.CreateBountyParams) { p.Reward = 0 }, bounty.ErrInvalidReward},
		{"past deadline", func(p *bounty.CreateBountyParams) { p.Deadline = 999 }, bounty.ErrInvalidDeadline},
		{"deadline now", func(p *bounty.CreateBountyParams) { p.Deadline = 1000 }, bounty.ErrInvalidDeadline},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := params()
			tc.mutate(&p)
			if _, err := s.CreateBounty(ctx, creator, p); !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}

	m, _ := s.Marketplace(ctx)
	if m.TotalBounties != 0 {
		t.Fatalf("rejected creates bumped the counter: %d", m.TotalBounties)
	}
	if got, _ := s.Balance(ctx, creator); got != reward*10 {
		t.Fatalf("rejected creates moved funds: %d", got)
	}
}

func TestCreateInsufficientFunds(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	poor := testPrincipal(9)

	_, err := s.CreateBounty(ctx, poor, params())
	if !errors.Is(err, token.ErrInsufficientFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFunds", err)
	}
}

func TestUnauthorizedCallers(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	stranger := testPrincipal(7)

	b, err := s.CreateBounty(ctx, creator, params())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.ClaimBounty(ctx, b.ID, agent); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if _, err := s.SubmitCompletion(ctx, b.ID, stranger, "d", "https://example.com"); !errors.Is(err, bounty.ErrNotAssignedAgent) {
		t.Fatalf("submit by stranger: %v", err)
	}
	if _, err := s.SubmitCompletion(ctx, b.ID, agent, "d", "https://example.com"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, _, err := s.ApproveCompletion(ctx, b.ID, stranger); !errors.Is(err, bounty.ErrNotBountyCreator) {
		t.Fatalf("approve by stranger: %v", err)
	}
	if _, err := s.RejectCompletion(ctx, b.ID, stranger, "no"); !errors.Is(err, bounty.ErrNotBountyCreator) {
		t.Fatalf("reject by stranger: %v", err)
	}
}

func TestListBountiesFilter(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	otherCreator := testPrincipal(4)
	if err := s.Faucet(ctx, otherCreator, reward*10); err != nil {
		t.Fatalf("faucet: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := s.CreateBounty(ctx, creator, params()); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}
	if _, err := s.CreateBounty(ctx, otherCreator, params()); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.ClaimBounty(ctx, 1, agent); err != nil {
		t.Fatalf("claim: %v", err)
	}

	open := bounty.StatusOpen
	got, err := s.ListBounties(ctx, bounty.BountyFilter{Status: &open})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("open bounties = %d, want 3", len(got))
	}

	got, _ = s.ListBounties(ctx, bounty.BountyFilter{Creator: &creator})
	if len(got) != 3 {
		t.Fatalf("creator bounties = %d, want 3", len(got))
	}

	got, _ = s.ListBounties(ctx, bounty.BountyFilter{Agent: &agent})
	if len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("agent bounties = %+v", got)
	}

	got, _ = s.ListBounties(ctx, bounty.BountyFilter{Limit: 2, Offset: 1})
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 2 {
		t.Fatalf("paged bounties = %+v", got)
	}

	got, _ = s.ListBounties(ctx, bounty.BountyFilter{Offset: 10})
	if len(got) != 0 {
		t.Fatalf("offset past end returned %d rows", len(got))
	}
}

func TestGetUnknownRecords(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	if _, err := s.GetBounty(ctx, 42); !errors.Is(err, bounty.ErrBountyNotFound) {
		t.Fatalf("get: %v", err)
	}
	if _, err := s.ClaimBounty(ctx, 42, agent); !errors.Is(err, bounty.ErrBountyNotFound) {
		t.Fatalf("claim: %v", err)
	}
	if _, err := s.GetAgentProfile(ctx, agent); !errors.Is(err, bounty.ErrAgentNotFound) {
		t.Fatalf("profile: %v", err)
	}
}

func TestCreateRequiresMarketplace(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.CreateBounty(context.Background(), creator, params())
	if !errors.Is(err, bounty.ErrMarketplaceNotFound) {
		t.Fatalf("err = %v, want ErrMarketplaceNotFound", err)
	}
}
