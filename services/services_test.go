package services

import (
	"context"
	"testing"

	"agentbounty-backend/core/bounty"
	storage "agentbounty-backend/storage/bounty"
)

const testReward = 100_000_000

func testPrincipal(b byte) bounty.Principal {
	var p bounty.Principal
	for i := range p {
		p[i] = b
	}
	return p
}

var (
	testAuthority = testPrincipal(0xA1)
	testCreator   = testPrincipal(0xC2)
	testAgent     = testPrincipal(0xE3)
)

func newTestService(t *testing.T) *MarketplaceService {
	t.Helper()

	store := storage.NewMemoryStore()
	store.SetClock(func() int64 { return 1000 })

	svc := NewMarketplaceService(store)
	ctx := context.Background()
	if _, err := svc.Initialize(ctx, testAuthority); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := svc.Faucet(ctx, testCreator, testReward*10); err != nil {
		t.Fatalf("faucet: %v", err)
	}
	return svc
}

// dispatch decodes a wire instruction and applies it, the same path a
// transaction entry point would take.
func dispatchWire(t *testing.T, svc *MarketplaceService, signer bounty.Principal, in bounty.Instruction) (DispatchResult, error) {
	t.Helper()

	decoded, err := bounty.UnmarshalInstruction(bounty.MarshalInstruction(in))
	if err != nil {
		t.Fatalf("round-trip instruction %T: %v", in, err)
	}
	return svc.Dispatch(context.Background(), signer, decoded)
}

func TestDispatchLifecycle(t *testing.T) {
	svc := newTestService(t)

	res, err := dispatchWire(t, svc, testCreator, bounty.CreateBountyInstruction{
		Title:        "Index the archive",
		Description:  "Build a search index over the document archive",
		Requirements: "Queries answer in under 100ms",
		Reward:       testReward,
		Deadline:     1000 + 86400,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if res.Bounty == nil || res.Bounty.Status != bounty.StatusOpen {
		t.Fatalf("create result = %+v, want open bounty", res)
	}
	id := res.Bounty.ID

	if _, err := dispatchWire(t, svc, testAgent, bounty.ClaimBountyInstruction{BountyID: id}); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if _, err := dispatchWire(t, svc, testAgent, bounty.SubmitCompletionInstruction{
		BountyID:       id,
		CompletionData: "Index built and deployed",
		SubmissionURL:  "https://example.com/pr/7",
	}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	res, err = dispatchWire(t, svc, testCreator, bounty.ApproveCompletionInstruction{BountyID: id})
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if res.Payout == nil {
		t.Fatal("approve result missing payout")
	}
	if res.Payout.AgentPayment != 95_000_000 || res.Payout.PlatformFee != 5_000_000 {
		t.Errorf("payout = %d/%d, want 95000000/5000000", res.Payout.AgentPayment, res.Payout.PlatformFee)
	}
	if res.Bounty.Status != bounty.StatusCompleted {
		t.Errorf("status = %v, want completed", res.Bounty.Status)
	}
}

func TestDispatchReject(t *testing.T) {
	svc := newTestService(t)

	res, err := dispatchWire(t, svc, testCreator, bounty.CreateBountyInstruction{
		Title:        "Fix flaky importer",
		Description:  "The nightly importer fails roughly once a week",
		Requirements: "Thirty consecutive green runs",
		Reward:       testReward,
		Deadline:     1000 + 86400,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	id := res.Bounty.ID

	if _, err := dispatchWire(t, svc, testAgent, bounty.ClaimBountyInstruction{BountyID: id}); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if _, err := dispatchWire(t, svc, testAgent, bounty.SubmitCompletionInstruction{
		BountyID:       id,
		CompletionData: "Retried the flaky step",
		SubmissionURL:  "https://example.com/pr/8",
	}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	res, err = dispatchWire(t, svc, testCreator, bounty.RejectCompletionInstruction{
		BountyID: id,
		Reason:   "Retry hides the bug instead of fixing it",
	})
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if res.Bounty.Status != bounty.StatusOpen {
		t.Errorf("status = %v, want open", res.Bounty.Status)
	}
	if res.Bounty.AssignedAgent != nil {
		t.Error("assigned agent not cleared on rejection")
	}
	if res.Bounty.RejectionReason == nil {
		t.Error("rejection reason not recorded")
	}
}

func TestDispatchAuthorization(t *testing.T) {
	svc := newTestService(t)

	res, err := dispatchWire(t, svc, testCreator, bounty.CreateBountyInstruction{
		Title:        "Write the migration guide",
		Description:  "Document the v2 upgrade path",
		Requirements: "Covers every breaking change",
		Reward:       testReward,
		Deadline:     1000 + 86400,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	id := res.Bounty.ID

	if _, err := dispatchWire(t, svc, testAgent, bounty.ClaimBountyInstruction{BountyID: id}); err != nil {
		t.Fatalf("claim: %v", err)
	}

	// Only the assigned agent may submit.
	if _, err := dispatchWire(t, svc, testCreator, bounty.SubmitCompletionInstruction{
		BountyID:       id,
		CompletionData: "Done",
		SubmissionURL:  "https://example.com/pr/9",
	}); err != bounty.ErrNotAssignedAgent {
		t.Errorf("submit by stranger = %v, want %v", err, bounty.ErrNotAssignedAgent)
	}

	if _, err := dispatchWire(t, svc, testAgent, bounty.SubmitCompletionInstruction{
		BountyID:       id,
		CompletionData: "Guide drafted and reviewed",
		SubmissionURL:  "https://example.com/pr/9",
	}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	// Only the creator may approve.
	if _, err := dispatchWire(t, svc, testAgent, bounty.ApproveCompletionInstruction{BountyID: id}); err != bounty.ErrNotBountyCreator {
		t.Errorf("approve by agent = %v, want %v", err, bounty.ErrNotBountyCreator)
	}
}

func TestGenerateQRCode(t *testing.T) {
	svc := NewQRCodeService()

	data, err := svc.GenerateQRCode(testCreator.String(), "100000000")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("empty PNG payload")
	}
	// PNG magic bytes
	if string(data[:4]) != "\x89PNG" {
		t.Errorf("payload does not look like PNG: % x", data[:4])
	}
}
