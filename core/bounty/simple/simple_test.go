package simple

import (
	"bytes"
	"errors"
	"testing"

	"agentbounty-backend/core/bounty"
)

func testPrincipal(b byte) bounty.Principal {
	var p bounty.Principal
	for i := range p {
		p[i] = b
	}
	return p
}

func TestLifecycle(t *testing.T) {
	creator := testPrincipal(1)
	agent := testPrincipal(2)

	var b Bounty
	if err := Process(&b, creator, CreateBounty{Title: "index docs", Description: "crawl and index", Reward: 500}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if b.Status != StatusOpen || b.Creator != creator || b.AssignedAgent != nil {
		t.Fatalf("unexpected record after create: %+v", b)
	}

	if err := Process(&b, agent, ClaimBounty{}); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if b.Status != StatusInProgress || b.AssignedAgent == nil || *b.AssignedAgent != agent {
		t.Fatalf("unexpected record after claim: %+v", b)
	}

	if err := Process(&b, agent, CompleteBounty{}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if b.Status != StatusCompleted {
		t.Fatalf("status = %v, want completed", b.Status)
	}
}

func TestProcessRejections(t *testing.T) {
	creator := testPrincipal(1)
	agent := testPrincipal(2)
	other := testPrincipal(3)

	var b Bounty
	if err := Process(&b, creator, CreateBounty{Title: "t", Reward: 1}); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := Process(&b, agent, CompleteBounty{}); !errors.Is(err, ErrBountyNotInProgress) {
		t.Fatalf("complete before claim: %v", err)
	}
	if err := Process(&b, agent, ClaimBounty{}); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := Process(&b, other, ClaimBounty{}); !errors.Is(err, ErrBountyNotOpen) {
		t.Fatalf("double claim: %v", err)
	}
	if err := Process(&b, other, CompleteBounty{}); !errors.Is(err, ErrNotAssignedAgent) {
		t.Fatalf("complete by stranger: %v", err)
	}
	if b.Status != StatusInProgress {
		t.Fatalf("rejected instruction mutated status: %v", b.Status)
	}
	if err := Process(&b, agent, CompleteBounty{}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := Process(&b, agent, ClaimBounty{}); !errors.Is(err, ErrBountyNotOpen) {
		t.Fatalf("claim after completion: %v", err)
	}
}

func TestBountyRoundTrip(t *testing.T) {
	agent := testPrincipal(9)
	records := []Bounty{
		{Creator: testPrincipal(1), Title: "scrape", Description: "nightly scrape", Reward: 42, Status: StatusOpen},
		{Creator: testPrincipal(1), Title: "scrape", Reward: 42, Status: StatusInProgress, AssignedAgent: &agent},
		{Creator: testPrincipal(4), Status: StatusCompleted, AssignedAgent: &agent},
	}
	for _, rec := range records {
		raw := rec.Marshal()
		got, err := UnmarshalBounty(raw)
		if err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if !bytes.Equal(got.Marshal(), raw) {
			t.Fatalf("re-encoding diverged for %+v", rec)
		}
	}
}

func TestInstructionRoundTrip(t *testing.T) {
	instrs := []Instruction{
		CreateBounty{Title: "t", Description: "d", Reward: 7},
		ClaimBounty{},
		CompleteBounty{},
	}
	for _, in := range instrs {
		raw := MarshalInstruction(in)
		got, err := UnmarshalInstruction(raw)
		if err != nil {
			t.Fatalf("unmarshal %T: %v", in, err)
		}
		if !bytes.Equal(MarshalInstruction(got), raw) {
			t.Fatalf("re-encoding diverged for %T", in)
		}
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	raw := Bounty{Creator: testPrincipal(1), Title: "t", Reward: 1}.Marshal()

	if _, err := UnmarshalBounty(raw[:len(raw)-1]); err == nil {
		t.Fatal("truncated record accepted")
	}
	if _, err := UnmarshalBounty(append(append([]byte{}, raw...), 0)); err == nil {
		t.Fatal("trailing byte accepted")
	}

	bad := append([]byte{}, raw...)
	bad[len(bad)-1] = 2
	if _, err := UnmarshalBounty(bad); err == nil {
		t.Fatal("invalid option flag accepted")
	}

	if _, err := UnmarshalInstruction([]byte{99}); err == nil {
		t.Fatal("unknown discriminant accepted")
	}
}
