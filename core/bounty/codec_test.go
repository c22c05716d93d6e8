package bounty

import (
	"bytes"
	"testing"
)

func ptr[T any](v T) *T { return &v }

func TestMarketplaceRoundTrip(t *testing.T) {
	m := Marketplace{
		Authority:     testPrincipal(9),
		TotalBounties: 42,
		TotalVolume:   1_000_000_000,
	}
	data := m.Marshal()
	got, err := UnmarshalMarketplace(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != m {
		t.Fatalf("round trip mismatch: %+v != %+v", got, m)
	}
	if !bytes.Equal(got.Marshal(), data) {
		t.Fatalf("re-encode differs from original bytes")
	}
}

func TestBountyRoundTrip(t *testing.T) {
	agent := testPrincipal(2)
	cases := []struct {
		name string
		b    Bounty
	}{
		{"fresh open bounty", Bounty{
			ID:           0,
			Creator:      testPrincipal(1),
			Title:        "Label text",
			Description:  "desc",
			Requirements: "reqs",
			Reward:       100_000_000,
			Deadline:     1_700_086_400,
			Status:       StatusOpen,
			CreatedAt:    1_700_000_000,
		}},
		{"pending review with all optionals", Bounty{
			ID:             3,
			Creator:        testPrincipal(1),
			Title:          "t",
			Description:    "d",
			Requirements:   "r",
			Reward:         500,
			Deadline:       2_000,
			Status:         StatusPendingReview,
			AssignedAgent:  &agent,
			CreatedAt:      1_000,
			SubmittedAt:    ptr(int64(1_500)),
			CompletionData: ptr("done"),
			SubmissionURL:  ptr("http://x"),
		}},
		{"reopened after rejection", Bounty{
			ID:              4,
			Creator:         testPrincipal(1),
			Title:           "t",
			Description:     "d",
			Requirements:    "r",
			Reward:          500,
			Deadline:        2_000,
			Status:          StatusOpen,
			CreatedAt:       1_000,
			RejectionReason: ptr("insufficient proof"),
		}},
		{"completed", Bounty{
			ID:             5,
			Creator:        testPrincipal(1),
			Title:          "t",
			Description:    "d",
			Requirements:   "r",
			Reward:         500,
			Deadline:       2_000,
			Status:         StatusCompleted,
			AssignedAgent:  &agent,
			CreatedAt:      1_000,
			SubmittedAt:    ptr(int64(1_500)),
			CompletedAt:    ptr(int64(1_600)),
			CompletionData: ptr("done"),
			SubmissionURL:  ptr("http://x"),
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data := tc.b.Marshal()
			got, err := UnmarshalBounty(data)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if !bytes.Equal(got.Marshal(), data) {
				t.Fatalf("re-encode differs from original bytes")
			}
			if got.ID != tc.b.ID || got.Status != tc.b.Status || got.Title != tc.b.Title {
				t.Fatalf("round trip mismatch: %+v != %+v", got, tc.b)
			}
		})
	}
}

func TestAgentProfileRoundTrip(t *testing.T) {
	p := AgentProfile{
		Agent:             testPrincipal(2),
		ReputationScore:   1050,
		CompletedBounties: 1,
		TotalEarned:       95_000_000,
	}
	data := p.Marshal()
	got, err := UnmarshalAgentProfile(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != p {
		t.Fatalf("round trip mismatch: %+v != %+v", got, p)
	}
	if !bytes.Equal(got.Marshal(), data) {
		t.Fatalf("re-encode differs from original bytes")
	}
}

func TestDecodeRejectsMalformedRecords(t *testing.T) {
	b := Bounty{
		ID:           0,
		Creator:      testPrincipal(1),
		Title:        "t",
		Description:  "d",
		Requirements: "r",
		Reward:       1,
		Deadline:     2,
		Status:       StatusOpen,
		CreatedAt:    1,
	}
	data := b.Marshal()

	t.Run("truncated", func(t *testing.T) {
		if _, err := UnmarshalBounty(data[:len(data)-1]); err == nil {
			t.Fatal("expected error for truncated record")
		}
	})
	t.Run("trailing bytes", func(t *testing.T) {
		if _, err := UnmarshalBounty(append(append([]byte{}, data...), 0)); err == nil {
			t.Fatal("expected error for trailing bytes")
		}
	})
	t.Run("bad option flag", func(t *testing.T) {
		bad := append([]byte{}, data...)
		// The assigned_agent presence flag follows the status byte.
		off := 8 + 32 + (4 + 1) + (4 + 1) + (4 + 1) + 8 + 8 + 1
		bad[off] = 2
		if _, err := UnmarshalBounty(bad); err == nil {
			t.Fatal("expected error for invalid option flag")
		}
	})
	t.Run("bad status discriminant", func(t *testing.T) {
		bad := append([]byte{}, data...)
		off := 8 + 32 + (4 + 1) + (4 + 1) + (4 + 1) + 8 + 8
		bad[off] = 200
		if _, err := UnmarshalBounty(bad); err == nil {
			t.Fatal("expected error for invalid status")
		}
	})
	t.Run("oversized string length", func(t *testing.T) {
		bad := append([]byte{}, data...)
		// Title length prefix sits right after id + creator.
		bad[8+32] = 0xff
		bad[8+32+1] = 0xff
		if _, err := UnmarshalBounty(bad); err == nil {
			t.Fatal("expected error for oversized string")
		}
	})
}

func TestInstructionRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		in   Instruction
	}{
		{"initialize", InitializeMarketplace{}},
		{"create_bounty", CreateBountyInstruction{
			Title:        "Label text",
			Description:  "desc",
			Requirements: "reqs",
			Reward:       100_000_000,
			Deadline:     1_700_086_400,
		}},
		{"claim_bounty", ClaimBountyInstruction{BountyID: 3}},
		{"submit_completion", SubmitCompletionInstruction{
			BountyID:       3,
			CompletionData: "done",
			SubmissionURL:  "http://x",
		}},
		{"approve_completion", ApproveCompletionInstruction{BountyID: 3}},
		{"reject_completion", RejectCompletionInstruction{BountyID: 3, Reason: "insufficient proof"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data := MarshalInstruction(tc.in)
			got, err := UnmarshalInstruction(data)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got != tc.in {
				t.Fatalf("round trip mismatch: %+v != %+v", got, tc.in)
			}
			if !bytes.Equal(MarshalInstruction(got), data) {
				t.Fatalf("re-encode differs from original bytes")
			}
		})
	}

	if _, err := UnmarshalInstruction([]byte{99}); err == nil {
		t.Fatal("expected error for unknown discriminant")
	}
}
