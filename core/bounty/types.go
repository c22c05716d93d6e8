package bounty

import (
	"encoding/hex"
	"fmt"
)

// Principal is an authenticated identity able to sign operations. It is a
// fixed-size opaque identifier; callers never see key material through it.
type Principal [32]byte

// ZeroPrincipal is the all-zero identity, used only as a sentinel.
var ZeroPrincipal Principal

// ParsePrincipal decodes a 64-character hex identity string.
func ParsePrincipal(s string) (Principal, error) {
	var p Principal
	b, err := hex.DecodeString(s)
	if err != nil {
		return p, fmt.Errorf("invalid principal %q: %w", s, err)
	}
	if len(b) != len(p) {
		return p, fmt.Errorf("invalid principal %q: want %d bytes, got %d", s, len(p), len(b))
	}
	copy(p[:], b)
	return p, nil
}

func (p Principal) String() string { return hex.EncodeToString(p[:]) }

// IsZero reports whether p is the sentinel zero identity.
func (p Principal) IsZero() bool { return p == ZeroPrincipal }

// MarshalText implements encoding.TextMarshaler so principals render as hex
// in JSON payloads.
func (p Principal) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Principal) UnmarshalText(text []byte) error {
	parsed, err := ParsePrincipal(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Status is the lifecycle state of a bounty.
type Status uint8

const (
	StatusOpen Status = iota
	StatusInProgress
	StatusPendingReview
	StatusCompleted
	StatusExpired
)

var statusNames = map[Status]string{
	StatusOpen:          "open",
	StatusInProgress:    "in_progress",
	StatusPendingReview: "pending_review",
	StatusCompleted:     "completed",
	StatusExpired:       "expired",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

// ParseStatus maps a status name back to its discriminant.
func ParseStatus(name string) (Status, error) {
	for s, n := range statusNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown bounty status %q", name)
}

// Terminal reports whether no further transition leaves s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusExpired
}

// MarshalText renders the status name in JSON payloads.
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Marketplace is the singleton registry record. It is created once per
// deployment and mutated only by bounty creation.
type Marketplace struct {
	Authority     Principal `json:"authority"`
	TotalBounties uint64    `json:"total_bounties"`
	TotalVolume   uint64    `json:"total_volume"`
}

// Bounty is one task record. Identity fields are immutable after creation;
// the lifecycle mutates status and the optional fields in place.
type Bounty struct {
	ID              uint64     `json:"id"`
	Creator         Principal  `json:"creator"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Requirements    string     `json:"requirements"`
	Reward          uint64     `json:"reward"`
	Deadline        int64      `json:"deadline"`
	Status          Status     `json:"status"`
	AssignedAgent   *Principal `json:"assigned_agent,omitempty"`
	CreatedAt       int64      `json:"created_at"`
	SubmittedAt     *int64     `json:"submitted_at,omitempty"`
	CompletedAt     *int64     `json:"completed_at,omitempty"`
	CompletionData  *string    `json:"completion_data,omitempty"`
	SubmissionURL   *string    `json:"submission_url,omitempty"`
	RejectionReason *string    `json:"rejection_reason,omitempty"`
}

// AgentProfile tracks per-agent reputation and earnings. Created lazily on
// the agent's first claim, never deleted.
type AgentProfile struct {
	Agent             Principal `json:"agent"`
	ReputationScore   uint32    `json:"reputation_score"`
	CompletedBounties uint32    `json:"completed_bounties"`
	TotalEarned       uint64    `json:"total_earned"`
}

// CreateBountyParams carries the creator-supplied fields of create_bounty.
type CreateBountyParams struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Requirements string `json:"requirements"`
	Reward       uint64 `json:"reward"`
	Deadline     int64  `json:"deadline"`
}

// Payout is the result of releasing a bounty's escrow on approval.
type Payout struct {
	Agent        Principal `json:"agent"`
	AgentPayment uint64    `json:"agent_payment"`
	PlatformFee  uint64    `json:"platform_fee"`
	Vault        Principal `json:"vault"`
}

// BountyFilter narrows list queries over the bounty set.
type BountyFilter struct {
	Status  *Status
	Creator *Principal
	Agent   *Principal
	Limit   int
	Offset  int
}
