package bounty

// Field limits, enforced before any record is mutated.
const (
	MaxTitleLen           = 100
	MaxDescriptionLen     = 500
	MaxRequirementsLen    = 200
	MaxCompletionDataLen  = 500
	MaxSubmissionURLLen   = 100
	MaxRejectionReasonLen = 200
)

// Reputation and fee constants.
const (
	InitialReputation     = 1000
	ReputationPerApproval = 50
	PlatformFeePercent    = 5
)

// ValidateCreate checks the creator-supplied fields of create_bounty.
func ValidateCreate(p CreateBountyParams, now int64) error {
	if len(p.Title) > MaxTitleLen {
		return ErrTitleTooLong
	}
	if len(p.Description) > MaxDescriptionLen {
		return ErrDescriptionTooLong
	}
	if len(p.Requirements) > MaxRequirementsLen {
		return ErrRequirementsTooLong
	}
	if p.Reward == 0 {
		return ErrInvalidReward
	}
	if p.Deadline <= now {
		return ErrInvalidDeadline
	}
	return nil
}

// NewBounty validates params and allocates an open bounty with the given
// sequence id. All optional fields start empty.
func NewBounty(id uint64, creator Principal, p CreateBountyParams, now int64) (Bounty, error) {
	if err := ValidateCreate(p, now); err != nil {
		return Bounty{}, err
	}
	return Bounty{
		ID:           id,
		Creator:      creator,
		Title:        p.Title,
		Description:  p.Description,
		Requirements: p.Requirements,
		Reward:       p.Reward,
		Deadline:     p.Deadline,
		Status:       StatusOpen,
		CreatedAt:    now,
	}, nil
}

// Claim moves an open, unexpired bounty to in_progress and assigns the agent.
func (b *Bounty) Claim(agent Principal, now int64) error {
	if b.Status != StatusOpen {
		return ErrBountyNotOpen
	}
	if b.Deadline <= now {
		return ErrBountyExpired
	}
	b.Status = StatusInProgress
	b.AssignedAgent = &agent
	return nil
}

// SubmitCompletion moves an in-progress bounty to pending_review, recording
// the agent's deliverables. Only the assigned agent may submit.
func (b *Bounty) SubmitCompletion(agent Principal, completionData, submissionURL string, now int64) error {
	if len(completionData) > MaxCompletionDataLen {
		return ErrCompletionDataTooLong
	}
	if len(submissionURL) > MaxSubmissionURLLen {
		return ErrURLTooLong
	}
	if b.Status != StatusInProgress {
		return ErrBountyNotInProgress
	}
	if b.AssignedAgent == nil || *b.AssignedAgent != agent {
		return ErrNotAssignedAgent
	}
	b.Status = StatusPendingReview
	b.CompletionData = &completionData
	b.SubmissionURL = &submissionURL
	b.SubmittedAt = &now
	return nil
}

// ApproveCompletion finalizes a pending-review bounty. It mutates the record
// to completed and returns the escrow payout split the caller must settle
// atomically with this transition.
func (b *Bounty) ApproveCompletion(creator Principal, now int64) (Payout, error) {
	if b.Status != StatusPendingReview {
		return Payout{}, ErrBountyNotPendingReview
	}
	if b.Creator != creator {
		return Payout{}, ErrNotBountyCreator
	}
	b.Status = StatusCompleted
	b.CompletedAt = &now
	fee, payment := SplitReward(b.Reward)
	return Payout{
		Agent:        *b.AssignedAgent,
		AgentPayment: payment,
		PlatformFee:  fee,
		Vault:        VaultAddress(b.Creator, b.ID),
	}, nil
}

// RejectCompletion returns a pending-review bounty to the open pool. The
// submission fields are cleared; the rejection reason replaces any prior
// one. Escrowed funds are untouched.
func (b *Bounty) RejectCompletion(creator Principal, reason string) error {
	if len(reason) > MaxRejectionReasonLen {
		return ErrReasonTooLong
	}
	if b.Status != StatusPendingReview {
		return ErrBountyNotPendingReview
	}
	if b.Creator != creator {
		return ErrNotBountyCreator
	}
	b.Status = StatusOpen
	b.AssignedAgent = nil
	b.CompletionData = nil
	b.SubmissionURL = nil
	b.SubmittedAt = nil
	b.RejectionReason = &reason
	return nil
}

// SplitReward computes the platform fee and the agent's net payment. The fee
// is truncated toward zero by integer division; the agent receives the rest,
// so the two always sum to the full reward.
func SplitReward(reward uint64) (fee, payment uint64) {
	fee = reward * PlatformFeePercent / 100
	return fee, reward - fee
}

// NewAgentProfile allocates a fresh profile with the starting reputation.
func NewAgentProfile(agent Principal) AgentProfile {
	return AgentProfile{
		Agent:           agent,
		ReputationScore: InitialReputation,
	}
}

// RecordApproval applies the reputation side effect of a successful
// approval. This is the only write path for agent reputation.
func (p *AgentProfile) RecordApproval(agentPayment uint64) {
	p.CompletedBounties++
	p.TotalEarned += agentPayment
	p.ReputationScore += ReputationPerApproval
}

// Matches reports whether b satisfies the filter.
func (f BountyFilter) Matches(b Bounty) bool {
	if f.Status != nil && b.Status != *f.Status {
		return false
	}
	if f.Creator != nil && b.Creator != *f.Creator {
		return false
	}
	if f.Agent != nil {
		if b.AssignedAgent == nil || *b.AssignedAgent != *f.Agent {
			return false
		}
	}
	return true
}
