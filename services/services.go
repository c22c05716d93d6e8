package services

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"time"

	"github.com/skip2/go-qrcode"

	"agentbounty-backend/core/bounty"
	"agentbounty-backend/metrics"
	storage "agentbounty-backend/storage/bounty"
)

// MarketplaceService wraps the store with instrumentation and carries the
// instruction dispatch used by the wire-level entry points.
type MarketplaceService struct {
	store storage.Store
}

// NewMarketplaceService creates a new marketplace service.
func NewMarketplaceService(store storage.Store) *MarketplaceService {
	return &MarketplaceService{store: store}
}

// Store exposes the underlying store for read-only surfaces.
func (s *MarketplaceService) Store() storage.Store {
	return s.store
}

// Initialize creates the singleton registry with the given authority.
func (s *MarketplaceService) Initialize(ctx context.Context, authority bounty.Principal) (bounty.Marketplace, error) {
	m, err := s.store.InitializeMarketplace(ctx, authority)
	metrics.RecordOp("initialize_marketplace", err)
	return m, err
}

// CreateBounty escrows the reward and opens a new bounty.
func (s *MarketplaceService) CreateBounty(ctx context.Context, creator bounty.Principal, p bounty.CreateBountyParams) (bounty.Bounty, error) {
	b, err := s.store.CreateBounty(ctx, creator, p)
	metrics.RecordOp("create_bounty", err)
	if err == nil {
		metrics.EscrowedVolume.Add(float64(p.Reward))
	}
	return b, err
}

// ClaimBounty assigns an open bounty to the agent.
func (s *MarketplaceService) ClaimBounty(ctx context.Context, id uint64, agent bounty.Principal) (bounty.Bounty, error) {
	b, err := s.store.ClaimBounty(ctx, id, agent)
	metrics.RecordOp("claim_bounty", err)
	return b, err
}

// SubmitCompletion records the assigned agent's work for review.
func (s *MarketplaceService) SubmitCompletion(ctx context.Context, id uint64, agent bounty.Principal, completionData, submissionURL string) (bounty.Bounty, error) {
	b, err := s.store.SubmitCompletion(ctx, id, agent, completionData, submissionURL)
	metrics.RecordOp("submit_completion", err)
	return b, err
}

// ApproveCompletion releases the escrow and credits the agent.
func (s *MarketplaceService) ApproveCompletion(ctx context.Context, id uint64, creator bounty.Principal) (bounty.Bounty, bounty.Payout, error) {
	b, payout, err := s.store.ApproveCompletion(ctx, id, creator)
	metrics.RecordOp("approve_completion", err)
	if err == nil {
		metrics.ReleasedVolume.WithLabelValues("agent").Add(float64(payout.AgentPayment))
		metrics.ReleasedVolume.WithLabelValues("platform").Add(float64(payout.PlatformFee))
	}
	return b, payout, err
}

// RejectCompletion sends the bounty back to the open pool.
func (s *MarketplaceService) RejectCompletion(ctx context.Context, id uint64, creator bounty.Principal, reason string) (bounty.Bounty, error) {
	b, err := s.store.RejectCompletion(ctx, id, creator, reason)
	metrics.RecordOp("reject_completion", err)
	return b, err
}

// GetBounty returns one bounty by ID.
func (s *MarketplaceService) GetBounty(ctx context.Context, id uint64) (bounty.Bounty, error) {
	return s.store.GetBounty(ctx, id)
}

// ListBounties returns bounties matching the filter.
func (s *MarketplaceService) ListBounties(ctx context.Context, filter bounty.BountyFilter) ([]bounty.Bounty, error) {
	return s.store.ListBounties(ctx, filter)
}

// GetAgentProfile returns the reputation record for an agent.
func (s *MarketplaceService) GetAgentProfile(ctx context.Context, agent bounty.Principal) (bounty.AgentProfile, error) {
	return s.store.GetAgentProfile(ctx, agent)
}

// GetVault returns the escrow view for a bounty.
func (s *MarketplaceService) GetVault(ctx context.Context, id uint64) (bounty.Vault, error) {
	return s.store.GetVault(ctx, id)
}

// Marketplace returns the registry record.
func (s *MarketplaceService) Marketplace(ctx context.Context) (bounty.Marketplace, error) {
	return s.store.Marketplace(ctx)
}

// Balance returns the token balance for an account.
func (s *MarketplaceService) Balance(ctx context.Context, account bounty.Principal) (uint64, error) {
	return s.store.Balance(ctx, account)
}

// Faucet credits a dev account.
func (s *MarketplaceService) Faucet(ctx context.Context, account bounty.Principal, amount uint64) error {
	return s.store.Faucet(ctx, account, amount)
}

// DispatchResult carries whichever records an instruction produced.
type DispatchResult struct {
	Marketplace *bounty.Marketplace `json:"marketplace,omitempty"`
	Bounty      *bounty.Bounty      `json:"bounty,omitempty"`
	Payout      *bounty.Payout      `json:"payout,omitempty"`
}

// Dispatch applies one decoded instruction on behalf of the signer. This is
// the single entry point for wire-encoded operations.
func (s *MarketplaceService) Dispatch(ctx context.Context, signer bounty.Principal, in bounty.Instruction) (DispatchResult, error) {
	switch v := in.(type) {
	case bounty.InitializeMarketplace:
		m, err := s.Initialize(ctx, signer)
		if err != nil {
			return DispatchResult{}, err
		}
		return DispatchResult{Marketplace: &m}, nil
	case bounty.CreateBountyInstruction:
		b, err := s.CreateBounty(ctx, signer, bounty.CreateBountyParams{
			Title:        v.Title,
			Description:  v.Description,
			Requirements: v.Requirements,
			Reward:       v.Reward,
			Deadline:     v.Deadline,
		})
		if err != nil {
			return DispatchResult{}, err
		}
		return DispatchResult{Bounty: &b}, nil
	case bounty.ClaimBountyInstruction:
		b, err := s.ClaimBounty(ctx, v.BountyID, signer)
		if err != nil {
			return DispatchResult{}, err
		}
		return DispatchResult{Bounty: &b}, nil
	case bounty.SubmitCompletionInstruction:
		b, err := s.SubmitCompletion(ctx, v.BountyID, signer, v.CompletionData, v.SubmissionURL)
		if err != nil {
			return DispatchResult{}, err
		}
		return DispatchResult{Bounty: &b}, nil
	case bounty.ApproveCompletionInstruction:
		b, payout, err := s.ApproveCompletion(ctx, v.BountyID, signer)
		if err != nil {
			return DispatchResult{}, err
		}
		return DispatchResult{Bounty: &b, Payout: &payout}, nil
	case bounty.RejectCompletionInstruction:
		b, err := s.RejectCompletion(ctx, v.BountyID, signer, v.Reason)
		if err != nil {
			return DispatchResult{}, err
		}
		return DispatchResult{Bounty: &b}, nil
	}
	return DispatchResult{}, fmt.Errorf("unknown instruction %T", in)
}

// QRCodeService handles QR code generation
type QRCodeService struct{}

// NewQRCodeService creates a new QR code service
func NewQRCodeService() *QRCodeService {
	return &QRCodeService{}
}

// GenerateQRCode generates a QR code for a vault address and amount.
func (s *QRCodeService) GenerateQRCode(address, amount string) ([]byte, error) {
	qr, err := qrcode.New(address+"?amount="+amount, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR code: %w", err)
	}

	buf := new(bytes.Buffer)
	err = png.Encode(buf, qr.Image(256))
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR code to PNG: %w", err)
	}

	return buf.Bytes(), nil
}

// HealthResponse is the /health payload.
type HealthResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// HealthService handles health check business logic
type HealthService struct{}

// NewHealthService creates a new health service
func NewHealthService() *HealthService {
	return &HealthService{}
}

// GetHealthStatus returns current health status
func (s *HealthService) GetHealthStatus() *HealthResponse {
	return &HealthResponse{
		Status:    "healthy",
		Message:   "Backend is running",
		Timestamp: time.Now().Unix(),
	}
}
