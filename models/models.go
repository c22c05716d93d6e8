package models

import (
	"time"

	"agentbounty-backend/core/bounty"
)

// CreateBountyRequest represents a bounty creation request
type CreateBountyRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Requirements string `json:"requirements"`
	Reward       uint64 `json:"reward"`
	Deadline     int64  `json:"deadline"`
}

// SubmitCompletionRequest represents a work submission
type SubmitCompletionRequest struct {
	CompletionData string `json:"completion_data"`
	SubmissionURL  string `json:"submission_url"`
}

// RejectCompletionRequest represents a rejection with reason
type RejectCompletionRequest struct {
	Reason string `json:"reason"`
}

// BountyListResponse wraps a filtered bounty listing
type BountyListResponse struct {
	Bounties []bounty.Bounty `json:"bounties"`
	Total    int             `json:"total"`
}

// PayoutResponse pairs the completed bounty with its escrow release
type PayoutResponse struct {
	Bounty bounty.Bounty `json:"bounty"`
	Payout bounty.Payout `json:"payout"`
}

// MarketplaceStatsResponse represents registry totals
type MarketplaceStatsResponse struct {
	Authority     string `json:"authority"`
	TotalBounties uint64 `json:"total_bounties"`
	TotalVolume   uint64 `json:"total_volume"`
}

// BalanceResponse represents a token account balance
type BalanceResponse struct {
	Account string `json:"account"`
	Balance uint64 `json:"balance"`
}

// FaucetRequest represents a dev faucet credit
type FaucetRequest struct {
	Account string `json:"account"`
	Amount  uint64 `json:"amount"`
}

// RegisterRequest starts or completes an agent registration handshake
type RegisterRequest struct {
	Principal string `json:"principal"`
	Response  string `json:"response,omitempty"`
	Label     string `json:"label,omitempty"`
}

// QRCodeRequest represents QR code generation request
type QRCodeRequest struct {
	Address string `json:"address"`
	Amount  string `json:"amount,omitempty"`
}

// ErrorResponse represents API error response
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
	Code      int    `json:"code,omitempty"`
	Hint      string `json:"hint,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// APIResponse represents a generic API response
type APIResponse struct {
	Success bool                   `json:"success"`
	Data    interface{}            `json:"data,omitempty"`
	Error   *ErrorResponse         `json:"error,omitempty"`
	Meta    map[string]interface{} `json:"meta,omitempty"`
}

// NewSuccessResponse creates a success response
func NewSuccessResponse(data interface{}) *APIResponse {
	return &APIResponse{
		Success: true,
		Data:    data,
	}
}

// NewErrorResponse creates an error response
func NewErrorResponse(error string, code int) *APIResponse {
	return &APIResponse{
		Success: false,
		Error: &ErrorResponse{
			Error:     error,
			Message:   error,
			Code:      code,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}
}

// NewErrorResponseWithHint creates an error response with a hint.
func NewErrorResponseWithHint(error string, code int, hint string) *APIResponse {
	resp := NewErrorResponse(error, code)
	if resp != nil && resp.Error != nil {
		resp.Error.Hint = hint
	}
	return resp
}

// NewSuccessResponseWithMeta creates a success response with metadata
func NewSuccessResponseWithMeta(data interface{}, meta map[string]interface{}) *APIResponse {
	return &APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	}
}
