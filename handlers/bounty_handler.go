package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"agentbounty-backend/core/bounty"
	"agentbounty-backend/models"
	"agentbounty-backend/services"
)

// BountyHandler serves the bounty lifecycle endpoints.
type BountyHandler struct {
	*BaseHandler
	marketplace *services.MarketplaceService
}

// NewBountyHandler creates a new bounty handler
func NewBountyHandler(marketplace *services.MarketplaceService) *BountyHandler {
	return &BountyHandler{BaseHandler: NewBaseHandler(), marketplace: marketplace}
}

// HandleBounties routes /api/bounties: GET lists, POST creates.
func (h *BountyHandler) HandleBounties(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleList(w, r)
	case http.MethodPost:
		h.handleCreate(w, r)
	default:
		h.sendError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// HandleBounty routes /api/bounties/{id} and its lifecycle sub-paths:
// claim, submit, approve, reject, vault.
func (h *BountyHandler) HandleBounty(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/bounties/"), "/")
	id, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid bounty id")
		return
	}

	action := ""
	if len(parts) > 1 {
		action = parts[1]
	}

	switch action {
	case "":
		if r.Method != http.MethodGet {
			h.sendError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		h.handleGet(w, r, id)
	case "vault":
		if r.Method != http.MethodGet {
			h.sendError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		h.handleVault(w, r, id)
	case "claim", "submit", "approve", "reject":
		if r.Method != http.MethodPost {
			h.sendError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		h.handleLifecycle(w, r, id, action)
	default:
		h.sendError(w, http.StatusNotFound, "unknown bounty action")
	}
}

// handleCreate opens a new bounty funded from the caller's account.
// @Summary Create a bounty
// @Description Escrows the reward from the caller and opens a bounty
// @Tags Bounties
// @Accept json
// @Produce json
// @Param request body models.CreateBountyRequest true "Bounty fields"
// @Success 200 {object} models.APIResponse
// @Failure 400 {object} models.APIResponse
// @Router /api/bounties [post]
func (h *BountyHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req models.CreateBountyRequest
	if err := h.parseJSON(r, &req); err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid json")
		return
	}

	b, err := h.marketplace.CreateBounty(r.Context(), caller, bounty.CreateBountyParams{
		Title:        req.Title,
		Description:  req.Description,
		Requirements: req.Requirements,
		Reward:       req.Reward,
		Deadline:     req.Deadline,
	})
	if err != nil {
		h.sendDomainError(w, err)
		return
	}
	h.sendSuccess(w, b)
}

// handleList returns bounties matching the query filters.
// @Summary List bounties
// @Description Lists bounties filtered by status, creator, agent, with paging
// @Tags Bounties
// @Produce json
// @Param status query string false "open|in_progress|pending_review|completed|expired"
// @Param creator query string false "Creator principal (hex)"
// @Param agent query string false "Assigned agent principal (hex)"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} models.APIResponse
// @Router /api/bounties [get]
func (h *BountyHandler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var filter bounty.BountyFilter

	if v := q.Get("status"); v != "" {
		status, err := bounty.ParseStatus(v)
		if err != nil {
			h.sendError(w, http.StatusBadRequest, "invalid status filter")
			return
		}
		filter.Status = &status
	}
	if v := q.Get("creator"); v != "" {
		p, err := bounty.ParsePrincipal(v)
		if err != nil {
			h.sendError(w, http.StatusBadRequest, "invalid creator principal")
			return
		}
		filter.Creator = &p
	}
	if v := q.Get("agent"); v != "" {
		p, err := bounty.ParsePrincipal(v)
		if err != nil {
			h.sendError(w, http.StatusBadRequest, "invalid agent principal")
			return
		}
		filter.Agent = &p
	}
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))
	filter.Offset, _ = strconv.Atoi(q.Get("offset"))

	bounties, err := h.marketplace.ListBounties(r.Context(), filter)
	if err != nil {
		h.sendDomainError(w, err)
		return
	}
	h.sendSuccess(w, models.BountyListResponse{Bounties: bounties, Total: len(bounties)})
}

// handleGet returns one bounty.
// @Summary Get a bounty
// @Tags Bounties
// @Produce json
// @Param id path int true "Bounty ID"
// @Success 200 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Router /api/bounties/{id} [get]
func (h *BountyHandler) handleGet(w http.ResponseWriter, r *http.Request, id uint64) {
	b, err := h.marketplace.GetBounty(r.Context(), id)
	if err != nil {
		h.sendDomainError(w, err)
		return
	}
	h.sendSuccess(w, b)
}

// handleVault returns the escrow view for a bounty.
// @Summary Get a bounty's vault
// @Description Returns the derived vault address and current escrow balance
// @Tags Escrow
// @Produce json
// @Param id path int true "Bounty ID"
// @Success 200 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Router /api/bounties/{id}/vault [get]
func (h *BountyHandler) handleVault(w http.ResponseWriter, r *http.Request, id uint64) {
	v, err := h.marketplace.GetVault(r.Context(), id)
	if err != nil {
		h.sendDomainError(w, err)
		return
	}
	h.sendSuccess(w, v)
}

// handleLifecycle applies one state transition on behalf of the caller.
// @Summary Advance a bounty's lifecycle
// @Description POST claim, submit, approve, or reject on a bounty
// @Tags Bounties
// @Accept json
// @Produce json
// @Param id path int true "Bounty ID"
// @Success 200 {object} models.APIResponse
// @Failure 403 {object} models.APIResponse
// @Failure 409 {object} models.APIResponse
// @Router /api/bounties/{id}/claim [post]
func (h *BountyHandler) handleLifecycle(w http.ResponseWriter, r *http.Request, id uint64, action string) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	switch action {
	case "claim":
		b, err := h.marketplace.ClaimBounty(r.Context(), id, caller)
		if err != nil {
			h.sendDomainError(w, err)
			return
		}
		h.sendSuccess(w, b)
	case "submit":
		var req models.SubmitCompletionRequest
		if err := h.parseJSON(r, &req); err != nil {
			h.sendError(w, http.StatusBadRequest, "invalid json")
			return
		}
		b, err := h.marketplace.SubmitCompletion(r.Context(), id, caller, req.CompletionData, req.SubmissionURL)
		if err != nil {
			h.sendDomainError(w, err)
			return
		}
		h.sendSuccess(w, b)
	case "approve":
		b, payout, err := h.marketplace.ApproveCompletion(r.Context(), id, caller)
		if err != nil {
			h.sendDomainError(w, err)
			return
		}
		h.sendSuccess(w, models.PayoutResponse{Bounty: b, Payout: payout})
	case "reject":
		var req models.RejectCompletionRequest
		if err := h.parseJSON(r, &req); err != nil {
			h.sendError(w, http.StatusBadRequest, "invalid json")
			return
		}
		b, err := h.marketplace.RejectCompletion(r.Context(), id, caller, req.Reason)
		if err != nil {
			h.sendDomainError(w, err)
			return
		}
		h.sendSuccess(w, b)
	}
}
