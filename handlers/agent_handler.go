package handlers

import (
	"net/http"
	"strings"

	"agentbounty-backend/core/bounty"
	"agentbounty-backend/models"
	"agentbounty-backend/services"
)

// AgentHandler serves agent profiles and token account endpoints.
type AgentHandler struct {
	*BaseHandler
	marketplace  *services.MarketplaceService
	faucetAmount uint64
}

// NewAgentHandler creates a new agent handler. faucetAmount of zero disables
// the dev faucet.
func NewAgentHandler(marketplace *services.MarketplaceService, faucetAmount uint64) *AgentHandler {
	return &AgentHandler{BaseHandler: NewBaseHandler(), marketplace: marketplace, faucetAmount: faucetAmount}
}

// HandleAgent serves /api/agents/{principal} and its balance sub-path.
// @Summary Get an agent profile
// @Description Returns reputation, completed count, and total earnings
// @Tags Agents
// @Produce json
// @Param principal path string true "Agent principal (hex)"
// @Success 200 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Router /api/agents/{principal} [get]
func (h *AgentHandler) HandleAgent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.sendError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/agents/"), "/")
	principal, err := bounty.ParsePrincipal(parts[0])
	if err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid principal")
		return
	}

	if len(parts) > 1 && parts[1] == "balance" {
		balance, err := h.marketplace.Balance(r.Context(), principal)
		if err != nil {
			h.sendError(w, http.StatusInternalServerError, "failed to read balance")
			return
		}
		h.sendSuccess(w, models.BalanceResponse{Account: principal.String(), Balance: balance})
		return
	}

	profile, err := h.marketplace.GetAgentProfile(r.Context(), principal)
	if err != nil {
		h.sendDomainError(w, err)
		return
	}
	h.sendSuccess(w, profile)
}

// HandleFaucet credits a dev account with the configured amount.
// @Summary Dev faucet
// @Description Credits an account; disabled unless the server enables it
// @Tags Agents
// @Accept json
// @Produce json
// @Param request body models.FaucetRequest true "Account to credit"
// @Success 200 {object} models.APIResponse
// @Failure 403 {object} models.APIResponse
// @Router /api/faucet [post]
func (h *AgentHandler) HandleFaucet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.sendError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if h.faucetAmount == 0 {
		h.sendError(w, http.StatusForbidden, "faucet disabled")
		return
	}

	var req models.FaucetRequest
	if err := h.parseJSON(r, &req); err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid json")
		return
	}
	account, err := bounty.ParsePrincipal(req.Account)
	if err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid principal")
		return
	}

	amount := req.Amount
	if amount == 0 || amount > h.faucetAmount {
		amount = h.faucetAmount
	}
	if err := h.marketplace.Faucet(r.Context(), account, amount); err != nil {
		h.sendError(w, http.StatusInternalServerError, "faucet credit failed")
		return
	}

	balance, _ := h.marketplace.Balance(r.Context(), account)
	h.sendSuccess(w, models.BalanceResponse{Account: account.String(), Balance: balance})
}
