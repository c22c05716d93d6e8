package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"agentbounty-backend/core/bounty"
	"agentbounty-backend/middleware"
	"agentbounty-backend/models"
	"agentbounty-backend/services"
)

// BaseHandler provides common functionality for all handlers
type BaseHandler struct{}

// NewBaseHandler creates a new base handler
func NewBaseHandler() *BaseHandler {
	return &BaseHandler{}
}

// sendJSON sends a JSON response
func (h *BaseHandler) sendJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// sendError sends an error response
func (h *BaseHandler) sendError(w http.ResponseWriter, statusCode int, message string) {
	errorResp := models.NewErrorResponse(message, statusCode)
	h.sendJSON(w, statusCode, errorResp)
}

// sendDomainError maps a marketplace error to its HTTP status.
func (h *BaseHandler) sendDomainError(w http.ResponseWriter, err error) {
	resp := models.NewErrorResponse(err.Error(), bounty.HTTPStatus(err))
	resp.Error.Error = bounty.ErrorCode(err)
	h.sendJSON(w, bounty.HTTPStatus(err), resp)
}

// sendSuccess sends a success response
func (h *BaseHandler) sendSuccess(w http.ResponseWriter, data interface{}) {
	successResp := models.NewSuccessResponse(data)
	h.sendJSON(w, http.StatusOK, successResp)
}

// parseJSON parses JSON from request
func (h *BaseHandler) parseJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// caller returns the authenticated principal from the request context.
func (h *BaseHandler) caller(w http.ResponseWriter, r *http.Request) (bounty.Principal, bool) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		h.sendError(w, http.StatusUnauthorized, "authentication required")
		return bounty.Principal{}, false
	}
	return p, true
}

// HealthHandler handles health check requests
type HealthHandler struct {
	*BaseHandler
	healthService *services.HealthService
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(healthService *services.HealthService) *HealthHandler {
	return &HealthHandler{
		BaseHandler:   NewBaseHandler(),
		healthService: healthService,
	}
}

// HandleHealth handles health check requests
// @Summary Health check
// @Description Reports backend liveness
// @Tags Health
// @Produce json
// @Success 200 {object} models.APIResponse
// @Router /api/health [get]
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.sendError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	health := h.healthService.GetHealthStatus()
	h.sendSuccess(w, health)
}

// MarketplaceHandler serves the registry singleton.
type MarketplaceHandler struct {
	*BaseHandler
	marketplace *services.MarketplaceService
}

// NewMarketplaceHandler creates a new marketplace handler
func NewMarketplaceHandler(marketplace *services.MarketplaceService) *MarketplaceHandler {
	return &MarketplaceHandler{BaseHandler: NewBaseHandler(), marketplace: marketplace}
}

// HandleInit initializes the marketplace with the caller as authority.
// @Summary Initialize the marketplace
// @Description Creates the singleton registry; the caller becomes the authority
// @Tags Marketplace
// @Produce json
// @Success 200 {object} models.APIResponse
// @Failure 409 {object} models.APIResponse
// @Router /api/marketplace/init [post]
func (h *MarketplaceHandler) HandleInit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.sendError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	m, err := h.marketplace.Initialize(r.Context(), caller)
	if err != nil {
		h.sendDomainError(w, err)
		return
	}
	h.sendSuccess(w, m)
}

// HandleStats returns registry totals.
// @Summary Marketplace stats
// @Description Returns authority and aggregate counters
// @Tags Marketplace
// @Produce json
// @Success 200 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Router /api/marketplace [get]
func (h *MarketplaceHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.sendError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	m, err := h.marketplace.Marketplace(r.Context())
	if err != nil {
		h.sendDomainError(w, err)
		return
	}
	h.sendSuccess(w, models.MarketplaceStatsResponse{
		Authority:     m.Authority.String(),
		TotalBounties: m.TotalBounties,
		TotalVolume:   m.TotalVolume,
	})
}

// QRCodeHandler renders vault funding QR codes.
type QRCodeHandler struct {
	*BaseHandler
	qrService   *services.QRCodeService
	marketplace *services.MarketplaceService
}

// NewQRCodeHandler creates a new QR code handler
func NewQRCodeHandler(qrService *services.QRCodeService, marketplace *services.MarketplaceService) *QRCodeHandler {
	return &QRCodeHandler{BaseHandler: NewBaseHandler(), qrService: qrService, marketplace: marketplace}
}

// HandleGenerateQRCode renders a PNG QR code for a bounty's vault address and
// reward amount, for wallets that top up escrow out of band.
// @Summary Vault funding QR code
// @Description Renders a PNG QR of the vault address and reward amount
// @Tags Escrow
// @Produce png
// @Param bounty_id query int true "Bounty ID"
// @Success 200 {file} binary
// @Router /api/qrcode [get]
func (h *QRCodeHandler) HandleGenerateQRCode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.sendError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	id, err := strconv.ParseUint(r.URL.Query().Get("bounty_id"), 10, 64)
	if err != nil {
		h.sendError(w, http.StatusBadRequest, "bounty_id required")
		return
	}

	b, err := h.marketplace.GetBounty(r.Context(), id)
	if err != nil {
		h.sendDomainError(w, err)
		return
	}
	vault, err := h.marketplace.GetVault(r.Context(), id)
	if err != nil {
		h.sendDomainError(w, err)
		return
	}

	png, err := h.qrService.GenerateQRCode(vault.Address.String(), strconv.FormatUint(b.Reward, 10))
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, "failed to generate QR code")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
