package handlers

import (
	"net/http"
	"strings"

	"agentbounty-backend/core/bounty"
	"agentbounty-backend/models"
	auth "agentbounty-backend/storage/auth"
)

// APIKeyHandler issues API keys via the registration handshake.
type APIKeyHandler struct {
	*BaseHandler
	issuer     auth.APIKeyIssuer
	validator  auth.APIKeyValidator
	challenges *auth.ChallengeStore
}

// NewAPIKeyHandler builds an APIKeyHandler with separate issuer/validator implementations.
func NewAPIKeyHandler(issuer auth.APIKeyIssuer, validator auth.APIKeyValidator, challenges *auth.ChallengeStore) *APIKeyHandler {
	return &APIKeyHandler{BaseHandler: NewBaseHandler(), issuer: issuer, validator: validator, challenges: challenges}
}

// HandleChallenge starts a registration handshake for a principal.
// Request: {"principal":"<hex>"}
// Response: {"nonce":"...","expires_at":"..."}
func (h *APIKeyHandler) HandleChallenge(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.sendError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var body models.RegisterRequest
	if err := h.parseJSON(r, &body); err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid json")
		return
	}
	principal, err := bounty.ParsePrincipal(strings.TrimSpace(body.Principal))
	if err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid principal")
		return
	}

	ch, err := h.challenges.Issue(principal)
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, "failed to issue challenge")
		return
	}
	h.sendSuccess(w, map[string]interface{}{
		"nonce":      ch.Nonce,
		"expires_at": ch.ExpiresAt,
	})
}

// HandleRegister completes the handshake and issues a new API key bound to
// the principal.
// Request: {"principal":"<hex>","response":"<nonce>","label":"crawler-1"}
// Response: {"api_key":"...","principal":"<hex>"}
func (h *APIKeyHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.sendError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var body models.RegisterRequest
	if err := h.parseJSON(r, &body); err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid json")
		return
	}
	principal, err := bounty.ParsePrincipal(strings.TrimSpace(body.Principal))
	if err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid principal")
		return
	}
	if !h.challenges.Verify(principal, strings.TrimSpace(body.Response)) {
		h.sendError(w, http.StatusForbidden, "challenge verification failed")
		return
	}

	rec, err := h.issuer.Issue(principal, strings.TrimSpace(body.Label), "registration")
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, "failed to issue api key")
		return
	}
	h.sendSuccess(w, map[string]interface{}{
		"api_key":    rec.Key,
		"principal":  rec.Principal.String(),
		"label":      rec.Label,
		"created_at": rec.CreatedAt,
	})
}

// HandleLogin verifies an existing API key.
// Request: {"api_key":"..."}
// Response: { "valid": true, "principal": "<hex>" }
func (h *APIKeyHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.sendError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var body struct {
		APIKey string `json:"api_key"`
	}
	if err := h.parseJSON(r, &body); err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid json")
		return
	}

	rec, ok := h.validator.Get(strings.TrimSpace(body.APIKey))
	if !ok {
		h.sendError(w, http.StatusForbidden, "invalid api key")
		return
	}

	h.sendSuccess(w, map[string]interface{}{
		"valid":     true,
		"principal": rec.Principal.String(),
	})
}
