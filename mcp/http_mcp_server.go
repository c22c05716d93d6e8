package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"agentbounty-backend/core/bounty"
	"agentbounty-backend/services"
	"agentbounty-backend/storage/auth"
)

const bridgeVersion = "1.0.0"

// HTTPMCPServer bridges the MCP tool surface onto plain HTTP endpoints so
// agents without an MCP transport can discover and call tools with curl.
type HTTPMCPServer struct {
	marketplace *services.MarketplaceService
	apiKeys     auth.APIKeyValidator
}

// NewHTTPMCPServer creates the HTTP bridge. apiKeys may be nil, in which
// case mutating tools are rejected.
func NewHTTPMCPServer(marketplace *services.MarketplaceService, apiKeys auth.APIKeyValidator) *HTTPMCPServer {
	return &HTTPMCPServer{
		marketplace: marketplace,
		apiKeys:     apiKeys,
	}
}

// RegisterRoutes registers HTTP MCP endpoints.
func (h *HTTPMCPServer) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/mcp/tools", h.handleListTools) // No auth - allows discovery
	mux.HandleFunc("/mcp/call", h.handleToolCall)   // Tool-level auth for mutating tools
	mux.HandleFunc("/mcp/health", h.handleHealth)
}

func (h *HTTPMCPServer) handleListTools(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeHTTPError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", "Use GET /mcp/tools")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"tools": toolCatalog(),
		"total": len(toolCatalog()),
	})
}

func (h *HTTPMCPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "healthy",
		"version": bridgeVersion,
	})
}

func (h *HTTPMCPServer) handleToolCall(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeHTTPError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", "Use POST /mcp/call")
		return
	}

	var req MCPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeHTTPError(w, http.StatusBadRequest, ErrCodeInvalidValue, "Invalid JSON body", "Send {\"tool\": \"...\", \"arguments\": {...}}")
		return
	}
	if req.Tool == "" {
		h.writeHTTPError(w, http.StatusBadRequest, ErrCodeMissingRequired, "Missing tool name", "Include a 'tool' field in the request body")
		return
	}
	if req.Arguments == nil {
		req.Arguments = map[string]interface{}{}
	}

	var signer bounty.Principal
	if toolRequiresAuth(req.Tool) {
		apiKey := extractAPIKey(r)
		if apiKey == "" {
			h.writeHTTPError(w, http.StatusUnauthorized, "API_KEY_REQUIRED", "API key required", "Tool '"+req.Tool+"' requires authentication. Send X-API-Key or Authorization: Bearer <key>.")
			return
		}
		if h.apiKeys == nil {
			h.writeHTTPError(w, http.StatusForbidden, ErrCodeUnauthorized, "Authentication is not configured", "")
			return
		}
		rec, ok := h.apiKeys.Get(apiKey)
		if !ok {
			h.writeHTTPError(w, http.StatusForbidden, "API_KEY_INVALID", "Invalid API key", "Double-check the X-API-Key header value.")
			return
		}
		signer = rec.Principal
	}

	result, err := h.callToolDirect(r.Context(), req.Tool, signer, req.Arguments)
	if err != nil {
		h.writeHTTPStructuredError(w, GetHTTPStatusFromError(err), err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(MCPResponse{
		Success: true,
		Result:  result,
	})
}

// callToolDirect executes a tool against the marketplace service. The signer
// is the principal bound to the caller's API key and is only consulted by
// mutating tools.
func (h *HTTPMCPServer) callToolDirect(ctx context.Context, toolName string, signer bounty.Principal, args map[string]interface{}) (interface{}, error) {
	switch toolName {
	case "initialize_marketplace":
		return h.marketplace.Initialize(ctx, signer)
	case "create_bounty":
		return h.handleCreateBounty(ctx, signer, args)
	case "claim_bounty":
		id, err := uintArg(toolName, args, "bounty_id")
		if err != nil {
			return nil, err
		}
		return h.marketplace.ClaimBounty(ctx, id, signer)
	case "submit_completion":
		return h.handleSubmitCompletion(ctx, signer, args)
	case "approve_completion":
		id, err := uintArg(toolName, args, "bounty_id")
		if err != nil {
			return nil, err
		}
		b, payout, err := h.marketplace.ApproveCompletion(ctx, id, signer)
		if err != nil {
			return nil, WrapDomainError(toolName, err)
		}
		return map[string]interface{}{"bounty": b, "payout": payout}, nil
	case "reject_completion":
		id, err := uintArg(toolName, args, "bounty_id")
		if err != nil {
			return nil, err
		}
		reason, err := stringArg(toolName, args, "reason")
		if err != nil {
			return nil, err
		}
		return h.marketplace.RejectCompletion(ctx, id, signer, reason)
	case "get_bounty":
		id, err := uintArg(toolName, args, "bounty_id")
		if err != nil {
			return nil, err
		}
		return h.marketplace.GetBounty(ctx, id)
	case "list_bounties":
		return h.handleListBounties(ctx, args)
	case "get_agent_profile":
		p, err := principalArg(toolName, args, "principal")
		if err != nil {
			return nil, err
		}
		return h.marketplace.GetAgentProfile(ctx, p)
	case "get_marketplace_stats":
		return h.marketplace.Marketplace(ctx)
	case "get_vault":
		id, err := uintArg(toolName, args, "bounty_id")
		if err != nil {
			return nil, err
		}
		return h.marketplace.GetVault(ctx, id)
	default:
		return nil, &ToolError{
			Code:       ErrCodeUnknownTool,
			Message:    "Unknown tool '" + toolName + "'",
			Hint:       "GET /mcp/tools lists the available tools",
			HTTPStatus: http.StatusNotFound,
		}
	}
}

func (h *HTTPMCPServer) handleCreateBounty(ctx context.Context, signer bounty.Principal, args map[string]interface{}) (interface{}, error) {
	const tool = "create_bounty"
	title, err := stringArg(tool, args, "title")
	if err != nil {
		return nil, err
	}
	description, err := stringArg(tool, args, "description")
	if err != nil {
		return nil, err
	}
	requirements, err := stringArg(tool, args, "requirements")
	if err != nil {
		return nil, err
	}
	reward, err := uintArg(tool, args, "reward")
	if err != nil {
		return nil, err
	}
	deadline, err := intArg(tool, args, "deadline")
	if err != nil {
		return nil, err
	}

	b, err := h.marketplace.CreateBounty(ctx, signer, bounty.CreateBountyParams{
		Title:        title,
		Description:  description,
		Requirements: requirements,
		Reward:       reward,
		Deadline:     deadline,
	})
	if err != nil {
		return nil, WrapDomainError(tool, err)
	}
	return b, nil
}

func (h *HTTPMCPServer) handleSubmitCompletion(ctx context.Context, signer bounty.Principal, args map[string]interface{}) (interface{}, error) {
	const tool = "submit_completion"
	id, err := uintArg(tool, args, "bounty_id")
	if err != nil {
		return nil, err
	}
	data, err := stringArg(tool, args, "completion_data")
	if err != nil {
		return nil, err
	}
	url, err := stringArg(tool, args, "submission_url")
	if err != nil {
		return nil, err
	}
	return h.marketplace.SubmitCompletion(ctx, id, signer, data, url)
}

func (h *HTTPMCPServer) handleListBounties(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	const tool = "list_bounties"
	var filter bounty.BountyFilter

	if raw, ok := args["status"].(string); ok && raw != "" {
		st, err := bounty.ParseStatus(raw)
		if err != nil {
			return nil, NewFieldError(tool, "status", err.Error())
		}
		filter.Status = &st
	}
	if raw, ok := args["creator"].(string); ok && raw != "" {
		p, err := bounty.ParsePrincipal(raw)
		if err != nil {
			return nil, NewFieldError(tool, "creator", err.Error())
		}
		filter.Creator = &p
	}
	if raw, ok := args["agent"].(string); ok && raw != "" {
		p, err := bounty.ParsePrincipal(raw)
		if err != nil {
			return nil, NewFieldError(tool, "agent", err.Error())
		}
		filter.Agent = &p
	}
	if raw, ok := args["limit"].(float64); ok {
		filter.Limit = int(raw)
	}
	if raw, ok := args["offset"].(float64); ok {
		filter.Offset = int(raw)
	}

	bounties, err := h.marketplace.ListBounties(ctx, filter)
	if err != nil {
		return nil, WrapDomainError(tool, err)
	}
	return map[string]interface{}{
		"bounties": bounties,
		"total":    len(bounties),
	}, nil
}

func (h *HTTPMCPServer) writeHTTPError(w http.ResponseWriter, status int, code string, message string, hint string) {
	h.writeHTTPStructuredError(w, status, &ToolError{
		Code:       code,
		Message:    message,
		Hint:       hint,
		HTTPStatus: status,
	})
}

// writeHTTPStructuredError writes structured error responses.
func (h *HTTPMCPServer) writeHTTPStructuredError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := MCPResponse{
		Success: false,
		Code:    status,
	}

	switch e := err.(type) {
	case *ToolError:
		resp.ErrorCode = e.Code
		resp.Error = e.Message
		resp.Hint = e.Hint
		resp.Message = e.Message
		if e.Tool != "" {
			resp.Details = map[string]interface{}{"tool": e.Tool}
		}
		if e.Field != "" {
			if resp.Details == nil {
				resp.Details = make(map[string]interface{})
			}
			resp.Details["field"] = e.Field
		}
		for k, v := range e.Details {
			if resp.Details == nil {
				resp.Details = make(map[string]interface{})
			}
			resp.Details[k] = v
		}
	default:
		if _, ok := err.(bounty.Err); ok {
			resp.ErrorCode = bounty.ErrorCode(err)
			resp.Error = err.Error()
			resp.Message = err.Error()
		} else {
			resp.ErrorCode = ErrCodeInternalError
			resp.Error = err.Error()
			resp.Message = "Internal server error"
			resp.Hint = "Please try again. If the problem persists, contact support"
		}
	}

	resp.Timestamp = time.Now().Format(time.RFC3339)
	resp.Version = bridgeVersion

	json.NewEncoder(w).Encode(resp)
}

func toolRequiresAuth(toolName string) bool {
	switch toolName {
	case "initialize_marketplace", "create_bounty", "claim_bounty",
		"submit_completion", "approve_completion", "reject_completion":
		return true
	}
	return false
}

func extractAPIKey(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

func stringArg(tool string, args map[string]interface{}, key string) (string, error) {
	raw, ok := args[key]
	if !ok {
		return "", NewMissingFieldError(tool, key)
	}
	s, ok := raw.(string)
	if !ok {
		return "", NewFieldError(tool, key, "expected a string")
	}
	return s, nil
}

func uintArg(tool string, args map[string]interface{}, key string) (uint64, error) {
	raw, ok := args[key]
	if !ok {
		return 0, NewMissingFieldError(tool, key)
	}
	f, ok := raw.(float64)
	if !ok || f < 0 {
		return 0, NewFieldError(tool, key, "expected a non-negative number")
	}
	return uint64(f), nil
}

func principalArg(tool string, args map[string]interface{}, key string) (bounty.Principal, error) {
	s, err := stringArg(tool, args, key)
	if err != nil {
		return bounty.Principal{}, err
	}
	p, err := bounty.ParsePrincipal(s)
	if err != nil {
		return bounty.Principal{}, NewFieldError(tool, key, "expected a 64-character hex principal")
	}
	return p, nil
}

func intArg(tool string, args map[string]interface{}, key string) (int64, error) {
	raw, ok := args[key]
	if !ok {
		return 0, NewMissingFieldError(tool, key)
	}
	f, ok := raw.(float64)
	if !ok {
		return 0, NewFieldError(tool, key, "expected a number")
	}
	return int64(f), nil
}

func toolCatalog() []ToolDescriptor {
	principal := ToolParameter{Name: "principal", Type: "string", Required: true, Description: "Hex-encoded 32-byte principal"}
	bountyID := ToolParameter{Name: "bounty_id", Type: "number", Required: true, Description: "Bounty ID"}

	return []ToolDescriptor{
		{
			Name:        "initialize_marketplace",
			Description: "Initialize the marketplace registry; the caller becomes the authority",
			Auth:        true,
		},
		{
			Name:        "create_bounty",
			Description: "Create a bounty and escrow its reward",
			Auth:        true,
			Parameters: []ToolParameter{
				{Name: "title", Type: "string", Required: true, Description: "Bounty title"},
				{Name: "description", Type: "string", Required: true, Description: "What the bounty is for"},
				{Name: "requirements", Type: "string", Required: true, Description: "Acceptance requirements"},
				{Name: "reward", Type: "number", Required: true, Description: "Reward in base token units"},
				{Name: "deadline", Type: "number", Required: true, Description: "Claim deadline as a unix timestamp"},
			},
		},
		{
			Name:        "claim_bounty",
			Description: "Claim an open bounty as the calling agent",
			Auth:        true,
			Parameters:  []ToolParameter{bountyID},
		},
		{
			Name:        "submit_completion",
			Description: "Submit completed work for review",
			Auth:        true,
			Parameters: []ToolParameter{
				bountyID,
				{Name: "completion_data", Type: "string", Required: true, Description: "Summary of the completed work"},
				{Name: "submission_url", Type: "string", Required: true, Description: "Link to the deliverable"},
			},
		},
		{
			Name:        "approve_completion",
			Description: "Approve submitted work and release the escrow",
			Auth:        true,
			Parameters:  []ToolParameter{bountyID},
		},
		{
			Name:        "reject_completion",
			Description: "Reject submitted work with a reason",
			Auth:        true,
			Parameters: []ToolParameter{
				bountyID,
				{Name: "reason", Type: "string", Required: true, Description: "Why the submission was rejected"},
			},
		},
		{
			Name:        "get_bounty",
			Description: "Fetch a bounty by ID",
			Parameters:  []ToolParameter{bountyID},
		},
		{
			Name:        "list_bounties",
			Description: "List bounties with optional status, creator, and agent filters",
			Parameters: []ToolParameter{
				{Name: "status", Type: "string", Description: "open, in_progress, pending_review, completed, or expired"},
				{Name: "creator", Type: "string", Description: "Creator principal (hex)"},
				{Name: "agent", Type: "string", Description: "Assigned agent principal (hex)"},
				{Name: "limit", Type: "number", Description: "Maximum number of results"},
				{Name: "offset", Type: "number", Description: "Number of results to skip"},
			},
		},
		{
			Name:        "get_agent_profile",
			Description: "Fetch an agent's reputation profile",
			Parameters:  []ToolParameter{principal},
		},
		{
			Name:        "get_marketplace_stats",
			Description: "Fetch marketplace totals",
		},
		{
			Name:        "get_vault",
			Description: "Fetch a bounty's escrow vault address and balance",
			Parameters:  []ToolParameter{bountyID},
		},
	}
}
