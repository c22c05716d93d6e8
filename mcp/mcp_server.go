package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"agentbounty-backend/core/bounty"
	"agentbounty-backend/services"
)

// MCPServer exposes the bounty marketplace as MCP tools over stdio.
type MCPServer struct {
	mcpServer   *server.MCPServer
	marketplace *services.MarketplaceService
}

// NewMCPServer creates an MCP server backed by the marketplace service.
func NewMCPServer(marketplace *services.MarketplaceService) *MCPServer {
	s := &MCPServer{
		mcpServer: server.NewMCPServer(
			"Agent Bounty MCP Server",
			"1.0.0",
			server.WithToolCapabilities(true),
		),
		marketplace: marketplace,
	}
	s.registerTools()
	return s
}

// GetMCPServer returns the underlying server for transport wiring.
func (s *MCPServer) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}

// Serve runs the server on stdio until the client disconnects.
func (s *MCPServer) Serve() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *MCPServer) registerTools() {
	s.registerInitializeMarketplaceTool()
	s.registerCreateBountyTool()
	s.registerClaimBountyTool()
	s.registerSubmitCompletionTool()
	s.registerApproveCompletionTool()
	s.registerRejectCompletionTool()
	s.registerGetBountyTool()
	s.registerListBountiesTool()
	s.registerGetAgentProfileTool()
	s.registerGetMarketplaceStatsTool()
	s.registerGetVaultTool()
}

func (s *MCPServer) registerInitializeMarketplaceTool() {
	tool := mcp.NewTool("initialize_marketplace",
		mcp.WithDescription("Initialize the marketplace registry. The calling principal becomes the marketplace authority. Fails if the marketplace already exists."),
		mcp.WithString("principal", mcp.Required(), mcp.Description("Hex-encoded 32-byte principal of the authority")),
	)

	s.mcpServer.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		signer, errResult := requirePrincipal(request, "principal")
		if errResult != nil {
			return errResult, nil
		}

		m, err := s.marketplace.Initialize(ctx, signer)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toolResultJSON(m)
	})
}

func (s *MCPServer) registerCreateBountyTool() {
	tool := mcp.NewTool("create_bounty",
		mcp.WithDescription("Create a new bounty. The reward is moved from the creator's account into the bounty vault."),
		mcp.WithString("principal", mcp.Required(), mcp.Description("Hex-encoded principal of the bounty creator")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Bounty title, at most 100 characters")),
		mcp.WithString("description", mcp.Required(), mcp.Description("What the bounty is for, at most 500 characters")),
		mcp.WithString("requirements", mcp.Required(), mcp.Description("Acceptance requirements, at most 200 characters")),
		mcp.WithNumber("reward", mcp.Required(), mcp.Description("Reward in base token units, must be positive")),
		mcp.WithNumber("deadline", mcp.Required(), mcp.Description("Unix timestamp after which the bounty can no longer be claimed")),
	)

	s.mcpServer.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		signer, errResult := requirePrincipal(request, "principal")
		if errResult != nil {
			return errResult, nil
		}
		title, err := request.RequireString("title")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		description, err := request.RequireString("description")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		requirements, err := request.RequireString("requirements")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		reward, errResult := requireUint(request, "reward")
		if errResult != nil {
			return errResult, nil
		}
		deadline, errResult := requireInt(request, "deadline")
		if errResult != nil {
			return errResult, nil
		}

		b, err := s.marketplace.CreateBounty(ctx, signer, bounty.CreateBountyParams{
			Title:        title,
			Description:  description,
			Requirements: requirements,
			Reward:       reward,
			Deadline:     deadline,
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toolResultJSON(b)
	})
}

func (s *MCPServer) registerClaimBountyTool() {
	tool := mcp.NewTool("claim_bounty",
		mcp.WithDescription("Claim an open bounty. The calling principal becomes the assigned agent."),
		mcp.WithString("principal", mcp.Required(), mcp.Description("Hex-encoded principal of the claiming agent")),
		mcp.WithNumber("bounty_id", mcp.Required(), mcp.Description("ID of the bounty to claim")),
	)

	s.mcpServer.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		signer, errResult := requirePrincipal(request, "principal")
		if errResult != nil {
			return errResult, nil
		}
		id, errResult := requireUint(request, "bounty_id")
		if errResult != nil {
			return errResult, nil
		}

		b, err := s.marketplace.ClaimBounty(ctx, id, signer)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toolResultJSON(b)
	})
}

func (s *MCPServer) registerSubmitCompletionTool() {
	tool := mcp.NewTool("submit_completion",
		mcp.WithDescription("Submit completed work for a claimed bounty. Only the assigned agent may submit."),
		mcp.WithString("principal", mcp.Required(), mcp.Description("Hex-encoded principal of the assigned agent")),
		mcp.WithNumber("bounty_id", mcp.Required(), mcp.Description("ID of the bounty")),
		mcp.WithString("completion_data", mcp.Required(), mcp.Description("Summary of the completed work, at most 500 characters")),
		mcp.WithString("submission_url", mcp.Required(), mcp.Description("Link to the deliverable, at most 100 characters")),
	)

	s.mcpServer.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		signer, errResult := requirePrincipal(request, "principal")
		if errResult != nil {
			return errResult, nil
		}
		id, errResult := requireUint(request, "bounty_id")
		if errResult != nil {
			return errResult, nil
		}
		data, err := request.RequireString("completion_data")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		url, err := request.RequireString("submission_url")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		b, err := s.marketplace.SubmitCompletion(ctx, id, signer, data, url)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toolResultJSON(b)
	})
}

func (s *MCPServer) registerApproveCompletionTool() {
	tool := mcp.NewTool("approve_completion",
		mcp.WithDescription("Approve submitted work. Pays the agent 95% of the reward, the platform fee to the authority, and credits agent reputation. Only the bounty creator may approve."),
		mcp.WithString("principal", mcp.Required(), mcp.Description("Hex-encoded principal of the bounty creator")),
		mcp.WithNumber("bounty_id", mcp.Required(), mcp.Description("ID of the bounty")),
	)

	s.mcpServer.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		signer, errResult := requirePrincipal(request, "principal")
		if errResult != nil {
			return errResult, nil
		}
		id, errResult := requireUint(request, "bounty_id")
		if errResult != nil {
			return errResult, nil
		}

		b, payout, err := s.marketplace.ApproveCompletion(ctx, id, signer)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toolResultJSON(map[string]interface{}{
			"bounty": b,
			"payout": payout,
		})
	})
}

func (s *MCPServer) registerRejectCompletionTool() {
	tool := mcp.NewTool("reject_completion",
		mcp.WithDescription("Reject submitted work with a reason. The bounty returns to the open pool for any agent to claim, and the escrow stays locked."),
		mcp.WithString("principal", mcp.Required(), mcp.Description("Hex-encoded principal of the bounty creator")),
		mcp.WithNumber("bounty_id", mcp.Required(), mcp.Description("ID of the bounty")),
		mcp.WithString("reason", mcp.Required(), mcp.Description("Why the submission was rejected, at most 200 characters")),
	)

	s.mcpServer.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		signer, errResult := requirePrincipal(request, "principal")
		if errResult != nil {
			return errResult, nil
		}
		id, errResult := requireUint(request, "bounty_id")
		if errResult != nil {
			return errResult, nil
		}
		reason, err := request.RequireString("reason")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		b, err := s.marketplace.RejectCompletion(ctx, id, signer, reason)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toolResultJSON(b)
	})
}

func (s *MCPServer) registerGetBountyTool() {
	tool := mcp.NewTool("get_bounty",
		mcp.WithDescription("Fetch a single bounty by ID."),
		mcp.WithNumber("bounty_id", mcp.Required(), mcp.Description("ID of the bounty")),
	)

	s.mcpServer.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, errResult := requireUint(request, "bounty_id")
		if errResult != nil {
			return errResult, nil
		}

		b, err := s.marketplace.GetBounty(ctx, id)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toolResultJSON(b)
	})
}

func (s *MCPServer) registerListBountiesTool() {
	tool := mcp.NewTool("list_bounties",
		mcp.WithDescription("List bounties, optionally filtered by status, creator, or assigned agent. Results are ordered by bounty ID."),
		mcp.WithString("status", mcp.Description("Filter by status: open, in_progress, pending_review, completed, expired")),
		mcp.WithString("creator", mcp.Description("Filter by creator principal (hex)")),
		mcp.WithString("agent", mcp.Description("Filter by assigned agent principal (hex)")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results")),
		mcp.WithNumber("offset", mcp.Description("Number of results to skip")),
	)

	s.mcpServer.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		var filter bounty.BountyFilter

		if raw, ok := args["status"].(string); ok && raw != "" {
			st, err := bounty.ParseStatus(raw)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			filter.Status = &st
		}
		if raw, ok := args["creator"].(string); ok && raw != "" {
			p, err := bounty.ParsePrincipal(raw)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("invalid creator: %v", err)), nil
			}
			filter.Creator = &p
		}
		if raw, ok := args["agent"].(string); ok && raw != "" {
			p, err := bounty.ParsePrincipal(raw)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("invalid agent: %v", err)), nil
			}
			filter.Agent = &p
		}
		if raw, ok := args["limit"].(float64); ok {
			filter.Limit = int(raw)
		}
		if raw, ok := args["offset"].(float64); ok {
			filter.Offset = int(raw)
		}

		bounties, err := s.marketplace.ListBounties(ctx, filter)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toolResultJSON(map[string]interface{}{
			"bounties": bounties,
			"total":    len(bounties),
		})
	})
}

func (s *MCPServer) registerGetAgentProfileTool() {
	tool := mcp.NewTool("get_agent_profile",
		mcp.WithDescription("Fetch an agent's reputation profile: score, completed bounties, and total earnings."),
		mcp.WithString("principal", mcp.Required(), mcp.Description("Hex-encoded principal of the agent")),
	)

	s.mcpServer.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		agent, errResult := requirePrincipal(request, "principal")
		if errResult != nil {
			return errResult, nil
		}

		profile, err := s.marketplace.GetAgentProfile(ctx, agent)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toolResultJSON(profile)
	})
}

func (s *MCPServer) registerGetMarketplaceStatsTool() {
	tool := mcp.NewTool("get_marketplace_stats",
		mcp.WithDescription("Fetch marketplace totals: authority, bounty count, and cumulative escrowed volume."),
	)

	s.mcpServer.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		m, err := s.marketplace.Marketplace(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toolResultJSON(m)
	})
}

func (s *MCPServer) registerGetVaultTool() {
	tool := mcp.NewTool("get_vault",
		mcp.WithDescription("Fetch the escrow vault for a bounty: derived address and current balance."),
		mcp.WithNumber("bounty_id", mcp.Required(), mcp.Description("ID of the bounty")),
	)

	s.mcpServer.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, errResult := requireUint(request, "bounty_id")
		if errResult != nil {
			return errResult, nil
		}

		vault, err := s.marketplace.GetVault(ctx, id)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toolResultJSON(vault)
	})
}

func requirePrincipal(request mcp.CallToolRequest, key string) (bounty.Principal, *mcp.CallToolResult) {
	raw, err := request.RequireString(key)
	if err != nil {
		return bounty.Principal{}, mcp.NewToolResultError(err.Error())
	}
	p, err := bounty.ParsePrincipal(raw)
	if err != nil {
		return bounty.Principal{}, mcp.NewToolResultError(fmt.Sprintf("invalid %s: %v", key, err))
	}
	return p, nil
}

func requireUint(request mcp.CallToolRequest, key string) (uint64, *mcp.CallToolResult) {
	raw, ok := request.GetArguments()[key]
	if !ok {
		return 0, mcp.NewToolResultError(fmt.Sprintf("missing required field '%s'", key))
	}
	f, ok := raw.(float64)
	if !ok || f < 0 {
		return 0, mcp.NewToolResultError(fmt.Sprintf("field '%s' must be a non-negative number", key))
	}
	return uint64(f), nil
}

func requireInt(request mcp.CallToolRequest, key string) (int64, *mcp.CallToolResult) {
	raw, ok := request.GetArguments()[key]
	if !ok {
		return 0, mcp.NewToolResultError(fmt.Sprintf("missing required field '%s'", key))
	}
	f, ok := raw.(float64)
	if !ok {
		return 0, mcp.NewToolResultError(fmt.Sprintf("field '%s' must be a number", key))
	}
	return int64(f), nil
}

func toolResultJSON(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
