package mcp

// MCPRequest is the body of a POST /mcp/call request.
type MCPRequest struct {
	Tool      string                 `json:"tool"`
	Arguments map[string]interface{} `json:"arguments"`
}

// MCPResponse is the envelope for every /mcp/call reply.
type MCPResponse struct {
	Success   bool                   `json:"success"`
	Result    interface{}            `json:"result,omitempty"`
	Code      int                    `json:"code,omitempty"`
	ErrorCode string                 `json:"error_code,omitempty"`
	Error     string                 `json:"error,omitempty"`
	Message   string                 `json:"message,omitempty"`
	Hint      string                 `json:"hint,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp string                 `json:"timestamp,omitempty"`
	Version   string                 `json:"version,omitempty"`
}

// ToolDescriptor describes a tool for the /mcp/tools listing.
type ToolDescriptor struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Auth        bool            `json:"auth_required"`
	Parameters  []ToolParameter `json:"parameters"`
}

// ToolParameter documents one tool argument.
type ToolParameter struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Required    bool   `json:"required"`
	Description string `json:"description"`
}
