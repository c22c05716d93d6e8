package mcp

import (
	"fmt"
	"net/http"

	"agentbounty-backend/core/bounty"
)

// ToolError is a structured error returned by tool execution.
type ToolError struct {
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Tool       string                 `json:"tool,omitempty"`
	Field      string                 `json:"field,omitempty"`
	Hint       string                 `json:"hint,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	HTTPStatus int                    `json:"http_status,omitempty"`
}

func (e *ToolError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field: %s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

const (
	ErrCodeMissingRequired = "MISSING_REQUIRED_FIELD"
	ErrCodeInvalidValue    = "INVALID_FIELD_VALUE"
	ErrCodeUnknownTool     = "UNKNOWN_TOOL"
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeInternalError   = "INTERNAL_ERROR"
)

// NewFieldError creates a validation error for a single argument.
func NewFieldError(tool, field, message string) *ToolError {
	return &ToolError{
		Code:       ErrCodeInvalidValue,
		Message:    message,
		Tool:       tool,
		Field:      field,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewMissingFieldError creates an error for a required argument that was not supplied.
func NewMissingFieldError(tool, field string) *ToolError {
	return &ToolError{
		Code:       ErrCodeMissingRequired,
		Message:    fmt.Sprintf("Missing required field '%s'", field),
		Tool:       tool,
		Field:      field,
		Hint:       fmt.Sprintf("Include '%s' in the tool arguments", field),
		HTTPStatus: http.StatusBadRequest,
	}
}

// WrapDomainError converts a marketplace error into a ToolError, preserving
// its error code and HTTP status mapping.
func WrapDomainError(tool string, err error) *ToolError {
	if te, ok := err.(*ToolError); ok {
		return te
	}
	return &ToolError{
		Code:       bounty.ErrorCode(err),
		Message:    err.Error(),
		Tool:       tool,
		HTTPStatus: bounty.HTTPStatus(err),
	}
}

// GetHTTPStatusFromError extracts the HTTP status for an error, defaulting
// to 500 for unstructured errors.
func GetHTTPStatusFromError(err error) int {
	if te, ok := err.(*ToolError); ok && te.HTTPStatus != 0 {
		return te.HTTPStatus
	}
	if _, ok := err.(bounty.Err); ok {
		return bounty.HTTPStatus(err)
	}
	return http.StatusInternalServerError
}
