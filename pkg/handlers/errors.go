package handlers

import (
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mekanixms/sqlite-mcp-server/pkg/errors"
)

// ErrorResponse is the JSON body of a failed tool call. Failures are returned
// as tool results so the caller sees the code and message.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// NewErrorResult creates a tool result containing a structured error.
func NewErrorResult(code, message string) *mcp.CallToolResult {
	return NewErrorResultWithDetails(code, message, nil)
}

// NewErrorResultWithDetails creates an error result with additional context.
func NewErrorResultWithDetails(code, message string, details any) *mcp.CallToolResult {
	resp := ErrorResponse{
		Error:   true,
		Code:    code,
		Message: message,
	}
	// A nil map inside the interface would still render as "details":null.
	if m, ok := details.(map[string]interface{}); !ok || len(m) > 0 {
		resp.Details = details
	}
	jsonBytes, _ := json.Marshal(resp)
	result := mcp.NewToolResultText(string(jsonBytes))
	result.IsError = true
	return result
}

// errorResult converts a service error into a tool error result.
func errorResult(err error) *mcp.CallToolResult {
	return NewErrorResultWithDetails(errors.GetCode(err), errors.GetMessage(err), errors.GetDetails(err))
}

// jsonResult marshals v into a text tool result.
func jsonResult(v any) *mcp.CallToolResult {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return NewErrorResult(errors.CodeInternal, "failed to encode result: "+err.Error())
	}
	return mcp.NewToolResultText(string(jsonBytes))
}
