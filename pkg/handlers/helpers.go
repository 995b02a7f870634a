package handlers

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mekanixms/sqlite-mcp-server/pkg/errors"
)

func truncateQuery(query string) string {
	const maxLen = 100
	if len(query) <= maxLen {
		return query
	}
	return query[:maxLen] + "..."
}

func newRequestID() string {
	return uuid.New().String()
}

// withTimeout bounds a tool call. A zero timeout leaves ctx untouched.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

// getOptionalString extracts an optional string argument from the request.
func getOptionalString(req mcp.CallToolRequest, key string) string {
	args, ok := req.Params.Arguments.(map[string]any)
	if !ok {
		return ""
	}
	val, ok := args[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(val)
}

// getRequiredString extracts a required, non-blank string argument.
func getRequiredString(req mcp.CallToolRequest, key string) (string, error) {
	val, err := req.RequireString(key)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeInvalidRequest, fmt.Sprintf("%s is required", key)).
			WithDetail("argument", key)
	}
	val = strings.TrimSpace(val)
	if val == "" {
		return "", errors.New(errors.CodeInvalidRequest, fmt.Sprintf("%s must not be empty", key)).
			WithDetail("argument", key)
	}
	return val, nil
}

// getParams extracts the optional positional bind parameters.
func getParams(req mcp.CallToolRequest, key string) ([]interface{}, error) {
	args, ok := req.Params.Arguments.(map[string]any)
	if !ok {
		return nil, nil
	}
	raw, present := args[key]
	if !present || raw == nil {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, errors.New(errors.CodeInvalidRequest, fmt.Sprintf("%s must be an array", key)).
			WithDetail("argument", key)
	}

	params := make([]interface{}, len(list))
	for i, v := range list {
		p, err := bindValue(v)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInvalidRequest, fmt.Sprintf("invalid %s", key)).
				WithDetail("argument", key).
				WithDetail("index", i)
		}
		params[i] = p
	}
	return params, nil
}

// bindValue converts a decoded JSON value into a value the SQLite driver can
// bind. Integral numbers bind as integers.
func bindValue(v any) (interface{}, error) {
	switch val := v.(type) {
	case nil, string, bool, int64:
		return val, nil
	case int:
		return int64(val), nil
	case float64:
		if val == math.Trunc(val) && math.Abs(val) < 1<<53 {
			return int64(val), nil
		}
		return val, nil
	default:
		return nil, fmt.Errorf("unsupported parameter type %T", v)
	}
}
