// Package middleware provides tool-call middleware for the MCP server.
package middleware

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
)

// LoggingMiddleware provides tool call logging middleware.
type LoggingMiddleware struct {
	logger zerolog.Logger
}

// NewLoggingMiddleware creates a new logging middleware.
func NewLoggingMiddleware(logger zerolog.Logger) *LoggingMiddleware {
	return &LoggingMiddleware{
		logger: logger,
	}
}

// ToolMiddleware returns a tool handler middleware that logs every call.
func (m *LoggingMiddleware) ToolMiddleware() server.ToolHandlerMiddleware {
	return func(next server.ToolHandlerFunc) server.ToolHandlerFunc {
		return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			start := time.Now()

			result, err := next(ctx, req)

			duration := time.Since(start)
			isError := result != nil && result.IsError

			event := m.logger.Info()
			switch {
			case err != nil:
				event = m.logger.Error().Err(err)
			case isError:
				event = m.logger.Warn()
			}

			event.
				Str("tool", req.Params.Name).
				Dur("duration", duration).
				Bool("is_error", isError).
				Msg("Tool call")

			return result, err
		}
	}
}
