package middleware

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/mekanixms/sqlite-mcp-server/pkg/errors"
	"github.com/mekanixms/sqlite-mcp-server/pkg/handlers"
)

// RecoveryMiddleware provides panic recovery middleware.
type RecoveryMiddleware struct {
	logger zerolog.Logger
}

// NewRecoveryMiddleware creates a new recovery middleware.
func NewRecoveryMiddleware(logger zerolog.Logger) *RecoveryMiddleware {
	return &RecoveryMiddleware{
		logger: logger,
	}
}

// ToolMiddleware returns a tool handler middleware that turns a panic into an
// INTERNAL_ERROR tool result.
func (m *RecoveryMiddleware) ToolMiddleware() server.ToolHandlerMiddleware {
	return func(next server.ToolHandlerFunc) server.ToolHandlerFunc {
		return func(ctx context.Context, req mcp.CallToolRequest) (result *mcp.CallToolResult, err error) {
			defer func() {
				if r := recover(); r != nil {
					m.handlePanic(r, req.Params.Name)
					result = handlers.NewErrorResult(errors.CodeInternal, "internal server error")
					err = nil
				}
			}()

			return next(ctx, req)
		}
	}
}

// handlePanic logs panic information.
func (m *RecoveryMiddleware) handlePanic(r interface{}, tool string) {
	stack := debug.Stack()

	m.logger.Error().
		Str("tool", tool).
		Interface("panic", r).
		Str("stack", string(stack)).
		Msg("Panic recovered")

	// Also print to stderr for debugging
	fmt.Fprintf(stderr, "PANIC in %s: %v\n%s\n", tool, r, stack)
}

// stderr is used for panic output
var stderr io.Writer = os.Stderr
