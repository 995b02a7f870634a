package handlers

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mekanixms/sqlite-mcp-server/pkg/models"
	"github.com/mekanixms/sqlite-mcp-server/pkg/services"
)

// QueryHandler exposes the query and update_data tools.
type QueryHandler struct {
	queryService services.QueryService
	timeout      time.Duration
	logger       Logger
	metrics      MetricsCollector
}

// NewQueryHandler creates a new query handler. timeout bounds each call; zero
// disables it.
func NewQueryHandler(
	queryService services.QueryService,
	timeout time.Duration,
	logger Logger,
	metrics MetricsCollector,
) *QueryHandler {
	return &QueryHandler{
		queryService: queryService,
		timeout:      timeout,
		logger:       logger,
		metrics:      metrics,
	}
}

// Register adds the query tools to s.
func (h *QueryHandler) Register(s *server.MCPServer) {
	queryTool := mcp.NewTool(
		"query",
		mcp.WithDescription("Execute a single read-only SELECT statement and return the rows as JSON. "+
			"Writes, DDL and multi-statement input are rejected; use update_data for INSERT, UPDATE or DELETE."),
		mcp.WithString(
			"sql",
			mcp.Required(),
			mcp.Description("SELECT statement to execute"),
		),
		mcp.WithArray(
			"params",
			mcp.Description("Optional positional values bound to ? placeholders"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)
	s.AddTool(queryTool, h.handleQuery)

	updateTool := mcp.NewTool(
		"update_data",
		mcp.WithDescription("Execute a single INSERT, UPDATE or DELETE statement in its own transaction. "+
			"The change is committed only if the statement succeeds."),
		mcp.WithString(
			"sql",
			mcp.Required(),
			mcp.Description("INSERT, UPDATE or DELETE statement to execute"),
		),
		mcp.WithArray(
			"params",
			mcp.Description("Optional positional values bound to ? placeholders"),
		),
		mcp.WithString(
			"table",
			mcp.Description("Optional: table the statement modifies (informational)"),
		),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(false),
	)
	s.AddTool(updateTool, h.handleUpdate)
}

func (h *QueryHandler) handleQuery(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	timer := h.metrics.StartTimer("handler_query")
	defer timer.Stop()

	requestID := newRequestID()

	query, err := getRequiredString(req, "sql")
	if err != nil {
		h.metrics.IncrementCounter("handler_invalid_requests", "tool", "query")
		return errorResult(err), nil
	}
	params, err := getParams(req, "params")
	if err != nil {
		h.metrics.IncrementCounter("handler_invalid_requests", "tool", "query")
		return errorResult(err), nil
	}

	h.logger.Debug("Handling query",
		"request_id", requestID,
		"query", truncateQuery(query),
		"params", len(params))

	ctx, cancel := withTimeout(ctx, h.timeout)
	defer cancel()

	result, err := h.queryService.ExecuteQuery(ctx, &models.QueryRequest{
		Query:      query,
		Parameters: params,
	})
	if err != nil {
		h.metrics.IncrementCounter("handler_query_errors")
		h.logger.Warn("Query failed",
			"request_id", requestID,
			"query", truncateQuery(query),
			"error", err)
		return errorResult(err), nil
	}

	h.logger.Info("Query completed",
		"request_id", requestID,
		"rows", result.RowCount,
		"truncated", result.Truncated)

	return jsonResult(result), nil
}

func (h *QueryHandler) handleUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	timer := h.metrics.StartTimer("handler_update")
	defer timer.Stop()

	requestID := newRequestID()

	statement, err := getRequiredString(req, "sql")
	if err != nil {
		h.metrics.IncrementCounter("handler_invalid_requests", "tool", "update_data")
		return errorResult(err), nil
	}
	params, err := getParams(req, "params")
	if err != nil {
		h.metrics.IncrementCounter("handler_invalid_requests", "tool", "update_data")
		return errorResult(err), nil
	}
	table := getOptionalString(req, "table")

	h.logger.Debug("Handling update",
		"request_id", requestID,
		"statement", truncateQuery(statement),
		"table", table,
		"params", len(params))

	ctx, cancel := withTimeout(ctx, h.timeout)
	defer cancel()

	result, err := h.queryService.ExecuteUpdate(ctx, &models.UpdateRequest{
		Statement:  statement,
		Parameters: params,
		Table:      table,
	})
	if err != nil {
		h.metrics.IncrementCounter("handler_update_errors")
		h.logger.Warn("Update failed",
			"request_id", requestID,
			"statement", truncateQuery(statement),
			"error", err)
		return errorResult(err), nil
	}

	h.logger.Info("Update completed",
		"request_id", requestID,
		"rows_affected", result.RowsAffected)

	return jsonResult(result), nil
}
