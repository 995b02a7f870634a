package handlers

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mekanixms/sqlite-mcp-server/pkg/models"
	"github.com/mekanixms/sqlite-mcp-server/pkg/services"
)

// AnalysisHandler exposes the analyze_table tool.
type AnalysisHandler struct {
	analysisService services.AnalysisService
	timeout         time.Duration
	logger          Logger
	metrics         MetricsCollector
}

// NewAnalysisHandler creates a new analysis handler.
func NewAnalysisHandler(
	analysisService services.AnalysisService,
	timeout time.Duration,
	logger Logger,
	metrics MetricsCollector,
) *AnalysisHandler {
	return &AnalysisHandler{
		analysisService: analysisService,
		timeout:         timeout,
		logger:          logger,
		metrics:         metrics,
	}
}

// Register adds the analysis tool to s.
func (h *AnalysisHandler) Register(s *server.MCPServer) {
	tool := mcp.NewTool(
		"analyze_table",
		mcp.WithDescription("Compute descriptive statistics for a table: row and column counts, null counts per column, "+
			"and mean/std/min/max for numeric columns. Detailed mode adds count and quartiles for numeric columns "+
			"and the most frequent values of text columns."),
		mcp.WithString(
			"table",
			mcp.Required(),
			mcp.Description("Name of the table to analyze"),
		),
		mcp.WithString(
			"analysis_type",
			mcp.Description("Type of analysis: 'basic' (default) or 'detailed'"),
			mcp.Enum(string(models.AnalysisModeBasic), string(models.AnalysisModeDetailed)),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)
	s.AddTool(tool, h.handleAnalyzeTable)
}

func (h *AnalysisHandler) handleAnalyzeTable(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	timer := h.metrics.StartTimer("handler_analyze_table")
	defer timer.Stop()

	requestID := newRequestID()

	table, err := getRequiredString(req, "table")
	if err != nil {
		h.metrics.IncrementCounter("handler_invalid_requests", "tool", "analyze_table")
		return errorResult(err), nil
	}
	mode := models.AnalysisMode(getOptionalString(req, "analysis_type"))

	h.logger.Debug("Handling analyze_table",
		"request_id", requestID,
		"table", table,
		"analysis_type", mode)

	ctx, cancel := withTimeout(ctx, h.timeout)
	defer cancel()

	report, err := h.analysisService.AnalyzeTable(ctx, table, mode)
	if err != nil {
		h.metrics.IncrementCounter("handler_analysis_errors")
		h.logger.Warn("analyze_table failed", "request_id", requestID, "table", table, "error", err)
		return errorResult(err), nil
	}

	h.logger.Info("Table analyzed",
		"request_id", requestID,
		"table", table,
		"rows", report.RowCount)

	return jsonResult(report), nil
}
