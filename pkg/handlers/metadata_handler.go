package handlers

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mekanixms/sqlite-mcp-server/pkg/models"
	"github.com/mekanixms/sqlite-mcp-server/pkg/services"
)

const (
	tablesResourceURI    = "schema://tables"
	tableResourcePrefix  = "schema://"
	tableResourcePattern = "schema://{table}"
)

// MetadataHandler exposes schema introspection as tools and resources.
type MetadataHandler struct {
	metadataService services.MetadataService
	databasePath    string
	timeout         time.Duration
	logger          Logger
	metrics         MetricsCollector
}

// NewMetadataHandler creates a new metadata handler.
func NewMetadataHandler(
	metadataService services.MetadataService,
	databasePath string,
	timeout time.Duration,
	logger Logger,
	metrics MetricsCollector,
) *MetadataHandler {
	return &MetadataHandler{
		metadataService: metadataService,
		databasePath:    databasePath,
		timeout:         timeout,
		logger:          logger,
		metrics:         metrics,
	}
}

// Register adds the metadata tools and schema resources to s.
func (h *MetadataHandler) Register(s *server.MCPServer) {
	listTool := mcp.NewTool(
		"list_tables",
		mcp.WithDescription("List the user tables in the database, sorted by name. Internal sqlite_ tables are excluded."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)
	s.AddTool(listTool, h.handleListTables)

	describeTool := mcp.NewTool(
		"describe_table",
		mcp.WithDescription("Describe a table: its CREATE statement and columns in declaration order."),
		mcp.WithString(
			"table",
			mcp.Required(),
			mcp.Description("Name of the table to describe"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)
	s.AddTool(describeTool, h.handleDescribeTable)

	pathTool := mcp.NewTool(
		"get_database_path",
		mcp.WithDescription("Get the path of the database file this server is connected to."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)
	s.AddTool(pathTool, h.handleDatabasePath)

	s.AddResource(
		mcp.NewResource(tablesResourceURI, "Tables",
			mcp.WithResourceDescription("List of the user tables in the database"),
			mcp.WithMIMEType("text/plain"),
		),
		h.readTablesResource,
	)
	s.AddResourceTemplate(
		mcp.NewResourceTemplate(tableResourcePattern, "Table schema",
			mcp.WithTemplateDescription("CREATE statement and columns of one table"),
			mcp.WithTemplateMIMEType("text/plain"),
		),
		h.readTableResource,
	)
}

func (h *MetadataHandler) handleListTables(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	timer := h.metrics.StartTimer("handler_list_tables")
	defer timer.Stop()

	requestID := newRequestID()
	h.logger.Debug("Handling list_tables", "request_id", requestID)

	ctx, cancel := withTimeout(ctx, h.timeout)
	defer cancel()

	tables, err := h.metadataService.ListTables(ctx)
	if err != nil {
		h.metrics.IncrementCounter("handler_metadata_errors", "tool", "list_tables")
		h.logger.Warn("list_tables failed", "request_id", requestID, "error", err)
		return errorResult(err), nil
	}

	return jsonResult(struct {
		Tables []string `json:"tables"`
	}{Tables: tables}), nil
}

func (h *MetadataHandler) handleDescribeTable(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	timer := h.metrics.StartTimer("handler_describe_table")
	defer timer.Stop()

	requestID := newRequestID()

	table, err := getRequiredString(req, "table")
	if err != nil {
		h.metrics.IncrementCounter("handler_invalid_requests", "tool", "describe_table")
		return errorResult(err), nil
	}

	h.logger.Debug("Handling describe_table", "request_id", requestID, "table", table)

	ctx, cancel := withTimeout(ctx, h.timeout)
	defer cancel()

	schema, err := h.metadataService.DescribeTable(ctx, table)
	if err != nil {
		h.metrics.IncrementCounter("handler_metadata_errors", "tool", "describe_table")
		h.logger.Warn("describe_table failed", "request_id", requestID, "table", table, "error", err)
		return errorResult(err), nil
	}

	return jsonResult(schema), nil
}

func (h *MetadataHandler) handleDatabasePath(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(h.databasePath), nil
}

func (h *MetadataHandler) readTablesResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	ctx, cancel := withTimeout(ctx, h.timeout)
	defer cancel()

	tables, err := h.metadataService.ListTables(ctx)
	if err != nil {
		h.logger.Warn("Failed to read tables resource", "error", err)
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     formatTableList(tables),
		},
	}, nil
}

func (h *MetadataHandler) readTableResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	table, err := tableFromURI(req.Params.URI)
	if err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, h.timeout)
	defer cancel()

	schema, err := h.metadataService.DescribeTable(ctx, table)
	if err != nil {
		h.logger.Warn("Failed to read table resource", "table", table, "error", err)
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     formatTableSchema(schema),
		},
	}, nil
}

// tableFromURI extracts the table name from a schema://{table} URI.
func tableFromURI(uri string) (string, error) {
	if !strings.HasPrefix(uri, tableResourcePrefix) {
		return "", fmt.Errorf("unexpected resource URI %q", uri)
	}
	table, err := url.PathUnescape(strings.TrimPrefix(uri, tableResourcePrefix))
	if err != nil {
		return "", fmt.Errorf("invalid resource URI %q: %w", uri, err)
	}
	if table == "" {
		return "", fmt.Errorf("resource URI %q names no table", uri)
	}
	return table, nil
}

func formatTableList(tables []string) string {
	var b strings.Builder
	b.WriteString("Available tables:")
	for _, t := range tables {
		b.WriteString("\n- ")
		b.WriteString(t)
	}
	return b.String()
}

func formatTableSchema(schema *models.TableSchema) string {
	lines := []string{
		"Table: " + schema.Name,
		"\nCreate Statement:",
		schema.CreateStatement,
		"\nColumns:",
	}
	for _, col := range schema.Columns {
		line := fmt.Sprintf("- %s (%s)", col.Name, col.Type)
		if col.NotNull {
			line += " NOT NULL"
		}
		if col.PrimaryKey {
			line += " PRIMARY KEY"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
