// Package services contains business logic implementations.
package services

import (
	"context"
	"time"

	"github.com/mekanixms/sqlite-mcp-server/pkg/models"
)

// QueryService defines statement execution operations.
type QueryService interface {
	// ExecuteQuery runs a read-only statement.
	ExecuteQuery(ctx context.Context, req *models.QueryRequest) (*models.RowSet, error)
	// ExecuteUpdate runs a single INSERT, UPDATE or DELETE.
	ExecuteUpdate(ctx context.Context, req *models.UpdateRequest) (*models.UpdateResult, error)
	// ClassifyStatement reports how a statement would be routed.
	ClassifyStatement(query string) StatementInfo
}

// MetadataService defines schema introspection operations.
type MetadataService interface {
	ListTables(ctx context.Context) ([]string, error)
	DescribeTable(ctx context.Context, table string) (*models.TableSchema, error)
	TableExists(ctx context.Context, table string) (bool, error)
}

// AnalysisService defines table profiling operations.
type AnalysisService interface {
	AnalyzeTable(ctx context.Context, table string, mode models.AnalysisMode) (*models.AnalysisReport, error)
}

// Logger defines logging interface.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// MetricsCollector defines metrics collection interface.
type MetricsCollector interface {
	IncrementCounter(name string, labels ...string)
	RecordHistogram(name string, value float64, labels ...string)
	RecordGauge(name string, value float64, labels ...string)
	StartTimer(name string) Timer
}

// Timer represents a timing measurement.
type Timer interface {
	Stop() time.Duration
}
