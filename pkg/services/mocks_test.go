package services

import (
	"context"
	"sync"
	"time"

	"github.com/mekanixms/sqlite-mcp-server/pkg/models"
)

// mockQueryRepo implements repositories.QueryRepository
type mockQueryRepo struct {
	executeQueryFunc  func(ctx context.Context, query string, maxRows int64, args ...interface{}) (*models.RowSet, error)
	executeUpdateFunc func(ctx context.Context, statement string, args ...interface{}) (*models.UpdateResult, error)
}

func (m *mockQueryRepo) ExecuteQuery(ctx context.Context, query string, maxRows int64, args ...interface{}) (*models.RowSet, error) {
	return m.executeQueryFunc(ctx, query, maxRows, args...)
}

func (m *mockQueryRepo) ExecuteUpdate(ctx context.Context, statement string, args ...interface{}) (*models.UpdateResult, error) {
	return m.executeUpdateFunc(ctx, statement, args...)
}

// mockMetadataRepo implements repositories.MetadataRepository
type mockMetadataRepo struct {
	listTablesFunc    func(ctx context.Context) ([]string, error)
	tableExistsFunc   func(ctx context.Context, name string) (bool, error)
	describeTableFunc func(ctx context.Context, name string) (*models.TableSchema, error)
}

func (m *mockMetadataRepo) ListTables(ctx context.Context) ([]string, error) {
	return m.listTablesFunc(ctx)
}

func (m *mockMetadataRepo) TableExists(ctx context.Context, name string) (bool, error) {
	return m.tableExistsFunc(ctx, name)
}

func (m *mockMetadataRepo) DescribeTable(ctx context.Context, name string) (*models.TableSchema, error) {
	return m.describeTableFunc(ctx, name)
}

// mockTableRepo implements repositories.TableRepository
type mockTableRepo struct {
	loadTableFunc func(ctx context.Context, name string) (*models.TableSnapshot, error)
}

func (m *mockTableRepo) LoadTable(ctx context.Context, name string) (*models.TableSnapshot, error) {
	return m.loadTableFunc(ctx, name)
}

// mockLogger implements Logger
type mockLogger struct {
	debugFunc func(msg string, keysAndValues ...interface{})
	infoFunc  func(msg string, keysAndValues ...interface{})
	warnFunc  func(msg string, keysAndValues ...interface{})
	errorFunc func(msg string, keysAndValues ...interface{})
}

func (m *mockLogger) Debug(msg string, keysAndValues ...interface{}) {
	if m.debugFunc != nil {
		m.debugFunc(msg, keysAndValues...)
	}
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {
	if m.infoFunc != nil {
		m.infoFunc(msg, keysAndValues...)
	}
}

func (m *mockLogger) Warn(msg string, keysAndValues ...interface{}) {
	if m.warnFunc != nil {
		m.warnFunc(msg, keysAndValues...)
	}
}

func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	if m.errorFunc != nil {
		m.errorFunc(msg, keysAndValues...)
	}
}

// mockMetricsCollector implements MetricsCollector
type mockMetricsCollector struct {
	incrementCounterFunc func(name string, labels ...string)
	recordHistogramFunc  func(name string, value float64, labels ...string)
	recordGaugeFunc      func(name string, value float64, labels ...string)
	startTimerFunc       func(name string) Timer
}

func (m *mockMetricsCollector) IncrementCounter(name string, labels ...string) {
	if m.incrementCounterFunc != nil {
		m.incrementCounterFunc(name, labels...)
	}
}

func (m *mockMetricsCollector) RecordHistogram(name string, value float64, labels ...string) {
	if m.recordHistogramFunc != nil {
		m.recordHistogramFunc(name, value, labels...)
	}
}

func (m *mockMetricsCollector) RecordGauge(name string, value float64, labels ...string) {
	if m.recordGaugeFunc != nil {
		m.recordGaugeFunc(name, value, labels...)
	}
}

func (m *mockMetricsCollector) StartTimer(name string) Timer {
	if m.startTimerFunc != nil {
		return m.startTimerFunc(name)
	}
	return &mockTimer{}
}

// mockTimer implements Timer
type mockTimer struct{}

func (m *mockTimer) Stop() time.Duration {
	return 0
}

// counterRecorder collects counter names for assertions.
type counterRecorder struct {
	mu    sync.Mutex
	names []string
}

func (r *counterRecorder) record(name string, labels ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names = append(r.names, name)
}

func (r *counterRecorder) contains(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.names {
		if n == name {
			return true
		}
	}
	return false
}
