package handlers

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mekanixms/sqlite-mcp-server/pkg/models"
	"github.com/mekanixms/sqlite-mcp-server/pkg/services"
)

// MockQueryService is a mock implementation of services.QueryService
type MockQueryService struct {
	mock.Mock
}

func (m *MockQueryService) ExecuteQuery(ctx context.Context, req *models.QueryRequest) (*models.RowSet, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RowSet), args.Error(1)
}

func (m *MockQueryService) ExecuteUpdate(ctx context.Context, req *models.UpdateRequest) (*models.UpdateResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UpdateResult), args.Error(1)
}

func (m *MockQueryService) ClassifyStatement(query string) services.StatementInfo {
	args := m.Called(query)
	return args.Get(0).(services.StatementInfo)
}

// MockMetadataService is a mock implementation of services.MetadataService
type MockMetadataService struct {
	mock.Mock
}

func (m *MockMetadataService) ListTables(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockMetadataService) DescribeTable(ctx context.Context, table string) (*models.TableSchema, error) {
	args := m.Called(ctx, table)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TableSchema), args.Error(1)
}

func (m *MockMetadataService) TableExists(ctx context.Context, table string) (bool, error) {
	args := m.Called(ctx, table)
	return args.Bool(0), args.Error(1)
}

// MockAnalysisService is a mock implementation of services.AnalysisService
type MockAnalysisService struct {
	mock.Mock
}

func (m *MockAnalysisService) AnalyzeTable(ctx context.Context, table string, mode models.AnalysisMode) (*models.AnalysisReport, error) {
	args := m.Called(ctx, table, mode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AnalysisReport), args.Error(1)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}

type countingMetrics struct {
	counters map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{counters: make(map[string]int)}
}

func (m *countingMetrics) IncrementCounter(name string, _ ...string)  { m.counters[name]++ }
func (m *countingMetrics) RecordHistogram(string, float64, ...string) {}
func (m *countingMetrics) RecordGauge(string, float64, ...string)     {}
func (m *countingMetrics) StartTimer(string) Timer                    { return noopTimer{} }

type noopTimer struct{}

func (noopTimer) Stop() time.Duration { return 0 }

func newTestServer(registrars ...ToolRegistrar) *server.MCPServer {
	s := server.NewMCPServer("sqlite-explorer-test", "1.0.0", server.WithToolCapabilities(true))
	for _, r := range registrars {
		r.Register(s)
	}
	return s
}

type toolCallResponse struct {
	Result *struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		IsError bool `json:"isError"`
	} `json:"result"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// text returns the single text content of a successful JSON-RPC response.
func (r toolCallResponse) text(t *testing.T) string {
	t.Helper()
	require.Nil(t, r.Error, "unexpected JSON-RPC error")
	require.NotNil(t, r.Result)
	require.Len(t, r.Result.Content, 1)
	require.Equal(t, "text", r.Result.Content[0].Type)
	return r.Result.Content[0].Text
}

func callTool(t *testing.T, s *server.MCPServer, name string, arguments map[string]any) toolCallResponse {
	t.Helper()

	callReq := map[string]any{
		"jsonrpc": "2.0",
		"method":  "tools/call",
		"id":      1,
		"params": map[string]any{
			"name":      name,
			"arguments": arguments,
		},
	}
	reqBytes, err := json.Marshal(callReq)
	require.NoError(t, err)

	result := s.HandleMessage(context.Background(), reqBytes)

	resultBytes, err := json.Marshal(result)
	require.NoError(t, err)

	var response toolCallResponse
	require.NoError(t, json.Unmarshal(resultBytes, &response))
	return response
}

// decodeError parses the body of a failed tool call.
func decodeError(t *testing.T, resp toolCallResponse) ErrorResponse {
	t.Helper()
	require.True(t, resp.Result != nil && resp.Result.IsError, "expected an error result")
	var body ErrorResponse
	require.NoError(t, json.Unmarshal([]byte(resp.text(t)), &body))
	return body
}

type resourceReadResponse struct {
	Result *struct {
		Contents []struct {
			URI      string `json:"uri"`
			MIMEType string `json:"mimeType"`
			Text     string `json:"text"`
		} `json:"contents"`
	} `json:"result"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func readResource(t *testing.T, s *server.MCPServer, uri string) resourceReadResponse {
	t.Helper()

	readReq := map[string]any{
		"jsonrpc": "2.0",
		"method":  "resources/read",
		"id":      1,
		"params": map[string]any{
			"uri": uri,
		},
	}
	reqBytes, err := json.Marshal(readReq)
	require.NoError(t, err)

	result := s.HandleMessage(context.Background(), reqBytes)

	resultBytes, err := json.Marshal(result)
	require.NoError(t, err)

	var response resourceReadResponse
	require.NoError(t, json.Unmarshal(resultBytes, &response))
	return response
}
