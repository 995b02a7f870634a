// Package handlers exposes the explorer services as MCP tools and resources.
package handlers

import (
	"time"

	"github.com/mark3labs/mcp-go/server"
)

// ToolRegistrar registers a group of tools or resources on an MCP server.
type ToolRegistrar interface {
	Register(s *server.MCPServer)
}

// Logger defines the logging interface.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// MetricsCollector defines the metrics interface.
type MetricsCollector interface {
	IncrementCounter(name string, tags ...string)
	RecordHistogram(name string, value float64, tags ...string)
	RecordGauge(name string, value float64, tags ...string)
	StartTimer(name string) Timer
}

// Timer represents a timing measurement.
type Timer interface {
	Stop() time.Duration
}
