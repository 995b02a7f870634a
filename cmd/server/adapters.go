package main

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mekanixms/sqlite-mcp-server/cmd/server/middleware"
	"github.com/mekanixms/sqlite-mcp-server/pkg/handlers"
	"github.com/mekanixms/sqlite-mcp-server/pkg/infrastructure/metrics"
	"github.com/mekanixms/sqlite-mcp-server/pkg/services"
)

// keyValueLogger adapts zerolog.Logger to the key/value logging interfaces
// used by services and handlers.
type keyValueLogger struct {
	logger zerolog.Logger
}

func (l *keyValueLogger) log(event *zerolog.Event, msg string, keysAndValues []interface{}) {
	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 < len(keysAndValues) {
			key := fmt.Sprintf("%v", keysAndValues[i])
			value := keysAndValues[i+1]
			if err, ok := value.(error); ok {
				event = event.AnErr(key, err)
				continue
			}
			event = event.Interface(key, value)
		}
	}
	event.Msg(msg)
}

func (l *keyValueLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.log(l.logger.Debug(), msg, keysAndValues)
}

func (l *keyValueLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log(l.logger.Info(), msg, keysAndValues)
}

func (l *keyValueLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.log(l.logger.Warn(), msg, keysAndValues)
}

func (l *keyValueLogger) Error(msg string, keysAndValues ...interface{}) {
	l.log(l.logger.Error(), msg, keysAndValues)
}

// serviceLoggerAdapter adapts zerolog.Logger to services.Logger
type serviceLoggerAdapter = keyValueLogger

// handlerLoggerAdapter adapts zerolog.Logger to handlers.Logger
type handlerLoggerAdapter = keyValueLogger

var (
	_ services.Logger = (*serviceLoggerAdapter)(nil)
	_ handlers.Logger = (*handlerLoggerAdapter)(nil)
)

// serviceMetricsAdapter adapts metrics.Collector to services.MetricsCollector
type serviceMetricsAdapter struct {
	collector metrics.Collector
}

func (m *serviceMetricsAdapter) IncrementCounter(name string, labels ...string) {
	m.collector.IncrementCounter(name, labels...)
}

func (m *serviceMetricsAdapter) RecordHistogram(name string, value float64, labels ...string) {
	m.collector.RecordHistogram(name, value, labels...)
}

func (m *serviceMetricsAdapter) RecordGauge(name string, value float64, labels ...string) {
	m.collector.RecordGauge(name, value, labels...)
}

func (m *serviceMetricsAdapter) StartTimer(name string) services.Timer {
	return m.collector.StartTimer(name)
}

// handlerMetricsAdapter adapts metrics.Collector to handlers.MetricsCollector
type handlerMetricsAdapter struct {
	collector metrics.Collector
}

func (m *handlerMetricsAdapter) IncrementCounter(name string, labels ...string) {
	m.collector.IncrementCounter(name, labels...)
}

func (m *handlerMetricsAdapter) RecordHistogram(name string, value float64, labels ...string) {
	m.collector.RecordHistogram(name, value, labels...)
}

func (m *handlerMetricsAdapter) RecordGauge(name string, value float64, labels ...string) {
	m.collector.RecordGauge(name, value, labels...)
}

func (m *handlerMetricsAdapter) StartTimer(name string) handlers.Timer {
	return m.collector.StartTimer(name)
}

// middlewareMetricsAdapter adapts metrics.Collector to middleware.MetricsCollector
type middlewareMetricsAdapter struct {
	collector metrics.Collector
}

func (m *middlewareMetricsAdapter) IncrementCounter(name string, labels ...string) {
	m.collector.IncrementCounter(name, labels...)
}

func (m *middlewareMetricsAdapter) RecordHistogram(name string, value float64, labels ...string) {
	m.collector.RecordHistogram(name, value, labels...)
}

func (m *middlewareMetricsAdapter) RecordGauge(name string, value float64, labels ...string) {
	m.collector.RecordGauge(name, value, labels...)
}

func (m *middlewareMetricsAdapter) StartTimer(name string) middleware.Timer {
	return m.collector.StartTimer(name)
}

// poolMetricsAdapter adapts metrics.Collector to pool.MetricsCollector
type poolMetricsAdapter struct {
	collector metrics.Collector
}

func (m *poolMetricsAdapter) RecordConnectionAcquisition(duration time.Duration) {
	m.collector.IncrementCounter("connection_acquisitions")
	m.collector.RecordHistogram("connection_wait_seconds", duration.Seconds())
}

func (m *poolMetricsAdapter) RecordConnectionFailure() {
	m.collector.IncrementCounter("connection_failures")
}
