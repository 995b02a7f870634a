// Package metrics records what the explorer does: tool calls, statement
// routing, analysis runs and connection use.
package metrics

import (
	"time"
)

// Namespace prefixes every exported metric name.
const Namespace = "sqlite_explorer"

// Collector receives explorer measurements. Labels are passed as
// alternating key/value strings; a name must always be used with the
// same label keys.
type Collector interface {
	IncrementCounter(name string, labels ...string)
	RecordHistogram(name string, value float64, labels ...string)
	RecordGauge(name string, value float64, labels ...string)

	// StartTimer measures one operation. Collectors that export timings
	// record the elapsed seconds when the timer stops.
	StartTimer(name string) Timer
}

// Timer is a running measurement started by Collector.StartTimer.
type Timer interface {
	Stop() time.Duration
}

// discardCollector is used when the /metrics endpoint is disabled.
type discardCollector struct{}

// NewDiscardCollector returns a Collector that drops every measurement.
// Its timers still report elapsed time so callers can log durations.
func NewDiscardCollector() Collector {
	return discardCollector{}
}

func (discardCollector) IncrementCounter(string, ...string)         {}
func (discardCollector) RecordHistogram(string, float64, ...string) {}
func (discardCollector) RecordGauge(string, float64, ...string)     {}

func (discardCollector) StartTimer(string) Timer {
	return elapsedTimer(time.Now())
}

type elapsedTimer time.Time

func (t elapsedTimer) Stop() time.Duration {
	return time.Since(time.Time(t))
}
