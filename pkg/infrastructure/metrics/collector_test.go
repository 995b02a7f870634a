package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDiscardCollector(t *testing.T) {
	collector := NewDiscardCollector()

	assert.NotPanics(t, func() {
		collector.IncrementCounter("rejected_statements", "path", "query")
		collector.RecordHistogram("update_affected_rows", 3)
		collector.RecordGauge("open_connections", 1)
	})
}

func TestDiscardCollector_TimerReportsElapsed(t *testing.T) {
	timer := NewDiscardCollector().StartTimer("analyze_table")
	time.Sleep(10 * time.Millisecond)

	duration := timer.Stop()
	assert.GreaterOrEqual(t, duration, 10*time.Millisecond)
	assert.Less(t, duration, time.Second)
}
