package ports

import "time"

// MetricsCollector is the seam between the partitioner and whatever
// observability backend is wired in. Implementations must be safe for
// concurrent use: every Subpartitioner records against the same
// collector.
type MetricsCollector interface {
	// RecordLatency records how long an operation took.
	RecordLatency(operation string, duration time.Duration, labels map[string]string)

	// RecordCounter increments a named counter by value.
	RecordCounter(metric string, value float64, labels map[string]string)

	// RecordGauge sets a named gauge to value.
	RecordGauge(metric string, value float64, labels map[string]string)
}
