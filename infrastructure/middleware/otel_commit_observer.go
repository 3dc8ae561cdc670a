package middleware

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/streamcut/internal/partitioner"
	"github.com/ahrav/streamcut/internal/ports"
)

var _ partitioner.CommitObserver = (*OTelCommitObserver)(nil)

type otelSpanKey struct{}

// OTelCommitObserver implements partitioner.CommitObserver with OpenTelemetry
// tracing: one span per window commit, carrying window size and the
// resulting edges-in-partitions count. Unlike a single observer field
// keyed to one in-flight span, the span here travels in the context
// PreCommit returns, since many Subpartitioner workers share one observer
// concurrently.
type OTelCommitObserver struct {
	metrics ports.MetricsCollector
	mode    string
}

// NewOTelCommitObserver creates a commit observer; mode ("sync" or "async")
// is attached to every metric this observer records.
func NewOTelCommitObserver(metrics ports.MetricsCollector, mode string) *OTelCommitObserver {
	return &OTelCommitObserver{metrics: metrics, mode: mode}
}

// PreCommit starts a span for one window commit and returns the context
// carrying it; PostCommit retrieves the span from the context it's given.
func (o *OTelCommitObserver) PreCommit(ctx context.Context, windowSize int) context.Context {
	tracer := otel.Tracer("streamcut-partitioner")
	ctx, span := tracer.Start(ctx, "Subpartitioner.Commit")
	span.SetAttributes(attribute.Int("window.size", windowSize))
	return context.WithValue(ctx, otelSpanKey{}, span)
}

// PostCommit finalizes the span started by PreCommit and records the commit
// outcome; latency and placed-edge counts go to the metrics collector only
// for a successful commit.
func (o *OTelCommitObserver) PostCommit(
	ctx context.Context,
	windowSize, edgesInPartsAfterCommit int,
	elapsed time.Duration,
	err error,
) {
	span, ok := ctx.Value(otelSpanKey{}).(trace.Span)
	if !ok {
		return
	}
	defer span.End()

	span.SetAttributes(
		attribute.Int("window.size", windowSize),
		attribute.Int("window.edges_in_parts", edgesInPartsAfterCommit),
		attribute.Int64("window.elapsed_ms", elapsed.Milliseconds()),
	)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if o.metrics != nil {
			o.metrics.RecordCounter("window_commits_total", 1, map[string]string{
				"mode":   o.mode,
				"status": "error",
			})
		}
		return
	}

	span.AddEvent("window.committed", trace.WithAttributes(
		attribute.Int("window.size", windowSize),
	))
	span.SetStatus(codes.Ok, "window committed")

	if o.metrics != nil {
		labels := map[string]string{"mode": o.mode}
		o.metrics.RecordLatency("window_commit", elapsed, labels)
		o.metrics.RecordCounter("edges_placed_total", float64(windowSize), labels)
		o.metrics.RecordCounter("window_commits_total", 1, map[string]string{
			"mode":   o.mode,
			"status": "ok",
		})
	}
}
