package partitioner

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"
)

// DebugSink accumulates the per-window and cumulative diagnostics the
// reference implementation's DebugStruct tracked: total edges observed
// across all partitions at commit time, the count of edges actually
// placed ("useful" edges, i.e. the window sizes), and the min/max
// wall-clock time any single window commit took. When Writer is non-nil
// each window commit also appends a line of the form "<edgesInParts>
// <windowSize> <elapsedMs>".
type DebugSink struct {
	Writer io.Writer

	totalEdgesInParts int64
	usefulEdges       int64
	maxCommitMs       int64
	minCommitMs       int64
}

// NewDebugSink returns a DebugSink with its min-commit-time floor
// initialized the way the reference DebugStruct does (to a very large
// sentinel, so the first real commit always lowers it).
func NewDebugSink(w io.Writer) *DebugSink {
	return &DebugSink{Writer: w, minCommitMs: 1 << 40}
}

// RecordWindow folds one Subpartitioner commit into the sink's running
// totals and, if a Writer is configured, appends a line describing it.
func (d *DebugSink) RecordWindow(edgesInPartsAfterCommit, windowSize int, elapsed time.Duration) {
	atomic.AddInt64(&d.totalEdgesInParts, int64(edgesInPartsAfterCommit))
	atomic.AddInt64(&d.usefulEdges, int64(windowSize))

	ms := elapsed.Milliseconds()
	updateMax(&d.maxCommitMs, ms)
	updateMin(&d.minCommitMs, ms)

	if d.Writer != nil {
		fmt.Fprintf(d.Writer, "%d %d %d\n", edgesInPartsAfterCommit, windowSize, ms)
	}
}

// TotalEdgesInParts returns the cumulative edges-in-partitions total
// recorded across every window commit.
func (d *DebugSink) TotalEdgesInParts() int64 { return atomic.LoadInt64(&d.totalEdgesInParts) }

// UsefulEdges returns the cumulative count of edges placed across every
// window commit.
func (d *DebugSink) UsefulEdges() int64 { return atomic.LoadInt64(&d.usefulEdges) }

// MaxCommitMs and MinCommitMs report the slowest and fastest window commit
// observed so far, in milliseconds.
func (d *DebugSink) MaxCommitMs() int64 { return atomic.LoadInt64(&d.maxCommitMs) }
func (d *DebugSink) MinCommitMs() int64 { return atomic.LoadInt64(&d.minCommitMs) }

func updateMax(addr *int64, v int64) {
	for {
		cur := atomic.LoadInt64(addr)
		if cur >= v {
			return
		}
		if atomic.CompareAndSwapInt64(addr, cur, v) {
			return
		}
	}
}

func updateMin(addr *int64, v int64) {
	for {
		cur := atomic.LoadInt64(addr)
		if cur <= v {
			return
		}
		if atomic.CompareAndSwapInt64(addr, cur, v) {
			return
		}
	}
}
