package partitioner

import (
	"context"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/ahrav/streamcut/internal/domain"
	"github.com/ahrav/streamcut/internal/ports"
)

// queueDepth is the buffer size of each async worker's placement queue.
// Deep enough to absorb a full window's worth of placements without the
// worker blocking on a slow publisher.
const queueDepth = 4096

// Coordinator owns a pool of Subpartitioner (or AsyncSubpartitioner)
// workers sharing one Backend and one Scorer, the way the reference
// implementation's major partitioner owns its subpartitioner threads.
// It starts the pool, waits for it to drain the edge source, and reports
// the resulting partition quality.
type Coordinator struct {
	Backend ports.Backend
	Scorer  ports.Scorer

	K      int
	Window int
	Subp   int
	Async  bool

	Metrics  ports.MetricsCollector
	Observer CommitObserver
	Debug    *DebugSink
}

// Run starts Subp workers against Backend and blocks until every worker
// has exhausted the edge source (or one fails). In async mode each worker
// is paired with a Publisher goroutine; Run signals those publishers to
// perform their final drain only after every worker has finished, then
// waits for the publishers too.
func (c *Coordinator) Run(ctx context.Context) error {
	if c.Async {
		return c.runAsync(ctx)
	}
	return c.runSync(ctx)
}

func (c *Coordinator) runSync(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < c.Subp; i++ {
		w := &Subpartitioner{
			Backend:  c.Backend,
			Scorer:   c.Scorer,
			Window:   c.Window,
			Metrics:  c.Metrics,
			Observer: c.Observer,
			Debug:    c.Debug,
		}
		g.Go(func() error { return w.Run(gctx) })
	}
	return g.Wait()
}

// runAsync starts Subp worker/publisher pairs and joins them in the order
// the reference design requires: workers first, then publishers, so that
// a publisher's final drain (see Publisher.Run) only fires once its
// worker can no longer enqueue anything new.
func (c *Coordinator) runAsync(ctx context.Context) error {
	workers, gctx := errgroup.WithContext(ctx)
	var pubs errgroup.Group

	stops := make([]chan struct{}, c.Subp)

	for i := 0; i < c.Subp; i++ {
		queue := make(chan placement, queueDepth)
		stop := make(chan struct{})
		stops[i] = stop
		p := &Publisher{Backend: c.Backend, K: c.K, Queue: queue}
		pubs.Go(func() error { return p.Run(ctx, stop) })

		w := &AsyncSubpartitioner{
			Backend:  c.Backend,
			Scorer:   c.Scorer,
			Window:   c.Window,
			Queue:    queue,
			Metrics:  c.Metrics,
			Observer: c.Observer,
			Debug:    c.Debug,
		}
		workers.Go(func() error { return w.Run(gctx) })
	}

	workersErr := workers.Wait()
	for _, stop := range stops {
		close(stop)
	}
	pubsErr := pubs.Wait()

	if workersErr != nil {
		return workersErr
	}
	return pubsErr
}

// AssessmentReport summarizes the quality of a completed partitioning run
// and flags the non-fatal inconsistencies a racing set of workers can
// leave behind: an edge placed into more than one partition, or an edge
// the source produced that never made it into any partition.
type AssessmentReport struct {
	ReplicateFactor     float64
	LoadRelativeStddev  float64
	DuplicatePlacements []domain.Edge
	MissingEdges        []domain.Edge
}

// Assess computes partition quality metrics against Backend's current
// state: replication factor (total vertex replicas across partitions
// divided by vertex count), load relative standard deviation (partition
// size stddev divided by mean partition size), and any duplicate or
// missing edge placements.
func (c *Coordinator) Assess(ctx context.Context) (*AssessmentReport, error) {
	verts, err := c.Backend.GetVerts(ctx)
	if err != nil {
		return nil, err
	}
	parts, err := c.Backend.GetParts(ctx)
	if err != nil {
		return nil, err
	}
	edges, err := c.Backend.GetEdges(ctx)
	if err != nil {
		return nil, err
	}

	report := &AssessmentReport{}

	totalReplicas := 0
	for _, v := range verts {
		if n := len(v.Parts); n > 0 {
			totalReplicas += n
		}
	}
	if len(verts) > 0 {
		report.ReplicateFactor = float64(totalReplicas) / float64(len(verts))
	}

	sizes := make([]float64, len(parts))
	var total float64
	for i, p := range parts {
		sizes[i] = float64(p.Size())
		total += sizes[i]
	}
	if len(sizes) > 0 {
		mean := total / float64(len(sizes))
		var variance float64
		for _, s := range sizes {
			d := s - mean
			variance += d * d
		}
		if len(sizes) > 1 {
			variance /= float64(len(sizes) - 1)
		}
		if mean > 0 {
			report.LoadRelativeStddev = math.Sqrt(variance) / mean
		}
	}

	placedIn := make(map[domain.Edge]int, len(edges))
	for _, p := range parts {
		for e := range p.Edges {
			placedIn[e]++
		}
	}
	for e, n := range placedIn {
		if n > 1 {
			report.DuplicatePlacements = append(report.DuplicatePlacements, e)
		}
	}
	for e := range edges {
		if placedIn[e] == 0 {
			report.MissingEdges = append(report.MissingEdges, e)
		}
	}

	return report, nil
}
