package partitioner

import (
	"context"
	"time"

	"github.com/ahrav/streamcut/internal/domain"
	"github.com/ahrav/streamcut/internal/ports"
)

// accWindowRefreshFactor is how many windows an AsyncSubpartitioner works
// against the same cached partition snapshot before refetching it.
// Refetching every window would serialize every worker on the backend;
// never refetching would let the local copy drift arbitrarily far from
// what other workers have published.
const accWindowRefreshFactor = 5

// placement is one worker-local routing decision: edge e was assigned to
// partition part. AsyncSubpartitioner hands these to its paired Publisher
// instead of publishing partition deltas itself.
type placement struct {
	part int
	edge domain.Edge
}

// AsyncSubpartitioner decouples local placement from global partition
// publication: vertex deltas are still published inline (cheap, and
// needed promptly so sibling workers see updated degrees), but edge
// placements are queued for a paired Publisher goroutine to batch and
// apply, trading a little publication latency for not serializing workers
// on PutParts.
type AsyncSubpartitioner struct {
	Backend ports.Backend
	Scorer  ports.Scorer
	Window  int
	Queue   chan<- placement

	Metrics  ports.MetricsCollector
	Observer CommitObserver
	Debug    *DebugSink

	parts     []domain.Partition
	accWindow int
}

// Run mirrors Subpartitioner.Run's pull loop, differing only in how a
// window's results are merged back (see commit).
func (s *AsyncSubpartitioner) Run(ctx context.Context) error {
	window := make(map[domain.Edge]struct{})
	vs := make(map[int64]struct{})
	s.accWindow = -1

	for {
		if err := s.Backend.CheckCrashed(ctx); err != nil {
			return err
		}
		e, ok, err := s.Backend.GetEdge(ctx)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		window[e] = struct{}{}
		vs[e.U] = struct{}{}
		vs[e.V] = struct{}{}

		if len(window)%s.Window == 0 {
			if err := s.commit(ctx, window, vs); err != nil {
				return err
			}
			window = make(map[domain.Edge]struct{})
			vs = make(map[int64]struct{})
		}
	}
	if len(window) > 0 {
		if err := s.commit(ctx, window, vs); err != nil {
			return err
		}
	}
	return nil
}

func (s *AsyncSubpartitioner) commit(ctx context.Context, window map[domain.Edge]struct{}, vs map[int64]struct{}) error {
	start := time.Now()
	if s.Observer != nil {
		ctx = s.Observer.PreCommit(ctx, len(window))
	}

	verts, err := s.Backend.GetVertsSubset(ctx, vs)
	if err != nil {
		s.finishCommit(ctx, len(window), start, err)
		return err
	}
	if s.accWindow == -1 || s.accWindow%accWindowRefreshFactor == 0 {
		s.accWindow = 0
		s.parts, err = s.Backend.GetParts(ctx)
		if err != nil {
			s.finishCommit(ctx, len(window), start, err)
			return err
		}
	}
	s.accWindow++

	for e := range window {
		u, v := verts[e.U], verts[e.V]
		u.Deg++
		v.Deg++
		u.DeltaDeg++
		v.DeltaDeg++

		if len(s.parts) == 0 {
			s.finishCommit(ctx, len(window), start, domain.ErrNoPartitionSelected)
			return domain.ErrNoPartitionSelected
		}
		best, _ := s.Scorer.Score(u, v, s.parts)
		u.AddPart(best)
		v.AddPart(best)
		s.parts[best].AddEdge(e)

		verts[e.U] = u
		verts[e.V] = v

		select {
		case s.Queue <- placement{part: best, edge: e}:
		case <-ctx.Done():
			s.finishCommit(ctx, len(window), start, ctx.Err())
			return ctx.Err()
		}
	}

	// Unlike put_parts, vertex deltas are still published synchronously:
	// downstream workers rely on up-to-date degree/membership when they
	// compute theta in HDRF.
	if err := s.Backend.PutVerts(ctx, verts); err != nil {
		s.finishCommit(ctx, len(window), start, err)
		return err
	}
	s.finishCommit(ctx, len(window), start, nil)
	return nil
}

func (s *AsyncSubpartitioner) finishCommit(ctx context.Context, windowSize int, start time.Time, err error) {
	elapsed := time.Since(start)
	if s.Debug != nil {
		s.Debug.RecordWindow(0, windowSize, elapsed)
	}
	if s.Metrics != nil {
		s.Metrics.RecordLatency("window_commit", elapsed, map[string]string{"mode": "async"})
	}
	if s.Observer != nil {
		s.Observer.PostCommit(ctx, windowSize, 0, elapsed, err)
	}
}

// publisherDrainInterval bounds how long a placement can sit queued
// before a Publisher batches it into a PutParts call.
const publisherDrainInterval = 5 * time.Millisecond

// Publisher drains one worker's placement queue into partition deltas and
// applies them to Backend. It is the one piece of the async design that
// the reference implementation gets wrong: its publisher loop checks
// `stop` before draining, so placements queued between the last drain and
// the worker finishing can be lost. This Publisher always performs one
// more unconditional drain upon observing stop before returning.
type Publisher struct {
	Backend ports.Backend
	K       int
	Queue   <-chan placement
}

// Run drains Queue into Backend.PutParts on a fixed interval until stop is
// closed, then performs a final drain before returning.
func (p *Publisher) Run(ctx context.Context, stop <-chan struct{}) error {
	ticker := time.NewTicker(publisherDrainInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return p.drain(ctx)
		case <-ticker.C:
			if err := p.drain(ctx); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (p *Publisher) drain(ctx context.Context) error {
	delta := make([]domain.Partition, p.K)
	for i := range delta {
		delta[i] = domain.NewPartition()
	}

	got := false
drainLoop:
	for {
		select {
		case pl, ok := <-p.Queue:
			if !ok {
				break drainLoop
			}
			delta[pl.part].AddEdge(pl.edge)
			got = true
		default:
			break drainLoop
		}
	}
	if !got {
		return nil
	}
	return p.Backend.PutParts(ctx, delta)
}
