package partitioner

import (
	"context"
	"time"

	"github.com/ahrav/streamcut/internal/domain"
	"github.com/ahrav/streamcut/internal/ports"
)

// Subpartitioner is the synchronous windowed worker: it pulls edges from
// a Backend one at a time, accumulates them into a window, and on every
// Window'th edge (plus a final partial window at exhaustion) scores and
// places the whole window against a fresh snapshot before merging the
// result back.
type Subpartitioner struct {
	Backend ports.Backend
	Scorer  ports.Scorer
	Window  int

	Metrics  ports.MetricsCollector
	Observer CommitObserver
	Debug    *DebugSink
}

// CommitObserver is notified around each window commit. Implementations
// must tolerate a nil Debug/Metrics pair; OTelCommitObserver is the
// production implementation.
type CommitObserver interface {
	PreCommit(ctx context.Context, windowSize int) context.Context
	PostCommit(ctx context.Context, windowSize, edgesInPartsAfterCommit int, elapsed time.Duration, err error)
}

// Run drives the worker to completion: pull edges until the backend is
// exhausted, committing a window every config.Window edges and once more
// for any partial trailing window.
func (s *Subpartitioner) Run(ctx context.Context) error {
	window := make(map[domain.Edge]struct{})
	vs := make(map[int64]struct{})

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

// commit snapshots the vertices touched by window and the full partition
// slice, scores and places every edge in window against those copies, and
// publishes the result. All state fetched here is a copy: multiple
// Subpartitioners may be racing against the same Backend.
func (s *Subpartitioner) commit(ctx context.Context, window map[domain.Edge]struct{}, vs map[int64]struct{}) error {
	start := time.Now()
	if s.Observer != nil {
		ctx = s.Observer.PreCommit(ctx, len(window))
	}

	verts, parts, err := s.snapshot(ctx, vs)
	if err != nil {
		s.finishCommit(ctx, len(window), 0, start, err)
		return err
	}

	for e := range window {
		if err := s.placeEdge(e, verts, parts); err != nil {
			s.finishCommit(ctx, len(window), 0, start, err)
			return err
		}
	}

	if err := s.Backend.PutVerts(ctx, verts); err != nil {
		s.finishCommit(ctx, len(window), 0, start, err)
		return err
	}
	if err := s.Backend.PutParts(ctx, parts); err != nil {
		s.finishCommit(ctx, len(window), 0, start, err)
		return err
	}

	edgesInParts := 0
	for _, p := range parts {
		edgesInParts += p.Size()
	}
	s.finishCommit(ctx, len(window), edgesInParts, start, nil)
	return nil
}

func (s *Subpartitioner) snapshot(ctx context.Context, vs map[int64]struct{}) (map[int64]domain.Vertex, []domain.Partition, error) {
	verts, err := s.Backend.GetVertsSubset(ctx, vs)
	if err != nil {
		return nil, nil, err
	}
	parts, err := s.Backend.GetParts(ctx)
	if err != nil {
		return nil, nil, err
	}
	return verts, parts, nil
}

// placeEdge scores edge e against the worker-local verts/parts copies and
// applies the placement to both. verts must already contain entries for
// e.U and e.V (snapshot guarantees this).
func (s *Subpartitioner) placeEdge(e domain.Edge, verts map[int64]domain.Vertex, parts []domain.Partition) error {
	u, v := verts[e.U], verts[e.V]
	u.Deg++
	v.Deg++
	u.DeltaDeg++
	v.DeltaDeg++

	if len(parts) == 0 {
		return domain.ErrNoPartitionSelected
	}
	best, _ := s.Scorer.Score(u, v, parts)

	u.AddPart(best)
	v.AddPart(best)
	parts[best].AddEdge(e)

	verts[e.U] = u
	verts[e.V] = v
	return nil
}

func (s *Subpartitioner) finishCommit(ctx context.Context, windowSize, edgesInParts int, start time.Time, err error) {
	elapsed := time.Since(start)
	if s.Debug != nil {
		s.Debug.RecordWindow(edgesInParts, windowSize, elapsed)
	}
	if s.Metrics != nil {
		s.Metrics.RecordLatency("window_commit", elapsed, nil)
		s.Metrics.RecordCounter("edges_placed_total", float64(windowSize), nil)
	}
	if s.Observer != nil {
		s.Observer.PostCommit(ctx, windowSize, edgesInParts, elapsed, err)
	}
}
