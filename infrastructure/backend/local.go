package backend

import (
	"context"
	"sync"
	"time"

	"github.com/willf/bloom"

	"github.com/ahrav/streamcut/internal/domain"
	"github.com/ahrav/streamcut/internal/ports"
)

// bloom filter sizing, taken from the reference implementation: sized for
// roughly ten thousand distinct edges at a one-in-ten-thousand false
// positive rate.
const (
	bloomProjectedElements = 10000
	bloomFalsePositiveRate = 0.0001
	crashCheckPollInterval = time.Millisecond
)

// Local is the in-memory State Backend. Reads return copies; writes take
// mu for their whole duration. When mirror is non-nil every PutPart /
// PutParts call is also applied to it, so it can serve as the durable
// source a crash drill recovers from.
type Local struct {
	mu sync.RWMutex

	edges map[domain.Edge]struct{}
	verts map[int64]domain.Vertex
	parts []domain.Partition

	cursor    []domain.Edge
	cursorPos int
	edgesSeen int

	lazyLoad   bool
	bloomF     *bloom.BloomFilter
	lazySource []domain.Edge // ordered candidate stream when lazyLoad is set
	lazyPos    int

	crashMode     int // 0 disabled, 1 reserved, 2 single crash-drill
	crashAt       int
	crashed       bool
	crashFired    bool
	mirror        *Coprocess
}

// LocalOption configures a Local backend at construction time.
type LocalOption func(*Local)

// WithCrashDrill arms a single crash, recovering from mirror. The crash
// fires once, inside the first PutParts call made after GetEdge has handed
// out at least at edges; GetEdge itself never triggers it.
func WithCrashDrill(at int, mirror *Coprocess) LocalOption {
	return func(l *Local) {
		l.crashMode = 2
		l.crashAt = at
		l.mirror = mirror
	}
}

// WithLazyLoad switches the backend to lazy duplicate detection: GetEdge
// uses a Bloom filter plus an authoritative fallback scan to skip edges
// already placed in a partition. The dataset is still read whole at
// construction, and GetEdge draws from the edge set LoadEdges has already
// deduplicated, so the filter never sees a repeated edge from the file.
func WithLazyLoad() LocalOption {
	return func(l *Local) { l.lazyLoad = true }
}

// NewLocal constructs a Local backend eagerly loaded from path.
func NewLocal(path string, k int, opts ...LocalOption) (*Local, error) {
	edges, verts, err := LoadEdges(path)
	if err != nil {
		return nil, err
	}

	l := &Local{
		edges: edges,
		verts: verts,
		parts: make([]domain.Partition, k),
	}
	for i := range l.parts {
		l.parts[i] = domain.NewPartition()
	}
	for _, opt := range opts {
		opt(l)
	}

	l.cursor = make([]domain.Edge, 0, len(edges))
	for e := range edges {
		l.cursor = append(l.cursor, e)
	}

	if l.lazyLoad {
		l.initBloom()
		l.lazySource = append([]domain.Edge(nil), l.cursor...)
	}
	return l, nil
}

func (l *Local) initBloom() {
	l.bloomF = bloom.NewWithEstimates(bloomProjectedElements, bloomFalsePositiveRate)
}

// isRepeated reports whether e has already been handed out and placed,
// using the Bloom filter for a cheap negative check and falling back to a
// full partition scan on a possible (and only possible) positive — the
// filter can false-positive but never false-negative.
func (l *Local) isRepeated(e domain.Edge) bool {
	key := []byte(e.String())
	maybeSeen := l.bloomF.Test(key)
	l.bloomF.Add(key)
	if !maybeSeen {
		return false
	}
	for _, p := range l.parts {
		if p.Contains(e) {
			return true
		}
	}
	return false
}

// GetEdges implements ports.Backend.
func (l *Local) GetEdges(ctx context.Context) (map[domain.Edge]struct{}, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[domain.Edge]struct{}, len(l.edges))
	for e := range l.edges {
		out[e] = struct{}{}
	}
	return out, nil
}

// EdgesSize implements ports.Backend.
func (l *Local) EdgesSize(ctx context.Context) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.edges), nil
}

// GetVerts implements ports.Backend.
func (l *Local) GetVerts(ctx context.Context) (map[int64]domain.Vertex, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[int64]domain.Vertex, len(l.verts))
	for id, v := range l.verts {
		out[id] = v.Clone()
	}
	return out, nil
}

// GetVertsSubset implements ports.Backend.
func (l *Local) GetVertsSubset(ctx context.Context, ids map[int64]struct{}) (map[int64]domain.Vertex, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[int64]domain.Vertex, len(ids))
	for id := range ids {
		v, ok := l.verts[id]
		if !ok {
			v = domain.NewVertex()
			l.verts[id] = v
		}
		out[id] = v.Clone()
	}
	return out, nil
}

// GetParts implements ports.Backend.
func (l *Local) GetParts(ctx context.Context) ([]domain.Partition, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.Partition, len(l.parts))
	for i, p := range l.parts {
		out[i] = p.Clone()
	}
	return out, nil
}

// PutVerts implements ports.Backend. DeltaDeg is consumed once; Parts is
// always unioned, even for a zero-DeltaDeg delta (needed so a Recover
// replay, which never sets DeltaDeg, still propagates membership).
func (l *Local) PutVerts(ctx context.Context, delta map[int64]domain.Vertex) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for id, dv := range delta {
		cur, ok := l.verts[id]
		if !ok {
			cur = domain.NewVertex()
		}
		cur.Deg += dv.DeltaDeg
		for p := range dv.Parts {
			cur.AddPart(p)
		}
		l.verts[id] = cur
	}
	return nil
}

// PutPart implements ports.Backend.
func (l *Local) PutPart(ctx context.Context, i int, delta domain.Partition) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.putPartLocked(ctx, i, delta)
}

func (l *Local) putPartLocked(ctx context.Context, i int, delta domain.Partition) error {
	for e := range delta.Edges {
		l.parts[i].AddEdge(e)
	}
	if l.mirror != nil {
		if err := l.mirror.PutPart(ctx, i, delta); err != nil {
			return err
		}
	}
	return nil
}

// PutParts implements ports.Backend.
func (l *Local) PutParts(ctx context.Context, delta []domain.Partition) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, d := range delta {
		if err := l.putPartLocked(ctx, i, d); err != nil {
			return err
		}
	}

	if l.crashMode == 2 && !l.crashFired && l.edgesSeen >= l.crashAt {
		l.crashFired = true
		return l.crashAndRecoverLocked(ctx)
	}
	return nil
}

func (l *Local) crashAndRecoverLocked(ctx context.Context) error {
	l.crashed = true
	l.parts = nil
	l.verts = make(map[int64]domain.Vertex)

	snapshot, err := l.mirror.GetParts(ctx)
	if err != nil {
		return err
	}
	return l.recoverLocked(snapshot)
}

// GetEdge implements ports.Backend.
func (l *Local) GetEdge(ctx context.Context) (domain.Edge, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.lazyLoad {
		for l.lazyPos < len(l.lazySource) {
			e := l.lazySource[l.lazyPos]
			l.lazyPos++
			if l.isRepeated(e) {
				continue
			}
			l.edgesSeen++
			return e, true, nil
		}
		return domain.Edge{}, false, nil
	}

	if l.cursorPos >= len(l.cursor) {
		return domain.Edge{}, false, nil
	}
	e := l.cursor[l.cursorPos]
	l.cursorPos++
	l.edgesSeen++
	return e, true, nil
}

// Crash implements ports.Backend.
func (l *Local) Crash(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.crashed = true
	l.parts = nil
	l.verts = make(map[int64]domain.Vertex)
	return nil
}

// Recover implements ports.Backend.
func (l *Local) Recover(ctx context.Context, snapshot []domain.Partition) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.recoverLocked(snapshot)
}

func (l *Local) recoverLocked(snapshot []domain.Partition) error {
	l.parts = make([]domain.Partition, len(snapshot))
	for i, p := range snapshot {
		l.parts[i] = p.Clone()
		for e := range p.Edges {
			u := l.verts[e.U]
			if u.Parts == nil {
				u = domain.NewVertex()
			}
			u.Deg++
			u.AddPart(i)
			l.verts[e.U] = u

			v := l.verts[e.V]
			if v.Parts == nil {
				v = domain.NewVertex()
			}
			v.Deg++
			v.AddPart(i)
			l.verts[e.V] = v
		}
	}
	l.crashed = false
	return nil
}

// IsCrashed implements ports.Backend.
func (l *Local) IsCrashed() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.crashed
}

// CheckCrashed implements ports.Backend. Unlike the reference
// implementation's unconditional spin, this sleeps between polls so a
// crash drill does not peg a CPU core, and it respects context
// cancellation.
func (l *Local) CheckCrashed(ctx context.Context) error {
	for l.IsCrashed() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(crashCheckPollInterval):
		}
	}
	return nil
}

var _ ports.Backend = (*Local)(nil)
