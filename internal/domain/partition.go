package domain

// Partition owns the set of edges assigned to it. AddEdge is idempotent:
// inserting an edge already present changes nothing, which is what lets
// the windowed workers merge their local deltas back into the backend
// without coordinating with each other.
type Partition struct {
	Edges map[Edge]struct{}
}

// NewPartition returns an empty partition.
func NewPartition() Partition {
	return Partition{Edges: make(map[Edge]struct{})}
}

// Clone returns a deep copy of the partition's edge set.
func (p Partition) Clone() Partition {
	edges := make(map[Edge]struct{}, len(p.Edges))
	for e := range p.Edges {
		edges[e] = struct{}{}
	}
	return Partition{Edges: edges}
}

// AddEdge inserts e into the partition. Idempotent.
func (p *Partition) AddEdge(e Edge) {
	if p.Edges == nil {
		p.Edges = make(map[Edge]struct{})
	}
	p.Edges[e] = struct{}{}
}

// Contains reports whether e has already been assigned to this partition.
func (p Partition) Contains(e Edge) bool {
	_, ok := p.Edges[e]
	return ok
}

// Size returns the number of edges assigned to the partition.
func (p Partition) Size() int { return len(p.Edges) }

// Verts returns the distinct vertex ids touched by this partition's edges.
func (p Partition) Verts() map[int64]struct{} {
	vs := make(map[int64]struct{})
	for e := range p.Edges {
		vs[e.U] = struct{}{}
		vs[e.V] = struct{}{}
	}
	return vs
}
