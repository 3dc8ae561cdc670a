package domain

// Vertex carries a vertex's degree and the set of partitions it has been
// replicated to. Deg is the vertex's authoritative, already-merged degree;
// DeltaDeg is worker-local scratch space that exists only on a copy handed
// out by a Backend snapshot, counting edge endpoints seen in the current
// window that have not yet been folded back into Deg.
//
// DeltaDeg is single-use: a Backend.PutVerts call consumes it when folding
// a delta into the authoritative vertex and the caller must not publish
// the same delta twice (see the partitioner package for the windowing
// discipline that guarantees this).
type Vertex struct {
	Deg      int64
	DeltaDeg int64
	Parts    map[int]struct{}
}

// NewVertex returns a zero-value vertex with an initialized partition set,
// matching the implicit zero-construction the original heuristic relies on
// ("if verts.find(v) == verts.end() { verts[v] = Vertex() }").
func NewVertex() Vertex {
	return Vertex{Parts: make(map[int]struct{})}
}

// Clone returns a deep copy so that worker-local mutation of Parts never
// aliases the backend's authoritative map.
func (v Vertex) Clone() Vertex {
	parts := make(map[int]struct{}, len(v.Parts))
	for p := range v.Parts {
		parts[p] = struct{}{}
	}
	return Vertex{Deg: v.Deg, DeltaDeg: v.DeltaDeg, Parts: parts}
}

// AddPart records that the vertex has been replicated to partition p. The
// operation is idempotent.
func (v *Vertex) AddPart(p int) {
	if v.Parts == nil {
		v.Parts = make(map[int]struct{})
	}
	v.Parts[p] = struct{}{}
}

// HasPart reports whether the vertex is already replicated to partition p.
func (v Vertex) HasPart(p int) bool {
	_, ok := v.Parts[p]
	return ok
}
