// Package ports defines the interfaces that separate the partitioner's
// algorithm from where state actually lives and how placement decisions
// get made. Infrastructure implements these; internal/partitioner only
// depends on them.
package ports

import (
	"context"

	"github.com/ahrav/streamcut/internal/domain"
)

// Backend is the state store a running partitioner reads from and
// publishes merges to. All three production implementations — in-memory,
// Redis-backed, and coprocess-backed — satisfy the same contract so a
// Subpartitioner never knows which one it is talking to.
//
// Partition merges (PutPart, PutParts) and the Parts union in PutVerts are
// idempotent: applying the same delta twice leaves the backend in the same
// state as applying it once. That is what lets multiple workers publish
// concurrently without coordinating with each other. The degree side of
// PutVerts is not: Deg grows by DeltaDeg on every call.
type Backend interface {
	// GetEdges returns every edge the backend knows about, canonical
	// dataset included. Used by assessment, not by the hot placement path.
	GetEdges(ctx context.Context) (map[domain.Edge]struct{}, error)

	// EdgesSize returns the total number of distinct edges in the dataset.
	EdgesSize(ctx context.Context) (int, error)

	// GetVerts returns every vertex the backend has seen.
	GetVerts(ctx context.Context) (map[int64]domain.Vertex, error)

	// GetVertsSubset returns a snapshot limited to the given vertex ids,
	// materializing a zero-value Vertex for any id not yet seen. This is
	// the call a Subpartitioner makes at the start of each window.
	GetVertsSubset(ctx context.Context, ids map[int64]struct{}) (map[int64]domain.Vertex, error)

	// GetParts returns a snapshot of every partition's current edge set.
	GetParts(ctx context.Context) ([]domain.Partition, error)

	// PutVerts merges a worker-local vertex delta into the authoritative
	// state. Deg is advanced by DeltaDeg (once; the delta is consumed) and
	// Parts is unioned regardless of DeltaDeg, so a recovery replay that
	// never touched DeltaDeg still propagates partition membership.
	PutVerts(ctx context.Context, delta map[int64]domain.Vertex) error

	// PutPart merges a single partition's edge delta.
	PutPart(ctx context.Context, i int, delta domain.Partition) error

	// PutParts merges a full slice of partition deltas, one per partition
	// index.
	PutParts(ctx context.Context, delta []domain.Partition) error

	// GetEdge returns the next edge to place and advances the backend's
	// internal cursor. The second return value is false once the dataset
	// is exhausted; at that point the returned Edge is the zero value and
	// must be ignored.
	GetEdge(ctx context.Context) (domain.Edge, bool, error)

	// Crash simulates the backend losing its in-memory vertex and
	// partition state, as if the process had restarted. GetEdges is
	// unaffected: the canonical edge set survives a crash.
	Crash(ctx context.Context) error

	// Recover restores partition state from a durable snapshot (normally
	// fetched from a Coprocess mirror) and replays it to rebuild vertex
	// degree and partition membership.
	Recover(ctx context.Context, snapshot []domain.Partition) error

	// IsCrashed reports whether the backend is currently in its crashed
	// window. Callers poll this instead of erroring so a crash drill
	// resolves itself transparently.
	IsCrashed() bool

	// CheckCrashed blocks until the backend is no longer crashed.
	CheckCrashed(ctx context.Context) error
}
