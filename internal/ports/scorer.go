package ports

import "github.com/ahrav/streamcut/internal/domain"

// Scorer evaluates, for an edge (u, v), how attractive each partition is
// as a placement target. Score returns the index of the highest-scoring
// partition (ties broken by lowest index) together with the full score
// vector, so callers and tests can inspect the reasoning behind the
// choice.
//
// Implementations must not mutate u, v, or parts — Subpartitioner owns
// those copies for the duration of a window and scores many edges against
// the same snapshot before publishing.
type Scorer interface {
	Score(u, v domain.Vertex, parts []domain.Partition) (best int, scores []float64)
}
