package scoring

import "github.com/ahrav/streamcut/internal/domain"

// Greedy scores a partition by how many of u and v it already touches,
// plus a balance term favoring emptier partitions. It is the simplest of
// the three heuristics and the cheapest to evaluate.
type Greedy struct{}

// Score implements ports.Scorer.
func (Greedy) Score(u, v domain.Vertex, parts []domain.Partition) (int, []float64) {
	scores := evaluateGreedy(u, v, parts)
	return argmax(scores), scores
}

func evaluateGreedy(u, v domain.Vertex, parts []domain.Partition) []float64 {
	max, min := maxMinSize(parts)
	scores := make([]float64, len(parts))
	for i, p := range parts {
		rep := 0.0
		if u.HasPart(i) {
			rep++
		}
		if v.HasPart(i) {
			rep++
		}
		scores[i] = rep + balanceScore(p.Size(), max, min)
	}
	return scores
}
