package scoring

import "github.com/ahrav/streamcut/internal/domain"

// HDRF (High-Degree Replicated First) weights replication by each
// endpoint's relative degree: the lower-degree endpoint contributes more
// to a partition's replication score when it is already present there,
// which tends to send the edge to the low-degree endpoint's partition and
// replicate the high-degree "hub" vertex instead.
type HDRF struct{}

// Score implements ports.Scorer.
func (HDRF) Score(u, v domain.Vertex, parts []domain.Partition) (int, []float64) {
	scores := evaluateHDRF(u, v, parts)
	return argmax(scores), scores
}

func evaluateHDRF(u, v domain.Vertex, parts []domain.Partition) []float64 {
	max, min := maxMinSize(parts)
	d1, d2 := float64(u.Deg), float64(v.Deg)
	theta1 := d1 / (d1 + d2)
	theta2 := 1 - theta1

	g := func(i int, x domain.Vertex, theta float64) float64 {
		if !x.HasPart(i) {
			return 0
		}
		return 1 + (1 - theta)
	}

	scores := make([]float64, len(parts))
	for i, p := range parts {
		rep := g(i, u, theta1) + g(i, v, theta2)
		scores[i] = rep + balanceScore(p.Size(), max, min)
	}
	return scores
}
