package scoring

import "github.com/ahrav/streamcut/internal/domain"

// Mixed averages the Greedy and HDRF score vectors element-wise, trading
// a little of each heuristic's bias for the other's.
type Mixed struct{}

// Score implements ports.Scorer.
func (Mixed) Score(u, v domain.Vertex, parts []domain.Partition) (int, []float64) {
	hdrf := evaluateHDRF(u, v, parts)
	greedy := evaluateGreedy(u, v, parts)

	scores := make([]float64, len(parts))
	for i := range scores {
		scores[i] = (hdrf[i] + greedy[i]) / 2.0
	}
	return argmax(scores), scores
}
