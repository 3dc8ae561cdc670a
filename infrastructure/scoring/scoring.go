// Package scoring implements the three placement heuristics a
// Subpartitioner chooses between: Greedy, HDRF, and a Mixed blend of the
// two. All three share the same balance term and differ only in how they
// score replication.
package scoring

import "github.com/ahrav/streamcut/internal/domain"

const (
	epsilon = 1.0
	lambda  = 1.0
)

// maxMinSize returns the largest and smallest edge counts across parts.
// parts is assumed non-empty; Subpartitioner never scores against a zero
// partition count.
func maxMinSize(parts []domain.Partition) (max, min int) {
	max, min = parts[0].Size(), parts[0].Size()
	for _, p := range parts[1:] {
		if s := p.Size(); s > max {
			max = s
		} else if s < min {
			min = s
		}
	}
	return max, min
}

// balanceScore rewards partitions with fewer edges than the current max,
// normalized by the current spread. It is identical across all three
// heuristics.
func balanceScore(partSize, max, min int) float64 {
	return lambda * float64(max-partSize) / (epsilon + float64(max-min))
}

// argmax returns the index of the largest element in scores, breaking ties
// by the lowest index — the same first-max-wins semantics as
// std::max_element.
func argmax(scores []float64) int {
	best := 0
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[best] {
			best = i
		}
	}
	return best
}
