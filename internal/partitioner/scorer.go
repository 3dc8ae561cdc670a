package partitioner

import (
	"fmt"

	"github.com/ahrav/streamcut/infrastructure/scoring"
	"github.com/ahrav/streamcut/internal/ports"
)

// NewScorer resolves a Config.Scorer name to a concrete ports.Scorer.
func NewScorer(name string) (ports.Scorer, error) {
	switch name {
	case "greedy":
		return scoring.Greedy{}, nil
	case "hdrf":
		return scoring.HDRF{}, nil
	case "mixed":
		return scoring.Mixed{}, nil
	default:
		return nil, fmt.Errorf("partitioner: unknown scorer %q", name)
	}
}
