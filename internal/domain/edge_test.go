package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ahrav/streamcut/internal/domain"
)

func TestNewEdgeCanonicalizes(t *testing.T) {
	tests := []struct {
		name string
		u, v int64
		want domain.Edge
	}{
		{"already ordered", 1, 2, domain.Edge{U: 1, V: 2}},
		{"reversed", 2, 1, domain.Edge{U: 1, V: 2}},
		{"negative ids", -5, -10, domain.Edge{U: -10, V: -5}},
		{"equal endpoints", 3, 3, domain.Edge{U: 3, V: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.NewEdge(tt.u, tt.v))
		})
	}
}

func TestEdgeEqualityIgnoresDiscoveryOrder(t *testing.T) {
	a := domain.NewEdge(7, 3)
	b := domain.NewEdge(3, 7)
	assert.Equal(t, a, b)
	assert.Equal(t, a.String(), b.String())
}

func TestEdgeLess(t *testing.T) {
	a := domain.Edge{U: 1, V: 2}
	b := domain.Edge{U: 1, V: 3}
	c := domain.Edge{U: 2, V: 0}
	assert.True(t, a.Less(b))
	assert.False(t, b.Less(a))
	assert.True(t, b.Less(c))
}
