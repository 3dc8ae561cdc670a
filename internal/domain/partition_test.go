package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ahrav/streamcut/internal/domain"
)

func TestPartitionAddEdgeIdempotent(t *testing.T) {
	p := domain.NewPartition()
	e := domain.NewEdge(1, 2)
	p.AddEdge(e)
	p.AddEdge(e)
	assert.Equal(t, 1, p.Size())
	assert.True(t, p.Contains(e))
}

func TestPartitionCloneIsIndependent(t *testing.T) {
	p := domain.NewPartition()
	p.AddEdge(domain.NewEdge(1, 2))

	clone := p.Clone()
	clone.AddEdge(domain.NewEdge(3, 4))

	assert.Equal(t, 1, p.Size())
	assert.Equal(t, 2, clone.Size())
}

func TestPartitionVerts(t *testing.T) {
	p := domain.NewPartition()
	p.AddEdge(domain.NewEdge(1, 2))
	p.AddEdge(domain.NewEdge(2, 3))

	verts := p.Verts()
	assert.Len(t, verts, 3)
	for _, id := range []int64{1, 2, 3} {
		_, ok := verts[id]
		assert.True(t, ok, "expected vertex %d", id)
	}
}
