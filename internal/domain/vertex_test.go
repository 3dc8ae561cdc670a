package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ahrav/streamcut/internal/domain"
)

func TestVertexCloneIsIndependent(t *testing.T) {
	v := domain.NewVertex()
	v.AddPart(1)
	v.Deg = 4

	clone := v.Clone()
	clone.AddPart(2)

	assert.True(t, v.HasPart(1))
	assert.False(t, v.HasPart(2), "mutating the clone must not affect the original")
	assert.True(t, clone.HasPart(1))
	assert.True(t, clone.HasPart(2))
}

func TestVertexAddPartIdempotent(t *testing.T) {
	v := domain.NewVertex()
	v.AddPart(3)
	v.AddPart(3)
	assert.Len(t, v.Parts, 1)
}

func TestVertexAddPartOnZeroValue(t *testing.T) {
	var v domain.Vertex
	v.AddPart(0)
	assert.True(t, v.HasPart(0))
}
