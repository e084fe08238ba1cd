package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewChunkID(t *testing.T) {
	t.Run("Combines source and index", func(t *testing.T) {
		assert.Equal(t, "doc.txt_0", NewChunkID("doc.txt", 0))
		assert.Equal(t, "doc.txt_12", NewChunkID("doc.txt", 12))
	})

	t.Run("Is deterministic", func(t *testing.T) {
		assert.Equal(t, NewChunkID("a/b/c.md", 3), NewChunkID("a/b/c.md", 3))
	})

	t.Run("Different sources never collide", func(t *testing.T) {
		assert.NotEqual(t, NewChunkID("one.txt", 0), NewChunkID("two.txt", 0))
	})
}

func TestDefaultPipelineConfig(t *testing.T) {
	config := DefaultPipelineConfig()

	assert.Equal(t, 500, config.ChunkSize)
	assert.Equal(t, 50, config.ChunkOverlap)
	assert.Equal(t, 5, config.TopK)
	assert.Equal(t, 2, config.SubgraphDepth)
	assert.Equal(t, 3, config.MaxQueryEntities)
	assert.Less(t, config.ChunkOverlap, config.ChunkSize)
}
