package retrieval

import (
	"context"
	"testing"

	"github.com/siherrmann/graphrag/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cachedEngine builds an engine whose subgraph lookups are all served from
// the cache, so no store is needed. Entities without an entry resolve to an
// empty subgraph.
func cachedEngine(depth int, neighborhoods map[string]*model.Subgraph) *Engine {
	engine := NewEngine(nil)
	for entity, subgraph := range neighborhoods {
		engine.cache[subgraphKey{entity: entity, depth: depth}] = subgraph
	}
	return engine
}

func namedSubgraph(texts ...string) *model.Subgraph {
	subgraph := &model.Subgraph{Nodes: []model.SubgraphNode{}, Relationships: []model.SubgraphRelationship{}}
	for _, text := range texts {
		subgraph.Nodes = append(subgraph.Nodes, model.SubgraphNode{Text: text, Properties: map[string]any{}})
	}
	return subgraph
}

func queryEntities(texts ...string) []model.Entity {
	entities := make([]model.Entity, 0, len(texts))
	for _, text := range texts {
		entities = append(entities, model.Entity{Text: text, Label: "ORG"})
	}
	return entities
}

func TestEntitySubgraphs(t *testing.T) {
	ctx := context.Background()

	t.Run("Entities beyond the cap are ignored", func(t *testing.T) {
		engine := cachedEngine(2, map[string]*model.Subgraph{
			"Alpha": namedSubgraph(),
			"Beta":  namedSubgraph(),
			"Gamma": namedSubgraph(),
			"Delta": namedSubgraph("Delta", "Epsilon"),
		})

		subgraphs, err := engine.EntitySubgraphs(ctx, queryEntities("Alpha", "Beta", "Gamma", "Delta"), 2, 3)
		require.NoError(t, err)
		assert.Empty(t, subgraphs)
	})

	t.Run("Extraction order preserved within the cap", func(t *testing.T) {
		engine := cachedEngine(2, map[string]*model.Subgraph{
			"Alpha": namedSubgraph("Alpha", "Beta"),
			"Gamma": namedSubgraph("Gamma"),
			"Delta": namedSubgraph(),
		})

		subgraphs, err := engine.EntitySubgraphs(ctx, queryEntities("Alpha", "Gamma", "Delta"), 2, 3)
		require.NoError(t, err)
		require.Len(t, subgraphs, 2)
		assert.Equal(t, "Alpha", subgraphs[0].Entity)
		assert.Equal(t, "Gamma", subgraphs[1].Entity)
	})

	t.Run("Empty neighborhoods within the cap are dropped", func(t *testing.T) {
		engine := cachedEngine(1, map[string]*model.Subgraph{
			"Alpha": namedSubgraph(),
			"Beta":  namedSubgraph("Beta", "Gamma"),
		})

		subgraphs, err := engine.EntitySubgraphs(ctx, queryEntities("Alpha", "Beta"), 1, 3)
		require.NoError(t, err)
		require.Len(t, subgraphs, 1)
		assert.Equal(t, "Beta", subgraphs[0].Entity)
	})

	t.Run("Duplicate entity within the cap looked up once", func(t *testing.T) {
		engine := cachedEngine(2, map[string]*model.Subgraph{
			"Alpha": namedSubgraph("Alpha", "Beta"),
		})

		subgraphs, err := engine.EntitySubgraphs(ctx, queryEntities("Alpha", "Alpha", "Alpha"), 2, 3)
		require.NoError(t, err)
		require.Len(t, subgraphs, 1)
		assert.Equal(t, "Alpha", subgraphs[0].Entity)
	})

	t.Run("No entities yields no subgraphs", func(t *testing.T) {
		engine := cachedEngine(2, nil)

		subgraphs, err := engine.EntitySubgraphs(ctx, nil, 2, 3)
		require.NoError(t, err)
		assert.Empty(t, subgraphs)
	})
}
