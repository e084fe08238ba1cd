package retrieval

import (
	"context"
	"sync"

	"github.com/siherrmann/graphrag/database"
	"github.com/siherrmann/graphrag/model"
)

// Engine provides hybrid retrieval: vector similarity search over chunks
// combined with bounded-depth subgraph expansion around query entities.
// Subgraphs are cached per entity and depth; the cache is dropped whenever
// the underlying graph changes.
type Engine struct {
	store *database.Store

	mu    sync.RWMutex
	cache map[subgraphKey]*model.Subgraph
}

type subgraphKey struct {
	entity string
	depth  int
}

// NewEngine creates a retrieval engine on top of the graph store.
func NewEngine(store *database.Store) *Engine {
	return &Engine{
		store: store,
		cache: make(map[subgraphKey]*model.Subgraph),
	}
}

// SimilarChunks returns the top k chunks by cosine similarity to the query
// embedding, ordered by descending score.
func (e *Engine) SimilarChunks(ctx context.Context, embedding []float32, k int) ([]model.SearchResult, error) {
	return e.store.Chunks.SimilaritySearch(ctx, embedding, k)
}

// EntitySubgraphs expands a subgraph around each of the first max query
// entities in extraction order. Entities beyond the first max are ignored
// entirely, even when earlier entities have no graph presence. Within that
// window, duplicate entity texts are looked up once and entities with an
// empty neighborhood are dropped from the result.
func (e *Engine) EntitySubgraphs(ctx context.Context, entities []model.Entity, depth int, max int) ([]model.EntitySubgraph, error) {
	if max < 0 {
		max = 0
	}
	if len(entities) > max {
		entities = entities[:max]
	}

	var subgraphs []model.EntitySubgraph
	seen := map[string]bool{}

	for _, entity := range entities {
		if seen[entity.Text] {
			continue
		}
		seen[entity.Text] = true

		subgraph, err := e.subgraph(ctx, entity.Text, depth)
		if err != nil {
			return nil, err
		}
		if len(subgraph.Nodes) == 0 {
			continue
		}

		subgraphs = append(subgraphs, model.EntitySubgraph{
			Entity:   entity.Text,
			Subgraph: subgraph,
		})
	}

	return subgraphs, nil
}

// subgraph returns the cached expansion when present and queries the store
// otherwise.
func (e *Engine) subgraph(ctx context.Context, entityText string, depth int) (*model.Subgraph, error) {
	key := subgraphKey{entity: entityText, depth: depth}

	e.mu.RLock()
	cached, ok := e.cache[key]
	e.mu.RUnlock()
	if ok {
		return cached, nil
	}

	subgraph, err := e.store.Subgraph(ctx, entityText, depth)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.cache[key] = subgraph
	e.mu.Unlock()

	return subgraph, nil
}

// Invalidate drops all cached subgraphs. Called after every ingestion and
// reset, since any write can change an arbitrary neighborhood.
func (e *Engine) Invalidate() {
	e.mu.Lock()
	e.cache = make(map[subgraphKey]*model.Subgraph)
	e.mu.Unlock()
}
