package database

import (
	"context"

	"github.com/siherrmann/graphrag/core/graph"
	"github.com/siherrmann/graphrag/helper"
	"github.com/siherrmann/graphrag/model"
	loadSql "github.com/siherrmann/graphrag/sql"
)

// Store is the single source of truth for the persisted knowledge graph.
// It bundles the per-table handlers behind the operations the ingestion
// and query paths need. All mutations are idempotent merges keyed by
// natural identity (entity text, chunk id), so concurrent upserts of the
// same value converge to one node. Reset is not safe concurrent with other
// operations; callers must serialize it.
type Store struct {
	DB        *helper.Database
	Entities  *EntitiesDBHandler
	Relations *RelationsDBHandler
	Chunks    *ChunksDBHandler
	Mentions  *MentionsDBHandler

	dimension int
}

// NewStore creates a store over the given database with all handlers
// initialized in dependency order (entities and chunks before the edge
// tables referencing them). embeddingDim fixes the vector index dimension
// for the lifetime of the store.
func NewStore(db *helper.Database, embeddingDim int) (*Store, error) {
	err := loadSql.Init(db.Instance)
	if err != nil {
		return nil, &model.SchemaError{Op: "initialize database extensions", Err: err}
	}

	entities, err := NewEntitiesDBHandler(db, false)
	if err != nil {
		return nil, &model.SchemaError{Op: "create entities handler", Err: err}
	}

	relations, err := NewRelationsDBHandler(db, false)
	if err != nil {
		return nil, &model.SchemaError{Op: "create relations handler", Err: err}
	}

	chunks, err := NewChunksDBHandler(db, embeddingDim, false)
	if err != nil {
		return nil, &model.SchemaError{Op: "create chunks handler", Err: err}
	}

	mentions, err := NewMentionsDBHandler(db, false)
	if err != nil {
		return nil, &model.SchemaError{Op: "create mentions handler", Err: err}
	}

	return &Store{
		DB:        db,
		Entities:  entities,
		Relations: relations,
		Chunks:    chunks,
		Mentions:  mentions,
		dimension: embeddingDim,
	}, nil
}

// Dimension returns the embedding dimension the store was created with.
func (s *Store) Dimension() int {
	return s.dimension
}

// EnsureSchema re-runs the idempotent schema setup: uniqueness constraints
// on entity text and chunk id, the relation and mention edge tables, and
// the vector index over chunk embeddings.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.DB.Instance.ExecContext(ctx, `SELECT init_entities();`); err != nil {
		return &model.SchemaError{Op: "init entities", Err: err}
	}
	if _, err := s.DB.Instance.ExecContext(ctx, `SELECT init_relations();`); err != nil {
		return &model.SchemaError{Op: "init relations", Err: err}
	}
	if _, err := s.DB.Instance.ExecContext(ctx, `SELECT init_chunks($1);`, s.dimension); err != nil {
		return &model.SchemaError{Op: "init chunks", Err: err}
	}
	if _, err := s.DB.Instance.ExecContext(ctx, `SELECT init_mentions();`); err != nil {
		return &model.SchemaError{Op: "init mentions", Err: err}
	}
	return nil
}

// Subgraph returns the distinct nodes and edges reachable from the named
// entity within depth hops in either direction, following relation and
// mention edges alike. An unknown entity yields empty node and edge sets.
func (s *Store) Subgraph(ctx context.Context, entityText string, depth int) (*model.Subgraph, error) {
	return graph.Subgraph(ctx, s, entityText, depth)
}

// Statistics returns exact counts of entity nodes, chunk nodes, and edges
// of any type (typed relations plus mentions).
func (s *Store) Statistics(ctx context.Context) (*model.Statistics, error) {
	entityCount, err := s.Entities.CountEntities(ctx)
	if err != nil {
		return nil, err
	}
	chunkCount, err := s.Chunks.CountChunks(ctx)
	if err != nil {
		return nil, err
	}
	relationCount, err := s.Relations.CountRelations(ctx)
	if err != nil {
		return nil, err
	}
	mentionCount, err := s.Mentions.CountMentions(ctx)
	if err != nil {
		return nil, err
	}

	return &model.Statistics{
		Entities:      entityCount,
		Chunks:        chunkCount,
		Relationships: relationCount + mentionCount,
	}, nil
}

// Reset deletes all nodes and edges. Irreversible.
func (s *Store) Reset(ctx context.Context) error {
	_, err := s.DB.Instance.ExecContext(ctx, `TRUNCATE mentions, relations, chunks, entities;`)
	if err != nil {
		return &model.StoreError{Op: "reset", Err: err}
	}

	s.DB.Logger.Info("Cleared all nodes and edges from the graph")

	return nil
}

// The graph.GraphDB interface is satisfied by delegating to the handlers.

func (s *Store) SelectEntity(ctx context.Context, text string) (*model.Entity, error) {
	return s.Entities.SelectEntity(ctx, text)
}

func (s *Store) SelectRelationsForEntity(ctx context.Context, text string) ([]*model.Relation, error) {
	return s.Relations.SelectRelationsForEntity(ctx, text)
}

func (s *Store) SelectMentionsForEntity(ctx context.Context, entityText string) ([]*model.Mention, error) {
	return s.Mentions.SelectMentionsForEntity(ctx, entityText)
}

func (s *Store) SelectMentionsForChunk(ctx context.Context, chunkID string) ([]*model.Mention, error) {
	return s.Mentions.SelectMentionsForChunk(ctx, chunkID)
}

func (s *Store) SelectChunk(ctx context.Context, chunkID string) (*model.Chunk, error) {
	return s.Chunks.SelectChunk(ctx, chunkID)
}
