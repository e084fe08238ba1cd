package graphrag

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/siherrmann/graphrag/core/pipeline"
	"github.com/siherrmann/graphrag/core/retrieval"
	"github.com/siherrmann/graphrag/database"
	"github.com/siherrmann/graphrag/helper"
	"github.com/siherrmann/graphrag/model"
)

// GraphRAG is the unified entry point: it owns the database connection, the
// processing pipeline and the retrieval engine. Create one instance per
// process and share it; the model sessions and the connection pool are
// expensive and safe for concurrent use.
type GraphRAG struct {
	DB       *helper.Database
	Store    *database.Store
	Pipeline *pipeline.Pipeline
	Engine   *retrieval.Engine

	config *model.PipelineConfig
	log    *slog.Logger
}

// NewGraphRAG creates a GraphRAG instance with the given extraction and
// embedding ports. The schema is created on first use with the embedder's
// dimension; pipelineConfig may be nil to use the defaults.
func NewGraphRAG(dbConfig *helper.DatabaseConfiguration, pipelineConfig *model.PipelineConfig, extractor pipeline.ExtractionPort, embedder pipeline.EmbeddingPort) (*GraphRAG, error) {
	if pipelineConfig == nil {
		defaultConfig := model.DefaultPipelineConfig()
		pipelineConfig = &defaultConfig
	}

	// Logger
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, opts))

	db := helper.NewDatabase("graphrag", dbConfig, logger)

	store, err := database.NewStore(db, embedder.Dimension())
	if err != nil {
		return nil, helper.NewError("create graph store", err)
	}

	chunker := pipeline.NewChunker(pipelineConfig.ChunkSize, pipelineConfig.ChunkOverlap)

	return &GraphRAG{
		DB:       db,
		Store:    store,
		Pipeline: pipeline.NewPipeline(chunker, extractor, embedder),
		Engine:   retrieval.NewEngine(store),
		config:   pipelineConfig,
		log:      logger,
	}, nil
}

// NewDefaultGraphRAG creates a GraphRAG instance with the bundled local
// models: distilbert-NER for extraction and all-MiniLM-L6-v2 for
// embeddings. Models are downloaded on first use.
func NewDefaultGraphRAG(dbConfig *helper.DatabaseConfiguration, pipelineConfig *model.PipelineConfig) (*GraphRAG, error) {
	extractor, err := pipeline.NewHugotExtractor()
	if err != nil {
		return nil, helper.NewError("create default extractor", err)
	}

	embedder, err := pipeline.NewHugotEmbedder()
	if err != nil {
		if closeErr := extractor.Close(); closeErr != nil {
			return nil, helper.NewError("create default embedder", fmt.Errorf("%w (cleanup error: %v)", err, closeErr))
		}
		return nil, helper.NewError("create default embedder", err)
	}

	return NewGraphRAG(dbConfig, pipelineConfig, extractor, embedder)
}

// Close closes the database connection. Model sessions held by the ports
// are owned by the caller that created them.
func (g *GraphRAG) Close() error {
	if g.DB != nil && g.DB.Instance != nil {
		return g.DB.Instance.Close()
	}
	return nil
}

// IngestText processes a document and persists it as a graph:
// 1. Clean and chunk the text
// 2. Extract entities/relations and embed the chunks (concurrently)
// 3. Ensure the schema, then store entities, relations, chunks and mentions
// Stage order guarantees relations and mentions never reference missing
// rows. A mid-run failure leaves earlier stages committed; re-ingesting the
// same source is idempotent and completes the run.
func (g *GraphRAG) IngestText(ctx context.Context, text string, source string) (*model.IngestResult, error) {
	runID := uuid.New()

	processed, err := g.Pipeline.Process(ctx, text, source)
	if err != nil {
		return nil, helper.NewError("process document", err)
	}

	g.log.Info("Processed document",
		slog.String("run_id", runID.String()),
		slog.String("source", source),
		slog.Int("num_chunks", len(processed.Chunks)),
		slog.Int("num_entities", len(processed.Entities)),
		slog.Int("num_relations", len(processed.Relations)))

	if err := g.Store.EnsureSchema(ctx); err != nil {
		return nil, helper.NewError("ensure schema", err)
	}

	entitiesProcessed, err := g.Store.Entities.UpsertEntities(ctx, processed.Entities)
	if err != nil {
		return nil, helper.NewError("store entities", err)
	}

	relationsAttempted, err := g.Store.Relations.UpsertRelations(ctx, processed.Relations)
	if err != nil {
		return nil, helper.NewError("store relations", err)
	}

	chunksStored, err := g.Store.Chunks.UpsertChunks(ctx, processed.Chunks, processed.Embeddings)
	if err != nil {
		return nil, helper.NewError("store chunks", err)
	}

	mentionsLinked, err := g.Store.Mentions.LinkMentions(ctx, processed.Chunks, processed.Entities)
	if err != nil {
		return nil, helper.NewError("link mentions", err)
	}

	g.Engine.Invalidate()

	g.log.Info("Ingested document",
		slog.String("run_id", runID.String()),
		slog.String("source", source),
		slog.Int("chunks_stored", chunksStored),
		slog.Int("mentions_linked", mentionsLinked))

	return &model.IngestResult{
		RunID:              runID,
		Source:             source,
		ChunksStored:       chunksStored,
		EntitiesProcessed:  entitiesProcessed,
		RelationsAttempted: relationsAttempted,
		MentionsLinked:     mentionsLinked,
		EmbeddingDimension: g.Store.Dimension(),
	}, nil
}

// IngestFile reads a file and ingests its content with the file path as
// source identifier.
func (g *GraphRAG) IngestFile(ctx context.Context, path string) (*model.IngestResult, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, helper.NewError("read document file", err)
	}
	return g.IngestText(ctx, string(content), path)
}

// Query answers a question with hybrid retrieval: the top chunks by cosine
// similarity plus a bounded-depth subgraph around each entity found in the
// query text. Query entities with no graph presence are dropped from the
// subgraph list but kept in QueryEntities.
func (g *GraphRAG) Query(ctx context.Context, query string) (*model.QueryResult, error) {
	embedding, err := g.Pipeline.Embedder.Embed(ctx, query)
	if err != nil {
		return nil, helper.NewError("embed query", &model.EmbeddingError{Err: err})
	}

	similar, err := g.Engine.SimilarChunks(ctx, embedding, g.config.TopK)
	if err != nil {
		return nil, helper.NewError("similarity search", err)
	}

	entities, _, err := g.Pipeline.Extractor.Extract(ctx, query)
	if err != nil {
		return nil, helper.NewError("extract query entities", &model.ExtractionError{Err: err})
	}

	subgraphs, err := g.Engine.EntitySubgraphs(ctx, entities, g.config.SubgraphDepth, g.config.MaxQueryEntities)
	if err != nil {
		return nil, helper.NewError("expand entity subgraphs", err)
	}

	return &model.QueryResult{
		Query:           query,
		SimilarChunks:   similar,
		QueryEntities:   entities,
		EntitySubgraphs: subgraphs,
	}, nil
}

// Subgraph expands the neighborhood around a single entity up to the given
// depth. Unknown entities yield an empty subgraph.
func (g *GraphRAG) Subgraph(ctx context.Context, entityText string, depth int) (*model.Subgraph, error) {
	return g.Store.Subgraph(ctx, entityText, depth)
}

// Statistics returns the current graph size.
func (g *GraphRAG) Statistics(ctx context.Context) (*model.Statistics, error) {
	return g.Store.Statistics(ctx)
}

// Reset deletes all graph data. The schema and the vector index survive.
func (g *GraphRAG) Reset(ctx context.Context) error {
	if err := g.Store.Reset(ctx); err != nil {
		return err
	}
	g.Engine.Invalidate()
	g.log.Info("Graph reset")
	return nil
}

// RebuildVectorIndex swaps the chunk vector index between HNSW and IVFFlat.
func (g *GraphRAG) RebuildVectorIndex(ctx context.Context, indexType string, params map[string]interface{}) error {
	return g.Store.Chunks.RebuildVectorIndex(ctx, indexType, params)
}
