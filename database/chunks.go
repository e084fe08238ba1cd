package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/siherrmann/graphrag/helper"
	"github.com/siherrmann/graphrag/model"
	loadSql "github.com/siherrmann/graphrag/sql"
)

// ChunksDBHandlerFunctions defines the interface for Chunks database operations.
type ChunksDBHandlerFunctions interface {
	UpsertChunks(ctx context.Context, chunks []model.Chunk, embeddings [][]float32) (int, error)
	SelectChunk(ctx context.Context, chunkID string) (*model.Chunk, error)
	SimilaritySearch(ctx context.Context, embedding []float32, k int) ([]model.SearchResult, error)
	CountChunks(ctx context.Context) (int, error)
}

// ChunksDBHandler handles chunk-related database operations
type ChunksDBHandler struct {
	db        *helper.Database
	dimension int
}

// NewChunksDBHandler creates a new chunks database handler.
// It initializes the database connection and loads chunk-related SQL functions.
// embeddingDim fixes the dimension of the vector column and index; it must
// stay constant for the lifetime of the store.
// If force is true, it will reload the SQL functions even if they already exist.
func NewChunksDBHandler(db *helper.Database, embeddingDim int, force bool) (*ChunksDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}
	if embeddingDim <= 0 {
		return nil, helper.NewError("embedding dimension validation", fmt.Errorf("embedding dimension must be positive, got %d", embeddingDim))
	}

	chunksDbHandler := &ChunksDBHandler{
		db:        db,
		dimension: embeddingDim,
	}

	err := loadSql.LoadChunksSql(chunksDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load chunks sql", err)
	}

	err = chunksDbHandler.CreateTable(embeddingDim)
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized ChunksDBHandler")

	return chunksDbHandler, nil
}

// CreateTable creates the 'chunks' table in the database.
// If the table already exists, it does not create it again.
// It also creates all necessary extensions and indexes.
func (h *ChunksDBHandler) CreateTable(embeddingDim int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_chunks($1);`, embeddingDim)
	if err != nil {
		log.Panicf("error initializing chunks table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table chunks")

	return nil
}

// Dimension returns the embedding dimension the vector index was built with.
func (h *ChunksDBHandler) Dimension() int {
	return h.dimension
}

// UpsertChunks stores one chunk node per entry, keyed by chunk id, with the
// aligned embedding stored as a fixed-length vector. Returns the number of
// chunks stored; on failure the batch may have been partially applied.
func (h *ChunksDBHandler) UpsertChunks(ctx context.Context, chunks []model.Chunk, embeddings [][]float32) (int, error) {
	if len(chunks) != len(embeddings) {
		return 0, &model.StoreError{
			Op:  "upsert chunks",
			Err: fmt.Errorf("chunk and embedding counts differ: %d != %d", len(chunks), len(embeddings)),
		}
	}

	count := 0
	for i, chunk := range chunks {
		if len(embeddings[i]) != h.dimension {
			return count, &model.DimensionMismatchError{Want: h.dimension, Got: len(embeddings[i])}
		}

		row := h.db.Instance.QueryRowContext(
			ctx,
			`SELECT * FROM upsert_chunk($1, $2, $3, $4, $5, $6)`,
			chunk.ID,
			chunk.Text,
			pgvector.NewVector(embeddings[i]),
			chunk.Source,
			chunk.Index,
			chunk.Size,
		)

		stored := model.Chunk{}
		var embedding pgvector.Vector
		err := row.Scan(
			&stored.ID,
			&stored.Text,
			&embedding,
			&stored.Source,
			&stored.Index,
			&stored.Size,
			&stored.CreatedAt,
		)
		if err != nil {
			return count, &model.StoreError{Op: "upsert chunks", Err: err}
		}
		count++
	}

	return count, nil
}

// SelectChunk retrieves a chunk by its id.
// Returns nil without an error if the chunk does not exist.
func (h *ChunksDBHandler) SelectChunk(ctx context.Context, chunkID string) (*model.Chunk, error) {
	row := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM select_chunk($1)`,
		chunkID,
	)

	chunk := &model.Chunk{}
	var embedding pgvector.Vector
	err := row.Scan(
		&chunk.ID,
		&chunk.Text,
		&embedding,
		&chunk.Source,
		&chunk.Index,
		&chunk.Size,
		&chunk.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &model.StoreError{Op: "select chunk", Err: err}
	}
	chunk.Embedding = embedding.Slice()

	return chunk, nil
}

// SimilaritySearch returns up to k chunks ordered by descending cosine
// similarity to the query vector. A store holding fewer than k chunks
// returns a shorter list rather than an error.
func (h *ChunksDBHandler) SimilaritySearch(ctx context.Context, embedding []float32, k int) ([]model.SearchResult, error) {
	if len(embedding) != h.dimension {
		return nil, &model.DimensionMismatchError{Want: h.dimension, Got: len(embedding)}
	}
	if k < 1 {
		return nil, &model.StoreError{Op: "similarity search", Err: fmt.Errorf("k must be at least 1, got %d", k)}
	}

	rows, err := h.db.Instance.QueryContext(
		ctx,
		`SELECT * FROM select_chunks_by_similarity($1, $2)`,
		pgvector.NewVector(embedding),
		k,
	)
	if err != nil {
		return nil, &model.StoreError{Op: "similarity search", Err: err}
	}
	defer rows.Close()

	var results []model.SearchResult
	for rows.Next() {
		var result model.SearchResult
		err := rows.Scan(&result.ChunkID, &result.Text, &result.Source, &result.Score)
		if err != nil {
			return nil, &model.StoreError{Op: "scan search result", Err: err}
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, &model.StoreError{Op: "similarity search", Err: err}
	}

	return results, nil
}

// CountChunks returns the number of chunk nodes in the graph.
func (h *ChunksDBHandler) CountChunks(ctx context.Context) (int, error) {
	var count int
	err := h.db.Instance.QueryRowContext(ctx, `SELECT count_chunks()`).Scan(&count)
	if err != nil {
		return 0, &model.StoreError{Op: "count chunks", Err: err}
	}
	return count, nil
}
