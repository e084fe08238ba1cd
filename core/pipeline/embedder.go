package pipeline

import (
	"context"
	"fmt"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
	"github.com/siherrmann/graphrag/helper"
)

// HugotEmbedder implements EmbeddingPort with a local sentence transformer
// model (all-MiniLM-L6-v2, 384-dimensional embeddings).
type HugotEmbedder struct {
	session           *hugot.Session
	embeddingPipeline *pipelines.FeatureExtractionPipeline
	dimension         int
}

// NewHugotEmbedder downloads the embedding model if needed and loads it
// into a Go backend hugot session. The embedding dimension is probed once
// on startup and stays constant afterwards.
func NewHugotEmbedder() (*HugotEmbedder, error) {
	modelName := "sentence-transformers/all-MiniLM-L6-v2"
	modelPath, err := helper.PrepareModel(modelName, "")
	if err != nil {
		return nil, err
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}

	config := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "embedder-pipeline",
	}
	embeddingPipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("failed to create embedding pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("failed to create embedding pipeline: %w", err)
	}

	embedder := &HugotEmbedder{session: session, embeddingPipeline: embeddingPipeline}

	probe, err := embedder.Embed(context.Background(), "test")
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("failed to probe embedding dimension: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("failed to probe embedding dimension: %w", err)
	}
	embedder.dimension = len(probe)

	return embedder, nil
}

// Embed generates the embedding vector for a single text.
func (e *HugotEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := e.embeddingPipeline.RunPipeline([]string{text})
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}
	if len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("no embedding generated")
	}

	return result.Embeddings[0], nil
}

// EmbedBatch generates index-aligned embeddings for all texts in one run.
func (e *HugotEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	result, err := e.embeddingPipeline.RunPipeline(texts)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embeddings: %w", err)
	}
	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("expected %v embeddings, got %v", len(texts), len(result.Embeddings))
	}

	return result.Embeddings, nil
}

// Dimension returns the embedding dimension probed on startup.
func (e *HugotEmbedder) Dimension() int {
	return e.dimension
}

func (e *HugotEmbedder) Close() error {
	return e.session.Destroy()
}
