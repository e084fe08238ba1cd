package pipeline

import (
	"context"

	"github.com/siherrmann/graphrag/model"
	"golang.org/x/sync/errgroup"
)

// ExtractionPort produces entities and relations from a piece of text.
// Implementations wrap an NLP backend; the engine only depends on this
// interface so extraction can be swapped or stubbed in tests.
type ExtractionPort interface {
	Extract(ctx context.Context, text string) ([]model.Entity, []model.Relation, error)
}

// EmbeddingPort turns text into fixed-dimension vectors. Dimension must
// return the same value for the lifetime of the implementation.
type EmbeddingPort interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// Pipeline combines chunking, extraction and embedding into a single
// document processing step.
type Pipeline struct {
	Chunker   *Chunker
	Extractor ExtractionPort
	Embedder  EmbeddingPort
}

func NewPipeline(chunker *Chunker, extractor ExtractionPort, embedder EmbeddingPort) *Pipeline {
	return &Pipeline{
		Chunker:   chunker,
		Extractor: extractor,
		Embedder:  embedder,
	}
}

// ProcessingResult holds the transient per-document values produced by
// Process. Embeddings is index-aligned with Chunks.
type ProcessingResult struct {
	Chunks     []model.Chunk
	Embeddings [][]float32
	Entities   []model.Entity
	Relations  []model.Relation
}

// Process cleans and chunks the text, then runs entity extraction and
// embedding concurrently over the chunks. Both must succeed; the first
// failure cancels the sibling and is returned wrapped in its stage error.
func (p *Pipeline) Process(ctx context.Context, text string, source string) (*ProcessingResult, error) {
	cleaned := Clean(text)
	chunks := p.Chunker.Chunk(cleaned, source)

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	result := &ProcessingResult{Chunks: chunks}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		embeddings, err := p.Embedder.EmbedBatch(groupCtx, texts)
		if err != nil {
			return &model.EmbeddingError{Err: err}
		}
		result.Embeddings = embeddings
		return nil
	})
	group.Go(func() error {
		for _, chunk := range chunks {
			entities, relations, err := p.Extractor.Extract(groupCtx, chunk.Text)
			if err != nil {
				return &model.ExtractionError{Err: err}
			}
			result.Entities = append(result.Entities, entities...)
			result.Relations = append(result.Relations, relations...)
		}
		return nil
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}

	return result, nil
}
