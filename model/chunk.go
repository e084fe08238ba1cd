package model

import (
	"fmt"
	"time"
)

// Chunk represents a bounded text segment, the unit of retrieval.
// Identity is ID (source path plus sequence index), so re-ingesting the same
// file yields the same chunk rows instead of duplicates.
type Chunk struct {
	ID        string    `json:"chunk_id"`
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding,omitempty"`
	Source    string    `json:"source"`
	Index     int       `json:"chunk_index"`
	Size      int       `json:"chunk_size"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

// NewChunkID builds the natural chunk key from source path and sequence index.
func NewChunkID(source string, index int) string {
	return fmt.Sprintf("%s_%d", source, index)
}

// SearchResult is one similarity-search hit, ordered by descending cosine
// similarity score.
type SearchResult struct {
	ChunkID string  `json:"chunk_id"`
	Text    string  `json:"text"`
	Source  string  `json:"source"`
	Score   float64 `json:"score"`
}
