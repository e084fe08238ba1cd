package model

// PipelineConfig represents configuration for ingestion and queries.
type PipelineConfig struct {
	// Chunking parameters
	ChunkSize    int `json:"chunk_size"`
	ChunkOverlap int `json:"chunk_overlap"`

	// Query parameters
	TopK             int `json:"top_k"`
	SubgraphDepth    int `json:"subgraph_depth"`
	MaxQueryEntities int `json:"max_query_entities"`
}

// DefaultPipelineConfig returns a sensible default configuration.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		ChunkSize:        500,
		ChunkOverlap:     50,
		TopK:             5,
		SubgraphDepth:    2,
		MaxQueryEntities: 3,
	}
}
