package model

import "github.com/google/uuid"

// IngestResult summarizes one ingestion run.
type IngestResult struct {
	RunID              uuid.UUID `json:"run_id"`
	Source             string    `json:"source"`
	ChunksStored       int       `json:"chunks_stored"`
	EntitiesProcessed  int       `json:"entities_processed"`
	RelationsAttempted int       `json:"relations_attempted"`
	MentionsLinked     int       `json:"mentions_linked"`
	EmbeddingDimension int       `json:"embedding_dimension"`
}

// EntitySubgraph pairs a query entity with the subgraph found around it.
// Entities with no graph presence are dropped from the response, not
// reported as empty.
type EntitySubgraph struct {
	Entity   string    `json:"entity"`
	Subgraph *Subgraph `json:"subgraph"`
}

// QueryResult is the assembled answer to one query: similarity hits, the
// entities extracted from the query text, and the subgraphs found around
// them.
type QueryResult struct {
	Query           string           `json:"query"`
	SimilarChunks   []SearchResult   `json:"similar_chunks"`
	QueryEntities   []Entity         `json:"query_entities"`
	EntitySubgraphs []EntitySubgraph `json:"entity_subgraphs"`
}
