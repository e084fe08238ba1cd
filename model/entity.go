package model

// Entity represents a named entity (person, organization, place, concept).
// Identity is the exact surface text: the store keeps at most one entity
// node per distinct Text value, with label and span overwritten on
// re-sighting.
type Entity struct {
	Text  string `json:"text"`
	Label string `json:"label"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Relation represents a directed, typed semantic link between two entities,
// identified by their surface text. It is materialized as an edge keyed by
// (source, target, sanitized type); Context is overwritten by the latest
// occurrence.
type Relation struct {
	Source  string `json:"source"`
	Target  string `json:"target"`
	Type    string `json:"relation_type"`
	Context string `json:"context"`
}

// Mention represents a chunk-to-entity edge, created when the entity's
// surface text appears inside the chunk's text.
type Mention struct {
	ChunkID    string `json:"chunk_id"`
	EntityText string `json:"entity_text"`
}
