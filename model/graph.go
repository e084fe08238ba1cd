package model

// SubgraphNode is one node reached by a subgraph traversal. Text carries the
// node's display text (entity surface text, or chunk content for chunk
// nodes); Properties carries the remaining stored attributes.
type SubgraphNode struct {
	Text       string         `json:"text"`
	Properties map[string]any `json:"properties"`
}

// SubgraphRelationship is one edge of a subgraph, with Start and End holding
// the display text of the connected nodes.
type SubgraphRelationship struct {
	Type  string `json:"type"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// Subgraph is the set of distinct nodes and the list of edges reachable from
// a named entity within a bounded number of hops.
type Subgraph struct {
	Nodes         []SubgraphNode         `json:"nodes"`
	Relationships []SubgraphRelationship `json:"relationships"`
}

// Statistics reports exact node and edge counts for the whole graph.
// Relationships counts edges of any type, typed entity relations and
// chunk mentions alike.
type Statistics struct {
	Entities      int `json:"entities"`
	Chunks        int `json:"chunks"`
	Relationships int `json:"relationships"`
}
