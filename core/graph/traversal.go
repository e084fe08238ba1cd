package graph

import (
	"context"

	"github.com/siherrmann/graphrag/model"
)

// GraphDB defines the read surface the traversal needs from the store.
type GraphDB interface {
	SelectEntity(ctx context.Context, text string) (*model.Entity, error)
	SelectRelationsForEntity(ctx context.Context, text string) ([]*model.Relation, error)
	SelectMentionsForEntity(ctx context.Context, entityText string) ([]*model.Mention, error)
	SelectMentionsForChunk(ctx context.Context, chunkID string) ([]*model.Mention, error)
	SelectChunk(ctx context.Context, chunkID string) (*model.Chunk, error)
}

// MentionEdgeType is the edge type reported for chunk-to-entity mention
// edges in subgraph results.
const MentionEdgeType = "MENTIONS"

// MaxVisitedNodes caps the total number of nodes a single traversal may
// visit, bounding fan-out on dense graphs regardless of the requested
// depth.
const MaxVisitedNodes = 1000

// nodeRef identifies a node in the traversal frontier: an entity by its
// surface text or a chunk by its id.
type nodeRef struct {
	isChunk bool
	key     string
}

// Subgraph performs a breadth-first traversal from the named entity,
// following relation and mention edges in either direction, up to depth
// hops and at most MaxVisitedNodes nodes. An entity that does not exist
// yields empty (non-nil) node and edge sets.
func Subgraph(ctx context.Context, db GraphDB, entityText string, depth int) (*model.Subgraph, error) {
	sub := &model.Subgraph{
		Nodes:         []model.SubgraphNode{},
		Relationships: []model.SubgraphRelationship{},
	}
	if depth < 1 {
		return sub, nil
	}

	root, err := db.SelectEntity(ctx, entityText)
	if err != nil {
		return nil, err
	}
	if root == nil {
		return sub, nil
	}

	t := &traversal{
		db:        db,
		sub:       sub,
		visited:   make(map[nodeRef]bool),
		seenEdges: make(map[model.SubgraphRelationship]bool),
		chunkText: make(map[string]string),
	}

	rootRef := nodeRef{isChunk: false, key: entityText}
	t.visited[rootRef] = true
	t.addEntityNode(root)

	type queued struct {
		ref   nodeRef
		depth int
	}
	queue := []queued{{ref: rootRef, depth: 0}}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if current.depth >= depth {
			continue
		}

		var neighbors []nodeRef
		if current.ref.isChunk {
			neighbors, err = t.expandChunk(ctx, current.ref.key)
		} else {
			neighbors, err = t.expandEntity(ctx, current.ref.key)
		}
		if err != nil {
			return nil, err
		}

		for _, neighbor := range neighbors {
			queue = append(queue, queued{ref: neighbor, depth: current.depth + 1})
		}
	}

	return sub, nil
}

type traversal struct {
	db        GraphDB
	sub       *model.Subgraph
	visited   map[nodeRef]bool
	seenEdges map[model.SubgraphRelationship]bool
	chunkText map[string]string
}

// expandEntity follows relation edges in both directions and mention edges
// pointing at the entity, returning the newly visited neighbors.
func (t *traversal) expandEntity(ctx context.Context, entityText string) ([]nodeRef, error) {
	var added []nodeRef

	relations, err := t.db.SelectRelationsForEntity(ctx, entityText)
	if err != nil {
		return nil, err
	}
	for _, relation := range relations {
		other := relation.Target
		if other == entityText {
			other = relation.Source
		}

		visited, err := t.visitEntity(ctx, other)
		if err != nil {
			return nil, err
		}
		if visited.newlyAdded {
			added = append(added, nodeRef{isChunk: false, key: other})
		}
		if visited.inGraph {
			t.addEdge(model.SubgraphRelationship{
				Type:  relation.Type,
				Start: relation.Source,
				End:   relation.Target,
			})
		}
	}

	mentions, err := t.db.SelectMentionsForEntity(ctx, entityText)
	if err != nil {
		return nil, err
	}
	for _, mention := range mentions {
		visited, err := t.visitChunk(ctx, mention.ChunkID)
		if err != nil {
			return nil, err
		}
		if visited.newlyAdded {
			added = append(added, nodeRef{isChunk: true, key: mention.ChunkID})
		}
		if visited.inGraph {
			t.addMentionEdge(mention)
		}
	}

	return added, nil
}

// expandChunk follows the chunk's mention edges back out to entities,
// returning the newly visited neighbors.
func (t *traversal) expandChunk(ctx context.Context, chunkID string) ([]nodeRef, error) {
	var added []nodeRef

	mentions, err := t.db.SelectMentionsForChunk(ctx, chunkID)
	if err != nil {
		return nil, err
	}
	for _, mention := range mentions {
		visited, err := t.visitEntity(ctx, mention.EntityText)
		if err != nil {
			return nil, err
		}
		if visited.newlyAdded {
			added = append(added, nodeRef{isChunk: false, key: mention.EntityText})
		}
		if visited.inGraph {
			t.addMentionEdge(mention)
		}
	}

	return added, nil
}

type visitResult struct {
	inGraph    bool
	newlyAdded bool
}

func (t *traversal) visitEntity(ctx context.Context, text string) (visitResult, error) {
	ref := nodeRef{isChunk: false, key: text}
	if t.visited[ref] {
		return visitResult{inGraph: true}, nil
	}
	if len(t.visited) >= MaxVisitedNodes {
		return visitResult{}, nil
	}

	entity, err := t.db.SelectEntity(ctx, text)
	if err != nil {
		return visitResult{}, err
	}
	if entity == nil {
		return visitResult{}, nil
	}

	t.visited[ref] = true
	t.addEntityNode(entity)
	return visitResult{inGraph: true, newlyAdded: true}, nil
}

func (t *traversal) visitChunk(ctx context.Context, chunkID string) (visitResult, error) {
	ref := nodeRef{isChunk: true, key: chunkID}
	if t.visited[ref] {
		return visitResult{inGraph: true}, nil
	}
	if len(t.visited) >= MaxVisitedNodes {
		return visitResult{}, nil
	}

	chunk, err := t.db.SelectChunk(ctx, chunkID)
	if err != nil {
		return visitResult{}, err
	}
	if chunk == nil {
		return visitResult{}, nil
	}

	t.visited[ref] = true
	t.chunkText[chunk.ID] = chunk.Text
	t.sub.Nodes = append(t.sub.Nodes, model.SubgraphNode{
		Text: chunk.Text,
		Properties: map[string]any{
			"chunk_id":   chunk.ID,
			"source":     chunk.Source,
			"chunk_size": chunk.Size,
		},
	})
	return visitResult{inGraph: true, newlyAdded: true}, nil
}

func (t *traversal) addEntityNode(entity *model.Entity) {
	t.sub.Nodes = append(t.sub.Nodes, model.SubgraphNode{
		Text: entity.Text,
		Properties: map[string]any{
			"label": entity.Label,
			"start": entity.Start,
			"end":   entity.End,
		},
	})
}

// addMentionEdge records a chunk-to-entity edge, with the chunk's content
// as the start endpoint to match the node display text.
func (t *traversal) addMentionEdge(mention *model.Mention) {
	t.addEdge(model.SubgraphRelationship{
		Type:  MentionEdgeType,
		Start: t.chunkText[mention.ChunkID],
		End:   mention.EntityText,
	})
}

func (t *traversal) addEdge(edge model.SubgraphRelationship) {
	if t.seenEdges[edge] {
		return
	}
	t.seenEdges[edge] = true
	t.sub.Relationships = append(t.sub.Relationships, edge)
}
