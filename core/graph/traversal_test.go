package graph

import (
	"context"
	"fmt"
	"testing"

	"github.com/siherrmann/graphrag/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGraphDB is an in-memory GraphDB for traversal tests.
type fakeGraphDB struct {
	entities  map[string]*model.Entity
	relations []*model.Relation
	mentions  []*model.Mention
	chunks    map[string]*model.Chunk
}

func newFakeGraphDB() *fakeGraphDB {
	return &fakeGraphDB{
		entities: map[string]*model.Entity{},
		chunks:   map[string]*model.Chunk{},
	}
}

func (f *fakeGraphDB) addEntity(text string, label string) {
	f.entities[text] = &model.Entity{Text: text, Label: label}
}

func (f *fakeGraphDB) addRelation(source string, target string, relType string) {
	f.relations = append(f.relations, &model.Relation{Source: source, Target: target, Type: relType})
}

func (f *fakeGraphDB) addChunk(id string, text string) {
	f.chunks[id] = &model.Chunk{ID: id, Text: text, Source: "test.txt"}
}

func (f *fakeGraphDB) addMention(chunkID string, entityText string) {
	f.mentions = append(f.mentions, &model.Mention{ChunkID: chunkID, EntityText: entityText})
}

func (f *fakeGraphDB) SelectEntity(ctx context.Context, text string) (*model.Entity, error) {
	return f.entities[text], nil
}

func (f *fakeGraphDB) SelectRelationsForEntity(ctx context.Context, text string) ([]*model.Relation, error) {
	var result []*model.Relation
	for _, relation := range f.relations {
		if relation.Source == text || relation.Target == text {
			result = append(result, relation)
		}
	}
	return result, nil
}

func (f *fakeGraphDB) SelectMentionsForEntity(ctx context.Context, entityText string) ([]*model.Mention, error) {
	var result []*model.Mention
	for _, mention := range f.mentions {
		if mention.EntityText == entityText {
			result = append(result, mention)
		}
	}
	return result, nil
}

func (f *fakeGraphDB) SelectMentionsForChunk(ctx context.Context, chunkID string) ([]*model.Mention, error) {
	var result []*model.Mention
	for _, mention := range f.mentions {
		if mention.ChunkID == chunkID {
			result = append(result, mention)
		}
	}
	return result, nil
}

func (f *fakeGraphDB) SelectChunk(ctx context.Context, chunkID string) (*model.Chunk, error) {
	return f.chunks[chunkID], nil
}

func nodeTexts(sub *model.Subgraph) []string {
	var texts []string
	for _, node := range sub.Nodes {
		texts = append(texts, node.Text)
	}
	return texts
}

func TestSubgraph(t *testing.T) {
	ctx := context.Background()

	// A -FOUNDED-> B -LOCATED_IN-> C, chunk1 mentions A and B
	db := newFakeGraphDB()
	db.addEntity("A", "PERSON")
	db.addEntity("B", "ORG")
	db.addEntity("C", "LOC")
	db.addRelation("A", "B", "FOUNDED")
	db.addRelation("B", "C", "LOCATED_IN")
	db.addChunk("doc_0", "A founded B.")
	db.addMention("doc_0", "A")
	db.addMention("doc_0", "B")

	t.Run("Unknown entity yields empty subgraph", func(t *testing.T) {
		sub, err := Subgraph(ctx, db, "Nobody", 2)
		assert.NoError(t, err)
		require.NotNil(t, sub)
		assert.Empty(t, sub.Nodes)
		assert.Empty(t, sub.Relationships)
	})

	t.Run("Depth zero yields empty subgraph", func(t *testing.T) {
		sub, err := Subgraph(ctx, db, "A", 0)
		assert.NoError(t, err)
		assert.Empty(t, sub.Nodes)
	})

	t.Run("Depth 1 reaches direct neighbors", func(t *testing.T) {
		sub, err := Subgraph(ctx, db, "A", 1)
		assert.NoError(t, err)

		texts := nodeTexts(sub)
		assert.Contains(t, texts, "A")
		assert.Contains(t, texts, "B", "relation neighbor")
		assert.Contains(t, texts, "A founded B.", "mentioning chunk")
		assert.NotContains(t, texts, "C", "C is two hops away")

		assert.Contains(t, sub.Relationships, model.SubgraphRelationship{
			Type: "FOUNDED", Start: "A", End: "B",
		})
		assert.Contains(t, sub.Relationships, model.SubgraphRelationship{
			Type: MentionEdgeType, Start: "A founded B.", End: "A",
		})
	})

	t.Run("Depth 2 follows edges in both directions", func(t *testing.T) {
		sub, err := Subgraph(ctx, db, "C", 2)
		assert.NoError(t, err)

		texts := nodeTexts(sub)
		assert.Contains(t, texts, "C")
		assert.Contains(t, texts, "B", "incoming relation followed backwards")
		assert.Contains(t, texts, "A", "two hops via B")
		assert.Contains(t, texts, "A founded B.", "chunk reached through B's mentions")
	})

	t.Run("Edges are deduplicated", func(t *testing.T) {
		sub, err := Subgraph(ctx, db, "A", 3)
		assert.NoError(t, err)

		seen := map[model.SubgraphRelationship]int{}
		for _, edge := range sub.Relationships {
			seen[edge]++
		}
		for edge, count := range seen {
			assert.Equal(t, 1, count, "edge %v appears more than once", edge)
		}
	})

	t.Run("Nodes are deduplicated", func(t *testing.T) {
		sub, err := Subgraph(ctx, db, "A", 3)
		assert.NoError(t, err)

		seen := map[string]int{}
		for _, node := range sub.Nodes {
			seen[node.Text]++
		}
		for text, count := range seen {
			assert.Equal(t, 1, count, "node %v appears more than once", text)
		}
	})

	t.Run("Dangling mention targets are skipped", func(t *testing.T) {
		db.addMention("doc_0", "Ghost")

		sub, err := Subgraph(ctx, db, "A", 2)
		assert.NoError(t, err)
		assert.NotContains(t, nodeTexts(sub), "Ghost")
	})

	t.Run("Entity properties carry label and span", func(t *testing.T) {
		sub, err := Subgraph(ctx, db, "A", 1)
		require.NoError(t, err)

		for _, node := range sub.Nodes {
			if node.Text == "A" {
				assert.Equal(t, "PERSON", node.Properties["label"])
				return
			}
		}
		t.Fatal("root node not found")
	})
}

func TestSubgraphVisitCap(t *testing.T) {
	ctx := context.Background()

	// A hub entity connected to more neighbors than the traversal may visit.
	db := newFakeGraphDB()
	db.addEntity("Hub", "ORG")
	for i := 0; i < MaxVisitedNodes+100; i++ {
		neighbor := fmt.Sprintf("N%d", i)
		db.addEntity(neighbor, "MISC")
		db.addRelation("Hub", neighbor, "LINKS")
	}

	sub, err := Subgraph(ctx, db, "Hub", 2)
	assert.NoError(t, err)
	assert.LessOrEqual(t, len(sub.Nodes), MaxVisitedNodes, "traversal must honor the visit cap")
	assert.Greater(t, len(sub.Nodes), 1, "traversal should still return the visited prefix")
}
