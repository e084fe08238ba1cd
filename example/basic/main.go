package main

import (
	"context"
	"fmt"
	"log"

	"github.com/siherrmann/graphrag"
	"github.com/siherrmann/graphrag/helper"
)

const sampleContent = `Google was founded by Larry Page and Sergey Brin while they were
PhD students at Stanford University. The company started in a garage in Menlo Park.

Larry Page studied computer engineering at the University of Michigan before moving
to Stanford. Sergey Brin studied mathematics at the University of Maryland.

Google later acquired YouTube and developed the Android operating system.
Sundar Pichai joined Google and eventually became its chief executive.`

func main() {
	// Start a test PostgreSQL container with pgvector
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "graphrag",
		Username: "postgres",
		Password: "postgres",
	}

	// Local NER + embedding models, downloaded on first run
	g, err := graphrag.NewDefaultGraphRAG(dbConfig, nil)
	if err != nil {
		log.Fatalf("Failed to create graphrag: %v", err)
	}
	defer g.Close()

	fmt.Println("Ingesting document...")
	result, err := g.IngestText(context.Background(), sampleContent, "basic_example")
	if err != nil {
		log.Fatalf("Failed to ingest document: %v", err)
	}
	fmt.Printf("Run %s: stored %d chunks, %d entities, %d mentions (dimension %d)\n",
		result.RunID, result.ChunksStored, result.EntitiesProcessed,
		result.MentionsLinked, result.EmbeddingDimension)

	stats, err := g.Statistics(context.Background())
	if err != nil {
		log.Fatalf("Failed to read statistics: %v", err)
	}
	fmt.Printf("Graph now holds %d entities, %d chunks, %d relationships\n",
		stats.Entities, stats.Chunks, stats.Relationships)

	// Expand the neighborhood around one entity
	subgraph, err := g.Subgraph(context.Background(), "Google", 2)
	if err != nil {
		log.Fatalf("Failed to expand subgraph: %v", err)
	}
	fmt.Printf("\nSubgraph around Google: %d nodes, %d relationships\n",
		len(subgraph.Nodes), len(subgraph.Relationships))
	for _, rel := range subgraph.Relationships {
		fmt.Printf("  (%s) -[%s]-> (%s)\n", rel.Start, rel.Type, rel.End)
	}

	fmt.Println("\nBasic example completed successfully!")
}
