package main

import (
	"context"
	"fmt"
	"log"

	"github.com/siherrmann/graphrag"
	"github.com/siherrmann/graphrag/helper"
	"github.com/siherrmann/graphrag/model"
)

const sampleContent = `Marie Curie conducted pioneering research on radioactivity at the
University of Paris. She discovered the elements polonium and radium together with
Pierre Curie.

Marie Curie received the Nobel Prize in Physics and later the Nobel Prize in Chemistry.
She remains the only person to win Nobel Prizes in two different sciences.

Pierre Curie taught physics in Paris before joining the research on radioactivity.`

func main() {
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

	config := model.DefaultPipelineConfig()
	config.TopK = 3
	config.SubgraphDepth = 2

	g, err := graphrag.NewDefaultGraphRAG(dbConfig, &config)
	if err != nil {
		log.Fatalf("Failed to create graphrag: %v", err)
	}
	defer g.Close()

	fmt.Println("Ingesting document...")
	if _, err := g.IngestText(context.Background(), sampleContent, "curie_bio"); err != nil {
		log.Fatalf("Failed to ingest document: %v", err)
	}

	queryText := "What did Marie Curie discover?"
	fmt.Printf("\nQuerying: %s\n", queryText)

	answer, err := g.Query(context.Background(), queryText)
	if err != nil {
		log.Fatalf("Failed to query: %v", err)
	}

	fmt.Printf("\nFound %d similar chunks:\n", len(answer.SimilarChunks))
	for i, chunk := range answer.SimilarChunks {
		fmt.Printf("\n--- Chunk %d ---\n", i+1)
		fmt.Printf("Score: %.4f\n", chunk.Score)
		fmt.Printf("Source: %s\n", chunk.Source)
		fmt.Printf("Content: %s\n", chunk.Text)
	}

	fmt.Printf("\nQuery entities: ")
	for i, entity := range answer.QueryEntities {
		if i > 0 {
			fmt.Print(", ")
		}
		fmt.Printf("%s (%s)", entity.Text, entity.Label)
	}
	fmt.Println()

	for _, entitySubgraph := range answer.EntitySubgraphs {
		fmt.Printf("\nSubgraph around %s: %d nodes, %d relationships\n",
			entitySubgraph.Entity,
			len(entitySubgraph.Subgraph.Nodes),
			len(entitySubgraph.Subgraph.Relationships))
		for _, rel := range entitySubgraph.Subgraph.Relationships {
			fmt.Printf("  (%s) -[%s]-> (%s)\n", rel.Start, rel.Type, rel.End)
		}
	}

	fmt.Println("\nQuery example completed successfully!")
}
