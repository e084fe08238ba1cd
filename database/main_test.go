package database

import (
	"context"
	"log"
	"testing"

	"github.com/siherrmann/graphrag/helper"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
)

var dbPort string

func TestMain(m *testing.M) {
	var teardown func(ctx context.Context, opts ...testcontainers.TerminateOption) error
	var err error
	teardown, dbPort, err = helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("error starting postgres container: %v", err)
	}

	m.Run()

	if teardown != nil && teardown(context.Background()) != nil {
		log.Fatalf("error tearing down postgres container: %v", err)
	}
}

func initDB(t *testing.T) *helper.Database {
	helper.SetTestDatabaseConfigEnvs(t, dbPort)
	dbConfig, err := helper.NewDatabaseConfiguration()
	require.NoError(t, err, "failed to create database configuration")
	return helper.NewTestDatabase(dbConfig)
}

// initStore creates a fresh store with a small embedding dimension and no
// leftover rows from previous tests.
func initStore(t *testing.T, dimension int) *Store {
	database := initDB(t)

	store, err := NewStore(database, dimension)
	require.NoError(t, err, "failed to create store")

	err = store.EnsureSchema(context.Background())
	require.NoError(t, err, "failed to ensure schema")

	err = store.Reset(context.Background())
	require.NoError(t, err, "failed to reset store")

	return store
}
