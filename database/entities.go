package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/siherrmann/graphrag/helper"
	"github.com/siherrmann/graphrag/model"
	loadSql "github.com/siherrmann/graphrag/sql"
)

// EntitiesDBHandlerFunctions defines the interface for Entities database operations.
type EntitiesDBHandlerFunctions interface {
	UpsertEntities(ctx context.Context, entities []model.Entity) (int, error)
	SelectEntity(ctx context.Context, text string) (*model.Entity, error)
	CountEntities(ctx context.Context) (int, error)
}

// EntitiesDBHandler handles entity-related database operations
type EntitiesDBHandler struct {
	db *helper.Database
}

// NewEntitiesDBHandler creates a new entities database handler.
// It initializes the database connection and loads entity-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewEntitiesDBHandler(db *helper.Database, force bool) (*EntitiesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	entitiesDbHandler := &EntitiesDBHandler{
		db: db,
	}

	err := loadSql.LoadEntitiesSql(entitiesDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load entities sql", err)
	}

	err = entitiesDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized EntitiesDBHandler")

	return entitiesDbHandler, nil
}

// CreateTable creates the 'entities' table in the database.
// If the table already exists, it does not create it again.
// It also creates all necessary indexes.
func (h *EntitiesDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_entities();`)
	if err != nil {
		log.Panicf("error initializing entities table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table entities")

	return nil
}

// UpsertEntities merges each entity into the graph keyed by its surface
// text: a new node is created on first sighting, label and span are
// overwritten on re-sighting. It returns the number of entities processed;
// on failure the batch may have been partially applied and the count covers
// the committed prefix.
func (h *EntitiesDBHandler) UpsertEntities(ctx context.Context, entities []model.Entity) (int, error) {
	count := 0
	for _, entity := range entities {
		row := h.db.Instance.QueryRowContext(
			ctx,
			`SELECT * FROM upsert_entity($1, $2, $3, $4)`,
			entity.Text,
			entity.Label,
			entity.Start,
			entity.End,
		)

		var stored model.Entity
		var createdAt time.Time
		err := row.Scan(&stored.Text, &stored.Label, &stored.Start, &stored.End, &createdAt)
		if err != nil {
			return count, &model.StoreError{Op: "upsert entities", Err: err}
		}
		count++
	}

	return count, nil
}

// SelectEntity retrieves an entity by its surface text.
// Returns nil without an error if the entity does not exist.
func (h *EntitiesDBHandler) SelectEntity(ctx context.Context, text string) (*model.Entity, error) {
	row := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM select_entity($1)`,
		text,
	)

	entity := &model.Entity{}
	var createdAt time.Time
	err := row.Scan(&entity.Text, &entity.Label, &entity.Start, &entity.End, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &model.StoreError{Op: "select entity", Err: err}
	}

	return entity, nil
}

// CountEntities returns the number of entity nodes in the graph.
func (h *EntitiesDBHandler) CountEntities(ctx context.Context) (int, error) {
	var count int
	err := h.db.Instance.QueryRowContext(ctx, `SELECT count_entities()`).Scan(&count)
	if err != nil {
		return 0, &model.StoreError{Op: "count entities", Err: err}
	}
	return count, nil
}
