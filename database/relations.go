package database

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/siherrmann/graphrag/helper"
	"github.com/siherrmann/graphrag/model"
	loadSql "github.com/siherrmann/graphrag/sql"
)

// FallbackRelationType is the edge type substituted for relation labels
// that cannot be turned into a safe identifier.
const FallbackRelationType = "RELATED_TO"

// relationTypePattern is the allow-list a sanitized relation type must
// match before it is used as an edge type. Anything outside this closed set
// of identifier characters falls back to FallbackRelationType.
var relationTypePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// SanitizeRelationType derives a safe edge type from an arbitrary extracted
// relation label: uppercase, spaces and hyphens become underscores, and the
// result is validated against a strict identifier allow-list. Labels that
// are empty, do not start with a letter, or contain any other character are
// replaced by FallbackRelationType.
func SanitizeRelationType(raw string) string {
	sanitized := strings.ToUpper(raw)
	sanitized = strings.ReplaceAll(sanitized, " ", "_")
	sanitized = strings.ReplaceAll(sanitized, "-", "_")

	if !relationTypePattern.MatchString(sanitized) {
		return FallbackRelationType
	}
	return sanitized
}

// RelationsDBHandlerFunctions defines the interface for Relations database operations.
type RelationsDBHandlerFunctions interface {
	UpsertRelations(ctx context.Context, relations []model.Relation) (int, error)
	SelectRelationsForEntity(ctx context.Context, text string) ([]*model.Relation, error)
	CountRelations(ctx context.Context) (int, error)
}

// RelationsDBHandler handles relation-edge database operations
type RelationsDBHandler struct {
	db *helper.Database
}

// NewRelationsDBHandler creates a new relations database handler.
// It initializes the database connection and loads relation-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewRelationsDBHandler(db *helper.Database, force bool) (*RelationsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	relationsDbHandler := &RelationsDBHandler{
		db: db,
	}

	err := loadSql.LoadRelationsSql(relationsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load relations sql", err)
	}

	err = relationsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized RelationsDBHandler")

	return relationsDbHandler, nil
}

// CreateTable creates the 'relations' table in the database.
// If the table already exists, it does not create it again.
// It also creates all necessary indexes.
func (h *RelationsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_relations();`)
	if err != nil {
		log.Panicf("error initializing relations table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table relations")

	return nil
}

// UpsertRelations merges each relation as a typed edge between two existing
// entity nodes. A relation whose source or target has no entity node is
// skipped without an error. Returns the number of relations attempted, not
// the number of edges created.
func (h *RelationsDBHandler) UpsertRelations(ctx context.Context, relations []model.Relation) (int, error) {
	attempted := 0
	for _, relation := range relations {
		relType := SanitizeRelationType(relation.Type)

		var merged int
		err := h.db.Instance.QueryRowContext(
			ctx,
			`SELECT upsert_relation($1, $2, $3, $4)`,
			relation.Source,
			relation.Target,
			relType,
			relation.Context,
		).Scan(&merged)
		if err != nil {
			return attempted, &model.StoreError{Op: "upsert relations", Err: err}
		}
		attempted++
	}

	return attempted, nil
}

// SelectRelationsForEntity retrieves all relation edges touching the named
// entity, in either direction. Returned relation types are the sanitized
// edge types as stored.
func (h *RelationsDBHandler) SelectRelationsForEntity(ctx context.Context, text string) ([]*model.Relation, error) {
	rows, err := h.db.Instance.QueryContext(
		ctx,
		`SELECT * FROM select_relations_for_entity($1)`,
		text,
	)
	if err != nil {
		return nil, &model.StoreError{Op: "select relations", Err: err}
	}
	defer rows.Close()

	var relations []*model.Relation
	for rows.Next() {
		relation := &model.Relation{}
		var createdAt time.Time
		err := rows.Scan(&relation.Source, &relation.Target, &relation.Type, &relation.Context, &createdAt)
		if err != nil {
			return nil, &model.StoreError{Op: "scan relation", Err: err}
		}
		relations = append(relations, relation)
	}
	if err := rows.Err(); err != nil {
		return nil, &model.StoreError{Op: "select relations", Err: err}
	}

	return relations, nil
}

// CountRelations returns the number of typed relation edges in the graph.
func (h *RelationsDBHandler) CountRelations(ctx context.Context) (int, error) {
	var count int
	err := h.db.Instance.QueryRowContext(ctx, `SELECT count_relations()`).Scan(&count)
	if err != nil {
		return 0, &model.StoreError{Op: "count relations", Err: err}
	}
	return count, nil
}
