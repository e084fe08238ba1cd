package database

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/siherrmann/graphrag/helper"
	"github.com/siherrmann/graphrag/model"
	loadSql "github.com/siherrmann/graphrag/sql"
)

// MentionsDBHandlerFunctions defines the interface for Mentions database operations.
type MentionsDBHandlerFunctions interface {
	LinkMentions(ctx context.Context, chunks []model.Chunk, entities []model.Entity) (int, error)
	SelectMentionsForEntity(ctx context.Context, entityText string) ([]*model.Mention, error)
	SelectMentionsForChunk(ctx context.Context, chunkID string) ([]*model.Mention, error)
	CountMentions(ctx context.Context) (int, error)
}

// MentionsDBHandler handles mention-edge database operations
type MentionsDBHandler struct {
	db *helper.Database
}

// NewMentionsDBHandler creates a new mentions database handler.
// It initializes the database connection and loads mention-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewMentionsDBHandler(db *helper.Database, force bool) (*MentionsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	mentionsDbHandler := &MentionsDBHandler{
		db: db,
	}

	err := loadSql.LoadMentionsSql(mentionsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load mentions sql", err)
	}

	err = mentionsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized MentionsDBHandler")

	return mentionsDbHandler, nil
}

// CreateTable creates the 'mentions' table in the database.
// If the table already exists, it does not create it again.
// It also creates all necessary indexes. The chunks and entities tables
// must exist first because of the foreign keys.
func (h *MentionsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_mentions();`)
	if err != nil {
		log.Panicf("error initializing mentions table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table mentions")

	return nil
}

// LinkMentions creates a mention edge for every (chunk, entity) pair where
// the entity's exact text appears as a substring of the chunk's text.
// This is a naive O(chunks x entities) substring scan with no index
// acceleration; it is the known scalability ceiling of mention linking.
// Returns the number of edges merged. Re-linking the same pairs merges into
// the existing edges instead of duplicating them.
func (h *MentionsDBHandler) LinkMentions(ctx context.Context, chunks []model.Chunk, entities []model.Entity) (int, error) {
	linked := 0
	for _, chunk := range chunks {
		for _, entity := range entities {
			if entity.Text == "" || !strings.Contains(chunk.Text, entity.Text) {
				continue
			}

			var merged int
			err := h.db.Instance.QueryRowContext(
				ctx,
				`SELECT upsert_mention($1, $2)`,
				chunk.ID,
				entity.Text,
			).Scan(&merged)
			if err != nil {
				return linked, &model.StoreError{Op: "link mentions", Err: err}
			}
			linked += merged
		}
	}

	return linked, nil
}

// SelectMentionsForEntity retrieves all mention edges pointing at the named
// entity.
func (h *MentionsDBHandler) SelectMentionsForEntity(ctx context.Context, entityText string) ([]*model.Mention, error) {
	return h.selectMentions(ctx, `SELECT * FROM select_mentions_for_entity($1)`, entityText)
}

// SelectMentionsForChunk retrieves all mention edges originating from the
// given chunk.
func (h *MentionsDBHandler) SelectMentionsForChunk(ctx context.Context, chunkID string) ([]*model.Mention, error) {
	return h.selectMentions(ctx, `SELECT * FROM select_mentions_for_chunk($1)`, chunkID)
}

func (h *MentionsDBHandler) selectMentions(ctx context.Context, query string, arg string) ([]*model.Mention, error) {
	rows, err := h.db.Instance.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, &model.StoreError{Op: "select mentions", Err: err}
	}
	defer rows.Close()

	var mentions []*model.Mention
	for rows.Next() {
		mention := &model.Mention{}
		var createdAt time.Time
		err := rows.Scan(&mention.ChunkID, &mention.EntityText, &createdAt)
		if err != nil {
			return nil, &model.StoreError{Op: "scan mention", Err: err}
		}
		mentions = append(mentions, mention)
	}
	if err := rows.Err(); err != nil {
		return nil, &model.StoreError{Op: "select mentions", Err: err}
	}

	return mentions, nil
}

// CountMentions returns the number of mention edges in the graph.
func (h *MentionsDBHandler) CountMentions(ctx context.Context) (int, error) {
	var count int
	err := h.db.Instance.QueryRowContext(ctx, `SELECT count_mentions()`).Scan(&count)
	if err != nil {
		return 0, &model.StoreError{Op: "count mentions", Err: err}
	}
	return count, nil
}
