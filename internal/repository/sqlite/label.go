package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sakif/recipe-api/internal/model"
	"github.com/sakif/recipe-api/internal/repository"
)

var (
	_ repository.TagRepository        = (*DB)(nil)
	_ repository.IngredientRepository = (*DB)(nil)
)

// Tags and ingredients share one shape (id, user_id, name) and one link
// table layout, so both are stored through the label helpers below.
type labelTable struct {
	table      string // "tags"
	linkTable  string // "recipe_tags"
	linkColumn string // "tag_id"
}

var (
	tagTable        = labelTable{"tags", "recipe_tags", "tag_id"}
	ingredientTable = labelTable{"ingredients", "recipe_ingredients", "ingredient_id"}
)

type label struct {
	ID     int64
	UserID int64
	Name   string
}

// =========================================================================
// TAGS
// =========================================================================

func (db *DB) CreateTag(ctx context.Context, tag *model.Tag) error {
	id, err := db.insertLabel(ctx, tagTable, tag.UserID, tag.Name)
	if err != nil {
		return err
	}
	tag.ID = id
	return nil
}

// ListTags returns the user's tags ordered by name, Z to A.
func (db *DB) ListTags(ctx context.Context, userID int64, filter repository.LabelFilter) ([]model.Tag, error) {
	labels, err := db.listLabels(ctx, tagTable, userID, filter)
	if err != nil {
		return nil, err
	}
	return toTags(labels), nil
}

func (db *DB) TagsByIDs(ctx context.Context, userID int64, ids []int64) ([]model.Tag, error) {
	labels, err := db.labelsByIDs(ctx, tagTable, userID, ids)
	if err != nil {
		return nil, err
	}
	return toTags(labels), nil
}

func toTags(labels []label) []model.Tag {
	tags := make([]model.Tag, 0, len(labels))
	for _, l := range labels {
		tags = append(tags, model.Tag{ID: l.ID, UserID: l.UserID, Name: l.Name})
	}
	return tags
}

// =========================================================================
// INGREDIENTS
// =========================================================================

func (db *DB) CreateIngredient(ctx context.Context, ingredient *model.Ingredient) error {
	id, err := db.insertLabel(ctx, ingredientTable, ingredient.UserID, ingredient.Name)
	if err != nil {
		return err
	}
	ingredient.ID = id
	return nil
}

// ListIngredients returns the user's ingredients ordered by name, Z to A.
func (db *DB) ListIngredients(ctx context.Context, userID int64, filter repository.LabelFilter) ([]model.Ingredient, error) {
	labels, err := db.listLabels(ctx, ingredientTable, userID, filter)
	if err != nil {
		return nil, err
	}
	return toIngredients(labels), nil
}

func (db *DB) IngredientsByIDs(ctx context.Context, userID int64, ids []int64) ([]model.Ingredient, error) {
	labels, err := db.labelsByIDs(ctx, ingredientTable, userID, ids)
	if err != nil {
		return nil, err
	}
	return toIngredients(labels), nil
}

func toIngredients(labels []label) []model.Ingredient {
	ingredients := make([]model.Ingredient, 0, len(labels))
	for _, l := range labels {
		ingredients = append(ingredients, model.Ingredient{ID: l.ID, UserID: l.UserID, Name: l.Name})
	}
	return ingredients
}

// =========================================================================
// SHARED HELPERS
// =========================================================================

func (db *DB) insertLabel(ctx context.Context, t labelTable, userID int64, name string) (int64, error) {
	result, err := db.conn.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (user_id, name) VALUES (?, ?)`, t.table),
		userID, name,
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite: inserting into %s: %w", t.table, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("sqlite: reading %s id: %w", t.table, err)
	}
	return id, nil
}

func (db *DB) listLabels(ctx context.Context, t labelTable, userID int64, filter repository.LabelFilter) ([]label, error) {
	query := fmt.Sprintf(`SELECT id, user_id, name FROM %s WHERE user_id = ?`, t.table)
	if filter.AssignedOnly {
		query += fmt.Sprintf(` AND id IN (SELECT %s FROM %s)`, t.linkColumn, t.linkTable)
	}
	query += ` ORDER BY name DESC, id DESC`

	rows, err := db.conn.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing %s: %w", t.table, err)
	}
	return scanLabels(rows, t.table)
}

func (db *DB) labelsByIDs(ctx context.Context, t labelTable, userID int64, ids []int64) ([]label, error) {
	if len(ids) == 0 {
		return []label{}, nil
	}

	marks, args := placeholders(ids)
	rows, err := db.conn.QueryContext(ctx,
		fmt.Sprintf(`SELECT id, user_id, name FROM %s WHERE user_id = ? AND id IN (%s) ORDER BY id`, t.table, marks),
		append([]any{userID}, args...)...,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: loading %s by id: %w", t.table, err)
	}
	return scanLabels(rows, t.table)
}

func scanLabels(rows *sql.Rows, table string) ([]label, error) {
	defer rows.Close()

	labels := []label{}
	for rows.Next() {
		var l label
		if err := rows.Scan(&l.ID, &l.UserID, &l.Name); err != nil {
			return nil, fmt.Errorf("sqlite: scanning %s row: %w", table, err)
		}
		labels = append(labels, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating %s: %w", table, err)
	}
	return labels, nil
}
