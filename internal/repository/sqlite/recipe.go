package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sakif/recipe-api/internal/apperror"
	"github.com/sakif/recipe-api/internal/model"
	"github.com/sakif/recipe-api/internal/repository"
)

var _ repository.RecipeRepository = (*DB)(nil)

const recipeColumns = `id, user_id, title, time_minutes, price, link, image, created_at, updated_at`

// WHY IS PRICE WRITTEN AS TEXT?
// SQLite has no fixed-point type. A REAL column stores 5.10 as the nearest
// binary float, so sums and comparisons drift and the value read back may not
// print as it was entered. The price is written with StringFixed(2) into a
// TEXT column and scanned straight back into a decimal.Decimal, which
// keeps exactly the two decimal places the API accepts.

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// CreateRecipe inserts the recipe and links the tags and ingredients already
// attached to it, in one transaction. The caller is responsible for making
// sure the attached tags and ingredients belong to recipe.UserID.
func (db *DB) CreateRecipe(ctx context.Context, recipe *model.Recipe) error {
	now := time.Now()
	recipe.CreatedAt = now
	recipe.UpdatedAt = now

	return db.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`INSERT INTO recipes (user_id, title, time_minutes, price, link, image, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			recipe.UserID,
			recipe.Title,
			recipe.TimeMinutes,
			recipe.Price.StringFixed(2),
			recipe.Link,
			recipe.Image,
			recipe.CreatedAt,
			recipe.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("sqlite: creating recipe: %w", err)
		}

		recipe.ID, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("sqlite: reading recipe id: %w", err)
		}

		return replaceLinks(ctx, tx, recipe)
	})
}

// GetRecipe retrieves one of the user's recipes with tags and ingredients.
// A recipe owned by another user is reported as not found.
func (db *DB) GetRecipe(ctx context.Context, userID, id int64) (*model.Recipe, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+recipeColumns+` FROM recipes WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting recipe %d: %w", id, err)
	}

	recipes, err := scanRecipes(rows)
	if err != nil {
		return nil, err
	}
	if len(recipes) == 0 {
		return nil, apperror.NotFound("recipe", id)
	}

	if err := loadLinks(ctx, db.conn, recipes); err != nil {
		return nil, err
	}
	return &recipes[0], nil
}

// ListRecipes returns the user's recipes, highest id first.
func (db *DB) ListRecipes(ctx context.Context, userID int64, filter repository.RecipeFilter) ([]model.Recipe, error) {
	query := `SELECT ` + recipeColumns + ` FROM recipes WHERE user_id = ?`
	args := []any{userID}

	if len(filter.TagIDs) > 0 {
		marks, ids := placeholders(filter.TagIDs)
		query += ` AND id IN (SELECT recipe_id FROM recipe_tags WHERE tag_id IN (` + marks + `))`
		args = append(args, ids...)
	}
	if len(filter.IngredientIDs) > 0 {
		marks, ids := placeholders(filter.IngredientIDs)
		query += ` AND id IN (SELECT recipe_id FROM recipe_ingredients WHERE ingredient_id IN (` + marks + `))`
		args = append(args, ids...)
	}
	query += ` ORDER BY id DESC`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing recipes: %w", err)
	}

	recipes, err := scanRecipes(rows)
	if err != nil {
		return nil, err
	}

	if err := loadLinks(ctx, db.conn, recipes); err != nil {
		return nil, err
	}
	return recipes, nil
}

// UpdateRecipe rewrites the recipe's scalar fields (except the image) and
// replaces its tag and ingredient links.
func (db *DB) UpdateRecipe(ctx context.Context, recipe *model.Recipe) error {
	recipe.UpdatedAt = time.Now()

	return db.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE recipes
			 SET title = ?, time_minutes = ?, price = ?, link = ?, updated_at = ?
			 WHERE id = ? AND user_id = ?`,
			recipe.Title,
			recipe.TimeMinutes,
			recipe.Price.StringFixed(2),
			recipe.Link,
			recipe.UpdatedAt,
			recipe.ID,
			recipe.UserID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: updating recipe %d: %w", recipe.ID, err)
		}
		if err := expectOneRow(result, recipe.ID); err != nil {
			return err
		}

		return replaceLinks(ctx, tx, recipe)
	})
}

// DeleteRecipe removes the recipe; its link rows go with it (ON DELETE CASCADE).
func (db *DB) DeleteRecipe(ctx context.Context, userID, id int64) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM recipes WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting recipe %d: %w", id, err)
	}
	return expectOneRow(result, id)
}

// SetRecipeImage stores the media-relative image path ("" clears it) and
// returns the path it replaced.
//
// WHY TOUCH THE ROW FIRST?
// The first statement is a write, so the transaction takes SQLite's write
// lock before it reads the old path. A concurrent upload for the same recipe
// waits (busy_timeout) instead of reading the same old value, which means
// every replaced file is reported to exactly one caller.
func (db *DB) SetRecipeImage(ctx context.Context, userID, id int64, image string) (string, error) {
	var previous string
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE recipes SET updated_at = ? WHERE id = ? AND user_id = ?`,
			time.Now(), id, userID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: locking recipe %d: %w", id, err)
		}
		if err := expectOneRow(result, id); err != nil {
			return err
		}

		if err := tx.QueryRowContext(ctx,
			`SELECT image FROM recipes WHERE id = ?`, id,
		).Scan(&previous); err != nil {
			return fmt.Errorf("sqlite: reading image of recipe %d: %w", id, err)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE recipes SET image = ? WHERE id = ?`, image, id,
		); err != nil {
			return fmt.Errorf("sqlite: setting image on recipe %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return previous, nil
}

func expectOneRow(result sql.Result, id int64) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("recipe", id)
	}
	return nil
}

// replaceLinks makes the link tables match recipe.Tags and recipe.Ingredients.
func replaceLinks(ctx context.Context, q queryer, recipe *model.Recipe) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM recipe_tags WHERE recipe_id = ?`, recipe.ID); err != nil {
		return fmt.Errorf("sqlite: clearing tags of recipe %d: %w", recipe.ID, err)
	}
	for _, tag := range recipe.Tags {
		if _, err := q.ExecContext(ctx,
			`INSERT OR IGNORE INTO recipe_tags (recipe_id, tag_id) VALUES (?, ?)`,
			recipe.ID, tag.ID,
		); err != nil {
			return fmt.Errorf("sqlite: linking tag %d to recipe %d: %w", tag.ID, recipe.ID, err)
		}
	}

	if _, err := q.ExecContext(ctx, `DELETE FROM recipe_ingredients WHERE recipe_id = ?`, recipe.ID); err != nil {
		return fmt.Errorf("sqlite: clearing ingredients of recipe %d: %w", recipe.ID, err)
	}
	for _, ingredient := range recipe.Ingredients {
		if _, err := q.ExecContext(ctx,
			`INSERT OR IGNORE INTO recipe_ingredients (recipe_id, ingredient_id) VALUES (?, ?)`,
			recipe.ID, ingredient.ID,
		); err != nil {
			return fmt.Errorf("sqlite: linking ingredient %d to recipe %d: %w", ingredient.ID, recipe.ID, err)
		}
	}
	return nil
}

// loadLinks fills Tags and Ingredients for every recipe in the slice with
// one query per link table. Links come back ordered by label id.
func loadLinks(ctx context.Context, q queryer, recipes []model.Recipe) error {
	if len(recipes) == 0 {
		return nil
	}

	index := make(map[int64]*model.Recipe, len(recipes))
	ids := make([]int64, 0, len(recipes))
	for i := range recipes {
		recipes[i].Tags = []model.Tag{}
		recipes[i].Ingredients = []model.Ingredient{}
		index[recipes[i].ID] = &recipes[i]
		ids = append(ids, recipes[i].ID)
	}
	marks, args := placeholders(ids)

	tagLinks, err := queryLinks(ctx, q, tagTable, marks, args)
	if err != nil {
		return err
	}
	for _, link := range tagLinks {
		r := index[link.recipeID]
		r.Tags = append(r.Tags, model.Tag{ID: link.ID, UserID: link.UserID, Name: link.Name})
	}

	ingredientLinks, err := queryLinks(ctx, q, ingredientTable, marks, args)
	if err != nil {
		return err
	}
	for _, link := range ingredientLinks {
		r := index[link.recipeID]
		r.Ingredients = append(r.Ingredients, model.Ingredient{ID: link.ID, UserID: link.UserID, Name: link.Name})
	}
	return nil
}

type recipeLink struct {
	label
	recipeID int64
}

func queryLinks(ctx context.Context, q queryer, t labelTable, marks string, args []any) ([]recipeLink, error) {
	rows, err := q.QueryContext(ctx,
		fmt.Sprintf(`SELECT l.recipe_id, x.id, x.user_id, x.name
		 FROM %s l JOIN %s x ON x.id = l.%s
		 WHERE l.recipe_id IN (%s)
		 ORDER BY x.id`, t.linkTable, t.table, t.linkColumn, marks),
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: loading %s links: %w", t.table, err)
	}
	defer rows.Close()

	var links []recipeLink
	for rows.Next() {
		var link recipeLink
		if err := rows.Scan(&link.recipeID, &link.ID, &link.UserID, &link.Name); err != nil {
			return nil, fmt.Errorf("sqlite: scanning %s link: %w", t.table, err)
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating %s links: %w", t.table, err)
	}
	return links, nil
}

func scanRecipes(rows *sql.Rows) ([]model.Recipe, error) {
	defer rows.Close()

	recipes := []model.Recipe{}
	for rows.Next() {
		var r model.Recipe
		if err := rows.Scan(
			&r.ID, &r.UserID, &r.Title, &r.TimeMinutes, &r.Price,
			&r.Link, &r.Image, &r.CreatedAt, &r.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning recipe row: %w", err)
		}
		recipes = append(recipes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating recipes: %w", err)
	}
	return recipes, nil
}
