// Package repository declares the persistence interfaces the service layer
// depends on. Implementations live in subpackages (see repository/sqlite).
//
// Every tag, ingredient and recipe method takes the owning user's id and only
// ever sees that user's rows; a row owned by someone else behaves exactly
// like a missing one.
package repository

import (
	"context"

	"github.com/sakif/recipe-api/internal/model"
)

// RecipeFilter narrows ListRecipes. A recipe matches a non-empty id list when
// it has ANY of the listed tags (ingredients); both lists must match when
// both are given.
type RecipeFilter struct {
	TagIDs        []int64
	IngredientIDs []int64
}

// LabelFilter narrows ListTags / ListIngredients.
type LabelFilter struct {
	// AssignedOnly keeps only labels attached to at least one recipe.
	AssignedOnly bool
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateUser(ctx context.Context, user *model.User) error
}

type TagRepository interface {
	CreateTag(ctx context.Context, tag *model.Tag) error
	ListTags(ctx context.Context, userID int64, filter LabelFilter) ([]model.Tag, error)
	// TagsByIDs returns the caller's tags among ids, ordered by id.
	// Unknown and foreign ids are silently skipped.
	TagsByIDs(ctx context.Context, userID int64, ids []int64) ([]model.Tag, error)
}

type IngredientRepository interface {
	CreateIngredient(ctx context.Context, ingredient *model.Ingredient) error
	ListIngredients(ctx context.Context, userID int64, filter LabelFilter) ([]model.Ingredient, error)
	IngredientsByIDs(ctx context.Context, userID int64, ids []int64) ([]model.Ingredient, error)
}

type RecipeRepository interface {
	// CreateRecipe inserts the recipe and its tag/ingredient links.
	CreateRecipe(ctx context.Context, recipe *model.Recipe) error
	// GetRecipe loads one recipe with its tags and ingredients.
	GetRecipe(ctx context.Context, userID, id int64) (*model.Recipe, error)
	// ListRecipes returns the user's recipes newest-id first, with tags and
	// ingredients loaded.
	ListRecipes(ctx context.Context, userID int64, filter RecipeFilter) ([]model.Recipe, error)
	// UpdateRecipe rewrites the scalar fields and replaces both link sets.
	UpdateRecipe(ctx context.Context, recipe *model.Recipe) error
	DeleteRecipe(ctx context.Context, userID, id int64) error
	// SetRecipeImage stores the image path and returns the one it replaced.
	SetRecipeImage(ctx context.Context, userID, id int64, image string) (previous string, err error)
}
