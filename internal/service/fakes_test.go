package service

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/sakif/recipe-api/internal/apperror"
	"github.com/sakif/recipe-api/internal/model"
	"github.com/sakif/recipe-api/internal/repository"
)

// =========================================================================
// FAKES
// =========================================================================
//
// Hand-written in-memory implementations of the repository interfaces. They
// honour the same ownership rules as the SQLite repository: another user's
// row looks exactly like a missing one.

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeUserRepo struct {
	users  map[int64]*model.User
	nextID int64
	// set to a non-nil error to simulate a database failure
	createErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*model.User)}
}

func (f *fakeUserRepo) CreateUser(_ context.Context, user *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, u := range f.users {
		if u.Email == user.Email {
			return apperror.Conflict("user", user.Email)
		}
	}
	f.nextID++
	user.ID = f.nextID
	stored := *user
	f.users[user.ID] = &stored
	return nil
}

func (f *fakeUserRepo) GetUserByID(_ context.Context, id int64) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (f *fakeUserRepo) UpdateUser(_ context.Context, user *model.User) error {
	if _, ok := f.users[user.ID]; !ok {
		return apperror.NotFound("user", user.ID)
	}
	stored := *user
	f.users[user.ID] = &stored
	return nil
}

// fakeLabelRepo stores tags and ingredients.
type fakeLabelRepo struct {
	tags        []model.Tag
	ingredients []model.Ingredient
	nextID      int64
}

func (f *fakeLabelRepo) CreateTag(_ context.Context, tag *model.Tag) error {
	f.nextID++
	tag.ID = f.nextID
	f.tags = append(f.tags, *tag)
	return nil
}

func (f *fakeLabelRepo) ListTags(_ context.Context, userID int64, _ repository.LabelFilter) ([]model.Tag, error) {
	out := []model.Tag{}
	for _, t := range f.tags {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name > out[j].Name })
	return out, nil
}

func (f *fakeLabelRepo) TagsByIDs(_ context.Context, userID int64, ids []int64) ([]model.Tag, error) {
	out := []model.Tag{}
	for _, t := range f.tags {
		if t.UserID == userID && contains(ids, t.ID) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeLabelRepo) CreateIngredient(_ context.Context, ingredient *model.Ingredient) error {
	f.nextID++
	ingredient.ID = f.nextID
	f.ingredients = append(f.ingredients, *ingredient)
	return nil
}

func (f *fakeLabelRepo) ListIngredients(_ context.Context, userID int64, _ repository.LabelFilter) ([]model.Ingredient, error) {
	out := []model.Ingredient{}
	for _, i := range f.ingredients {
		if i.UserID == userID {
			out = append(out, i)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Name > out[b].Name })
	return out, nil
}

func (f *fakeLabelRepo) IngredientsByIDs(_ context.Context, userID int64, ids []int64) ([]model.Ingredient, error) {
	out := []model.Ingredient{}
	for _, i := range f.ingredients {
		if i.UserID == userID && contains(ids, i.ID) {
			out = append(out, i)
		}
	}
	return out, nil
}

type fakeRecipeRepo struct {
	recipes map[int64]*model.Recipe
	nextID  int64
}

func newFakeRecipeRepo() *fakeRecipeRepo {
	return &fakeRecipeRepo{recipes: make(map[int64]*model.Recipe)}
}

func (f *fakeRecipeRepo) CreateRecipe(_ context.Context, recipe *model.Recipe) error {
	f.nextID++
	recipe.ID = f.nextID
	stored := *recipe
	f.recipes[recipe.ID] = &stored
	return nil
}

func (f *fakeRecipeRepo) GetRecipe(_ context.Context, userID, id int64) (*model.Recipe, error) {
	r, ok := f.recipes[id]
	if !ok || r.UserID != userID {
		return nil, apperror.NotFound("recipe", id)
	}
	copied := *r
	return &copied, nil
}

func (f *fakeRecipeRepo) ListRecipes(_ context.Context, userID int64, _ repository.RecipeFilter) ([]model.Recipe, error) {
	out := []model.Recipe{}
	for _, r := range f.recipes {
		if r.UserID == userID {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeRecipeRepo) UpdateRecipe(_ context.Context, recipe *model.Recipe) error {
	r, ok := f.recipes[recipe.ID]
	if !ok || r.UserID != recipe.UserID {
		return apperror.NotFound("recipe", recipe.ID)
	}
	stored := *recipe
	stored.Image = r.Image
	f.recipes[recipe.ID] = &stored
	return nil
}

func (f *fakeRecipeRepo) DeleteRecipe(_ context.Context, userID, id int64) error {
	r, ok := f.recipes[id]
	if !ok || r.UserID != userID {
		return apperror.NotFound("recipe", id)
	}
	delete(f.recipes, id)
	return nil
}

func (f *fakeRecipeRepo) SetRecipeImage(_ context.Context, userID, id int64, image string) (string, error) {
	r, ok := f.recipes[id]
	if !ok || r.UserID != userID {
		return "", apperror.NotFound("recipe", id)
	}
	previous := r.Image
	r.Image = image
	return previous, nil
}

// fakeImageStore keeps saved files in memory.
type fakeImageStore struct {
	mu      sync.Mutex
	files   map[string]string
	deleted []string
}

func newFakeImageStore() *fakeImageStore {
	return &fakeImageStore{files: make(map[string]string)}
}

func (f *fakeImageStore) Save(name string, r io.Reader) error {
	var b strings.Builder
	if _, err := io.Copy(&b, r); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[name] = b.String()
	return nil
}

func (f *fakeImageStore) Delete(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.files, name)
	f.deleted = append(f.deleted, name)
	return nil
}

func contains(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
