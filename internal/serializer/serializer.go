// Package serializer maps domain models onto the JSON shapes the API returns.
//
// Recipes have two shapes. The list form refers to tags and ingredients by
// id; the detail form embeds them as {id, name} objects. Prices are always
// strings with two decimal places and images are absolute media URLs or null.
package serializer

import (
	"sort"

	"github.com/sakif/recipe-api/internal/model"
)

// URLFunc turns a stored media path into a public URL.
type URLFunc func(name string) string

type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Ingredient struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// RecipeList is the list-form recipe.
type RecipeList struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Ingredients []int64 `json:"ingredients"`
	Tags        []int64 `json:"tags"`
	TimeMinutes int     `json:"time_minutes"`
	Price       string  `json:"price"`
	Link        string  `json:"link"`
	Image       *string `json:"image"`
}

// RecipeDetail is the detail-form recipe.
type RecipeDetail struct {
	ID          int64        `json:"id"`
	Title       string       `json:"title"`
	Ingredients []Ingredient `json:"ingredients"`
	Tags        []Tag        `json:"tags"`
	TimeMinutes int          `json:"time_minutes"`
	Price       string       `json:"price"`
	Link        string       `json:"link"`
	Image       *string      `json:"image"`
}

// RecipeImage is the upload-image response.
type RecipeImage struct {
	ID    int64   `json:"id"`
	Image *string `json:"image"`
}

type User struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type Token struct {
	Token string `json:"token"`
}

func NewTag(t model.Tag) Tag {
	return Tag{ID: t.ID, Name: t.Name}
}

func NewTags(tags []model.Tag) []Tag {
	out := make([]Tag, 0, len(tags))
	for _, t := range tags {
		out = append(out, NewTag(t))
	}
	return out
}

func NewIngredient(i model.Ingredient) Ingredient {
	return Ingredient{ID: i.ID, Name: i.Name}
}

func NewIngredients(ingredients []model.Ingredient) []Ingredient {
	out := make([]Ingredient, 0, len(ingredients))
	for _, i := range ingredients {
		out = append(out, NewIngredient(i))
	}
	return out
}

func NewRecipeList(r model.Recipe, url URLFunc) RecipeList {
	tagIDs := r.TagIDs()
	ingredientIDs := r.IngredientIDs()
	sortIDs(tagIDs)
	sortIDs(ingredientIDs)

	return RecipeList{
		ID:          r.ID,
		Title:       r.Title,
		Ingredients: ingredientIDs,
		Tags:        tagIDs,
		TimeMinutes: r.TimeMinutes,
		Price:       r.Price.StringFixed(2),
		Link:        r.Link,
		Image:       imageURL(r.Image, url),
	}
}

func NewRecipeLists(recipes []model.Recipe, url URLFunc) []RecipeList {
	out := make([]RecipeList, 0, len(recipes))
	for _, r := range recipes {
		out = append(out, NewRecipeList(r, url))
	}
	return out
}

func NewRecipeDetail(r model.Recipe, url URLFunc) RecipeDetail {
	tags := NewTags(r.Tags)
	ingredients := NewIngredients(r.Ingredients)
	sort.Slice(tags, func(i, j int) bool { return tags[i].ID < tags[j].ID })
	sort.Slice(ingredients, func(i, j int) bool { return ingredients[i].ID < ingredients[j].ID })

	return RecipeDetail{
		ID:          r.ID,
		Title:       r.Title,
		Ingredients: ingredients,
		Tags:        tags,
		TimeMinutes: r.TimeMinutes,
		Price:       r.Price.StringFixed(2),
		Link:        r.Link,
		Image:       imageURL(r.Image, url),
	}
}

func NewRecipeImage(r model.Recipe, url URLFunc) RecipeImage {
	return RecipeImage{ID: r.ID, Image: imageURL(r.Image, url)}
}

func NewUser(u model.User) User {
	return User{Email: u.Email, Name: u.Name}
}

func imageURL(name string, url URLFunc) *string {
	if name == "" {
		return nil
	}
	s := url(name)
	return &s
}

func sortIDs(ids []int64) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
