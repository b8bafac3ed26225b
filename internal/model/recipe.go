package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tag is a user-owned label that can be attached to any of that user's recipes.
type Tag struct {
	ID     int64  `json:"id"`
	UserID int64  `json:"-"`
	Name   string `json:"name"`
}

func (t Tag) String() string { return t.Name }

// Ingredient is a user-owned ingredient that can be attached to recipes.
type Ingredient struct {
	ID     int64  `json:"id"`
	UserID int64  `json:"-"`
	Name   string `json:"name"`
}

func (i Ingredient) String() string { return i.Name }

// Recipe is a user-owned recipe with its associated tags and ingredients.
//
// Price is fixed-point with two decimal places.
//
// Image holds the path relative to the media root (e.g.
// "uploads/recipe/<uuid>.jpg"), or "" when no image was uploaded.
type Recipe struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"-"`
	Title       string          `json:"title"`
	TimeMinutes int             `json:"timeMinutes"`
	Price       decimal.Decimal `json:"price"`
	Link        string          `json:"link"`
	Image       string          `json:"image"`
	Tags        []Tag           `json:"tags"`
	Ingredients []Ingredient    `json:"ingredients"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func (r Recipe) String() string { return r.Title }

// TagIDs returns the ids of the attached tags, in attachment order.
func (r Recipe) TagIDs() []int64 {
	ids := make([]int64, 0, len(r.Tags))
	for _, t := range r.Tags {
		ids = append(ids, t.ID)
	}
	return ids
}

// IngredientIDs returns the ids of the attached ingredients, in attachment order.
func (r Recipe) IngredientIDs() []int64 {
	ids := make([]int64, 0, len(r.Ingredients))
	for _, i := range r.Ingredients {
		ids = append(ids, i.ID)
	}
	return ids
}
