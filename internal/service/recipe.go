package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/sakif/recipe-api/internal/apperror"
	"github.com/sakif/recipe-api/internal/model"
	"github.com/sakif/recipe-api/internal/repository"
)

const (
	MaxTitleLength = 255
	MaxLinkLength  = 255

	// Prices carry two decimal places and at most five digits overall.
	PriceDecimalPlaces = 2
	PriceMaxDigits     = 5
)

var maxPrice = decimal.New(1, PriceMaxDigits-PriceDecimalPlaces) // 1000

// ImageStore is where uploaded recipe images are written. *storage.Store
// satisfies it.
type ImageStore interface {
	Save(name string, r io.Reader) error
	Delete(name string) error
}

// RecipeInput carries the writable recipe fields. A nil field was not
// supplied by the caller: Create and Update reject a missing title,
// time_minutes or price, Patch leaves missing fields unchanged.
type RecipeInput struct {
	Title         *string
	TimeMinutes   *int
	Price         *decimal.Decimal
	Link          *string
	TagIDs        *[]int64
	IngredientIDs *[]int64
}

// RecipeService holds the recipe rules: ownership of every linked tag and
// ingredient, field validation and image replacement.
type RecipeService struct {
	recipes     repository.RecipeRepository
	tags        repository.TagRepository
	ingredients repository.IngredientRepository
	images      ImageStore
	logger      *slog.Logger
}

func NewRecipeService(
	recipes repository.RecipeRepository,
	tags repository.TagRepository,
	ingredients repository.IngredientRepository,
	images ImageStore,
	logger *slog.Logger,
) *RecipeService {
	return &RecipeService{
		recipes:     recipes,
		tags:        tags,
		ingredients: ingredients,
		images:      images,
		logger:      logger,
	}
}

// List returns the user's recipes, highest id first.
func (s *RecipeService) List(ctx context.Context, userID int64, filter repository.RecipeFilter) ([]model.Recipe, error) {
	return s.recipes.ListRecipes(ctx, userID, filter)
}

// Get returns one of the user's recipes. Another user's recipe is reported
// as not found.
func (s *RecipeService) Get(ctx context.Context, userID, id int64) (*model.Recipe, error) {
	return s.recipes.GetRecipe(ctx, userID, id)
}

func (s *RecipeService) Create(ctx context.Context, userID int64, in RecipeInput) (*model.Recipe, error) {
	if err := in.requireAll(); err != nil {
		return nil, err
	}

	recipe := &model.Recipe{UserID: userID}
	if err := s.apply(ctx, recipe, in); err != nil {
		return nil, err
	}

	if err := s.recipes.CreateRecipe(ctx, recipe); err != nil {
		s.logger.Error("failed to create recipe",
			slog.Int64("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating recipe: %w", err)
	}

	s.logger.Info("recipe created",
		slog.Int64("id", recipe.ID),
		slog.Int64("userID", userID),
		slog.String("title", recipe.Title),
	)
	return recipe, nil
}

// Update replaces every writable field. Omitted tag or ingredient lists
// clear the links; an omitted link clears the URL.
func (s *RecipeService) Update(ctx context.Context, userID, id int64, in RecipeInput) (*model.Recipe, error) {
	if err := in.requireAll(); err != nil {
		return nil, err
	}
	empty := []int64{}
	blank := ""
	if in.TagIDs == nil {
		in.TagIDs = &empty
	}
	if in.IngredientIDs == nil {
		in.IngredientIDs = &empty
	}
	if in.Link == nil {
		in.Link = &blank
	}
	return s.update(ctx, userID, id, in)
}

// Patch changes only the supplied fields.
func (s *RecipeService) Patch(ctx context.Context, userID, id int64, in RecipeInput) (*model.Recipe, error) {
	return s.update(ctx, userID, id, in)
}

func (s *RecipeService) update(ctx context.Context, userID, id int64, in RecipeInput) (*model.Recipe, error) {
	recipe, err := s.recipes.GetRecipe(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, recipe, in); err != nil {
		return nil, err
	}

	if err := s.recipes.UpdateRecipe(ctx, recipe); err != nil {
		return nil, fmt.Errorf("updating recipe %d: %w", id, err)
	}

	s.logger.Info("recipe updated", slog.Int64("id", id), slog.Int64("userID", userID))
	return recipe, nil
}

func (s *RecipeService) Delete(ctx context.Context, userID, id int64) error {
	recipe, err := s.recipes.GetRecipe(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.recipes.DeleteRecipe(ctx, userID, id); err != nil {
		return fmt.Errorf("deleting recipe %d: %w", id, err)
	}
	s.removeImage(recipe.Image)

	s.logger.Info("recipe deleted", slog.Int64("id", id), slog.Int64("userID", userID))
	return nil
}

// UploadImage stores r as the recipe's image, replacing and removing any
// previous one. The content must sniff as an accepted image type and the
// filename extension, when present, must be one of model.ImageExtensions; a
// filename without one gets the extension of the sniffed type.
func (s *RecipeService) UploadImage(ctx context.Context, userID, id int64, filename string, r io.Reader) (*model.Recipe, error) {
	recipe, err := s.recipes.GetRecipe(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	head = head[:n]
	if n == 0 {
		return nil, apperror.ValidationFailed("image", "the submitted file is empty")
	}
	sniffed, ok := model.ExtensionForContentType(http.DetectContentType(head))
	if !ok {
		return nil, apperror.ValidationFailed("image",
			"upload a valid image. The file you uploaded was either not an image or a corrupted image")
	}

	switch ext := model.ImageExtension(filename); {
	case ext == "":
		filename += "." + sniffed
	case !model.AllowedImageExtension(ext):
		return nil, apperror.ValidationFailed("image", fmt.Sprintf(
			"file extension %q is not allowed. Allowed extensions are: %s",
			ext, strings.Join(model.ImageExtensions, ", ")))
	}

	name := model.RecipeImageFilePath(recipe, filename)
	if err := s.images.Save(name, io.MultiReader(bytes.NewReader(head), r)); err != nil {
		return nil, fmt.Errorf("saving image for recipe %d: %w", id, err)
	}

	// The previous image comes back from the same write that replaces it, so
	// two concurrent uploads each remove exactly the file they displaced.
	previous, err := s.recipes.SetRecipeImage(ctx, userID, id, name)
	if err != nil {
		s.removeImage(name)
		return nil, fmt.Errorf("recording image for recipe %d: %w", id, err)
	}
	s.removeImage(previous)
	recipe.Image = name

	s.logger.Info("recipe image uploaded",
		slog.Int64("id", id),
		slog.String("image", name),
	)
	return recipe, nil
}

func (s *RecipeService) removeImage(name string) {
	if name == "" {
		return
	}
	if err := s.images.Delete(name); err != nil {
		s.logger.Warn("failed to remove image",
			slog.String("image", name),
			slog.String("error", err.Error()),
		)
	}
}

func (in RecipeInput) requireAll() error {
	switch {
	case in.Title == nil:
		return apperror.ValidationFailed("title", "title is required")
	case in.TimeMinutes == nil:
		return apperror.ValidationFailed("time_minutes", "time_minutes is required")
	case in.Price == nil:
		return apperror.ValidationFailed("price", "price is required")
	}
	return nil
}

// apply validates the supplied fields and copies them onto recipe.
func (s *RecipeService) apply(ctx context.Context, recipe *model.Recipe, in RecipeInput) error {
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return apperror.ValidationFailed("title", "title is required")
		}
		if utf8.RuneCountInString(title) > MaxTitleLength {
			return apperror.ValidationFailed("title",
				fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
		}
		recipe.Title = title
	}

	if in.TimeMinutes != nil {
		if *in.TimeMinutes < 0 {
			return apperror.ValidationFailed("time_minutes", "time_minutes must not be negative")
		}
		recipe.TimeMinutes = *in.TimeMinutes
	}

	if in.Price != nil {
		if err := validatePrice(*in.Price); err != nil {
			return err
		}
		recipe.Price = *in.Price
	}

	if in.Link != nil {
		link := strings.TrimSpace(*in.Link)
		if utf8.RuneCountInString(link) > MaxLinkLength {
			return apperror.ValidationFailed("link",
				fmt.Sprintf("link must be %d characters or less", MaxLinkLength))
		}
		recipe.Link = link
	}

	if in.TagIDs != nil {
		tags, err := s.tags.TagsByIDs(ctx, recipe.UserID, uniqueIDs(*in.TagIDs))
		if err != nil {
			return fmt.Errorf("loading tags: %w", err)
		}
		if missing, ok := firstMissing(*in.TagIDs, tagIDs(tags)); ok {
			return apperror.ValidationFailed("tags",
				fmt.Sprintf("invalid pk %q - object does not exist", fmt.Sprint(missing)))
		}
		recipe.Tags = tags
	}

	if in.IngredientIDs != nil {
		ingredients, err := s.ingredients.IngredientsByIDs(ctx, recipe.UserID, uniqueIDs(*in.IngredientIDs))
		if err != nil {
			return fmt.Errorf("loading ingredients: %w", err)
		}
		if missing, ok := firstMissing(*in.IngredientIDs, ingredientIDs(ingredients)); ok {
			return apperror.ValidationFailed("ingredients",
				fmt.Sprintf("invalid pk %q - object does not exist", fmt.Sprint(missing)))
		}
		recipe.Ingredients = ingredients
	}

	return nil
}

func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return apperror.ValidationFailed("price", "price must not be negative")
	}
	if !price.Equal(price.Truncate(PriceDecimalPlaces)) {
		return apperror.ValidationFailed("price",
			fmt.Sprintf("ensure that there are no more than %d decimal places", PriceDecimalPlaces))
	}
	if price.GreaterThanOrEqual(maxPrice) {
		return apperror.ValidationFailed("price",
			fmt.Sprintf("ensure that there are no more than %d digits in total", PriceMaxDigits))
	}
	return nil
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// firstMissing returns the first id in want that is not in have.
func firstMissing(want, have []int64) (int64, bool) {
	found := make(map[int64]bool, len(have))
	for _, id := range have {
		found[id] = true
	}
	for _, id := range want {
		if !found[id] {
			return id, true
		}
	}
	return 0, false
}

func tagIDs(tags []model.Tag) []int64 {
	return model.Recipe{Tags: tags}.TagIDs()
}

func ingredientIDs(ingredients []model.Ingredient) []int64 {
	return model.Recipe{Ingredients: ingredients}.IngredientIDs()
}
