package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/sakif/recipe-api/internal/apperror"
	"github.com/sakif/recipe-api/internal/auth"
	"github.com/sakif/recipe-api/internal/model"
	"github.com/sakif/recipe-api/internal/repository"
	"github.com/sakif/recipe-api/internal/serializer"
	"github.com/sakif/recipe-api/internal/service"
)

const (
	// maxImageUpload caps the size of an uploaded image file.
	maxImageUpload = 10 << 20
	// maxUploadBody caps the whole multipart request. The headroom covers
	// part headers, boundaries and small extra fields, so a file right at
	// maxImageUpload still fits.
	maxUploadBody = maxImageUpload + 1<<20
)

// RecipeHandler serves /api/recipe/recipes/. Every route sits behind
// auth.RequireAuth, so the user is always in the request context.
type RecipeHandler struct {
	recipes  *service.RecipeService
	mediaURL serializer.URLFunc
	logger   *slog.Logger
}

func NewRecipeHandler(recipes *service.RecipeService, mediaURL serializer.URLFunc, logger *slog.Logger) *RecipeHandler {
	return &RecipeHandler{
		recipes:  recipes,
		mediaURL: mediaURL,
		logger:   logger,
	}
}

// recipeRequest is the JSON body for create, update and patch. Pointer fields
// distinguish "not sent" from a zero value.
type recipeRequest struct {
	Title       *string          `json:"title"`
	TimeMinutes *int             `json:"time_minutes"`
	Price       *decimal.Decimal `json:"price"`
	Link        *string          `json:"link"`
	Tags        *[]int64         `json:"tags"`
	Ingredients *[]int64         `json:"ingredients"`
}

func (req recipeRequest) input() service.RecipeInput {
	return service.RecipeInput{
		Title:         req.Title,
		TimeMinutes:   req.TimeMinutes,
		Price:         req.Price,
		Link:          req.Link,
		TagIDs:        req.Tags,
		IngredientIDs: req.Ingredients,
	}
}

// HandleList returns the caller's recipes in list form, newest first.
//
// HTTP: GET /api/recipe/recipes/?tags=1,2&ingredients=3
func (h *RecipeHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	tagIDs, err := queryIDs(r, "tags")
	if err != nil {
		writeError(w, err)
		return
	}
	ingredientIDs, err := queryIDs(r, "ingredients")
	if err != nil {
		writeError(w, err)
		return
	}

	recipes, err := h.recipes.List(r.Context(), userID, repository.RecipeFilter{
		TagIDs:        tagIDs,
		IngredientIDs: ingredientIDs,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, serializer.NewRecipeLists(recipes, h.mediaURL))
}

// HTTP: GET /api/recipe/recipes/{id}/
func (h *RecipeHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	id, err := pathID(r, "recipe")
	if err != nil {
		writeError(w, err)
		return
	}

	recipe, err := h.recipes.Get(r.Context(), userID, id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, serializer.NewRecipeDetail(*recipe, h.mediaURL))
}

// HTTP: POST /api/recipe/recipes/
func (h *RecipeHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req recipeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.Warn("invalid recipe JSON", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	recipe, err := h.recipes.Create(r.Context(), userID, req.input())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, serializer.NewRecipeDetail(*recipe, h.mediaURL))
}

// HTTP: PUT /api/recipe/recipes/{id}/
func (h *RecipeHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, h.recipes.Update)
}

// HTTP: PATCH /api/recipe/recipes/{id}/
func (h *RecipeHandler) HandlePatch(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, h.recipes.Patch)
}

type updateFunc func(ctx context.Context, userID, id int64, in service.RecipeInput) (*model.Recipe, error)

func (h *RecipeHandler) update(w http.ResponseWriter, r *http.Request, apply updateFunc) {
	userID, _ := auth.UserIDFromContext(r.Context())
	id, err := pathID(r, "recipe")
	if err != nil {
		writeError(w, err)
		return
	}

	var req recipeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.Warn("invalid recipe JSON", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	recipe, err := apply(r.Context(), userID, id, req.input())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, serializer.NewRecipeDetail(*recipe, h.mediaURL))
}

// HTTP: DELETE /api/recipe/recipes/{id}/
func (h *RecipeHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	id, err := pathID(r, "recipe")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.recipes.Delete(r.Context(), userID, id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleUploadImage stores the multipart "image" field as the recipe's image.
//
// HTTP: POST /api/recipe/recipes/{id}/upload-image/
func (h *RecipeHandler) HandleUploadImage(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	id, err := pathID(r, "recipe")
	if err != nil {
		writeError(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	if err := r.ParseMultipartForm(maxImageUpload); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) || r.ContentLength > maxUploadBody {
			writeError(w, imageTooLarge())
			return
		}
		h.logger.Warn("invalid image upload", slog.String("error", err.Error()))
		writeError(w, apperror.ValidationFailed("image", "the submitted data was not a file"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, apperror.ValidationFailed("image", "no file was submitted"))
		return
	}
	defer file.Close()

	if header.Size > maxImageUpload {
		writeError(w, imageTooLarge())
		return
	}

	recipe, err := h.recipes.UploadImage(r.Context(), userID, id, header.Filename, file)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, serializer.NewRecipeImage(*recipe, h.mediaURL))
}

func imageTooLarge() error {
	return apperror.TooLarge("image", fmt.Sprintf("the image must not be larger than %d MiB", maxImageUpload>>20))
}
