package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/recipe-api/internal/auth"
	"github.com/sakif/recipe-api/internal/serializer"
	"github.com/sakif/recipe-api/internal/service"
)

type labelRequest struct {
	Name string `json:"name"`
}

// TagHandler serves /api/recipe/tags/.
type TagHandler struct {
	tags   *service.TagService
	logger *slog.Logger
}

func NewTagHandler(tags *service.TagService, logger *slog.Logger) *TagHandler {
	return &TagHandler{tags: tags, logger: logger}
}

// HTTP: GET /api/recipe/tags/?assigned_only=1
func (h *TagHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	assignedOnly, err := queryFlag(r, "assigned_only")
	if err != nil {
		writeError(w, err)
		return
	}

	tags, err := h.tags.List(r.Context(), userID, assignedOnly)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, serializer.NewTags(tags))
}

// HTTP: POST /api/recipe/tags/
func (h *TagHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req labelRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.Warn("invalid tag JSON", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	tag, err := h.tags.Create(r.Context(), userID, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, serializer.NewTag(*tag))
}

// IngredientHandler serves /api/recipe/ingredients/.
type IngredientHandler struct {
	ingredients *service.IngredientService
	logger      *slog.Logger
}

func NewIngredientHandler(ingredients *service.IngredientService, logger *slog.Logger) *IngredientHandler {
	return &IngredientHandler{ingredients: ingredients, logger: logger}
}

// HTTP: GET /api/recipe/ingredients/?assigned_only=1
func (h *IngredientHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())
	assignedOnly, err := queryFlag(r, "assigned_only")
	if err != nil {
		writeError(w, err)
		return
	}

	ingredients, err := h.ingredients.List(r.Context(), userID, assignedOnly)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, serializer.NewIngredients(ingredients))
}

// HTTP: POST /api/recipe/ingredients/
func (h *IngredientHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req labelRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.Warn("invalid ingredient JSON", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	ingredient, err := h.ingredients.Create(r.Context(), userID, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, serializer.NewIngredient(*ingredient))
}
