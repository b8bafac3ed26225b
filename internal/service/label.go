package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sakif/recipe-api/internal/apperror"
	"github.com/sakif/recipe-api/internal/model"
	"github.com/sakif/recipe-api/internal/repository"
)

const MaxLabelNameLength = 255

func validateLabelName(kind, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperror.ValidationFailed("name", kind+" name is required")
	}
	if utf8.RuneCountInString(name) > MaxLabelNameLength {
		return "", apperror.ValidationFailed("name",
			fmt.Sprintf("%s name must be %d characters or less", kind, MaxLabelNameLength))
	}
	return name, nil
}

// TagService manages the caller's tags.
type TagService struct {
	repo   repository.TagRepository
	logger *slog.Logger
}

func NewTagService(repo repository.TagRepository, logger *slog.Logger) *TagService {
	return &TagService{repo: repo, logger: logger}
}

// List returns the user's tags ordered by name descending. With assignedOnly
// only tags attached to at least one recipe are returned.
func (s *TagService) List(ctx context.Context, userID int64, assignedOnly bool) ([]model.Tag, error) {
	return s.repo.ListTags(ctx, userID, repository.LabelFilter{AssignedOnly: assignedOnly})
}

func (s *TagService) Create(ctx context.Context, userID int64, name string) (*model.Tag, error) {
	name, err := validateLabelName("tag", name)
	if err != nil {
		return nil, err
	}

	tag := &model.Tag{UserID: userID, Name: name}
	if err := s.repo.CreateTag(ctx, tag); err != nil {
		return nil, fmt.Errorf("creating tag: %w", err)
	}

	s.logger.Info("tag created", slog.Int64("id", tag.ID), slog.Int64("userID", userID))
	return tag, nil
}

// IngredientService manages the caller's ingredients.
type IngredientService struct {
	repo   repository.IngredientRepository
	logger *slog.Logger
}

func NewIngredientService(repo repository.IngredientRepository, logger *slog.Logger) *IngredientService {
	return &IngredientService{repo: repo, logger: logger}
}

func (s *IngredientService) List(ctx context.Context, userID int64, assignedOnly bool) ([]model.Ingredient, error) {
	return s.repo.ListIngredients(ctx, userID, repository.LabelFilter{AssignedOnly: assignedOnly})
}

func (s *IngredientService) Create(ctx context.Context, userID int64, name string) (*model.Ingredient, error) {
	name, err := validateLabelName("ingredient", name)
	if err != nil {
		return nil, err
	}

	ingredient := &model.Ingredient{UserID: userID, Name: name}
	if err := s.repo.CreateIngredient(ctx, ingredient); err != nil {
		return nil, fmt.Errorf("creating ingredient: %w", err)
	}

	s.logger.Info("ingredient created", slog.Int64("id", ingredient.ID), slog.Int64("userID", userID))
	return ingredient, nil
}
