package services

import (
	"context"
	"fmt"

	"github.com/anonto42/foodgram/backend/internal/apperrors"
	"github.com/anonto42/foodgram/backend/internal/models"
	"github.com/anonto42/foodgram/backend/internal/repositories"
)

// CollectionService toggles recipes in one of a user's personal sets.
type CollectionService struct {
	store    *repositories.Store
	set      func(*repositories.Store) repositories.CollectionRepository
	name     string
	mediaURL string
}

// NewFavoriteService manages the favorites set.
func NewFavoriteService(store *repositories.Store, mediaURL string) *CollectionService {
	return &CollectionService{
		store:    store,
		set:      func(s *repositories.Store) repositories.CollectionRepository { return s.Favorites },
		name:     "favorites",
		mediaURL: mediaURL,
	}
}

// NewShoppingCartService manages the shopping list set.
func NewShoppingCartService(store *repositories.Store, mediaURL string) *CollectionService {
	return &CollectionService{
		store:    store,
		set:      func(s *repositories.Store) repositories.CollectionRepository { return s.ShoppingList },
		name:     "the shopping list",
		mediaURL: mediaURL,
	}
}

// Add puts the recipe in the user's set. Adding twice is an error.
func (s *CollectionService) Add(ctx context.Context, userID, recipeID uint) (*models.RecipeShortResponse, error) {
	var recipe *models.Recipe
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		var err error
		if recipe, err = tx.Recipes.GetRecipeByID(ctx, recipeID); err != nil {
			return err
		}
		set := s.set(tx)
		in, err := set.Contains(ctx, userID, recipeID)
		if err != nil {
			return err
		}
		if in {
			return apperrors.AlreadyExists(fmt.Sprintf("recipe is already in %s", s.name))
		}
		return set.Add(ctx, userID, recipeID)
	})
	if err != nil {
		return nil, err
	}
	short := models.NewRecipeShortResponse(recipe, s.mediaURL)
	return &short, nil
}

// Remove takes the recipe out of the user's set. Removing a recipe that is
// not in the set is an error.
func (s *CollectionService) Remove(ctx context.Context, userID, recipeID uint) error {
	return s.store.Transaction(ctx, func(tx *repositories.Store) error {
		if _, err := tx.Recipes.GetRecipeByID(ctx, recipeID); err != nil {
			return err
		}
		return s.set(tx).Remove(ctx, userID, recipeID)
	})
}
