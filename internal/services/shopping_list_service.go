package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/anonto42/foodgram/backend/internal/apperrors"
	"github.com/anonto42/foodgram/backend/internal/models"
	"github.com/anonto42/foodgram/backend/internal/repositories"
)

// ErrShoppingListEmpty is returned when there is nothing to aggregate.
var ErrShoppingListEmpty = apperrors.Empty("shopping list is empty")

type ShoppingListService struct {
	store *repositories.Store
}

func NewShoppingListService(store *repositories.Store) *ShoppingListService {
	return &ShoppingListService{store: store}
}

// Aggregate totals the ingredients of every recipe in the user's shopping
// list by (name, unit), ordered by name.
func (s *ShoppingListService) Aggregate(ctx context.Context, userID uint) ([]models.ShoppingItem, error) {
	items, err := s.store.ShoppingList.Aggregate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrShoppingListEmpty
	}
	return items, nil
}

// RenderText renders one "name (unit)" line per item followed by its total.
func RenderText(items []models.ShoppingItem) string {
	var b strings.Builder
	for _, item := range items {
		fmt.Fprintf(&b, "%s (%s) — %d\n", item.Name, item.MeasurementUnit, item.Total)
	}
	return b.String()
}
