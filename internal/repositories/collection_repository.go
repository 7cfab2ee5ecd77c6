package repositories

import (
	"context"

	"github.com/anonto42/foodgram/backend/internal/apperrors"
	"github.com/anonto42/foodgram/backend/internal/models"
	"gorm.io/gorm"
)

// CollectionRepository stores a per-user set of recipes.
type CollectionRepository interface {
	Add(ctx context.Context, userID, recipeID uint) error
	Remove(ctx context.Context, userID, recipeID uint) error
	Contains(ctx context.Context, userID, recipeID uint) (bool, error)
	// RecipeIDs reports which of recipeIDs are in the user's set.
	RecipeIDs(ctx context.Context, userID uint, recipeIDs []uint) (map[uint]bool, error)
}

// ShoppingListRepository is the shopping list set plus its aggregate.
type ShoppingListRepository interface {
	CollectionRepository
	Aggregate(ctx context.Context, userID uint) ([]models.ShoppingItem, error)
}

// PostgresCollectionRepository implements CollectionRepository over a
// (user_id, recipe_id) table modelled by T.
type PostgresCollectionRepository[T any] struct {
	db           *gorm.DB
	newRow       func(userID, recipeID uint) *T
	duplicateMsg string
	missingMsg   string
}

func NewPostgresFavoriteRepository(db *gorm.DB) *PostgresCollectionRepository[models.Favorite] {
	return &PostgresCollectionRepository[models.Favorite]{
		db: db,
		newRow: func(userID, recipeID uint) *models.Favorite {
			return &models.Favorite{UserID: userID, RecipeID: recipeID}
		},
		duplicateMsg: "recipe is already in favorites",
		missingMsg:   "recipe is not in favorites",
	}
}

func (r *PostgresCollectionRepository[T]) Add(ctx context.Context, userID, recipeID uint) error {
	return translate(r.db.WithContext(ctx).Create(r.newRow(userID, recipeID)).Error, "", r.duplicateMsg)
}

func (r *PostgresCollectionRepository[T]) Remove(ctx context.Context, userID, recipeID uint) error {
	res := r.db.WithContext(ctx).Where("user_id = ? AND recipe_id = ?", userID, recipeID).Delete(new(T))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.Conflict(r.missingMsg)
	}
	return nil
}

func (r *PostgresCollectionRepository[T]) Contains(ctx context.Context, userID, recipeID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(new(T)).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&count).Error
	return count > 0, err
}

func (r *PostgresCollectionRepository[T]) RecipeIDs(ctx context.Context, userID uint, recipeIDs []uint) (map[uint]bool, error) {
	result := make(map[uint]bool)
	if userID == 0 || len(recipeIDs) == 0 {
		return result, nil
	}
	var ids []uint
	err := r.db.WithContext(ctx).Model(new(T)).
		Where("user_id = ? AND recipe_id IN ?", userID, recipeIDs).
		Pluck("recipe_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		result[id] = true
	}
	return result, nil
}

// PostgresShoppingListRepository implements ShoppingListRepository.
type PostgresShoppingListRepository struct {
	*PostgresCollectionRepository[models.ShoppingListEntry]
}

func NewPostgresShoppingListRepository(db *gorm.DB) *PostgresShoppingListRepository {
	return &PostgresShoppingListRepository{
		PostgresCollectionRepository: &PostgresCollectionRepository[models.ShoppingListEntry]{
			db: db,
			newRow: func(userID, recipeID uint) *models.ShoppingListEntry {
				return &models.ShoppingListEntry{UserID: userID, RecipeID: recipeID}
			},
			duplicateMsg: "recipe is already in the shopping list",
			missingMsg:   "recipe is not in the shopping list",
		},
	}
}

// Aggregate sums the ingredient amounts of every recipe in the user's
// shopping list, grouped by ingredient name and unit and ordered by name.
func (r *PostgresShoppingListRepository) Aggregate(ctx context.Context, userID uint) ([]models.ShoppingItem, error) {
	items := []models.ShoppingItem{}
	err := r.db.WithContext(ctx).
		Table("shopping_list_entries AS s").
		Select("i.name AS name, i.measurement_unit AS measurement_unit, SUM(ia.amount) AS total").
		Joins("JOIN ingredient_amounts AS ia ON ia.recipe_id = s.recipe_id").
		Joins("JOIN ingredients AS i ON i.id = ia.ingredient_id").
		Where("s.user_id = ?", userID).
		Group("i.name, i.measurement_unit").
		Order("i.name, i.measurement_unit").
		Scan(&items).Error
	return items, err
}
