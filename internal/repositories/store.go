package repositories

import (
	"context"
	"errors"

	"github.com/anonto42/foodgram/backend/internal/apperrors"
	"github.com/anonto42/foodgram/backend/internal/models"
	"gorm.io/gorm"
)

// Store bundles the repositories over one connection or transaction.
type Store struct {
	db           *gorm.DB
	Users        UserRepository
	Tags         TagRepository
	Ingredients  IngredientRepository
	Recipes      RecipeRepository
	Favorites    CollectionRepository
	ShoppingList ShoppingListRepository
	Follows      FollowRepository
}

// NewStore creates a Store backed by db.
func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:           db,
		Users:        NewPostgresUserRepository(db),
		Tags:         NewPostgresTagRepository(db),
		Ingredients:  NewPostgresIngredientRepository(db),
		Recipes:      NewPostgresRecipeRepository(db),
		Favorites:    NewPostgresFavoriteRepository(db),
		ShoppingList: NewPostgresShoppingListRepository(db),
		Follows:      NewPostgresFollowRepository(db),
	}
}

// Transaction runs fn with a Store bound to a single database transaction.
// The transaction is rolled back when fn returns an error.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

// AutoMigrate creates or updates every table, index and constraint.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Tag{},
		&models.Ingredient{},
		&models.Recipe{},
		&models.IngredientAmount{},
		&models.Favorite{},
		&models.ShoppingListEntry{},
		&models.Follow{},
	)
}

// translate maps gorm errors to domain errors.
func translate(err error, notFoundMsg, duplicateMsg string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperrors.NotFound(notFoundMsg).WithCause(err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperrors.AlreadyExists(duplicateMsg).WithCause(err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return apperrors.NotFound("referenced record not found").WithCause(err)
	default:
		return err
	}
}

func pageBounds(offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = -1 // gorm: no limit
	}
	return offset, limit
}
