package repositories

import (
	"context"

	"github.com/anonto42/foodgram/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RecipeFilter narrows a recipe listing. Zero values mean "no filter".
type RecipeFilter struct {
	TagSlugs         []string
	AuthorID         uint
	FavoritedBy      uint
	InShoppingListOf uint
}

// RecipeRepository defines the interface for recipe data operations
type RecipeRepository interface {
	CreateRecipe(ctx context.Context, recipe *models.Recipe) error
	UpdateRecipe(ctx context.Context, id uint, fields map[string]interface{}) error
	DeleteRecipe(ctx context.Context, id uint) error
	GetRecipeByID(ctx context.Context, id uint) (*models.Recipe, error)
	GetRecipes(ctx context.Context, filter RecipeFilter, offset, limit int) ([]models.Recipe, int64, error)
	GetRecipesByAuthor(ctx context.Context, authorID uint, limit int) ([]models.Recipe, error)
	CountByAuthors(ctx context.Context, authorIDs []uint) (map[uint]int64, error)
	ReplaceTags(ctx context.Context, recipeID uint, tagIDs []uint) error
	ReplaceIngredients(ctx context.Context, recipeID uint, lines []models.IngredientAmount) error
}

// recipeTag is a row of the recipe/tag join table.
type recipeTag struct {
	RecipeID uint `gorm:"primaryKey;autoIncrement:false"`
	TagID    uint `gorm:"primaryKey;autoIncrement:false"`
}

func (recipeTag) TableName() string { return "recipe_tags" }

// PostgresRecipeRepository implements RecipeRepository with gorm
type PostgresRecipeRepository struct {
	db *gorm.DB
}

// NewPostgresRecipeRepository creates a new PostgresRecipeRepository
func NewPostgresRecipeRepository(db *gorm.DB) *PostgresRecipeRepository {
	return &PostgresRecipeRepository{db: db}
}

// CreateRecipe inserts the recipe row only; tags and lines are attached separately.
func (r *PostgresRecipeRepository) CreateRecipe(ctx context.Context, recipe *models.Recipe) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(recipe).Error, "", "recipe already exists")
}

func (r *PostgresRecipeRepository) UpdateRecipe(ctx context.Context, id uint, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&models.Recipe{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "recipe not found", "")
	}
	return nil
}

// DeleteRecipe removes the recipe; lines, tag links, favorites and
// shopping list entries go with it through ON DELETE CASCADE.
func (r *PostgresRecipeRepository) DeleteRecipe(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Recipe{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "recipe not found", "")
	}
	return nil
}

func (r *PostgresRecipeRepository) GetRecipeByID(ctx context.Context, id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := preloadRecipe(r.db.WithContext(ctx)).First(&recipe, id).Error; err != nil {
		return nil, translate(err, "recipe not found", "")
	}
	return &recipe, nil
}

// GetRecipes returns a filtered page of recipes, newest first, and the total match count.
func (r *PostgresRecipeRepository) GetRecipes(ctx context.Context, filter RecipeFilter, offset, limit int) ([]models.Recipe, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Recipe{})

	if len(filter.TagSlugs) > 0 {
		tagged := r.db.Table("recipe_tags").
			Select("recipe_tags.recipe_id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", filter.TagSlugs)
		q = q.Where("recipes.id IN (?)", tagged)
	}
	if filter.AuthorID != 0 {
		q = q.Where("recipes.author_id = ?", filter.AuthorID)
	}
	if filter.FavoritedBy != 0 {
		q = q.Where("recipes.id IN (?)",
			r.db.Model(&models.Favorite{}).Select("recipe_id").Where("user_id = ?", filter.FavoritedBy))
	}
	if filter.InShoppingListOf != 0 {
		q = q.Where("recipes.id IN (?)",
			r.db.Model(&models.ShoppingListEntry{}).Select("recipe_id").Where("user_id = ?", filter.InShoppingListOf))
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset, limit = pageBounds(offset, limit)
	var recipes []models.Recipe
	err := preloadRecipe(q).
		Order("recipes.pub_date DESC").Order("recipes.id DESC").
		Offset(offset).Limit(limit).
		Find(&recipes).Error
	return recipes, total, err
}

// GetRecipesByAuthor returns up to limit of the author's newest recipes; limit <= 0 returns all.
func (r *PostgresRecipeRepository) GetRecipesByAuthor(ctx context.Context, authorID uint, limit int) ([]models.Recipe, error) {
	_, limit = pageBounds(0, limit)
	var recipes []models.Recipe
	err := r.db.WithContext(ctx).
		Where("author_id = ?", authorID).
		Order("pub_date DESC").Order("id DESC").
		Limit(limit).
		Find(&recipes).Error
	return recipes, err
}

func (r *PostgresRecipeRepository) CountByAuthors(ctx context.Context, authorIDs []uint) (map[uint]int64, error) {
	result := make(map[uint]int64)
	if len(authorIDs) == 0 {
		return result, nil
	}
	var rows []struct {
		AuthorID uint
		Total    int64
	}
	err := r.db.WithContext(ctx).Model(&models.Recipe{}).
		Select("author_id, COUNT(*) AS total").
		Where("author_id IN ?", authorIDs).
		Group("author_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.AuthorID] = row.Total
	}
	return result, nil
}

// ReplaceTags sets the recipe's tag set to exactly tagIDs.
func (r *PostgresRecipeRepository) ReplaceTags(ctx context.Context, recipeID uint, tagIDs []uint) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("recipe_id = ?", recipeID).Delete(&recipeTag{}).Error; err != nil {
		return err
	}
	if len(tagIDs) == 0 {
		return nil
	}
	rows := make([]recipeTag, 0, len(tagIDs))
	for _, id := range tagIDs {
		rows = append(rows, recipeTag{RecipeID: recipeID, TagID: id})
	}
	return translate(db.Create(&rows).Error, "", "duplicate tag in recipe")
}

// ReplaceIngredients sets the recipe's ingredient lines to exactly lines.
func (r *PostgresRecipeRepository) ReplaceIngredients(ctx context.Context, recipeID uint, lines []models.IngredientAmount) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("recipe_id = ?", recipeID).Delete(&models.IngredientAmount{}).Error; err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}
	for i := range lines {
		lines[i].ID = 0
		lines[i].RecipeID = recipeID
	}
	return translate(db.Omit(clause.Associations).Create(&lines).Error, "", "duplicate ingredient in recipe")
}

func preloadRecipe(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.name") }).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("ingredient_amounts.id") }).
		Preload("Ingredients.Ingredient")
}
