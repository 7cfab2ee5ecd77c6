package repositories

import (
	"context"
	"strings"

	"github.com/anonto42/foodgram/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TagRepository reads tag reference data.
type TagRepository interface {
	GetTags(ctx context.Context) ([]models.Tag, error)
	GetTagByID(ctx context.Context, id uint) (*models.Tag, error)
	GetTagsByIDs(ctx context.Context, ids []uint) ([]models.Tag, error)
	// InsertMissing inserts tags that do not exist yet and returns how many were added.
	InsertMissing(ctx context.Context, tags []models.Tag) (int64, error)
}

// IngredientRepository reads ingredient reference data.
type IngredientRepository interface {
	GetIngredients(ctx context.Context, namePrefix string) ([]models.Ingredient, error)
	GetIngredientByID(ctx context.Context, id uint) (*models.Ingredient, error)
	GetIngredientsByIDs(ctx context.Context, ids []uint) ([]models.Ingredient, error)
	InsertMissing(ctx context.Context, ingredients []models.Ingredient) (int64, error)
}

type PostgresTagRepository struct {
	db *gorm.DB
}

func NewPostgresTagRepository(db *gorm.DB) *PostgresTagRepository {
	return &PostgresTagRepository{db: db}
}

func (r *PostgresTagRepository) GetTags(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	err := r.db.WithContext(ctx).Order("name").Find(&tags).Error
	return tags, err
}

func (r *PostgresTagRepository) GetTagByID(ctx context.Context, id uint) (*models.Tag, error) {
	var tag models.Tag
	if err := r.db.WithContext(ctx).First(&tag, id).Error; err != nil {
		return nil, translate(err, "tag not found", "")
	}
	return &tag, nil
}

func (r *PostgresTagRepository) GetTagsByIDs(ctx context.Context, ids []uint) ([]models.Tag, error) {
	var tags []models.Tag
	if len(ids) == 0 {
		return tags, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("name").Find(&tags).Error
	return tags, err
}

func (r *PostgresTagRepository) InsertMissing(ctx context.Context, tags []models.Tag) (int64, error) {
	if len(tags) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&tags)
	return res.RowsAffected, res.Error
}

type PostgresIngredientRepository struct {
	db *gorm.DB
}

func NewPostgresIngredientRepository(db *gorm.DB) *PostgresIngredientRepository {
	return &PostgresIngredientRepository{db: db}
}

// GetIngredients returns ingredients whose name starts with namePrefix, case-insensitively.
func (r *PostgresIngredientRepository) GetIngredients(ctx context.Context, namePrefix string) ([]models.Ingredient, error) {
	q := r.db.WithContext(ctx).Order("name").Order("measurement_unit")
	if prefix := strings.TrimSpace(namePrefix); prefix != "" {
		q = q.Where("LOWER(name) LIKE ? ESCAPE '\\'", escapeLike(strings.ToLower(prefix))+"%")
	}
	var ingredients []models.Ingredient
	err := q.Find(&ingredients).Error
	return ingredients, err
}

func (r *PostgresIngredientRepository) GetIngredientByID(ctx context.Context, id uint) (*models.Ingredient, error) {
	var ingredient models.Ingredient
	if err := r.db.WithContext(ctx).First(&ingredient, id).Error; err != nil {
		return nil, translate(err, "ingredient not found", "")
	}
	return &ingredient, nil
}

func (r *PostgresIngredientRepository) GetIngredientsByIDs(ctx context.Context, ids []uint) ([]models.Ingredient, error) {
	var ingredients []models.Ingredient
	if len(ids) == 0 {
		return ingredients, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&ingredients).Error
	return ingredients, err
}

func (r *PostgresIngredientRepository) InsertMissing(ctx context.Context, ingredients []models.Ingredient) (int64, error) {
	if len(ingredients) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(&ingredients, 500)
	return res.RowsAffected, res.Error
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
