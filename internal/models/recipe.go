package models

import (
	"strings"
	"time"
)

const (
	MinCookingTime = 1
	MaxCookingTime = 300
	MinAmount      = 1
)

// Recipe is owned by its author and composed of tags and ingredient lines.
type Recipe struct {
	ID            uint               `json:"id" gorm:"primaryKey"`
	AuthorID      uint               `json:"author_id" gorm:"index;not null"`
	Author        User               `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Name          string             `json:"name" gorm:"size:200;not null"`
	Text          string             `json:"text" gorm:"type:text;not null"`
	Image         string             `json:"image"`
	ImageBlurHash string             `json:"image_blurhash" gorm:"column:image_blurhash;size:64"`
	CookingTime   int                `json:"cooking_time" gorm:"not null;check:chk_recipe_cooking_time,cooking_time >= 1 AND cooking_time <= 300"`
	PubDate       time.Time          `json:"pub_date" gorm:"autoCreateTime;index"`
	Tags          []Tag              `json:"-" gorm:"many2many:recipe_tags;constraint:OnDelete:CASCADE"`
	Ingredients   []IngredientAmount `json:"-" gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
}

// IngredientAmount is one (ingredient, amount) line of a recipe.
type IngredientAmount struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	RecipeID     uint       `json:"recipe_id" gorm:"not null;uniqueIndex:idx_recipe_ingredient"`
	IngredientID uint       `json:"ingredient_id" gorm:"not null;index;uniqueIndex:idx_recipe_ingredient"`
	Ingredient   Ingredient `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Amount       int        `json:"amount" gorm:"not null;check:chk_ingredient_amount_positive,amount >= 1"`
}

// IngredientAmountRequest is one line of a recipe write payload.
type IngredientAmountRequest struct {
	ID     uint `json:"id" validate:"required"`
	Amount int  `json:"amount" validate:"min=1"`
}

// CreateRecipeRequest is the full write shape used by POST and PUT.
type CreateRecipeRequest struct {
	Name        *string                    `json:"name" validate:"required,min=1,max=200"`
	Text        *string                    `json:"text" validate:"required,min=1"`
	Image       *string                    `json:"image"`
	CookingTime *int                       `json:"cooking_time" validate:"required,min=1,max=300"`
	Tags        *[]uint                    `json:"tags" validate:"required,min=1,dive,required"`
	Ingredients *[]IngredientAmountRequest `json:"ingredients" validate:"required,min=1,dive"`
}

// UpdateRecipeRequest is the partial write shape used by PATCH.
type UpdateRecipeRequest struct {
	Name        *string                    `json:"name" validate:"omitempty,min=1,max=200"`
	Text        *string                    `json:"text" validate:"omitempty,min=1"`
	Image       *string                    `json:"image"`
	CookingTime *int                       `json:"cooking_time" validate:"omitempty,min=1,max=300"`
	Tags        *[]uint                    `json:"tags" validate:"omitempty,min=1,dive,required"`
	Ingredients *[]IngredientAmountRequest `json:"ingredients" validate:"omitempty,min=1,dive"`
}

// IngredientAmountResponse is an ingredient line in the read shape.
type IngredientAmountResponse struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

// RecipeResponse is the read shape of a recipe for a particular viewer.
type RecipeResponse struct {
	ID               uint                       `json:"id"`
	Tags             []Tag                      `json:"tags"`
	Author           UserResponse               `json:"author"`
	Ingredients      []IngredientAmountResponse `json:"ingredients"`
	IsFavorited      bool                       `json:"is_favorited"`
	IsInShoppingCart bool                       `json:"is_in_shopping_cart"`
	Name             string                     `json:"name"`
	Image            string                     `json:"image"`
	ImageBlurHash    string                     `json:"image_blurhash,omitempty"`
	Text             string                     `json:"text"`
	CookingTime      int                        `json:"cooking_time"`
	PubDate          time.Time                  `json:"pub_date"`
}

// RecipeShortResponse is the compact shape used by favorites, the shopping list and subscriptions.
type RecipeShortResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

// ViewerFlags are the per-viewer annotations of a recipe.
type ViewerFlags struct {
	IsFavorited      bool
	IsInShoppingCart bool
	IsSubscribed     bool
}

// NewRecipeResponse maps a loaded recipe (author, tags and lines preloaded) to its read shape.
func NewRecipeResponse(r *Recipe, flags ViewerFlags, mediaURL string) RecipeResponse {
	tags := r.Tags
	if tags == nil {
		tags = []Tag{}
	}
	lines := make([]IngredientAmountResponse, 0, len(r.Ingredients))
	for _, line := range r.Ingredients {
		lines = append(lines, IngredientAmountResponse{
			ID:              line.IngredientID,
			Name:            line.Ingredient.Name,
			MeasurementUnit: line.Ingredient.MeasurementUnit,
			Amount:          line.Amount,
		})
	}
	return RecipeResponse{
		ID:               r.ID,
		Tags:             tags,
		Author:           NewUserResponse(&r.Author, flags.IsSubscribed),
		Ingredients:      lines,
		IsFavorited:      flags.IsFavorited,
		IsInShoppingCart: flags.IsInShoppingCart,
		Name:             r.Name,
		Image:            MediaURL(mediaURL, r.Image),
		ImageBlurHash:    r.ImageBlurHash,
		Text:             r.Text,
		CookingTime:      r.CookingTime,
		PubDate:          r.PubDate,
	}
}

func NewRecipeShortResponse(r *Recipe, mediaURL string) RecipeShortResponse {
	return RecipeShortResponse{
		ID:          r.ID,
		Name:        r.Name,
		Image:       MediaURL(mediaURL, r.Image),
		CookingTime: r.CookingTime,
	}
}

// MediaURL joins the public media prefix and a stored relative path.
func MediaURL(base, path string) string {
	if path == "" {
		return ""
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
