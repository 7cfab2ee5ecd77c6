package models

import "time"

// Favorite marks a recipe as favorited by a user.
type Favorite struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"index;uniqueIndex:idx_user_recipe_favorite"`
	RecipeID  uint      `json:"recipe_id" gorm:"index;uniqueIndex:idx_user_recipe_favorite"`
	User      User      `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Recipe    Recipe    `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt time.Time `json:"created_at"`
}

// ShoppingListEntry queues a recipe's ingredients for a user's shopping list.
type ShoppingListEntry struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"index;uniqueIndex:idx_user_recipe_shopping"`
	RecipeID  uint      `json:"recipe_id" gorm:"index;uniqueIndex:idx_user_recipe_shopping"`
	User      User      `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Recipe    Recipe    `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt time.Time `json:"created_at"`
}

// ShoppingItem is one aggregated line of a shopping list.
type ShoppingItem struct {
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Total           int64  `json:"total"`
}
