package models

import "time"

// Follow is a directed subscription edge: Follower follows Author.
type Follow struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	FollowerID uint      `json:"follower_id" gorm:"index;uniqueIndex:idx_follower_author;check:chk_follow_not_self,follower_id <> author_id"`
	AuthorID   uint      `json:"author_id" gorm:"index;uniqueIndex:idx_follower_author"`
	Follower   User      `json:"-" gorm:"foreignKey:FollowerID;constraint:OnDelete:CASCADE"`
	Author     User      `json:"-" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time `json:"created_at"`
}

// SubscriptionResponse is an author the viewer follows, with a slice of their recipes.
type SubscriptionResponse struct {
	UserResponse
	Recipes      []RecipeShortResponse `json:"recipes"`
	RecipesCount int64                 `json:"recipes_count"`
}
