package services

import (
	"context"

	"github.com/anonto42/foodgram/backend/internal/apperrors"
	"github.com/anonto42/foodgram/backend/internal/models"
	"github.com/anonto42/foodgram/backend/internal/repositories"
)

type FollowService struct {
	store    *repositories.Store
	mediaURL string
}

func NewFollowService(store *repositories.Store, mediaURL string) *FollowService {
	return &FollowService{store: store, mediaURL: mediaURL}
}

// Follow subscribes followerID to authorID and returns the author with up
// to recipesLimit of their recipes (recipesLimit <= 0 returns all).
func (s *FollowService) Follow(ctx context.Context, followerID, authorID uint, recipesLimit int) (*models.SubscriptionResponse, error) {
	if followerID == authorID {
		return nil, apperrors.Validation("cannot subscribe to yourself")
	}

	var author *models.User
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		var err error
		if author, err = tx.Users.GetUserByID(ctx, authorID); err != nil {
			return err
		}
		following, err := tx.Follows.IsFollowing(ctx, followerID, authorID)
		if err != nil {
			return err
		}
		if following {
			return apperrors.AlreadyExists("already subscribed to this author")
		}
		return tx.Follows.CreateFollow(ctx, followerID, authorID)
	})
	if err != nil {
		return nil, err
	}

	subs, err := s.describe(ctx, []models.User{*author}, map[uint]bool{authorID: true}, recipesLimit)
	if err != nil {
		return nil, err
	}
	return &subs[0], nil
}

// Unfollow removes the edge; it is an error if there is none.
func (s *FollowService) Unfollow(ctx context.Context, followerID, authorID uint) error {
	return s.store.Transaction(ctx, func(tx *repositories.Store) error {
		if _, err := tx.Users.GetUserByID(ctx, authorID); err != nil {
			return err
		}
		return tx.Follows.DeleteFollow(ctx, followerID, authorID)
	})
}

// Subscriptions lists the authors userID follows, each with a slice of their recipes.
func (s *FollowService) Subscriptions(ctx context.Context, userID uint, page Page, recipesLimit int) ([]models.SubscriptionResponse, int64, error) {
	authors, total, err := s.store.Follows.GetFollowing(ctx, userID, page.Offset(), page.Limit())
	if err != nil {
		return nil, 0, err
	}
	following := make(map[uint]bool, len(authors))
	for _, a := range authors {
		following[a.ID] = true
	}
	subs, err := s.describe(ctx, authors, following, recipesLimit)
	return subs, total, err
}

func (s *FollowService) describe(ctx context.Context, authors []models.User, following map[uint]bool, recipesLimit int) ([]models.SubscriptionResponse, error) {
	ids := make([]uint, 0, len(authors))
	for _, a := range authors {
		ids = append(ids, a.ID)
	}
	counts, err := s.store.Recipes.CountByAuthors(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]models.SubscriptionResponse, 0, len(authors))
	for i := range authors {
		a := &authors[i]
		recipes, err := s.store.Recipes.GetRecipesByAuthor(ctx, a.ID, recipesLimit)
		if err != nil {
			return nil, err
		}
		short := make([]models.RecipeShortResponse, 0, len(recipes))
		for j := range recipes {
			short = append(short, models.NewRecipeShortResponse(&recipes[j], s.mediaURL))
		}
		out = append(out, models.SubscriptionResponse{
			UserResponse: models.NewUserResponse(a, following[a.ID]),
			Recipes:      short,
			RecipesCount: counts[a.ID],
		})
	}
	return out, nil
}
