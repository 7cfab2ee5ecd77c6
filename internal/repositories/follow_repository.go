package repositories

import (
	"context"

	"github.com/anonto42/foodgram/backend/internal/apperrors"
	"github.com/anonto42/foodgram/backend/internal/models"
	"gorm.io/gorm"
)

// FollowRepository defines the interface for follow data operations
type FollowRepository interface {
	CreateFollow(ctx context.Context, followerID, authorID uint) error
	DeleteFollow(ctx context.Context, followerID, authorID uint) error
	IsFollowing(ctx context.Context, followerID, authorID uint) (bool, error)
	GetFollowing(ctx context.Context, followerID uint, offset, limit int) ([]models.User, int64, error)
	GetFollowingIDs(ctx context.Context, followerID uint, authorIDs []uint) (map[uint]bool, error)
}

// PostgresFollowRepository implements FollowRepository with gorm
type PostgresFollowRepository struct {
	db *gorm.DB
}

// NewPostgresFollowRepository creates a new PostgresFollowRepository
func NewPostgresFollowRepository(db *gorm.DB) *PostgresFollowRepository {
	return &PostgresFollowRepository{db: db}
}

func (r *PostgresFollowRepository) CreateFollow(ctx context.Context, followerID, authorID uint) error {
	follow := &models.Follow{FollowerID: followerID, AuthorID: authorID}
	return translate(r.db.WithContext(ctx).Create(follow).Error, "", "already subscribed to this author")
}

func (r *PostgresFollowRepository) DeleteFollow(ctx context.Context, followerID, authorID uint) error {
	res := r.db.WithContext(ctx).
		Where("follower_id = ? AND author_id = ?", followerID, authorID).
		Delete(&models.Follow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.Conflict("not subscribed to this author")
	}
	return nil
}

func (r *PostgresFollowRepository) IsFollowing(ctx context.Context, followerID, authorID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND author_id = ?", followerID, authorID).
		Count(&count).Error
	return count > 0, err
}

// GetFollowing returns a page of the authors followerID follows, ordered by username.
func (r *PostgresFollowRepository) GetFollowing(ctx context.Context, followerID uint, offset, limit int) ([]models.User, int64, error) {
	authors := r.db.Model(&models.Follow{}).Select("author_id").Where("follower_id = ?", followerID)

	q := r.db.WithContext(ctx).Model(&models.User{}).Where("id IN (?)", authors).Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset, limit = pageBounds(offset, limit)
	var users []models.User
	err := q.Order("username").Offset(offset).Limit(limit).Find(&users).Error
	return users, total, err
}

// GetFollowingIDs reports which of authorIDs followerID follows.
func (r *PostgresFollowRepository) GetFollowingIDs(ctx context.Context, followerID uint, authorIDs []uint) (map[uint]bool, error) {
	result := make(map[uint]bool)
	if followerID == 0 || len(authorIDs) == 0 {
		return result, nil
	}
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND author_id IN ?", followerID, authorIDs).
		Pluck("author_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		result[id] = true
	}
	return result, nil
}
