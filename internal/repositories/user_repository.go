package repositories

import (
	"context"

	"github.com/anonto42/foodgram/backend/internal/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error)
	GetUsers(ctx context.Context, offset, limit int) ([]models.User, int64, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id uint) error
	IsTaken(ctx context.Context, email, username string) (emailTaken, usernameTaken bool, err error)
}

// PostgresUserRepository implements UserRepository with gorm
type PostgresUserRepository struct {
	db *gorm.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository
func NewPostgresUserRepository(db *gorm.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	return translate(r.db.WithContext(ctx).Create(user).Error, "", "user with this email or username already exists")
}

func (r *PostgresUserRepository) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err, "user not found", "")
	}
	return &user, nil
}

func (r *PostgresUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err, "user not found", "")
	}
	return &user, nil
}

func (r *PostgresUserRepository) GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("firebase_uid = ?", firebaseUID).First(&user).Error; err != nil {
		return nil, translate(err, "user not found", "")
	}
	return &user, nil
}

// GetUsers returns a page of users ordered by username and the total count.
func (r *PostgresUserRepository) GetUsers(ctx context.Context, offset, limit int) ([]models.User, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset, limit = pageBounds(offset, limit)
	var users []models.User
	err := r.db.WithContext(ctx).Order("username").Offset(offset).Limit(limit).Find(&users).Error
	return users, total, err
}

func (r *PostgresUserRepository) UpdateUser(ctx context.Context, user *models.User) error {
	return translate(r.db.WithContext(ctx).Save(user).Error, "user not found", "user with this email already exists")
}

// DeleteUser removes the user; the database cascades to owned rows.
func (r *PostgresUserRepository) DeleteUser(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.User{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "user not found", "")
	}
	return nil
}

func (r *PostgresUserRepository) IsTaken(ctx context.Context, email, username string) (bool, bool, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).Where("email = ? OR username = ?", email, username).Find(&users).Error; err != nil {
		return false, false, err
	}
	var emailTaken, usernameTaken bool
	for _, u := range users {
		emailTaken = emailTaken || u.Email == email
		usernameTaken = usernameTaken || u.Username == username
	}
	return emailTaken, usernameTaken, nil
}
