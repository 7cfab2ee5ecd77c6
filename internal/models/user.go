package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// User is a registered account. Deleting a user cascades to their recipes,
// favorites, shopping list and follow edges.
type User struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Email       string    `json:"email" gorm:"size:254;uniqueIndex;not null"`
	Username    string    `json:"username" gorm:"size:150;uniqueIndex;not null"`
	FirstName   string    `json:"first_name" gorm:"size:150"`
	LastName    string    `json:"last_name" gorm:"size:150"`
	Password    string    `json:"-"` // bcrypt hash
	FirebaseUID *string   `json:"-" gorm:"uniqueIndex"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}

type CreateUserRequest struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	Username  string `json:"username" validate:"required,max=150,username"`
	FirstName string `json:"first_name" validate:"required,max=150,personname"`
	LastName  string `json:"last_name" validate:"required,max=150,personname"`
	Password  string `json:"password" validate:"required,min=8,max=128"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type SetPasswordRequest struct {
	NewPassword     string `json:"new_password" validate:"required,min=8,max=128"`
	CurrentPassword string `json:"current_password" validate:"required"`
}

// FirebaseLoginRequest exchanges a Firebase ID token for a local token.
type FirebaseLoginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

// UserResponse is the public representation of a user as seen by a viewer.
type UserResponse struct {
	Email        string `json:"email"`
	ID           uint   `json:"id"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	IsSubscribed bool   `json:"is_subscribed"`
}

func NewUserResponse(u *User, isSubscribed bool) UserResponse {
	return UserResponse{
		Email:        u.Email,
		ID:           u.ID,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: isSubscribed,
	}
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
