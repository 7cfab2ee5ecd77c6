package middleware

import (
	"context"
	"errors"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/foodgram/backend/internal/models"
)

// IDTokenVerifier verifies Firebase ID tokens; *auth.Client implements it.
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// UserByFirebaseUID finds the local account linked to a Firebase UID.
type UserByFirebaseUID interface {
	GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error)
}

// FirebaseTokenResolver accepts a Firebase ID token in place of a local JWT.
// The Firebase account must already be linked through the firebase-login endpoint.
func FirebaseTokenResolver(verifier IDTokenVerifier, users UserByFirebaseUID) TokenResolver {
	return func(ctx context.Context, idToken string) (*models.JwtCustomClaims, error) {
		token, err := verifier.VerifyIDToken(ctx, idToken)
		if err != nil {
			return nil, err
		}
		if token.UID == "" {
			return nil, errors.New("firebase token without uid")
		}
		user, err := users.GetUserByFirebaseUID(ctx, token.UID)
		if err != nil {
			return nil, err
		}
		return &models.JwtCustomClaims{UserID: user.ID, Email: user.Email}, nil
	}
}
