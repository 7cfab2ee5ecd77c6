// Package firebase connects to Firebase Authentication, the optional
// external identity provider behind the firebase-login endpoint.
package firebase

import (
	"context"
	"errors"
	"fmt"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// ErrNotConfigured means FIREBASE_CREDENTIALS_PATH is empty; the server
// then runs with local accounts only.
var ErrNotConfigured = errors.New("firebase: credentials path not set")

// App bundles the Firebase app with its auth client.
type App struct {
	FirebaseApp *firebase.App
	AuthClient  *auth.Client
}

// InitFirebase loads the service account at credentialsPath and opens an auth client.
func InitFirebase(ctx context.Context, credentialsPath string) (*App, error) {
	if credentialsPath == "" {
		return nil, ErrNotConfigured
	}
	if _, err := os.Stat(credentialsPath); err != nil {
		return nil, fmt.Errorf("firebase: credentials file not found at %s: %w", credentialsPath, err)
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, fmt.Errorf("firebase: init app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase: auth client: %w", err)
	}
	return &App{FirebaseApp: app, AuthClient: client}, nil
}
