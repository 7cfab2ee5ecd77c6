package handlers

import (
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/anonto42/foodgram/backend/internal/apperrors"
	"github.com/anonto42/foodgram/backend/internal/middleware"
	"github.com/anonto42/foodgram/backend/internal/models"
	"github.com/anonto42/foodgram/backend/internal/repositories"
	"github.com/anonto42/foodgram/backend/pkg/logger"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

// TokenTTL is the lifetime of issued tokens.
const TokenTTL = 72 * time.Hour

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	userRepository repositories.UserRepository
	firebaseAuth   middleware.IDTokenVerifier
	jwtSecret      string
	log            *logger.Logger
}

// NewAuthHandler creates a new AuthHandler. firebaseAuth may be nil, in
// which case the Firebase login route is not registered.
func NewAuthHandler(userRepo repositories.UserRepository, firebaseAuth middleware.IDTokenVerifier, jwtSecret string, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		userRepository: userRepo,
		firebaseAuth:   firebaseAuth,
		jwtSecret:      jwtSecret,
		log:            log,
	}
}

// RegisterAuthRoutes registers authentication-related routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group, requireAuth echo.MiddlewareFunc) {
	g.POST("/token/login", h.Login)
	g.POST("/token/logout", h.Logout, requireAuth)
	if h.firebaseAuth != nil {
		g.POST("/firebase-login", h.FirebaseLogin)
	}
}

// Login exchanges email and password for a token
func (h *AuthHandler) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.userRepository.GetUserByEmail(c.Request().Context(), strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.InvalidCredentials("unable to log in with provided credentials")
		}
		return err
	}
	if user.Password == "" || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		return apperrors.InvalidCredentials("unable to log in with provided credentials")
	}

	token, err := h.generateJWT(user)
	if err != nil {
		return apperrors.Internal("failed to generate token", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"auth_token": token})
}

// Logout is a no-op for stateless tokens; the client discards its token.
func (h *AuthHandler) Logout(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}

// FirebaseLogin verifies a Firebase ID token and issues a local token,
// creating or linking the local account.
func (h *AuthHandler) FirebaseLogin(c echo.Context) error {
	var req models.FirebaseLoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()

	token, err := h.firebaseAuth.VerifyIDToken(ctx, req.IDToken)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Firebase ID token")
	}
	email, _ := token.Claims["email"].(string)
	if email == "" {
		return apperrors.Validation("firebase account has no email address")
	}
	displayName, _ := token.Claims["name"].(string)
	uid := token.UID

	user, err := h.userRepository.GetUserByFirebaseUID(ctx, uid)
	switch {
	case err == nil:
	case errors.Is(err, apperrors.ErrNotFound):
		user, err = h.userRepository.GetUserByEmail(ctx, email)
		switch {
		case err == nil:
			user.FirebaseUID = &uid
			if err := h.userRepository.UpdateUser(ctx, user); err != nil {
				return err
			}
			h.log.Info("Linked Firebase account", "user_id", user.ID)
		case errors.Is(err, apperrors.ErrNotFound):
			if user, err = h.createFirebaseUser(c, uid, email, displayName); err != nil {
				return err
			}
		default:
			return err
		}
	default:
		return err
	}

	localJWT, err := h.generateJWT(user)
	if err != nil {
		return apperrors.Internal("failed to generate token", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"auth_token": localJWT})
}

var usernameUnsafe = regexp.MustCompile(`[^\w.@+-]`)

func (h *AuthHandler) createFirebaseUser(c echo.Context, uid, email, displayName string) (*models.User, error) {
	ctx := c.Request().Context()
	base := usernameUnsafe.ReplaceAllString(strings.SplitN(email, "@", 2)[0], "")
	if base == "" || base == "me" {
		base = "user"
	}
	if len(base) > 140 {
		base = base[:140]
	}

	username := base
	for i := 1; ; i++ {
		_, taken, err := h.userRepository.IsTaken(ctx, "", username)
		if err != nil {
			return nil, err
		}
		if !taken {
			break
		}
		username = base + strconv.Itoa(i)
	}

	first, last, _ := strings.Cut(strings.TrimSpace(displayName), " ")
	user := &models.User{
		Email:       email,
		Username:    username,
		FirstName:   first,
		LastName:    strings.TrimSpace(last),
		FirebaseUID: &uid,
	}
	if err := h.userRepository.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	h.log.Info("Created user from Firebase login", "user_id", user.ID)
	return user, nil
}

// generateJWT generates a JWT token for a given user
func (h *AuthHandler) generateJWT(user *models.User) (string, error) {
	now := time.Now()
	claims := &models.JwtCustomClaims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.jwtSecret))
}
