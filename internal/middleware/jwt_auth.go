package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/anonto42/foodgram/backend/internal/apperrors"
	"github.com/anonto42/foodgram/backend/internal/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

// ClaimsKey is the echo context key holding *models.JwtCustomClaims.
const ClaimsKey = "user"

var errMissingToken = errors.New("missing token")

// TokenResolver turns a bearer token the local JWT check rejected into claims.
type TokenResolver func(ctx context.Context, token string) (*models.JwtCustomClaims, error)

// ParseToken verifies an HS256 token signed with secret.
func ParseToken(secret, tokenString string) (*models.JwtCustomClaims, error) {
	claims := &models.JwtCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == 0 {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// JWTAuthMiddleware rejects requests without a valid token and stores the
// claims in the context. Fallbacks are tried when the local check fails.
func JWTAuthMiddleware(secret string, fallbacks ...TokenResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := authenticate(c, secret, fallbacks)
			if errors.Is(err, errMissingToken) {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authentication credentials were not provided")
			}
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}
			c.Set(ClaimsKey, claims)
			return next(c)
		}
	}
}

// OptionalJWTAuth stores the claims when a valid token is present and
// otherwise lets the request through anonymously.
func OptionalJWTAuth(secret string, fallbacks ...TokenResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if claims, err := authenticate(c, secret, fallbacks); err == nil {
				c.Set(ClaimsKey, claims)
			}
			return next(c)
		}
	}
}

// UserByID loads a local account.
type UserByID interface {
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
}

// ActiveUser rejects tokens whose account no longer exists. It runs after
// JWTAuthMiddleware or OptionalJWTAuth and passes anonymous requests through.
func ActiveUser(users UserByID) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := c.Get(ClaimsKey).(*models.JwtCustomClaims)
			if !ok {
				return next(c)
			}
			if _, err := users.GetUserByID(c.Request().Context(), claims.UserID); err != nil {
				if errors.Is(err, apperrors.ErrNotFound) {
					return echo.NewHTTPError(http.StatusUnauthorized, "User not found")
				}
				return err
			}
			return next(c)
		}
	}
}

// Chain composes middlewares; the first one runs outermost.
func Chain(mws ...echo.MiddlewareFunc) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}

func authenticate(c echo.Context, secret string, fallbacks []TokenResolver) (*models.JwtCustomClaims, error) {
	tokenString, err := extractToken(c.Request().Header.Get(echo.HeaderAuthorization))
	if err != nil {
		return nil, err
	}
	claims, err := ParseToken(secret, tokenString)
	if err == nil {
		return claims, nil
	}
	for _, resolve := range fallbacks {
		if claims, ferr := resolve(c.Request().Context(), tokenString); ferr == nil {
			return claims, nil
		}
	}
	return nil, err
}

// extractToken accepts "Token <jwt>" and "Bearer <jwt>".
func extractToken(header string) (string, error) {
	if header == "" {
		return "", errMissingToken
	}
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	token = strings.TrimSpace(token)
	if !ok || token == "" {
		return "", errors.New("invalid authorization header format")
	}
	switch strings.ToLower(scheme) {
	case "token", "bearer":
		return token, nil
	default:
		return "", errors.New("unsupported authorization scheme")
	}
}
