package handlers

import (
	"net/http"
	"strings"

	"github.com/anonto42/foodgram/backend/internal/apperrors"
	"github.com/anonto42/foodgram/backend/internal/models"
	"github.com/anonto42/foodgram/backend/internal/repositories"
	"github.com/anonto42/foodgram/backend/internal/services"
	"github.com/anonto42/foodgram/backend/pkg/logger"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

// UserHandler handles account HTTP requests
type UserHandler struct {
	store    *repositories.Store
	recipes  *services.RecipeService
	pageSize int
	log      *logger.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(store *repositories.Store, recipes *services.RecipeService, pageSize int, log *logger.Logger) *UserHandler {
	return &UserHandler{store: store, recipes: recipes, pageSize: pageSize, log: log}
}

// RegisterUserRoutes registers account routes under /users
func (h *UserHandler) RegisterUserRoutes(g *echo.Group, requireAuth, optionalAuth echo.MiddlewareFunc) {
	g.POST("/users", h.Signup)
	g.GET("/users", h.ListUsers, optionalAuth)
	g.GET("/users/me", h.Me, requireAuth)
	g.DELETE("/users/me", h.DeleteMe, requireAuth)
	g.POST("/users/set_password", h.SetPassword, requireAuth)
	g.GET("/users/:id", h.GetUser, optionalAuth)
}

// Signup registers a local account
func (h *UserHandler) Signup(c echo.Context) error {
	var req models.CreateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()
	req.Email = strings.TrimSpace(req.Email)

	emailTaken, usernameTaken, err := h.store.Users.IsTaken(ctx, req.Email, req.Username)
	if err != nil {
		return err
	}
	if emailTaken || usernameTaken {
		fields := map[string]string{}
		if emailTaken {
			fields["email"] = "a user with this email already exists"
		}
		if usernameTaken {
			fields["username"] = "a user with this username already exists"
		}
		return apperrors.AlreadyExists("user already exists").WithDetails(fields)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.Internal("failed to hash password", err)
	}

	user := &models.User{
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  string(hashedPassword),
	}
	if err := h.store.Users.CreateUser(ctx, user); err != nil {
		return err
	}
	h.log.Info("User registered", "user_id", user.ID)
	return c.JSON(http.StatusCreated, models.NewUserResponse(user, false))
}

// ListUsers returns a page of users
func (h *UserHandler) ListUsers(c echo.Context) error {
	ctx := c.Request().Context()
	page := pageFromQuery(c, h.pageSize)

	users, total, err := h.store.Users.GetUsers(ctx, page.Offset(), page.Limit())
	if err != nil {
		return err
	}
	ids := make([]uint, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	following, err := h.store.Follows.GetFollowingIDs(ctx, getUserIDFromContext(c), ids)
	if err != nil {
		return err
	}

	results := make([]models.UserResponse, 0, len(users))
	for i := range users {
		results = append(results, models.NewUserResponse(&users[i], following[users[i].ID]))
	}
	return c.JSON(http.StatusOK, paginate(c, page, total, results))
}

// GetUser returns a single user profile
func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	user, err := h.store.Users.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	subscribed := false
	if viewer := getUserIDFromContext(c); viewer != 0 {
		if subscribed, err = h.store.Follows.IsFollowing(ctx, viewer, id); err != nil {
			return err
		}
	}
	return c.JSON(http.StatusOK, models.NewUserResponse(user, subscribed))
}

// Me returns the authenticated user
func (h *UserHandler) Me(c echo.Context) error {
	user, err := h.store.Users.GetUserByID(c.Request().Context(), getUserIDFromContext(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, models.NewUserResponse(user, false))
}

// DeleteMe removes the authenticated user and everything they own
func (h *UserHandler) DeleteMe(c echo.Context) error {
	userID := getUserIDFromContext(c)
	if err := h.recipes.DeleteAuthor(c.Request().Context(), userID); err != nil {
		return err
	}
	h.log.Info("User deleted", "user_id", userID)
	return c.NoContent(http.StatusNoContent)
}

// SetPassword changes the authenticated user's password
func (h *UserHandler) SetPassword(c echo.Context) error {
	var req models.SetPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()

	user, err := h.store.Users.GetUserByID(ctx, getUserIDFromContext(c))
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)) != nil {
		return apperrors.InvalidCredentials("current password is incorrect").
			WithDetails(map[string]string{"current_password": "is incorrect"})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.Internal("failed to hash password", err)
	}
	user.Password = string(hashed)
	if err := h.store.Users.UpdateUser(ctx, user); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
