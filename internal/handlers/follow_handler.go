package handlers

import (
	"net/http"

	"github.com/anonto42/foodgram/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// FollowHandler handles subscribe/unsubscribe HTTP requests
type FollowHandler struct {
	follows  *services.FollowService
	pageSize int
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(follows *services.FollowService, pageSize int) *FollowHandler {
	return &FollowHandler{follows: follows, pageSize: pageSize}
}

// RegisterFollowRoutes registers follow-related routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group, requireAuth echo.MiddlewareFunc) {
	g.GET("/users/subscriptions", h.Subscriptions, requireAuth)
	g.POST("/users/:id/subscribe", h.Subscribe, requireAuth)
	g.DELETE("/users/:id/subscribe", h.Unsubscribe, requireAuth)
}

// Subscribe follows an author; ?recipes_limit= bounds the embedded recipes
func (h *FollowHandler) Subscribe(c echo.Context) error {
	authorID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	sub, err := h.follows.Follow(c.Request().Context(), getUserIDFromContext(c), authorID, queryInt(c, "recipes_limit", 0))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, sub)
}

func (h *FollowHandler) Unsubscribe(c echo.Context) error {
	authorID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.follows.Unfollow(c.Request().Context(), getUserIDFromContext(c), authorID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Subscriptions lists followed authors with their recipes
func (h *FollowHandler) Subscriptions(c echo.Context) error {
	page := pageFromQuery(c, h.pageSize)
	subs, total, err := h.follows.Subscriptions(c.Request().Context(), getUserIDFromContext(c), page, queryInt(c, "recipes_limit", 0))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, paginate(c, page, total, subs))
}
