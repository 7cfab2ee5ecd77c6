package handlers

import (
	"net/http"

	"github.com/anonto42/foodgram/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// CollectionHandler toggles a recipe in one of the user's sets
type CollectionHandler struct {
	collection *services.CollectionService
	path       string
}

// NewFavoriteHandler serves /recipes/:id/favorite
func NewFavoriteHandler(favorites *services.CollectionService) *CollectionHandler {
	return &CollectionHandler{collection: favorites, path: "favorite"}
}

// NewShoppingCartHandler serves /recipes/:id/shopping_cart
func NewShoppingCartHandler(cart *services.CollectionService) *CollectionHandler {
	return &CollectionHandler{collection: cart, path: "shopping_cart"}
}

func (h *CollectionHandler) RegisterCollectionRoutes(g *echo.Group, requireAuth echo.MiddlewareFunc) {
	g.POST("/recipes/:id/"+h.path, h.Add, requireAuth)
	g.DELETE("/recipes/:id/"+h.path, h.Remove, requireAuth)
}

func (h *CollectionHandler) Add(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	recipe, err := h.collection.Add(c.Request().Context(), getUserIDFromContext(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, recipe)
}

func (h *CollectionHandler) Remove(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.collection.Remove(c.Request().Context(), getUserIDFromContext(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
