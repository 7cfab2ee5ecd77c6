package handlers

import (
	"net/http"

	"github.com/anonto42/foodgram/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// IngredientHandler serves ingredient reference data
type IngredientHandler struct {
	ingredientRepository repositories.IngredientRepository
}

func NewIngredientHandler(ingredientRepo repositories.IngredientRepository) *IngredientHandler {
	return &IngredientHandler{ingredientRepository: ingredientRepo}
}

func (h *IngredientHandler) RegisterIngredientRoutes(g *echo.Group) {
	g.GET("/ingredients", h.ListIngredients)
	g.GET("/ingredients/:id", h.GetIngredient)
}

// ListIngredients supports ?name= as a case-insensitive prefix filter
func (h *IngredientHandler) ListIngredients(c echo.Context) error {
	ingredients, err := h.ingredientRepository.GetIngredients(c.Request().Context(), c.QueryParam("name"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ingredients)
}

func (h *IngredientHandler) GetIngredient(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	ingredient, err := h.ingredientRepository.GetIngredientByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ingredient)
}
