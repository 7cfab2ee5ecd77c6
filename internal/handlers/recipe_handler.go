package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/anonto42/foodgram/backend/internal/apperrors"
	"github.com/anonto42/foodgram/backend/internal/images"
	"github.com/anonto42/foodgram/backend/internal/metrics"
	"github.com/anonto42/foodgram/backend/internal/models"
	"github.com/anonto42/foodgram/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// RecipeHandler handles recipe HTTP requests
type RecipeHandler struct {
	recipes  *services.RecipeService
	pageSize int
}

// NewRecipeHandler creates a new RecipeHandler
func NewRecipeHandler(recipes *services.RecipeService, pageSize int) *RecipeHandler {
	return &RecipeHandler{recipes: recipes, pageSize: pageSize}
}

// RegisterRecipeRoutes registers recipe routes
func (h *RecipeHandler) RegisterRecipeRoutes(g *echo.Group, requireAuth, optionalAuth echo.MiddlewareFunc) {
	g.GET("/recipes", h.ListRecipes, optionalAuth)
	g.POST("/recipes", h.CreateRecipe, requireAuth)
	g.GET("/recipes/:id", h.GetRecipe, optionalAuth)
	g.PATCH("/recipes/:id", h.PatchRecipe, requireAuth)
	g.PUT("/recipes/:id", h.ReplaceRecipe, requireAuth)
	g.DELETE("/recipes/:id", h.DeleteRecipe, requireAuth)
	g.PUT("/recipes/:id/image", h.UploadImage, requireAuth)
}

// ListRecipes supports the tags, author, is_favorited and is_in_shopping_cart filters
func (h *RecipeHandler) ListRecipes(c echo.Context) error {
	q := services.RecipeQuery{
		TagSlugs:           c.QueryParams()["tags"],
		FavoritedOnly:      queryFlag(c, "is_favorited"),
		InShoppingListOnly: queryFlag(c, "is_in_shopping_cart"),
	}
	if author := c.QueryParam("author"); author != "" {
		id, err := strconv.ParseUint(author, 10, 32)
		if err != nil {
			return apperrors.ValidationWithDetails("invalid filter", map[string]string{"author": "must be a user id"})
		}
		q.AuthorID = uint(id)
	}

	page := pageFromQuery(c, h.pageSize)
	recipes, total, err := h.recipes.List(c.Request().Context(), getUserIDFromContext(c), q, page)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, paginate(c, page, total, recipes))
}

func (h *RecipeHandler) GetRecipe(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	recipe, err := h.recipes.Get(c.Request().Context(), getUserIDFromContext(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) CreateRecipe(c echo.Context) error {
	var req models.CreateRecipeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	recipe, err := h.recipes.Create(c.Request().Context(), getUserIDFromContext(c), fullDraft(req))
	if err != nil {
		return err
	}
	metrics.RecipesCreated.Inc()
	return c.JSON(http.StatusCreated, recipe)
}

// PatchRecipe updates only the supplied fields
func (h *RecipeHandler) PatchRecipe(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req models.UpdateRecipeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	recipe, err := h.recipes.Update(c.Request().Context(), getUserIDFromContext(c), id, services.RecipeDraft{
		Name:        req.Name,
		Text:        req.Text,
		Image:       req.Image,
		CookingTime: req.CookingTime,
		Tags:        req.Tags,
		Ingredients: req.Ingredients,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, recipe)
}

// ReplaceRecipe requires the full write shape
func (h *RecipeHandler) ReplaceRecipe(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req models.CreateRecipeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	recipe, err := h.recipes.Update(c.Request().Context(), getUserIDFromContext(c), id, fullDraft(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) DeleteRecipe(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.recipes.Delete(c.Request().Context(), getUserIDFromContext(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// UploadImage accepts a multipart "image" file
func (h *RecipeHandler) UploadImage(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	file, err := c.FormFile("image")
	if err != nil {
		return apperrors.ValidationWithDetails("invalid image", map[string]string{"image": "is required"})
	}
	if file.Size > images.MaxSize {
		return apperrors.ValidationWithDetails("invalid image", map[string]string{"image": images.ErrTooLarge.Error()})
	}
	src, err := file.Open()
	if err != nil {
		return apperrors.Internal("failed to open upload", err)
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, images.MaxSize+1))
	if err != nil {
		return apperrors.Internal("failed to read upload", err)
	}

	recipe, err := h.recipes.SetImage(c.Request().Context(), getUserIDFromContext(c), id, data)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, recipe)
}

func fullDraft(req models.CreateRecipeRequest) services.RecipeDraft {
	return services.RecipeDraft{
		Name:        req.Name,
		Text:        req.Text,
		Image:       req.Image,
		CookingTime: req.CookingTime,
		Tags:        req.Tags,
		Ingredients: req.Ingredients,
	}
}
