package handlers

import (
	"net/http"

	"github.com/anonto42/foodgram/backend/internal/metrics"
	"github.com/anonto42/foodgram/backend/internal/services"
	"github.com/labstack/echo/v4"
)

const shoppingListFilename = "shopping_list.txt"

// ShoppingListHandler exports the aggregated shopping list
type ShoppingListHandler struct {
	shoppingList *services.ShoppingListService
}

func NewShoppingListHandler(shoppingList *services.ShoppingListService) *ShoppingListHandler {
	return &ShoppingListHandler{shoppingList: shoppingList}
}

func (h *ShoppingListHandler) RegisterShoppingListRoutes(g *echo.Group, requireAuth echo.MiddlewareFunc) {
	g.GET("/recipes/download_shopping_cart", h.Download, requireAuth)
}

// Download returns shopping_list.txt, or the items as JSON with ?format=json
func (h *ShoppingListHandler) Download(c echo.Context) error {
	items, err := h.shoppingList.Aggregate(c.Request().Context(), getUserIDFromContext(c))
	if err != nil {
		return err
	}

	if c.QueryParam("format") == "json" {
		metrics.ShoppingListDownloads.WithLabelValues("json").Inc()
		return c.JSON(http.StatusOK, items)
	}

	metrics.ShoppingListDownloads.WithLabelValues("txt").Inc()
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+shoppingListFilename+`"`)
	return c.Blob(http.StatusOK, echo.MIMETextPlainCharsetUTF8, []byte(services.RenderText(items)))
}
