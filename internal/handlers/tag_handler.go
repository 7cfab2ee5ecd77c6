package handlers

import (
	"net/http"

	"github.com/anonto42/foodgram/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// TagHandler serves tag reference data
type TagHandler struct {
	tagRepository repositories.TagRepository
}

func NewTagHandler(tagRepo repositories.TagRepository) *TagHandler {
	return &TagHandler{tagRepository: tagRepo}
}

func (h *TagHandler) RegisterTagRoutes(g *echo.Group) {
	g.GET("/tags", h.ListTags)
	g.GET("/tags/:id", h.GetTag)
}

func (h *TagHandler) ListTags(c echo.Context) error {
	tags, err := h.tagRepository.GetTags(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tags)
}

func (h *TagHandler) GetTag(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	tag, err := h.tagRepository.GetTagByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tag)
}
