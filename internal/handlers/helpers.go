package handlers

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/anonto42/foodgram/backend/internal/middleware"
	"github.com/anonto42/foodgram/backend/internal/models"
	"github.com/anonto42/foodgram/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// MaxPageSize caps the "limit" query parameter.
const MaxPageSize = 100

// getUserIDFromContext returns the authenticated user's ID, or 0 for anonymous requests.
func getUserIDFromContext(c echo.Context) uint {
	claims, ok := c.Get(middleware.ClaimsKey).(*models.JwtCustomClaims)
	if !ok || claims == nil {
		return 0
	}
	return claims.UserID
}

// parseID reads a numeric path parameter. Anything else is a missing resource.
func parseID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusNotFound, "Not found")
	}
	return uint(id), nil
}

// bindAndValidate binds the request body into req and runs the echo validator.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	return c.Validate(req)
}

// queryInt reads a positive integer query parameter, falling back to def.
func queryInt(c echo.Context, name string, def int) int {
	v, err := strconv.Atoi(c.QueryParam(name))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func queryFlag(c echo.Context, name string) bool {
	switch c.QueryParam(name) {
	case "1", "true", "True":
		return true
	}
	return false
}

// pageFromQuery reads "page" and "limit".
func pageFromQuery(c echo.Context, defaultSize int) services.Page {
	size := queryInt(c, "limit", defaultSize)
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return services.Page{Number: queryInt(c, "page", 1), Size: size}
}

// Paginated is the envelope of every paginated listing.
type Paginated[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

func paginate[T any](c echo.Context, page services.Page, total int64, results []T) Paginated[T] {
	if results == nil {
		results = []T{}
	}
	out := Paginated[T]{Count: total, Results: results}
	if int64(page.Offset()+len(results)) < total {
		out.Next = pageLink(c, page.Number+1)
	}
	if page.Number > 1 {
		out.Previous = pageLink(c, page.Number-1)
	}
	return out
}

func pageLink(c echo.Context, number int) *string {
	req := c.Request()
	u := url.URL{Scheme: c.Scheme(), Host: req.Host, Path: req.URL.Path}
	q := req.URL.Query()
	if number <= 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(number))
	}
	u.RawQuery = q.Encode()
	s := u.String()
	return &s
}
