// Package metrics exposes prometheus collectors for the API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// httpRequestsTotal counts requests by method, route and status
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "foodgram_http_requests_total",
		Help: "Total HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})

	// httpRequestDuration tracks request latency per route
	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "foodgram_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
	}, []string{"method", "route"})

	// RecipesCreated counts successfully created recipes
	RecipesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "foodgram_recipes_created_total",
		Help: "Total recipes created",
	})

	// ShoppingListDownloads counts shopping list exports by format
	ShoppingListDownloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "foodgram_shopping_list_downloads_total",
		Help: "Total shopping list downloads by format",
	}, []string{"format"})
)

// Middleware records request count and latency under the matched route pattern.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				} else if !c.Response().Committed {
					status = statusOf(err)
				}
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}

			httpRequestsTotal.WithLabelValues(c.Request().Method, route, strconv.Itoa(status)).Inc()
			httpRequestDuration.WithLabelValues(c.Request().Method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

type httpStatuser interface {
	HTTPStatus() int
}

func statusOf(err error) int {
	if s, ok := err.(httpStatuser); ok {
		return s.HTTPStatus()
	}
	return http.StatusInternalServerError
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
