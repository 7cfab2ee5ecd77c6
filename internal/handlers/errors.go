package handlers

import (
	"errors"
	"net/http"

	"github.com/anonto42/foodgram/backend/internal/apperrors"
	"github.com/anonto42/foodgram/backend/pkg/logger"
	"github.com/labstack/echo/v4"
)

// ErrorHandler renders domain errors as {"code", "message", "details"} and
// keeps echo's own shape for *echo.HTTPError.
func ErrorHandler(log *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var (
			status int
			body   interface{}
		)
		var appErr *apperrors.Error
		var httpErr *echo.HTTPError
		switch {
		case errors.As(err, &appErr) && appErr.Code != apperrors.CodeInternal:
			status, body = appErr.HTTPStatus(), appErr
		case errors.As(err, &httpErr):
			if httpErr.Internal != nil {
				log.Debug("HTTP error", "status", httpErr.Code, "error", httpErr.Internal)
			}
			status = httpErr.Code
			if m, ok := httpErr.Message.(string); ok {
				body = echo.Map{"message": m}
			} else {
				body = echo.Map{"message": httpErr.Message}
			}
		default:
			log.Error("Unhandled error", "method", c.Request().Method, "path", c.Path(), "error", err)
			status = http.StatusInternalServerError
			body = apperrors.ErrInternal
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			log.Error("Failed to write error response", "error", err)
		}
	}
}
