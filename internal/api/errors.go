package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"apontamento/backend/internal/logging"
	"apontamento/backend/internal/repository"
	"apontamento/backend/pkg/models"
)

// retryAfterSeconds is advertised on 503 responses.
const retryAfterSeconds = "2"

// statusFor maps an error to its HTTP status and client-facing detail.
func statusFor(err error) (int, string) {
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		return he.Code, messageOf(he)
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict, err.Error()
	case repository.IsTransient(err):
		return http.StatusServiceUnavailable, "temporarily unavailable, retry shortly"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// HTTPErrorHandler renders every error as an RFC 7807 problem document.
func HTTPErrorHandler(logger *logging.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status, detail := statusFor(err)

		requestID := c.Response().Header().Get(echo.HeaderXRequestID)
		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("request failed", "method", c.Request().Method, "path", c.Path(),
				"status", status, "request_id", requestID, "error", err)
		case status != http.StatusNotFound:
			logger.Debug("request rejected", "path", c.Path(), "status", status, "error", err)
		}

		if status == http.StatusServiceUnavailable {
			c.Response().Header().Set("Retry-After", retryAfterSeconds)
		}
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		c.Response().Header().Set(echo.HeaderContentType, "application/problem+json")
		_ = c.JSON(status, models.ProblemDetails{
			Type:     "about:blank",
			Title:    http.StatusText(status),
			Status:   status,
			Detail:   detail,
			Instance: c.Request().URL.Path,
			TraceID:  requestID,
		})
	}
}
