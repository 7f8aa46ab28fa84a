package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/simplify/marketplace-api/internal/api/metrics"
	"github.com/simplify/marketplace-api/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps the domain error taxonomy to HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message)}
	}

	if status, kind, ok := classify(err); ok {
		metrics.DomainErrorsTotal.WithLabelValues(kind).Inc()
		body := errorResponse{Error: err.Error()}
		switch {
		case errors.Is(err, domain.ErrTokenExpired):
			body.Code = "token_expired"
		case errors.Is(err, domain.ErrTokenInvalid):
			body.Code = "token_invalid"
		case errors.Is(err, domain.ErrInvalidCredentials):
			body.Error = "invalid credentials"
		}
		return status, body
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Error: "internal server error"}
}

// classify maps err to its taxonomy root.
func classify(err error) (status int, kind string, ok bool) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found", true
	case errors.Is(err, domain.ErrValidation):
		return http.StatusUnprocessableEntity, "validation", true
	case errors.Is(err, domain.ErrIllegalTransition):
		return http.StatusConflict, "illegal_transition", true
	case errors.Is(err, domain.ErrIllegalState):
		return http.StatusConflict, "illegal_state", true
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "conflict", true
	case errors.Is(err, domain.ErrConcurrentModification):
		return http.StatusConflict, "concurrent_modification", true
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "forbidden", true
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated", true
	}
	return 0, "", false
}
