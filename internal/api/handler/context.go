package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/simplify/marketplace-api/internal/api/middleware"
	"github.com/simplify/marketplace-api/internal/core/domain"
)

// actor returns the principal injected by the Auth middleware. A missing or
// empty principal means the route was mounted without authentication.
func actor(c echo.Context) (domain.Principal, error) {
	p, ok := middleware.Principal(c)
	if !ok || p.Subject == "" {
		return domain.Principal{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return p, nil
}

// bindAndValidate decodes the request into req and runs struct validation.
// Decoding failures are 400; validation failures surface as domain validation errors.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	return c.Validate(req)
}
