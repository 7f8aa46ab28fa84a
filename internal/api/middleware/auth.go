package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/simplify/marketplace-api/internal/core/domain"
	"github.com/simplify/marketplace-api/internal/core/ports"
)

const principalKey = "principal"

// Auth validates the bearer token and injects the resolved principal into
// the context. Requests without a valid token never reach the handler.
func Auth(validator ports.TokenValidator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return unauthorized(c, "missing authorization header", "token_missing")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				return unauthorized(c, "invalid authorization header", "token_invalid")
			}

			principal, err := validator.Validate(strings.TrimSpace(parts[1]))
			if err != nil {
				if errors.Is(err, domain.ErrTokenExpired) {
					return unauthorized(c, "token expired", "token_expired")
				}
				return unauthorized(c, "invalid token", "token_invalid")
			}

			SetPrincipal(c, principal)
			return next(c)
		}
	}
}

// Principal returns the identity stored by Auth.
func Principal(c echo.Context) (domain.Principal, bool) {
	p, ok := c.Get(principalKey).(domain.Principal)
	return p, ok
}

// SetPrincipal stores p as the authenticated identity of the request.
func SetPrincipal(c echo.Context, p domain.Principal) {
	c.Set(principalKey, p)
}

func unauthorized(c echo.Context, msg, code string) error {
	c.Response().Header().Set(echo.HeaderWWWAuthenticate, `Bearer realm="marketplace"`)
	return c.JSON(http.StatusUnauthorized, map[string]string{"error": msg, "code": code})
}
