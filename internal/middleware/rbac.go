package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/octobees/portal/internal/entity"
	"github.com/octobees/portal/internal/passport"
)

// RequireRole enforces that the authenticated user carries the expected role.
func RequireRole(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, ok := passport.CurrentUser[*entity.User](c)
			if !ok || user == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			if user.Role != role {
				return echo.NewHTTPError(http.StatusForbidden, "insufficient permissions")
			}
			return next(c)
		}
	}
}
