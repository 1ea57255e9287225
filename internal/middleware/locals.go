package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/octobees/portal/internal/passport"
	"github.com/octobees/portal/internal/view"
)

// Locals exposes the visitor and request to every rendered template.
func Locals() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			view.SetLocal(c, LocalUser, passport.User(c))
			view.SetLocal(c, LocalIsAuthenticated, passport.IsAuthenticated(c))
			view.SetLocal(c, LocalPath, c.Request().URL.Path)
			view.SetLocal(c, LocalRequestID, RequestIDFromContext(c))
			return next(c)
		}
	}
}
