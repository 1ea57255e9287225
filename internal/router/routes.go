package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/octobees/portal/internal/config"
	"github.com/octobees/portal/internal/entity"
	"github.com/octobees/portal/internal/handler"
	middlewarepkg "github.com/octobees/portal/internal/middleware"
	"github.com/octobees/portal/internal/passport"
)

// Handlers aggregates HTTP handlers used by the router.
type Handlers struct {
	Pages   *handler.PageHandler
	Account *handler.AccountHandler
	Auth    *handler.AuthHandler
	Users   *handler.UserAdminHandler
	Health  *handler.HealthHandler
	// Metrics serves the Prometheus registry; optional.
	Metrics echo.HandlerFunc
}

// Register wires all HTTP routes for the site and the JSON API.
func Register(e *echo.Echo, cfg *config.Config, a *passport.Authenticator, handlers Handlers) {
	limit := middlewarepkg.AuthRateLimiter(cfg.RateLimitLogin,
		handler.LoginPath, handler.SignupPath, "/auth/google", "/api/register", "/api/token")

	formLogin := func(failure string, strategies ...string) echo.MiddlewareFunc {
		return a.Authenticate(passport.Options{FailureRedirect: failure, FailureFlash: true}, strategies...)
	}
	requireLogin := passport.RequireLogin(handler.LoginPath)
	bearer := a.Authenticate(passport.Options{Stateless: true}, StrategyBearer)

	e.GET("/healthz", handlers.Health.Healthz)
	if handlers.Metrics != nil {
		e.GET("/metrics", handlers.Metrics)
	}

	e.GET(handler.HomePath, handlers.Pages.Index)
	e.GET("/about", handlers.Pages.About)

	e.GET(handler.LoginPath, handlers.Account.LoginForm)
	e.POST(handler.LoginPath, handlers.Account.LoggedIn, limit, formLogin(handler.LoginPath, StrategyLocalLogin))
	e.GET(handler.SignupPath, handlers.Account.SignupForm)
	e.POST(handler.SignupPath, handlers.Account.LoggedIn, limit, formLogin(handler.SignupPath, StrategyLocalSignup))
	if cfg.GoogleClientID != "" {
		e.POST("/auth/google", handlers.Account.LoggedIn, limit, formLogin(handler.LoginPath, StrategyGoogle))
	}

	e.GET(handler.ProfilePath, handlers.Account.Profile, requireLogin)
	e.POST(handler.ProfilePath, handlers.Account.UpdateProfile, requireLogin)
	e.Match([]string{http.MethodGet, http.MethodPost}, "/logout", handlers.Account.Logout)

	api := e.Group("/api")
	api.POST("/register", handlers.Auth.Register, limit)
	api.POST("/token", handlers.Auth.Token, limit)
	api.GET("/me", handlers.Auth.Me, bearer)

	admin := api.Group("/admin", bearer, middlewarepkg.RequireRole(entity.RoleAdmin))
	admin.GET("/users", handlers.Users.List)
	admin.POST("/users", handlers.Users.Create)
	admin.GET("/users/:id", handlers.Users.Get)
	admin.PATCH("/users/:id", handlers.Users.Update)
	admin.DELETE("/users/:id", handlers.Users.Delete)
}
