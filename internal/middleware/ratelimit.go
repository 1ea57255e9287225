package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/octobees/portal/internal/config"
)

// maxTrackedClients bounds the limiter table before idle clients are evicted.
const maxTrackedClients = 10000

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// AuthRateLimiter applies a per-client token bucket to POST requests on the
// given route paths, typically the credential endpoints.
func AuthRateLimiter(cfg config.RateLimitConfig, paths ...string) echo.MiddlewareFunc {
	if cfg.Requests <= 0 || cfg.Interval <= 0 || len(paths) == 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return next
		}
	}

	perRequest := cfg.Interval / time.Duration(cfg.Requests)
	if perRequest <= 0 {
		perRequest = time.Second
	}

	limited := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		limited[p] = struct{}{}
	}

	var mu sync.Mutex
	clients := make(map[string]*clientLimiter)

	allow := func(key string, now time.Time) bool {
		mu.Lock()
		defer mu.Unlock()

		if len(clients) >= maxTrackedClients {
			for k, cl := range clients {
				if now.Sub(cl.lastSeen) > cfg.Interval {
					delete(clients, k)
				}
			}
		}

		cl, ok := clients[key]
		if !ok {
			cl = &clientLimiter{limiter: rate.NewLimiter(rate.Every(perRequest), cfg.Requests)}
			clients[key] = cl
		}
		cl.lastSeen = now
		return cl.limiter.AllowN(now, 1)
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method != http.MethodPost {
				return next(c)
			}
			if _, ok := limited[c.Path()]; !ok {
				return next(c)
			}

			if !allow(c.RealIP(), time.Now()) {
				c.Response().Header().Set("Retry-After", retryAfter(perRequest))
				return echo.NewHTTPError(http.StatusTooManyRequests, "Too many attempts, please try again later.")
			}
			return next(c)
		}
	}
}

func retryAfter(d time.Duration) string {
	secs := int(d.Round(time.Second) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
