package passport

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/octobees/portal/internal/session"
)

// SessionKey is the session entry holding the serialized user.
const SessionKey = "passport.user"

const (
	authenticatorKey = "_passport"
	userKey          = "_passport_user"
)

// Flash kinds written by Authenticate.
const (
	FlashSuccess = "success"
	FlashError   = "error"
)

var (
	// ErrUnknownStrategy is returned when Authenticate names an unregistered strategy.
	ErrUnknownStrategy = errors.New("passport: unknown strategy")
	// ErrNoSerializer is returned by LogIn when SerializeUser was never called.
	ErrNoSerializer = errors.New("passport: no user serializer registered")
	// ErrNotInitialized is returned by the package helpers when Initialize is missing.
	ErrNotInitialized = errors.New("passport: authenticator not initialized")
)

// SerializeFunc turns a user into the identifier stored in the session.
type SerializeFunc func(user any) (string, error)

// DeserializeFunc loads a user from its serialized identifier. Returning a
// nil user with a nil error means the user no longer exists.
type DeserializeFunc func(ctx context.Context, id string) (any, error)

// Options tunes a single Authenticate middleware.
type Options struct {
	SuccessRedirect string
	FailureRedirect string
	SuccessFlash    bool
	FailureFlash    bool
	// Stateless authenticates only the current request without touching the session.
	Stateless bool
}

// Authenticator holds the registered strategies and the session (de)serializers.
type Authenticator struct {
	strategies  map[string]Strategy
	serialize   SerializeFunc
	deserialize DeserializeFunc
	attempts    *prometheus.CounterVec
	logger      *zap.Logger
}

// Option configures an Authenticator.
type Option func(*Authenticator)

// WithRegisterer registers the attempt counter on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(a *Authenticator) {
		a.attempts = newAttemptsCounter(reg)
	}
}

// WithLogger sets the logger used for authentication events.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Authenticator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// New builds an empty authenticator.
func New(opts ...Option) *Authenticator {
	a := &Authenticator{
		strategies: make(map[string]Strategy),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.attempts == nil {
		a.attempts = newAttemptsCounter(nil)
	}
	return a
}

func newAttemptsCounter(reg prometheus.Registerer) *prometheus.CounterVec {
	return promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
		Name: "portal_auth_attempts_total",
		Help: "Authentication attempts by strategy and outcome.",
	}, []string{"strategy", "outcome"})
}

// Use registers s under its name, replacing any strategy with the same name.
func (a *Authenticator) Use(s Strategy) *Authenticator {
	a.strategies[s.Name()] = s
	return a
}

// SerializeUser sets the function that stores a user in the session.
func (a *Authenticator) SerializeUser(fn SerializeFunc) {
	a.serialize = fn
}

// DeserializeUser sets the function that restores a user from the session.
func (a *Authenticator) DeserializeUser(fn DeserializeFunc) {
	a.deserialize = fn
}

// Initialize exposes the authenticator to downstream handlers.
func (a *Authenticator) Initialize() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(authenticatorKey, a)
			return next(c)
		}
	}
}

// Session restores the logged-in user from the session on every request.
// A user that can no longer be found is logged out.
func (a *Authenticator) Session() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			s := session.FromContext(c)
			if s == nil || a.deserialize == nil {
				return next(c)
			}
			id := s.GetString(SessionKey)
			if id == "" {
				return next(c)
			}

			user, err := a.deserialize(c.Request().Context(), id)
			if err != nil {
				return fmt.Errorf("deserialize user: %w", err)
			}
			if user == nil {
				a.logger.Debug("session user no longer exists", zap.String("user", id))
				s.Delete(SessionKey)
				return next(c)
			}
			c.Set(userKey, user)
			return next(c)
		}
	}
}

// Authenticate tries the named strategies in order. The first success logs
// the user in; when every strategy fails the request is rejected.
func (a *Authenticator) Authenticate(opts Options, names ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var failures []Result
			for _, name := range names {
				strategy, ok := a.strategies[name]
				if !ok {
					return fmt.Errorf("%w: %s", ErrUnknownStrategy, name)
				}

				res := strategy.Authenticate(c)
				a.attempts.WithLabelValues(name, res.outcome.String()).Inc()

				switch res.outcome {
				case outcomeSuccess:
					return a.succeed(c, next, opts, name, res)
				case outcomeFail:
					failures = append(failures, res)
				case outcomeRedirect:
					return c.Redirect(res.status, res.url)
				case outcomeError:
					a.logger.Warn("authentication error", zap.String("strategy", name), zap.Error(res.err))
					return res.err
				case outcomePass:
					return next(c)
				}
			}
			return a.fail(c, opts, failures)
		}
	}
}

func (a *Authenticator) succeed(c echo.Context, next echo.HandlerFunc, opts Options, name string, res Result) error {
	if opts.Stateless {
		c.Set(userKey, res.user)
	} else if err := a.LogIn(c, res.user); err != nil {
		return err
	}
	a.logger.Debug("authenticated", zap.String("strategy", name))

	if opts.SuccessFlash && res.message != "" {
		if s := session.FromContext(c); s != nil {
			s.AddFlash(FlashSuccess, res.message)
		}
	}
	if opts.SuccessRedirect != "" {
		return c.Redirect(http.StatusFound, opts.SuccessRedirect)
	}
	return next(c)
}

func (a *Authenticator) fail(c echo.Context, opts Options, failures []Result) error {
	message := ""
	for _, f := range failures {
		if f.message != "" {
			message = f.message
			break
		}
	}

	if opts.FailureFlash && message != "" {
		if s := session.FromContext(c); s != nil {
			s.AddFlash(FlashError, message)
		}
	}
	if opts.FailureRedirect != "" {
		return c.Redirect(http.StatusFound, opts.FailureRedirect)
	}

	status := http.StatusUnauthorized
	if len(failures) > 0 {
		status = failures[0].status
	}
	if status == http.StatusUnauthorized {
		for _, f := range failures {
			if f.challenge != "" {
				c.Response().Header().Add(echo.HeaderWWWAuthenticate, f.challenge)
			}
		}
	}
	if message == "" {
		message = http.StatusText(status)
	}
	return echo.NewHTTPError(status, message)
}

// LogIn establishes a login session for user. The session id is regenerated
// to prevent fixation.
func (a *Authenticator) LogIn(c echo.Context, user any) error {
	if a.serialize == nil {
		return ErrNoSerializer
	}
	id, err := a.serialize(user)
	if err != nil {
		return fmt.Errorf("serialize user: %w", err)
	}
	if s := session.FromContext(c); s != nil {
		s.Regenerate()
		s.Set(SessionKey, id)
	}
	c.Set(userKey, user)
	return nil
}

// LogOut ends the login session and moves the visitor to a fresh session.
func (a *Authenticator) LogOut(c echo.Context) {
	if s := session.FromContext(c); s != nil {
		s.Regenerate()
	}
	c.Set(userKey, nil)
}

// FromContext returns the authenticator installed by Initialize.
func FromContext(c echo.Context) *Authenticator {
	a, _ := c.Get(authenticatorKey).(*Authenticator)
	return a
}

// User returns the authenticated user, or nil.
func User(c echo.Context) any {
	return c.Get(userKey)
}

// CurrentUser returns the authenticated user as T.
func CurrentUser[T any](c echo.Context) (T, bool) {
	u, ok := c.Get(userKey).(T)
	return u, ok
}

// IsAuthenticated reports whether a user is attached to the request.
func IsAuthenticated(c echo.Context) bool {
	return User(c) != nil
}

// LogIn logs user in through the request's authenticator.
func LogIn(c echo.Context, user any) error {
	a := FromContext(c)
	if a == nil {
		return ErrNotInitialized
	}
	return a.LogIn(c, user)
}

// LogOut logs the current user out through the request's authenticator.
func LogOut(c echo.Context) error {
	a := FromContext(c)
	if a == nil {
		return ErrNotInitialized
	}
	a.LogOut(c)
	return nil
}

// RequireLogin rejects anonymous requests. With a redirect target they are
// sent there, otherwise they get a 401.
func RequireLogin(redirect string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if IsAuthenticated(c) {
				return next(c)
			}
			if redirect != "" {
				return c.Redirect(http.StatusFound, redirect)
			}
			return echo.ErrUnauthorized
		}
	}
}
