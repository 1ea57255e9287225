package router

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/octobees/portal/internal/entity"
	"github.com/octobees/portal/internal/passport"
	"github.com/octobees/portal/internal/service"
)

// Strategy names registered on the authenticator.
const (
	StrategyLocalLogin  = "local-login"
	StrategyLocalSignup = "local-signup"
	StrategyBearer      = "bearer"
	StrategyGoogle      = "google"
)

// AuthConfig selects the optional strategies.
type AuthConfig struct {
	GoogleClientID string
	// GoogleValidator replaces idtoken.Validate; used by tests.
	GoogleValidator passport.TokenValidator
	Registerer      prometheus.Registerer
	Logger          *zap.Logger
}

// NewAuthenticator builds the authenticator with every strategy the routes
// refer to, backed by svc.
func NewAuthenticator(svc *service.AuthService, cfg AuthConfig) *passport.Authenticator {
	a := passport.New(passport.WithRegisterer(cfg.Registerer), passport.WithLogger(cfg.Logger))

	a.SerializeUser(func(user any) (string, error) {
		u, ok := user.(*entity.User)
		if !ok || u == nil {
			return "", errors.New("serialize user: unexpected type")
		}
		return u.ID.String(), nil
	})
	a.DeserializeUser(func(ctx context.Context, id string) (any, error) {
		return asUser(svc.Deserialize(ctx, id))
	})

	a.Use(passport.NewLocalStrategy(StrategyLocalLogin, verifyPassword(svc.VerifyLogin)))
	a.Use(passport.NewLocalStrategy(StrategyLocalSignup, verifyPassword(svc.VerifySignup)))
	a.Use(passport.NewBearerStrategy("Users", func(ctx context.Context, token string) (any, error) {
		return asUser(svc.VerifyToken(ctx, token))
	}))

	if cfg.GoogleClientID != "" {
		a.Use(passport.NewGoogleIDTokenStrategy(cfg.GoogleClientID, func(ctx context.Context, p passport.GoogleProfile) (any, string, error) {
			user, msg, err := svc.VerifyGoogle(ctx, service.GoogleIdentity{
				Subject:       p.Subject,
				Email:         p.Email,
				EmailVerified: p.EmailVerified,
				Name:          p.Name,
			})
			if user == nil {
				return nil, msg, err
			}
			return user, msg, err
		}, passport.WithTokenValidator(cfg.GoogleValidator)))
	}
	return a
}

type passwordVerifier func(ctx context.Context, email, password string) (*entity.User, string, error)

func verifyPassword(fn passwordVerifier) passport.VerifyPasswordFunc {
	return func(ctx context.Context, email, password string) (any, string, error) {
		user, msg, err := fn(ctx, email, password)
		if user == nil {
			return nil, msg, err
		}
		return user, msg, err
	}
}

// asUser keeps a nil *entity.User from turning into a non-nil interface.
func asUser(user *entity.User, err error) (any, error) {
	if user == nil {
		return nil, err
	}
	return user, err
}
