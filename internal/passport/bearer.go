package passport

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// VerifyTokenFunc resolves a bearer token to a user. A nil user with a nil
// error means the token is invalid.
type VerifyTokenFunc func(ctx context.Context, token string) (any, error)

// BearerStrategy authenticates API requests carrying an Authorization: Bearer token.
type BearerStrategy struct {
	realm  string
	verify VerifyTokenFunc
}

// NewBearerStrategy builds the "bearer" strategy for realm.
func NewBearerStrategy(realm string, verify VerifyTokenFunc) *BearerStrategy {
	if realm == "" {
		realm = "Users"
	}
	return &BearerStrategy{realm: realm, verify: verify}
}

func (s *BearerStrategy) Name() string { return "bearer" }

func (s *BearerStrategy) Authenticate(c echo.Context) Result {
	token, ok := s.token(c)
	if !ok {
		return Fail("", s.challenge(""), http.StatusUnauthorized)
	}
	if token == "" {
		return Fail("", s.challenge("invalid_request"), http.StatusBadRequest)
	}

	user, err := s.verify(c.Request().Context(), token)
	if err != nil {
		return Error(err)
	}
	if user == nil {
		return Fail("", s.challenge("invalid_token"), http.StatusUnauthorized)
	}
	return Success(user, "")
}

func (s *BearerStrategy) token(c echo.Context) (string, bool) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header != "" {
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") {
			return "", false
		}
		return strings.TrimSpace(token), true
	}
	if token := c.QueryParam("access_token"); token != "" {
		return token, true
	}
	return "", false
}

func (s *BearerStrategy) challenge(code string) string {
	if code == "" {
		return fmt.Sprintf("Bearer realm=%q", s.realm)
	}
	return fmt.Sprintf("Bearer realm=%q, error=%q", s.realm, code)
}
