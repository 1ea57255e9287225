package passport

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
	"google.golang.org/api/idtoken"
)

// csrfField is the double-submit token Google Identity Services posts with
// the credential, both as a cookie and as a form field.
const csrfField = "g_csrf_token"

// TokenValidator verifies a Google ID token for audience.
type TokenValidator func(ctx context.Context, token, audience string) (*idtoken.Payload, error)

// GoogleProfile is the identity extracted from a verified ID token.
type GoogleProfile struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

// VerifyGoogleFunc maps a verified Google identity to a local user.
type VerifyGoogleFunc func(ctx context.Context, profile GoogleProfile) (user any, message string, err error)

// GoogleIDTokenStrategy authenticates "Sign in with Google" credential posts.
type GoogleIDTokenStrategy struct {
	clientID string
	validate TokenValidator
	verify   VerifyGoogleFunc
}

// GoogleOption configures a GoogleIDTokenStrategy.
type GoogleOption func(*GoogleIDTokenStrategy)

// WithTokenValidator replaces idtoken.Validate.
func WithTokenValidator(v TokenValidator) GoogleOption {
	return func(s *GoogleIDTokenStrategy) {
		if v != nil {
			s.validate = v
		}
	}
}

// NewGoogleIDTokenStrategy builds the "google" strategy for clientID.
func NewGoogleIDTokenStrategy(clientID string, verify VerifyGoogleFunc, opts ...GoogleOption) *GoogleIDTokenStrategy {
	s := &GoogleIDTokenStrategy{
		clientID: clientID,
		validate: idtoken.Validate,
		verify:   verify,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *GoogleIDTokenStrategy) Name() string { return "google" }

func (s *GoogleIDTokenStrategy) Authenticate(c echo.Context) Result {
	cookie, err := c.Cookie(csrfField)
	if err != nil || cookie.Value == "" {
		return Fail("Missing CSRF cookie.", "", http.StatusBadRequest)
	}
	form := c.FormValue(csrfField)
	if subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(form)) != 1 {
		return Fail("Failed to verify double submit cookie.", "", http.StatusBadRequest)
	}

	credential := c.FormValue("credential")
	if credential == "" {
		return Fail("Missing credential.", "", http.StatusBadRequest)
	}

	payload, err := s.validate(c.Request().Context(), credential, s.clientID)
	if err != nil {
		return Fail("Invalid Google credential.", "", http.StatusUnauthorized)
	}

	user, message, err := s.verify(c.Request().Context(), profileFromPayload(payload))
	if err != nil {
		return Error(err)
	}
	if user == nil {
		return Fail(message, "", http.StatusUnauthorized)
	}
	return Success(user, message)
}

func profileFromPayload(p *idtoken.Payload) GoogleProfile {
	profile := GoogleProfile{Subject: p.Subject}
	if v, ok := p.Claims["email"].(string); ok {
		profile.Email = v
	}
	if v, ok := p.Claims["email_verified"].(bool); ok {
		profile.EmailVerified = v
	}
	if v, ok := p.Claims["name"].(string); ok {
		profile.Name = v
	}
	if v, ok := p.Claims["picture"].(string); ok {
		profile.Picture = v
	}
	return profile
}
