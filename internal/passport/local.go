package passport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// VerifyPasswordFunc checks a username/password pair. A nil user with a nil
// error is a failed login; message explains why.
type VerifyPasswordFunc func(ctx context.Context, username, password string) (user any, message string, err error)

// LocalStrategy authenticates with credentials posted from a form or JSON body.
type LocalStrategy struct {
	name          string
	usernameField string
	passwordField string
	verify        VerifyPasswordFunc
}

// LocalOption configures a LocalStrategy.
type LocalOption func(*LocalStrategy)

// WithFields overrides the default "email" and "password" field names.
func WithFields(username, password string) LocalOption {
	return func(s *LocalStrategy) {
		if username != "" {
			s.usernameField = username
		}
		if password != "" {
			s.passwordField = password
		}
	}
}

// NewLocalStrategy registers verify under name ("local" when empty).
func NewLocalStrategy(name string, verify VerifyPasswordFunc, opts ...LocalOption) *LocalStrategy {
	if name == "" {
		name = "local"
	}
	s := &LocalStrategy{
		name:          name,
		usernameField: "email",
		passwordField: "password",
		verify:        verify,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *LocalStrategy) Name() string { return s.name }

func (s *LocalStrategy) Authenticate(c echo.Context) Result {
	username, password, err := s.credentials(c)
	if err != nil {
		return Fail("Malformed request body", "", http.StatusBadRequest)
	}
	if username == "" || password == "" {
		return Fail("Missing credentials", "", http.StatusBadRequest)
	}

	user, message, err := s.verify(c.Request().Context(), username, password)
	if err != nil {
		return Error(err)
	}
	if user == nil {
		return Fail(message, "", http.StatusUnauthorized)
	}
	return Success(user, message)
}

func (s *LocalStrategy) credentials(c echo.Context) (string, string, error) {
	req := c.Request()
	if strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		return s.jsonCredentials(req)
	}
	username := c.FormValue(s.usernameField)
	password := c.FormValue(s.passwordField)
	return strings.TrimSpace(username), password, nil
}

// jsonCredentials reads the body and puts it back for later binders.
func (s *LocalStrategy) jsonCredentials(req *http.Request) (string, string, error) {
	if req.Body == nil {
		return "", "", nil
	}
	raw, err := io.ReadAll(req.Body)
	if err != nil {
		return "", "", err
	}
	req.Body = io.NopCloser(bytes.NewReader(raw))
	if len(bytes.TrimSpace(raw)) == 0 {
		return "", "", nil
	}

	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return "", "", err
	}
	username, _ := body[s.usernameField].(string)
	password, _ := body[s.passwordField].(string)
	return strings.TrimSpace(username), password, nil
}
