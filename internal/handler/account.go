package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/octobees/portal/internal/dto"
	"github.com/octobees/portal/internal/entity"
	"github.com/octobees/portal/internal/passport"
	"github.com/octobees/portal/internal/service"
	"github.com/octobees/portal/internal/session"
)

// Paths the account pages redirect between.
const (
	LoginPath   = "/login"
	SignupPath  = "/signup"
	ProfilePath = "/profile"
	HomePath    = "/"
)

// AccountHandler renders the login, signup and profile pages. Credential
// checks happen in passport middleware in front of the POST routes.
type AccountHandler struct {
	users          *service.UserService
	googleClientID string
}

// NewAccountHandler constructs an AccountHandler. googleClientID enables the
// Google sign-in button when set.
func NewAccountHandler(users *service.UserService, googleClientID string) *AccountHandler {
	return &AccountHandler{users: users, googleClientID: googleClientID}
}

// LoginForm renders the login page with any pending error.
func (h *AccountHandler) LoginForm(c echo.Context) error {
	if passport.IsAuthenticated(c) {
		return c.Redirect(http.StatusFound, ProfilePath)
	}
	return c.Render(http.StatusOK, "login", echo.Map{
		"title":          "Login",
		"message":        firstFlash(c, passport.FlashError),
		"googleClientID": h.googleClientID,
	})
}

// SignupForm renders the signup page with any pending error.
func (h *AccountHandler) SignupForm(c echo.Context) error {
	if passport.IsAuthenticated(c) {
		return c.Redirect(http.StatusFound, ProfilePath)
	}
	return c.Render(http.StatusOK, "signup", echo.Map{
		"title":          "Sign up",
		"message":        firstFlash(c, passport.FlashError),
		"googleClientID": h.googleClientID,
	})
}

// LoggedIn is the terminal handler behind a successful form login.
func (h *AccountHandler) LoggedIn(c echo.Context) error {
	return c.Redirect(http.StatusFound, ProfilePath)
}

// Profile renders the signed-in user's page.
func (h *AccountHandler) Profile(c echo.Context) error {
	user, ok := passport.CurrentUser[*entity.User](c)
	if !ok {
		return c.Redirect(http.StatusFound, LoginPath)
	}
	return c.Render(http.StatusOK, "profile", echo.Map{
		"title":   "Profile",
		"profile": user,
		"success": firstFlash(c, passport.FlashSuccess),
		"message": firstFlash(c, passport.FlashError),
	})
}

// UpdateProfile saves the profile form and redirects back to it.
func (h *AccountHandler) UpdateProfile(c echo.Context) error {
	user, ok := passport.CurrentUser[*entity.User](c)
	if !ok {
		return c.Redirect(http.StatusFound, LoginPath)
	}

	var req dto.ProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}

	_, err := h.users.UpdateProfile(c.Request().Context(), user.ID, service.ProfileUpdate{
		DisplayName: req.DisplayName,
		Phone:       req.Phone,
	})
	switch {
	case err == nil:
		addFlash(c, passport.FlashSuccess, "Profile updated.")
	case errors.Is(err, service.ErrInvalidInput):
		addFlash(c, passport.FlashError, userMessage(err))
	default:
		return err
	}
	return c.Redirect(http.StatusFound, ProfilePath)
}

// Logout ends the login session.
func (h *AccountHandler) Logout(c echo.Context) error {
	if err := passport.LogOut(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, HomePath)
}

func firstFlash(c echo.Context, kind string) string {
	s := session.FromContext(c)
	if s == nil {
		return ""
	}
	if msgs := s.Flashes(kind); len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

func addFlash(c echo.Context, kind, message string) {
	if s := session.FromContext(c); s != nil {
		s.AddFlash(kind, message)
	}
}
