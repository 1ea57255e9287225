package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/octobees/portal/internal/dto"
	"github.com/octobees/portal/internal/entity"
	"github.com/octobees/portal/internal/passport"
	"github.com/octobees/portal/internal/service"
)

// AuthHandler exposes the token API for non-browser clients.
type AuthHandler struct {
	authService *service.AuthService
	logger      *zap.Logger
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(authService *service.AuthService, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{authService: authService, logger: logger}
}

// Register handles POST /api/register requests.
func (h *AuthHandler) Register(c echo.Context) error {
	var req dto.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}

	req.Email = strings.TrimSpace(req.Email)
	token, err := h.authService.Register(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return serviceError(c, h.logger, err, "unable to register user")
	}

	return Success(c, http.StatusCreated, "registration successful", dto.LoginResponse{AccessToken: token, TokenType: "Bearer"})
}

// Token handles POST /api/token requests.
func (h *AuthHandler) Token(c echo.Context) error {
	var req dto.LoginRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}

	req.Email = strings.TrimSpace(req.Email)
	token, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return serviceError(c, h.logger, err, "unable to authenticate")
	}

	return Success(c, http.StatusOK, "login successful", dto.LoginResponse{AccessToken: token, TokenType: "Bearer"})
}

// Me returns the account behind the bearer token.
func (h *AuthHandler) Me(c echo.Context) error {
	user, ok := passport.CurrentUser[*entity.User](c)
	if !ok {
		return Error(c, http.StatusUnauthorized, "authentication required")
	}
	return Success(c, http.StatusOK, "", dto.NewUserResponse(user))
}
