package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/octobees/portal/internal/middleware"
	"github.com/octobees/portal/internal/repository"
	"github.com/octobees/portal/internal/service"
)

// APIResponse describes the standard envelope returned by the JSON API.
type APIResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Success sends a successful response using the shared envelope format.
func Success(c echo.Context, status int, message string, data any) error {
	if status == 0 {
		status = http.StatusOK
	}
	return c.JSON(status, APIResponse{Status: "success", Message: message, Data: data})
}

// Error sends an error response using the shared envelope format.
func Error(c echo.Context, status int, message string) error {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return c.JSON(status, APIResponse{Status: "error", Message: message})
}

// serviceError maps service and repository errors onto API responses.
// Unrecognised errors become a 500 carrying fallback.
func serviceError(c echo.Context, logger *zap.Logger, err error, fallback string) error {
	switch {
	case errors.Is(err, service.ErrMissingCredentials):
		return Error(c, http.StatusBadRequest, "email and password are required")
	case errors.Is(err, service.ErrInvalidCredentials):
		return Error(c, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, service.ErrEmailAlreadyExists), errors.Is(err, repository.ErrEmailDuplicate):
		return Error(c, http.StatusConflict, "email already exists")
	case errors.Is(err, service.ErrInvalidUserID), errors.Is(err, service.ErrInvalidInput):
		return Error(c, http.StatusBadRequest, userMessage(err))
	case errors.Is(err, repository.ErrUserNotFound):
		return Error(c, http.StatusNotFound, "user not found")
	default:
		logger.Error(fallback, zap.String("request_id", middleware.RequestIDFromContext(c)), zap.Error(err))
		return Error(c, http.StatusInternalServerError, fallback)
	}
}

// userMessage strips the sentinel prefix from validation errors.
func userMessage(err error) string {
	msg := err.Error()
	prefix := service.ErrInvalidInput.Error() + ": "
	if strings.HasPrefix(msg, prefix) {
		return strings.TrimPrefix(msg, prefix)
	}
	return msg
}
