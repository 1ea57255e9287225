package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/octobees/portal/internal/dto"
	"github.com/octobees/portal/internal/service"
)

// UserAdminHandler exposes administrative user management endpoints.
type UserAdminHandler struct {
	users  *service.UserService
	logger *zap.Logger
}

// NewUserAdminHandler constructs a handler instance.
func NewUserAdminHandler(users *service.UserService, logger *zap.Logger) *UserAdminHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserAdminHandler{users: users, logger: logger}
}

// List returns all users.
func (h *UserAdminHandler) List(c echo.Context) error {
	records, err := h.users.ListUsers(c.Request().Context())
	if err != nil {
		return serviceError(c, h.logger, err, "failed to list users")
	}
	return Success(c, http.StatusOK, "users retrieved", records)
}

// Get returns one user.
func (h *UserAdminHandler) Get(c echo.Context) error {
	user, err := h.users.GetUser(c.Request().Context(), c.Param("id"))
	if err != nil {
		return serviceError(c, h.logger, err, "failed to load user")
	}
	return Success(c, http.StatusOK, "", user)
}

// Create provisions a new user.
func (h *UserAdminHandler) Create(c echo.Context) error {
	var req dto.CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}

	user, err := h.users.CreateUser(c.Request().Context(), req)
	if err != nil {
		return serviceError(c, h.logger, err, "failed to create user")
	}
	return Success(c, http.StatusCreated, "user created", user)
}

// Update modifies an existing user.
func (h *UserAdminHandler) Update(c echo.Context) error {
	var req dto.UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}

	user, err := h.users.UpdateUser(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return serviceError(c, h.logger, err, "failed to update user")
	}
	return Success(c, http.StatusOK, "user updated", user)
}

// Delete removes a user.
func (h *UserAdminHandler) Delete(c echo.Context) error {
	if err := h.users.DeleteUser(c.Request().Context(), c.Param("id")); err != nil {
		return serviceError(c, h.logger, err, "failed to delete user")
	}
	return Success(c, http.StatusOK, "user deleted", nil)
}
