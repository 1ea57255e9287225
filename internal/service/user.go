package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/octobees/portal/internal/dto"
	"github.com/octobees/portal/internal/entity"
	"github.com/octobees/portal/internal/repository"
)

// ErrInvalidUserID is returned when a path id is not a UUID.
var ErrInvalidUserID = errors.New("invalid user id")

// ProfileUpdate carries the fields a user may change about themselves.
type ProfileUpdate struct {
	DisplayName string
	Phone       string
}

// UserService encapsulates account management for administrators and profile owners.
type UserService struct {
	repo       repository.UsersRepository
	normalizer *Normalizer
}

// NewUserService builds a new UserService instance.
func NewUserService(repo repository.UsersRepository, normalizer *Normalizer) *UserService {
	if normalizer == nil {
		normalizer = NewNormalizer("")
	}
	return &UserService{repo: repo, normalizer: normalizer}
}

// ListUsers returns all users as DTOs.
func (s *UserService) ListUsers(ctx context.Context) ([]dto.UserResponse, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, dto.NewUserResponse(&users[i]))
	}
	return responses, nil
}

// CreateUser creates a new user with the supplied role.
func (s *UserService) CreateUser(ctx context.Context, req dto.CreateUserRequest) (*dto.UserResponse, error) {
	req.Role = strings.TrimSpace(req.Role)
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}
	if req.Role == "" {
		req.Role = entity.RoleUser
	}
	if !validRole(req.Role) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, req.Role)
	}

	email, err := s.normalizer.NormalizeEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repo.Create(ctx, repository.CreateUserParams{
		Email:        email,
		PasswordHash: string(hashed),
		Role:         req.Role,
	})
	if err != nil {
		return nil, err
	}

	resp := dto.NewUserResponse(user)
	return &resp, nil
}

// UpdateUser mutates selected user fields.
func (s *UserService) UpdateUser(ctx context.Context, id string, req dto.UpdateUserRequest) (*dto.UserResponse, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrInvalidUserID
	}

	var params repository.UpdateUserParams
	if req.Email != nil {
		email, err := s.normalizer.NormalizeEmail(ctx, *req.Email)
		if err != nil {
			return nil, fmt.Errorf("%w: email cannot be empty or malformed", ErrInvalidInput)
		}
		params.Email = &email
	}

	if req.Role != nil {
		role := strings.TrimSpace(*req.Role)
		if !validRole(role) {
			return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
		}
		params.Role = &role
	}

	if req.Password != nil {
		if strings.TrimSpace(*req.Password) == "" {
			return nil, fmt.Errorf("%w: password cannot be empty", ErrInvalidInput)
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		pwd := string(hashed)
		params.PasswordHash = &pwd
	}

	user, err := s.repo.Update(ctx, userID, params)
	if err != nil {
		return nil, err
	}

	resp := dto.NewUserResponse(user)
	return &resp, nil
}

// DeleteUser removes a user by id.
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	userID, err := uuid.Parse(id)
	if err != nil {
		return ErrInvalidUserID
	}
	return s.repo.Delete(ctx, userID)
}

// GetUser returns a single user as a DTO.
func (s *UserService) GetUser(ctx context.Context, id string) (*dto.UserResponse, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrInvalidUserID
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := dto.NewUserResponse(user)
	return &resp, nil
}

// Profile returns the account behind id.
func (s *UserService) Profile(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return s.repo.FindByID(ctx, id)
}

// UpdateProfile changes the display name and phone number. The phone is
// stored in E.164 form; an empty phone clears it.
func (s *UserService) UpdateProfile(ctx context.Context, id uuid.UUID, update ProfileUpdate) (*entity.User, error) {
	name := strings.TrimSpace(update.DisplayName)
	if len([]rune(name)) > 80 {
		return nil, fmt.Errorf("%w: display name is too long", ErrInvalidInput)
	}

	phone, err := s.normalizer.NormalizePhone(update.Phone)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	return s.repo.Update(ctx, id, repository.UpdateUserParams{
		DisplayName: &name,
		Phone:       &phone,
	})
}

func validRole(role string) bool {
	return role == entity.RoleUser || role == entity.RoleAdmin
}
