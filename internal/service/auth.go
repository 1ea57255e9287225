package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/octobees/portal/internal/auth"
	"github.com/octobees/portal/internal/entity"
	"github.com/octobees/portal/internal/repository"
)

var (
	// ErrEmailAlreadyExists indicates the email is registered to another account.
	ErrEmailAlreadyExists = errors.New("email already exists")
	// ErrInvalidCredentials is returned when an email/password pair does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrMissingCredentials is returned when email or password is empty.
	ErrMissingCredentials = errors.New("email and password must not be empty")
	// ErrInvalidInput wraps user-facing validation messages.
	ErrInvalidInput = errors.New("invalid input")
)

// Messages shown to people signing in through the HTML forms.
const (
	MessageNoUser           = "No user found."
	MessageWrongPassword    = "Oops! Wrong password."
	MessageEmailTaken       = "That email is already taken."
	MessageInvalidEmail     = "Please enter a valid email address."
	MessageWeakPassword     = "Password must be at least 8 characters."
	MessageGoogleUnverified = "Your Google account email is not verified."
)

const minPasswordLength = 8

// GoogleIdentity is a verified Google account.
type GoogleIdentity struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
}

// AuthService checks credentials for every sign-in method and issues API tokens.
type AuthService struct {
	users      repository.UsersRepository
	jwt        *auth.JWTManager
	normalizer *Normalizer
}

// NewAuthService constructs a new AuthService.
func NewAuthService(users repository.UsersRepository, jwtManager *auth.JWTManager, normalizer *Normalizer) *AuthService {
	if normalizer == nil {
		normalizer = NewNormalizer("")
	}
	return &AuthService{users: users, jwt: jwtManager, normalizer: normalizer}
}

// VerifyLogin checks an email/password pair. A nil user comes with the
// message to show the visitor; err is reserved for infrastructure failures.
func (s *AuthService) VerifyLogin(ctx context.Context, email, password string) (*entity.User, string, error) {
	user, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, MessageNoUser, nil
		}
		return nil, "", err
	}

	if !user.HasPassword() {
		return nil, MessageWrongPassword, nil
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, MessageWrongPassword, nil
	}
	return user, "", nil
}

// VerifySignup creates a local account.
func (s *AuthService) VerifySignup(ctx context.Context, email, password string) (*entity.User, string, error) {
	normalized, err := s.normalizer.NormalizeEmail(ctx, email)
	if err != nil {
		return nil, MessageInvalidEmail, nil
	}
	if len(password) < minPasswordLength {
		return nil, MessageWeakPassword, nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, repository.CreateUserParams{
		Email:        normalized,
		PasswordHash: string(hashed),
		Role:         entity.RoleUser,
	})
	if err != nil {
		if errors.Is(err, repository.ErrEmailDuplicate) {
			return nil, MessageEmailTaken, nil
		}
		return nil, "", err
	}
	return user, "", nil
}

// Login validates credentials and returns a JWT.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", ErrMissingCredentials
	}

	user, _, err := s.VerifyLogin(ctx, email, password)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", ErrInvalidCredentials
	}
	return s.issue(user)
}

// Register creates a local account and returns a JWT for it.
func (s *AuthService) Register(ctx context.Context, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", ErrMissingCredentials
	}

	user, message, err := s.VerifySignup(ctx, email, password)
	if err != nil {
		return "", err
	}
	if user == nil {
		if message == MessageEmailTaken {
			return "", ErrEmailAlreadyExists
		}
		return "", fmt.Errorf("%w: %s", ErrInvalidInput, message)
	}
	return s.issue(user)
}

func (s *AuthService) issue(user *entity.User) (string, error) {
	token, err := s.jwt.GenerateToken(user.ID.String(), user.Email, user.Role)
	if err != nil {
		return "", err
	}
	return token, nil
}

// VerifyToken resolves a bearer token to its user. Invalid tokens and
// deleted users yield a nil user and a nil error.
func (s *AuthService) VerifyToken(ctx context.Context, token string) (*entity.User, error) {
	claims, err := s.jwt.ParseToken(token)
	if err != nil {
		return nil, nil
	}
	return s.Deserialize(ctx, claims.Subject)
}

// VerifyGoogle maps a Google identity to a local account: an account already
// linked to the subject, else the account with the same verified email
// (which gets linked), else a new account.
func (s *AuthService) VerifyGoogle(ctx context.Context, identity GoogleIdentity) (*entity.User, string, error) {
	user, err := s.users.FindByGoogleID(ctx, identity.Subject)
	if err == nil {
		return user, "", nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, "", err
	}

	if !identity.EmailVerified || identity.Email == "" {
		return nil, MessageGoogleUnverified, nil
	}
	email := strings.ToLower(strings.TrimSpace(identity.Email))
	subject := identity.Subject

	existing, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		params := repository.UpdateUserParams{GoogleID: &subject}
		if existing.DisplayName == "" && identity.Name != "" {
			params.DisplayName = &identity.Name
		}
		linked, err := s.users.Update(ctx, existing.ID, params)
		if err != nil {
			return nil, "", fmt.Errorf("link google account: %w", err)
		}
		return linked, "", nil
	case !errors.Is(err, repository.ErrUserNotFound):
		return nil, "", err
	}

	created, err := s.users.Create(ctx, repository.CreateUserParams{
		Email:       email,
		Role:        entity.RoleUser,
		DisplayName: identity.Name,
		GoogleID:    &subject,
	})
	if err != nil {
		if errors.Is(err, repository.ErrEmailDuplicate) {
			return nil, MessageEmailTaken, nil
		}
		return nil, "", err
	}
	return created, "", nil
}

// Deserialize loads the user stored in a session. Unknown ids yield a nil user.
func (s *AuthService) Deserialize(ctx context.Context, id string) (*entity.User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return nil, nil
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}
