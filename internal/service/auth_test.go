package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/octobees/portal/internal/auth"
	"github.com/octobees/portal/internal/entity"
	"github.com/octobees/portal/internal/repository"
)

func TestAuthService_VerifyLogin(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("super-secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("unexpected bcrypt error: %v", err)
	}
	dbErr := errors.New("connection reset")

	tests := map[string]struct {
		email       string
		password    string
		repo        repository.UsersRepository
		wantUser    bool
		wantMessage string
		wantErr     error
	}{
		"user not found": {
			email:    "john@example.com",
			password: "whatever",
			repo: &mockUsersRepository{
				findByEmail: func(ctx context.Context, email string) (*entity.User, error) {
					return nil, repository.ErrUserNotFound
				},
			},
			wantMessage: MessageNoUser,
		},
		"password mismatch": {
			email:    "john@example.com",
			password: "wrong",
			repo: &mockUsersRepository{
				findByEmail: func(ctx context.Context, email string) (*entity.User, error) {
					return &entity.User{ID: uuid.New(), Email: email, PasswordHash: string(hashed)}, nil
				},
			},
			wantMessage: MessageWrongPassword,
		},
		"google-only account": {
			email:    "john@example.com",
			password: "super-secret",
			repo: &mockUsersRepository{
				findByEmail: func(ctx context.Context, email string) (*entity.User, error) {
					return &entity.User{ID: uuid.New(), Email: email}, nil
				},
			},
			wantMessage: MessageWrongPassword,
		},
		"repository failure": {
			email:    "john@example.com",
			password: "super-secret",
			repo: &mockUsersRepository{
				findByEmail: func(ctx context.Context, email string) (*entity.User, error) {
					return nil, dbErr
				},
			},
			wantErr: dbErr,
		},
		"success with mixed-case email": {
			email:    "  John@Example.com",
			password: "super-secret",
			repo: &mockUsersRepository{
				findByEmail: func(ctx context.Context, email string) (*entity.User, error) {
					if email != "john@example.com" {
						return nil, repository.ErrUserNotFound
					}
					return &entity.User{ID: uuid.New(), Email: email, PasswordHash: string(hashed)}, nil
				},
			},
			wantUser: true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			service := NewAuthService(tt.repo, auth.NewJWTManager("test-secret", 0), nil)

			user, message, err := service.VerifyLogin(context.Background(), tt.email, tt.password)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
			if (user != nil) != tt.wantUser {
				t.Fatalf("expected user=%v, got %+v", tt.wantUser, user)
			}
			if message != tt.wantMessage {
				t.Fatalf("expected message %q, got %q", tt.wantMessage, message)
			}
		})
	}
}

func TestAuthService_VerifySignup(t *testing.T) {
	var captured repository.CreateUserParams
	repo := &mockUsersRepository{
		create: func(ctx context.Context, params repository.CreateUserParams) (*entity.User, error) {
			if params.Email == "taken@example.com" {
				return nil, repository.ErrEmailDuplicate
			}
			captured = params
			return &entity.User{ID: uuid.New(), Email: params.Email, PasswordHash: params.PasswordHash, Role: params.Role}, nil
		},
	}
	service := NewAuthService(repo, auth.NewJWTManager("test-secret", 0), nil)

	user, message, err := service.VerifySignup(context.Background(), " New@Example.com ", "password123")
	if err != nil || user == nil || message != "" {
		t.Fatalf("unexpected signup result: %+v %q %v", user, message, err)
	}
	if captured.Email != "new@example.com" || captured.Role != entity.RoleUser {
		t.Fatalf("unexpected create params: %+v", captured)
	}
	if bcrypt.CompareHashAndPassword([]byte(captured.PasswordHash), []byte("password123")) != nil {
		t.Fatalf("password was not hashed with bcrypt")
	}

	cases := map[string]struct {
		email, password, message string
	}{
		"taken":       {"taken@example.com", "password123", MessageEmailTaken},
		"bad email":   {"not-an-email", "password123", MessageInvalidEmail},
		"short pass":  {"short@example.com", "short", MessageWeakPassword},
		"empty email": {"", "password123", MessageInvalidEmail},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			user, message, err := service.VerifySignup(context.Background(), tc.email, tc.password)
			if err != nil || user != nil {
				t.Fatalf("expected rejection without error, got %+v %v", user, err)
			}
			if message != tc.message {
				t.Fatalf("expected %q, got %q", tc.message, message)
			}
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	hashed, _ := bcrypt.GenerateFromPassword([]byte("super-secret"), bcrypt.MinCost)
	userID := uuid.MustParse("aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa")
	repo := &mockUsersRepository{
		findByEmail: func(ctx context.Context, email string) (*entity.User, error) {
			return &entity.User{ID: userID, Email: email, PasswordHash: string(hashed), Role: entity.RoleAdmin}, nil
		},
	}
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	service := NewAuthService(repo, jwtManager, nil)

	if _, err := service.Login(context.Background(), "", ""); !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
	if _, err := service.Login(context.Background(), "john@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	token, err := service.Login(context.Background(), "john@example.com", "super-secret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	claims, err := jwtManager.ParseToken(token)
	if err != nil {
		t.Fatalf("issued token does not parse: %v", err)
	}
	if claims.Subject != userID.String() || claims.Role != entity.RoleAdmin {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestAuthService_Register(t *testing.T) {
	tests := map[string]struct {
		email       string
		password    string
		repo        repository.UsersRepository
		expectError error
	}{
		"empty payload": {
			repo:        &mockUsersRepository{},
			expectError: ErrMissingCredentials,
		},
		"duplicate email": {
			email:    "john@example.com",
			password: "password123",
			repo: &mockUsersRepository{
				create: func(ctx context.Context, params repository.CreateUserParams) (*entity.User, error) {
					return nil, repository.ErrEmailDuplicate
				},
			},
			expectError: ErrEmailAlreadyExists,
		},
		"weak password": {
			email:       "john@example.com",
			password:    "short",
			repo:        &mockUsersRepository{},
			expectError: ErrInvalidInput,
		},
		"success": {
			email:    "jane@example.com",
			password: "password123",
			repo: &mockUsersRepository{
				create: func(ctx context.Context, params repository.CreateUserParams) (*entity.User, error) {
					return &entity.User{
						ID:           uuid.MustParse("bbbbbbbb-bbbb-bbbb-bbbb-bbbbbbbbbbbb"),
						Email:        params.Email,
						PasswordHash: params.PasswordHash,
						Role:         params.Role,
					}, nil
				},
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			service := NewAuthService(tt.repo, auth.NewJWTManager("register-secret", 0), nil)

			token, err := service.Register(context.Background(), tt.email, tt.password)
			if tt.expectError != nil {
				if !errors.Is(err, tt.expectError) {
					t.Fatalf("expected error %v, got %v", tt.expectError, err)
				}
				if token != "" {
					t.Fatalf("expected empty token on error, got %q", token)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if token == "" {
				t.Fatalf("expected token to be returned")
			}
		})
	}
}

func TestAuthService_VerifyToken(t *testing.T) {
	userID := uuid.New()
	repo := &mockUsersRepository{
		findByID: func(ctx context.Context, id uuid.UUID) (*entity.User, error) {
			if id != userID {
				return nil, repository.ErrUserNotFound
			}
			return &entity.User{ID: id, Email: "jane@example.com", Role: entity.RoleUser}, nil
		},
	}
	jwtManager := auth.NewJWTManager("token-secret", time.Hour)
	service := NewAuthService(repo, jwtManager, nil)

	token, err := jwtManager.GenerateToken(userID.String(), "jane@example.com", entity.RoleUser)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	user, err := service.VerifyToken(context.Background(), token)
	if err != nil || user == nil || user.ID != userID {
		t.Fatalf("expected token to resolve to user, got %+v %v", user, err)
	}

	user, err = service.VerifyToken(context.Background(), "garbage")
	if err != nil || user != nil {
		t.Fatalf("expected invalid token to yield no user, got %+v %v", user, err)
	}

	orphan, _ := jwtManager.GenerateToken(uuid.NewString(), "gone@example.com", entity.RoleUser)
	user, err = service.VerifyToken(context.Background(), orphan)
	if err != nil || user != nil {
		t.Fatalf("expected deleted user to yield no user, got %+v %v", user, err)
	}
}

func TestAuthService_VerifyGoogle(t *testing.T) {
	linkedID := uuid.New()
	existingID := uuid.New()

	newRepo := func() *mockUsersRepository {
		return &mockUsersRepository{
			findByGoogleID: func(ctx context.Context, googleID string) (*entity.User, error) {
				if googleID == "linked-sub" {
					return &entity.User{ID: linkedID, Email: "linked@example.com"}, nil
				}
				return nil, repository.ErrUserNotFound
			},
			findByEmail: func(ctx context.Context, email string) (*entity.User, error) {
				if email == "existing@example.com" {
					return &entity.User{ID: existingID, Email: email}, nil
				}
				return nil, repository.ErrUserNotFound
			},
		}
	}

	t.Run("already linked", func(t *testing.T) {
		service := NewAuthService(newRepo(), auth.NewJWTManager("s", 0), nil)
		user, _, err := service.VerifyGoogle(context.Background(), GoogleIdentity{Subject: "linked-sub"})
		if err != nil || user == nil || user.ID != linkedID {
			t.Fatalf("expected linked user, got %+v %v", user, err)
		}
	})

	t.Run("unverified email", func(t *testing.T) {
		service := NewAuthService(newRepo(), auth.NewJWTManager("s", 0), nil)
		user, message, err := service.VerifyGoogle(context.Background(), GoogleIdentity{Subject: "new-sub", Email: "x@example.com"})
		if err != nil || user != nil || message != MessageGoogleUnverified {
			t.Fatalf("expected unverified rejection, got %+v %q %v", user, message, err)
		}
	})

	t.Run("links existing account by email", func(t *testing.T) {
		repo := newRepo()
		var params repository.UpdateUserParams
		repo.update = func(ctx context.Context, id uuid.UUID, p repository.UpdateUserParams) (*entity.User, error) {
			if id != existingID {
				t.Fatalf("unexpected id %s", id)
			}
			params = p
			return &entity.User{ID: id, Email: "existing@example.com", GoogleID: p.GoogleID}, nil
		}
		service := NewAuthService(repo, auth.NewJWTManager("s", 0), nil)

		user, _, err := service.VerifyGoogle(context.Background(), GoogleIdentity{
			Subject: "sub-1", Email: "Existing@example.com", EmailVerified: true, Name: "Existing",
		})
		if err != nil || user == nil {
			t.Fatalf("expected linked account, got %+v %v", user, err)
		}
		if params.GoogleID == nil || *params.GoogleID != "sub-1" {
			t.Fatalf("google id not linked: %+v", params)
		}
		if params.DisplayName == nil || *params.DisplayName != "Existing" {
			t.Fatalf("display name not filled: %+v", params)
		}
	})

	t.Run("creates account", func(t *testing.T) {
		repo := newRepo()
		var params repository.CreateUserParams
		repo.create = func(ctx context.Context, p repository.CreateUserParams) (*entity.User, error) {
			params = p
			return &entity.User{ID: uuid.New(), Email: p.Email, DisplayName: p.DisplayName, GoogleID: p.GoogleID}, nil
		}
		service := NewAuthService(repo, auth.NewJWTManager("s", 0), nil)

		user, _, err := service.VerifyGoogle(context.Background(), GoogleIdentity{
			Subject: "sub-2", Email: "fresh@example.com", EmailVerified: true, Name: "Fresh",
		})
		if err != nil || user == nil {
			t.Fatalf("expected new account, got %+v %v", user, err)
		}
		if params.PasswordHash != "" || params.Role != entity.RoleUser || *params.GoogleID != "sub-2" {
			t.Fatalf("unexpected create params: %+v", params)
		}
	})
}

func TestAuthService_Deserialize(t *testing.T) {
	known := uuid.New()
	repo := &mockUsersRepository{
		findByID: func(ctx context.Context, id uuid.UUID) (*entity.User, error) {
			if id == known {
				return &entity.User{ID: id}, nil
			}
			return nil, repository.ErrUserNotFound
		},
	}
	service := NewAuthService(repo, auth.NewJWTManager("s", 0), nil)

	if user, err := service.Deserialize(context.Background(), known.String()); err != nil || user == nil {
		t.Fatalf("expected known user, got %+v %v", user, err)
	}
	if user, err := service.Deserialize(context.Background(), "not-a-uuid"); err != nil || user != nil {
		t.Fatalf("expected nil user for malformed id, got %+v %v", user, err)
	}
	if user, err := service.Deserialize(context.Background(), uuid.NewString()); err != nil || user != nil {
		t.Fatalf("expected nil user for unknown id, got %+v %v", user, err)
	}
}
