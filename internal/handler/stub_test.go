package handler

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/octobees/portal/internal/entity"
	"github.com/octobees/portal/internal/repository"
	"github.com/octobees/portal/internal/view"
)

type stubUsersRepo struct {
	findByEmail    func(ctx context.Context, email string) (*entity.User, error)
	findByID       func(ctx context.Context, id uuid.UUID) (*entity.User, error)
	findByGoogleID func(ctx context.Context, googleID string) (*entity.User, error)
	create         func(ctx context.Context, params repository.CreateUserParams) (*entity.User, error)
	list           func(ctx context.Context) ([]entity.User, error)
	update         func(ctx context.Context, id uuid.UUID, params repository.UpdateUserParams) (*entity.User, error)
	delete         func(ctx context.Context, id uuid.UUID) error
}

func (s *stubUsersRepo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	if s.findByEmail != nil {
		return s.findByEmail(ctx, email)
	}
	return nil, errors.New("not implemented")
}

func (s *stubUsersRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	if s.findByID != nil {
		return s.findByID(ctx, id)
	}
	return nil, errors.New("not implemented")
}

func (s *stubUsersRepo) FindByGoogleID(ctx context.Context, googleID string) (*entity.User, error) {
	if s.findByGoogleID != nil {
		return s.findByGoogleID(ctx, googleID)
	}
	return nil, errors.New("not implemented")
}

func (s *stubUsersRepo) Create(ctx context.Context, params repository.CreateUserParams) (*entity.User, error) {
	if s.create != nil {
		return s.create(ctx, params)
	}
	return nil, errors.New("not implemented")
}

func (s *stubUsersRepo) List(ctx context.Context) ([]entity.User, error) {
	if s.list != nil {
		return s.list(ctx)
	}
	return nil, errors.New("not implemented")
}

func (s *stubUsersRepo) Update(ctx context.Context, id uuid.UUID, params repository.UpdateUserParams) (*entity.User, error) {
	if s.update != nil {
		return s.update(ctx, id, params)
	}
	return nil, errors.New("not implemented")
}

func (s *stubUsersRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if s.delete != nil {
		return s.delete(ctx, id)
	}
	return errors.New("not implemented")
}

// newEcho returns an echo instance with small templates for the pages the
// handlers render.
func newEcho(t *testing.T) *echo.Echo {
	t.Helper()
	renderer, err := view.New(fstest.MapFS{
		"static/404.html":   {Data: []byte(`<h1>{{.title}}</h1><p>{{.url}}</p>`)},
		"static/error.html": {Data: []byte(`<h1>{{.title}}</h1><p>{{.message}}</p>`)},
		"static/index.html": {Data: []byte(`<h1>{{.title}}</h1>`)},
		"static/about.html": {Data: []byte(`<h1>{{.title}}</h1>`)},
		"login.html":        {Data: []byte(`login|{{.message}}|{{.googleClientID}}`)},
		"signup.html":       {Data: []byte(`signup|{{.message}}`)},
		"profile.html":      {Data: []byte(`profile|{{.profile.Email}}|{{.profile.Phone}}|{{.success}}|{{.message}}`)},
	})
	if err != nil {
		t.Fatalf("build renderer: %v", err)
	}
	e := echo.New()
	e.Renderer = renderer
	return e
}
