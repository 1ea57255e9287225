package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/octobees/portal/internal/entity"
	"github.com/octobees/portal/internal/repository"
)

type mockUsersRepository struct {
	findByEmail    func(ctx context.Context, email string) (*entity.User, error)
	findByID       func(ctx context.Context, id uuid.UUID) (*entity.User, error)
	findByGoogleID func(ctx context.Context, googleID string) (*entity.User, error)
	create         func(ctx context.Context, params repository.CreateUserParams) (*entity.User, error)
	list           func(ctx context.Context) ([]entity.User, error)
	update         func(ctx context.Context, id uuid.UUID, params repository.UpdateUserParams) (*entity.User, error)
	delete         func(ctx context.Context, id uuid.UUID) error
}

func (m *mockUsersRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	if m.findByEmail != nil {
		return m.findByEmail(ctx, email)
	}
	return nil, errors.New("findByEmail not implemented")
}

func (m *mockUsersRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	if m.findByID != nil {
		return m.findByID(ctx, id)
	}
	return nil, errors.New("FindByID not implemented")
}

func (m *mockUsersRepository) FindByGoogleID(ctx context.Context, googleID string) (*entity.User, error) {
	if m.findByGoogleID != nil {
		return m.findByGoogleID(ctx, googleID)
	}
	return nil, errors.New("FindByGoogleID not implemented")
}

func (m *mockUsersRepository) Create(ctx context.Context, params repository.CreateUserParams) (*entity.User, error) {
	if m.create != nil {
		return m.create(ctx, params)
	}
	return nil, errors.New("create not implemented")
}

func (m *mockUsersRepository) List(ctx context.Context) ([]entity.User, error) {
	if m.list != nil {
		return m.list(ctx)
	}
	return nil, errors.New("List not implemented")
}

func (m *mockUsersRepository) Update(ctx context.Context, id uuid.UUID, params repository.UpdateUserParams) (*entity.User, error) {
	if m.update != nil {
		return m.update(ctx, id, params)
	}
	return nil, errors.New("Update not implemented")
}

func (m *mockUsersRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if m.delete != nil {
		return m.delete(ctx, id)
	}
	return errors.New("Delete not implemented")
}

func stringPtr(value string) *string {
	return &value
}
