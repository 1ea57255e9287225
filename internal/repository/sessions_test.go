package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestPGXSessionsRepository_Find(t *testing.T) {
	repo := NewPGXSessionsRepository(&stubPool{
		queryRowFunc: func(ctx context.Context, query string, args ...any) pgx.Row {
			require.Contains(t, query, "expires_at > NOW()")
			return &stubRow{scan: func(dest ...any) error {
				*dest[0].(*string) = "encoded"
				return nil
			}}
		},
	})

	data, err := repo.Find(context.Background(), "sid-1")
	require.NoError(t, err)
	require.Equal(t, "encoded", data)

	repo.pool = &stubPool{
		queryRowFunc: func(ctx context.Context, query string, args ...any) pgx.Row {
			return &stubRow{scan: func(dest ...any) error { return pgx.ErrNoRows }}
		},
	}
	_, err = repo.Find(context.Background(), "sid-2")
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestPGXSessionsRepository_Upsert(t *testing.T) {
	expires := time.Now().Add(time.Hour)
	repo := NewPGXSessionsRepository(&stubPool{
		execFunc: func(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
			require.Contains(t, query, "ON CONFLICT (id)")
			require.Equal(t, []any{"sid-1", "encoded", expires}, args)
			return pgconn.NewCommandTag("INSERT 0 1"), nil
		},
	})
	require.NoError(t, repo.Upsert(context.Background(), "sid-1", "encoded", expires))

	repo.pool = &stubPool{
		execFunc: func(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
			return pgconn.CommandTag{}, errors.New("db down")
		},
	}
	require.Error(t, repo.Upsert(context.Background(), "sid-1", "encoded", expires))
}

func TestPGXSessionsRepository_DeleteExpired(t *testing.T) {
	repo := NewPGXSessionsRepository(&stubPool{
		execFunc: func(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
			require.Contains(t, query, "expires_at <= NOW()")
			return pgconn.NewCommandTag("DELETE 3"), nil
		},
	})

	n, err := repo.DeleteExpired(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 3, n)

	require.NoError(t, NewPGXSessionsRepository(&stubPool{
		execFunc: func(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
			return pgconn.NewCommandTag("DELETE 0"), nil
		},
	}).Delete(context.Background(), "unknown"))
}
