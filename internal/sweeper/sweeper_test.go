package sweeper

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/taskboard/internal/apperrors"
	"github.com/nkiryanov/taskboard/internal/models"
	"github.com/nkiryanov/taskboard/internal/repository"
	"github.com/nkiryanov/taskboard/internal/repository/postgres"
	"github.com/nkiryanov/taskboard/internal/testutil"
)

func Test_Sweeper(t *testing.T) {
	t.Parallel()

	container := testutil.StartPostgresContainer(t)
	defer container.Terminate()

	t.Run("New", func(t *testing.T) {
		t.Run("requires refresh repo", func(t *testing.T) {
			_, err := New(Config{}, nil, nil)
			require.Error(t, err)
		})

		t.Run("defaults schedule", func(t *testing.T) {
			s, err := New(Config{}, &postgres.RefreshTokenRepo{DB: container.Pool}, nil)
			require.NoError(t, err)
			require.Equal(t, defaultSchedule, s.schedule)
		})

		t.Run("invalid cron spec fails on start", func(t *testing.T) {
			s, err := New(Config{Schedule: "every sometimes"}, &postgres.RefreshTokenRepo{DB: container.Pool}, nil)
			require.NoError(t, err)

			require.Error(t, s.Start(t.Context()))
		})
	})

	t.Run("Sweep deletes expired tokens only", func(t *testing.T) {
		testutil.WithTx(container.Pool, t, func(tx pgx.Tx) {
			userRepo := &postgres.UserRepo{DB: tx}
			refreshRepo := &postgres.RefreshTokenRepo{DB: tx}

			user, err := userRepo.CreateUser(t.Context(), repository.CreateUserParams{
				Email:          uuid.NewString() + "@example.com",
				Name:           "Test User",
				Role:           models.RoleUser,
				HashedPassword: "hashed-password",
			})
			require.NoError(t, err)

			expired, err := refreshRepo.Save(t.Context(), models.RefreshToken{
				UserID:    user.ID,
				Token:     "expired-token",
				CreatedAt: time.Now().Add(-2 * time.Hour),
				ExpiresAt: time.Now().Add(-time.Hour),
			})
			require.NoError(t, err)
			active, err := refreshRepo.Save(t.Context(), models.RefreshToken{
				UserID:    user.ID,
				Token:     "active-token",
				CreatedAt: time.Now(),
				ExpiresAt: time.Now().Add(time.Hour),
			})
			require.NoError(t, err)

			s, err := New(Config{}, refreshRepo, nil)
			require.NoError(t, err)

			s.Sweep(t.Context())

			_, err = refreshRepo.Get(t.Context(), expired.Token)
			require.ErrorIs(t, err, apperrors.ErrRefreshTokenNotFound)
			_, err = refreshRepo.Get(t.Context(), active.Token)
			require.NoError(t, err)
		})
	})
}
