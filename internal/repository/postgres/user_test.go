package postgres

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/taskboard/internal/apperrors"
	"github.com/nkiryanov/taskboard/internal/models"
	"github.com/nkiryanov/taskboard/internal/repository"
	"github.com/nkiryanov/taskboard/internal/testutil"
)

// Create user with unique email, shared by the repo tests in this package
func createTestUser(t *testing.T, tx pgx.Tx, role models.Role) models.User {
	t.Helper()

	repo := &UserRepo{DB: tx}
	user, err := repo.CreateUser(t.Context(), repository.CreateUserParams{
		Email:          uuid.NewString() + "@example.com",
		Name:           "Test User",
		Role:           role,
		HashedPassword: "hashed-password",
	})
	require.NoError(t, err, "test user should be created")
	return user
}

func Test_UserRepo(t *testing.T) {
	t.Parallel()

	container := testutil.StartPostgresContainer(t)
	defer container.Terminate()

	t.Run("CreateUser", func(t *testing.T) {
		t.Run("creates user", func(t *testing.T) {
			testutil.WithTx(container.Pool, t, func(tx pgx.Tx) {
				repo := &UserRepo{DB: tx}

				user, err := repo.CreateUser(t.Context(), repository.CreateUserParams{
					Email:          "ann@example.com",
					Name:           "Ann",
					Role:           models.RoleUser,
					HashedPassword: "hash",
				})

				require.NoError(t, err)
				require.NotEqual(t, uuid.Nil, user.ID)
				require.Equal(t, "ann@example.com", user.Email)
				require.Equal(t, "Ann", user.Name)
				require.Equal(t, models.RoleUser, user.Role)
				require.Equal(t, "hash", user.HashedPassword)
				require.False(t, user.CreatedAt.IsZero())
			})
		})

		t.Run("email stored lowercased and trimmed", func(t *testing.T) {
			testutil.WithTx(container.Pool, t, func(tx pgx.Tx) {
				repo := &UserRepo{DB: tx}

				user, err := repo.CreateUser(t.Context(), repository.CreateUserParams{
					Email:          "  Bob@Example.COM ",
					Name:           "Bob",
					Role:           models.RoleUser,
					HashedPassword: "hash",
				})

				require.NoError(t, err)
				require.Equal(t, "bob@example.com", user.Email)
			})
		})

		t.Run("duplicate email fails even with different case", func(t *testing.T) {
			testutil.WithTx(container.Pool, t, func(tx pgx.Tx) {
				repo := &UserRepo{DB: tx}

				_, err := repo.CreateUser(t.Context(), repository.CreateUserParams{
					Email: "dup@example.com", Name: "First", Role: models.RoleUser, HashedPassword: "hash",
				})
				require.NoError(t, err)

				_, err = repo.CreateUser(t.Context(), repository.CreateUserParams{
					Email: "DUP@example.com", Name: "Second", Role: models.RoleUser, HashedPassword: "hash",
				})
				require.ErrorIs(t, err, apperrors.ErrUserAlreadyExists)
			})
		})
	})

	t.Run("GetUserByID", func(t *testing.T) {
		t.Run("returns user", func(t *testing.T) {
			testutil.WithTx(container.Pool, t, func(tx pgx.Tx) {
				repo := &UserRepo{DB: tx}
				created := createTestUser(t, tx, models.RoleAdmin)

				user, err := repo.GetUserByID(t.Context(), created.ID)

				require.NoError(t, err)
				require.Equal(t, created.ID, user.ID)
				require.Equal(t, created.Email, user.Email)
				require.Equal(t, models.RoleAdmin, user.Role)
			})
		})

		t.Run("not found", func(t *testing.T) {
			testutil.WithTx(container.Pool, t, func(tx pgx.Tx) {
				repo := &UserRepo{DB: tx}

				_, err := repo.GetUserByID(t.Context(), uuid.New())
				require.ErrorIs(t, err, apperrors.ErrUserNotFound)
			})
		})
	})

	t.Run("GetUserByEmail", func(t *testing.T) {
		t.Run("lookup case insensitive", func(t *testing.T) {
			testutil.WithTx(container.Pool, t, func(tx pgx.Tx) {
				repo := &UserRepo{DB: tx}
				created := createTestUser(t, tx, models.RoleUser)

				user, err := repo.GetUserByEmail(t.Context(), strings.ToUpper(created.Email))

				require.NoError(t, err)
				require.Equal(t, created.ID, user.ID)
			})
		})

		t.Run("not found", func(t *testing.T) {
			testutil.WithTx(container.Pool, t, func(tx pgx.Tx) {
				repo := &UserRepo{DB: tx}

				_, err := repo.GetUserByEmail(t.Context(), "nobody@example.com")
				require.ErrorIs(t, err, apperrors.ErrUserNotFound)
			})
		})
	})

	t.Run("ListUsers", func(t *testing.T) {
		t.Run("paginates", func(t *testing.T) {
			testutil.WithTx(container.Pool, t, func(tx pgx.Tx) {
				repo := &UserRepo{DB: tx}
				for range 5 {
					createTestUser(t, tx, models.RoleUser)
				}

				page, err := repo.ListUsers(t.Context(), repository.ListUsersParams{Page: 1, Limit: 3})
				require.NoError(t, err)
				require.EqualValues(t, 5, page.Total)
				require.Len(t, page.Users, 3)

				page, err = repo.ListUsers(t.Context(), repository.ListUsersParams{Page: 2, Limit: 3})
				require.NoError(t, err)
				require.EqualValues(t, 5, page.Total)
				require.Len(t, page.Users, 2)
			})
		})

		t.Run("page past the end is empty", func(t *testing.T) {
			testutil.WithTx(container.Pool, t, func(tx pgx.Tx) {
				repo := &UserRepo{DB: tx}
				createTestUser(t, tx, models.RoleUser)

				page, err := repo.ListUsers(t.Context(), repository.ListUsersParams{Page: 10, Limit: 20})

				require.NoError(t, err)
				require.Empty(t, page.Users)
				require.EqualValues(t, 1, page.Total)
			})
		})
	})

	t.Run("UpdateUserRole", func(t *testing.T) {
		t.Run("promotes user", func(t *testing.T) {
			testutil.WithTx(container.Pool, t, func(tx pgx.Tx) {
				repo := &UserRepo{DB: tx}
				created := createTestUser(t, tx, models.RoleUser)

				updated, err := repo.UpdateUserRole(t.Context(), created.ID, models.RoleAdmin)

				require.NoError(t, err)
				require.Equal(t, models.RoleAdmin, updated.Role)
			})
		})

		t.Run("not found", func(t *testing.T) {
			testutil.WithTx(container.Pool, t, func(tx pgx.Tx) {
				repo := &UserRepo{DB: tx}

				_, err := repo.UpdateUserRole(t.Context(), uuid.New(), models.RoleAdmin)
				require.ErrorIs(t, err, apperrors.ErrUserNotFound)
			})
		})
	})

	t.Run("DeleteUser", func(t *testing.T) {
		t.Run("deletes user and cascades owned rows", func(t *testing.T) {
			testutil.WithTx(container.Pool, t, func(tx pgx.Tx) {
				userRepo := &UserRepo{DB: tx}
				tokenRepo := &RefreshTokenRepo{DB: tx}
				taskRepo := &TaskRepo{DB: tx}

				user := createTestUser(t, tx, models.RoleUser)
				token, err := tokenRepo.Save(t.Context(), models.RefreshToken{
					UserID:    user.ID,
					Token:     "cascade-token",
					CreatedAt: time.Now(),
					ExpiresAt: time.Now().Add(time.Hour),
				})
				require.NoError(t, err)
				task, err := taskRepo.CreateTask(t.Context(), repository.CreateTaskParams{
					UserID: user.ID, Title: "Owned task", Status: models.TaskStatusTodo, Priority: models.TaskPriorityMedium,
				})
				require.NoError(t, err)

				require.NoError(t, userRepo.DeleteUser(t.Context(), user.ID))

				_, err = userRepo.GetUserByID(t.Context(), user.ID)
				require.ErrorIs(t, err, apperrors.ErrUserNotFound)
				_, err = tokenRepo.Get(t.Context(), token.Token)
				require.ErrorIs(t, err, apperrors.ErrRefreshTokenNotFound)
				_, err = taskRepo.GetTaskByID(t.Context(), task.ID)
				require.ErrorIs(t, err, apperrors.ErrTaskNotFound)
			})
		})

		t.Run("not found", func(t *testing.T) {
			testutil.WithTx(container.Pool, t, func(tx pgx.Tx) {
				repo := &UserRepo{DB: tx}

				err := repo.DeleteUser(t.Context(), uuid.New())
				require.ErrorIs(t, err, apperrors.ErrUserNotFound)
			})
		})
	})
}
