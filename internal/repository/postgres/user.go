package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nkiryanov/taskboard/internal/apperrors"
	"github.com/nkiryanov/taskboard/internal/models"
	"github.com/nkiryanov/taskboard/internal/repository"
)

type UserRepo struct {
	DB DBTX
}

const createUser = `-- name: CreateUser
INSERT INTO users (id, email, name, role, password_hash)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, email, name, role, password_hash, created_at, updated_at
`

func (r *UserRepo) CreateUser(ctx context.Context, params repository.CreateUserParams) (models.User, error) {
	email := strings.ToLower(strings.TrimSpace(params.Email))

	rows, _ := r.DB.Query(ctx, createUser, uuid.New(), email, params.Name, params.Role, params.HashedPassword)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return user, apperrors.ErrUserAlreadyExists
		}

		return user, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

const getUserByID = `-- name: GetUserByID
SELECT id, email, name, role, password_hash, created_at, updated_at
FROM users
WHERE id = $1
`

func (r *UserRepo) GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByID, userID)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, apperrors.ErrUserNotFound
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

const getUserByEmail = `-- name: GetUserByEmail
SELECT id, email, name, role, password_hash, created_at, updated_at
FROM users
WHERE lower(email) = lower($1)
`

func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByEmail, email)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, apperrors.ErrUserNotFound
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

const countUsers = `-- name: CountUsers
SELECT count(*) FROM users
`

const listUsers = `-- name: ListUsers
SELECT id, email, name, role, password_hash, created_at, updated_at
FROM users
ORDER BY created_at DESC
LIMIT $1 OFFSET $2
`

func (r *UserRepo) ListUsers(ctx context.Context, params repository.ListUsersParams) (repository.UsersPage, error) {
	page := repository.UsersPage{Page: params.Page, Limit: params.Limit}

	rows, _ := r.DB.Query(ctx, countUsers)
	total, err := pgx.CollectOneRow(rows, pgx.RowTo[int64])
	if err != nil {
		return page, fmt.Errorf("db error: %w", err)
	}
	page.Total = total

	offset := (params.Page - 1) * params.Limit
	rows, _ = r.DB.Query(ctx, listUsers, params.Limit, offset)
	users, err := pgx.CollectRows(rows, rowToUser)
	if err != nil {
		return page, fmt.Errorf("db error: %w", err)
	}
	page.Users = users

	return page, nil
}

const updateUserRole = `-- name: UpdateUserRole
UPDATE users
SET role = $2, updated_at = now()
WHERE id = $1
RETURNING id, email, name, role, password_hash, created_at, updated_at
`

func (r *UserRepo) UpdateUserRole(ctx context.Context, userID uuid.UUID, role models.Role) (models.User, error) {
	rows, _ := r.DB.Query(ctx, updateUserRole, userID, role)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, apperrors.ErrUserNotFound
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

const deleteUser = `-- name: DeleteUser
DELETE FROM users
WHERE id = $1
`

func (r *UserRepo) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, deleteUser, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}

	return nil
}

func rowToUser(row pgx.CollectableRow) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.HashedPassword, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}
