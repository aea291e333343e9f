package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/taskboard/internal/models"
)

type CreateUserParams struct {
	Email          string
	Name           string
	Role           models.Role
	HashedPassword string
}

type ListUsersParams struct {
	Page  int
	Limit int
}

type UsersPage struct {
	Users []models.User
	Total int64
	Page  int
	Limit int
}

// User repository interface
type UserRepo interface {
	// Create user
	// Emails are stored lowercased; duplicate email has to return apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, params CreateUserParams) (models.User, error)

	// Get user by id or email (case insensitive)
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)

	// List users ordered by creation time, newest first
	ListUsers(ctx context.Context, params ListUsersParams) (UsersPage, error)

	// Change user role
	// If user not found must return apperrors.ErrUserNotFound
	UpdateUserRole(ctx context.Context, userID uuid.UUID, role models.Role) (models.User, error)

	// Delete user and cascade own tasks and refresh tokens
	DeleteUser(ctx context.Context, userID uuid.UUID) error
}

// RefreshToken repository interface
type RefreshTokenRepo interface {
	// Persist token
	Save(ctx context.Context, token models.RefreshToken) (models.RefreshToken, error)

	// Return the token even if it revoked or expired
	Get(ctx context.Context, tokenString string) (models.RefreshToken, error)

	// Revoke the token if it still active
	// Must not overwrite existing 'revokedAt'
	// If the token is revoked already must return apperrors.ErrRefreshTokenRevoked
	// If the token not found must return apperrors.ErrRefreshTokenNotFound
	GetAndRevoke(ctx context.Context, tokenString string) (models.RefreshToken, error)

	// Revoke every active token owned by the user, return how many were revoked
	RevokeAllForUser(ctx context.Context, userID uuid.UUID) (int64, error)

	// Garbage collection: physically delete tokens expired before the given time
	// Expired tokens are unusable anyway, so this is not correctness critical
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type CreateTaskParams struct {
	UserID      uuid.UUID
	Title       string
	Description string
	Status      models.TaskStatus
	Priority    models.TaskPriority
	DueDate     *time.Time
}

// Fields with nil are left unchanged
type UpdateTaskParams struct {
	Title       *string
	Description *string
	Status      *models.TaskStatus
	Priority    *models.TaskPriority
	DueDate     *time.Time
}

type TaskFilter struct {
	// Scope to single owner, nil means all users (admin listing)
	UserID   *uuid.UUID
	Status   *models.TaskStatus
	Priority *models.TaskPriority
}

// Sort fields are a closed set checked by the repo, unknown field falls back to created_at
type TaskSort struct {
	Field string
	Desc  bool
}

type ListTasksParams struct {
	Filter TaskFilter
	Sort   TaskSort
	Page   int
	Limit  int
}

type TasksPage struct {
	Tasks []models.Task
	Total int64
	Page  int
	Limit int
}

// Task repository interface
type TaskRepo interface {
	CreateTask(ctx context.Context, params CreateTaskParams) (models.Task, error)

	// If task not found must return apperrors.ErrTaskNotFound
	GetTaskByID(ctx context.Context, taskID uuid.UUID) (models.Task, error)
	UpdateTask(ctx context.Context, taskID uuid.UUID, params UpdateTaskParams) (models.Task, error)
	DeleteTask(ctx context.Context, taskID uuid.UUID) error

	ListTasks(ctx context.Context, params ListTasksParams) (TasksPage, error)
}

// Aggregate access to every repo sharing the same connection or transaction
type Storage interface {
	User() UserRepo
	Refresh() RefreshTokenRepo
	Task() TaskRepo

	// Run fn within database transaction
	InTx(ctx context.Context, fn func(Storage) error) error
}
