package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nkiryanov/taskboard/internal/apperrors"
	"github.com/nkiryanov/taskboard/internal/models"
	"github.com/nkiryanov/taskboard/internal/repository"
)

type TaskRepo struct {
	DB DBTX
}

const createTask = `-- name: CreateTask
INSERT INTO tasks (id, user_id, title, description, status, priority, due_date)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, user_id, title, description, status, priority, due_date, created_at, updated_at
`

func (r *TaskRepo) CreateTask(ctx context.Context, params repository.CreateTaskParams) (models.Task, error) {
	rows, _ := r.DB.Query(ctx, createTask,
		uuid.New(), params.UserID, params.Title, params.Description, params.Status, params.Priority, params.DueDate,
	)
	task, err := pgx.CollectOneRow(rows, rowToTask)
	if err != nil {
		return task, fmt.Errorf("db error: %w", err)
	}

	return task, nil
}

const getTaskByID = `-- name: GetTaskByID
SELECT id, user_id, title, description, status, priority, due_date, created_at, updated_at
FROM tasks
WHERE id = $1
`

func (r *TaskRepo) GetTaskByID(ctx context.Context, taskID uuid.UUID) (models.Task, error) {
	rows, _ := r.DB.Query(ctx, getTaskByID, taskID)
	task, err := pgx.CollectOneRow(rows, rowToTask)

	switch {
	case err == nil:
		return task, nil
	case errors.Is(err, pgx.ErrNoRows):
		return task, apperrors.ErrTaskNotFound
	default:
		return task, fmt.Errorf("db error: %w", err)
	}
}

const updateTask = `-- name: UpdateTask
UPDATE tasks
SET title       = COALESCE($2, title),
    description = COALESCE($3, description),
    status      = COALESCE($4, status),
    priority    = COALESCE($5, priority),
    due_date    = COALESCE($6, due_date),
    updated_at  = now()
WHERE id = $1
RETURNING id, user_id, title, description, status, priority, due_date, created_at, updated_at
`

func (r *TaskRepo) UpdateTask(ctx context.Context, taskID uuid.UUID, params repository.UpdateTaskParams) (models.Task, error) {
	rows, _ := r.DB.Query(ctx, updateTask,
		taskID, params.Title, params.Description, params.Status, params.Priority, params.DueDate,
	)
	task, err := pgx.CollectOneRow(rows, rowToTask)

	switch {
	case err == nil:
		return task, nil
	case errors.Is(err, pgx.ErrNoRows):
		return task, apperrors.ErrTaskNotFound
	default:
		return task, fmt.Errorf("db error: %w", err)
	}
}

const deleteTask = `-- name: DeleteTask
DELETE FROM tasks
WHERE id = $1
`

func (r *TaskRepo) DeleteTask(ctx context.Context, taskID uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, deleteTask, taskID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return apperrors.ErrTaskNotFound
	}

	return nil
}

func (r *TaskRepo) ListTasks(ctx context.Context, params repository.ListTasksParams) (repository.TasksPage, error) {
	page := repository.TasksPage{Page: params.Page, Limit: params.Limit}

	where, args := buildTaskFilter(params.Filter)

	rows, _ := r.DB.Query(ctx, "SELECT count(*) FROM tasks"+where, args...)
	total, err := pgx.CollectOneRow(rows, pgx.RowTo[int64])
	if err != nil {
		return page, fmt.Errorf("db error: %w", err)
	}
	page.Total = total

	query := "SELECT id, user_id, title, description, status, priority, due_date, created_at, updated_at FROM tasks" +
		where +
		" ORDER BY " + taskOrderBy(params.Sort) +
		" LIMIT $" + strconv.Itoa(len(args)+1) +
		" OFFSET $" + strconv.Itoa(len(args)+2)
	args = append(args, params.Limit, (params.Page-1)*params.Limit)

	rows, _ = r.DB.Query(ctx, query, args...)
	tasks, err := pgx.CollectRows(rows, rowToTask)
	if err != nil {
		return page, fmt.Errorf("db error: %w", err)
	}
	page.Tasks = tasks

	return page, nil
}

// Build WHERE clause with positional args for the filter
func buildTaskFilter(filter repository.TaskFilter) (string, []any) {
	conditions := make([]string, 0, 3)
	args := make([]any, 0, 3)

	addCondition := func(column string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if filter.UserID != nil {
		addCondition("user_id", *filter.UserID)
	}
	if filter.Status != nil {
		addCondition("status", *filter.Status)
	}
	if filter.Priority != nil {
		addCondition("priority", *filter.Priority)
	}

	if len(conditions) == 0 {
		return "", args
	}

	return " WHERE " + strings.Join(conditions, " AND "), args
}

// Map sort params to ORDER BY expression
// Only known fields are allowed, everything else falls back to created_at
// Never interpolate user input here directly
func taskOrderBy(sort repository.TaskSort) string {
	var field string
	switch sort.Field {
	case "due_date":
		field = "due_date"
	case "priority":
		// Enum has no natural lexical order, map it explicitly
		field = "CASE priority WHEN 'low' THEN 1 WHEN 'medium' THEN 2 WHEN 'high' THEN 3 END"
	default:
		field = "created_at"
	}

	direction := "ASC"
	if sort.Desc {
		direction = "DESC"
	}

	return field + " " + direction
}

func rowToTask(row pgx.CollectableRow) (models.Task, error) {
	var t models.Task
	err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.Status, &t.Priority, &t.DueDate, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}
