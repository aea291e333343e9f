package task

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/nkiryanov/taskboard/internal/apperrors"
	"github.com/nkiryanov/taskboard/internal/models"
	"github.com/nkiryanov/taskboard/internal/repository"
	"github.com/nkiryanov/taskboard/internal/service/auth/tokenmanager"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

type TaskService struct {
	taskRepo repository.TaskRepo
}

func NewService(taskRepo repository.TaskRepo) (*TaskService, error) {
	if taskRepo == nil {
		return nil, errors.New("task repo must not be nil")
	}

	return &TaskService{taskRepo: taskRepo}, nil
}

// Ownership rule shared by every task operation:
// the owner may touch the resource, and so may an admin
func canAccess(caller tokenmanager.Identity, ownerID uuid.UUID) bool {
	if caller.UserID == ownerID {
		return true
	}

	switch caller.Role {
	case models.RoleAdmin:
		return true
	case models.RoleUser:
		return false
	}

	return false
}

func (s *TaskService) Create(ctx context.Context, caller tokenmanager.Identity, params repository.CreateTaskParams) (models.Task, error) {
	// Tasks are always created for the caller, whatever the params say
	params.UserID = caller.UserID

	if params.Status == "" {
		params.Status = models.TaskStatusTodo
	}
	if params.Priority == "" {
		params.Priority = models.TaskPriorityMedium
	}

	return s.taskRepo.CreateTask(ctx, params)
}

func (s *TaskService) Get(ctx context.Context, caller tokenmanager.Identity, taskID uuid.UUID) (models.Task, error) {
	task, err := s.taskRepo.GetTaskByID(ctx, taskID)
	if err != nil {
		return task, err
	}

	if !canAccess(caller, task.UserID) {
		return models.Task{}, apperrors.ErrPermissionDenied
	}

	return task, nil
}

func (s *TaskService) Update(ctx context.Context, caller tokenmanager.Identity, taskID uuid.UUID, params repository.UpdateTaskParams) (models.Task, error) {
	task, err := s.taskRepo.GetTaskByID(ctx, taskID)
	if err != nil {
		return task, err
	}

	if !canAccess(caller, task.UserID) {
		return models.Task{}, apperrors.ErrPermissionDenied
	}

	return s.taskRepo.UpdateTask(ctx, taskID, params)
}

func (s *TaskService) Delete(ctx context.Context, caller tokenmanager.Identity, taskID uuid.UUID) error {
	task, err := s.taskRepo.GetTaskByID(ctx, taskID)
	if err != nil {
		return err
	}

	if !canAccess(caller, task.UserID) {
		return apperrors.ErrPermissionDenied
	}

	return s.taskRepo.DeleteTask(ctx, taskID)
}

// List tasks with filter, sort and pagination
// Non admin callers are always scoped to their own tasks
func (s *TaskService) List(ctx context.Context, caller tokenmanager.Identity, params repository.ListTasksParams) (repository.TasksPage, error) {
	switch caller.Role {
	case models.RoleAdmin:
		// Admin may list anyone's tasks, filter stays as requested
	case models.RoleUser:
		params.Filter.UserID = &caller.UserID
	default:
		return repository.TasksPage{}, apperrors.ErrPermissionDenied
	}

	params.Page, params.Limit = normalizePage(params.Page, params.Limit)

	return s.taskRepo.ListTasks(ctx, params)
}

func normalizePage(page int, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit
}
