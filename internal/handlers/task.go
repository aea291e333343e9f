package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/taskboard/internal/apperrors"
	"github.com/nkiryanov/taskboard/internal/handlers/render"
	"github.com/nkiryanov/taskboard/internal/handlers/userctx"
	"github.com/nkiryanov/taskboard/internal/logger"
	"github.com/nkiryanov/taskboard/internal/models"
	"github.com/nkiryanov/taskboard/internal/repository"
	"github.com/nkiryanov/taskboard/internal/service/auth/tokenmanager"
)

type taskService interface {
	Create(ctx context.Context, caller tokenmanager.Identity, params repository.CreateTaskParams) (models.Task, error)
	Get(ctx context.Context, caller tokenmanager.Identity, taskID uuid.UUID) (models.Task, error)
	Update(ctx context.Context, caller tokenmanager.Identity, taskID uuid.UUID, params repository.UpdateTaskParams) (models.Task, error)
	Delete(ctx context.Context, caller tokenmanager.Identity, taskID uuid.UUID) error
	List(ctx context.Context, caller tokenmanager.Identity, params repository.ListTasksParams) (repository.TasksPage, error)
}

type TaskHandler struct {
	tasks  taskService
	logger logger.Logger
}

func NewTask(tasks taskService, l logger.Logger) *TaskHandler {
	return &TaskHandler{tasks: tasks, logger: l}
}

func (h *TaskHandler) create(w http.ResponseWriter, r *http.Request) {
	type CreateTaskRequest struct {
		Title       string     `json:"title" validate:"required,min=1,max=200"`
		Description string     `json:"description" validate:"max=2000"`
		Status      string     `json:"status" validate:"omitempty,oneof=todo in_progress done"`
		Priority    string     `json:"priority" validate:"omitempty,oneof=low medium high"`
		DueDate     *time.Time `json:"dueDate"`
	}
	type CreateTaskResponse struct {
		Task TaskResponse `json:"task"`
	}

	identity, ok := userctx.FromContext(r.Context())
	if !ok {
		render.Error(w, render.CodeAuthenticationFailed, "Authentication required", http.StatusUnauthorized)
		return
	}

	data, err := render.BindAndValidate[CreateTaskRequest](w, r)
	if err != nil {
		return
	}

	task, err := h.tasks.Create(r.Context(), identity, repository.CreateTaskParams{
		Title:       data.Title,
		Description: data.Description,
		Status:      models.TaskStatus(data.Status),
		Priority:    models.TaskPriority(data.Priority),
		DueDate:     data.DueDate,
	})
	if err != nil {
		h.logger.Error("task creation failed", "error", err.Error(), "user_id", identity.UserID)
		render.Error(w, render.CodeInternalError, "Internal server error", http.StatusInternalServerError)
		return
	}

	render.JSONWithStatus(w, CreateTaskResponse{Task: toTaskResponse(task)}, http.StatusCreated)
}

func (h *TaskHandler) get(w http.ResponseWriter, r *http.Request) {
	type GetTaskResponse struct {
		Task TaskResponse `json:"task"`
	}

	identity, ok := userctx.FromContext(r.Context())
	if !ok {
		render.Error(w, render.CodeAuthenticationFailed, "Authentication required", http.StatusUnauthorized)
		return
	}

	taskID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	task, err := h.tasks.Get(r.Context(), identity, taskID)
	if err != nil {
		h.renderTaskError(w, err, identity)
		return
	}

	render.JSON(w, GetTaskResponse{Task: toTaskResponse(task)})
}

func (h *TaskHandler) update(w http.ResponseWriter, r *http.Request) {
	type UpdateTaskRequest struct {
		Title       *string    `json:"title" validate:"omitempty,min=1,max=200"`
		Description *string    `json:"description" validate:"omitempty,max=2000"`
		Status      *string    `json:"status" validate:"omitempty,oneof=todo in_progress done"`
		Priority    *string    `json:"priority" validate:"omitempty,oneof=low medium high"`
		DueDate     *time.Time `json:"dueDate"`
	}
	type UpdateTaskResponse struct {
		Task TaskResponse `json:"task"`
	}

	identity, ok := userctx.FromContext(r.Context())
	if !ok {
		render.Error(w, render.CodeAuthenticationFailed, "Authentication required", http.StatusUnauthorized)
		return
	}

	taskID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	data, err := render.BindAndValidate[UpdateTaskRequest](w, r)
	if err != nil {
		return
	}

	params := repository.UpdateTaskParams{
		Title:       data.Title,
		Description: data.Description,
		DueDate:     data.DueDate,
	}
	if data.Status != nil {
		status, _ := models.ParseTaskStatus(*data.Status) // validated by 'oneof' already
		params.Status = &status
	}
	if data.Priority != nil {
		priority, _ := models.ParseTaskPriority(*data.Priority)
		params.Priority = &priority
	}

	task, err := h.tasks.Update(r.Context(), identity, taskID, params)
	if err != nil {
		h.renderTaskError(w, err, identity)
		return
	}

	render.JSON(w, UpdateTaskResponse{Task: toTaskResponse(task)})
}

func (h *TaskHandler) delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := userctx.FromContext(r.Context())
	if !ok {
		render.Error(w, render.CodeAuthenticationFailed, "Authentication required", http.StatusUnauthorized)
		return
	}

	taskID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.tasks.Delete(r.Context(), identity, taskID); err != nil {
		h.renderTaskError(w, err, identity)
		return
	}

	render.Message(w, "Task deleted successfully")
}

func (h *TaskHandler) list(w http.ResponseWriter, r *http.Request) {
	identity, ok := userctx.FromContext(r.Context())
	if !ok {
		render.Error(w, render.CodeAuthenticationFailed, "Authentication required", http.StatusUnauthorized)
		return
	}

	params, ok := taskListParams(w, r)
	if !ok {
		return
	}

	page, err := h.tasks.List(r.Context(), identity, params)
	if err != nil {
		h.renderTaskError(w, err, identity)
		return
	}

	render.JSON(w, toTasksPageResponse(page))
}

func (h *TaskHandler) renderTaskError(w http.ResponseWriter, err error, identity tokenmanager.Identity) {
	switch {
	case errors.Is(err, apperrors.ErrTaskNotFound):
		render.Error(w, render.CodeNotFound, "Task not found", http.StatusNotFound)
	case errors.Is(err, apperrors.ErrPermissionDenied):
		render.Error(w, render.CodeAuthorizationFailed, "You don't have access to this task", http.StatusForbidden)
	default:
		h.logger.Error("task operation failed", "error", err.Error(), "user_id", identity.UserID)
		render.Error(w, render.CodeInternalError, "Internal server error", http.StatusInternalServerError)
	}
}

// Parse task id from the url path
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		render.Error(w, render.CodeValidationFailed, "Invalid id in path", http.StatusBadRequest)
		return uuid.Nil, false
	}

	return id, true
}

// Parse filter, sort and pagination from list query params
// Unknown enum values fail loudly instead of returning unfiltered results
func taskListParams(w http.ResponseWriter, r *http.Request) (repository.ListTasksParams, bool) {
	var params repository.ListTasksParams
	query := r.URL.Query()

	if value := query.Get("status"); value != "" {
		status, ok := models.ParseTaskStatus(value)
		if !ok {
			render.Error(w, render.CodeValidationFailed, "Unknown status filter", http.StatusBadRequest)
			return params, false
		}
		params.Filter.Status = &status
	}

	if value := query.Get("priority"); value != "" {
		priority, ok := models.ParseTaskPriority(value)
		if !ok {
			render.Error(w, render.CodeValidationFailed, "Unknown priority filter", http.StatusBadRequest)
			return params, false
		}
		params.Filter.Priority = &priority
	}

	// Owner filter is honored for admins only, the service scopes everyone else
	if value := query.Get("userId"); value != "" {
		userID, err := uuid.Parse(value)
		if err != nil {
			render.Error(w, render.CodeValidationFailed, "Invalid userId filter", http.StatusBadRequest)
			return params, false
		}
		params.Filter.UserID = &userID
	}

	params.Sort.Field = query.Get("sort")
	params.Sort.Desc = query.Get("order") == "desc"

	params.Page, _ = strconv.Atoi(query.Get("page"))
	params.Limit, _ = strconv.Atoi(query.Get("limit"))

	return params, true
}
