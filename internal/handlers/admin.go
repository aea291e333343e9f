package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/nkiryanov/taskboard/internal/apperrors"
	"github.com/nkiryanov/taskboard/internal/handlers/render"
	"github.com/nkiryanov/taskboard/internal/handlers/userctx"
	"github.com/nkiryanov/taskboard/internal/logger"
	"github.com/nkiryanov/taskboard/internal/models"
	"github.com/nkiryanov/taskboard/internal/repository"
	"github.com/nkiryanov/taskboard/internal/service/auth/tokenmanager"
)

type adminUserService interface {
	List(ctx context.Context, params repository.ListUsersParams) (repository.UsersPage, error)

	// Has to return apperrors.ErrSelfRoleChange when the caller targets itself
	UpdateRole(ctx context.Context, caller tokenmanager.Identity, userID uuid.UUID, role models.Role) (models.User, error)

	// Has to return apperrors.ErrSelfDelete when the caller targets itself
	Delete(ctx context.Context, caller tokenmanager.Identity, userID uuid.UUID) error
}

// Admin endpoints: user management and cross-user task listing
// Routing guards them with RequireRoles(admin), the services enforce the
// self-protection invariants
type AdminHandler struct {
	users  adminUserService
	tasks  taskService
	logger logger.Logger
}

func NewAdmin(users adminUserService, tasks taskService, l logger.Logger) *AdminHandler {
	return &AdminHandler{users: users, tasks: tasks, logger: l}
}

func (h *AdminHandler) listUsers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page, _ := strconv.Atoi(query.Get("page"))
	limit, _ := strconv.Atoi(query.Get("limit"))

	usersPage, err := h.users.List(r.Context(), repository.ListUsersParams{Page: page, Limit: limit})
	if err != nil {
		h.logger.Error("user listing failed", "error", err.Error())
		render.Error(w, render.CodeInternalError, "Internal server error", http.StatusInternalServerError)
		return
	}

	render.JSON(w, toUsersPageResponse(usersPage))
}

func (h *AdminHandler) updateUserRole(w http.ResponseWriter, r *http.Request) {
	type UpdateRoleRequest struct {
		Role string `json:"role" validate:"required,oneof=user admin"`
	}
	type UpdateRoleResponse struct {
		User UserResponse `json:"user"`
	}

	identity, ok := userctx.FromContext(r.Context())
	if !ok {
		render.Error(w, render.CodeAuthenticationFailed, "Authentication required", http.StatusUnauthorized)
		return
	}

	userID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	data, err := render.BindAndValidate[UpdateRoleRequest](w, r)
	if err != nil {
		return
	}

	role, _ := models.ParseRole(data.Role) // validated by 'oneof' already

	user, err := h.users.UpdateRole(r.Context(), identity, userID, role)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrSelfRoleChange):
			render.Error(w, render.CodeAuthorizationFailed, "You cannot change your own role", http.StatusForbidden)
		case errors.Is(err, apperrors.ErrUserNotFound):
			render.Error(w, render.CodeNotFound, "User not found", http.StatusNotFound)
		default:
			h.logger.Error("role update failed", "error", err.Error(), "target_id", userID)
			render.Error(w, render.CodeInternalError, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	render.JSON(w, UpdateRoleResponse{User: toUserResponse(user)})
}

func (h *AdminHandler) deleteUser(w http.ResponseWriter, r *http.Request) {
	identity, ok := userctx.FromContext(r.Context())
	if !ok {
		render.Error(w, render.CodeAuthenticationFailed, "Authentication required", http.StatusUnauthorized)
		return
	}

	userID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.users.Delete(r.Context(), identity, userID); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrSelfDelete):
			render.Error(w, render.CodeAuthorizationFailed, "You cannot delete your own account", http.StatusForbidden)
		case errors.Is(err, apperrors.ErrUserNotFound):
			render.Error(w, render.CodeNotFound, "User not found", http.StatusNotFound)
		default:
			h.logger.Error("user deletion failed", "error", err.Error(), "target_id", userID)
			render.Error(w, render.CodeInternalError, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	h.logger.Info("user deleted by admin", "target_id", userID, "admin_id", identity.UserID)
	render.Message(w, "User deleted successfully")
}

// List every user's tasks
// Reuses the task service: the admin role makes the unscoped listing legal
func (h *AdminHandler) listTasks(w http.ResponseWriter, r *http.Request) {
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
		h.logger.Error("admin task listing failed", "error", err.Error())
		render.Error(w, render.CodeInternalError, "Internal server error", http.StatusInternalServerError)
		return
	}

	render.JSON(w, toTasksPageResponse(page))
}
