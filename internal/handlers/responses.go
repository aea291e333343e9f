package handlers

import (
	"time"

	"github.com/nkiryanov/taskboard/internal/models"
	"github.com/nkiryanov/taskboard/internal/repository"
)

// Sanitized user: the password hash never leaves the service boundary
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toUserResponse(u models.User) UserResponse {
	return UserResponse{
		ID:        u.ID.String(),
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role.String(),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

type TokensResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func toTokensResponse(pair models.TokenPair) TokensResponse {
	return TokensResponse{
		AccessToken:  pair.Access.Value,
		RefreshToken: pair.Refresh.Value,
	}
}

type TaskResponse struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func toTaskResponse(t models.Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID.String(),
		UserID:      t.UserID.String(),
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		DueDate:     t.DueDate,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

type TasksPageResponse struct {
	Tasks []TaskResponse `json:"tasks"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

func toTasksPageResponse(page repository.TasksPage) TasksPageResponse {
	tasks := make([]TaskResponse, 0, len(page.Tasks))
	for _, t := range page.Tasks {
		tasks = append(tasks, toTaskResponse(t))
	}

	return TasksPageResponse{
		Tasks: tasks,
		Total: page.Total,
		Page:  page.Page,
		Limit: page.Limit,
	}
}

type UsersPageResponse struct {
	Users []UserResponse `json:"users"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

func toUsersPageResponse(page repository.UsersPage) UsersPageResponse {
	users := make([]UserResponse, 0, len(page.Users))
	for _, u := range page.Users {
		users = append(users, toUserResponse(u))
	}

	return UsersPageResponse{
		Users: users,
		Total: page.Total,
		Page:  page.Page,
		Limit: page.Limit,
	}
}
