package models

import (
	"time"

	"github.com/google/uuid"
)

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusDone       TaskStatus = "done"
)

func ParseTaskStatus(value string) (TaskStatus, bool) {
	switch TaskStatus(value) {
	case TaskStatusTodo:
		return TaskStatusTodo, true
	case TaskStatusInProgress:
		return TaskStatusInProgress, true
	case TaskStatusDone:
		return TaskStatusDone, true
	default:
		return "", false
	}
}

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

func ParseTaskPriority(value string) (TaskPriority, bool) {
	switch TaskPriority(value) {
	case TaskPriorityLow:
		return TaskPriorityLow, true
	case TaskPriorityMedium:
		return TaskPriorityMedium, true
	case TaskPriorityHigh:
		return TaskPriorityHigh, true
	default:
		return "", false
	}
}

type Task struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Title       string
	Description string
	Status      TaskStatus
	Priority    TaskPriority
	DueDate     *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
