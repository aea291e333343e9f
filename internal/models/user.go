package models

import (
	"time"

	"github.com/google/uuid"
)

// User role
// Closed set: adding a role means revisiting every switch over Role
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Parse role string into Role
// Unknown values are reported, not coerced
func ParseRole(value string) (Role, bool) {
	switch Role(value) {
	case RoleUser:
		return RoleUser, true
	case RoleAdmin:
		return RoleAdmin, true
	default:
		return "", false
	}
}

func (r Role) String() string {
	return string(r)
}

type User struct {
	ID             uuid.UUID
	Email          string
	Name           string
	Role           Role
	HashedPassword string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
