package user

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

// Admin facing user management plus profile lookup
type UserService struct {
	userRepo repository.UserRepo
}

func NewService(userRepo repository.UserRepo) (*UserService, error) {
	if userRepo == nil {
		return nil, errors.New("user repo must not be nil")
	}

	return &UserService{userRepo: userRepo}, nil
}

func (s *UserService) GetProfile(ctx context.Context, userID uuid.UUID) (models.User, error) {
	return s.userRepo.GetUserByID(ctx, userID)
}

func (s *UserService) List(ctx context.Context, params repository.ListUsersParams) (repository.UsersPage, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 {
		params.Limit = defaultPageLimit
	}
	if params.Limit > maxPageLimit {
		params.Limit = maxPageLimit
	}

	return s.userRepo.ListUsers(ctx, params)
}

// Change user role
// An admin must not change their own role: demoting the last admin by
// accident locks everyone out
func (s *UserService) UpdateRole(ctx context.Context, caller tokenmanager.Identity, userID uuid.UUID, role models.Role) (models.User, error) {
	if caller.UserID == userID {
		return models.User{}, apperrors.ErrSelfRoleChange
	}

	return s.userRepo.UpdateUserRole(ctx, userID, role)
}

// Delete user account
// Self deletion through the admin path is rejected
func (s *UserService) Delete(ctx context.Context, caller tokenmanager.Identity, userID uuid.UUID) error {
	if caller.UserID == userID {
		return apperrors.ErrSelfDelete
	}

	return s.userRepo.DeleteUser(ctx, userID)
}
