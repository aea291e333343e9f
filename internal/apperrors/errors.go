package apperrors

import (
	"errors"
)

var (
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")

	// Single error for bad login, wrong password or unknown email
	// Never split it: distinct errors allow user enumeration
	ErrAuthenticationFailed = errors.New("authentication failed")

	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrRefreshTokenRevoked  = errors.New("refresh token is revoked")
	ErrRefreshTokenExpired  = errors.New("refresh token is expired")
	ErrRefreshTokenInvalid  = errors.New("refresh token is invalid")

	ErrAccessTokenExpired = errors.New("access token is expired")
	ErrAccessTokenInvalid = errors.New("access token is invalid")

	// Authenticated but not allowed to touch the resource
	ErrPermissionDenied = errors.New("permission denied")

	ErrTaskNotFound = errors.New("task not found")

	// Admin self-protection: own role or own account via the admin path
	ErrSelfRoleChange = errors.New("admin cannot change own role")
	ErrSelfDelete     = errors.New("admin cannot delete own account")
)
