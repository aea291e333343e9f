package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/nkiryanov/taskboard/internal/apperrors"
	"github.com/nkiryanov/taskboard/internal/handlers/render"
	"github.com/nkiryanov/taskboard/internal/handlers/userctx"
	"github.com/nkiryanov/taskboard/internal/logger"
	"github.com/nkiryanov/taskboard/internal/models"
)

// Auth service used by the handler
type authService interface {
	// Has to return apperrors.ErrUserAlreadyExists if the email is taken
	Register(ctx context.Context, email string, password string, name string) (models.User, models.TokenPair, error)

	// Has to return apperrors.ErrAuthenticationFailed on any credential failure
	Login(ctx context.Context, email string, password string) (models.User, models.TokenPair, error)

	// Rotate refresh token
	// Has to return apperrors.ErrAuthenticationFailed if the token is unknown,
	// revoked, expired or fails its signature check
	Refresh(ctx context.Context, refresh string) (models.TokenPair, error)

	// Revoke single token, idempotent
	Logout(ctx context.Context, refresh string) error

	// Revoke every active token the user owns
	LogoutAll(ctx context.Context, userID uuid.UUID) (int64, error)
}

type profileService interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (models.User, error)
}

type AuthHandler struct {
	auth    authService
	profile profileService
	logger  logger.Logger
}

func NewAuth(auth authService, profile profileService, l logger.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, profile: profile, logger: l}
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	type RegisterRequest struct {
		Email    string `json:"email" validate:"required,email,max=254"`
		Password string `json:"password" validate:"required,min=8,max=128"`
		Name     string `json:"name" validate:"required,min=1,max=100"`
	}
	type RegisterResponse struct {
		User   UserResponse   `json:"user"`
		Tokens TokensResponse `json:"tokens"`
	}

	data, err := render.BindAndValidate[RegisterRequest](w, r)
	if err != nil {
		return
	}

	user, pair, err := h.auth.Register(r.Context(), data.Email, data.Password, data.Name)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrUserAlreadyExists):
			render.Error(w, render.CodeConflict, "User with this email already exists", http.StatusConflict)
		default:
			h.logger.Error("registration failed", "error", err.Error())
			render.Error(w, render.CodeInternalError, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	render.JSONWithStatus(w, RegisterResponse{
		User:   toUserResponse(user),
		Tokens: toTokensResponse(pair),
	}, http.StatusCreated)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	type LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
	type LoginResponse struct {
		User   UserResponse   `json:"user"`
		Tokens TokensResponse `json:"tokens"`
	}

	data, err := render.BindAndValidate[LoginRequest](w, r)
	if err != nil {
		return
	}

	user, pair, err := h.auth.Login(r.Context(), data.Email, data.Password)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrAuthenticationFailed):
			// Same message for unknown email and wrong password
			render.Error(w, render.CodeAuthenticationFailed, "Invalid email or password", http.StatusUnauthorized)
		default:
			h.logger.Error("login failed", "error", err.Error())
			render.Error(w, render.CodeInternalError, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	render.JSON(w, LoginResponse{
		User:   toUserResponse(user),
		Tokens: toTokensResponse(pair),
	})
}

func (h *AuthHandler) refresh(w http.ResponseWriter, r *http.Request) {
	type RefreshRequest struct {
		RefreshToken string `json:"refreshToken" validate:"required"`
	}
	type RefreshResponse struct {
		Tokens TokensResponse `json:"tokens"`
	}

	data, err := render.BindAndValidate[RefreshRequest](w, r)
	if err != nil {
		return
	}

	pair, err := h.auth.Refresh(r.Context(), data.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrAuthenticationFailed):
			render.Error(w, render.CodeAuthenticationFailed, "Invalid refresh token", http.StatusUnauthorized)
		default:
			h.logger.Error("token refresh failed", "error", err.Error())
			render.Error(w, render.CodeInternalError, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	render.JSON(w, RefreshResponse{Tokens: toTokensResponse(pair)})
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	type LogoutRequest struct {
		RefreshToken string `json:"refreshToken" validate:"required"`
	}

	data, err := render.BindAndValidate[LogoutRequest](w, r)
	if err != nil {
		return
	}

	if err := h.auth.Logout(r.Context(), data.RefreshToken); err != nil {
		h.logger.Error("logout failed", "error", err.Error())
		render.Error(w, render.CodeInternalError, "Internal server error", http.StatusInternalServerError)
		return
	}

	render.Message(w, "Logged out successfully")
}

func (h *AuthHandler) logoutAll(w http.ResponseWriter, r *http.Request) {
	identity, ok := userctx.FromContext(r.Context())
	if !ok {
		render.Error(w, render.CodeAuthenticationFailed, "Authentication required", http.StatusUnauthorized)
		return
	}

	revoked, err := h.auth.LogoutAll(r.Context(), identity.UserID)
	if err != nil {
		h.logger.Error("logout all failed", "error", err.Error(), "user_id", identity.UserID)
		render.Error(w, render.CodeInternalError, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.Info("user logged out everywhere", "user_id", identity.UserID, "revoked", revoked)
	render.Message(w, "Logged out from all devices")
}

func (h *AuthHandler) getProfile(w http.ResponseWriter, r *http.Request) {
	type ProfileResponse struct {
		User UserResponse `json:"user"`
	}

	identity, ok := userctx.FromContext(r.Context())
	if !ok {
		render.Error(w, render.CodeAuthenticationFailed, "Authentication required", http.StatusUnauthorized)
		return
	}

	user, err := h.profile.GetProfile(r.Context(), identity.UserID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrUserNotFound):
			// Token is valid but the account is gone, treat as auth failure
			render.Error(w, render.CodeAuthenticationFailed, "User no longer exists", http.StatusUnauthorized)
		default:
			h.logger.Error("profile lookup failed", "error", err.Error(), "user_id", identity.UserID)
			render.Error(w, render.CodeInternalError, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	render.JSON(w, ProfileResponse{User: toUserResponse(user)})
}
