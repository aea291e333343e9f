package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/taskboard/internal/apperrors"
	"github.com/nkiryanov/taskboard/internal/models"
	"github.com/nkiryanov/taskboard/internal/repository"
	"github.com/nkiryanov/taskboard/internal/service/auth/tokenmanager"
)

// Interface to create or compare user password hashes
type PasswordHasher interface {
	// Generate Hash from password
	Hash(password string) (string, error)

	// Compare known hashedPassword and user provided password
	// Must be protected against timing attacks
	Compare(hashedPassword string, password string) error
}

type Config struct {
	// Hasher to use during registration or login
	// BcryptHasher with the given cost is used if not set
	Hasher PasswordHasher

	// Bcrypt work factor for the default hasher
	BcryptCost int
}

type AuthService struct {
	// Manager to issue and verify token pairs (access and refresh)
	token *tokenmanager.TokenManager

	// hasher to hash or compare user passwords
	hasher PasswordHasher

	storage repository.Storage
}

func NewService(cfg Config, token *tokenmanager.TokenManager, storage repository.Storage) (*AuthService, error) {
	hasher := cfg.Hasher
	if hasher == nil {
		hasher = BcryptHasher{Cost: cfg.BcryptCost}
	}

	if token == nil {
		return nil, errors.New("token manager must not be nil")
	}
	if storage == nil {
		return nil, errors.New("storage must not be nil")
	}

	return &AuthService{
		token:   token,
		hasher:  hasher,
		storage: storage,
	}, nil
}

// Register new user with default 'user' role and issue the first token pair
// The user row and its first refresh token land together or not at all
// Returns apperrors.ErrUserAlreadyExists if the email is taken (case insensitive)
func (s *AuthService) Register(ctx context.Context, email string, password string, name string) (models.User, models.TokenPair, error) {
	var user models.User
	var pair models.TokenPair

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return models.User{}, pair, fmt.Errorf("can't use this as password, error=%w", err)
	}

	err = s.storage.InTx(ctx, func(st repository.Storage) error {
		created, err := st.User().CreateUser(ctx, repository.CreateUserParams{
			Email:          email,
			Name:           name,
			Role:           models.RoleUser,
			HashedPassword: hash,
		})
		if err != nil {
			return err
		}

		issued, err := s.issuePair(ctx, st.Refresh(), created)
		if err != nil {
			return err
		}

		user = created
		pair = issued
		return nil
	})
	if err != nil {
		return models.User{}, models.TokenPair{}, err
	}

	return user, pair, nil
}

// Login with email and password
// Unknown email and wrong password fail with the same error: distinct
// failures would let a caller probe which emails are registered
func (s *AuthService) Login(ctx context.Context, email string, password string) (models.User, models.TokenPair, error) {
	var pair models.TokenPair

	user, err := s.storage.User().GetUserByEmail(ctx, email)
	if err != nil {
		// Burn comparable time on a throwaway hash so unknown emails
		// are not distinguishable by response timing either
		_ = s.hasher.Compare("$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5B0q1cVDuBjWmVZpVCEWmFm1l1nK6", password)
		return models.User{}, pair, apperrors.ErrAuthenticationFailed
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		return models.User{}, pair, apperrors.ErrAuthenticationFailed
	}

	pair, err = s.issuePair(ctx, s.storage.Refresh(), user)
	if err != nil {
		return models.User{}, pair, err
	}

	return user, pair, nil
}

// Refresh exchanges a valid refresh token for a brand new pair
// The presented token is revoked in the process: refresh tokens are single use,
// so a stolen token works at most once before rotation invalidates it
func (s *AuthService) Refresh(ctx context.Context, refresh string) (models.TokenPair, error) {
	var pair models.TokenPair
	refreshRepo := s.storage.Refresh()

	// Store-level check first: unknown, revoked and expired tokens all fail
	// the same way, independently of the signature check below
	stored, err := refreshRepo.Get(ctx, refresh)
	if err != nil {
		return pair, fmt.Errorf("%w: %w", apperrors.ErrAuthenticationFailed, err)
	}

	if !stored.Active(time.Now()) {
		return pair, apperrors.ErrAuthenticationFailed
	}

	// Independent cryptographic check
	// A stored token failing its own signature means the store holds something
	// we never signed: revoke it so it can not be probed again
	userID, err := s.token.ParseRefresh(refresh)
	if err != nil || userID != stored.UserID {
		_, _ = refreshRepo.GetAndRevoke(ctx, refresh)
		return pair, apperrors.ErrAuthenticationFailed
	}

	// Rotate-on-use: revoke the current token before issuing the next pair.
	// The two writes are not transactional on purpose: a crash in between
	// leaves the user with no valid refresh token, which forces re-login
	// instead of opening a replay window
	if _, err := refreshRepo.GetAndRevoke(ctx, refresh); err != nil {
		return pair, fmt.Errorf("%w: %w", apperrors.ErrAuthenticationFailed, err)
	}

	user, err := s.storage.User().GetUserByID(ctx, userID)
	if err != nil {
		return pair, fmt.Errorf("%w: %w", apperrors.ErrAuthenticationFailed, err)
	}

	return s.issuePair(ctx, refreshRepo, user)
}

// Logout revokes a single refresh token
// Idempotent: revoking an unknown or already revoked token is not an error
func (s *AuthService) Logout(ctx context.Context, refresh string) error {
	_, err := s.storage.Refresh().GetAndRevoke(ctx, refresh)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, apperrors.ErrRefreshTokenNotFound), errors.Is(err, apperrors.ErrRefreshTokenRevoked):
		return nil
	default:
		return err
	}
}

// LogoutAll revokes every active refresh token the user owns
// Used for "log out everywhere" and as a response to suspected compromise
func (s *AuthService) LogoutAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.storage.Refresh().RevokeAllForUser(ctx, userID)
}

// Authenticate verifies the access token and returns the decoded identity
// No storage lookup happens here: the token is self contained
func (s *AuthService) Authenticate(ctx context.Context, access string) (tokenmanager.Identity, error) {
	return s.token.ParseAccess(access)
}

// Generate pair and persist the refresh part with its expiry
func (s *AuthService) issuePair(ctx context.Context, refreshRepo repository.RefreshTokenRepo, user models.User) (models.TokenPair, error) {
	pair, err := s.token.GeneratePair(user)
	if err != nil {
		return pair, fmt.Errorf("token could not be generated, sorry. %w", err)
	}

	_, err = refreshRepo.Save(ctx, models.RefreshToken{
		UserID:    user.ID,
		Token:     pair.Refresh.Value,
		CreatedAt: time.Now().Truncate(time.Second),
		ExpiresAt: pair.Refresh.ExpiresAt,
	})
	if err != nil {
		return pair, fmt.Errorf("error while saving refresh token. Err: %w", err)
	}

	return pair, nil
}
