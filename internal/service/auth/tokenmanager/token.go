package tokenmanager

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/nkiryanov/taskboard/internal/apperrors"
	"github.com/nkiryanov/taskboard/internal/models"
)

const (
	defaultAccessTokenTTL  = 15 * time.Minute
	defaultRefreshTokenTTL = 7 * 24 * time.Hour
	defaultSigningMethod   = "HS256"

	refreshTokenType = "refresh"
)

type AccessTokenClaims struct {
	jwt.RegisteredClaims
	UserID uuid.UUID   `json:"uid"`
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
}

type RefreshTokenClaims struct {
	jwt.RegisteredClaims
	UserID    uuid.UUID `json:"uid"`
	TokenType string    `json:"type"`
}

// Identity decoded from a valid access token
// Verifiable without any storage lookup
type Identity struct {
	UserID uuid.UUID
	Email  string
	Role   models.Role
}

type Config struct {
	// Secret to sign access tokens
	// Required to be set
	AccessSecret string

	// Separate secret for refresh tokens so leaking one key
	// does not compromise the other token class
	// Required to be set
	RefreshSecret string

	// JWT MAC (Message Authentication Code) algorithm
	// If not set than default is used
	Alg string

	// Access and refresh token lifetimes
	// If not set than default is used
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Stateless token manager: pure function of secrets, clock and TTL config
type TokenManager struct {
	accessKey  string
	refreshKey string

	alg jwt.SigningMethod

	accessTTL  time.Duration
	refreshTTL time.Duration
}

func New(cfg Config) (*TokenManager, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("access and refresh secrets must not be empty")
	}

	if cfg.Alg == "" {
		cfg.Alg = defaultSigningMethod
	}

	setDefaultDuration := func(field *time.Duration, def time.Duration) {
		if *field == 0 {
			*field = def
		}
	}
	setDefaultDuration(&cfg.AccessTTL, defaultAccessTokenTTL)
	setDefaultDuration(&cfg.RefreshTTL, defaultRefreshTokenTTL)

	return &TokenManager{
		accessKey:  cfg.AccessSecret,
		refreshKey: cfg.RefreshSecret,
		alg:        jwt.GetSigningMethod(cfg.Alg),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
	}, nil
}

func (m *TokenManager) RefreshTTL() time.Duration {
	return m.refreshTTL
}

// Issue signed access and refresh tokens for the user
// Nothing is persisted here: the caller owns the refresh token lifecycle
func (m *TokenManager) GeneratePair(user models.User) (models.TokenPair, error) {
	var pair models.TokenPair
	now := time.Now().Truncate(time.Second)
	accessExpiresAt := now.Add(m.accessTTL)
	refreshExpiresAt := now.Add(m.refreshTTL)

	accessToken := jwt.NewWithClaims(
		m.alg,
		AccessTokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        uuid.NewString(),
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(accessExpiresAt),
			},
			UserID: user.ID,
			Email:  user.Email,
			Role:   user.Role,
		},
	)
	access, err := accessToken.SignedString([]byte(m.accessKey))
	if err != nil {
		return pair, fmt.Errorf("error while signing access token. Err: %w", err)
	}

	refreshToken := jwt.NewWithClaims(
		m.alg,
		RefreshTokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        uuid.NewString(),
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(refreshExpiresAt),
			},
			UserID:    user.ID,
			TokenType: refreshTokenType,
		},
	)
	refresh, err := refreshToken.SignedString([]byte(m.refreshKey))
	if err != nil {
		return pair, fmt.Errorf("error while signing refresh token. Err: %w", err)
	}

	return models.TokenPair{
		Access:  models.IssuedToken{Value: access, ExpiresAt: accessExpiresAt},
		Refresh: models.IssuedToken{Value: refresh, ExpiresAt: refreshExpiresAt},
	}, nil
}

// Parse and validate access token
// Expired tokens are reported distinctly from tampered or malformed ones:
// the client silently refreshes on expiry but must re-login on invalid
func (m *TokenManager) ParseAccess(access string) (Identity, error) {
	claims := &AccessTokenClaims{}
	_, err := jwt.ParseWithClaims(
		access,
		claims,
		func(t *jwt.Token) (any, error) { return []byte(m.accessKey), nil },
		jwt.WithValidMethods([]string{m.alg.Alg()}),
	)

	switch {
	case err == nil:
		return Identity{UserID: claims.UserID, Email: claims.Email, Role: claims.Role}, nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return Identity{}, fmt.Errorf("%w: %w", apperrors.ErrAccessTokenExpired, err)
	default:
		return Identity{}, fmt.Errorf("%w: %w", apperrors.ErrAccessTokenInvalid, err)
	}
}

// Parse and validate refresh token signature with the refresh secret only
func (m *TokenManager) ParseRefresh(refresh string) (userID uuid.UUID, err error) {
	claims := &RefreshTokenClaims{}
	_, err = jwt.ParseWithClaims(
		refresh,
		claims,
		func(t *jwt.Token) (any, error) { return []byte(m.refreshKey), nil },
		jwt.WithValidMethods([]string{m.alg.Alg()}),
	)

	switch {
	case err == nil && claims.TokenType == refreshTokenType:
		return claims.UserID, nil
	case err == nil: // signed with our key but not a refresh token
		return uuid.Nil, fmt.Errorf("%w: unexpected token type %q", apperrors.ErrRefreshTokenInvalid, claims.TokenType)
	case errors.Is(err, jwt.ErrTokenExpired):
		return uuid.Nil, fmt.Errorf("%w: %w", apperrors.ErrRefreshTokenExpired, err)
	default:
		return uuid.Nil, fmt.Errorf("%w: %w", apperrors.ErrRefreshTokenInvalid, err)
	}
}

// ParseTTL parses duration strings like "30s", "15m", "12h" or "7d"
// Unparseable values fall back to the given default on purpose: a misconfigured
// TTL should not take the service down or leave tokens without expiry
func ParseTTL(value string, def time.Duration) time.Duration {
	if value == "" {
		return def
	}

	// time.ParseDuration covers s/m/h, days need converting by hand
	if days, ok := strings.CutSuffix(value, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return def
		}
		return time.Duration(n) * 24 * time.Hour
	}

	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return def
	}

	return d
}
