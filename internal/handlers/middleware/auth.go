package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/nkiryanov/taskboard/internal/apperrors"
	"github.com/nkiryanov/taskboard/internal/handlers/render"
	"github.com/nkiryanov/taskboard/internal/handlers/userctx"
	"github.com/nkiryanov/taskboard/internal/models"
	"github.com/nkiryanov/taskboard/internal/service/auth/tokenmanager"
)

const bearerScheme = "Bearer"

type authService interface {
	Authenticate(ctx context.Context, access string) (tokenmanager.Identity, error)
}

type Auth struct {
	auth authService
}

func NewAuth(auth authService) *Auth {
	return &Auth{auth: auth}
}

// Extract bearer token from the Authorization header
// Exactly two space separated parts with the literal case sensitive scheme,
// anything else is rejected before any token verification happens
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}

	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != bearerScheme || parts[1] == "" {
		return "", false
	}

	return parts[1], true
}

// Authenticate requires a valid access token and attaches the decoded
// identity to the request context
// Expired and invalid tokens produce distinct error codes: the client
// silently refreshes on 'token_expired' and re-logins on everything else
func (m *Auth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			render.Error(w, render.CodeAuthenticationFailed, "Missing or malformed authorization header", http.StatusUnauthorized)
			return
		}

		identity, err := m.auth.Authenticate(r.Context(), token)
		if err != nil {
			code := render.CodeAuthenticationFailed
			message := "Invalid access token"
			if errors.Is(err, apperrors.ErrAccessTokenExpired) {
				code = render.CodeTokenExpired
				message = "Access token expired"
			}
			render.Error(w, code, message, http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(userctx.New(r.Context(), identity)))
	})
}

// OptionalAuthenticate attaches identity when a valid credential is present
// and never fails: absent or invalid credential leaves the identity unset
func (m *Auth) OptionalAuthenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		identity, err := m.auth.Authenticate(r.Context(), token)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(userctx.New(r.Context(), identity)))
	})
}

// RequireRoles allows the request only if the authenticated identity holds
// one of the given roles
// Must be applied after Authenticate: missing identity is an authentication
// failure, wrong role an authorization one
func RequireRoles(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := userctx.FromContext(r.Context())
			if !ok {
				render.Error(w, render.CodeAuthenticationFailed, "Authentication required", http.StatusUnauthorized)
				return
			}

			for _, role := range roles {
				if identity.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			render.Error(w, render.CodeAuthorizationFailed, "Insufficient permissions", http.StatusForbidden)
		})
	}
}
