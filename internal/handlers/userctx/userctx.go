package userctx

import (
	"context"

	"github.com/nkiryanov/taskboard/internal/service/auth/tokenmanager"
)

type ctxKey string

const identityKey ctxKey = "identity"

// Create a new context carrying the authenticated identity
func New(ctx context.Context, identity tokenmanager.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// Extract the identity from the context
func FromContext(ctx context.Context) (tokenmanager.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(tokenmanager.Identity)
	return identity, ok
}
