package services

import (
	"context"

	"github.com/dmitrijs2005/pms/internal/server/models"
)

// Identity is the authenticated principal attached to a request. User is
// nil when the token was valid but the principal could not be loaded.
type Identity struct {
	UserID string
	User   *models.User
}

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity set by WithIdentity.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(*Identity)
	return id, ok && id != nil
}
