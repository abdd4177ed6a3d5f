// Package services contains the server-side auth logic: turning a raw
// bearer token into an Identity, deriving the effective role and its
// permissions, and the account operations (login, password, status).
package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dmitrijs2005/pms/internal/common"
	"github.com/dmitrijs2005/pms/internal/logging"
	"github.com/dmitrijs2005/pms/internal/server/auth"
	"github.com/dmitrijs2005/pms/internal/server/repositories/repomanager"
)

// DefaultPrincipalLookupTimeout bounds the principal load after a token
// has been verified.
const DefaultPrincipalLookupTimeout = 2 * time.Second

// TokenVerifier is implemented by *auth.TokenCodec.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// Authenticator is the transport independent half of the authentication
// gate. HTTP and gRPC adapters extract the raw token and call Authenticate.
type Authenticator struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	verifier      TokenVerifier
	logger        logging.Logger
	lookupTimeout time.Duration
}

func NewAuthenticator(db *sql.DB, m repomanager.RepositoryManager, v TokenVerifier, l logging.Logger, lookupTimeout time.Duration) *Authenticator {
	if lookupTimeout <= 0 {
		lookupTimeout = DefaultPrincipalLookupTimeout
	}
	if l == nil {
		l = logging.Nop{}
	}
	return &Authenticator{db: db, repomanager: m, verifier: v, logger: l, lookupTimeout: lookupTimeout}
}

// Authenticate resolves rawToken to an Identity.
//
// An empty token yields common.ErrUnauthenticated. A token that fails
// verification, lacks a subject, or belongs to a principal whose status is
// not active yields common.ErrForbidden. If the principal cannot be loaded
// the identity carries only the subject id.
func (a *Authenticator) Authenticate(ctx context.Context, rawToken string) (*Identity, error) {
	if rawToken == "" {
		return nil, common.ErrUnauthenticated
	}

	claims, err := a.verifier.Verify(rawToken)
	if err != nil {
		reason := "invalid"
		if errors.Is(err, common.ErrTokenExpired) {
			reason = "expired"
		}
		a.logger.Debug(ctx, "token rejected", "reason", reason, "error", err)
		return nil, common.ErrForbidden
	}
	if claims.Subject == "" {
		a.logger.Debug(ctx, "token rejected", "reason", "missing subject")
		return nil, common.ErrForbidden
	}

	lookupCtx, cancel := context.WithTimeout(ctx, a.lookupTimeout)
	defer cancel()

	user, err := a.repomanager.Users(a.db).FindByID(lookupCtx, claims.Subject)
	if err != nil {
		a.logger.Warn(ctx, "principal lookup failed, continuing with token subject",
			"user_id", claims.Subject, "error", err)
		return &Identity{UserID: claims.Subject}, nil
	}

	if !user.IsActive() {
		a.logger.Info(ctx, "inactive principal rejected", "user_id", user.ID, "status", user.Status.String())
		return nil, common.ErrForbidden
	}

	return &Identity{UserID: user.ID, User: user}, nil
}
