package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/pms/internal/common"
	"github.com/dmitrijs2005/pms/internal/logging"
	"github.com/dmitrijs2005/pms/internal/server/models"
	"github.com/dmitrijs2005/pms/internal/server/services"
	"github.com/google/uuid"
)

// Authenticator is implemented by *services.Authenticator.
type Authenticator interface {
	Authenticate(ctx context.Context, rawToken string) (*services.Identity, error)
}

// RoleResolver is implemented by *services.Authorizer.
type RoleResolver interface {
	Resolve(ctx context.Context, userID string) (*services.Access, error)
	RequireRole(ctx context.Context, userID string, allowed ...models.Role) (models.Role, error)
}

// Gate authenticates requests and attaches the resulting Identity to the
// request context.
type Gate struct {
	authn   Authenticator
	sources TokenSources
	logger  logging.Logger
}

func NewGate(authn Authenticator, sources TokenSources, l logging.Logger) *Gate {
	if l == nil {
		l = logging.Nop{}
	}
	return &Gate{authn: authn, sources: sources, logger: l}
}

// Middleware rejects requests without a credential with 401 and requests
// with a rejected credential with 403.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		token := ExtractToken(r, g.sources)

		id, err := g.authn.Authenticate(ctx, token)
		switch {
		case err == nil:
		case errors.Is(err, common.ErrUnauthenticated):
			JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
			return
		case errors.Is(err, common.ErrForbidden):
			JSONError(w, http.StatusForbidden, "forbidden", nil)
			return
		default:
			logging.FromContext(ctx, g.logger).Error(ctx, "authentication failed", "error", err)
			JSONError(w, http.StatusInternalServerError, "internal error", nil)
			return
		}

		ctx = services.WithIdentity(ctx, id)
		ctx = logging.WithLogger(ctx, logging.FromContext(ctx, g.logger).With("user_id", id.UserID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole must run behind Gate.Middleware. It answers 403 naming the
// required roles when the caller's effective role is not allowed.
func RequireRole(rr RoleResolver, l logging.Logger, allowed ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			id, ok := services.IdentityFromContext(ctx)
			if !ok {
				JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
				return
			}

			_, err := rr.RequireRole(ctx, id.UserID, allowed...)
			if err != nil {
				var re *services.RoleError
				if errors.As(err, &re) {
					JSONError(w, http.StatusForbidden, re.Error(), nil)
					return
				}
				logging.FromContext(ctx, l).Error(ctx, "role check failed", "error", err)
				JSONError(w, http.StatusInternalServerError, "failed to load permissions", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestID propagates X-Request-ID, generating one when absent, and
// stores a request-scoped logger in the context.
func RequestID(l logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(common.RequestIDHeaderName)
			if id == "" || len(id) > 128 {
				id = uuid.NewString()
			}
			w.Header().Set(common.RequestIDHeaderName, id)
			ctx := logging.WithLogger(r.Context(), l.With("request_id", id))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

// AccessLog writes one line per request using the request-scoped logger.
func AccessLog(l logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)
			if rec.status == 0 {
				rec.status = http.StatusOK
			}
			logging.FromContext(r.Context(), l).Info(r.Context(), "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"bytes", rec.bytes,
				"duration", time.Since(start).String(),
			)
		})
	}
}
