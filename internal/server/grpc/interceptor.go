package grpc

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/pms/internal/common"
	"github.com/dmitrijs2005/pms/internal/server/auth"
	"github.com/dmitrijs2005/pms/internal/server/services"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

var publicServices = []string{"/" + grpc_health_v1.Health_ServiceDesc.ServiceName + "/"}

func tokenFromMetadata(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	for _, key := range []string{common.AuthorizationMetadataKey, common.AccessTokenMetadataKey} {
		for _, v := range md.Get(key) {
			if t := auth.NormalizeToken(v); t != "" {
				return t
			}
		}
	}
	return ""
}

// authInterceptor authenticates every call except the health service and
// stores the Identity in the handler context.
func (s *GRPCServer) authInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	for _, p := range publicServices {
		if strings.HasPrefix(info.FullMethod, p) {
			return handler(ctx, req)
		}
	}

	id, err := s.authn.Authenticate(ctx, tokenFromMetadata(ctx))
	if err != nil {
		switch {
		case errors.Is(err, common.ErrUnauthenticated):
			return nil, status.Error(codes.Unauthenticated, "unauthorized")
		case errors.Is(err, common.ErrForbidden):
			return nil, status.Error(codes.PermissionDenied, "forbidden")
		}
		s.logger.Error(ctx, "authentication failed", "method", info.FullMethod, "error", err)
		return nil, status.Error(codes.Internal, "internal error")
	}

	return handler(services.WithIdentity(ctx, id), req)
}
