package grpc

import (
	"context"

	"github.com/dmitrijs2005/pms/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

func (s *GRPCServer) Me(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	id, ok := services.IdentityFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "unauthorized")
	}

	fields := map[string]any{"id": id.UserID}
	if u := id.User; u != nil {
		fields["email"] = u.Email
		fields["name"] = u.Name
		fields["status"] = u.Status.String()
	}

	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}
	return out, nil
}

func (s *GRPCServer) Permissions(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	id, ok := services.IdentityFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "unauthorized")
	}

	acc, err := s.roles.Resolve(ctx, id.UserID)
	if err != nil {
		s.logger.Error(ctx, "resolve permissions", "user_id", id.UserID, "error", err)
		return nil, status.Error(codes.Internal, "failed to load permissions")
	}

	perms := make([]any, len(acc.Permissions))
	for i, p := range acc.Permissions {
		perms[i] = p
	}
	out, err := structpb.NewStruct(map[string]any{
		"role":        string(acc.Role),
		"permissions": perms,
	})
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}
	return out, nil
}
