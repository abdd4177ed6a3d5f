package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// AuthServiceName is the fully qualified gRPC service name.
const AuthServiceName = "pms.auth.v1.AuthService"

const (
	MeMethod          = "/" + AuthServiceName + "/Me"
	PermissionsMethod = "/" + AuthServiceName + "/Permissions"
)

// AuthServiceServer is the server API of pms.auth.v1.AuthService. Messages
// use protobuf well-known types so no generated code is needed.
type AuthServiceServer interface {
	Me(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Permissions(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

func unaryEmptyHandler(method string, call func(AuthServiceServer, context.Context, *emptypb.Empty) (*structpb.Struct, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(emptypb.Empty)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AuthServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(AuthServiceServer), ctx, req.(*emptypb.Empty))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// AuthServiceDesc describes pms.auth.v1.AuthService for grpc.Server.RegisterService.
var AuthServiceDesc = grpc.ServiceDesc{
	ServiceName: AuthServiceName,
	HandlerType: (*AuthServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Me",
			Handler:    unaryEmptyHandler(MeMethod, AuthServiceServer.Me),
		},
		{
			MethodName: "Permissions",
			Handler:    unaryEmptyHandler(PermissionsMethod, AuthServiceServer.Permissions),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "pms/auth/v1/auth.proto",
}

// AuthServiceClient calls pms.auth.v1.AuthService.
type AuthServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewAuthServiceClient(cc grpc.ClientConnInterface) *AuthServiceClient {
	return &AuthServiceClient{cc: cc}
}

func (c *AuthServiceClient) Me(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MeMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AuthServiceClient) Permissions(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, PermissionsMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
