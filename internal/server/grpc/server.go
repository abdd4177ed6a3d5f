// Package grpc serves pms.auth.v1.AuthService and the standard health
// service over gRPC.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/pms/internal/logging"
	"github.com/dmitrijs2005/pms/internal/server/services"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// Authenticator is implemented by *services.Authenticator.
type Authenticator interface {
	Authenticate(ctx context.Context, rawToken string) (*services.Identity, error)
}

// RoleResolver is implemented by *services.Authorizer.
type RoleResolver interface {
	Resolve(ctx context.Context, userID string) (*services.Access, error)
}

type GRPCServer struct {
	address string
	authn   Authenticator
	roles   RoleResolver
	logger  logging.Logger
}

func NewGRPCServer(a string, l logging.Logger, authn Authenticator, roles RoleResolver) *GRPCServer {
	if l == nil {
		l = logging.Nop{}
	}
	return &GRPCServer{
		address: a,
		logger:  l.With("module", "grpc_server"),
		authn:   authn,
		roles:   roles,
	}
}

// Run listens on the configured address and serves until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve serves on lis until ctx is done, then stops gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.authInterceptor))
	srv.RegisterService(&AuthServiceDesc, s)

	hs := health.NewServer()
	hs.SetServingStatus(AuthServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	grpc_health_v1.RegisterHealthServer(srv, hs)

	served := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		select {
		case <-ctx.Done():
		case <-served:
			return
		}
		s.logger.Info(ctx, "stopping gRPC server")
		hs.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "starting gRPC server", "address", lis.Addr().String())
	err := srv.Serve(lis)
	if err != nil {
		close(served)
		<-stopped
		return err
	}
	<-stopped
	return nil
}
