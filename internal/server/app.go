// Package server wires configuration, storage, the auth services and the
// HTTP and gRPC transports into a runnable application.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/pms/internal/logging"
	"github.com/dmitrijs2005/pms/internal/server/auth"
	"github.com/dmitrijs2005/pms/internal/server/config"
	"github.com/dmitrijs2005/pms/internal/server/httpapi"
	"github.com/dmitrijs2005/pms/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/pms/internal/server/services"

	gs "github.com/dmitrijs2005/pms/internal/server/grpc"
)

// openDB is a seam for tests.
var openDB = repomanager.Open

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	repomanager repomanager.RepositoryManager

	authenticator *services.Authenticator
	authorizer    *services.Authorizer
	userService   *services.UserService
}

// NewApp validates c, opens the database, optionally migrates it and
// builds the services. A missing token secret is reported here, before
// anything is served.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger, err := logging.New(os.Stdout, c.LogFormat, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	db, err := openDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app, err := newApp(ctx, c, logger, db, repomanager.NewPostgresRepositoryManager())
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return app, nil
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger, db *sql.DB, rm repomanager.RepositoryManager) (*App, error) {
	if c.MigrateOnStart {
		logger.Info(ctx, "running migrations")
		if err := rm.RunMigrations(ctx, db); err != nil {
			return nil, err
		}
	}

	codec, err := auth.NewTokenCodec([]byte(c.SecretKey), auth.WithTTL(c.TokenValidityDuration))
	if err != nil {
		return nil, err
	}
	hasher := auth.NewPasswordHasher(
		auth.WithIterations(c.PasswordIterations),
		auth.WithPlainPasswords(c.AllowPlainPasswords),
	)
	if hasher.PlainAllowed() {
		logger.Warn(ctx, "plain$ password hashes are accepted; do not use this setting in production")
	}

	return &App{
		config:        c,
		logger:        logger,
		db:            db,
		repomanager:   rm,
		authenticator: services.NewAuthenticator(db, rm, codec, logger.With("module", "authenticator"), c.PrincipalLookupTimeout),
		authorizer:    services.NewAuthorizer(db, rm),
		userService:   services.NewUserService(db, rm, codec, hasher, logger.With("module", "users")),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Handler returns the HTTP handler with all routes and middleware.
func (app *App) Handler() http.Handler {
	l := app.logger.With("module", "http")
	gate := httpapi.NewGate(app.authenticator, httpapi.NewTokenSources(app.config.AuthCookieName, app.config.AuthQueryParam), l)
	h := httpapi.NewHandlers(app.userService, app.authorizer, l)
	return httpapi.NewRouter(h, gate, app.authorizer, l)
}

func (app *App) startHTTPServer(ctx context.Context) error {
	lis, err := net.Listen("tcp", app.config.EndpointAddrHTTP)
	if err != nil {
		return err
	}
	return httpapi.Serve(ctx, lis, app.Handler(), app.logger.With("module", "http_server"))
}

func (app *App) startGRPCServer(ctx context.Context) error {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.authenticator, app.authorizer)
	return s.Run(ctx)
}

// Run serves HTTP and gRPC until ctx is cancelled, a termination signal
// arrives, or either server fails. The first server error is returned.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting app",
		"http", app.config.EndpointAddrHTTP, "grpc", app.config.EndpointAddrGRPC)

	app.initSignalHandler(cancelFunc)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, start := range []func(context.Context) error{app.startHTTPServer, app.startGRPCServer} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := start(ctx); err != nil {
				app.logger.Error(ctx, "server failed", "error", err)
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				cancelFunc()
			}
		}()
	}
	wg.Wait()

	app.logger.Info(context.Background(), "app stopped")
	return errors.Join(errs...)
}

// Close releases the database pool.
func (app *App) Close() error {
	if app.db == nil {
		return nil
	}
	return app.db.Close()
}
