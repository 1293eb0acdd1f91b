// Package server initializes and runs the Data API server.
// It picks the document backend, wires archiving and authentication,
// and serves the JSON API next to the gRPC health service until shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/mindkeeper/internal/logging"
	"github.com/dmitrijs2005/mindkeeper/internal/server/api"
	"github.com/dmitrijs2005/mindkeeper/internal/server/archive"
	"github.com/dmitrijs2005/mindkeeper/internal/server/auth"
	"github.com/dmitrijs2005/mindkeeper/internal/server/config"
	"github.com/dmitrijs2005/mindkeeper/internal/server/repositories/documents"

	gs "github.com/dmitrijs2005/mindkeeper/internal/server/grpc"
)

var openPostgres = func(ctx context.Context, dsn string) (documents.Repository, error) {
	return documents.OpenPostgres(ctx, dsn)
}

type App struct {
	config   *config.Config
	logger   logging.Logger
	repo     documents.Repository
	archiver archive.Archiver
	authn    *auth.Authenticator
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Nop()
	}

	var repo documents.Repository
	if c.DatabaseDSN == "" {
		logger.Warn(ctx, "no database configured, documents are kept in memory")
		repo = documents.NewInMemoryRepository()
	} else {
		r, err := openPostgres(ctx, c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		repo = r
	}

	var arch archive.Archiver = archive.Nop{}
	if c.S3Bucket != "" {
		a, err := archive.NewS3Archiver(ctx, c)
		if err != nil {
			_ = repo.Close()
			return nil, fmt.Errorf("archive init error: %w", err)
		}
		arch = a
	}

	authn := auth.NewAuthenticator(c.APIKey, c.SecretKey)
	if !authn.Enabled() {
		logger.Warn(ctx, "authentication disabled, every request is accepted")
	}

	return &App{config: c, logger: logger, repo: repo, archiver: arch, authn: authn}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	h := api.NewHandler(app.repo, app.archiver, app.authn, app.logger)
	srv := &http.Server{Addr: app.config.EndpointAddrHTTP, Handler: h.Routes()}

	go func() {
		<-ctx.Done()
		app.logger.Info(context.Background(), "Stopping HTTP server...")

		sctx, cancel := context.WithTimeout(context.Background(), app.config.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			app.logger.Error(sctx, "http shutdown error", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", app.config.EndpointAddrHTTP)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewHealthServer(app.config.EndpointAddrGRPC, app.logger, app.repo, 0)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled, a termination signal arrives or one of
// the listeners fails. The document store is closed on return.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.repo.Close(); err != nil {
		app.logger.Error(context.Background(), "error closing document store", "error", err)
	}
	app.logger.Info(context.Background(), "Server stopped")
}
