// Package server assembles the application: it opens the database, applies
// migrations, builds the credential service and the asset gateway once, and
// serves them over HTTP until a termination signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/jobhub/internal/logging"
	"github.com/dmitrijs2005/jobhub/internal/server/config"
	"github.com/dmitrijs2005/jobhub/internal/server/credentials"
	"github.com/dmitrijs2005/jobhub/internal/server/httpapi"
	"github.com/dmitrijs2005/jobhub/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/jobhub/internal/server/storage"
)

const sessionPurgeInterval = time.Hour

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	credentials *credentials.Service
	gateway     *storage.Gateway
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	db, err := repomanager.OpenPostgres(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	backend, err := storage.NewBackend(ctx, c)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	gw := storage.NewGateway(backend, logger, storage.Options{
		Timeout:     c.StorageTimeout,
		URLExpiry:   c.SignedURLValidityDuration,
		MaxParallel: c.MaxParallelUploads,
	})

	return &App{
		config:      c,
		logger:      logger,
		db:          db,
		credentials: credentials.NewService(db, rm, c, logger),
		gateway:     gw,
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

func (app *App) purgeSessions(ctx context.Context) error {
	ticker := time.NewTicker(sessionPurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := app.credentials.PurgeExpiredSessions(ctx); err != nil {
				app.logger.Warn(ctx, "session purge failed", "error", err)
			}
		}
	}
}

// Run blocks until a signal arrives or the HTTP server fails.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "storage", app.gateway.Backend().Name())

	app.initSignalHandler(cancelFunc)

	var localRoot string
	if lb, ok := app.gateway.Backend().(*storage.LocalBackend); ok {
		localRoot = lb.Root()
	}
	srv := httpapi.NewServer(app.config.EndpointAddr, app.logger, app.credentials, app.gateway, localRoot)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })
	g.Go(func() error { return app.purgeSessions(gctx) })

	err := g.Wait()

	if cerr := app.db.Close(); cerr != nil {
		app.logger.Error(ctx, "db close failed", "error", cerr)
	}
	app.logger.Info(ctx, "App stopped")
	return err
}
