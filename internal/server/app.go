// Package server wires the sharekeeper components together and runs them.
// It opens the metadata database, applies migrations, selects the blob store
// backend, fronts the identity directory with a cache, and serves the
// HTTP API next to the gRPC health endpoint until a termination signal.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrijs2005/sharekeeper/internal/logging"
	"github.com/dmitrijs2005/sharekeeper/internal/server/blobstore"
	"github.com/dmitrijs2005/sharekeeper/internal/server/config"
	"github.com/dmitrijs2005/sharekeeper/internal/server/directory"
	"github.com/dmitrijs2005/sharekeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/sharekeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/sharekeeper/internal/server/services"

	gs "github.com/dmitrijs2005/sharekeeper/internal/server/grpc"
)

var (
	openDB               = sql.Open
	newRepositoryManager = repomanager.NewPostgresRepositoryManager
	newBlobStore         = blobstore.New
	newLogHandler        = func() slog.Handler { return slog.NewJSONHandler(os.Stdout, nil) }
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	blobs      blobstore.Store
	redis      *redis.Client
	httpServer *httpapi.HTTPServer
	grpcServer *gs.GRPCServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(newLogHandler()))

	db, err := openDB("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	rm := newRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	blobs, err := newBlobStore(ctx, blobstore.Options{
		Backend:   c.StorageBackend,
		Endpoint:  c.S3BaseEndpoint,
		AccessKey: c.S3RootUser,
		SecretKey: c.S3RootPassword,
		Bucket:    c.S3Bucket,
		Region:    c.S3Region,
		UseSSL:    c.S3UseSSL,
		Path:      c.BlobPath,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("blob store init error: %w", err)
	}

	dir, rdb := newDirectory(c, rm.Users(db), logger)

	fs := services.NewFileService(db, rm, blobs, dir, logger)
	us := services.NewUserService(dir)

	return &App{
		config:     c,
		logger:     logger,
		db:         db,
		blobs:      blobs,
		redis:      rdb,
		httpServer: httpapi.NewHTTPServer(c.EndpointAddrHTTP, logger, fs, us, c.SecretKey, c.RequestTimeout),
		grpcServer: gs.NewGRPCServer(c.EndpointAddrGRPC, logger),
	}, nil
}

// newDirectory fronts the users repository with the Redis cache when an
// address is configured, or with an in-process cache when only a TTL is set.
// The returned client is nil unless Redis is used.
func newDirectory(c *config.Config, users directory.Directory, logger logging.Logger) (directory.Directory, *redis.Client) {
	switch {
	case c.RedisAddr != "":
		rdb := redis.NewClient(&redis.Options{
			Addr:     c.RedisAddr,
			Password: c.RedisPassword,
			DB:       c.RedisDB,
		})
		return directory.NewCachedDirectory(users, directory.NewRedisCache(rdb), c.DirectoryCacheTTL, logger), rdb
	case c.DirectoryCacheTTL > 0:
		return directory.NewCachedDirectory(users, directory.NewLocalCache(c.DirectoryCacheTTL), c.DirectoryCacheTTL, logger), nil
	default:
		return users, nil
	}
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

func (app *App) startGRPCServer(ctx context.Context, listen net.Listener, cancelFunc context.CancelFunc) {
	if err := app.grpcServer.Serve(ctx, listen); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startHTTPServer(ctx context.Context, listen net.Listener, cancelFunc context.CancelFunc) {
	if err := app.httpServer.Serve(ctx, listen); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run blocks until ctx is cancelled, a termination signal arrives or one of
// the servers fails, then releases the database and cache connections.
// Health turns SERVING only after both listeners are bound.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	grpcListen, err := app.grpcServer.Listen()
	if err != nil {
		app.logger.Error(ctx, "gRPC listen failed", "error", err)
		app.close(ctx)
		return
	}

	httpListen, err := app.httpServer.Listen()
	if err != nil {
		app.logger.Error(ctx, "HTTP listen failed", "error", err)
		_ = grpcListen.Close()
		app.close(ctx)
		return
	}

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, grpcListen, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, httpListen, cancelFunc)
	}()

	app.grpcServer.SetServing(true)

	wg.Wait()

	app.close(ctx)
	app.logger.Info(ctx, "App stopped")
}

func (app *App) close(ctx context.Context) {
	if c, ok := app.blobs.(io.Closer); ok {
		if err := c.Close(); err != nil {
			app.logger.Warn(ctx, "blob store close error", "error", err)
		}
	}
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Warn(ctx, "redis close error", "error", err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Warn(ctx, "db close error", "error", err)
	}
}
