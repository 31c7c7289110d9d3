// Package httpapi exposes the file sharing operations over HTTP with gin.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrijs2005/sharekeeper/internal/logging"
	"github.com/dmitrijs2005/sharekeeper/internal/server/models"
)

// FileService holds the file operations served by the API.
type FileService interface {
	Upload(ctx context.Context, owner, filename string, data []byte, contentType string) (*models.FileDescriptor, error)
	List(ctx context.Context, owner string) ([]*models.FileDescriptor, error)
	FetchOwn(ctx context.Context, key, requester string) (*models.Blob, error)
	Delete(ctx context.Context, key, requester string) error
	IssueLink(ctx context.Context, key, owner string) (string, error)
	FetchByToken(ctx context.Context, token string) (*models.SharedFile, error)
	FetchByPermission(ctx context.Context, key, requester string) (*models.Blob, error)
	Grant(ctx context.Context, key, owner, granteeEmail string) error
	Revoke(ctx context.Context, key, granteeEmail, owner string) error
	ListPermissions(ctx context.Context, key, owner string) ([]string, error)
}

// UserService lists candidate grantees.
type UserService interface {
	ListUsers(ctx context.Context, caller string) ([]*models.User, error)
}

const shutdownTimeout = 10 * time.Second

type HTTPServer struct {
	address        string
	files          FileService
	users          UserService
	logger         logging.Logger
	jwtSecret      []byte
	requestTimeout time.Duration
	metrics        *Metrics
}

func NewHTTPServer(a string, l logging.Logger, fs FileService, us UserService, secretKey string, requestTimeout time.Duration) *HTTPServer {
	return &HTTPServer{
		address:        a,
		logger:         l.With("module", "http_server"),
		files:          fs,
		users:          us,
		jwtSecret:      []byte(secretKey),
		requestTimeout: requestTimeout,
		metrics:        NewMetrics(),
	}
}

// Router builds the gin engine with all routes and middleware installed.
func (s *HTTPServer) Router() *gin.Engine {
	router := gin.New()

	// Recovery sits inside the logger and metrics so a panicking request is
	// still logged and counted with its 500.
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware(s.logger))
	router.Use(s.metrics.Middleware())
	router.Use(RecoveryMiddleware(s.logger))
	router.Use(TimeoutMiddleware(s.requestTimeout))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{})))

	// Anonymous: possession of the token is the only credential.
	router.GET("/files/shared-link/:token", s.handleFetchByToken)

	files := router.Group("/files")
	files.Use(AuthMiddleware(s.jwtSecret))
	{
		files.POST("", s.handleUpload)
		files.GET("", s.handleList)
		files.GET("/shared-permission/:key", s.handleFetchByPermission)
		files.GET("/:key", s.handleFetchOwn)
		files.DELETE("/:key", s.handleDelete)
		files.GET("/:key/share-link", s.handleIssueLink)
		files.GET("/:key/permissions", s.handleListPermissions)
		files.POST("/:key/permissions", s.handleGrant)
		files.DELETE("/:key/permissions/:email", s.handleRevoke)
	}

	users := router.Group("/users")
	users.Use(AuthMiddleware(s.jwtSecret))
	{
		users.GET("", s.handleListUsers)
	}

	return router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := s.Listen()
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Listen announces the configured address.
func (s *HTTPServer) Listen() (net.Listener, error) {
	return net.Listen("tcp", s.address)
}

// Serve handles requests on listen until ctx is cancelled.
func (s *HTTPServer) Serve(ctx context.Context, listen net.Listener) error {
	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP server shutdown failed", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
