// Package grpc runs the gRPC side-channel of the server: the standard health
// service used by orchestrators and load balancers.
package grpc

import (
	"context"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/dmitrijs2005/sharekeeper/internal/logging"
)

// FilesServiceName is the health service name reported for the file API.
const FilesServiceName = "sharekeeper.Files"

type GRPCServer struct {
	address string
	health  *health.Server
	logger  logging.Logger
}

// NewGRPCServer starts in NOT_SERVING; call SetServing once dependencies are
// ready.
func NewGRPCServer(a string, l logging.Logger) *GRPCServer {
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(FilesServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return &GRPCServer{
		address: a,
		health:  hs,
		logger:  l.With("module", "grpc_server"),
	}
}

// SetServing flips the overall and file API statuses together.
func (s *GRPCServer) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(FilesServiceName, status)
}

// Serving reports whether the file API is marked SERVING.
func (s *GRPCServer) Serving() bool {
	resp, err := s.health.Check(context.Background(), &healthpb.HealthCheckRequest{Service: FilesServiceName})
	return err == nil && resp.GetStatus() == healthpb.HealthCheckResponse_SERVING
}

func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := s.Listen()
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Listen announces the configured address.
func (s *GRPCServer) Listen() (net.Listener, error) {
	return net.Listen("tcp", s.address)
}

// Serve accepts connections on listen until ctx is cancelled.
func (s *GRPCServer) Serve(ctx context.Context, listen net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor))

	healthpb.RegisterHealthServer(srv, s.health)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
