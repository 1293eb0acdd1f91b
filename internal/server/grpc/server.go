// Package grpc exposes the standard gRPC health service for the Data API.
// The serving status follows the document store's availability.
package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/mindkeeper/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service name reported for the Data API.
const ServiceName = "mindkeeper.DataAPI"

const (
	defaultCheckInterval = 5 * time.Second
	pingTimeout          = 2 * time.Second
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthServer struct {
	address  string
	store    Pinger
	interval time.Duration
	logger   logging.Logger
	health   *health.Server
}

func NewHealthServer(a string, l logging.Logger, store Pinger, interval time.Duration) *HealthServer {
	if interval <= 0 {
		interval = defaultCheckInterval
	}
	return &HealthServer{
		address:  a,
		store:    store,
		interval: interval,
		logger:   l.With("module", "grpc_health"),
		health:   health.NewServer(),
	}
}

// Run listens on the configured address and serves until ctx is done.
func (s *HealthServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is done.
func (s *HealthServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, s.health)

	s.check(ctx)
	go s.watch(ctx)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC health server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC health server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}
	return nil
}

func (s *HealthServer) watch(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.check(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (s *HealthServer) check(ctx context.Context) {
	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	err := s.store.Ping(pctx)
	cancel()

	st := healthpb.HealthCheckResponse_SERVING
	if err != nil {
		st = healthpb.HealthCheckResponse_NOT_SERVING
		s.logger.Warn(ctx, "document store unavailable", "error", err)
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}
