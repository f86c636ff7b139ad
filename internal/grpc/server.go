// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GameVault Contributors

// Package grpc serves and queries the standard gRPC health service.
package grpc

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"

	"github.com/samber/oops"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service name reported for the API.
const ServiceName = "gamevault.api"

// HealthServer exposes grpc.health.v1.Health. Every service starts
// NOT_SERVING until SetServing is called.
type HealthServer struct {
	addr     string
	server   *grpc.Server
	health   *health.Server
	mu       sync.Mutex
	listener net.Listener
}

// NewHealthServer creates a HealthServer listening on addr.
func NewHealthServer(addr string) *HealthServer {
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	return &HealthServer{addr: addr, server: srv, health: hs}
}

// SetServing marks the overall server and the API service as serving or not.
func (s *HealthServer) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

// Start listens and serves in the background. The returned channel receives
// a serve error, if any, and is closed when the server stops.
func (s *HealthServer) Start() (<-chan error, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return nil, oops.Errorf("grpc health server already running")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return nil, oops.Code("GRPC_LISTEN_FAILED").With("addr", s.addr).Wrap(err)
	}
	s.listener = listener

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		// Stop before Serve registers the listener yields ErrServerStopped.
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			slog.Error("grpc health server error", "error", err)
			errCh <- err
		}
	}()

	slog.Info("grpc health server started", "addr", listener.Addr().String())
	return errCh, nil
}

// Stop marks every service NOT_SERVING, then drains RPCs until ctx is done
// and forces the rest closed.
func (s *HealthServer) Stop(ctx context.Context) {
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.server.Stop()
		<-done
	}
	slog.Info("grpc health server stopped")
}

// Addr returns the bound address, or "" before Start.
func (s *HealthServer) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}
