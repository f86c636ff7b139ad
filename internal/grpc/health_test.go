// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GameVault Contributors

package grpc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/gamevault/gamevault/pkg/errutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func startHealth(t *testing.T) (*HealthServer, *Client) {
	t.Helper()
	srv := NewHealthServer("127.0.0.1:0")
	_, err := srv.Start()
	require.NoError(t, err)

	client, err := NewClient(ClientConfig{Address: srv.Addr()})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = client.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Stop(ctx)
	})
	return srv, client
}

func TestHealthServer_Status(t *testing.T) {
	srv, client := startHealth(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	status, err := client.Check(ctx, ServiceName)
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, status)

	srv.SetServing(true)
	for _, svc := range []string{"", ServiceName} {
		status, err := client.Check(ctx, svc)
		require.NoError(t, err)
		assert.Equal(t, healthpb.HealthCheckResponse_SERVING, status, "service %q", svc)
	}

	srv.SetServing(false)
	status, err = client.Check(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, status)

	_, err = client.Check(ctx, "unknown.service")
	errutil.AssertErrorCode(t, err, "GRPC_HEALTH_CHECK_FAILED")
}

func TestHealthServer_DoubleStart(t *testing.T) {
	srv, _ := startHealth(t)
	_, err := srv.Start()
	assert.Error(t, err)
}

func TestHealthServer_StopClosesErrorChannel(t *testing.T) {
	srv := NewHealthServer("127.0.0.1:0")
	assert.Empty(t, srv.Addr())
	errCh, err := srv.Start()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Stop(ctx)

	select {
	case err, ok := <-errCh:
		assert.False(t, ok, "unexpected serve error %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("error channel did not close")
	}
}

func TestHealthServer_ImmediateStopIsClean(t *testing.T) {
	// Stop may win the race with the serve goroutine; either order is a clean shutdown.
	for i := range 20 {
		srv := NewHealthServer("127.0.0.1:0")
		errCh, err := srv.Start()
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		srv.Stop(ctx)
		cancel()

		select {
		case err, ok := <-errCh:
			assert.False(t, ok, "iteration %d: unexpected serve error %v", i, err)
		case <-time.After(2 * time.Second):
			t.Fatalf("iteration %d: error channel did not close", i)
		}
	}
}

func TestNewClient_MissingAddress(t *testing.T) {
	_, err := NewClient(ClientConfig{})
	errutil.AssertErrorCode(t, err, "GRPC_CLIENT_INVALID")
}

func TestClient_UnreachableServer(t *testing.T) {
	client, err := NewClient(ClientConfig{Address: "127.0.0.1:1"})
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	status, err := client.Check(ctx, "")
	require.Error(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_UNKNOWN, status)
}
