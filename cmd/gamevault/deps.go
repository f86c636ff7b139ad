// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GameVault Contributors

package main

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gamevault/gamevault/internal/api"
	"github.com/gamevault/gamevault/internal/asset"
	gvgrpc "github.com/gamevault/gamevault/internal/grpc"
	"github.com/gamevault/gamevault/internal/observability"
	"github.com/gamevault/gamevault/internal/store"
)

// ServeDeps contains injectable dependencies for the serve command.
// All fields with nil values will use their default implementations.
type ServeDeps struct {
	// PoolFactory connects to PostgreSQL.
	// Default: store.Connect
	PoolFactory func(ctx context.Context, url string, timeout time.Duration) (Pool, error)

	// MigratorFactory creates a migrator for auto-migration.
	// Default: store.NewMigrator
	MigratorFactory func(url string) (AutoMigrator, error)

	// ObjectStoreFactory creates the asset object store.
	// Default: asset.NewS3Store
	ObjectStoreFactory func(ctx context.Context, cfg asset.S3Config) (asset.ObjectStore, error)

	// RedisFactory creates the rate-limit Redis client.
	// Default: redis.NewClient
	RedisFactory func(addr string) redis.UniversalClient

	// ObservabilityServerFactory creates an observability server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, readinessChecker observability.ReadinessChecker) ObservabilityServer

	// HealthServerFactory creates the gRPC health server.
	// Default: gvgrpc.NewHealthServer
	HealthServerFactory func(addr string) HealthServer

	// SignalContext returns a context cancelled on SIGINT or SIGTERM.
	// Default: signal.NotifyContext
	SignalContext func(ctx context.Context) (context.Context, context.CancelFunc)
}

// Pool is the database pool used by serve.
type Pool interface {
	store.Pool
	Close()
}

// AutoMigrator is the part of store.Migrator used for auto-migration.
type AutoMigrator interface {
	Up() error
	Close() error
}

// ObservabilityServer interface wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
	Metrics() *observability.Metrics
}

// HealthServer interface wraps the methods used from gvgrpc.HealthServer.
type HealthServer interface {
	Start() (<-chan error, error)
	SetServing(serving bool)
	Stop(ctx context.Context)
	Addr() string
}

var (
	_ ObservabilityServer = (*observability.Server)(nil)
	_ HealthServer        = (*gvgrpc.HealthServer)(nil)
	_ AutoMigrator        = (*store.Migrator)(nil)
	_ api.Limiter         = (*api.RedisLimiter)(nil)
)
