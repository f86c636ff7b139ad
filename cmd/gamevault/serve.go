// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GameVault Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/gamevault/gamevault/internal/api"
	"github.com/gamevault/gamevault/internal/asset"
	assetpg "github.com/gamevault/gamevault/internal/asset/postgres"
	"github.com/gamevault/gamevault/internal/auth"
	authpg "github.com/gamevault/gamevault/internal/auth/postgres"
	"github.com/gamevault/gamevault/internal/catalog"
	catalogpg "github.com/gamevault/gamevault/internal/catalog/postgres"
	"github.com/gamevault/gamevault/internal/config"
	gvgrpc "github.com/gamevault/gamevault/internal/grpc"
	"github.com/gamevault/gamevault/internal/logging"
	"github.com/gamevault/gamevault/internal/observability"
	"github.com/gamevault/gamevault/internal/store"
	"github.com/gamevault/gamevault/pkg/errutil"
)

const serviceName = "gamevault"

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API together with the metrics/probe server and the
gRPC health service. Configuration comes from the config file, then flags,
then DATABASE_URL.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServeWithDeps(cmd.Context(), cmd, nil)
		},
	}

	// Defaults live in config.Default; only flags the user sets override.
	def := config.Default()
	cmd.Flags().String("http-addr", def.Server.HTTPAddr, "HTTP API listen address")
	cmd.Flags().String("grpc-addr", def.Server.GRPCAddr, "gRPC health listen address (empty = disabled)")
	cmd.Flags().String("metrics-addr", def.Server.MetricsAddr, "metrics/health HTTP address (empty = disabled)")
	cmd.Flags().String("database-url", "", "PostgreSQL connection URL")
	cmd.Flags().Bool("auto-migrate", def.Database.AutoMigrate, "apply pending migrations on startup")
	cmd.Flags().String("log-format", def.Log.Format, "log format (json or text)")
	cmd.Flags().String("log-level", def.Log.Level, "log level (debug, info, warn, error)")

	return cmd
}

func (d *ServeDeps) withDefaults() *ServeDeps {
	if d == nil {
		d = &ServeDeps{}
	}
	if d.PoolFactory == nil {
		d.PoolFactory = func(ctx context.Context, url string, timeout time.Duration) (Pool, error) {
			return store.Connect(ctx, url, timeout)
		}
	}
	if d.MigratorFactory == nil {
		d.MigratorFactory = func(url string) (AutoMigrator, error) {
			return store.NewMigrator(url)
		}
	}
	if d.ObjectStoreFactory == nil {
		d.ObjectStoreFactory = func(ctx context.Context, cfg asset.S3Config) (asset.ObjectStore, error) {
			return asset.NewS3Store(ctx, cfg)
		}
	}
	if d.RedisFactory == nil {
		d.RedisFactory = func(addr string) redis.UniversalClient {
			return redis.NewClient(&redis.Options{Addr: addr})
		}
	}
	if d.ObservabilityServerFactory == nil {
		d.ObservabilityServerFactory = func(addr string, readinessChecker observability.ReadinessChecker) ObservabilityServer {
			return observability.NewServer(addr, readinessChecker)
		}
	}
	if d.HealthServerFactory == nil {
		d.HealthServerFactory = func(addr string) HealthServer {
			return gvgrpc.NewHealthServer(addr)
		}
	}
	if d.SignalContext == nil {
		d.SignalContext = func(ctx context.Context) (context.Context, context.CancelFunc) {
			return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		}
	}
	return d
}

// runServeWithDeps starts the service with injectable dependencies.
// If deps is nil, default implementations are used.
func runServeWithDeps(ctx context.Context, cmd *cobra.Command, deps *ServeDeps) error {
	if ctx == nil {
		ctx = context.Background()
	}
	deps = deps.withDefaults()

	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logger := logging.SetDefault(serviceName, version, cfg.Log.Format, level)

	logger.Info("starting gamevault",
		"http_addr", cfg.Server.HTTPAddr,
		"grpc_addr", cfg.Server.GRPCAddr,
		"metrics_addr", cfg.Server.MetricsAddr,
	)

	ctx, stop := deps.SignalContext(ctx)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pool, err := deps.PoolFactory(ctx, cfg.Database.URL, cfg.Database.ConnectTimeout)
	if err != nil {
		return oops.With("operation", "connect to database").Wrap(err)
	}
	defer pool.Close()
	logger.Info("connected to database")

	if cfg.Database.AutoMigrate {
		if err := runAutoMigration(cfg.Database.URL, deps.MigratorFactory); err != nil {
			return err
		}
	}

	var ready atomic.Bool
	var obsServer ObservabilityServer
	var metrics *observability.Metrics
	if cfg.Server.MetricsAddr != "" {
		obsServer = deps.ObservabilityServerFactory(cfg.Server.MetricsAddr, ready.Load)
		obsErrCh, startErr := obsServer.Start()
		if startErr != nil {
			return oops.With("operation", "start observability server").Wrap(startErr)
		}
		go monitorServerErrors(ctx, cancel, obsErrCh, "observability")
		metrics = obsServer.Metrics()
		logger.Info("observability server started", "addr", obsServer.Addr())
	} else {
		metrics = observability.NewMetrics(prometheus.NewRegistry())
	}

	apiDeps, closeDeps, err := buildAPIDeps(ctx, cfg, pool, deps)
	if err != nil {
		stopObservability(obsServer, cfg.Server.ShutdownTimeout)
		return err
	}
	defer closeDeps()
	apiDeps.Metrics = metrics
	apiDeps.Logger = logger

	var health HealthServer
	if cfg.Server.GRPCAddr != "" {
		health = deps.HealthServerFactory(cfg.Server.GRPCAddr)
		healthErrCh, startErr := health.Start()
		if startErr != nil {
			stopObservability(obsServer, cfg.Server.ShutdownTimeout)
			return oops.With("operation", "start grpc health server").Wrap(startErr)
		}
		go monitorServerErrors(ctx, cancel, healthErrCh, "grpc-health")
	}

	apiServer := api.NewServer(cfg.Server.HTTPAddr, api.NewRouter(apiDeps))
	apiErrCh, err := apiServer.Start()
	if err != nil {
		stopHealth(health, cfg.Server.ShutdownTimeout)
		stopObservability(obsServer, cfg.Server.ShutdownTimeout)
		return err
	}
	go monitorServerErrors(ctx, cancel, apiErrCh, "api")

	ready.Store(true)
	if health != nil {
		health.SetServing(true)
	}
	cmd.Println("GameVault started")
	logger.Info("gamevault ready", "http_addr", apiServer.Addr())

	<-ctx.Done()
	logger.Info("shutting down")

	ready.Store(false)
	if health != nil {
		health.SetServing(false)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := apiServer.Stop(shutdownCtx); err != nil {
		errutil.LogError(logger, "error stopping api server", err)
	}
	stopHealth(health, cfg.Server.ShutdownTimeout)
	stopObservability(obsServer, cfg.Server.ShutdownTimeout)

	logger.Info("shutdown complete")
	return nil
}

// buildAPIDeps wires repositories and services onto pool. The returned func
// releases clients opened here.
func buildAPIDeps(ctx context.Context, cfg *config.Config, pool Pool, deps *ServeDeps) (api.Deps, func(), error) {
	closers := []func(){}
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	tx := store.NewTransactor(pool)

	hasher, err := auth.NewBcryptHasher(cfg.Auth.BcryptCost)
	if err != nil {
		return api.Deps{}, closeAll, err
	}
	registry, err := auth.NewRegistry(authpg.NewAccountRepository(pool), tx, hasher, auth.NewTokenManager(cfg.Auth.SessionTTL))
	if err != nil {
		return api.Deps{}, closeAll, err
	}

	apiDeps := api.Deps{
		Accounts:       registry,
		Catalog:        catalog.NewService(catalogpg.NewRepository(pool), tx),
		MaxUploadBytes: cfg.Assets.MaxBytes,
	}

	if cfg.Assets.Bucket != "" {
		objects, err := deps.ObjectStoreFactory(ctx, asset.S3Config{
			Bucket:          cfg.Assets.Bucket,
			Region:          cfg.Assets.Region,
			Endpoint:        cfg.Assets.Endpoint,
			AccessKeyID:     cfg.Assets.AccessKeyID,
			SecretAccessKey: cfg.Assets.SecretAccessKey,
			PublicBaseURL:   cfg.Assets.PublicBaseURL,
			UsePathStyle:    cfg.Assets.UsePathStyle,
		})
		if err != nil {
			return api.Deps{}, closeAll, oops.With("operation", "create object store").Wrap(err)
		}
		assets, err := asset.NewService(assetpg.NewRepository(pool), tx, objects, asset.Options{
			AllowedTypes: cfg.Assets.AllowedTypes,
			MaxBytes:     cfg.Assets.MaxBytes,
		})
		if err != nil {
			return api.Deps{}, closeAll, err
		}
		apiDeps.Assets = assets
	} else {
		slog.Warn("asset bucket not configured, uploads disabled")
	}

	if cfg.RateLimit.RedisAddr != "" {
		client := deps.RedisFactory(cfg.RateLimit.RedisAddr)
		closers = append(closers, func() {
			if err := client.Close(); err != nil {
				slog.Debug("error closing redis client", "error", err)
			}
		})
		apiDeps.Limiter = api.NewRedisLimiter(client, "", cfg.RateLimit.Requests, cfg.RateLimit.Window)
	} else {
		slog.Warn("rate limit redis not configured, login and registration are not throttled")
	}

	return apiDeps, closeAll, nil
}

// runAutoMigration applies pending migrations. A close failure is logged
// and does not fail startup.
func runAutoMigration(url string, factory func(string) (AutoMigrator, error)) error {
	migrator, err := factory(url)
	if err != nil {
		return oops.Code("MIGRATION_INIT_FAILED").With("operation", "create migrator").Wrap(err)
	}
	defer func() {
		if closeErr := migrator.Close(); closeErr != nil {
			slog.Warn("error closing migrator", "error", closeErr)
		}
	}()

	if err := migrator.Up(); err != nil {
		return oops.Code("AUTO_MIGRATION_FAILED").With("operation", "apply migrations").Wrap(err)
	}
	slog.Info("database migrations applied")
	return nil
}

// monitorServerErrors cancels ctx when a server reports an error. It exits
// when the channel closes or ctx is done.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
	}
}

func stopHealth(health HealthServer, timeout time.Duration) {
	if health == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	health.Stop(ctx)
}

func stopObservability(obs ObservabilityServer, timeout time.Duration) {
	if obs == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := obs.Stop(ctx); err != nil {
		slog.Warn("error stopping observability server", "error", err)
	}
}
