// Package app wires the process's long-lived singletons together: logger,
// tracer, provisioner, state-store service, gRPC server on the sidecar's
// Unix domain socket, and the ops-plane HTTP server. Its Run function
// follows the usual shape for this kind of process host — config in,
// infra up, serve until the context is cancelled, shut down in order.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"

	"github.com/tenantpg/statestore/internal/config"
	"github.com/tenantpg/statestore/internal/httpserver"
	"github.com/tenantpg/statestore/internal/platform"
	"github.com/tenantpg/statestore/internal/provisioner"
	"github.com/tenantpg/statestore/internal/rpc"
	"github.com/tenantpg/statestore/internal/rpc/statev1"
	"github.com/tenantpg/statestore/internal/statestore"
	"github.com/tenantpg/statestore/internal/telemetry"
)

// version is stamped by the release pipeline; "dev" outside that.
var version = "dev"

// Run starts the component and blocks until ctx is cancelled, then shuts
// down in order: gRPC server drained, janitor stopped, connection pool
// disposed.
func Run(ctx context.Context, cfg *config.Config) error {
	logger := telemetry.NewLogger(cfg.LogFormat, cfg.LogLevel)
	slog.SetDefault(logger)

	logger.Info("starting statestore component",
		"component", cfg.ComponentName,
		"socket", cfg.SocketPath(),
	)

	shutdownTracer, err := telemetry.InitTracer(ctx, cfg.OTLPEndpoint, "statestore", version)
	if err != nil {
		return fmt.Errorf("initializing tracer: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(shutdownCtx); err != nil {
			logger.Error("shutting down tracer", "error", err)
		}
	}()

	var redisClient *redis.Client
	if cfg.JanitorLockRedisURL != "" {
		client, err := platform.NewRedisClient(ctx, cfg.JanitorLockRedisURL)
		if err != nil {
			return fmt.Errorf("connecting to janitor lock redis: %w", err)
		}
		redisClient = client
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Error("closing janitor lock redis", "error", err)
			}
		}()
	}

	prov := provisioner.New()
	svc := statestore.New(logger, prov, cfg.MigrationsMetadataDir)

	rpcServer := rpc.New(ctx, svc, logger, cfg.ComponentName, cfg.JanitorInterval, redisClient)
	defer rpcServer.Close()

	grpcServer := grpc.NewServer()
	statev1.RegisterStateStoreServer(grpcServer, rpcServer)

	metricsReg := telemetry.NewRegistry()
	opsServer := httpserver.NewServer(logger, svc, metricsReg)
	opsHTTP := &http.Server{
		Addr:         cfg.OpsAddr(),
		Handler:      opsServer.Router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if err := os.MkdirAll(cfg.SocketDir, 0o755); err != nil {
		return fmt.Errorf("creating socket directory %s: %w", cfg.SocketDir, err)
	}
	socketPath := cfg.SocketPath()
	_ = os.Remove(socketPath) // stale socket from a prior crashed run
	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", socketPath, err)
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("grpc server listening", "socket", socketPath)
		if err := grpcServer.Serve(listener); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()
	go func() {
		logger.Info("ops server listening", "addr", cfg.OpsAddr())
		if err := opsHTTP.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("ops server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down statestore component")
		grpcServer.GracefulStop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := opsHTTP.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutting down ops server", "error", err)
		}
		rpcServer.Close()
		if pool := svc.Pool(); pool != nil {
			pool.Close()
		}
		return nil
	case err := <-errCh:
		return err
	}
}
