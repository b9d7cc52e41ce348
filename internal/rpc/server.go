// Package rpc bridges internal/statestore's operation surface to the
// gRPC contract in internal/rpc/statev1, translating classified service
// errors into gRPC status codes. This is the only layer that knows about
// gRPC status codes; internal/statestore and internal/store return plain
// Go errors.
package rpc

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/tenantpg/statestore/internal/janitor"
	"github.com/tenantpg/statestore/internal/rpc/statev1"
	"github.com/tenantpg/statestore/internal/routing"
	"github.com/tenantpg/statestore/internal/statestore"
	"github.com/tenantpg/statestore/internal/store"
	"github.com/tenantpg/statestore/internal/telemetry"
)

// Server adapts a *statestore.Service to statev1.StateStoreServer. It also
// owns the TTL janitor's lifecycle: the janitor needs a connection pool
// that only exists once Init has run (connectionString arrives via
// Init.properties, not process config), so it is started from inside the
// Init handler rather than by the process host directly.
type Server struct {
	statev1.UnimplementedStateStoreServer
	svc           *statestore.Service
	logger        *slog.Logger
	componentName string
	janitorEvery  time.Duration
	redisClient   *redis.Client

	// lifecycle is the process's long-lived context, not any single RPC's —
	// the janitor must keep running after the Init call that started it
	// returns, and stop only on process shutdown.
	lifecycle context.Context

	mu      sync.Mutex
	janitor *janitor.Janitor
}

// New wraps svc for gRPC dispatch. lifecycle is the process host's
// shutdown-bound context; redisClient may be nil (single-process janitor
// coordination disabled).
func New(lifecycle context.Context, svc *statestore.Service, logger *slog.Logger, componentName string, janitorEvery time.Duration, redisClient *redis.Client) *Server {
	return &Server{lifecycle: lifecycle, svc: svc, logger: logger, componentName: componentName, janitorEvery: janitorEvery, redisClient: redisClient}
}

func (s *Server) Init(ctx context.Context, req *statev1.InitRequest) (*statev1.InitResponse, error) {
	if err := s.svc.Init(ctx, req.Properties); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	s.restartJanitor()
	return &statev1.InitResponse{}, nil
}

// restartJanitor (re)starts the TTL janitor against the pool Init just
// created. A prior janitor, if any, is stopped first — Init is idempotent,
// so a re-init must not leave an orphaned janitor running against a closed
// pool.
func (s *Server) restartJanitor() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.janitor != nil {
		s.janitor.Close()
	}
	s.janitor = janitor.New(s.svc.Pool(), s.logger, s.componentName, s.janitorEvery, s.redisClient)
	s.janitor.Start(s.lifecycle)
}

// Close stops the janitor. Called by the process host during shutdown;
// calling it again is a no-op.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.janitor != nil {
		s.janitor.Close()
		s.janitor = nil
	}
}

func (s *Server) Ping(ctx context.Context, _ *statev1.PingRequest) (*statev1.PingResponse, error) {
	if err := s.svc.Ping(ctx); err != nil {
		return nil, toStatus(err)
	}
	return &statev1.PingResponse{}, nil
}

func (s *Server) Features(_ context.Context, _ *statev1.FeaturesRequest) (*statev1.FeaturesResponse, error) {
	features := s.svc.Features()
	out := make([]string, len(features))
	for i, f := range features {
		out[i] = string(f)
	}
	return &statev1.FeaturesResponse{Features: out}, nil
}

func (s *Server) Get(ctx context.Context, req *statev1.GetRequest) (*statev1.GetResponse, error) {
	start := time.Now()
	value, etag, found, err := s.svc.Get(ctx, req.Key, req.Metadata)
	observe("Get", start, err)
	if err != nil {
		return nil, toStatus(err)
	}
	return &statev1.GetResponse{Value: value, Etag: etag, Found: found}, nil
}

func (s *Server) Set(ctx context.Context, req *statev1.SetRequest) (*statev1.SetResponse, error) {
	start := time.Now()
	etag, err := s.svc.Set(ctx, req.Key, req.Value, req.Etag, req.Metadata)
	observe("Set", start, err)
	if err != nil {
		return nil, toStatus(err)
	}
	return &statev1.SetResponse{Etag: etag}, nil
}

func (s *Server) Delete(ctx context.Context, req *statev1.DeleteRequest) (*statev1.DeleteResponse, error) {
	start := time.Now()
	err := s.svc.Delete(ctx, req.Key, req.Etag, req.Metadata)
	observe("Delete", start, err)
	if err != nil {
		return nil, toStatus(err)
	}
	return &statev1.DeleteResponse{}, nil
}

func (s *Server) BulkTransact(ctx context.Context, req *statev1.BulkTransactRequest) (*statev1.BulkTransactResponse, error) {
	ops := make([]statestore.Operation, len(req.Operations))
	for i, op := range req.Operations {
		opType := statestore.OpSet
		if op.Type == statev1.OperationTypeDelete {
			opType = statestore.OpDelete
		}
		ops[i] = statestore.Operation{
			Type:     opType,
			Key:      op.Key,
			Value:    op.Value,
			Etag:     op.Etag,
			Metadata: op.Metadata,
		}
	}

	start := time.Now()
	err := s.svc.BulkTransact(ctx, ops)
	observe("BulkTransact", start, err)
	if err != nil {
		return nil, toStatus(err)
	}
	return &statev1.BulkTransactResponse{}, nil
}

// observe records per-RPC latency and outcome counters; this is ambient
// observability, not part of the wire protocol itself.
func observe(rpc string, start time.Time, err error) {
	telemetry.OperationDuration.WithLabelValues(rpc).Observe(time.Since(start).Seconds())
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	telemetry.OperationsTotal.WithLabelValues(rpc, outcome).Inc()
}

// toStatus classifies a service-layer error into the gRPC status taxonomy.
// A missing target table never reaches here — internal/statestore already
// swallows it at the service boundary.
func toStatus(err error) error {
	switch {
	case errors.Is(err, statestore.ErrNotInitialized):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, routing.ErrMissingTenant):
		return status.Error(codes.FailedPrecondition, "metadata.tenantId: "+err.Error())
	case errors.Is(err, store.ErrEtagInvalid):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, store.ErrEtagMismatch):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, statestore.ErrBinaryUnsupported):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
