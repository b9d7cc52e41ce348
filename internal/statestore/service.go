// Package statestore implements the state-store operation surface: Init,
// Get, Set, Delete, BulkTransact, Features, Ping. It owns transactional
// boundaries and is the only place that turns routing targets and
// adapter calls into a single outward-facing request; error
// classification into gRPC status codes happens one layer up, in
// internal/rpc, which keeps this package returning plain classified
// errors rather than exceptions.
package statestore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tenantpg/statestore/internal/platform"
	"github.com/tenantpg/statestore/internal/provisioner"
	"github.com/tenantpg/statestore/internal/routing"
	"github.com/tenantpg/statestore/internal/store"
)

// Service is one configured component instance. It owns no mutable state
// beyond its configuration snapshot and connection pool; the provisioner
// memo it shares is deliberately process-global state, not per-Service.
type Service struct {
	logger        *slog.Logger
	prov          *provisioner.Provisioner
	migrationsDir string

	mu   sync.RWMutex
	cfg  routing.Config
	pool *pgxpool.Pool
}

// New constructs an uninitialized Service. Init must succeed before any
// other method is called. migrationsDir locates the pluggable_metadata
// bootstrap migrations applied on every Init.
func New(logger *slog.Logger, prov *provisioner.Provisioner, migrationsDir string) *Service {
	return &Service{logger: logger, prov: prov, migrationsDir: migrationsDir}
}

// Init validates properties, opens a connection pool against the
// resulting connectionString, applies the pluggable_metadata bootstrap
// migrations, and probes connectivity. It is idempotent: calling it again
// replaces the prior pool and configuration.
func (s *Service) Init(ctx context.Context, properties map[string]string) error {
	cfg, err := routing.ParseConfig(properties)
	if err != nil {
		return fmt.Errorf("statestore: init: %w", err)
	}

	pool, err := store.NewPool(ctx, cfg.ConnectionString)
	if err != nil {
		return fmt.Errorf("statestore: init: %w", err)
	}

	if err := platform.RunMetadataMigrations(cfg.ConnectionString, s.migrationsDir); err != nil {
		pool.Close()
		return fmt.Errorf("statestore: init: %w", err)
	}

	s.mu.Lock()
	prior := s.pool
	s.cfg = cfg
	s.pool = pool
	s.mu.Unlock()

	if prior != nil {
		prior.Close()
	}
	s.logger.Info("statestore initialized", "tenant_mode", cfg.Tenant, "schema", cfg.Schema, "table", cfg.Table)
	return nil
}

// Pool returns the current connection pool, or nil if Init has not
// succeeded yet. Used by internal/rpc to hand the janitor a pool once one
// becomes available, and by the process host to close it on shutdown.
func (s *Service) Pool() *pgxpool.Pool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pool
}

// snapshot returns the current pool and config, or ErrNotInitialized if
// Init has never succeeded.
func (s *Service) snapshot() (*pgxpool.Pool, routing.Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.pool == nil {
		return nil, routing.Config{}, ErrNotInitialized
	}
	return s.pool, s.cfg, nil
}

// Ping reports whether the component can currently reach its database.
func (s *Service) Ping(ctx context.Context) error {
	pool, _, err := s.snapshot()
	if err != nil {
		return err
	}
	return pool.Ping(ctx)
}

// Features returns the fixed capability set this component advertises.
func (s *Service) Features() []Feature {
	return []Feature{FeatureEtag, FeatureTransactional}
}

// Get resolves key's target and returns its value and etag. A missing row
// or a missing target table both report found=false, not an error — a
// table that was never provisioned holds no data, which looks identical
// to an empty one from the caller's perspective.
func (s *Service) Get(ctx context.Context, key string, metadata map[string]string) (value []byte, etag string, found bool, err error) {
	pool, cfg, err := s.snapshot()
	if err != nil {
		return nil, "", false, err
	}

	target, err := cfg.Resolve(metadata["tenantId"])
	if err != nil {
		return nil, "", false, err
	}

	row, err := store.New(pool).Get(ctx, target, key)
	switch {
	case err == nil:
		return row.Value, row.Etag.String(), true, nil
	case isMissing(err):
		return nil, "", false, nil
	default:
		return nil, "", false, err
	}
}

// Set resolves key's target, provisions its schema/table if absent,
// upserts within a transaction, and registers the target in the tenant
// registry the janitor scans. etagOpt nil means unconditional write.
func (s *Service) Set(ctx context.Context, key string, value []byte, etagOpt *string, metadata map[string]string) (newEtag string, err error) {
	pool, cfg, err := s.snapshot()
	if err != nil {
		return "", err
	}

	if metadata["isBinary"] == "true" {
		return "", ErrBinaryUnsupported
	}

	tenantID := metadata["tenantId"]
	target, err := cfg.Resolve(tenantID)
	if err != nil {
		return "", err
	}

	ttl, err := parseTTL(metadata["ttlInSeconds"])
	if err != nil {
		return "", err
	}

	etag, err := parseEtagOpt(etagOpt)
	if err != nil {
		return "", err
	}

	if err := s.provision(ctx, pool, target); err != nil {
		return "", err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("statestore: set: %w", err)
	}
	defer tx.Rollback(ctx)

	adapter := store.New(tx)
	result, err := adapter.Upsert(ctx, target, key, value, etag, ttl)
	if err != nil {
		return "", err
	}
	if err := registerTenant(ctx, tx, tenantID, target); err != nil {
		return "", err
	}
	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("statestore: set: committing: %w", err)
	}
	return result.String(), nil
}

// Delete resolves key's target and removes its row within a transaction.
// A missing target table is swallowed as a no-op; Delete never triggers
// provisioning. The etag, if any, is not syntax-checked up front — an
// unparseable etag simply matches no row and comes back as a mismatch.
func (s *Service) Delete(ctx context.Context, key string, etagOpt *string, metadata map[string]string) error {
	pool, cfg, err := s.snapshot()
	if err != nil {
		return err
	}

	target, err := cfg.Resolve(metadata["tenantId"])
	if err != nil {
		return err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("statestore: delete: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := store.New(tx).Delete(ctx, target, key, rawEtagOpt(etagOpt)); err != nil {
		if errors.Is(err, store.ErrTableMissing) {
			return tx.Commit(ctx)
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("statestore: delete: committing: %w", err)
	}
	return nil
}

// BulkTransact executes every operation in order inside a single
// transaction. The first failure rolls back the whole batch. Set
// sub-operations are provisioned before the transaction opens, since DDL
// commits immediately and the provisioner memo must reflect that
// regardless of the batch's own outcome.
func (s *Service) BulkTransact(ctx context.Context, ops []Operation) error {
	pool, cfg, err := s.snapshot()
	if err != nil {
		return err
	}

	targets := make([]store.Target, len(ops))
	for i, op := range ops {
		if op.Type == OpSet && op.Metadata["isBinary"] == "true" {
			return ErrBinaryUnsupported
		}
		target, err := cfg.Resolve(op.Metadata["tenantId"])
		if err != nil {
			return err
		}
		targets[i] = target
		if op.Type == OpSet {
			if err := s.provision(ctx, pool, target); err != nil {
				return err
			}
		}
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("statestore: bulk transact: %w", err)
	}
	defer tx.Rollback(ctx)

	adapter := store.New(tx)
	for i, op := range ops {
		target := targets[i]
		switch op.Type {
		case OpSet:
			ttl, err := parseTTL(op.Metadata["ttlInSeconds"])
			if err != nil {
				return err
			}
			etag, err := parseEtagOpt(op.Etag)
			if err != nil {
				return err
			}
			if _, err := adapter.Upsert(ctx, target, op.Key, op.Value, etag, ttl); err != nil {
				return err
			}
			if err := registerTenant(ctx, tx, op.Metadata["tenantId"], target); err != nil {
				return err
			}
		case OpDelete:
			if err := adapter.Delete(ctx, target, op.Key, rawEtagOpt(op.Etag)); err != nil && !errors.Is(err, store.ErrTableMissing) {
				return err
			}
		default:
			return fmt.Errorf("statestore: bulk transact: unknown operation type %q", op.Type)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("statestore: bulk transact: committing: %w", err)
	}
	return nil
}

// provision ensures target's schema and table both exist, via the
// process-wide provisioner gate. DDL runs directly against the pool,
// outside any caller transaction, so it commits immediately and is
// visible to every later operation.
func (s *Service) provision(ctx context.Context, pool *pgxpool.Pool, target store.Target) error {
	adapter := store.New(pool)
	if err := s.prov.Ensure(ctx, target.SchemaResourceKey(), func(ctx context.Context) error {
		return adapter.CreateSchemaIfAbsent(ctx, target)
	}); err != nil {
		return fmt.Errorf("statestore: provisioning schema %s: %w", target.Schema, err)
	}
	if err := s.prov.Ensure(ctx, target.ResourceKey(), func(ctx context.Context) error {
		return adapter.CreateTableIfAbsent(ctx, target)
	}); err != nil {
		return fmt.Errorf("statestore: provisioning table %s.%s: %w", target.Schema, target.Table, err)
	}
	return nil
}

func isMissing(err error) bool {
	return errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrTableMissing)
}

func parseTTL(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	ttl, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("statestore: invalid ttlInSeconds %q: %w", raw, err)
	}
	return ttl, nil
}

func parseEtagOpt(s *string) (*store.Etag, error) {
	if s == nil {
		return nil, nil
	}
	etag, err := store.ParseEtag(*s)
	if err != nil {
		return nil, err
	}
	return &etag, nil
}

// rawEtagOpt passes a caller-supplied etag straight through without
// syntax validation. Delete never rejects a malformed etag up front — a
// syntactically bogus value simply fails to match any stored row and
// comes back as an etag mismatch, the same outcome as a stale-but-valid
// one. Syntax validation before the SQL round trip is an Upsert-only
// concern, since Upsert must distinguish "malformed" from "doesn't
// match" before it writes anything.
func rawEtagOpt(s *string) *store.Etag {
	if s == nil {
		return nil
	}
	etag := store.Etag(*s)
	return &etag
}
