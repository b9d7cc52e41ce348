// Package janitor implements the background TTL sweep: on a fixed tick it
// selects the least-recently-expired tenant target from the
// pluggable_metadata.tenant registry and deletes its expired rows. The
// Start/Close lifecycle runs the ticker loop in one background goroutine
// that stops on Close or on cancellation of the context given to Start.
package janitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/tenantpg/statestore/internal/store"
	"github.com/tenantpg/statestore/internal/telemetry"
)

// Janitor periodically deletes expired rows across registered tenant
// targets. One tenant's target is swept per tick, which bounds per-tick
// work and keeps sweeping fair across tenants.
type Janitor struct {
	pool     *pgxpool.Pool
	logger   *slog.Logger
	interval time.Duration
	lock     *tickLock

	wg   sync.WaitGroup
	stop chan struct{}
}

// New constructs a Janitor. redisClient may be nil, in which case every
// tick runs unconditionally (single-process deployment).
func New(pool *pgxpool.Pool, logger *slog.Logger, componentName string, interval time.Duration, redisClient *redis.Client) *Janitor {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Janitor{
		pool:     pool,
		logger:   logger,
		interval: interval,
		lock:     newTickLock(redisClient, componentName, interval),
		stop:     make(chan struct{}),
	}
}

// Start begins the background ticker. It returns immediately; the loop
// runs until ctx is cancelled or Close is called.
func (j *Janitor) Start(ctx context.Context) {
	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		j.run(ctx)
	}()
}

// Close stops the ticker and waits for any in-flight tick to finish.
func (j *Janitor) Close() {
	close(j.stop)
	j.wg.Wait()
}

func (j *Janitor) run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.tick(ctx)
		case <-j.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// tick selects the least-recently-expired registered target and sweeps it.
// A tick in progress when Close is called is allowed to finish; if the
// context passed to Start is cancelled, its in-flight SQL is aborted
// instead. Either way it never leaves a transaction or connection open
// past its own return.
func (j *Janitor) tick(ctx context.Context) {
	start := time.Now()
	defer func() {
		telemetry.JanitorTickDuration.Observe(time.Since(start).Seconds())
	}()

	won, err := j.lock.acquire(ctx)
	if err != nil {
		j.logger.Error("janitor: acquiring tick lock", "error", err)
		return
	}
	if !won {
		return
	}

	tenantID, target, err := j.nextTarget(ctx)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return
		}
		j.logger.Error("janitor: selecting next target", "error", err)
		return
	}

	deleted, err := store.New(j.pool).DeleteExpired(ctx, target)
	if err != nil {
		j.logger.Error("janitor: deleting expired rows", "schema", target.Schema, "table", target.Table, "error", err)
		return
	}
	if deleted > 0 {
		telemetry.JanitorDeletedRowsTotal.WithLabelValues(target.Schema, target.Table).Add(float64(deleted))
		j.logger.Info("janitor: swept expired rows", "schema", target.Schema, "table", target.Table, "deleted", deleted)
	}

	if err := j.markSwept(ctx, tenantID, target); err != nil {
		j.logger.Error("janitor: marking target swept", "error", err)
	}
}

// nextTarget selects the tenant target least recently swept, registered
// targets never swept sorting first.
func (j *Janitor) nextTarget(ctx context.Context) (tenantID string, target store.Target, err error) {
	const query = `
		SELECT tenant_id, schema_id, table_id
		FROM pluggable_metadata.tenant
		ORDER BY last_expired_at ASC NULLS FIRST
		LIMIT 1`

	row := j.pool.QueryRow(ctx, query)
	if err := row.Scan(&tenantID, &target.Schema, &target.Table); err != nil {
		return "", store.Target{}, err
	}
	return tenantID, target, nil
}

func (j *Janitor) markSwept(ctx context.Context, tenantID string, target store.Target) error {
	const query = `
		UPDATE pluggable_metadata.tenant
		SET last_expired_at = now()
		WHERE tenant_id = $1 AND schema_id = $2 AND table_id = $3`
	if _, err := j.pool.Exec(ctx, query, tenantID, target.Schema, target.Table); err != nil {
		return fmt.Errorf("updating last_expired_at for %s.%s: %w", target.Schema, target.Table, err)
	}
	return nil
}
