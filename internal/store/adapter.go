// Package store is the relational adapter: a thin, safe wrapper over
// PostgreSQL exposing parameterized CRUD and DDL primitives against a
// specific (schema, table) Target. It never chooses a target itself —
// that's internal/routing's job — and never decides whether a target
// needs provisioning first — that's internal/provisioner's job.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx, so the adapter can
// run against a bare connection or inside an open transaction without
// knowing which.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Adapter executes primitive operations against a single Target using a
// caller-supplied DBTX (plain pool connection or open transaction).
type Adapter struct {
	db DBTX
}

// New wraps dbtx with adapter operations.
func New(dbtx DBTX) *Adapter {
	return &Adapter{db: dbtx}
}

// CreateSchemaIfAbsent creates target's schema if it does not already exist.
func (a *Adapter) CreateSchemaIfAbsent(ctx context.Context, t Target) error {
	if err := t.Validate(); err != nil {
		return err
	}
	_, err := a.db.Exec(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", quoteIdent(t.Schema)))
	if err != nil {
		return fmt.Errorf("creating schema %s: %w", t.Schema, err)
	}
	return nil
}

// CreateTableIfAbsent creates target's state table (and its supporting
// index on expires_at, used by the TTL janitor) if it does not already exist.
func (a *Adapter) CreateTableIfAbsent(ctx context.Context, t Target) error {
	if err := t.Validate(); err != nil {
		return err
	}
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		key          text PRIMARY KEY,
		value        jsonb NOT NULL,
		etag         text NOT NULL,
		inserted_at  timestamptz NOT NULL DEFAULT now(),
		updated_at   timestamptz NULL,
		expires_at   timestamptz NULL
	)`, t.qualified())
	if _, err := a.db.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("creating table %s: %w", t.qualified(), err)
	}

	idx := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (expires_at) WHERE expires_at IS NOT NULL`,
		quoteIdent(t.Table+"_expires_at_idx"), t.qualified())
	if _, err := a.db.Exec(ctx, idx); err != nil {
		return fmt.Errorf("creating expires_at index on %s: %w", t.qualified(), err)
	}
	return nil
}

// Row is the stored value and its current etag.
type Row struct {
	Value []byte
	Etag  Etag
}

// Get returns the row for key, ErrNotFound if no such row exists, or
// ErrTableMissing if target's table does not exist at all (a missing
// target table is NOT provisioned here — Get/Delete never provision).
func (a *Adapter) Get(ctx context.Context, t Target, key string) (Row, error) {
	if err := t.Validate(); err != nil {
		return Row{}, err
	}
	query := fmt.Sprintf(`SELECT value, etag FROM %s WHERE key = $1`, t.qualified())

	var row Row
	var etagStr string
	err := a.db.QueryRow(ctx, query, key).Scan(&row.Value, &etagStr)
	switch {
	case err == nil:
		row.Etag = Etag(etagStr)
		return row, nil
	case errors.Is(err, pgx.ErrNoRows):
		return Row{}, ErrNotFound
	case isUndefinedTable(err):
		return Row{}, ErrTableMissing
	default:
		return Row{}, fmt.Errorf("getting %s/%s: %w", t.qualified(), key, err)
	}
}

// Upsert inserts or updates key's row. With no etag it is an
// insert-or-update (first-writer-wins is irrelevant, any caller may write).
// With an etag it is a conditional update that succeeds only if the
// stored etag equals it; a zero-row result is ErrEtagMismatch.
//
// ttlSeconds > 0 sets expires_at = now() + ttlSeconds; 0 clears it.
// Returns the row's new etag on success.
func (a *Adapter) Upsert(ctx context.Context, t Target, key string, value []byte, etag *Etag, ttlSeconds int) (Etag, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}

	newEtag := NewEtag()
	var expiresAt *time.Time
	if ttlSeconds > 0 {
		e := time.Now().Add(time.Duration(ttlSeconds) * time.Second)
		expiresAt = &e
	}

	if etag == nil {
		query := fmt.Sprintf(`
			INSERT INTO %s (key, value, etag, expires_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (key) DO UPDATE SET
				value = EXCLUDED.value,
				etag = EXCLUDED.etag,
				expires_at = EXCLUDED.expires_at,
				updated_at = now()`, t.qualified())
		if _, err := a.db.Exec(ctx, query, key, value, newEtag.String(), expiresAt); err != nil {
			if isUndefinedTable(err) {
				return "", ErrTableMissing
			}
			return "", fmt.Errorf("upserting %s/%s: %w", t.qualified(), key, err)
		}
		return newEtag, nil
	}

	query := fmt.Sprintf(`
		UPDATE %s SET value = $2, etag = $3, expires_at = $4, updated_at = now()
		WHERE key = $1 AND etag = $5`, t.qualified())
	tag, err := a.db.Exec(ctx, query, key, value, newEtag.String(), expiresAt, etag.String())
	if err != nil {
		if isUndefinedTable(err) {
			return "", ErrTableMissing
		}
		return "", fmt.Errorf("conditionally upserting %s/%s: %w", t.qualified(), key, err)
	}
	if tag.RowsAffected() == 0 {
		return "", ErrEtagMismatch
	}
	return newEtag, nil
}

// Delete removes key's row. Without an etag it is unconditional; with one
// it is conditional on equality and a zero-row result is ErrEtagMismatch.
// A missing target table is reported as ErrTableMissing; the service
// layer treats that as a no-op.
func (a *Adapter) Delete(ctx context.Context, t Target, key string, etag *Etag) error {
	if err := t.Validate(); err != nil {
		return err
	}

	var query string
	var args []any
	if etag == nil {
		query = fmt.Sprintf(`DELETE FROM %s WHERE key = $1`, t.qualified())
		args = []any{key}
	} else {
		query = fmt.Sprintf(`DELETE FROM %s WHERE key = $1 AND etag = $2`, t.qualified())
		args = []any{key, etag.String()}
	}

	tag, err := a.db.Exec(ctx, query, args...)
	if err != nil {
		if isUndefinedTable(err) {
			return ErrTableMissing
		}
		return fmt.Errorf("deleting %s/%s: %w", t.qualified(), key, err)
	}
	if etag != nil && tag.RowsAffected() == 0 {
		return ErrEtagMismatch
	}
	return nil
}

// DeleteExpired removes every row in target whose expires_at has passed.
// Used by the TTL janitor; returns the number of rows deleted.
func (a *Adapter) DeleteExpired(ctx context.Context, t Target) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE expires_at IS NOT NULL AND expires_at < now()`, t.qualified())
	tag, err := a.db.Exec(ctx, query)
	if err != nil {
		if isUndefinedTable(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("deleting expired rows from %s: %w", t.qualified(), err)
	}
	return tag.RowsAffected(), nil
}

// isUndefinedTable reports whether err is Postgres error 42P01
// (undefined_table), the SQLSTATE raised when the target table doesn't exist.
func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "42P01"
	}
	return false
}
