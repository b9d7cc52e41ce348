package statestore

import (
	"context"
	"fmt"

	"github.com/tenantpg/statestore/internal/store"
)

// registerTenant upserts target into the pluggable_metadata.tenant registry
// the janitor scans, so a target becomes discoverable for sweeping the
// first time anything is ever written to it. tenantID may be empty when
// the component runs with no tenant rewriting; the registry still needs
// one row per distinct target to be discoverable.
func registerTenant(ctx context.Context, db store.DBTX, tenantID string, target store.Target) error {
	const query = `
		INSERT INTO pluggable_metadata.tenant (tenant_id, schema_id, table_id, last_expired_at)
		VALUES ($1, $2, $3, NULL)
		ON CONFLICT (schema_id, table_id) DO NOTHING`
	if _, err := db.Exec(ctx, query, tenantID, target.Schema, target.Table); err != nil {
		return fmt.Errorf("registering tenant target %s.%s: %w", target.Schema, target.Table, err)
	}
	return nil
}
