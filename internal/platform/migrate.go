package platform

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// RunMetadataMigrations applies the fixed pluggable_metadata bootstrap
// (the tenant registry table and the delete_key_v1/delete_key_with_etag_v1
// helper functions). It is called on every Init; migrations already
// applied are skipped (migrate.ErrNoChange). Per-tenant schemas/tables
// are NOT migration-managed — they are provisioned ad hoc by
// internal/provisioner, since their shape is identical across tenants but
// their existence is discovered lazily at first write.
func RunMetadataMigrations(databaseURL, migrationsDir string) error {
	m, err := migrate.New(
		fmt.Sprintf("file://%s", migrationsDir),
		databaseURL,
	)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("running metadata migrations: %w", err)
	}

	return nil
}
