// Package routing translates component configuration plus per-operation
// metadata into a concrete (schema, table) store.Target. It owns none of
// the provisioning or persistence logic — it only decides where an
// operation's data lives.
package routing

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/tenantpg/statestore/internal/store"
)

// TenantMode selects how a tenant identifier rewrites the default target.
type TenantMode string

const (
	// TenantModeNone means no tenant rewriting: every operation shares the
	// same (schema, table).
	TenantModeNone TenantMode = ""
	// TenantModeSchema prefixes the schema with the tenant id.
	TenantModeSchema TenantMode = "schema"
	// TenantModeTable prefixes the table with the tenant id.
	TenantModeTable TenantMode = "table"
)

// Config is the parsed, validated shape of Init.properties.
type Config struct {
	ConnectionString string     `validate:"required"`
	Tenant           TenantMode `validate:"omitempty,oneof=schema table"`
	Schema           string
	Table            string
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ParseConfig builds a Config from Init's properties map, applying the
// documented defaults (schema="public", table="state") and validating the
// result. An unrecognized `tenant` value fails Init fatally rather than
// silently falling back to untenanted routing.
func ParseConfig(properties map[string]string) (Config, error) {
	cfg := Config{
		ConnectionString: properties["connectionString"],
		Tenant:           TenantMode(properties["tenant"]),
		Schema:           properties["schema"],
		Table:            properties["table"],
	}
	if cfg.Schema == "" {
		cfg.Schema = "public"
	}
	if cfg.Table == "" {
		cfg.Table = "state"
	}

	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// ErrMissingTenant is returned when the component is configured for
// tenant rewriting but the operation's metadata carries no tenantId.
var ErrMissingTenant = fmt.Errorf("routing: tenantId required but absent")

// Resolve derives the concrete Target for one operation. tenantID is the
// metadata["tenantId"] value, possibly empty.
func (c Config) Resolve(tenantID string) (store.Target, error) {
	switch c.Tenant {
	case TenantModeNone:
		return store.Target{Schema: c.Schema, Table: c.Table}, nil
	case TenantModeSchema:
		if tenantID == "" {
			return store.Target{}, ErrMissingTenant
		}
		return store.Target{Schema: fmt.Sprintf("%s-%s", tenantID, c.Schema), Table: c.Table}, nil
	case TenantModeTable:
		if tenantID == "" {
			return store.Target{}, ErrMissingTenant
		}
		return store.Target{Schema: c.Schema, Table: fmt.Sprintf("%s-%s", tenantID, c.Table)}, nil
	default:
		// ParseConfig's validator tag already rejects this at Init time;
		// this branch only guards against a Config constructed by hand.
		return store.Target{}, fmt.Errorf("routing: unrecognized tenant mode %q", c.Tenant)
	}
}
