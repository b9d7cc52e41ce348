package routing

import (
	"errors"
	"testing"

	"github.com/tenantpg/statestore/internal/store"
)

func TestParseConfig(t *testing.T) {
	tests := []struct {
		name    string
		props   map[string]string
		want    Config
		wantErr bool
	}{
		{
			name:  "defaults applied when schema/table absent",
			props: map[string]string{"connectionString": "postgres://x"},
			want:  Config{ConnectionString: "postgres://x", Schema: "public", Table: "state"},
		},
		{
			name:  "tenant=schema honored",
			props: map[string]string{"connectionString": "postgres://x", "tenant": "schema"},
			want:  Config{ConnectionString: "postgres://x", Tenant: TenantModeSchema, Schema: "public", Table: "state"},
		},
		{
			name:  "custom table honored",
			props: map[string]string{"connectionString": "postgres://x", "tenant": "table", "table": "custom"},
			want:  Config{ConnectionString: "postgres://x", Tenant: TenantModeTable, Schema: "public", Table: "custom"},
		},
		{
			name:    "missing connection string fails",
			props:   map[string]string{},
			wantErr: true,
		},
		{
			name:    "unrecognized tenant mode fails",
			props:   map[string]string{"connectionString": "postgres://x", "tenant": "bogus"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseConfig(tt.props)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got != tt.want {
				t.Errorf("ParseConfig() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestConfig_Resolve(t *testing.T) {
	t.Run("no tenant mode ignores tenant id", func(t *testing.T) {
		c := Config{Schema: "public", Table: "state"}
		got, err := c.Resolve("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != (store.Target{Schema: "public", Table: "state"}) {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("tenant=schema prefixes schema only", func(t *testing.T) {
		c := Config{Tenant: TenantModeSchema, Schema: "public", Table: "state"}
		got, err := c.Resolve("T1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := store.Target{Schema: "T1-public", Table: "state"}
		if got != want {
			t.Errorf("got %+v, want %+v", got, want)
		}
	})

	t.Run("tenant=table prefixes table only", func(t *testing.T) {
		c := Config{Tenant: TenantModeTable, Schema: "public", Table: "custom"}
		got, err := c.Resolve("T1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := store.Target{Schema: "public", Table: "T1-custom"}
		if got != want {
			t.Errorf("got %+v, want %+v", got, want)
		}
	})

	t.Run("tenant mode configured but tenantId absent fails MissingTenant", func(t *testing.T) {
		c := Config{Tenant: TenantModeSchema, Schema: "public", Table: "state"}
		_, err := c.Resolve("")
		if !errors.Is(err, ErrMissingTenant) {
			t.Errorf("expected ErrMissingTenant, got %v", err)
		}
	})

	t.Run("distinct tenants never resolve to the same target", func(t *testing.T) {
		c := Config{Tenant: TenantModeSchema, Schema: "public", Table: "state"}
		t1, _ := c.Resolve("T1")
		t2, _ := c.Resolve("T2")
		if t1 == t2 {
			t.Errorf("distinct tenants resolved to the same target: %+v", t1)
		}
	})
}
