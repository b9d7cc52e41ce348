package store

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeDBTX is a minimal hand-rolled DBTX double (no mocking framework).
type fakeDBTX struct {
	execFunc     func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	queryRowFunc func(ctx context.Context, sql string, args ...any) pgx.Row
}

func (f *fakeDBTX) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return f.execFunc(ctx, sql, args...)
}

func (f *fakeDBTX) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented in fake")
}

func (f *fakeDBTX) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return f.queryRowFunc(ctx, sql, args...)
}

type fakeRow struct {
	scanFunc func(dest ...any) error
}

func (r fakeRow) Scan(dest ...any) error { return r.scanFunc(dest...) }

func TestAdapter_Get(t *testing.T) {
	tgt := Target{Schema: "t1-public", Table: "state"}

	t.Run("row found", func(t *testing.T) {
		db := &fakeDBTX{
			queryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
				return fakeRow{scanFunc: func(dest ...any) error {
					*dest[0].(*[]byte) = []byte(`{"a":1}`)
					*dest[1].(*string) = "abc-etag"
					return nil
				}}
			},
		}
		row, err := New(db).Get(context.Background(), tgt, "k")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(row.Value) != `{"a":1}` || row.Etag != "abc-etag" {
			t.Errorf("unexpected row: %+v", row)
		}
	})

	t.Run("missing row", func(t *testing.T) {
		db := &fakeDBTX{
			queryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
				return fakeRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }}
			},
		}
		_, err := New(db).Get(context.Background(), tgt, "k")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("table missing", func(t *testing.T) {
		db := &fakeDBTX{
			queryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
				return fakeRow{scanFunc: func(dest ...any) error {
					return &pgconn.PgError{Code: "42P01", Message: "relation does not exist"}
				}}
			},
		}
		_, err := New(db).Get(context.Background(), tgt, "k")
		if !errors.Is(err, ErrTableMissing) {
			t.Errorf("expected ErrTableMissing, got %v", err)
		}
	})
}

func TestAdapter_Upsert(t *testing.T) {
	tgt := Target{Schema: "public", Table: "state"}

	t.Run("unconditional insert generates fresh etag", func(t *testing.T) {
		db := &fakeDBTX{
			execFunc: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
				return pgconn.NewCommandTag("INSERT 0 1"), nil
			},
		}
		etag, err := New(db).Upsert(context.Background(), tgt, "k", []byte(`"v"`), nil, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if etag == "" {
			t.Error("expected non-empty etag")
		}
	})

	t.Run("conditional update, zero rows affected is EtagMismatch", func(t *testing.T) {
		db := &fakeDBTX{
			execFunc: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
				return pgconn.NewCommandTag("UPDATE 0"), nil
			},
		}
		old := Etag("11111111-1111-1111-1111-111111111111")
		_, err := New(db).Upsert(context.Background(), tgt, "k", []byte(`"v"`), &old, 0)
		if !errors.Is(err, ErrEtagMismatch) {
			t.Errorf("expected ErrEtagMismatch, got %v", err)
		}
	})

	t.Run("conditional update, one row affected succeeds with new etag", func(t *testing.T) {
		db := &fakeDBTX{
			execFunc: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
				return pgconn.NewCommandTag("UPDATE 1"), nil
			},
		}
		old := Etag("11111111-1111-1111-1111-111111111111")
		newEtag, err := New(db).Upsert(context.Background(), tgt, "k", []byte(`"v"`), &old, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if newEtag == old {
			t.Error("expected a fresh etag distinct from the old one")
		}
	})
}

func TestAdapter_Delete(t *testing.T) {
	tgt := Target{Schema: "public", Table: "state"}

	t.Run("conditional delete, zero rows is EtagMismatch", func(t *testing.T) {
		db := &fakeDBTX{
			execFunc: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
				return pgconn.NewCommandTag("DELETE 0"), nil
			},
		}
		etag := Etag("11111111-1111-1111-1111-111111111111")
		err := New(db).Delete(context.Background(), tgt, "k", &etag)
		if !errors.Is(err, ErrEtagMismatch) {
			t.Errorf("expected ErrEtagMismatch, got %v", err)
		}
	})

	t.Run("delete against a missing table reports ErrTableMissing", func(t *testing.T) {
		db := &fakeDBTX{
			execFunc: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
				return pgconn.CommandTag{}, &pgconn.PgError{Code: "42P01"}
			},
		}
		err := New(db).Delete(context.Background(), tgt, "k", nil)
		if !errors.Is(err, ErrTableMissing) {
			t.Errorf("expected ErrTableMissing, got %v", err)
		}
	})
}

func TestTarget_Validate(t *testing.T) {
	tests := []struct {
		name    string
		target  Target
		wantErr bool
	}{
		{"plain identifiers", Target{Schema: "public", Table: "state"}, false},
		{"tenant-prefixed schema", Target{Schema: "acme-public", Table: "state"}, false},
		{"digit-leading tenant id is fine, quoting handles it", Target{Schema: "123-public", Table: "state"}, false},
		{"embedded quote is fine, quoting doubles it", Target{Schema: `weird"name-public`, Table: "state"}, false},
		{"rejects empty schema", Target{Schema: "", Table: "state"}, true},
		{"rejects embedded NUL byte", Target{Schema: "bad\x00name", Table: "state"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.target.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
