package statestore

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/tenantpg/statestore/internal/provisioner"
	"github.com/tenantpg/statestore/internal/store"
)

// Service's data-path methods (Get/Set/Delete/BulkTransact) drive a real
// *pgxpool.Pool end to end and are left to integration coverage; the
// adapter primitives they call are tested in internal/store against the
// DBTX seam. What's tested here is the pure validation/derivation logic
// around them — everything reachable without a live database.

func newTestService() *Service {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return New(logger, provisioner.New(), "../../migrations/metadata")
}

func TestService_UninitializedRejectsOperations(t *testing.T) {
	s := newTestService()

	if _, _, _, err := s.Get(context.Background(), "k", nil); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Get: expected ErrNotInitialized, got %v", err)
	}
	if _, err := s.Set(context.Background(), "k", []byte("v"), nil, nil); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Set: expected ErrNotInitialized, got %v", err)
	}
	if err := s.Delete(context.Background(), "k", nil, nil); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Delete: expected ErrNotInitialized, got %v", err)
	}
	if err := s.Ping(context.Background()); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Ping: expected ErrNotInitialized, got %v", err)
	}
}

func TestService_Features(t *testing.T) {
	s := newTestService()
	got := s.Features()
	want := []Feature{FeatureEtag, FeatureTransactional}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Features() = %v, want %v", got, want)
	}
}

func TestParseTTL(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    int
		wantErr bool
	}{
		{name: "absent defaults to no expiry", raw: "", want: 0},
		{name: "positive value", raw: "60", want: 60},
		{name: "zero clears expiry", raw: "0", want: 0},
		{name: "non-numeric fails", raw: "soon", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTTL(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseTTL(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parseTTL(%q) = %d, want %d", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseEtagOpt(t *testing.T) {
	t.Run("nil means unconditional", func(t *testing.T) {
		got, err := parseEtagOpt(nil)
		if err != nil || got != nil {
			t.Fatalf("got (%v, %v), want (nil, nil)", got, err)
		}
	})

	t.Run("valid etag parses", func(t *testing.T) {
		valid := store.NewEtag().String()
		got, err := parseEtagOpt(&valid)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got == nil || got.String() != valid {
			t.Errorf("got %v, want %s", got, valid)
		}
	})

	t.Run("malformed etag fails EtagInvalid", func(t *testing.T) {
		bogus := "not-a-valid-etag"
		_, err := parseEtagOpt(&bogus)
		if !errors.Is(err, store.ErrEtagInvalid) {
			t.Errorf("expected ErrEtagInvalid, got %v", err)
		}
	})
}

func TestRawEtagOpt(t *testing.T) {
	t.Run("nil means unconditional", func(t *testing.T) {
		if got := rawEtagOpt(nil); got != nil {
			t.Fatalf("got %v, want nil", got)
		}
	})

	t.Run("a syntactically malformed etag passes through unvalidated", func(t *testing.T) {
		bogus := "not-a-valid-etag"
		got := rawEtagOpt(&bogus)
		if got == nil || got.String() != bogus {
			t.Fatalf("got %v, want %q passed straight through", got, bogus)
		}
	})
}

func TestIsMissing(t *testing.T) {
	if !isMissing(store.ErrNotFound) {
		t.Error("ErrNotFound should be missing")
	}
	if !isMissing(store.ErrTableMissing) {
		t.Error("ErrTableMissing should be missing")
	}
	if isMissing(store.ErrEtagMismatch) {
		t.Error("ErrEtagMismatch should not be treated as missing")
	}
}
