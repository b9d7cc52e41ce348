// Package provisioner implements a memoized, mutually-exclusive
// "create-if-absent" gate. It is what stands between N concurrent
// first-writers for a brand-new tenant and N redundant CREATE
// SCHEMA/CREATE TABLE round-trips racing on the catalog — the
// single-flight collapses them into one factory call per resourceKey per
// process lifetime.
package provisioner

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/tenantpg/statestore/internal/telemetry"
)

// Provisioner memoizes "has resourceKey's factory ever succeeded" across
// the whole process, deduplicating concurrent attempts for the same key
// via singleflight and never memoizing a failed attempt.
type Provisioner struct {
	group singleflight.Group
	done  sync.Map // resourceKey string -> struct{}
}

// New creates an empty Provisioner. A Provisioner is a long-lived,
// process-wide singleton — the process host constructs exactly one and
// shares it across every request.
func New() *Provisioner {
	return &Provisioner{}
}

// Ensure runs factory() exactly once per resourceKey per process
// lifetime on success. Concurrent callers for the same key block until
// the first completes, then share its result; callers for distinct keys
// never contend with each other. On factory failure the key is not
// memoized, so the next call retries from scratch.
func (p *Provisioner) Ensure(ctx context.Context, resourceKey string, factory func(ctx context.Context) error) error {
	if _, ok := p.done.Load(resourceKey); ok {
		telemetry.ProvisionerOutcomeTotal.WithLabelValues("memoized").Inc()
		return nil
	}

	// ran is set only in the caller whose closure singleflight executed;
	// callers that waited on that in-flight call leave it false.
	ran := false
	_, err, _ := p.group.Do(resourceKey, func() (any, error) {
		// Re-check under the singleflight key: another goroutine may have
		// completed (and been forgotten by the group) between our Load
		// above and entering Do.
		if _, ok := p.done.Load(resourceKey); ok {
			return nil, nil
		}
		if err := factory(ctx); err != nil {
			return nil, err
		}
		ran = true
		p.done.Store(resourceKey, struct{}{})
		return nil, nil
	})

	if err != nil {
		telemetry.ProvisionerOutcomeTotal.WithLabelValues("failed").Inc()
		return err
	}
	if ran {
		telemetry.ProvisionerOutcomeTotal.WithLabelValues("created").Inc()
	} else {
		telemetry.ProvisionerOutcomeTotal.WithLabelValues("memoized").Inc()
	}
	return nil
}
