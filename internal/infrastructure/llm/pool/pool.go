// Package pool serializes access to the resident generative model
// slot. GPU memory holds one generative model at a time, so every
// tier attempt across all concurrent requests goes through a single
// weighted semaphore.
package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/asorokin/legal-doc-classifier/internal/core/domain"
	"github.com/asorokin/legal-doc-classifier/internal/core/ports"
)

// Generator is one tier's text backend.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Pool struct {
	slot       *semaphore.Weighted
	generators map[domain.Tier]Generator

	acquireTimeout time.Duration
}

func New(primary, fallback Generator, acquireTimeout time.Duration) *Pool {
	if acquireTimeout <= 0 {
		acquireTimeout = 30 * time.Second
	}
	generators := make(map[domain.Tier]Generator, 2)
	if primary != nil {
		generators[domain.TierPrimary] = primary
	}
	if fallback != nil {
		generators[domain.TierFallback] = fallback
	}
	return &Pool{
		slot:           semaphore.NewWeighted(1),
		generators:     generators,
		acquireTimeout: acquireTimeout,
	}
}

// Acquire blocks until the model slot is free, then hands out an
// exclusive lease bound to the tier's backend. A tier with no
// configured backend fails without touching the slot.
func (p *Pool) Acquire(ctx context.Context, tier domain.Tier) (ports.ModelLease, error) {
	gen, ok := p.generators[tier]
	if !ok {
		return nil, domain.WrapError(domain.ErrModelUnavailable, "acquire slot",
			fmt.Errorf("no backend configured for tier %s", tier))
	}

	waitCtx, cancel := context.WithTimeout(ctx, p.acquireTimeout)
	defer cancel()

	if err := p.slot.Acquire(waitCtx, 1); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("slot busy for %s: %w", p.acquireTimeout, err)
		}
		return nil, domain.WrapError(domain.ErrModelUnavailable, "acquire slot", err)
	}

	lease := &lease{gen: gen}
	lease.release = func() { p.slot.Release(1) }
	return lease, nil
}

type lease struct {
	gen     Generator
	once    sync.Once
	release func()
}

func (l *lease) Generate(ctx context.Context, prompt string) (string, error) {
	return l.gen.Generate(ctx, prompt)
}

// Release is idempotent; the cascade defers it on every exit path.
func (l *lease) Release() {
	l.once.Do(l.release)
}
