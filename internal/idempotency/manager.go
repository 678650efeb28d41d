// Package idempotency makes sure a redelivered Telegram update is handled once.
package idempotency

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ErrEmptyKey is returned when Execute is called without a key.
var ErrEmptyKey = errors.New("idempotency key is empty")

type Operation func(ctx context.Context) error

type Manager interface {
	// Execute runs fn unless key was claimed within ttl. It reports whether fn ran.
	Execute(ctx context.Context, key string, ttl time.Duration, fn Operation) (bool, error)
}

type manager struct {
	store Store
	log   *slog.Logger
}

func NewManager(store Store, log *slog.Logger) Manager {
	if log == nil {
		log = slog.Default()
	}

	return &manager{
		store: store,
		log:   log,
	}
}

// Execute claims key before running fn. A failed fn releases the claim so a
// redelivery of the same update can be processed again.
func (m *manager) Execute(ctx context.Context, key string, ttl time.Duration, fn Operation) (bool, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if fn == nil {
		return false, errors.New("operation fn cannot be nil")
	}
	if key == "" {
		return false, ErrEmptyKey
	}

	claimed, err := m.store.Claim(ctx, key, ttl)
	if err != nil {
		// the store is an optimisation; an outage must not drop updates
		m.log.Warn("idempotency store unavailable, running without dedupe", slog.String("key", key), slog.String("error", err.Error()))
		return true, fn(ctx)
	}
	if !claimed {
		m.log.Debug("duplicate update skipped", slog.String("key", key))
		return false, nil
	}

	if err := fn(ctx); err != nil {
		if releaseErr := m.store.Release(ctx, key); releaseErr != nil {
			m.log.Warn("failed to release idempotency key", slog.String("key", key), slog.String("error", releaseErr.Error()))
		}
		return true, err
	}

	return true, nil
}
