package cache

import (
	"context"
	"time"

	"tillpoint/backend/internal/domain"
)

// SuspendedCartCache is a read-through accelerator for held carts. The store
// remains the source of truth; a cache miss always falls back to it.
type SuspendedCartCache interface {
	Get(ctx context.Context, cartID string) (*domain.Cart, bool, error)
	Set(ctx context.Context, cart domain.Cart, ttl time.Duration) error
	Delete(ctx context.Context, cartID string) error
}

type NoopSuspendedCartCache struct{}

func (NoopSuspendedCartCache) Get(_ context.Context, _ string) (*domain.Cart, bool, error) {
	return nil, false, nil
}

func (NoopSuspendedCartCache) Set(_ context.Context, _ domain.Cart, _ time.Duration) error {
	return nil
}

func (NoopSuspendedCartCache) Delete(_ context.Context, _ string) error {
	return nil
}
