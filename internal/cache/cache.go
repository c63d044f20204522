package cache

import (
	"context"
	"time"

	"lumapos/backend/internal/domain"
)

// ReceiptCache caches assembled receipt documents by sale ID. Receipts are
// immutable projections, so entries only need invalidation when a sale is
// deleted.
type ReceiptCache interface {
	Get(ctx context.Context, saleID string) (*domain.Receipt, bool, error)
	Set(ctx context.Context, saleID string, receipt *domain.Receipt, ttl time.Duration) error
	Delete(ctx context.Context, saleID string) error
}

type NoopReceiptCache struct{}

func (NoopReceiptCache) Get(_ context.Context, _ string) (*domain.Receipt, bool, error) {
	return nil, false, nil
}

func (NoopReceiptCache) Set(_ context.Context, _ string, _ *domain.Receipt, _ time.Duration) error {
	return nil
}

func (NoopReceiptCache) Delete(_ context.Context, _ string) error {
	return nil
}
