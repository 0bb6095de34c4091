package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations.
// Values are opaque encoded bytes so that any backend can hold them.
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// ProductSource looks up packaged food products by barcode or name.
type ProductSource interface {
	GetProduct(ctx context.Context, barcode string) (*Product, error)
	SearchProducts(ctx context.Context, query string, pageSize int) ([]Product, error)
}

// TextExtractor turns a label image into raw text.
type TextExtractor interface {
	ExtractText(ctx context.Context, imageURL string) (string, error)
}
