package cachestore

import (
	"context"

	"github.com/yanqian/booksum/internal/domain/summarizer"
)

// Store is a summarizer cache that can also be inspected and emptied.
type Store interface {
	summarizer.CacheStore
	Len(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}
