package captions

import (
	"context"

	"go.uber.org/zap"

	"ytscribe/internal/logging"
	"ytscribe/models"
)

// Store is the subset of cache.Tiered the cached fetcher needs.
type Store interface {
	GetJSON(ctx context.Context, key string, v any) bool
	SetJSON(ctx context.Context, key string, v any) error
}

// KeyFunc derives a cache key for a video.
type KeyFunc func(id models.VideoID) string

// CachedFetcher serves repeat lookups from a Store. Failures are not cached.
type CachedFetcher struct {
	next   Fetcher
	store  Store
	key    KeyFunc
	logger *zap.SugaredLogger
}

// NewCachedFetcher wraps next.
func NewCachedFetcher(next Fetcher, store Store, key KeyFunc, logger *zap.SugaredLogger) *CachedFetcher {
	return &CachedFetcher{next: next, store: store, key: key, logger: logging.OrNop(logger)}
}

// Fetch implements Fetcher.
func (c *CachedFetcher) Fetch(ctx context.Context, id models.VideoID) (*models.TranscriptDocument, error) {
	key := c.key(id)

	var doc models.TranscriptDocument
	if c.store.GetJSON(ctx, key, &doc) && doc.Validate() == nil {
		c.logger.Debugw("captions served from cache", "video_id", id)
		return &doc, nil
	}

	fetched, err := c.next.Fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.store.SetJSON(ctx, key, fetched); err != nil {
		c.logger.Debugw("caching captions failed", "video_id", id, "error", err)
	}
	return fetched, nil
}
