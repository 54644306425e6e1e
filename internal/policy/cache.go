package policy

import (
	"context"
	"time"

	expirationcache "github.com/0xERR0R/expiration-cache"
	"github.com/go-logr/logr"
)

const documentKey = "policy"

type documentCache interface {
	Put(key string, val *Document, expiration time.Duration)
	Get(key string) (val *Document, expiration time.Duration)
}

// CachedSource serves the last fetched document until it is older than TTL,
// then fetches again from the wrapped source. A failed refresh is returned
// to the caller; the stale document is not served.
type CachedSource struct {
	next  Source
	ttl   time.Duration
	cache documentCache
	log   logr.Logger
}

// NewCachedSource wraps next. A TTL of zero or less disables caching.
func NewCachedSource(ctx context.Context, next Source, ttl time.Duration, log logr.Logger) *CachedSource {
	c := &CachedSource{next: next, ttl: ttl, log: log}
	if ttl > 0 {
		c.cache = expirationcache.NewCache[Document](ctx, expirationcache.Options{
			CleanupInterval: ttl,
		})
	}
	return c
}

// FetchPolicy returns the cached document or refreshes it.
func (c *CachedSource) FetchPolicy(ctx context.Context) (*Document, error) {
	if c.cache == nil {
		return c.next.FetchPolicy(ctx)
	}
	if doc, remaining := c.cache.Get(documentKey); doc != nil {
		c.log.V(1).Info("policy cache hit", "expiresIn", remaining)
		return doc, nil
	}

	doc, err := c.next.FetchPolicy(ctx)
	if err != nil {
		return nil, err
	}
	c.cache.Put(documentKey, doc, c.ttl)
	c.log.V(1).Info("policy cache refreshed", "records", doc.Len())
	return doc, nil
}
