// internal/search/cached.go
//
// Opt-in memoization of sub-agency lookups, built on internal/cache.
package search

import (
	"context"
	"slices"
	"time"

	"github.com/yanizio/distiller/internal/cache"
)

// CachedSource memoizes a SubAgencySource per prefix.  Listings change only
// when the clearinghouse load runs, so a short TTL keeps the dependent
// select cheap without serving stale data for long.  Failures are never
// cached.
type CachedSource struct {
	next SubAgencySource
	lru  *cache.LRU[string, []string]
}

// NewCachedSource wraps next with an LRU of size entries that expire after
// ttl.
func NewCachedSource(next SubAgencySource, size int, ttl time.Duration) *CachedSource {
	return &CachedSource{next: next, lru: cache.New[string, []string](size, ttl)}
}

// DistinctSubAgencies implements SubAgencySource.
func (c *CachedSource) DistinctSubAgencies(ctx context.Context, prefix string) ([]string, error) {
	if v, ok := c.lru.Get(prefix); ok {
		return slices.Clone(v), nil
	}
	v, err := c.next.DistinctSubAgencies(ctx, prefix)
	if err != nil {
		return nil, err
	}
	c.lru.Add(prefix, slices.Clone(v))
	return v, nil
}
