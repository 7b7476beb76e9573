package catalog

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
)

// CachedLookup memoizes exact name and synonym lookups in front of a slower
// Lookup (a remote catalog, or the bleve-backed index under load). Similarity
// candidate listings are query-dependent and left uncached.
// Lookup failures are never cached.
type CachedLookup struct {
	next     Lookup
	names    *expirable.LRU[string, *Entry]
	synonyms *expirable.LRU[string, []Entry]
	logger   *zap.Logger
}

// NewCachedLookup wraps next with an expiring LRU of the given size and TTL.
func NewCachedLookup(next Lookup, size int, ttl time.Duration, logger *zap.Logger) *CachedLookup {
	if size <= 0 {
		size = 1024
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedLookup{
		next:     next,
		names:    expirable.NewLRU[string, *Entry](size, nil, ttl),
		synonyms: expirable.NewLRU[string, []Entry](size, nil, ttl),
		logger:   logger.Named("catalog_cache"),
	}
}

// LookupExactName implements Lookup with memoization. Negative results are
// cached too: "no such product" is as expensive to recompute as a hit.
func (c *CachedLookup) LookupExactName(ctx context.Context, name string) (*Entry, error) {
	if cached, ok := c.names.Get(name); ok {
		c.logger.Debug("name lookup cache hit", zap.String("name", name))
		return cached, nil
	}
	entry, err := c.next.LookupExactName(ctx, name)
	if err != nil {
		return nil, err
	}
	c.names.Add(name, entry)
	return entry, nil
}

// LookupExactSynonym implements Lookup with memoization.
func (c *CachedLookup) LookupExactSynonym(ctx context.Context, synonym string) ([]Entry, error) {
	if cached, ok := c.synonyms.Get(synonym); ok {
		c.logger.Debug("synonym lookup cache hit", zap.String("synonym", synonym))
		return cached, nil
	}
	entries, err := c.next.LookupExactSynonym(ctx, synonym)
	if err != nil {
		return nil, err
	}
	c.synonyms.Add(synonym, entries)
	return entries, nil
}

// ListCandidates implements Lookup by delegating directly.
func (c *CachedLookup) ListCandidates(ctx context.Context, normalized string) ([]Entry, error) {
	return c.next.ListCandidates(ctx, normalized)
}

// Purge drops all memoized lookups, e.g. after a catalog reload.
func (c *CachedLookup) Purge() {
	c.names.Purge()
	c.synonyms.Purge()
}
