package persistence

import (
	"context"
	"time"

	"github.com/rcauth-eu/keyportal/internal/domain"
	"github.com/rcauth-eu/keyportal/pkg/cache"
)

const (
	// Client rows change only when an operator registers or approves a
	// client, so a short TTL is enough to bound staleness.
	clientCacheTTL   = time.Minute
	clientCacheSweep = 5 * time.Minute
)

// CachedClientStore wraps a ClientStore with a TTL cache. Every
// authenticated request resolves its client, so hot clients would
// otherwise cost a round-trip per request.
type CachedClientStore struct {
	inner   domain.ClientStore
	entries *cache.TTL[string, domain.Client]
}

func NewCachedClientStore(inner domain.ClientStore) *CachedClientStore {
	return &CachedClientStore{
		inner:   inner,
		entries: cache.New[string, domain.Client](clientCacheTTL, clientCacheSweep),
	}
}

var _ domain.ClientStore = (*CachedClientStore)(nil)

func (s *CachedClientStore) Get(ctx context.Context, id string) (*domain.Client, error) {
	if c, ok := s.entries.Get(id); ok {
		return &c, nil
	}

	c, err := s.inner.Get(ctx, id)
	if err != nil {
		// Misses are not cached: an unknown client may be registered at
		// any moment and should resolve on its next attempt.
		return nil, err
	}
	s.entries.Set(id, *c)
	return c, nil
}

// Close stops the cache's sweep goroutine.
func (s *CachedClientStore) Close() {
	s.entries.Stop()
}
