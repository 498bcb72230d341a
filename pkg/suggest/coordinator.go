package suggest

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"
)

// Coordinator serves suggestions for a parent site, preferring the
// persistent cache and falling back to the network with at-most-one
// outstanding fetch per (site, kind).
//
// The in-flight state is keyed per (site, kind) rather than globally, so
// lookups for unrelated sites never serialize. Concurrent duplicate lookups
// for the same site are coalesced into one network call and every waiter
// receives the same result.
type Coordinator struct {
	client Fetcher
	store  Store
	reach  Reachability
	index  *Index

	fetchTimeout time.Duration
	group        singleflight.Group
}

// NewCoordinator wires a coordinator. client and store are required; reach
// may be nil, in which case the network is always attempted. fetchTimeout
// of zero disables the deadline.
func NewCoordinator(client Fetcher, store Store, reach Reachability, fetchTimeout time.Duration) (*Coordinator, error) {
	if client == nil {
		return nil, ErrMissingClient
	}
	if store == nil {
		return nil, ErrMissingStore
	}
	return &Coordinator{
		client:       client,
		store:        store,
		reach:        reach,
		fetchTimeout: fetchTimeout,
	}, nil
}

// SetIndex attaches an optional prefix index that is rebuilt whenever a
// fresh set is installed. Must be called before the coordinator is shared
// across goroutines.
func (c *Coordinator) SetIndex(idx *Index) {
	c.index = idx
}

// Get returns the suggestion set for site.
//
// Cache first: a non-empty persisted set is returned without touching the
// network. With an empty cache, an unreachable network fails with
// ErrNoResults. Otherwise one fetch runs; on success the stored set is
// replaced wholesale and the fresh set returned. A failed fetch leaves the
// previous cache intact and surfaces only the typed error.
func (c *Coordinator) Get(ctx context.Context, site string, kind Kind) ([]Suggestion, error) {
	if c.client == nil {
		return nil, ErrMissingClient
	}
	if c.store == nil {
		return nil, ErrMissingStore
	}
	if site == "" {
		return nil, ErrHostnameUnavailable
	}

	cached, err := c.store.Read(site, kind)
	if err != nil {
		// A corrupt or unreadable cache file is not terminal, the network
		// refresh below overwrites it.
		log.Warnf("Reading cached %s suggestions for %s: %v", kind, site, err)
	}
	if len(cached) > 0 {
		log.Debugf("Serving %d cached %s suggestions for %s", len(cached), kind, site)
		if c.index != nil && !c.index.Has(site, kind) {
			c.index.Install(site, kind, cached)
		}
		return cached, nil
	}

	return c.fetch(ctx, site, kind)
}

// Refresh bypasses the cache-first check and forces a network fetch,
// still coalesced with any in-flight fetch for the same (site, kind).
func (c *Coordinator) Refresh(ctx context.Context, site string, kind Kind) ([]Suggestion, error) {
	if c.client == nil {
		return nil, ErrMissingClient
	}
	if c.store == nil {
		return nil, ErrMissingStore
	}
	if site == "" {
		return nil, ErrHostnameUnavailable
	}
	return c.fetch(ctx, site, kind)
}

func (c *Coordinator) fetch(ctx context.Context, site string, kind Kind) ([]Suggestion, error) {
	if c.reach != nil && !c.reach.IsReachable() {
		return nil, ErrNoResults
	}

	key := kind.String() + "/" + site
	v, err, shared := c.group.Do(key, func() (any, error) {
		return c.refresh(ctx, site, kind)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		log.Debugf("Coalesced duplicate fetch for %s", key)
	}
	return v.([]Suggestion), nil
}

// refresh runs at most once per (site, kind) at a time. The deadline of the
// first caller's context governs the shared flight.
func (c *Coordinator) refresh(ctx context.Context, site string, kind Kind) ([]Suggestion, error) {
	if c.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.fetchTimeout)
		defer cancel()
	}

	start := time.Now()
	items, err := c.client.Fetch(ctx, site, kind)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			log.Warnf("Fetching %s suggestions for %s timed out after %s", kind, site, c.fetchTimeout)
			return nil, ErrTimeout
		}
		return nil, err
	}

	if err := c.store.ReplaceAll(site, kind, items); err != nil {
		return nil, &StoreError{Cause: err}
	}

	log.Debugf("Refreshed %d %s suggestions for %s in %s", len(items), kind, site, time.Since(start))
	if c.index != nil {
		c.index.Install(site, kind, items)
	}
	return items, nil
}
