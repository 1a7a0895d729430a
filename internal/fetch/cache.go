// Package fetch provides a generic keyed fetch-and-cache unit.
//
// Each widget data source (weather by coordinates or city, news by country,
// trending repositories) is one Cache instance: a map of
// key → {data, fetchedAt, status} with a staleness window, a bounded retry
// policy for transient failures, and an enablement guard that refuses to
// fetch until the key is fully resolved.
//
// Freshness policy: inside the staleness window a cached value is returned
// without touching the upstream. Past the window the cached value is still
// returned, but a background refetch is kicked off so the next access sees
// fresh data. A window of zero means entries never go stale — they are
// replaced only through Invalidate or a key change.
package fetch

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrKeyUnresolved is returned when the enablement guard rejects the key
// (e.g. weather asked for before both coordinates are known). No fetch is
// attempted and nothing is retried — callers map this to a validation error.
var ErrKeyUnresolved = errors.New("fetch: key not resolved")

// Status describes one cache entry's lifecycle.
type Status int

const (
	StatusIdle Status = iota
	StatusPending
	StatusSucceeded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	default:
		return "idle"
	}
}

// permanentError marks a failure that retrying cannot fix (4xx semantics).
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so the cache will not retry it. Fetchers wrap
// semantic errors (bad input, missing API key) and leave transient ones
// (network, 5xx) unwrapped.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}

// FetchFunc loads the value for one key from upstream.
type FetchFunc[K comparable, V any] func(ctx context.Context, key K) (V, error)

// Options tunes one cache unit.
type Options[K comparable] struct {
	// Staleness is the window within which cached data is fresh enough to
	// skip a refetch. Zero means entries never expire.
	Staleness time.Duration
	// Retries is the number of automatic re-attempts after a transient
	// failure (so Retries=1 means at most 2 calls per Get).
	Retries int
	// Guard reports whether the key is resolved enough to fetch. Nil means
	// every key is fetchable.
	Guard func(K) bool
}

// Cache is a keyed fetch-and-cache unit. Safe for concurrent use; fetches
// for the same key are serialized, distinct keys never block each other.
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*entry[V]
	fetch   FetchFunc[K, V]
	opts    Options[K]
	now     func() time.Time
}

type entry[V any] struct {
	mu         sync.Mutex
	data       V
	ok         bool
	err        error
	fetchedAt  time.Time
	status     Status
	refreshing bool
}

// New creates a cache unit around the given fetcher.
func New[K comparable, V any](fetchFn FetchFunc[K, V], opts Options[K]) *Cache[K, V] {
	return &Cache[K, V]{
		entries: make(map[K]*entry[V]),
		fetch:   fetchFn,
		opts:    opts,
		now:     time.Now,
	}
}

// Get returns the value for key, fetching it if absent. A cached value
// inside the staleness window is returned as-is; a stale one is returned
// immediately while a single background refetch runs. A previously failed
// entry is retried synchronously.
func (c *Cache[K, V]) Get(ctx context.Context, key K) (V, error) {
	var zero V
	if c.opts.Guard != nil && !c.opts.Guard(key) {
		return zero, ErrKeyUnresolved
	}

	e := c.entryFor(key)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ok {
		age := c.now().Sub(e.fetchedAt)
		if c.opts.Staleness == 0 || age < c.opts.Staleness {
			return e.data, nil
		}
		// Stale: serve what we have, refresh once in the background. The
		// refetch outlives this request on purpose.
		if !e.refreshing {
			e.refreshing = true
			go c.refresh(context.WithoutCancel(ctx), key, e)
		}
		return e.data, nil
	}

	// Nothing cached (or last attempt failed): fetch now. Holding e.mu
	// serializes concurrent callers for the same key.
	e.status = StatusPending
	data, err := c.fetchWithRetry(ctx, key)
	e.fetchedAt = c.now()
	if err != nil {
		e.status = StatusFailed
		e.err = err
		return zero, err
	}
	e.status = StatusSucceeded
	e.data = data
	e.ok = true
	e.err = nil
	return data, nil
}

// Invalidate drops the entry for key; the next Get refetches. Used for the
// manual-refresh affordance.
func (c *Cache[K, V]) Invalidate(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// EntryInfo is a read-only snapshot of one entry's bookkeeping.
type EntryInfo struct {
	Status    Status
	FetchedAt time.Time
	Err       error
}

// Info reports the state of the entry for key without fetching.
func (c *Cache[K, V]) Info(key K) EntryInfo {
	c.mu.Lock()
	e, ok := c.entries[key]
	c.mu.Unlock()
	if !ok {
		return EntryInfo{Status: StatusIdle}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return EntryInfo{Status: e.status, FetchedAt: e.fetchedAt, Err: e.err}
}

func (c *Cache[K, V]) entryFor(key K) *entry[V] {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		e = &entry[V]{}
		c.entries[key] = e
	}
	return e
}

// refresh replaces a stale entry in the background. A failed refresh keeps
// the stale data in place — stale beats blank.
func (c *Cache[K, V]) refresh(ctx context.Context, key K, e *entry[V]) {
	data, err := c.fetchWithRetry(ctx, key)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.refreshing = false
	if err != nil {
		e.err = err
		return
	}
	e.data = data
	e.ok = true
	e.err = nil
	e.status = StatusSucceeded
	e.fetchedAt = c.now()
}

func (c *Cache[K, V]) fetchWithRetry(ctx context.Context, key K) (V, error) {
	var (
		data V
		err  error
	)
	for attempt := 0; attempt <= c.opts.Retries; attempt++ {
		data, err = c.fetch(ctx, key)
		if err == nil {
			return data, nil
		}
		if IsPermanent(err) || ctx.Err() != nil {
			break
		}
	}
	var zero V
	return zero, err
}
