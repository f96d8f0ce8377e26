package loader

import (
	"container/list"
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultCapacity keeps a single backend loaded, releasing the previous one when another is needed.
const DefaultCapacity = 1

// LoadFunc loads the backend for a key.
type LoadFunc[T any] func(ctx context.Context, key Key) (T, error)

// Stats are the cache counters.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Loads     uint64
	Evictions uint64
}

type entry[T any] struct {
	key   Key
	value T
}

// Cache is a concurrency-safe LRU cache of backends. An evicted backend implementing io.Closer is
// closed even if a caller still holds it, so callers must not keep backends across Get calls.
type Cache[T any] struct {
	logger   *zap.Logger
	capacity int

	mu      sync.Mutex
	entries map[Key]*list.Element
	lru     *list.List
	group   singleflight.Group

	hits      atomic.Uint64
	misses    atomic.Uint64
	loads     atomic.Uint64
	evictions atomic.Uint64
}

type Option func(c *cacheConfig)

type cacheConfig struct {
	logger   *zap.Logger
	capacity int
}

// WithCapacity sets how many backends stay loaded. Values below 1 are ignored.
func WithCapacity(capacity int) Option {
	return func(c *cacheConfig) {
		if capacity > 0 {
			c.capacity = capacity
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *cacheConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates an empty cache.
func New[T any](opts ...Option) *Cache[T] {
	cfg := &cacheConfig{
		logger:   zap.NewNop(),
		capacity: DefaultCapacity,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return &Cache[T]{
		logger:   cfg.logger,
		capacity: cfg.capacity,
		entries:  make(map[Key]*list.Element),
		lru:      list.New(),
	}
}

// Get returns the backend cached for key, calling load on a miss. Concurrent misses on the same
// key call load once.
func (c *Cache[T]) Get(ctx context.Context, key Key, load LoadFunc[T]) (T, error) {
	if value, ok := c.lookup(key); ok {
		c.hits.Add(1)
		c.logger.Debug("reusing loaded model", zap.Stringer("key", key))

		return value, nil
	}
	c.misses.Add(1)

	var zero T
	if load == nil {
		return zero, ErrLoaderMustBeSet
	}

	res, err, _ := c.group.Do(key.Digest(), func() (any, error) {
		if value, ok := c.lookup(key); ok {
			return value, nil
		}

		c.logger.Info("loading model", zap.Stringer("key", key))
		c.loads.Add(1)

		value, err := load(ctx, key)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to load %s", key)
		}
		if any(value) == nil {
			return nil, errors.Wrapf(ErrNilBackend, "%s", key)
		}

		c.add(key, value)

		return value, nil
	})
	if err != nil {
		return zero, err
	}

	return res.(T), nil
}

func (c *Cache[T]) lookup(key Key) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		var zero T

		return zero, false
	}
	c.lru.MoveToFront(elem)

	return elem.Value.(*entry[T]).value, true
}

func (c *Cache[T]) add(key Key, value T) {
	c.mu.Lock()
	var evicted []*entry[T]
	for c.lru.Len() >= c.capacity {
		oldest := c.lru.Back()
		c.lru.Remove(oldest)
		e := oldest.Value.(*entry[T])
		delete(c.entries, e.key)
		evicted = append(evicted, e)
	}
	c.entries[key] = c.lru.PushFront(&entry[T]{key: key, value: value})
	c.mu.Unlock()

	for _, e := range evicted {
		c.evictions.Add(1)
		c.logger.Info("unloading model", zap.Stringer("key", e.key))
		c.release(e)
	}
}

func (c *Cache[T]) release(e *entry[T]) {
	closer, ok := any(e.value).(io.Closer)
	if !ok {
		return
	}

	err := closer.Close()
	if err != nil {
		c.logger.Warn("unable to close model", zap.Stringer("key", e.key), zap.Error(err))
	}
}

// Len returns how many backends are loaded.
func (c *Cache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.lru.Len()
}

// Keys returns the loaded keys, most recently used first.
func (c *Cache[T]) Keys() []Key {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]Key, 0, c.lru.Len())
	for elem := c.lru.Front(); elem != nil; elem = elem.Next() {
		keys = append(keys, elem.Value.(*entry[T]).key)
	}

	return keys
}

// Stats returns a snapshot of the counters.
func (c *Cache[T]) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Loads:     c.loads.Load(),
		Evictions: c.evictions.Load(),
	}
}

// Purge unloads every backend.
func (c *Cache[T]) Purge() {
	c.mu.Lock()
	var evicted []*entry[T]
	for elem := c.lru.Front(); elem != nil; elem = elem.Next() {
		evicted = append(evicted, elem.Value.(*entry[T]))
	}
	c.entries = make(map[Key]*list.Element)
	c.lru.Init()
	c.mu.Unlock()

	for _, e := range evicted {
		c.release(e)
	}
}

// Close unloads every backend. The cache stays usable.
func (c *Cache[T]) Close() error {
	c.Purge()

	return nil
}
