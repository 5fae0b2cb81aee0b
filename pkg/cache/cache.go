package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fwt-tools/fwt-dashboard-sync-go/log"
)

var ErrCacheMiss = errors.New("cache miss")

type Cache[K comparable, V any] interface {
	Get(ctx context.Context, key K) (*V, error)
	Invalidate(ctx context.Context, key K)
}

type (
	LoaderFunc[K comparable, V any] func(ctx context.Context, key K) (*V, error)

	Option[K comparable, V any] func(*config[K, V])

	config[K comparable, V any] struct {
		expiration time.Duration
		loader     LoaderFunc[K, V]
		l          *log.Logger
	}

	item[T any] struct {
		data    T
		expires time.Time
	}

	loaderCache[K comparable, V any] struct {
		mutex  sync.Mutex
		items  map[K]item[*V]
		config *config[K, V]
	}
)

func WithExpiration[K comparable, V any](expiration time.Duration) Option[K, V] {
	return func(c *config[K, V]) { c.expiration = expiration }
}

func WithLoader[K comparable, V any](lf LoaderFunc[K, V]) Option[K, V] {
	return func(c *config[K, V]) { c.loader = lf }
}

func WithLogger[K comparable, V any](arg *log.Logger) Option[K, V] {
	return func(c *config[K, V]) { c.l = arg }
}

// NewLoader creates an expiring in-memory cache which fills misses via
// the configured loader.
func NewLoader[K comparable, V any](opts ...Option[K, V]) Cache[K, V] {
	c := &config[K, V]{
		expiration: 5 * time.Minute,
		l:          log.Default().Named("cache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return &loaderCache[K, V]{
		items:  make(map[K]item[*V]),
		config: c,
	}
}

func (c *loaderCache[K, V]) Get(ctx context.Context, key K) (*V, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if cacheItem, ok := c.items[key]; ok {
		if cacheItem.expires.Before(time.Now()) {
			delete(c.items, key)
			return c.load(ctx, key)
		}
		return cacheItem.data, nil
	}
	return c.load(ctx, key)
}

func (c *loaderCache[K, V]) load(ctx context.Context, key K) (*V, error) {
	if c.config.loader == nil {
		return nil, ErrCacheMiss
	}
	v, err := c.config.loader(ctx, key)
	if err != nil {
		return nil, err
	}
	c.items[key] = item[*V]{
		data:    v,
		expires: time.Now().Add(c.config.expiration),
	}
	return v, nil
}

func (c *loaderCache[K, V]) Invalidate(ctx context.Context, key K) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.config.l.Debug("invalidate", log.Any("key", key))
	delete(c.items, key)
}
