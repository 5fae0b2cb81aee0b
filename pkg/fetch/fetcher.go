package fetch

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/fwt-tools/fwt-dashboard-sync-go/log"
)

// Policy decides the resolution order for a resource key.
type Policy int

const (
	// NetworkFirst prefers a live fetch and falls back to the cached copy.
	// Used for event/athlete/ranking data.
	NetworkFirst Policy = iota
	// CacheFirst serves the cached copy when present and only fetches on
	// a miss. Used for translation style resources.
	CacheFirst
)

// Source performs the live fetch for a resource.
type Source func(ctx context.Context) ([]byte, error)

// Store is the persistent write-through cache behind the fetcher.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, time.Time, error)
	Put(ctx context.Context, key string, data []byte) error
}

// ErrNoEntry is returned by stores when a key is absent.
var ErrNoEntry = errors.New("no cache entry")

type Result struct {
	Data []byte
	// Stale is set when the live fetch failed and the cached copy was
	// served instead.
	Stale     bool
	FromCache bool
}

// Fetcher implements the offline-first fetch policy. It is constructed
// once at startup and passed by reference; there is no package level
// state. Duplicate in-flight requests for the same key share one result.
type Fetcher struct {
	store Store
	group singleflight.Group
	l     *log.Logger
}

type Option func(*Fetcher)

func WithLogger(l *log.Logger) Option {
	return func(f *Fetcher) { f.l = l }
}

func New(store Store, opts ...Option) *Fetcher {
	ret := &Fetcher{
		store: store,
		l:     log.Default().Named("fetch"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Fetch resolves the resource according to the policy.
// force bypasses the cache read, always fetches and overwrites the cache
// on success.
//
//nolint:whitespace // can't make both editor and linter happy
func (f *Fetcher) Fetch(ctx context.Context, key string, policy Policy,
	force bool, src Source,
) (*Result, error) {
	if force {
		// a forced request must always reach the network; joining an
		// in-flight resolution could hand it a cache-served result
		f.group.Forget(key)
		return f.resolve(ctx, key, policy, true, src)
	}
	res, err, shared := f.group.Do(key, func() (interface{}, error) {
		return f.resolve(ctx, key, policy, false, src)
	})
	if shared {
		f.l.Debug("coalesced request", log.String("key", key))
	}
	if err != nil {
		return nil, err
	}
	return res.(*Result), nil
}

//nolint:whitespace // can't make both editor and linter happy
func (f *Fetcher) resolve(ctx context.Context, key string, policy Policy,
	force bool, src Source,
) (*Result, error) {
	if force {
		return f.fromNetwork(ctx, key, src)
	}

	if policy == CacheFirst {
		if data, _, err := f.store.Get(ctx, key); err == nil {
			return &Result{Data: data, FromCache: true}, nil
		} else if !errors.Is(err, ErrNoEntry) {
			// storage errors degrade to a miss
			f.l.Warn("cache read failed", log.String("key", key), log.ErrorField(err))
		}
		return f.fromNetwork(ctx, key, src)
	}

	// network first
	ret, netErr := f.fromNetwork(ctx, key, src)
	if netErr == nil {
		return ret, nil
	}
	if data, _, err := f.store.Get(ctx, key); err == nil {
		f.l.Debug("serving cached copy after failed fetch",
			log.String("key", key), log.ErrorField(netErr))
		return &Result{Data: data, Stale: true, FromCache: true}, nil
	} else if !errors.Is(err, ErrNoEntry) {
		f.l.Warn("cache read failed", log.String("key", key), log.ErrorField(err))
	}
	return nil, netErr
}

func (f *Fetcher) fromNetwork(ctx context.Context, key string, src Source) (
	*Result, error,
) {
	data, err := src(ctx)
	if err != nil {
		return nil, err
	}
	if err := f.store.Put(ctx, key, data); err != nil {
		// write-through failures must not fail the request
		f.l.Warn("cache write failed", log.String("key", key), log.ErrorField(err))
	}
	return &Result{Data: data}, nil
}

// MemStore is an in-memory Store used by the snapshot CLI and in tests.
type MemStore struct {
	mutex   sync.Mutex
	entries map[string]memEntry
}

type memEntry struct {
	data    []byte
	written time.Time
}

func NewMemStore() *MemStore {
	return &MemStore{entries: make(map[string]memEntry)}
}

func (s *MemStore) Get(ctx context.Context, key string) ([]byte, time.Time, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return nil, time.Time{}, ErrNoEntry
	}
	return e.data, e.written, nil
}

func (s *MemStore) Put(ctx context.Context, key string, data []byte) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.entries[key] = memEntry{data: data, written: time.Now()}
	return nil
}
