package fetch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errUpstreamDown = errors.New("upstream down")

func fixedSource(data []byte, err error) Source {
	return func(ctx context.Context) ([]byte, error) {
		return data, err
	}
}

func TestFetchNetworkFirst(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	f := New(store)

	res, err := f.Fetch(ctx, "k", NetworkFirst, false,
		fixedSource([]byte("fresh"), nil))
	require.NoError(t, err)
	assert.Equal(t, []byte("fresh"), res.Data)
	assert.False(t, res.Stale)
	assert.False(t, res.FromCache)

	// write-through happened
	data, _, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("fresh"), data)
}

func TestFetchNetworkFirstFallsBackToCache(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	f := New(store)

	_, err := f.Fetch(ctx, "k", NetworkFirst, false,
		fixedSource([]byte("cached"), nil))
	require.NoError(t, err)

	res, err := f.Fetch(ctx, "k", NetworkFirst, false,
		fixedSource(nil, errUpstreamDown))
	require.NoError(t, err)
	assert.Equal(t, []byte("cached"), res.Data)
	assert.True(t, res.Stale)
	assert.True(t, res.FromCache)
}

func TestFetchNetworkFirstNoCacheNoNetwork(t *testing.T) {
	f := New(NewMemStore())
	_, err := f.Fetch(context.Background(), "k", NetworkFirst, false,
		fixedSource(nil, errUpstreamDown))
	assert.ErrorIs(t, err, errUpstreamDown)
}

func TestFetchCacheFirst(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	f := New(store)
	require.NoError(t, store.Put(ctx, "k", []byte("cached")))

	var calls atomic.Int32
	res, err := f.Fetch(ctx, "k", CacheFirst, false,
		func(ctx context.Context) ([]byte, error) {
			calls.Add(1)
			return []byte("fresh"), nil
		})
	require.NoError(t, err)
	assert.Equal(t, []byte("cached"), res.Data)
	assert.True(t, res.FromCache)
	assert.Equal(t, int32(0), calls.Load(), "cache hit must not fetch")

	// a miss fetches and fills the cache
	res, err = f.Fetch(ctx, "other", CacheFirst, false,
		func(ctx context.Context) ([]byte, error) {
			calls.Add(1)
			return []byte("fresh"), nil
		})
	require.NoError(t, err)
	assert.Equal(t, []byte("fresh"), res.Data)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchForceBypassesCache(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	f := New(store)
	require.NoError(t, store.Put(ctx, "k", []byte("old")))

	res, err := f.Fetch(ctx, "k", CacheFirst, true,
		fixedSource([]byte("new"), nil))
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), res.Data)

	data, _, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), data, "force refresh must overwrite the cache")
}

// slowReadStore holds every cache read open until release is closed so
// tests can pin a resolution in flight.
type slowReadStore struct {
	*MemStore
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

//nolint:whitespace // can't make both editor and linter happy
func (s *slowReadStore) Get(ctx context.Context, key string) (
	[]byte, time.Time, error,
) {
	s.once.Do(func() { close(s.entered) })
	<-s.release
	return s.MemStore.Get(ctx, key)
}

func TestFetchForceSkipsInFlightResolution(t *testing.T) {
	ctx := context.Background()
	store := &slowReadStore{
		MemStore: NewMemStore(),
		entered:  make(chan struct{}),
		release:  make(chan struct{}),
	}
	require.NoError(t, store.MemStore.Put(ctx, "k", []byte("old")))
	f := New(store)

	// pin a non-forced resolution inside the cache read
	done := make(chan struct{})
	go func() {
		defer close(done)
		res, err := f.Fetch(ctx, "k", CacheFirst, false,
			fixedSource([]byte("old"), nil))
		assert.NoError(t, err)
		assert.NotNil(t, res)
	}()
	<-store.entered

	var forcedCalls atomic.Int32
	res, err := f.Fetch(ctx, "k", CacheFirst, true,
		func(ctx context.Context) ([]byte, error) {
			forcedCalls.Add(1)
			return []byte("new"), nil
		})
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), res.Data,
		"forced refresh must not join a pending cache read")
	assert.False(t, res.FromCache)
	assert.Equal(t, int32(1), forcedCalls.Load(), "force must reach the network")

	close(store.release)
	<-done
}

func TestFetchCoalescesConcurrentRequests(t *testing.T) {
	ctx := context.Background()
	f := New(NewMemStore())

	var calls atomic.Int32
	entered := make(chan struct{})
	release := make(chan struct{})
	src := func(ctx context.Context) ([]byte, error) {
		calls.Add(1)
		close(entered)
		<-release
		return []byte("data"), nil
	}

	const clients = 8
	var wg sync.WaitGroup
	for range clients {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.Fetch(ctx, "k", NetworkFirst, false, src)
			assert.NoError(t, err)
			assert.Equal(t, []byte("data"), res.Data)
		}()
	}
	// hold the first flight open until all clients had a chance to join
	<-entered
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()
	assert.Equal(t, int32(1), calls.Load(), "requests must share one flight")
}
