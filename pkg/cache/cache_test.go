package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoaderFillsMisses(t *testing.T) {
	calls := 0
	c := NewLoader(
		WithLoader(func(_ context.Context, key string) (*string, error) {
			calls++
			val := "value-" + key
			return &val, nil
		}))
	ctx := context.Background()

	got, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "value-a", *got)
	assert.Equal(t, 1, calls)

	// second read comes from the cache
	got, err = c.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "value-a", *got)
	assert.Equal(t, 1, calls)
}

func TestLoaderErrorIsNotCached(t *testing.T) {
	wantErr := errors.New("load failed")
	fail := true
	c := NewLoader(
		WithLoader(func(_ context.Context, key string) (*int, error) {
			if fail {
				return nil, wantErr
			}
			val := 42
			return &val, nil
		}))
	ctx := context.Background()

	_, err := c.Get(ctx, "a")
	assert.ErrorIs(t, err, wantErr)

	fail = false
	got, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 42, *got)
}

func TestExpiredEntryIsReloaded(t *testing.T) {
	calls := 0
	c := NewLoader(
		WithExpiration[string, string](10*time.Millisecond),
		WithLoader(func(_ context.Context, key string) (*string, error) {
			calls++
			val := key
			return &val, nil
		}))
	ctx := context.Background()

	_, err := c.Get(ctx, "a")
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)
	_, err = c.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestInvalidate(t *testing.T) {
	calls := 0
	c := NewLoader(
		WithLoader(func(_ context.Context, key string) (*string, error) {
			calls++
			val := key
			return &val, nil
		}))
	ctx := context.Background()

	_, err := c.Get(ctx, "a")
	require.NoError(t, err)
	c.Invalidate(ctx, "a")
	_, err = c.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestMissWithoutLoader(t *testing.T) {
	c := NewLoader[string, string]()
	_, err := c.Get(context.Background(), "a")
	assert.ErrorIs(t, err, ErrCacheMiss)
}
