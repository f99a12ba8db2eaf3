package auth

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmailSetContains(t *testing.T) {
	ctx := context.Background()

	t.Run("loads lazily and answers membership", func(t *testing.T) {
		var calls int32
		set := NewEmailSet(func(ctx context.Context) ([]string, error) {
			atomic.AddInt32(&calls, 1)
			return []string{"Alice@Example.com", "bob@example.com"}, nil
		}, time.Minute)

		ok, err := set.Contains(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.True(t, ok)

		// Case and whitespace are normalized on both sides.
		ok, err = set.Contains(ctx, "  BOB@example.COM ")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = set.Contains(ctx, "mallory@example.com")
		require.NoError(t, err)
		assert.False(t, ok)

		// All three lookups served from the single initial load.
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})

	t.Run("reloads after ttl expiry", func(t *testing.T) {
		var calls int32
		set := NewEmailSet(func(ctx context.Context) ([]string, error) {
			n := atomic.AddInt32(&calls, 1)
			if n == 1 {
				return []string{"alice@example.com"}, nil
			}
			return []string{"bob@example.com"}, nil
		}, 10*time.Millisecond)

		ok, err := set.Contains(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.True(t, ok)

		time.Sleep(20 * time.Millisecond)

		ok, err = set.Contains(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.False(t, ok)
		ok, err = set.Contains(ctx, "bob@example.com")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	})

	t.Run("serves stale snapshot when refresh fails", func(t *testing.T) {
		var calls int32
		set := NewEmailSet(func(ctx context.Context) ([]string, error) {
			if atomic.AddInt32(&calls, 1) == 1 {
				return []string{"alice@example.com"}, nil
			}
			return nil, errors.New("db down")
		}, 10*time.Millisecond)

		ok, err := set.Contains(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.True(t, ok)

		time.Sleep(20 * time.Millisecond)

		ok, err = set.Contains(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.True(t, ok, "stale snapshot should keep serving")
	})

	t.Run("errors when never loaded", func(t *testing.T) {
		set := NewEmailSet(func(ctx context.Context) ([]string, error) {
			return nil, errors.New("db down")
		}, time.Minute)

		_, err := set.Contains(ctx, "alice@example.com")
		assert.Error(t, err)
	})
}

func TestEmailSetRefresh(t *testing.T) {
	var calls int32
	set := NewEmailSet(func(ctx context.Context) ([]string, error) {
		atomic.AddInt32(&calls, 1)
		return []string{"alice@example.com"}, nil
	}, time.Hour)

	require.NoError(t, set.Refresh(context.Background()))
	require.NoError(t, set.Refresh(context.Background()))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}
